// Package testutil provides an in-memory SQLite database for tests and row
// count assertions that understand soft-deleted rows.
//
//	db := testutil.NewComponent().WithModels(&User{})
//	gtestutil.T(t).Setup(db)
//
//	testutil.AssertRowCount(t, db.DB(), &User{}, 0)
//
// Reset clears every table and restarts auto-increment counters, which makes
// generated ids predictable across test cases.
package testutil
