// Package fixture loads declarative test rows into a database through GORM
// and removes them again after the test.
//
// A ModelFixture manages one model. Load inserts every row of its Source in
// order and records, per alias, the row merged with the generated primary
// key. Unload deletes every record of the model, permanently for models that
// declare soft delete, and clears the recorded data:
//
//	users := fixture.New(db, fixture.ModelOf[User](), fixture.Rows(
//		fixture.Entry{Alias: "admin", Row: fixture.Row{"name": "Alice"}},
//		fixture.Entry{Alias: "guest", Row: fixture.Row{"name": "Bob"}},
//	))
//	fixture.Use(t, users)
//
//	adminID, _ := users.ID("admin")
//
// Failures to delete single records during Unload are logged and collected
// in a CleanupReport; they never fail the test.
package fixture
