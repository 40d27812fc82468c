// Package errors provides the structured error type shared by the fixture
// loader and its supporting packages.
//
// Every failure surfaced to a test harness is an *AppError carrying a
// machine-readable code, a human-readable category label and message, and
// the underlying cause when one exists.
//
//	if err := users.Load(ctx); err != nil {
//	    if errors.IsInvalidConfiguration(err) {
//	        // the fixture was built without a model or database
//	    }
//	}
package errors
