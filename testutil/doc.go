// Package testutil connects lifecycle components to Go's testing package.
//
// A TestComponent is a component.Component that can also be reset between
// test cases. Fixture managers and the in-memory database component both
// implement it.
//
//	func TestCheckout(t *testing.T) {
//	    testutil.T(t).Setup(fixtures)
//	    // fixtures are unloaded when the test ends
//	}
//
// Manual cleanup:
//
//	cleanup, err := testutil.Setup(fixtures)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer cleanup()
package testutil
