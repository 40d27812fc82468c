package fixture

import (
	"testing"

	"github.com/kbukum/modelfixture/testutil"
)

// Use loads fixtures for the duration of a test: they are loaded now, in
// dependency order, and unloaded in reverse when the test finishes.
func Use(tb testing.TB, fixtures ...Fixture) *Manager {
	tb.Helper()
	m := NewManager(nil)
	if err := m.Add(fixtures...); err != nil {
		tb.Fatalf("fixture setup: %v", err)
	}
	testutil.T(tb).Setup(m)
	return m
}
