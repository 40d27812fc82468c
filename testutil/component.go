package testutil

import (
	"context"

	"github.com/kbukum/modelfixture/component"
)

// TestComponent extends component.Component with a reset between test cases.
type TestComponent interface {
	component.Component

	// Reset restores the component to the state it had right after Start.
	Reset(ctx context.Context) error
}
