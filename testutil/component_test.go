package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/modelfixture/component"
	"github.com/kbukum/modelfixture/testutil"
)

// mockComponent is a test implementation of TestComponent
type mockComponent struct {
	name        string
	started     bool
	stopped     bool
	resetCalled bool
	startErr    error
	stopErr     error
	resetErr    error
}

func newMockComponent(name string) *mockComponent {
	return &mockComponent{name: name}
}

func (m *mockComponent) Name() string {
	return m.name
}

func (m *mockComponent) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	m.stopped = false
	return nil
}

func (m *mockComponent) Stop(ctx context.Context) error {
	if m.stopErr != nil {
		return m.stopErr
	}
	m.stopped = true
	m.started = false
	return nil
}

func (m *mockComponent) Health(ctx context.Context) component.Health {
	status := component.StatusUnhealthy
	if m.started {
		status = component.StatusHealthy
	}
	return component.Health{Name: m.name, Status: status}
}

func (m *mockComponent) Reset(ctx context.Context) error {
	if m.resetErr != nil {
		return m.resetErr
	}
	m.resetCalled = true
	return nil
}

func TestComponent_Interface(t *testing.T) {
	var _ testutil.TestComponent = newMockComponent("test")
}

func TestComponent_ErrorHandling(t *testing.T) {
	comp := newMockComponent("broken")
	comp.startErr = errors.New("start failed")

	if _, err := testutil.Setup(comp); err == nil {
		t.Error("Setup() should fail when Start fails")
	}
	if comp.started {
		t.Error("component should not be started")
	}
}
