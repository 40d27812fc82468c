package fixture

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/kbukum/modelfixture/component"
	"github.com/kbukum/modelfixture/errors"
	"github.com/kbukum/modelfixture/logger"
	"github.com/kbukum/modelfixture/testutil"
)

// Manager loads a set of fixtures in dependency order and unloads them in
// reverse. It implements testutil.TestComponent.
type Manager struct {
	fixtures map[string]Fixture
	names    []string
	loaded   []Fixture
	log      *logger.Logger
	mu       sync.Mutex
}

var _ testutil.TestComponent = (*Manager)(nil)

// NewManager creates an empty manager.
func NewManager(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Get("fixture")
	}
	return &Manager{
		fixtures: make(map[string]Fixture),
		log:      log.WithComponent("fixture-manager"),
	}
}

// Add registers fixtures. Names must be unique and non-empty.
func (m *Manager) Add(fixtures ...Fixture) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range fixtures {
		if f == nil {
			return errors.InvalidConfiguration("nil fixture")
		}
		name := f.Name()
		if name == "" {
			return errors.InvalidConfiguration("fixture without a name")
		}
		if _, exists := m.fixtures[name]; exists {
			return errors.InvalidConfigurationf("fixture %q already registered", name)
		}
		m.fixtures[name] = f
		m.names = append(m.names, name)
	}
	return nil
}

// Get returns the fixture registered under name.
func (m *Manager) Get(name string) (Fixture, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fixtures[name]
	return f, ok
}

// Bind attaches db to every registered ModelFixture.
func (m *Manager) Bind(db *gorm.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range m.names {
		if mf, ok := m.fixtures[name].(*ModelFixture); ok {
			mf.SetDB(db)
		}
	}
}

// LoadOrder returns the fixtures sorted so that every fixture follows its
// dependencies. Ties keep registration order. Unknown dependencies and
// cycles are configuration errors.
func (m *Manager) LoadOrder() ([]Fixture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadOrder()
}

func (m *Manager) loadOrder() ([]Fixture, error) {
	pending := make(map[string]int, len(m.names))
	dependents := make(map[string][]string, len(m.names))
	for _, name := range m.names {
		deps := dependencies(m.fixtures[name])
		for _, dep := range deps {
			if _, ok := m.fixtures[dep]; !ok {
				return nil, errors.InvalidConfigurationf("fixture %q depends on unknown fixture %q", name, dep)
			}
			dependents[dep] = append(dependents[dep], name)
		}
		pending[name] = len(deps)
	}

	order := make([]Fixture, 0, len(m.names))
	done := make(map[string]bool, len(m.names))
	for len(order) < len(m.names) {
		progressed := false
		for _, name := range m.names {
			if done[name] || pending[name] > 0 {
				continue
			}
			done[name] = true
			progressed = true
			order = append(order, m.fixtures[name])
			for _, dependent := range dependents[name] {
				pending[dependent]--
			}
		}
		if !progressed {
			var stuck []string
			for _, name := range m.names {
				if !done[name] {
					stuck = append(stuck, name)
				}
			}
			return nil, errors.InvalidConfigurationf("fixture dependency cycle among %v", stuck)
		}
	}
	return order, nil
}

func dependencies(f Fixture) []string {
	if d, ok := f.(Dependent); ok {
		return d.Dependencies()
	}
	return nil
}

// Load loads every fixture in dependency order and stops at the first
// failure. Unload also cleans up the fixture that failed. Fixtures left
// from an earlier Load are unloaded first.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, err := m.loadOrder()
	if err != nil {
		return err
	}
	if len(m.loaded) > 0 {
		if err := m.unload(ctx); err != nil {
			return err
		}
	}
	for _, f := range order {
		// tracked before loading: a partial load leaves rows to clean up
		m.loaded = append(m.loaded, f)
		if err := f.Load(ctx); err != nil {
			return fmt.Errorf("load fixture %s: %w", f.Name(), err)
		}
	}
	m.log.Debug("Fixtures loaded", logger.Fields(logger.FieldRows, len(m.loaded)))
	return nil
}

// Unload unloads the loaded fixtures in reverse order. It keeps going after
// a failure and returns all failures joined.
func (m *Manager) Unload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unload(ctx)
}

func (m *Manager) unload(ctx context.Context) error {
	var errs []error
	for i := len(m.loaded) - 1; i >= 0; i-- {
		f := m.loaded[i]
		if err := f.Unload(ctx); err != nil {
			m.log.Error("Failed to unload fixture", logger.Fields(
				logger.FieldFixture, f.Name(),
				logger.FieldError, err.Error(),
			))
			errs = append(errs, fmt.Errorf("unload fixture %s: %w", f.Name(), err))
		}
	}
	m.loaded = nil
	return stderrors.Join(errs...)
}

// Name returns the component name.
func (m *Manager) Name() string { return "fixtures" }

// Start loads the fixtures.
func (m *Manager) Start(ctx context.Context) error { return m.Load(ctx) }

// Stop unloads the fixtures.
func (m *Manager) Stop(ctx context.Context) error { return m.Unload(ctx) }

// Reset reloads every fixture so ids and rows match a fresh Start.
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.Unload(ctx); err != nil {
		return err
	}
	return m.Load(ctx)
}

// Health reports how many fixtures are loaded.
func (m *Manager) Health(_ context.Context) component.Health {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := component.StatusHealthy
	if len(m.loaded) < len(m.names) {
		status = component.StatusDegraded
	}
	return component.Health{
		Name:    m.Name(),
		Status:  status,
		Message: fmt.Sprintf("%d/%d fixtures loaded", len(m.loaded), len(m.names)),
	}
}
