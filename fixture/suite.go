package fixture

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/kbukum/modelfixture/component"
	"github.com/kbukum/modelfixture/config"
	"github.com/kbukum/modelfixture/database"
	"github.com/kbukum/modelfixture/logger"
	"github.com/kbukum/modelfixture/observability"
	"github.com/kbukum/modelfixture/testutil"
)

// Suite wires a database and a set of fixtures from a config.Suite.
// It implements testutil.TestComponent:
//
//	suite, _ := fixture.LoadSuite("billing")
//	suite.WithModels(&Invoice{})
//	invoices, _ := suite.File(fixture.ModelOf[Invoice](), "invoices.yml")
//	testutil.T(t).Setup(suite)
type Suite struct {
	cfg      *config.Suite
	log      *logger.Logger
	db       *database.Component
	fixtures *Manager
	registry *component.Registry
	shutdown []func(context.Context) error
}

var _ testutil.TestComponent = (*Suite)(nil)

// LoadSuite reads the configuration of the named suite and builds it.
func LoadSuite(name string, opts ...config.LoaderOption) (*Suite, error) {
	cfg, err := config.Load(name, opts...)
	if err != nil {
		return nil, err
	}
	return NewSuite(cfg)
}

// NewSuite builds a suite from cfg. Nothing is opened until Start.
func NewSuite(cfg *config.Suite) (*Suite, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(&cfg.Logging, cfg.Name)
	s := &Suite{
		cfg:      cfg,
		log:      log,
		db:       database.NewComponent(cfg.Database, log),
		fixtures: NewManager(log),
		registry: component.NewRegistry(log.WithComponent("suite")),
	}

	// the database must be up before fixtures load and close after they unload
	if err := s.registry.Register(s.db); err != nil {
		return nil, err
	}
	if err := s.registry.Register(&boundFixtures{Manager: s.fixtures, db: s.db}); err != nil {
		return nil, err
	}
	return s, nil
}

// WithModels registers models migrated on Start when database.auto_migrate is set.
func (s *Suite) WithModels(models ...any) *Suite {
	s.db.WithAutoMigrate(models...)
	return s
}

// Config returns the effective configuration.
func (s *Suite) Config() *config.Suite { return s.cfg }

// Logger returns the suite logger.
func (s *Suite) Logger() *logger.Logger { return s.log }

// Fixtures returns the fixture manager.
func (s *Suite) Fixtures() *Manager { return s.fixtures }

// DB returns the open database, or nil before Start.
func (s *Suite) DB() *gorm.DB {
	if db := s.db.DB(); db != nil {
		return db.GormDB
	}
	return nil
}

// Add declares a model fixture. The database is attached on Start.
func (s *Suite) Add(model ModelFactory, source Source, opts ...Option) (*ModelFixture, error) {
	opts = append([]Option{WithLogger(s.log)}, opts...)
	f := New(s.DB(), model, source, opts...)
	if err := s.fixtures.Add(f); err != nil {
		return nil, err
	}
	return f, nil
}

// File declares a model fixture read from path, relative to fixtures.dir
// unless absolute.
func (s *Suite) File(model ModelFactory, path string, opts ...Option) (*ModelFixture, error) {
	return s.Add(model, NewFileSource(s.resolve(path)), opts...)
}

func (s *Suite) resolve(path string) string {
	if filepath.IsAbs(path) || strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") {
		return path
	}
	return filepath.Join(s.cfg.Fixtures.Dir, path)
}

// Name returns the suite name.
func (s *Suite) Name() string { return s.cfg.Name }

// Start opens the database, migrates the models and loads the fixtures.
func (s *Suite) Start(ctx context.Context) error {
	if err := s.startObservability(ctx); err != nil {
		return err
	}
	if err := s.registry.StartAll(ctx); err != nil {
		return fmt.Errorf("suite %s: %w", s.cfg.Name, err)
	}
	return nil
}

// Stop unloads the fixtures, closes the database and flushes telemetry.
func (s *Suite) Stop(ctx context.Context) error {
	errs := []error{s.registry.StopAll(ctx)}
	for i := len(s.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, s.shutdown[i](ctx))
	}
	s.shutdown = nil
	return stderrors.Join(errs...)
}

// Reset unloads and reloads every fixture.
func (s *Suite) Reset(ctx context.Context) error {
	return s.fixtures.Reset(ctx)
}

// Health reports the worst status among the database and the fixtures.
func (s *Suite) Health(ctx context.Context) component.Health {
	health := component.Health{Name: s.Name(), Status: component.StatusHealthy}
	var messages []string
	for _, h := range s.registry.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		messages = append(messages, fmt.Sprintf("%s: %s", h.Name, h.Message))
		if health.Status != component.StatusUnhealthy {
			health.Status = h.Status
		}
	}
	health.Message = strings.Join(messages, "; ")
	return health
}

func (s *Suite) startObservability(ctx context.Context) error {
	obs := s.cfg.Observability
	if !obs.Enabled || len(s.shutdown) > 0 {
		return nil
	}

	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: s.cfg.Name,
		Environment: "test",
		Endpoint:    obs.Endpoint,
		Insecure:    obs.Insecure,
		SampleRate:  obs.SampleRate,
	})
	if err != nil {
		return err
	}
	s.shutdown = append(s.shutdown, tp.Shutdown)

	meterCfg := observability.DefaultMeterConfig(s.cfg.Name)
	meterCfg.Endpoint = obs.Endpoint
	meterCfg.Insecure = obs.Insecure
	mp, err := observability.InitMeter(ctx, &meterCfg)
	if err != nil {
		return err
	}
	s.shutdown = append(s.shutdown, mp.Shutdown)
	return nil
}

// boundFixtures attaches the suite database to the fixtures before loading.
type boundFixtures struct {
	*Manager
	db *database.Component
}

func (b *boundFixtures) Start(ctx context.Context) error {
	if db := b.db.DB(); db != nil {
		b.Bind(db.GormDB)
	}
	if err := b.Load(ctx); err != nil {
		// the registry only stops components that started
		return stderrors.Join(err, b.Unload(ctx))
	}
	return nil
}
