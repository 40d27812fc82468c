package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kbukum/modelfixture/component"
	"github.com/kbukum/modelfixture/database"
	"github.com/kbukum/modelfixture/logger"
	"github.com/kbukum/modelfixture/testutil"
)

// Component is a test database component backed by a private in-memory
// SQLite database. It implements component.Component and testutil.TestComponent.
type Component struct {
	db      *database.DB
	log     *logger.Logger
	dsn     string
	models  []interface{}
	started bool
	mu      sync.RWMutex
}

var _ component.Component = (*Component)(nil)
var _ testutil.TestComponent = (*Component)(nil)

// NewComponent creates a new test database component. Every component gets
// its own named in-memory database, so parallel tests never share rows.
func NewComponent() *Component {
	return &Component{
		log: logger.Nop(),
		dsn: fmt.Sprintf("file:fixture_%s?mode=memory&cache=shared", uuid.NewString()),
	}
}

// WithModels registers models for auto-migration on Start.
func (c *Component) WithModels(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// WithLogger routes GORM query errors to log.
func (c *Component) WithLogger(log *logger.Logger) *Component {
	c.log = log
	return c
}

// DB returns the GORM handle, or nil if not started.
func (c *Component) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil
	}
	return c.db.GormDB
}

// Database returns the wrapped *database.DB, or nil if not started.
func (c *Component) Database() *database.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Name returns the component name.
func (c *Component) Name() string {
	return "database-test"
}

// Start opens the in-memory database and migrates the registered models.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("component already started")
	}

	// A single connection serializes statements; shared-cache SQLite
	// otherwise reports "database table is locked" under concurrent use.
	db, err := database.Open(ctx, database.Config{
		Driver:       database.DriverSQLite,
		DSN:          c.dsn,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "error",
	}, c.log)
	if err != nil {
		return fmt.Errorf("failed to open test database: %w", err)
	}

	if len(c.models) > 0 {
		if err := db.AutoMigrate(c.models...); err != nil {
			_ = db.Close()
			return fmt.Errorf("auto-migrate failed: %w", err)
		}
	}

	c.db = db
	c.started = true
	return nil
}

// Stop closes the database; the in-memory data is discarded with it.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.db == nil {
		return nil
	}

	err := c.db.Close()
	c.db = nil
	c.started = false
	return err
}

// Health returns the health status of the test database.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started || c.db == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "database not started",
		}
	}

	if err := c.db.PingContext(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
	}
}

// Reset deletes every row from every table, keeping the schema, and restarts
// auto-increment counters so the next insert gets id 1 again.
func (c *Component) Reset(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started || c.db == nil {
		return fmt.Errorf("component not started")
	}

	db := c.db.WithContext(ctx)
	tables, err := TableNames(db)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM ?", clause.Table{Name: table}).Error; err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}

	if db.Migrator().HasTable("sqlite_sequence") {
		if err := db.Exec("DELETE FROM sqlite_sequence").Error; err != nil {
			return fmt.Errorf("failed to reset sequences: %w", err)
		}
	}
	return nil
}
