package database

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/modelfixture/database/migration"
	"github.com/kbukum/modelfixture/errors"
	"github.com/kbukum/modelfixture/logger"
	"github.com/kbukum/modelfixture/resilience"
)

// DB wraps a GORM database with structured logging.
type DB struct {
	GormDB *gorm.DB
	log    *logger.Logger
	cfg    Config
	closed bool
	mu     sync.Mutex
}

// Dialector returns the GORM dialector for cfg.Driver.
func Dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return sqlite.Open(cfg.DSN), nil
	case DriverMySQL:
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, errors.InvalidConfigurationf("unsupported database driver %q", cfg.Driver)
	}
}

// Open validates cfg, picks the dialector for cfg.Driver and connects with retries.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithDialector(ctx, d, cfg, log)
}

// NewWithDialector connects through the given dialector. Connection errors
// are retried up to cfg.MaxRetries times; canceling ctx stops the retries.
func NewWithDialector(ctx context.Context, d gorm.Dialector, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Get("database")
	}

	slowThreshold, _ := time.ParseDuration(cfg.SlowQueryThreshold)
	gormCfg := &gorm.Config{
		Logger:         newGormLogger(log, slowThreshold, parseLogLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	attempts := 0
	db, err := resilience.Retry(ctx, resilience.RetryConfig{
		MaxAttempts:    cfg.MaxRetries,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		RetryIf:        IsConnectionError,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			log.Warn("Database connection attempt failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
				"backoff": backoff.String(),
			})
		},
	}, func(ctx context.Context) (*gorm.DB, error) {
		attempts++
		return connect(ctx, d, gormCfg, cfg)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("database connection canceled: %w", ctx.Err())
		}
		return nil, errors.ConnectionFailed(cfg.Driver).WithCause(err)
	}

	log.Debug("Database connection established", logger.Fields(
		"driver", cfg.Driver,
		"attempt", attempts,
	))
	return &DB{GormDB: db, log: log, cfg: cfg}, nil
}

// connect opens one connection pool and checks it with a ping.
func connect(ctx context.Context, d gorm.Dialector, gormCfg *gorm.Config, cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(d, gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpenConns(cfg))
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
		sqlDB.SetConnMaxLifetime(lifetime)
	}
	return db, nil
}

// maxOpenConns pins private in-memory SQLite databases to a single
// connection; every new connection to ":memory:" would see an empty database.
func maxOpenConns(cfg Config) int {
	if cfg.Driver == DriverSQLite && strings.Contains(cfg.DSN, ":memory:") && !strings.Contains(cfg.DSN, "cache=shared") {
		return 1
	}
	return cfg.MaxOpenConns
}

// Close closes the underlying sql.DB connection pool. Safe to call multiple times.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}

	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	d.closed = true
	return sqlDB.Close()
}

// PingContext verifies the database connection is alive, respecting the context.
func (d *DB) PingContext(ctx context.Context) error {
	sqlDB, err := d.GormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// WithContext returns a GORM session scoped to the given context.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.GormDB.WithContext(ctx)
}

// Config returns the effective configuration after defaults.
func (d *DB) Config() Config {
	return d.cfg
}

// AutoMigrate runs GORM auto-migration for the given models.
func (d *DB) AutoMigrate(models ...interface{}) error {
	for _, model := range models {
		if err := d.GormDB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	d.log.Debug("Auto-migration completed", logger.Fields("models", len(models)))
	return nil
}

// Migrate applies the pending SQL migrations in dir.
func (d *DB) Migrate(dir string) error {
	driver, err := migration.DriverFor(d.cfg.Driver)
	if err != nil {
		return err
	}
	if err := migration.Up(d.GormDB, os.DirFS(dir), ".", driver); err != nil {
		return err
	}
	d.log.Debug("Migrations applied", logger.Fields("dir", dir))
	return nil
}
