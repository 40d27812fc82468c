package database

import (
	"os"
	"time"

	"github.com/kbukum/modelfixture/validation"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Drivers lists every driver Open understands.
var Drivers = []string{DriverSQLite, DriverMySQL}

// Config holds database connection configuration.
type Config struct {
	// Driver selects the GORM dialector: "sqlite" or "mysql".
	Driver string `mapstructure:"driver"`

	// DSN is the driver-specific connection string.
	DSN string `mapstructure:"dsn"`

	// MaxOpenConns sets the maximum number of open connections to the database.
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// MaxIdleConns sets the maximum number of idle connections in the pool.
	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// ConnMaxLifetime is the maximum time a connection may be reused (e.g. "1h", "30m").
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`

	// MaxRetries is the number of connection attempts before giving up.
	MaxRetries int `mapstructure:"max_retries"`

	// MigrationsDir holds golang-migrate SQL files applied on Start, before
	// auto-migration. Empty disables versioned migrations.
	MigrationsDir string `mapstructure:"migrations_dir"`

	// AutoMigrate controls whether registered models are migrated after connecting.
	AutoMigrate bool `mapstructure:"auto_migrate"`

	// LogLevel is the GORM log level: silent, error, warn or info.
	LogLevel string `mapstructure:"log_level"`

	// SlowQueryThreshold is the duration above which queries are logged as slow (e.g. "200ms").
	SlowQueryThreshold string `mapstructure:"slow_query_threshold"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.Driver == DriverSQLite && c.DSN == "" {
		c.DSN = "file::memory:?cache=shared"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = min(2, c.MaxOpenConns)
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "1h"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.SlowQueryThreshold == "" {
		c.SlowQueryThreshold = "200ms"
	}
}

// Validate checks that required fields are present and parseable.
// Failures are configuration errors.
func (c *Config) Validate() error {
	v := validation.New().
		Required("driver", c.Driver).
		OneOf("driver", c.Driver, Drivers).
		Required("dsn", c.DSN).
		Min("max_open_conns", c.MaxOpenConns, 1).
		Min("max_idle_conns", c.MaxIdleConns, 1).
		Min("max_retries", c.MaxRetries, 1).
		OneOf("log_level", c.LogLevel, []string{"silent", "error", "warn", "info"})

	v.Custom(c.MaxIdleConns <= c.MaxOpenConns, "max_idle_conns", "must be <= max_open_conns")
	v.Custom(c.MigrationsDir == "" || isDir(c.MigrationsDir), "migrations_dir", "must be an existing directory")
	v.Custom(parses(c.ConnMaxLifetime), "conn_max_lifetime", "must be a duration")
	v.Custom(parses(c.SlowQueryThreshold), "slow_query_threshold", "must be a duration")

	if err := v.ConfigurationError(); err != nil {
		return err
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func parses(d string) bool {
	_, err := time.ParseDuration(d)
	return err == nil
}
