package database

import (
	"strings"
	"testing"

	"github.com/kbukum/modelfixture/errors"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Driver != DriverSQLite {
		t.Errorf("Driver = %q, want %q", cfg.Driver, DriverSQLite)
	}
	if cfg.DSN != "file::memory:?cache=shared" {
		t.Errorf("DSN = %q", cfg.DSN)
	}
	if cfg.MaxOpenConns != 10 {
		t.Errorf("MaxOpenConns = %d, want 10", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns != 2 {
		t.Errorf("MaxIdleConns = %d, want 2", cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "1h" {
		t.Errorf("ConnMaxLifetime = %q, want %q", cfg.ConnMaxLifetime, "1h")
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
	if cfg.SlowQueryThreshold != "200ms" {
		t.Errorf("SlowQueryThreshold = %q, want %q", cfg.SlowQueryThreshold, "200ms")
	}
}

func TestConfig_ApplyDefaults_MySQLKeepsEmptyDSN(t *testing.T) {
	cfg := Config{Driver: DriverMySQL}
	cfg.ApplyDefaults()

	if cfg.DSN != "" {
		t.Errorf("DSN = %q, want empty for mysql", cfg.DSN)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing DSN to fail validation")
	}
}

func TestConfig_ApplyDefaults_SingleConnection(t *testing.T) {
	cfg := Config{MaxOpenConns: 1}
	cfg.ApplyDefaults()

	if cfg.MaxIdleConns != 1 {
		t.Errorf("MaxIdleConns = %d, want 1", cfg.MaxIdleConns)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestConfig_ApplyDefaults_PreservesExistingValues(t *testing.T) {
	cfg := Config{
		Driver:             DriverMySQL,
		DSN:                "user:pass@tcp(localhost:3306)/app",
		MaxOpenConns:       50,
		MaxIdleConns:       10,
		ConnMaxLifetime:    "2h",
		MaxRetries:         7,
		LogLevel:           "info",
		SlowQueryThreshold: "1s",
	}
	cfg.ApplyDefaults()

	if cfg.MaxOpenConns != 50 || cfg.MaxIdleConns != 10 || cfg.MaxRetries != 7 {
		t.Errorf("pool settings overwritten: %+v", cfg)
	}
	if cfg.ConnMaxLifetime != "2h" || cfg.LogLevel != "info" || cfg.SlowQueryThreshold != "1s" {
		t.Errorf("string settings overwritten: %+v", cfg)
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"unknown driver", func(c *Config) { c.Driver = "oracle" }, "driver: must be one of: sqlite, mysql"},
		{"empty dsn", func(c *Config) { c.DSN = "" }, "dsn: is required"},
		{"max open zero", func(c *Config) { c.MaxOpenConns = 0 }, "max_open_conns: must be at least 1"},
		{"idle above open", func(c *Config) { c.MaxIdleConns = 20 }, "max_idle_conns: must be <= max_open_conns"},
		{"bad lifetime", func(c *Config) { c.ConnMaxLifetime = "forever" }, "conn_max_lifetime: must be a duration"},
		{"bad slow threshold", func(c *Config) { c.SlowQueryThreshold = "slow" }, "slow_query_threshold: must be a duration"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level: must be one of"},
		{"retries zero", func(c *Config) { c.MaxRetries = 0 }, "max_retries: must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !errors.IsInvalidConfiguration(err) {
				t.Errorf("expected configuration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}
