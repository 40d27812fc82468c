package config

import (
	"github.com/kbukum/modelfixture/database"
	"github.com/kbukum/modelfixture/errors"
	"github.com/kbukum/modelfixture/logger"
	"github.com/kbukum/modelfixture/validation"
)

// Suite is the configuration of a fixture-backed test suite.
//
//	name: billing
//	database:
//	  driver: sqlite
//	  dsn: "file:billing?mode=memory&cache=shared"
//	  auto_migrate: true
//	fixtures:
//	  dir: testdata/fixtures
type Suite struct {
	Name          string              `yaml:"name" mapstructure:"name" validate:"required"`
	Database      database.Config     `yaml:"database" mapstructure:"database"`
	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Fixtures      FixturesConfig      `yaml:"fixtures" mapstructure:"fixtures"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// FixturesConfig locates fixture data files.
type FixturesConfig struct {
	// Dir is the base directory for relative fixture file paths.
	Dir string `yaml:"dir" mapstructure:"dir" validate:"required"`
}

// ObservabilityConfig enables OTLP export of fixture spans and metrics.
type ObservabilityConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// ApplyDefaults applies default values to the suite and its sections.
func (c *Suite) ApplyDefaults() {
	if c.Fixtures.Dir == "" {
		c.Fixtures.Dir = "testdata/fixtures"
	}
	if c.Observability.Enabled && c.Observability.Endpoint == "" {
		c.Observability.Endpoint = "localhost:4318"
		c.Observability.Insecure = true
	}
	if c.Observability.Enabled && c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
	c.Database.ApplyDefaults()
	c.Logging.ApplyDefaults()
}

// Validate checks struct tags first, then each section's own rules.
// Every failure is a configuration error.
func (c *Suite) Validate() error {
	if err := validation.ValidateConfig(c); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.InvalidConfiguration(err.Error())
	}
	return nil
}

// Load reads the suite configuration, applies defaults and validates it.
func Load(name string, opts ...LoaderOption) (*Suite, error) {
	cfg := &Suite{}
	if err := LoadConfig(name, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
