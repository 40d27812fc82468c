// Package config loads test suite configuration with Viper.
//
// A YAML file found next to the tests (testdata/<suite>.yml, fixtures.yml,
// ...) is the base; environment variables and a .env file override it:
//
//	cfg, err := config.Load("billing", config.WithEnvPrefix("FIXTURES"))
//
// FIXTURES_DATABASE_DSN then overrides database.dsn.
package config
