// Package validation checks configuration structs before a suite touches the
// database.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection.
//
// # Struct Tag Validation
//
//	type FixturesConfig struct {
//	    Dir string `validate:"required"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("dsn", cfg.DSN).OneOf("driver", cfg.Driver, drivers)
//	err := v.ConfigurationError()
package validation
