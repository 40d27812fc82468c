// Package logger provides structured logging on top of zerolog.
//
// Fixtures, the GORM adapter and the suite bootstrap all log through a
// *Logger so that cleanup warnings carry the same fields everywhere.
//
// # Configuration
//
//	logging:
//	  level: "warn"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("fixture")
//	log.Warn("failed to delete record", logger.Fields("table", "users"))
package logger
