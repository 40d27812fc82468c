// Package database opens the GORM connection that fixtures write through.
//
// Open picks a dialector from Config.Driver ("sqlite" or "mysql"), applies
// pool settings and routes GORM's own logging through package logger.
//
//	db, err := database.Open(ctx, database.Config{
//	    Driver: database.DriverSQLite,
//	    DSN:    "file:fixtures?mode=memory&cache=shared",
//	}, log)
//
// Config.MigrationsDir points Component at golang-migrate SQL files that run
// on Start before GORM auto-migration (see package migration).
//
// Models embedding Model or UUIDModel soft-delete and declare it through
// SupportsPermanentDelete; models embedding HardModel are removed outright.
package database
