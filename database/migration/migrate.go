// Package migration applies versioned SQL migrations through golang-migrate
// before fixtures load, for schemas that GORM auto-migration cannot express.
//
// Files follow golang-migrate naming, VERSION_name.up.sql and
// VERSION_name.down.sql:
//
//	driver, _ := migration.DriverFor("sqlite")
//	err := migration.Up(gormDB, os.DirFS("testdata/migrations"), ".", driver)
package migration

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/kbukum/modelfixture/errors"
)

// DriverFunc wraps an open sql.DB in a golang-migrate driver.
type DriverFunc func(*sql.DB) (migratedb.Driver, error)

// DriverFor returns the migrate driver for a database.Config driver name.
func DriverFor(name string) (DriverFunc, error) {
	switch name {
	case "sqlite":
		return func(db *sql.DB) (migratedb.Driver, error) {
			return migratesqlite.WithInstance(db, &migratesqlite.Config{})
		}, nil
	case "mysql":
		return func(db *sql.DB) (migratedb.Driver, error) {
			return migratemysql.WithInstance(db, &migratemysql.Config{})
		}, nil
	default:
		return nil, errors.InvalidConfigurationf("no migration driver for %q", name)
	}
}

// Up applies every pending migration. No pending migrations is not an error.
func Up(db *gorm.DB, fsys fs.FS, dir string, driver DriverFunc) error {
	m, err := newMigrator(db, fsys, dir, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back every applied migration.
func Down(db *gorm.DB, fsys fs.FS, dir string, driver DriverFunc) error {
	m, err := newMigrator(db, fsys, dir, driver)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Steps applies n migrations forward, or rolls back -n when n is negative.
func Steps(db *gorm.DB, fsys fs.FS, dir string, n int, driver DriverFunc) error {
	m, err := newMigrator(db, fsys, dir, driver)
	if err != nil {
		return err
	}
	if err := m.Steps(n); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate steps: %w", err)
	}
	return nil
}

// Version returns the applied version and whether the last migration failed
// halfway. A database without migrations reports version 0.
func Version(db *gorm.DB, fsys fs.FS, dir string, driver DriverFunc) (version uint, dirty bool, err error) {
	m, err := newMigrator(db, fsys, dir, driver)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if stderrors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// newMigrator must not be followed by m.Close: that closes the shared sql.DB.
func newMigrator(db *gorm.DB, fsys fs.FS, dir string, driverFn DriverFunc) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	driver, err := driverFn(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}
	source, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, errors.InvalidConfigurationf("cannot read migrations from %s", dir).WithCause(err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "database", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
