package testutil

import (
	"fmt"
	"testing"

	"gorm.io/gorm"
)

// TableNames returns every user table in a SQLite database.
func TableNames(db *gorm.DB) ([]string, error) {
	var tables []string
	err := db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").
		Scan(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// CountRows counts the visible rows of target, which is either a table name
// or a model. Soft-deleted rows of a model are not counted.
func CountRows(db *gorm.DB, target interface{}) (int64, error) {
	var count int64
	err := scope(db, target).Count(&count).Error
	return count, err
}

// CountRowsUnscoped counts every row of target, soft-deleted ones included.
func CountRowsUnscoped(db *gorm.DB, target interface{}) (int64, error) {
	var count int64
	err := scope(db.Unscoped(), target).Count(&count).Error
	return count, err
}

func scope(db *gorm.DB, target interface{}) *gorm.DB {
	if table, ok := target.(string); ok {
		return db.Table(table)
	}
	return db.Model(target)
}

// AssertRowCount fails the test if target does not have the expected number of visible rows.
func AssertRowCount(t testing.TB, db *gorm.DB, target interface{}, expected int64) {
	t.Helper()
	count, err := CountRows(db, target)
	if err != nil {
		t.Fatalf("failed to count rows in %v: %v", describe(target), err)
	}
	if count != expected {
		t.Errorf("%s row count = %d, want %d", describe(target), count, expected)
	}
}

// AssertTableEmpty fails the test if target has any row left, soft-deleted ones included.
func AssertTableEmpty(t testing.TB, db *gorm.DB, target interface{}) {
	t.Helper()
	count, err := CountRowsUnscoped(db, target)
	if err != nil {
		t.Fatalf("failed to count rows in %s: %v", describe(target), err)
	}
	if count != 0 {
		t.Errorf("table %s is not empty: has %d rows", describe(target), count)
	}
}

func describe(target interface{}) string {
	if table, ok := target.(string); ok {
		return table
	}
	return fmt.Sprintf("%T", target)
}
