//go:build integration

package database

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/kbukum/modelfixture/logger"
)

// startMySQL runs a disposable MySQL server and returns a DSN for it.
func startMySQL(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("fixtures"),
		mysql.WithUsername("fixture"),
		mysql.WithPassword("fixture"),
	)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("failed to terminate mysql container: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("failed to start mysql container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "parseTime=true")
	if err != nil {
		t.Fatalf("failed to build mysql dsn: %v", err)
	}
	return dsn
}

func TestOpen_MySQL(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: DriverMySQL, DSN: startMySQL(t)}, logger.Nop())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("AutoMigrate() failed: %v", err)
	}

	w := &widget{Name: "gear"}
	if err := db.WithContext(ctx).Create(w).Error; err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if w.ID == 0 {
		t.Error("expected generated id")
	}

	if err := db.WithContext(ctx).Unscoped().Delete(w).Error; err != nil {
		t.Fatalf("Unscoped().Delete() failed: %v", err)
	}

	var count int64
	if err := db.WithContext(ctx).Unscoped().Model(&widget{}).Count(&count).Error; err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("unscoped count = %d, want 0", count)
	}
}
