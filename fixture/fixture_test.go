package fixture

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/kbukum/modelfixture/database"
	dbtest "github.com/kbukum/modelfixture/database/testutil"
	"github.com/kbukum/modelfixture/errors"
	"github.com/kbukum/modelfixture/logger"
	"github.com/kbukum/modelfixture/testutil"
)

// User is soft-deletable through database.Model.
type User struct {
	database.Model
	Name  string
	Email string
}

// Member has a unique email.
type Member struct {
	database.HardModel
	Email string `gorm:"uniqueIndex"`
}

// Note has no primary key.
type Note struct {
	Body string
}

// Tag is deleted for real.
type Tag struct {
	database.HardModel
	Label string
}

// Account refuses deletion while locked.
type Account struct {
	database.HardModel
	Name string
}

func (a *Account) BeforeDelete(*gorm.DB) error {
	if a.Name == "locked" {
		return stderrors.New("account is locked")
	}
	return nil
}

var errRejected = errors.InvalidInput("name", "rejected")

// Guarded rejects rows named "bad" with a wrapped shared error.
type Guarded struct {
	database.HardModel
	Name string
}

func (g *Guarded) BeforeCreate(*gorm.DB) error {
	if g.Name == "bad" {
		return fmt.Errorf("guard for %s: %w", g.Name, errRejected)
	}
	return nil
}

// Archive has a deleted_at column but does not declare soft delete.
type Archive struct {
	ID        uint `gorm:"primaryKey"`
	Title     string
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func newDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()
	c := dbtest.NewComponent().WithModels(models...)
	testutil.T(t).Setup(c)
	return c.DB()
}

func captureLogger() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf), &buf
}

// countStorageCalls counts every statement GORM sends to db.
func countStorageCalls(t *testing.T, db *gorm.DB) *int {
	t.Helper()
	calls := 0
	count := func(*gorm.DB) { calls++ }
	cb := db.Callback()
	for _, err := range []error{
		cb.Create().Before("gorm:create").Register("test:count_create", count),
		cb.Query().Before("gorm:query").Register("test:count_query", count),
		cb.Delete().Before("gorm:delete").Register("test:count_delete", count),
		cb.Update().Before("gorm:update").Register("test:count_update", count),
		cb.Raw().Before("gorm:raw").Register("test:count_raw", count),
	} {
		if err != nil {
			t.Fatalf("failed to register callback: %v", err)
		}
	}
	return &calls
}

func adminAndGuest() StaticSource {
	return Rows(
		Entry{Alias: "admin", Row: Row{"name": "Alice"}},
		Entry{Alias: "guest", Row: Row{"name": "Bob"}},
	)
}

func TestModelFixture_AdminGuestScenario(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, &User{})
	users := New(db, ModelOf[User](), adminAndGuest(), WithLogger(logger.Nop()))

	if err := users.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := map[string]Row{
		"admin": {"name": "Alice", "id": uint(1)},
		"guest": {"name": "Bob", "id": uint(2)},
	}
	if got := users.Data().Map(); !reflect.DeepEqual(got, want) {
		t.Errorf("Data() = %v, want %v", got, want)
	}
	if got := users.Data().Aliases(); !reflect.DeepEqual(got, []string{"admin", "guest"}) {
		t.Errorf("Aliases() = %v, want [admin guest]", got)
	}

	if err := users.Unload(ctx); err != nil {
		t.Fatalf("Unload() failed: %v", err)
	}
	if users.Data().Len() != 0 {
		t.Errorf("Data().Len() after Unload = %d, want 0", users.Data().Len())
	}
	dbtest.AssertTableEmpty(t, db, &User{})
}

func TestModelFixture_LoadRecordsEveryRow(t *testing.T) {
	db := newDB(t, &User{})
	source := Sequence(
		Row{"name": "Ann", "email": "ann@example.com"},
		Row{"Name": "Ben", "Email": "ben@example.com"},
		Row{"name": "Cid", "email": "cid@example.com"},
	)
	users := New(db, ModelOf[User](), source, WithLogger(logger.Nop()))

	if err := users.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if users.Data().Len() != 3 {
		t.Fatalf("Data().Len() = %d, want 3", users.Data().Len())
	}
	for i, entry := range users.Data().Entries() {
		decl := source[i]
		if entry.Alias != decl.Alias {
			t.Errorf("entry %d alias = %q, want %q", i, entry.Alias, decl.Alias)
		}
		for k, v := range decl.Row {
			if entry.Row[k] != v {
				t.Errorf("%s[%s] = %v, want %v", entry.Alias, k, entry.Row[k], v)
			}
		}
		id, ok := users.ID(entry.Alias)
		if !ok || id == uint(0) {
			t.Errorf("ID(%s) = %v, %v; want a generated id", entry.Alias, id, ok)
		}
	}
	if _, ok := source[0].Row["id"]; ok {
		t.Error("Load must not modify the declared rows")
	}
	dbtest.AssertRowCount(t, db, &User{}, 3)

	var ben User
	if err := db.Where("email = ?", "ben@example.com").First(&ben).Error; err != nil {
		t.Fatalf("row declared with Go field names was not stored: %v", err)
	}
	if ben.Name != "Ben" {
		t.Errorf("Name = %q, want Ben", ben.Name)
	}
}

func TestModelFixture_MustGetAndID(t *testing.T) {
	db := newDB(t, &Tag{})
	tags := New(db, ModelOf[Tag](), Rows(Entry{Alias: "go", Row: Row{"label": "golang"}}), WithLogger(logger.Nop()))
	if err := tags.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	row := tags.MustGet(t, "go")
	if row["label"] != "golang" {
		t.Errorf("label = %v, want golang", row["label"])
	}
	if _, ok := tags.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
	if _, ok := tags.ID("missing"); ok {
		t.Error("ID(missing) should report false")
	}
	if tags.Name() != "Tag" {
		t.Errorf("Name() = %q, want Tag", tags.Name())
	}
}

func TestModelFixture_LoadIsFreshEachTime(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, &Tag{})
	first := true
	source := SourceFunc(func(context.Context) ([]Entry, error) {
		if first {
			first = false
			return []Entry{{Alias: "a", Row: Row{"label": "a"}}, {Alias: "b", Row: Row{"label": "b"}}}, nil
		}
		return []Entry{{Alias: "c", Row: Row{"label": "c"}}}, nil
	})
	tags := New(db, ModelOf[Tag](), source, WithLogger(logger.Nop()))

	if err := tags.Load(ctx); err != nil {
		t.Fatalf("first Load() failed: %v", err)
	}
	if err := tags.Load(ctx); err != nil {
		t.Fatalf("second Load() failed: %v", err)
	}
	if got := tags.Data().Aliases(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("Aliases() = %v, want [c]", got)
	}
}

func TestModelFixture_HardDeleteLeavesNothing(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, &Tag{})

	// rows the fixture did not insert are swept as well
	if err := db.Create(&Tag{Label: "pre-existing"}).Error; err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	tags := New(db, ModelOf[Tag](), Sequence(Row{"label": "x"}, Row{"label": "y"}), WithLogger(logger.Nop()))
	if err := tags.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := tags.Unload(ctx); err != nil {
		t.Fatalf("Unload() failed: %v", err)
	}

	var remaining []Tag
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected empty table, found %d rows", len(remaining))
	}

	report := tags.LastCleanup()
	if report.Found != 3 || report.Deleted != 3 || report.Permanent {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestModelFixture_SoftDeleteIsPermanent(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, &User{})

	trashed := &User{Name: "Old", Email: "old@example.com"}
	if err := db.Create(trashed).Error; err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := db.Delete(trashed).Error; err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	users := New(db, ModelOf[User](), adminAndGuest(), WithLogger(logger.Nop()))
	if err := users.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := users.Unload(ctx); err != nil {
		t.Fatalf("Unload() failed: %v", err)
	}

	var remaining []User
	if err := db.Unscoped().Find(&remaining).Error; err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected no rows including soft-deleted ones, found %d", len(remaining))
	}
	if report := users.LastCleanup(); !report.Permanent || report.Found != 3 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestModelFixture_WithSoftDelete(t *testing.T) {
	ctx := context.Background()
	source := Sequence(Row{"title": "a"}, Row{"title": "b"})

	t.Run("without option rows are only marked", func(t *testing.T) {
		db := newDB(t, &Archive{})
		archives := New(db, ModelOf[Archive](), source, WithLogger(logger.Nop()))
		if err := archives.Load(ctx); err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if err := archives.Unload(ctx); err != nil {
			t.Fatalf("Unload() failed: %v", err)
		}
		dbtest.AssertRowCount(t, db, &Archive{}, 0)
		if n, _ := dbtest.CountRowsUnscoped(db, &Archive{}); n != 2 {
			t.Errorf("unscoped count = %d, want 2 soft-deleted rows", n)
		}
	})

	t.Run("with option rows are removed", func(t *testing.T) {
		db := newDB(t, &Archive{})
		archives := New(db, ModelOf[Archive](), source, WithLogger(logger.Nop()), WithSoftDelete())
		if err := archives.Load(ctx); err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if err := archives.Unload(ctx); err != nil {
			t.Fatalf("Unload() failed: %v", err)
		}
		dbtest.AssertTableEmpty(t, db, &Archive{})
	})
}

func TestModelFixture_UnloadToleratesFailedDeletes(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, &Account{})
	log, buf := captureLogger()

	accounts := New(db, ModelOf[Account](), Rows(
		Entry{Alias: "a", Row: Row{"name": "open"}},
		Entry{Alias: "b", Row: Row{"name": "locked"}},
		Entry{Alias: "c", Row: Row{"name": "closed"}},
	), WithLogger(log))

	if err := accounts.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := accounts.Unload(ctx); err != nil {
		t.Fatalf("Unload() must not fail on per-record errors, got %v", err)
	}

	report := accounts.LastCleanup()
	if report.Deleted != 2 {
		t.Errorf("Deleted = %d, want 2", report.Deleted)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("Failures = %d, want 1", len(report.Failures))
	}
	if report.Failures[0].Key != uint(2) {
		t.Errorf("failure key = %v, want 2", report.Failures[0].Key)
	}
	if report.Err() == nil || !strings.Contains(report.Err().Error(), "account is locked") {
		t.Errorf("Err() = %v, want the hook error", report.Err())
	}
	dbtest.AssertRowCount(t, db, &Account{}, 1)

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"table":"accounts"`, `"error":"account is locked"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
	if accounts.Data().Len() != 0 {
		t.Error("data set should be empty after Unload")
	}
}

func TestModelFixture_ConfigurationErrors(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, &User{})
	calls := countStorageCalls(t, db)

	tests := []struct {
		name    string
		fixture *ModelFixture
	}{
		{"no model", New(db, nil, adminAndGuest(), WithLogger(logger.Nop()))},
		{"no database", New(nil, ModelOf[User](), adminAndGuest(), WithLogger(logger.Nop()))},
		{"no primary key", New(db, ModelOf[Note](), adminAndGuest(), WithLogger(logger.Nop()))},
		{"non-pointer model", New(db, func() any { return User{} }, adminAndGuest(), WithLogger(logger.Nop()))},
		{"nil model pointer", New(db, func() any { return (*User)(nil) }, adminAndGuest(), WithLogger(logger.Nop()))},
		{"nil model", New(db, func() any { return nil }, adminAndGuest(), WithLogger(logger.Nop()))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for op, fn := range map[string]func(context.Context) error{
				"Load":   tt.fixture.Load,
				"Unload": tt.fixture.Unload,
			} {
				err := fn(ctx)
				if !errors.IsInvalidConfiguration(err) {
					t.Errorf("%s() error = %v, want configuration error", op, err)
				}
				if err != nil && !strings.HasPrefix(err.Error(), "Invalid Configuration") {
					t.Errorf("%s() error = %q, want the Invalid Configuration label", op, err.Error())
				}
			}
		})
	}

	noSource := New(db, ModelOf[User](), nil, WithLogger(logger.Nop()))
	if err := noSource.Load(ctx); !errors.IsInvalidConfiguration(err) {
		t.Errorf("Load() without source error = %v, want configuration error", err)
	}

	if *calls != 0 {
		t.Errorf("configuration errors must precede storage access, saw %d statements", *calls)
	}
}

func TestModelFixture_LoadStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, &Member{})

	members := New(db, ModelOf[Member](), Rows(
		Entry{Alias: "a", Row: Row{"email": "same@example.com"}},
		Entry{Alias: "b", Row: Row{"email": "same@example.com"}},
		Entry{Alias: "c", Row: Row{"email": "c@example.com"}},
	), WithLogger(logger.Nop()))

	err := members.Load(ctx)
	if err == nil {
		t.Fatal("expected Load() to fail on the duplicate row")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Details["alias"] != "b" || appErr.Details["table"] != "members" {
		t.Errorf("unexpected details %v", appErr.Details)
	}
	if appErr.Cause == nil {
		t.Error("expected the storage error as cause")
	}

	// rows before the failure stay
	dbtest.AssertRowCount(t, db, &Member{}, 1)
	if got := members.Data().Aliases(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Aliases() = %v, want [a]", got)
	}
}

func TestModelFixture_LoadKeepsHookErrors(t *testing.T) {
	db := newDB(t, &Guarded{})
	guarded := New(db, ModelOf[Guarded](), Rows(
		Entry{Alias: "ok", Row: Row{"name": "good"}},
		Entry{Alias: "nope", Row: Row{"name": "bad"}},
	), WithLogger(logger.Nop()))

	err := guarded.Load(context.Background())
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("Load() error = %v, want invalid input", err)
	}
	if !strings.Contains(err.Error(), "guard for bad") {
		t.Errorf("Load() error = %q, want the hook's own text", err.Error())
	}
	if !stderrors.Is(err, errRejected) {
		t.Error("expected the hook error to stay reachable")
	}
	appErr, _ := errors.AsAppError(err)
	if appErr == errRejected {
		t.Fatal("Load() returned the hook's shared error")
	}
	if appErr.Details["alias"] != "nope" || appErr.Details["table"] != "guardeds" {
		t.Errorf("unexpected details %v", appErr.Details)
	}
	want := map[string]any{"field": "name"}
	if !reflect.DeepEqual(errRejected.Details, want) {
		t.Errorf("shared error Details = %v, want %v", errRejected.Details, want)
	}
}

func TestModelFixture_LoadMissingTable(t *testing.T) {
	db := newDB(t) // nothing migrated
	users := New(db, ModelOf[User](), adminAndGuest(), WithLogger(logger.Nop()))

	err := users.Load(context.Background())
	if !errors.IsDatabaseError(err) {
		t.Errorf("Load() error = %v, want database error", err)
	}

	err = users.Unload(context.Background())
	if !errors.IsDatabaseError(err) {
		t.Errorf("Unload() error = %v, want database error for the failed fetch", err)
	}
}

func TestModelFixture_InvalidRows(t *testing.T) {
	ctx := context.Background()
	db := newDB(t, &User{})

	tests := []struct {
		name   string
		source Source
	}{
		{"unknown field", Sequence(Row{"nickname": "Al"})},
		{"wrong type", Sequence(Row{"created_at": []int{1}})},
		{"duplicate alias", Rows(
			Entry{Alias: "x", Row: Row{"name": "A"}},
			Entry{Alias: "x", Row: Row{"name": "B"}},
		)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := New(db, ModelOf[User](), tt.source, WithLogger(logger.Nop()))
			err := users.Load(ctx)
			if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Load() error = %v, want invalid input", err)
			}
			dbtest.AssertRowCount(t, db, &User{}, 0)
		})
	}
}

func TestSupportsSoftDelete(t *testing.T) {
	if !SupportsSoftDelete(&User{}) {
		t.Error("User embeds database.Model and should support soft delete")
	}
	if SupportsSoftDelete(&Tag{}) {
		t.Error("Tag should not support soft delete")
	}
	if SupportsSoftDelete(&Archive{}) {
		t.Error("a deleted_at column alone must not enable soft delete")
	}
}

func TestDataSet(t *testing.T) {
	d := NewDataSet()
	d.add("b", Row{"n": 1})
	d.add("a", Row{"n": 2})
	d.add("b", Row{"n": 3})

	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
	if got := d.Aliases(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Aliases() = %v, want [b a]", got)
	}
	if row, _ := d.Get("b"); row["n"] != 3 {
		t.Errorf("Get(b) = %v, want n=3", row)
	}
}
