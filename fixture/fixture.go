package fixture

import (
	"context"
	"testing"
)

// Row maps field names to values. Keys may be column names ("first_name")
// or Go field names ("FirstName").
type Row map[string]any

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Entry is one declared fixture row and the alias tests refer to it by.
type Entry struct {
	Alias string
	Row   Row
}

// Fixture is the lifecycle every fixture follows.
type Fixture interface {
	Name() string
	Load(ctx context.Context) error
	Unload(ctx context.Context) error
}

// Dependent is implemented by fixtures that must load after others.
type Dependent interface {
	Dependencies() []string
}

// Base holds the loaded data set and implements alias lookup. Concrete
// fixtures embed it.
type Base struct {
	name string
	key  string
	data *DataSet
}

// Name returns the fixture name.
func (b *Base) Name() string { return b.name }

// Data returns the rows recorded by the last Load. It is empty before Load
// and after Unload.
func (b *Base) Data() *DataSet {
	if b.data == nil {
		b.data = NewDataSet()
	}
	return b.data
}

// Get returns the loaded row for alias.
func (b *Base) Get(alias string) (Row, bool) {
	return b.Data().Get(alias)
}

// MustGet returns the loaded row for alias or fails the test.
func (b *Base) MustGet(tb testing.TB, alias string) Row {
	tb.Helper()
	row, ok := b.Get(alias)
	if !ok {
		tb.Fatalf("fixture %s: no row loaded for alias %q", b.name, alias)
	}
	return row
}

// ID returns the generated primary key of the row loaded under alias.
func (b *Base) ID(alias string) (any, bool) {
	row, ok := b.Get(alias)
	if !ok || b.key == "" {
		return nil, false
	}
	id, ok := row[b.key]
	return id, ok
}

func (b *Base) resetData() {
	b.data = NewDataSet()
}
