package fixture

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/kbukum/modelfixture/database"
	"github.com/kbukum/modelfixture/errors"
	"github.com/kbukum/modelfixture/logger"
	"github.com/kbukum/modelfixture/observability"
)

// ModelFixture loads rows into the table of one GORM model.
type ModelFixture struct {
	Base

	db         *gorm.DB
	model      ModelFactory
	source     Source
	log        *logger.Logger
	metrics    *observability.FixtureMetrics
	softDelete bool
	deps       []string
	report     *CleanupReport
}

// Option configures a ModelFixture.
type Option func(*ModelFixture)

// WithName overrides the fixture name, which defaults to the model type name.
func WithName(name string) Option {
	return func(f *ModelFixture) { f.name = name }
}

// WithLogger sets the logger for load and cleanup messages.
func WithLogger(log *logger.Logger) Option {
	return func(f *ModelFixture) { f.log = log }
}

// WithSoftDelete makes cleanup delete permanently even though the model
// does not implement SoftDeleter.
func WithSoftDelete() Option {
	return func(f *ModelFixture) { f.softDelete = true }
}

// WithMetrics reports to m instead of the global meter provider.
func WithMetrics(m *observability.FixtureMetrics) Option {
	return func(f *ModelFixture) { f.metrics = m }
}

// DependsOn names fixtures a Manager must load before this one.
func DependsOn(names ...string) Option {
	return func(f *ModelFixture) { f.deps = append(f.deps, names...) }
}

// New creates a fixture for the model built by model, filled from source.
// Missing configuration is reported by Load and Unload, not here.
func New(db *gorm.DB, model ModelFactory, source Source, opts ...Option) *ModelFixture {
	f := &ModelFixture{
		db:     db,
		model:  model,
		source: source,
	}
	if model != nil {
		f.name = typeName(model())
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.Get("fixture")
	}
	if f.metrics == nil {
		f.metrics = observability.DefaultFixtureMetrics()
	}
	f.log = f.log.WithFields(logger.Fields(logger.FieldFixture, f.name))
	return f
}

// SetDB binds the fixture to db. Suites use it to attach fixtures declared
// before the database was opened.
func (f *ModelFixture) SetDB(db *gorm.DB) {
	f.db = db
}

// Dependencies returns the names given to DependsOn.
func (f *ModelFixture) Dependencies() []string {
	return f.deps
}

// LastCleanup returns the report of the most recent Unload, or nil.
func (f *ModelFixture) LastCleanup() *CleanupReport {
	return f.report
}

func (f *ModelFixture) validate() (*schema.Schema, error) {
	if f.model == nil {
		return nil, errors.InvalidConfigurationf("fixture %q has no target model", f.name)
	}
	if f.db == nil {
		return nil, errors.InvalidConfigurationf("fixture %q has no database", f.name)
	}
	sch, err := parseSchema(f.db, f.model())
	if err != nil {
		return nil, err
	}
	f.key = keyColumn(sch)
	return sch, nil
}

// Load inserts every entry of the source in order. The first failing row
// aborts the load and its error is returned; rows inserted before it stay
// in the database and in Data.
func (f *ModelFixture) Load(ctx context.Context) (err error) {
	sch, err := f.validate()
	if err != nil {
		return err
	}
	if f.source == nil {
		return errors.InvalidConfigurationf("fixture %q has no source", f.name)
	}

	f.resetData()
	ctx, op := observability.StartOperation(ctx, observability.SpanFixtureLoad, f.name, sch.Table)
	defer func() {
		op.SetRows(f.Data().Len())
		duration := op.End(err)
		if err == nil {
			f.metrics.RecordLoad(ctx, f.name, sch.Table, f.Data().Len(), duration)
			f.log.Debug("Fixture loaded", logger.Fields(
				logger.FieldTable, sch.Table,
				logger.FieldRows, f.Data().Len(),
				logger.FieldDuration, duration.Milliseconds(),
			))
		}
	}()

	entries, err := f.source.Entries(ctx)
	if err != nil {
		return err
	}
	if err := checkAliases(entries); err != nil {
		return err
	}

	db := f.db.WithContext(ctx)
	for _, entry := range entries {
		record := f.model()
		if err := assign(ctx, sch, record, entry.Row); err != nil {
			return err.WithDetail("alias", entry.Alias)
		}
		if err := db.Create(record).Error; err != nil {
			return database.FromDatabase(err, sch.Table).WithDetails(map[string]any{
				"table": sch.Table,
				"alias": entry.Alias,
			})
		}
		f.data.add(entry.Alias, mergeKeys(ctx, sch, record, entry.Row))
	}
	return nil
}

// Unload deletes every record of the model and clears Data. Records that
// fail to delete are logged and kept in LastCleanup; they do not make
// Unload fail.
func (f *ModelFixture) Unload(ctx context.Context) (err error) {
	sch, err := f.validate()
	if err != nil {
		return err
	}

	ctx, op := observability.StartOperation(ctx, observability.SpanFixtureUnload, f.name, sch.Table)
	defer func() { op.End(err) }()

	opts := []CleanupOption{CleanupLogger(f.log)}
	if f.softDelete {
		opts = append(opts, Permanent())
	}

	report, err := DeleteAll(ctx, f.db, f.model, opts...)
	f.resetData()
	f.report = report
	if err != nil {
		return err
	}

	op.SetRows(report.Deleted)
	op.SetFailures(len(report.Failures))
	f.metrics.RecordUnload(ctx, f.name, sch.Table, report.Deleted, len(report.Failures), op.Duration())
	f.log.Debug("Fixture unloaded", logger.Fields(
		logger.FieldTable, sch.Table,
		logger.FieldRows, report.Deleted,
		"failures", len(report.Failures),
	))
	return nil
}

func checkAliases(entries []Entry) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Alias] {
			return errors.InvalidInput("alias", "duplicate alias "+e.Alias)
		}
		seen[e.Alias] = true
	}
	return nil
}
