package fixture

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"

	"gorm.io/gorm"

	"github.com/kbukum/modelfixture/database"
	"github.com/kbukum/modelfixture/errors"
	"github.com/kbukum/modelfixture/logger"
)

// DeleteFailure is a record the cleanup sweep could not delete.
type DeleteFailure struct {
	// Index is the position of the record in the fetched set.
	Index int
	// Key is the record's primary key.
	Key any
	Err error
}

func (f DeleteFailure) Error() string {
	return fmt.Sprintf("record %v: %v", f.Key, f.Err)
}

func (f DeleteFailure) Unwrap() error { return f.Err }

// CleanupReport is the outcome of one DeleteAll sweep.
type CleanupReport struct {
	Table     string
	Permanent bool
	Found     int
	Deleted   int
	Failures  []DeleteFailure
}

// Err joins the per-record failures, or returns nil when there were none.
func (r *CleanupReport) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return stderrors.Join(errs...)
}

type cleanupConfig struct {
	permanent bool
	log       *logger.Logger
}

// CleanupOption configures DeleteAll.
type CleanupOption func(*cleanupConfig)

// Permanent forces permanent deletes for models that do not declare
// SoftDeleter themselves.
func Permanent() CleanupOption {
	return func(c *cleanupConfig) { c.permanent = true }
}

// CleanupLogger sets the logger that receives per-record warnings.
func CleanupLogger(log *logger.Logger) CleanupOption {
	return func(c *cleanupConfig) { c.log = log }
}

// DeleteAll removes every record of the model, not only rows a fixture
// inserted. Soft-delete models are fetched including trashed rows and
// deleted permanently. A record that fails to delete is logged, recorded in
// the report and skipped; only a failure to fetch the records is returned.
func DeleteAll(ctx context.Context, db *gorm.DB, model ModelFactory, opts ...CleanupOption) (*CleanupReport, error) {
	if db == nil {
		return nil, errors.InvalidConfiguration("cleanup requires a database")
	}
	if model == nil {
		return nil, errors.InvalidConfiguration("cleanup requires a target model")
	}

	cfg := cleanupConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.Get("fixture")
	}

	sample := model()
	sch, err := parseSchema(db, sample)
	if err != nil {
		return nil, err
	}

	permanent := cfg.permanent || SupportsSoftDelete(sample)
	session := func() *gorm.DB {
		tx := db.WithContext(ctx)
		if permanent {
			tx = tx.Unscoped()
		}
		return tx
	}

	records := reflect.New(reflect.SliceOf(reflect.TypeOf(sample)))
	if err := session().Find(records.Interface()).Error; err != nil {
		cfg.log.Error("Failed to fetch records for cleanup", logger.Fields(
			logger.FieldTable, sch.Table,
			logger.FieldError, err.Error(),
		))
		return nil, database.FromDatabase(err, sch.Table)
	}

	list := records.Elem()
	report := &CleanupReport{Table: sch.Table, Permanent: permanent, Found: list.Len()}
	for i := 0; i < list.Len(); i++ {
		record := list.Index(i).Interface()
		// GORM drops zero-valued keys from the WHERE clause on its own
		err := session().Where(keyConditions(ctx, sch, record)).Delete(record).Error
		if err != nil {
			failure := DeleteFailure{Index: i, Key: primaryKey(ctx, sch, record), Err: err}
			report.Failures = append(report.Failures, failure)
			cfg.log.Warn("Failed to delete record during cleanup", logger.Fields(
				logger.FieldTable, sch.Table,
				logger.FieldKey, fmt.Sprint(failure.Key),
				logger.FieldError, err.Error(),
			))
			continue
		}
		report.Deleted++
	}

	return report, nil
}
