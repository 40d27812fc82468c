package fixture

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/kbukum/modelfixture/errors"
)

// ModelFactory returns a pointer to a new zero value of the target model.
type ModelFactory func() any

// ModelOf returns the factory for model type T.
func ModelOf[T any]() ModelFactory {
	return func() any { return new(T) }
}

// SoftDeleter is declared by models whose normal delete only marks rows as
// deleted. Cleanup removes such rows permanently.
type SoftDeleter interface {
	SupportsPermanentDelete() bool
}

// SupportsSoftDelete reports whether model declares soft delete.
func SupportsSoftDelete(model any) bool {
	s, ok := model.(SoftDeleter)
	return ok && s.SupportsPermanentDelete()
}

// parseSchema resolves the GORM schema of model without touching storage.
func parseSchema(db *gorm.DB, model any) (*schema.Schema, error) {
	rv := reflect.ValueOf(model)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, errors.InvalidConfigurationf("model factory must return a non-nil struct pointer, got %T", model)
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, errors.InvalidConfigurationf("cannot parse model %T", model).WithCause(err)
	}
	if len(stmt.Schema.PrimaryFields) == 0 {
		return nil, errors.InvalidConfigurationf("model %T has no primary key", model)
	}
	return stmt.Schema, nil
}

// assign copies row into record through the model's schema.
func assign(ctx context.Context, sch *schema.Schema, record any, row Row) *errors.AppError {
	rv := reflect.ValueOf(record)
	for name, value := range row {
		field := sch.LookUpField(name)
		if field == nil || field.Set == nil {
			return errors.InvalidInput(name, fmt.Sprintf("unknown field for model %s", sch.Name))
		}
		if err := field.Set(ctx, rv, value); err != nil {
			return errors.InvalidInput(name, fmt.Sprintf("cannot assign %T to %s.%s", value, sch.Name, field.Name)).
				WithCause(err)
		}
	}
	return nil
}

// keyColumn is the column a loaded row reports its generated id under.
func keyColumn(sch *schema.Schema) string {
	if sch.PrioritizedPrimaryField != nil {
		return sch.PrioritizedPrimaryField.DBName
	}
	return sch.PrimaryFields[0].DBName
}

// primaryKey returns the primary key of record: the value itself for single
// keys, a column map for composite ones.
func primaryKey(ctx context.Context, sch *schema.Schema, record any) any {
	rv := reflect.ValueOf(record)
	if len(sch.PrimaryFields) == 1 {
		v, _ := sch.PrimaryFields[0].ValueOf(ctx, rv)
		return v
	}
	key := make(map[string]any, len(sch.PrimaryFields))
	for _, field := range sch.PrimaryFields {
		key[field.DBName], _ = field.ValueOf(ctx, rv)
	}
	return key
}

// keyConditions matches record by every primary key column, zero values
// included.
func keyConditions(ctx context.Context, sch *schema.Schema, record any) map[string]any {
	rv := reflect.ValueOf(record)
	cond := make(map[string]any, len(sch.PrimaryFields))
	for _, field := range sch.PrimaryFields {
		cond[field.DBName], _ = field.ValueOf(ctx, rv)
	}
	return cond
}

// mergeKeys adds every primary key column of record to row.
func mergeKeys(ctx context.Context, sch *schema.Schema, record any, row Row) Row {
	merged := row.Clone()
	rv := reflect.ValueOf(record)
	for _, field := range sch.PrimaryFields {
		merged[field.DBName], _ = field.ValueOf(ctx, rv)
	}
	return merged
}

func typeName(model any) string {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}
