package bulk

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/leapstack-labs/duckgorm/pkg/dialect"
	"github.com/leapstack-labs/duckgorm/pkg/settings"
)

// CreateInBatches inserts value, a slice of models or a pointer to one.
// Below the threshold it is db.CreateInBatches. At or above it the rows
// go through the appender: zero auto-increment keys are drawn from their
// sequences and written back to the models, and zero create and update
// timestamps are set. Models with hooks, associations, non-creatable
// fields or expression defaults, and sessions inside a transaction, keep
// using db.CreateInBatches.
func (r *Router) CreateInBatches(db *gorm.DB, value any, batchSize int) (Result, error) {
	rv := reflect.Indirect(reflect.ValueOf(value))
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return r.gormCreate(db, value, batchSize)
	}
	n := rv.Len()
	if !r.UseAppender(n) {
		return r.gormCreate(db, value, batchSize)
	}
	sqlDB, ok := db.Statement.ConnPool.(*sql.DB)
	if !ok {
		return r.gormCreate(db, value, batchSize)
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(value); err != nil {
		return Result{}, fmt.Errorf("failed to parse model: %w", err)
	}
	s := stmt.Schema
	if len(s.DBNames) == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNoFields, s.Name)
	}
	if reason := notAppendable(s); reason != "" {
		r.logger().Debug("using insert path", "model", s.Name, "reason", reason)
		return r.gormCreate(db, value, batchSize)
	}

	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	elems := make([]reflect.Value, n)
	for i := range n {
		elems[i] = reflect.Indirect(rv.Index(i))
	}
	if err := assignKeys(ctx, sqlDB, s, elems); err != nil {
		return Result{}, err
	}

	now := db.NowFunc()
	rows := make([][]any, n)
	for i, elem := range elems {
		row := make([]any, len(s.DBNames))
		for j, name := range s.DBNames {
			field := s.FieldsByDBName[name]
			v, zero := field.ValueOf(ctx, elem)
			switch {
			case zero && (field.AutoCreateTime > 0 || field.AutoUpdateTime > 0):
				if err := field.Set(ctx, elem, now); err != nil {
					return Result{}, fmt.Errorf("failed to set %s: %w", field.Name, err)
				}
				v, _ = field.ValueOf(ctx, elem)
			case zero && field.DefaultValueInterface != nil:
				v = field.DefaultValueInterface
			}
			row[j] = v
		}
		rows[i] = row
	}

	res, err := r.Insert(ctx, sqlDB, s.Table, s.DBNames, rows)
	if err != nil {
		return res, err
	}
	db.RowsAffected = res.Rows
	return res, nil
}

func (r *Router) gormCreate(db *gorm.DB, value any, batchSize int) (Result, error) {
	tx := db.CreateInBatches(value, batchSize)
	if tx.Error != nil {
		bulkErrorsCounter.WithLabelValues(PathInsert).Inc()
		return Result{}, tx.Error
	}
	bulkRowsCounter.WithLabelValues(PathInsert).Add(float64(tx.RowsAffected))
	return Result{Path: PathInsert, Rows: tx.RowsAffected}, nil
}

// notAppendable returns why s cannot go through the appender, or "".
func notAppendable(s *schema.Schema) string {
	switch {
	case len(s.Relationships.Relations) > 0:
		return "associations"
	case s.BeforeCreate || s.AfterCreate || s.BeforeSave || s.AfterSave:
		return "hooks"
	}
	for _, name := range s.DBNames {
		f := s.FieldsByDBName[name]
		if !f.Creatable {
			return "read-only field " + f.Name
		}
		if f.HasDefaultValue && !f.AutoIncrement && f.DefaultValueInterface == nil {
			return "database default on " + f.Name
		}
	}
	return ""
}

// assignKeys fills zero auto-increment fields from their sequences.
func assignKeys(ctx context.Context, db *sql.DB, s *schema.Schema, elems []reflect.Value) error {
	for _, name := range s.DBNames {
		field := s.FieldsByDBName[name]
		if !field.AutoIncrement {
			continue
		}

		var pending []reflect.Value
		for _, elem := range elems {
			if _, zero := field.ValueOf(ctx, elem); zero {
				pending = append(pending, elem)
			}
		}
		if len(pending) == 0 {
			continue
		}

		ids, err := nextValues(ctx, db, dialect.SequenceName(s.Table, field.DBName), len(pending))
		if err != nil {
			return err
		}
		for i, elem := range pending {
			if err := field.Set(ctx, elem, ids[i]); err != nil {
				return fmt.Errorf("failed to set %s: %w", field.Name, err)
			}
		}
	}
	return nil
}

func nextValues(ctx context.Context, db *sql.DB, sequence string, n int) ([]int64, error) {
	lit, err := settings.Literal(sequence)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT nextval(%s) FROM range(%d)", lit, n))
	if err != nil {
		return nil, fmt.Errorf("failed to draw from %s: %w", sequence, err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]int64, 0, n)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s value: %w", sequence, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) != n {
		return nil, fmt.Errorf("sequence %s returned %d values, want %d", sequence, len(ids), n)
	}
	return ids, nil
}
