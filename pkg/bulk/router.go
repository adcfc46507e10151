// Package bulk routes row inserts either to a parameterised multi-row
// INSERT or, above a row threshold, to the engine's appender.
//
// The appender writes rows straight into the table's column storage on a
// dedicated connection. It expects every column of the table in table
// order, so the router checks the caller's column list against the catalog
// before appending.
package bulk

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/leapstack-labs/duckgorm/pkg/conn"
	"github.com/leapstack-labs/duckgorm/pkg/dialect"
)

// DefaultThreshold is the row count from which the appender is used.
const DefaultThreshold = 1000

// maxParams bounds the bind parameters of a single INSERT statement.
var maxParams = 32767

// Insert paths reported in Result.
const (
	PathInsert   = "insert"
	PathAppender = "appender"
)

var (
	// ErrNoColumns is returned when neither columns nor row values are given.
	ErrNoColumns = errors.New("no columns to insert")
	// ErrRowWidth is returned when a row does not match the column count.
	ErrRowWidth = errors.New("row width does not match columns")
	// ErrNoFields is returned for models without database fields.
	ErrNoFields = errors.New("model has no fields")
)

// ColumnOrderError reports a column list that differs from the table's.
type ColumnOrderError struct {
	Table string
	Want  []string
	Got   []string
}

func (e *ColumnOrderError) Error() string {
	return fmt.Sprintf("columns of %s must be given in table order (%s), got (%s)",
		e.Table, strings.Join(e.Want, ", "), strings.Join(e.Got, ", "))
}

// Result describes a completed insert.
type Result struct {
	Path string
	Rows int64
}

// Router picks the insert path by row count.
type Router struct {
	// Threshold is the row count from which the appender is used. Zero
	// means DefaultThreshold; a negative value disables the appender.
	Threshold int
	Logger    *slog.Logger
}

// NewRouter returns a router with the given threshold.
func NewRouter(threshold int, logger *slog.Logger) *Router {
	return &Router{Threshold: threshold, Logger: logger}
}

func (r *Router) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (r *Router) threshold() int {
	if r.Threshold == 0 {
		return DefaultThreshold
	}
	return r.Threshold
}

// UseAppender reports whether n rows go through the appender.
func (r *Router) UseAppender(n int) bool {
	t := r.threshold()
	return t > 0 && n >= t
}

// Insert writes rows into table. columns may be nil, in which case every
// row must carry a value for each table column in table order.
func (r *Router) Insert(ctx context.Context, db *sql.DB, table string, columns []string, rows [][]any) (Result, error) {
	path := PathInsert
	if r.UseAppender(len(rows)) {
		path = PathAppender
	}
	if len(rows) == 0 {
		return Result{Path: path}, nil
	}

	width := len(columns)
	if width == 0 {
		width = len(rows[0])
	}
	if width == 0 {
		return Result{}, ErrNoColumns
	}
	for i, row := range rows {
		if len(row) != width {
			return Result{}, fmt.Errorf("%w: row %d has %d values, want %d", ErrRowWidth, i, len(row), width)
		}
	}

	ref := dialect.ParseTableRef(table)
	var err error
	if path == PathAppender {
		err = r.appendRows(ctx, db, ref, columns, rows)
	} else {
		err = r.insertRows(ctx, db, ref, columns, rows)
	}
	if err != nil {
		bulkErrorsCounter.WithLabelValues(path).Inc()
		return Result{}, dialect.Translate(err)
	}

	bulkRowsCounter.WithLabelValues(path).Add(float64(len(rows)))
	r.logger().Debug("bulk insert", "table", table, "path", path, "rows", len(rows))
	return Result{Path: path, Rows: int64(len(rows))}, nil
}

// insertRows runs chunked multi-row INSERT statements in one transaction.
func (r *Router) insertRows(ctx context.Context, db *sql.DB, ref dialect.TableRef, columns []string, rows [][]any) error {
	p := dialect.NewPreparer()
	width := len(rows[0])
	chunk := max(1, maxParams/width)

	prefix := "INSERT INTO " + ref.Quoted(p)
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = p.Quote(c)
		}
		prefix += " (" + strings.Join(quoted, ", ") + ")"
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", width), ", ") + ")"

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(rows); start += chunk {
		batch := rows[start:min(start+chunk, len(rows))]
		tuples := make([]string, len(batch))
		args := make([]any, 0, len(batch)*width)
		for i, row := range batch {
			tuples[i] = tuple
			args = append(args, row...)
		}
		query := prefix + " VALUES " + strings.Join(tuples, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert rows %d-%d: %w", start, start+len(batch)-1, err)
		}
	}
	return tx.Commit()
}

// appendRows streams rows through the appender on a dedicated connection.
func (r *Router) appendRows(ctx context.Context, db *sql.DB, ref dialect.TableRef, columns []string, rows [][]any) error {
	c, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to reserve connection: %w", err)
	}
	defer func() { _ = c.Close() }()

	target, err := describe(ctx, c, ref)
	if err != nil {
		return err
	}
	if len(columns) > 0 && !slices.Equal(columns, target.columns) {
		return &ColumnOrderError{Table: ref.Name, Want: target.columns, Got: columns}
	}
	if len(rows[0]) != len(target.columns) {
		return fmt.Errorf("%w: %s has %d columns, rows have %d values",
			ErrRowWidth, ref.Name, len(target.columns), len(rows[0]))
	}

	return c.Raw(func(driverConn any) error {
		engine, err := conn.Engine(driverConn)
		if err != nil {
			return err
		}
		app, err := duckdb.NewAppender(engine, target.database, target.schema, ref.Name)
		if err != nil {
			return fmt.Errorf("failed to create appender for %s: %w", ref.Name, err)
		}

		values := make([]driver.Value, len(target.columns))
		for i, row := range rows {
			if i%2048 == 0 {
				if err := ctx.Err(); err != nil {
					_ = app.Close()
					return err
				}
			}
			for j, v := range row {
				if values[j], err = Value(v); err != nil {
					_ = app.Close()
					return fmt.Errorf("row %d column %s: %w", i, target.columns[j], err)
				}
			}
			if err := app.AppendRow(values...); err != nil {
				_ = app.Close()
				return fmt.Errorf("row %d: %w", i, err)
			}
		}
		return app.Close()
	})
}

type appendTarget struct {
	database string
	schema   string
	columns  []string
}

// describe resolves the table's database and schema and its columns in
// table order.
func describe(ctx context.Context, c *sql.Conn, ref dialect.TableRef) (appendTarget, error) {
	where, args := ref.Scope("table_name")
	rows, err := c.QueryContext(ctx,
		"SELECT database_name, schema_name, column_name FROM duckdb_columns() WHERE "+where+" ORDER BY column_index",
		args...)
	if err != nil {
		return appendTarget{}, fmt.Errorf("failed to read columns of %s: %w", ref.Name, err)
	}
	defer func() { _ = rows.Close() }()

	var t appendTarget
	for rows.Next() {
		var column string
		if err := rows.Scan(&t.database, &t.schema, &column); err != nil {
			return appendTarget{}, fmt.Errorf("failed to scan column: %w", err)
		}
		t.columns = append(t.columns, column)
	}
	if err := rows.Err(); err != nil {
		return appendTarget{}, fmt.Errorf("error iterating columns: %w", err)
	}
	if len(t.columns) == 0 {
		return appendTarget{}, fmt.Errorf("%w: %s", dialect.ErrNoSuchTable, ref.Name)
	}
	return t, nil
}
