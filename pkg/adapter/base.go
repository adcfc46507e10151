package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/leapstack-labs/duckgorm/pkg/bulk"
	"github.com/leapstack-labs/duckgorm/pkg/core"
	"github.com/leapstack-labs/duckgorm/pkg/dialect"
	"github.com/leapstack-labs/duckgorm/pkg/pool"
)

// ErrNotConnected is returned by backend methods called before Connect.
var ErrNotConnected = errors.New("database connection not established")

// ErrUnsupportedFile is returned by LoadFile for unknown file extensions.
var ErrUnsupportedFile = errors.New("unsupported file type")

// BaseBackend provides the pool-level behaviour shared by backends.
// Embed it in concrete backends and fill the fields from Connect.
type BaseBackend struct {
	SQLDB      *sql.DB
	GormDB     *gorm.DB
	PoolPolicy pool.Policy
	Cfg        core.TargetConfig
	Logger     *slog.Logger
	Router     *bulk.Router
}

// DB returns the pool.
func (b *BaseBackend) DB() *sql.DB { return b.SQLDB }

// Gorm returns the GORM session.
func (b *BaseBackend) Gorm() *gorm.DB { return b.GormDB }

// Policy returns the pool policy applied on Connect.
func (b *BaseBackend) Policy() pool.Policy { return b.PoolPolicy }

// IsConnected returns true if the database connection is established.
func (b *BaseBackend) IsConnected() bool {
	return b.SQLDB != nil
}

func (b *BaseBackend) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Close closes the database connection.
func (b *BaseBackend) Close() error {
	if b.SQLDB == nil {
		return nil
	}
	b.logger().Debug("closing database connection", "backend", b.Cfg.Backend)
	err := b.SQLDB.Close()
	b.SQLDB, b.GormDB = nil, nil
	return err
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseBackend) Exec(ctx context.Context, query string, args ...any) error {
	if b.SQLDB == nil {
		return ErrNotConnected
	}
	if _, err := b.SQLDB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", dialect.Translate(err))
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseBackend) Query(ctx context.Context, query string, args ...any) (*core.Rows, error) {
	if b.SQLDB == nil {
		return nil, ErrNotConnected
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.SQLDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// Schemas lists the user schemas of every attached database, main
// included. The system and temp catalogs, information_schema and the pg_
// compatibility schemas are left out.
func (b *BaseBackend) Schemas(ctx context.Context) ([]core.SchemaName, error) {
	if b.SQLDB == nil {
		return nil, ErrNotConnected
	}
	rows, err := b.SQLDB.QueryContext(ctx, `SELECT database_name, schema_name FROM duckdb_schemas()
WHERE database_name NOT IN ('system', 'temp')
  AND schema_name <> 'information_schema'
  AND schema_name NOT LIKE 'pg\_%' ESCAPE '\'
ORDER BY database_name, schema_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schemas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var schemas []core.SchemaName
	for rows.Next() {
		var s core.SchemaName
		if err := rows.Scan(&s.Database, &s.Schema); err != nil {
			return nil, fmt.Errorf("failed to scan schema: %w", err)
		}
		schemas = append(schemas, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schemas: %w", err)
	}
	return schemas, nil
}

// Tables lists the tables and views of schema. schema may be "db.schema";
// a bare schema and an empty one refer to the current database.
func (b *BaseBackend) Tables(ctx context.Context, schema string) ([]core.TableMetadata, error) {
	if b.SQLDB == nil {
		return nil, ErrNotConnected
	}

	where := " AND database_name = current_database()"
	var args []any
	if schema != "" {
		database, name := dialect.Separate(schema)
		where = " AND schema_name = ?"
		args = append(args, name)
		if database != "" {
			where += " AND database_name = ?"
			args = append(args, database)
		} else {
			where += " AND database_name = current_database()"
		}
	}

	query := `SELECT database_name, schema_name, table_name, false AS is_view, coalesce(comment, '') AS comment
FROM duckdb_tables() WHERE schema_name NOT LIKE 'pg\_%' ESCAPE '\'` + where + `
UNION ALL
SELECT database_name, schema_name, view_name, true, coalesce(comment, '')
FROM duckdb_views() WHERE NOT internal` + where + `
ORDER BY 1, 2, 3`
	rows, err := b.SQLDB.QueryContext(ctx, query, append(args, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []core.TableMetadata
	for rows.Next() {
		var t core.TableMetadata
		if err := rows.Scan(&t.Database, &t.Schema, &t.Name, &t.View, &t.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// Columns reflects table through the GORM migrator. table may be
// qualified as schema.table or db.schema.table.
func (b *BaseBackend) Columns(ctx context.Context, table string) (*core.TableMetadata, error) {
	if b.GormDB == nil {
		return nil, ErrNotConnected
	}
	m := b.GormDB.WithContext(ctx).Migrator()

	columnTypes, err := m.ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}

	ref := dialect.ParseTableRef(table)
	meta := &core.TableMetadata{Database: ref.Database, Schema: ref.Schema, Name: ref.Name}
	if dm, ok := m.(dialect.Migrator); ok {
		if tt, err := dm.TableType(table); err == nil {
			meta.Schema = tt.Schema()
			meta.View = tt.Type() == "VIEW"
			meta.Comment, _ = tt.Comment()
		}
	}

	for i, ct := range columnTypes {
		col := core.Column{Name: ct.Name(), Position: i + 1}
		if full, ok := ct.ColumnType(); ok {
			col.Type = full
		} else {
			col.Type = ct.DatabaseTypeName()
		}
		col.Nullable, _ = ct.Nullable()
		col.Default, _ = ct.DefaultValue()
		col.Comment, _ = ct.Comment()
		meta.Columns = append(meta.Columns, col)
	}
	return meta, nil
}

// LoadFile creates or replaces table from a file, picking the reader by
// extension: read_csv_auto for .csv, .tsv and .txt, read_parquet for
// .parquet and read_json_auto for .json, .jsonl and .ndjson. A trailing
// .gz is ignored. Local paths are made absolute. A missing schema is
// created.
func (b *BaseBackend) LoadFile(ctx context.Context, table, path string) error {
	if b.SQLDB == nil {
		return ErrNotConnected
	}

	fn, err := ReaderFor(path)
	if err != nil {
		return err
	}
	from, err := fn.SQL()
	if err != nil {
		return err
	}

	q := dialect.NewPreparer()
	ref := dialect.ParseTableRef(table)
	if ref.Schema != "" {
		schema := q.Quote(ref.Schema)
		if ref.Database != "" {
			schema = q.Quote(ref.Database) + "." + schema
		}
		if err := b.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
			return err
		}
	}
	target := ref.Quoted(q)
	query := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s", target, from)
	if err := b.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	b.logger().Debug("loaded file", "table", table, "path", path)
	return nil
}

// ReaderFor returns the table function reading path.
func ReaderFor(path string) (dialect.TableFunc, error) {
	src := path
	if !strings.Contains(path, "://") {
		abs, err := filepath.Abs(path)
		if err != nil {
			return dialect.TableFunc{}, fmt.Errorf("failed to get absolute path: %w", err)
		}
		src = abs
	}

	ext := strings.TrimSuffix(strings.ToLower(path), ".gz")
	switch filepath.Ext(ext) {
	case ".csv", ".tsv", ".txt":
		return dialect.ReadCSVAuto(src, map[string]any{"header": true}), nil
	case ".parquet":
		return dialect.ReadParquet(src, nil), nil
	case ".json", ".jsonl", ".ndjson":
		return dialect.TableFunction("read_json_auto", src), nil
	default:
		return dialect.TableFunc{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
}

// Insert writes rows through the bulk router.
func (b *BaseBackend) Insert(ctx context.Context, table string, columns []string, rows [][]any) (bulk.Result, error) {
	if b.SQLDB == nil {
		return bulk.Result{}, ErrNotConnected
	}
	r := b.Router
	if r == nil {
		r = bulk.NewRouter(b.Cfg.Bulk.Threshold, b.Logger)
	}
	return r.Insert(ctx, b.SQLDB, table, columns, rows)
}
