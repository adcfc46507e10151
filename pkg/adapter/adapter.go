// Package adapter defines the backend contract of duckgorm and the registry
// backends add themselves to.
//
// A backend owns one connection pool and the GORM session on top of it.
// Concrete backends live in pkg/adapters/ subdirectories and register a
// factory from their init functions.
package adapter

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/leapstack-labs/duckgorm/pkg/bulk"
	"github.com/leapstack-labs/duckgorm/pkg/core"
	"github.com/leapstack-labs/duckgorm/pkg/pool"
)

// Backend is a connected DuckDB or MotherDuck target.
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string

	// Connect opens the pool and the GORM session.
	Connect(ctx context.Context) error

	// Close closes the pool.
	Close() error

	// DB returns the pool, nil before Connect.
	DB() *sql.DB

	// Gorm returns the GORM session, nil before Connect.
	Gorm() *gorm.DB

	// Policy returns the pool policy chosen for the URL.
	Policy() pool.Policy

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...any) error

	// Query runs a statement that returns rows.
	Query(ctx context.Context, query string, args ...any) (*core.Rows, error)

	// Schemas lists the user schemas of every attached database.
	Schemas(ctx context.Context) ([]core.SchemaName, error)

	// Tables lists tables and views. schema may be "db.schema"; empty
	// means every schema of the current database.
	Tables(ctx context.Context, schema string) ([]core.TableMetadata, error)

	// Columns reflects one table or view.
	Columns(ctx context.Context, table string) (*core.TableMetadata, error)

	// LoadFile creates or replaces table from a CSV, Parquet or JSON file.
	LoadFile(ctx context.Context, table, path string) error

	// Insert writes rows through the bulk router.
	Insert(ctx context.Context, table string, columns []string, rows [][]any) (bulk.Result, error)
}
