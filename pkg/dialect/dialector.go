// Package dialect plugs DuckDB and MotherDuck into GORM.
//
// The Dialector opens its pool through package conn, so connection URLs,
// MotherDuck tokens, session hints and the pool policy behave the same
// as for a plain *sql.DB. It renders GORM's schema types as DuckDB types,
// reflects the catalog through the duckdb_* table functions and translates
// engine constraint errors into GORM's sentinels.
//
//	db, err := gorm.Open(dialect.Open("md:analytics?saas_mode=true"), &gorm.Config{})
package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/callbacks"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/migrator"
	"gorm.io/gorm/schema"

	"github.com/leapstack-labs/duckgorm/pkg/conn"
	"github.com/leapstack-labs/duckgorm/pkg/pool"
	"github.com/leapstack-labs/duckgorm/pkg/types"
)

// Name is the dialect name reported to GORM.
const Name = "duckdb"

// Dialector implements gorm.Dialector for DuckDB.
type Dialector struct {
	*Config
}

// Config configures the Dialector.
type Config struct {
	// DSN is a connection URL accepted by conn.Open.
	DSN string
	// Conn replaces the pool conn.Open would create.
	Conn gorm.ConnPool
	// Options are passed to conn.Open.
	Options []conn.Option
	// WithoutReturning disables RETURNING on INSERT, UPDATE and DELETE.
	WithoutReturning bool
	// WithoutQuotingCheck writes identifiers unquoted.
	WithoutQuotingCheck bool
	// SkipProbe skips the capability and keyword queries on Initialize.
	SkipProbe bool
	// Logger receives connection and probe records. It is also bridged
	// into GORM when the gorm.Config has no logger.
	Logger *slog.Logger

	preparer *Preparer
	caps     Capabilities
	policy   pool.Policy
}

// Open returns a Dialector for dsn.
func Open(dsn string) gorm.Dialector {
	return &Dialector{&Config{DSN: dsn}}
}

// New returns a Dialector for config.
func New(config Config) gorm.Dialector {
	return &Dialector{Config: &config}
}

// Name implements gorm.Dialector.
func (dialector Dialector) Name() string {
	return Name
}

// Apply disables prepared statement caching, which the engine does not
// support, and bridges the configured slog logger into GORM.
func (dialector Dialector) Apply(config *gorm.Config) error {
	config.PrepareStmt = false
	if config.Logger == nil && dialector.Logger != nil {
		config.Logger = NewLogger(dialector.Logger, logger.Config{})
	}
	return nil
}

// Initialize implements gorm.Dialector.
func (dialector Dialector) Initialize(db *gorm.DB) error {
	callbackConfig := &callbacks.Config{
		CreateClauses: []string{"INSERT", "VALUES", "ON CONFLICT"},
		UpdateClauses: []string{"UPDATE", "SET", "FROM", "WHERE"},
		DeleteClauses: []string{"DELETE", "FROM", "WHERE"},
	}
	if !dialector.WithoutReturning {
		callbackConfig.CreateClauses = append(callbackConfig.CreateClauses, "RETURNING")
		callbackConfig.UpdateClauses = append(callbackConfig.UpdateClauses, "RETURNING")
		callbackConfig.DeleteClauses = append(callbackConfig.DeleteClauses, "RETURNING")
	}
	callbacks.RegisterDefaultCallbacks(db, callbackConfig)

	log := dialector.logger()
	if dialector.preparer == nil {
		dialector.preparer = NewPreparer()
	}

	ctx := context.Background()
	if dialector.Conn != nil {
		db.ConnPool = dialector.Conn
	} else {
		opts := append([]conn.Option{conn.WithLogger(log)}, dialector.Options...)
		sqlDB, policy, err := conn.Open(ctx, dialector.DSN, opts...)
		if err != nil {
			return err
		}
		db.ConnPool = sqlDB
		dialector.policy = policy
	}

	if sqlDB, ok := db.ConnPool.(*sql.DB); ok && !dialector.SkipProbe {
		caps, err := Probe(ctx, sqlDB, log)
		if err != nil {
			return err
		}
		dialector.caps = caps
		if err := dialector.preparer.Load(ctx, sqlDB); err != nil {
			log.Debug("using built-in reserved words", "error", err)
		}
	}
	return nil
}

func (dialector Dialector) logger() *slog.Logger {
	if dialector.Logger != nil {
		return dialector.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Capabilities returns what Initialize probed.
func (dialector Dialector) Capabilities() Capabilities {
	return dialector.caps
}

// Policy returns the pool policy applied by Initialize. It is zero when a
// Conn was supplied.
func (dialector Dialector) Policy() pool.Policy {
	return dialector.policy
}

// Preparer returns the identifier preparer.
func (dialector Dialector) Preparer() *Preparer {
	if dialector.preparer == nil {
		dialector.preparer = NewPreparer()
	}
	return dialector.preparer
}

// Migrator implements gorm.Dialector.
func (dialector Dialector) Migrator(db *gorm.DB) gorm.Migrator {
	return Migrator{migrator.Migrator{Config: migrator.Config{
		DB:                          db,
		Dialector:                   dialector,
		CreateIndexAfterCreateTable: true,
	}}, dialector}
}

// DefaultValueOf implements gorm.Dialector.
func (dialector Dialector) DefaultValueOf(field *schema.Field) clause.Expression {
	return clause.Expr{SQL: "DEFAULT"}
}

// BindVarTo implements gorm.Dialector.
func (dialector Dialector) BindVarTo(writer clause.Writer, stmt *gorm.Statement, v any) {
	_ = writer.WriteByte('?')
}

// QuoteTo double quotes each dot separated part of str. Parts that are
// already quoted are kept and embedded quotes are doubled.
func (dialector Dialector) QuoteTo(writer clause.Writer, str string) {
	if dialector.WithoutQuotingCheck {
		_, _ = writer.WriteString(str)
		return
	}

	var (
		underQuoted, selfQuoted bool
		continuousQuote         int8
		shiftDelimiter          int8
	)

	for _, v := range []byte(str) {
		switch v {
		case '"':
			continuousQuote++
			if continuousQuote == 2 {
				_, _ = writer.WriteString(`""`)
				continuousQuote = 0
			}
		case '.':
			if continuousQuote > 0 || !selfQuoted {
				shiftDelimiter = 0
				underQuoted = false
				continuousQuote = 0
				_ = writer.WriteByte('"')
			}
			_ = writer.WriteByte(v)
			continue
		default:
			if shiftDelimiter-continuousQuote <= 0 && !underQuoted {
				_ = writer.WriteByte('"')
				underQuoted = true
				if selfQuoted = continuousQuote > 0; selfQuoted {
					continuousQuote--
				}
			}

			for ; continuousQuote > 0; continuousQuote-- {
				_, _ = writer.WriteString(`""`)
			}

			_ = writer.WriteByte(v)
		}
		shiftDelimiter++
	}

	if continuousQuote > 0 && !selfQuoted {
		_, _ = writer.WriteString(`""`)
	}
	_ = writer.WriteByte('"')
}

// Explain implements gorm.Dialector.
func (dialector Dialector) Explain(sql string, vars ...any) string {
	return logger.ExplainSQL(sql, nil, `'`, vars...)
}

// DataTypeOf implements gorm.Dialector.
func (dialector Dialector) DataTypeOf(field *schema.Field) string {
	sqlType := dialector.baseTypeOf(field)
	if field.AutoIncrement && !strings.Contains(strings.ToLower(sqlType), "nextval") {
		sqlType += fmt.Sprintf(" DEFAULT nextval('%s')", SequenceName(tableOf(field), field.DBName))
	}
	return sqlType
}

func (dialector Dialector) baseTypeOf(field *schema.Field) string {
	switch field.DataType {
	case schema.Bool:
		return "BOOLEAN"
	case schema.Int:
		return intType(field.Size, "")
	case schema.Uint:
		return intType(field.Size, "U")
	case schema.Float:
		if field.Precision > 0 {
			return fmt.Sprintf("DECIMAL(%d,%d)", field.Precision, field.Scale)
		}
		if field.Size == 32 {
			return "REAL"
		}
		return "DOUBLE"
	case schema.String:
		if field.Size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", field.Size)
		}
		return "VARCHAR"
	case schema.Time:
		return timestampType(field)
	case schema.Bytes:
		return "BLOB"
	default:
		return string(field.DataType)
	}
}

// NestedType renders a STRUCT, UNION, MAP, LIST or ARRAY column type with
// the dialect's identifier quoting, for raw DDL or a gorm "type:" tag.
func (dialector Dialector) NestedType(t types.Type) (string, error) {
	return t.DDL(dialector.Preparer())
}

func intType(size int, prefix string) string {
	switch {
	case size > 0 && size <= 8:
		return prefix + "TINYINT"
	case size > 8 && size <= 16:
		return prefix + "SMALLINT"
	case size > 16 && size <= 32:
		return prefix + "INTEGER"
	default:
		return prefix + "BIGINT"
	}
}

// timestampType picks the timestamp unit from the precision tag:
// precision:0 is seconds, up to 3 milliseconds, up to 6 microseconds and
// above that nanoseconds. Without a precision the column keeps the zone.
func timestampType(field *schema.Field) string {
	if p, ok := field.TagSettings["PRECISION"]; ok && strings.TrimSpace(p) == "0" {
		return "TIMESTAMP_S"
	}
	switch {
	case field.Precision <= 0:
		return "TIMESTAMPTZ"
	case field.Precision <= 3:
		return "TIMESTAMP_MS"
	case field.Precision <= 6:
		return "TIMESTAMP"
	default:
		return "TIMESTAMP_NS"
	}
}

func tableOf(field *schema.Field) string {
	if field.Schema != nil {
		return field.Schema.Table
	}
	return ""
}

// SequenceName names the sequence backing an auto-increment column.
func SequenceName(table, column string) string {
	if table == "" {
		return column + "_seq"
	}
	return table + "_" + column + "_seq"
}

// SavePoint is not supported by the engine.
func (dialector Dialector) SavePoint(tx *gorm.DB, name string) error {
	return gorm.ErrNotImplemented
}

// RollbackTo is not supported by the engine.
func (dialector Dialector) RollbackTo(tx *gorm.DB, name string) error {
	return gorm.ErrNotImplemented
}
