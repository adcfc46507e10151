package conn

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/leapstack-labs/duckgorm/pkg/pool"
)

var (
	commitRE       = regexp.MustCompile(`(?i)^\s*commit(\s+transaction)?\s*;?\s*$`)
	rollbackRE     = regexp.MustCompile(`(?i)^\s*(rollback|abort)(\s+transaction)?\s*;?\s*$`)
	showIsolationR = regexp.MustCompile(`(?i)^\s*show\s+transaction\s+isolation\s+level\s*;?\s*$`)
)

// isolationQuery answers "SHOW TRANSACTION ISOLATION LEVEL", which the
// engine does not implement.
const isolationQuery = "SELECT 'read committed' AS transaction_isolation"

func rewrite(query string) string {
	if showIsolationR.MatchString(query) {
		return isolationQuery
	}
	return query
}

// Conn wraps an engine connection. It keeps the engine's transaction state
// consistent with COMMIT and ROLLBACK statements issued as plain SQL and
// translates engine errors.
type Conn struct {
	inner   *duckdb.Conn
	tx      *Tx
	closed  bool
	broken  bool
	policy  pool.Policy
	logger  *slog.Logger
	prePing bool
}

var (
	_ driver.Conn               = (*Conn)(nil)
	_ driver.ConnBeginTx        = (*Conn)(nil)
	_ driver.ConnPrepareContext = (*Conn)(nil)
	_ driver.ExecerContext      = (*Conn)(nil)
	_ driver.QueryerContext     = (*Conn)(nil)
	_ driver.NamedValueChecker  = (*Conn)(nil)
	_ driver.Validator          = (*Conn)(nil)
	_ driver.SessionResetter    = (*Conn)(nil)
)

// Unwrap returns the engine connection, as needed by the appender.
func (c *Conn) Unwrap() *duckdb.Conn { return c.inner }

// IsClosed reports whether Close has been called.
func (c *Conn) IsClosed() bool { return c.closed }

// InTx reports whether a transaction is open on the connection.
func (c *Conn) InTx() bool { return c.tx != nil }

// Prepare implements driver.Conn.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

// PrepareContext implements driver.ConnPrepareContext.
func (c *Conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	st, err := c.inner.PrepareContext(ctx, rewrite(query))
	if err != nil {
		return nil, translate(err)
	}
	return &Stmt{inner: st}, nil
}

// ExecContext implements driver.ExecerContext.
func (c *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	switch {
	case commitRE.MatchString(query):
		return driver.RowsAffected(0), c.endTx(ctx, true)
	case rollbackRE.MatchString(query):
		return driver.RowsAffected(0), c.endTx(ctx, false)
	}
	res, err := c.inner.ExecContext(ctx, rewrite(query), args)
	if err != nil {
		return nil, translate(err)
	}
	return res, nil
}

// QueryContext implements driver.QueryerContext.
func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	rows, err := c.inner.QueryContext(ctx, rewrite(query), args)
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// endTx finishes the open transaction, if any, through the engine
// transaction object so its state stays in sync. Without one the statement
// is sent as is and "no transaction is active" is ignored.
func (c *Conn) endTx(ctx context.Context, commit bool) error {
	if c.tx != nil {
		if commit {
			return c.tx.Commit()
		}
		return c.tx.Rollback()
	}
	stmt := "ROLLBACK"
	if commit {
		stmt = "COMMIT"
	}
	_, err := c.inner.ExecContext(ctx, stmt, nil)
	if noActiveTx(err) {
		c.logger.Debug("ignoring statement outside transaction", "statement", stmt)
		return nil
	}
	return translate(err)
}

// Begin implements driver.Conn.
//
// Deprecated: use BeginTx.
func (c *Conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx implements driver.ConnBeginTx. Read-only transactions run as
// ordinary transactions.
func (c *Conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	if sql.IsolationLevel(opts.Isolation) != sql.LevelDefault {
		return nil, fmt.Errorf("%w: %s", ErrIsolationLevel, sql.IsolationLevel(opts.Isolation))
	}
	opts.ReadOnly = false

	inner, err := c.inner.BeginTx(ctx, opts)
	if err != nil {
		return nil, translate(err)
	}
	c.tx = &Tx{conn: c, inner: inner}
	return c.tx, nil
}

// CheckNamedValue implements driver.NamedValueChecker. Valuers are resolved
// before the engine sees the argument; the engine accepts any map or slice
// as is and would otherwise bind the raw Go value.
func (c *Conn) CheckNamedValue(nv *driver.NamedValue) error {
	if vr, ok := nv.Value.(driver.Valuer); ok {
		if rv := reflect.ValueOf(vr); rv.Kind() == reflect.Pointer && rv.IsNil() {
			nv.Value = nil
			return nil
		}
		v, err := vr.Value()
		if err != nil {
			return err
		}
		nv.Value = v
	}
	return c.inner.CheckNamedValue(nv)
}

// IsValid implements driver.Validator.
func (c *Conn) IsValid() bool {
	return !c.closed && !c.broken
}

// ResetSession implements driver.SessionResetter. With pre-ping enabled the
// connection is probed before reuse and discarded when the probe fails.
func (c *Conn) ResetSession(ctx context.Context) error {
	if c.closed || c.broken {
		return driver.ErrBadConn
	}
	if !c.prePing {
		return nil
	}
	rows, err := c.inner.QueryContext(ctx, "SELECT 1", nil)
	if err == nil {
		err = rows.Close()
	}
	if err != nil {
		c.broken = true
		pool.ObservePrePingFailure(c.policy)
		c.logger.Warn("discarding pooled connection", "error", err)
		return driver.ErrBadConn
	}
	return nil
}

// Close implements driver.Conn.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.tx != nil {
		_ = c.tx.Rollback()
	}
	return c.inner.Close()
}

// Tx is an engine transaction tracked by its connection.
type Tx struct {
	conn  *Conn
	inner driver.Tx
	done  bool
}

// Commit implements driver.Tx. Committing a transaction that was already
// ended by a COMMIT statement is a no-op.
func (t *Tx) Commit() error {
	if t.done {
		return nil
	}
	t.finish()
	return translate(t.inner.Commit())
}

// Rollback implements driver.Tx.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.finish()
	err := t.inner.Rollback()
	if noActiveTx(err) {
		return nil
	}
	return translate(err)
}

func (t *Tx) finish() {
	t.done = true
	if t.conn.tx == t {
		t.conn.tx = nil
	}
}

// Stmt wraps a prepared engine statement to translate its errors.
type Stmt struct {
	inner driver.Stmt
}

var (
	_ driver.StmtExecContext  = (*Stmt)(nil)
	_ driver.StmtQueryContext = (*Stmt)(nil)
)

// Close implements driver.Stmt.
func (s *Stmt) Close() error { return s.inner.Close() }

// NumInput implements driver.Stmt.
func (s *Stmt) NumInput() int { return s.inner.NumInput() }

// Exec implements driver.Stmt.
//
// Deprecated: use ExecContext.
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	res, err := s.inner.Exec(args) //nolint:staticcheck // driver.Stmt contract
	return res, translate(err)
}

// Query implements driver.Stmt.
//
// Deprecated: use QueryContext.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	rows, err := s.inner.Query(args) //nolint:staticcheck // driver.Stmt contract
	return rows, translate(err)
}

// ExecContext implements driver.StmtExecContext.
func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	ec, ok := s.inner.(driver.StmtExecContext)
	if !ok {
		return nil, errors.New("statement does not support ExecContext")
	}
	res, err := ec.ExecContext(ctx, args)
	return res, translate(err)
}

// QueryContext implements driver.StmtQueryContext.
func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	qc, ok := s.inner.(driver.StmtQueryContext)
	if !ok {
		return nil, errors.New("statement does not support QueryContext")
	}
	rows, err := qc.QueryContext(ctx, args)
	return rows, translate(err)
}

// Engine returns the engine connection behind a raw driver connection as
// handed out by sql.Conn.Raw.
func Engine(driverConn any) (*duckdb.Conn, error) {
	switch c := driverConn.(type) {
	case *Conn:
		if c.closed {
			return nil, ErrClosed
		}
		return c.inner, nil
	case *duckdb.Conn:
		return c, nil
	default:
		return nil, fmt.Errorf("not a duckdb connection: %T", driverConn)
	}
}
