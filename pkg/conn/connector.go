package conn

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/leapstack-labs/duckgorm/pkg/pool"
	"github.com/leapstack-labs/duckgorm/pkg/settings"
)

// Connector opens wrapped engine connections and runs the connection
// initialisation statements on each of them.
type Connector struct {
	inner  *duckdb.Connector
	init   []string
	policy pool.Policy
	logger *slog.Logger
}

var _ driver.Connector = (*Connector)(nil)

// NewConnector opens the engine described by engineDSN. initStmts run in
// order on every new physical connection.
func NewConnector(engineDSN string, initStmts []string, policy pool.Policy, logger *slog.Logger) (*Connector, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Connector{
		init:   initStmts,
		policy: policy,
		logger: logger,
	}
	inner, err := duckdb.NewConnector(engineDSN, c.initConn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	c.inner = inner
	return c, nil
}

func (c *Connector) initConn(execer driver.ExecerContext) error {
	for _, stmt := range c.init {
		c.logger.Debug("connection init", "statement", stmt)
		if _, err := execer.ExecContext(context.Background(), stmt, nil); err != nil {
			return fmt.Errorf("connection init %q: %w", stmt, translate(err))
		}
	}
	return nil
}

// Connect implements driver.Connector.
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	dc, err := c.inner.Connect(ctx)
	if err != nil {
		return nil, err
	}
	inner, ok := dc.(*duckdb.Conn)
	if !ok {
		_ = dc.Close()
		return nil, fmt.Errorf("unexpected engine connection type %T", dc)
	}
	return &Conn{
		inner:   inner,
		policy:  c.policy,
		logger:  c.logger,
		prePing: c.policy.PrePing,
	}, nil
}

// Driver implements driver.Connector.
func (c *Connector) Driver() driver.Driver {
	return c.inner.Driver()
}

// Close releases the engine instance. sql.DB calls it on Close.
func (c *Connector) Close() error {
	return c.inner.Close()
}

// InitStatements builds the per-connection statements: LOAD for every
// preload extension, then one SET per extension setting.
func InitStatements(preload []string, ext map[string]any) ([]string, error) {
	for _, name := range preload {
		if err := settings.ValidateExtensionName(name); err != nil {
			return nil, err
		}
	}
	stmts := make([]string, 0, len(preload)+len(ext))
	for _, name := range preload {
		stmts = append(stmts, "LOAD "+name)
	}
	sets, err := settings.SetStatements(ext)
	if err != nil {
		return nil, err
	}
	return append(stmts, sets...), nil
}
