// Package duckdb provides the local DuckDB and MotherDuck backends.
package duckdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/leapstack-labs/duckgorm/pkg/adapter"
	"github.com/leapstack-labs/duckgorm/pkg/bulk"
	"github.com/leapstack-labs/duckgorm/pkg/core"
	"github.com/leapstack-labs/duckgorm/pkg/dialect"
	"github.com/leapstack-labs/duckgorm/pkg/dsn"
	"github.com/leapstack-labs/duckgorm/pkg/pool"
)

// Backend names.
const (
	NameDuckDB     = "duckdb"
	NameMotherDuck = "motherduck"
)

// ErrNotMotherDuck is returned when the motherduck backend is given a URL
// that does not point at MotherDuck.
var ErrNotMotherDuck = errors.New("target URL is not a MotherDuck database")

// Backend implements adapter.Backend on top of the duckgorm dialector.
type Backend struct {
	adapter.BaseBackend

	name string
	// Environ replaces the process environment for token lookup.
	Environ map[string]string
	// GormConfig is passed to gorm.Open. TranslateError is always set.
	GormConfig *gorm.Config
	// Registerer, when set, receives the pool statistics collector.
	Registerer prometheus.Registerer
}

// New creates an unconnected local DuckDB backend.
func New(cfg core.TargetConfig, logger *slog.Logger) *Backend {
	return newBackend(NameDuckDB, cfg, logger)
}

// NewMotherDuck creates an unconnected MotherDuck backend.
func NewMotherDuck(cfg core.TargetConfig, logger *slog.Logger) *Backend {
	return newBackend(NameMotherDuck, cfg, logger)
}

func newBackend(name string, cfg core.TargetConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Backend == "" {
		cfg.Backend = name
	}
	return &Backend{
		BaseBackend: adapter.BaseBackend{
			Cfg:    cfg,
			Logger: logger.With("backend", name),
		},
		name: name,
	}
}

// Name returns the registered backend name.
func (b *Backend) Name() string {
	return b.name
}

// Connect opens the pool and the GORM session. An empty URL opens an
// in-memory engine.
func (b *Backend) Connect(ctx context.Context) error {
	rawURL := b.Cfg.URL
	if rawURL == "" {
		rawURL = dsn.Memory
	}
	if b.name == NameMotherDuck {
		u, err := dsn.Parse(rawURL)
		if err != nil {
			return err
		}
		if u.Shape() != core.BackendMotherDuck {
			return fmt.Errorf("%w: %s", ErrNotMotherDuck, u.Redacted())
		}
	}

	opts, err := Options(b.Cfg, b.Environ, b.Logger)
	if err != nil {
		return err
	}

	gormCfg := &gorm.Config{}
	if b.GormConfig != nil {
		c := *b.GormConfig
		gormCfg = &c
	}
	gormCfg.TranslateError = true

	d := dialect.New(dialect.Config{DSN: rawURL, Options: opts, Logger: b.Logger})
	db, err := gorm.Open(d, gormCfg)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", b.name, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	b.GormDB = db
	b.SQLDB = sqlDB
	if dd, ok := db.Dialector.(*dialect.Dialector); ok {
		b.PoolPolicy = dd.Policy()
	}
	b.Router = bulk.NewRouter(b.Cfg.Bulk.Threshold, b.Logger)

	if b.Registerer != nil {
		if err := pool.Register(b.Registerer, sqlDB, b.name); err != nil {
			_ = b.Close()
			return fmt.Errorf("failed to register pool metrics: %w", err)
		}
	}

	b.Logger.Debug("connected", "url", dsn.Redact(rawURL), "pool", b.PoolPolicy)
	return nil
}

var _ adapter.Backend = (*Backend)(nil)
