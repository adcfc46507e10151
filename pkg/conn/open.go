// Package conn opens DuckDB and MotherDuck connection pools for duckgorm.
//
// Open turns a connection URL into a *sql.DB: options are merged and split
// into connect-time engine options and per-connection SET statements,
// MotherDuck tokens and session hints are resolved, the engine connector is
// wrapped and the pool policy for the URL shape is applied.
package conn

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/leapstack-labs/duckgorm/pkg/core"
	"github.com/leapstack-labs/duckgorm/pkg/dsn"
	"github.com/leapstack-labs/duckgorm/pkg/motherduck"
	"github.com/leapstack-labs/duckgorm/pkg/pool"
	"github.com/leapstack-labs/duckgorm/pkg/settings"
)

type options struct {
	config      map[string]any
	logger      *slog.Logger
	tokens      motherduck.TokenSource
	environ     map[string]string
	params      settings.Params
	preload     []string
	setup       []string
	pool        core.PoolConfig
	readScaling bool
	sessionHint string
}

// Option configures Open.
type Option func(*options)

// WithConfig merges engine options into those given in the URL. Values
// given here win.
func WithConfig(config map[string]any) Option {
	return func(o *options) {
		maps.Copy(o.config, config)
	}
}

// WithLogger sets the logger used for connection setup.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTokenSource resolves a MotherDuck token when none is configured.
func WithTokenSource(src motherduck.TokenSource) Option {
	return func(o *options) { o.tokens = src }
}

// WithEnviron replaces the process environment for token lookup.
func WithEnviron(environ map[string]string) Option {
	return func(o *options) { o.environ = environ }
}

// WithPreload loads the named extensions on every new connection.
func WithPreload(extensions ...string) Option {
	return func(o *options) { o.preload = append(o.preload, extensions...) }
}

// WithSetup runs statements once after the pool is opened, for example
// INSTALL or CREATE SECRET.
func WithSetup(stmts ...string) Option {
	return func(o *options) { o.setup = append(o.setup, stmts...) }
}

// WithParams applies decoded extension, secret and settings parameters.
// Extensions are installed and loaded on every new connection, ahead of
// the preload list, so a missing extension is installed before it is
// loaded.
func WithParams(p *settings.Params) Option {
	return func(o *options) {
		if p == nil {
			return
		}
		o.params.Extensions = append(o.params.Extensions, p.Extensions...)
		o.params.PreloadExtensions = append(o.params.PreloadExtensions, p.PreloadExtensions...)
		for _, s := range p.Secrets {
			o.setup = append(o.setup, settings.CreateSecretSQL(s))
		}
		maps.Copy(o.config, p.Settings)
	}
}

// WithPoolConfig overrides the pool policy derived from the URL.
func WithPoolConfig(cfg core.PoolConfig) Option {
	return func(o *options) { o.pool = cfg }
}

// WithReadScaling pins every connection of the pool to one MotherDuck
// read-scaling replica by sharing a session hint. An empty hint generates
// one.
func WithReadScaling(hint string) Option {
	return func(o *options) {
		o.readScaling = true
		o.sessionHint = hint
	}
}

// Prepared is the outcome of resolving a URL and its options.
type Prepared struct {
	URL       dsn.URL
	EngineDSN string
	Init      []string
	Setup     []string
	Policy    pool.Policy
}

// Prepare resolves rawURL and opts without opening anything.
func Prepare(ctx context.Context, rawURL string, opts ...Option) (*Prepared, *slog.Logger, error) {
	o := options{
		config: map[string]any{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := dsn.Parse(rawURL)
	if err != nil {
		return nil, nil, err
	}
	args := u.ConnectArgs()
	config := args.Config
	maps.Copy(config, o.config)

	// An explicit token wins, then the configured sources, then the
	// environment.
	if o.tokens != nil && motherduck.LooksLikeMotherDuck(args.Database, config) {
		if err := motherduck.ResolveToken(ctx, config, o.tokens); err != nil {
			return nil, nil, fmt.Errorf("failed to resolve motherduck token: %w", err)
		}
	}
	if err := motherduck.ApplyDefaults(config, args.Database, o.environ); err != nil {
		return nil, nil, err
	}
	motherduck.NormalizeConfig(config)
	if o.readScaling {
		hint := o.sessionHint
		if hint == "" {
			hint = motherduck.NewSessionHint()
		}
		motherduck.WithSessionHint(config, hint)
	}

	policy := pool.For(u, config).Override(o.pool)

	coreOpts, ext := settings.Split(config)
	settings.ApplyUserAgent(coreOpts)
	for _, name := range slices.Concat(o.params.Extensions, o.params.PreloadExtensions) {
		if err := settings.ValidateExtensionName(name); err != nil {
			return nil, nil, err
		}
	}
	loadStmts, err := InitStatements(o.preload, ext)
	if err != nil {
		return nil, nil, err
	}
	initStmts := append(o.params.InstallStatements(), loadStmts...)

	return &Prepared{
		URL:       u,
		EngineDSN: EngineDSN(args.Database, coreOpts),
		Init:      initStmts,
		Setup:     o.setup,
		Policy:    policy,
	}, o.logger, nil
}

// Open opens a pool for rawURL. The returned policy is the one applied to
// the pool.
func Open(ctx context.Context, rawURL string, opts ...Option) (*sql.DB, pool.Policy, error) {
	p, logger, err := Prepare(ctx, rawURL, opts...)
	if err != nil {
		return nil, pool.Policy{}, err
	}

	logger.Debug("opening duckdb",
		"url", p.URL.Redacted(),
		"pool", p.Policy,
		"init_statements", len(p.Init))

	connector, err := NewConnector(p.EngineDSN, p.Init, p.Policy, logger)
	if err != nil {
		return nil, pool.Policy{}, fmt.Errorf("%s: %w", dsn.Redact(p.URL.Database), err)
	}
	db := sql.OpenDB(connector)
	pool.Apply(db, p.Policy)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, pool.Policy{}, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	for _, stmt := range p.Setup {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, pool.Policy{}, fmt.Errorf("setup statement failed: %w", err)
		}
	}
	pool.ObserveOpened(p.Policy)
	return db, p.Policy, nil
}

// EngineDSN renders the DSN handed to the engine connector: the database
// followed by the connect-time options.
func EngineDSN(database string, coreOpts map[string]any) string {
	if len(coreOpts) == 0 {
		return database
	}
	q := url.Values{}
	for _, k := range slices.Sorted(maps.Keys(coreOpts)) {
		q.Set(k, settings.DSNValue(coreOpts[k]))
	}
	sep := "?"
	if strings.Contains(database, "?") {
		sep = "&"
	}
	return database + sep + q.Encode()
}
