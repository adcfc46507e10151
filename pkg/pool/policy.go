// Package pool picks connection-pool settings from the shape of a connection
// URL and applies them to a *sql.DB.
//
// An in-memory engine lives inside a single connection: a second connection
// would open a different, empty database. File databases share one engine
// instance per path, so several connections are safe and only one writer
// exists. MotherDuck drops idle connections server side, so pooled
// connections are recycled and checked before reuse.
package pool

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/leapstack-labs/duckgorm/pkg/core"
	"github.com/leapstack-labs/duckgorm/pkg/dsn"
	"github.com/leapstack-labs/duckgorm/pkg/motherduck"
)

// Default sizes.
const (
	FilePoolSize    = 5
	FileMaxOverflow = 10

	MotherDuckMaxLifetime = 30 * time.Minute
	MotherDuckMaxIdleTime = 5 * time.Minute
)

// Policy describes how connections to one target are pooled.
type Policy struct {
	Kind core.BackendKind

	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration

	// PrePing validates a pooled connection before handing it out.
	PrePing bool

	// Shared is set when every caller sees the same single connection.
	Shared bool

	// SessionHint pins MotherDuck connections to one read-scaling replica.
	SessionHint string
}

// For derives the policy for u. config is the merged connection config
// (URL query plus caller options); options given outside the URL can still
// route a file target to MotherDuck.
func For(u dsn.URL, config map[string]any) Policy {
	kind := u.Shape()
	if kind == core.BackendFile && motherduck.IsRemote(u.Database, config) {
		kind = core.BackendMotherDuck
	}

	switch kind {
	case core.BackendMemory:
		return Policy{
			Kind:    core.BackendMemory,
			MaxOpen: 1,
			MaxIdle: 1,
			Shared:  true,
		}
	case core.BackendMotherDuck:
		p := Policy{
			Kind:        core.BackendMotherDuck,
			MaxOpen:     FilePoolSize + FileMaxOverflow,
			MaxIdle:     FilePoolSize,
			MaxLifetime: MotherDuckMaxLifetime,
			MaxIdleTime: MotherDuckMaxIdleTime,
			PrePing:     true,
		}
		if hint, ok := config[motherduck.SessionHintKey].(string); ok {
			p.SessionHint = hint
		}
		return p
	default:
		return Policy{
			Kind:    core.BackendFile,
			MaxOpen: FilePoolSize + FileMaxOverflow,
			MaxIdle: FilePoolSize,
		}
	}
}

// Override returns p with the non-zero fields of cfg applied. A memory
// policy keeps its single connection whatever cfg says.
func (p Policy) Override(cfg core.PoolConfig) Policy {
	if p.Kind != core.BackendMemory {
		if cfg.MaxOpen > 0 {
			p.MaxOpen = cfg.MaxOpen
		}
		if cfg.MaxIdle > 0 {
			p.MaxIdle = cfg.MaxIdle
		}
	}
	if cfg.MaxLifetime > 0 {
		p.MaxLifetime = cfg.MaxLifetime
	}
	if cfg.MaxIdleTime > 0 {
		p.MaxIdleTime = cfg.MaxIdleTime
	}
	if cfg.PrePing != nil {
		p.PrePing = *cfg.PrePing
	}
	if p.MaxIdle > p.MaxOpen && p.MaxOpen > 0 {
		p.MaxIdle = p.MaxOpen
	}
	return p
}

// Apply configures db according to p.
func Apply(db *sql.DB, p Policy) {
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)
	db.SetConnMaxIdleTime(p.MaxIdleTime)
}

// LogValue implements slog.LogValuer.
func (p Policy) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", p.Kind.String()),
		slog.Int("max_open", p.MaxOpen),
		slog.Int("max_idle", p.MaxIdle),
	}
	if p.MaxLifetime > 0 {
		attrs = append(attrs, slog.Duration("max_lifetime", p.MaxLifetime))
	}
	if p.MaxIdleTime > 0 {
		attrs = append(attrs, slog.Duration("max_idle_time", p.MaxIdleTime))
	}
	if p.PrePing {
		attrs = append(attrs, slog.Bool("pre_ping", true))
	}
	if p.SessionHint != "" {
		attrs = append(attrs, slog.String("session_hint", p.SessionHint))
	}
	return slog.GroupValue(attrs...)
}
