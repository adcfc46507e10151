package dialect

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm/logger"

	"github.com/leapstack-labs/duckgorm/pkg/dsn"
)

// DefaultSlowThreshold is used when the logger config leaves it unset.
const DefaultSlowThreshold = 200 * time.Millisecond

// NewLogger bridges GORM's logger to slog. Traced SQL has MotherDuck
// tokens masked. A zero LogLevel means logger.Warn.
func NewLogger(l *slog.Logger, cfg logger.Config) logger.Interface {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Warn
	}
	if cfg.SlowThreshold == 0 {
		cfg.SlowThreshold = DefaultSlowThreshold
	}
	return &redactingLogger{Interface: logger.NewSlogLogger(l, cfg)}
}

type redactingLogger struct {
	logger.Interface
}

func (l *redactingLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &redactingLogger{Interface: l.Interface.LogMode(level)}
}

func (l *redactingLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	l.Interface.Trace(ctx, begin, func() (string, int64) {
		sql, rows := fc()
		return dsn.Redact(sql), rows
	}, err)
}

// ParamsFilter keeps the parameterized setting of the wrapped logger.
func (l *redactingLogger) ParamsFilter(ctx context.Context, sql string, params ...any) (string, []any) {
	if f, ok := l.Interface.(interface {
		ParamsFilter(context.Context, string, ...any) (string, []any)
	}); ok {
		return f.ParamsFilter(ctx, sql, params...)
	}
	return sql, params
}
