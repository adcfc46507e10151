package dialect

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestLogger_RedactsTokens(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		logger.Config{LogLevel: logger.Info})

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "ATTACH 'md:analytics?motherduck_token=s3cr3t' AS analytics", 0
	}, nil)

	out := buf.String()
	assert.Contains(t, out, "motherduck_token=xxxxx'")
	assert.NotContains(t, out, "s3cr3t")
}

func TestLogger_DefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.New(slog.NewTextHandler(&buf, nil)), logger.Config{})

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(context.Background(), time.Now(),
		func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	assert.Empty(t, buf.String())
}

func TestLogger_ParamsFilter(t *testing.T) {
	l := NewLogger(nil, logger.Config{ParameterizedQueries: true})
	f, ok := l.(interface {
		ParamsFilter(context.Context, string, ...any) (string, []any)
	})
	assert.True(t, ok)
	sql, params := f.ParamsFilter(context.Background(), "SELECT ?", 1)
	assert.Equal(t, "SELECT ?", sql)
	assert.Nil(t, params)
}
