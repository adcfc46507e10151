package pool

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/duckgorm/pkg/core"
	"github.com/leapstack-labs/duckgorm/pkg/dsn"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		config map[string]any
		want   Policy
	}{
		{
			name: "memory is a single shared connection",
			raw:  "duckdb:///:memory:",
			want: Policy{Kind: core.BackendMemory, MaxOpen: 1, MaxIdle: 1, Shared: true},
		},
		{
			name: "empty database is memory",
			raw:  "duckdb://",
			want: Policy{Kind: core.BackendMemory, MaxOpen: 1, MaxIdle: 1, Shared: true},
		},
		{
			name: "file is a queue pool",
			raw:  "duckdb:///data/app.duckdb",
			want: Policy{Kind: core.BackendFile, MaxOpen: 15, MaxIdle: 5},
		},
		{
			name: "read only file stays a file",
			raw:  "duckdb:///data/app.duckdb?access_mode=read_only",
			want: Policy{Kind: core.BackendFile, MaxOpen: 15, MaxIdle: 5},
		},
		{
			name: "motherduck recycles connections",
			raw:  "md:analytics",
			want: Policy{
				Kind: core.BackendMotherDuck, MaxOpen: 15, MaxIdle: 5,
				MaxLifetime: 30 * time.Minute, MaxIdleTime: 5 * time.Minute, PrePing: true,
			},
		},
		{
			name:   "token outside the url routes a file to motherduck",
			raw:    "duckdb:///local.db",
			config: map[string]any{"motherduck_token": "t"},
			want: Policy{
				Kind: core.BackendMotherDuck, MaxOpen: 15, MaxIdle: 5,
				MaxLifetime: 30 * time.Minute, MaxIdleTime: 5 * time.Minute, PrePing: true,
			},
		},
		{
			name:   "motherduck keeps the session hint",
			raw:    "md:analytics",
			config: map[string]any{"session_hint": "abc"},
			want: Policy{
				Kind: core.BackendMotherDuck, MaxOpen: 15, MaxIdle: 5,
				MaxLifetime: 30 * time.Minute, MaxIdleTime: 5 * time.Minute, PrePing: true,
				SessionHint: "abc",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, For(dsn.MustParse(tt.raw), tt.config))
		})
	}
}

func TestOverride(t *testing.T) {
	off := false

	file := For(dsn.MustParse("duckdb:///x.db"), nil)
	got := file.Override(core.PoolConfig{MaxOpen: 4, MaxLifetime: time.Hour})
	assert.Equal(t, 4, got.MaxOpen)
	assert.Equal(t, 4, got.MaxIdle, "idle is capped by open")
	assert.Equal(t, time.Hour, got.MaxLifetime)

	mem := For(dsn.MustParse(":memory:"), nil)
	got = mem.Override(core.PoolConfig{MaxOpen: 8, MaxIdle: 8})
	assert.Equal(t, 1, got.MaxOpen)
	assert.Equal(t, 1, got.MaxIdle)

	md := For(dsn.MustParse("md:"), nil)
	got = md.Override(core.PoolConfig{PrePing: &off})
	assert.False(t, got.PrePing)
	assert.Equal(t, md.MaxOpen, got.MaxOpen)
}

func TestApply(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	Apply(db, Policy{Kind: core.BackendFile, MaxOpen: 7, MaxIdle: 3})
	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}

func TestLogValue(t *testing.T) {
	p := For(dsn.MustParse("md:"), map[string]any{"session_hint": "h"})
	v := p.LogValue()
	attrs := map[string]string{}
	for _, a := range v.Group() {
		attrs[a.Key] = a.Value.String()
	}
	assert.Equal(t, "motherduck", attrs["kind"])
	assert.Equal(t, "h", attrs["session_hint"])
	assert.Equal(t, "true", attrs["pre_ping"])
}

func TestCollector(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	Apply(db, Policy{MaxOpen: 3})

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, Register(reg, db, "analytics"))

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "go_sql_max_open_connections" {
			found = mf
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.GetMetric(), 1)
	assert.InDelta(t, 3, found.GetMetric()[0].GetGauge().GetValue(), 0)
	assert.Equal(t, "analytics", found.GetMetric()[0].GetLabel()[0].GetValue())
}
