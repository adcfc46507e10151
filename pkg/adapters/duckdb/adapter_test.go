package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/duckgorm/internal/testutil"
	"github.com/leapstack-labs/duckgorm/pkg/adapter"
	"github.com/leapstack-labs/duckgorm/pkg/bulk"
	"github.com/leapstack-labs/duckgorm/pkg/core"
)

func connect(t *testing.T, cfg core.TargetConfig) *Backend {
	t.Helper()
	b := New(cfg, testutil.NewTestLogger(t))
	b.Environ = map[string]string{}
	require.NoError(t, b.Connect(context.Background()))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupURL  func(t *testing.T) string
		wantShape core.BackendKind
		verify    func(t *testing.T, url string)
	}{
		{
			name:      "empty url",
			setupURL:  func(_ *testing.T) string { return "" },
			wantShape: core.BackendMemory,
		},
		{
			name:      "in-memory",
			setupURL:  func(_ *testing.T) string { return "duckdb:///:memory:" },
			wantShape: core.BackendMemory,
		},
		{
			name: "file-based",
			setupURL: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test.duckdb")
			},
			wantShape: core.BackendFile,
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := tt.setupURL(t)
			b := connect(t, core.TargetConfig{URL: url})

			assert.Equal(t, NameDuckDB, b.Name())
			assert.NotNil(t, b.DB())
			assert.NotNil(t, b.Gorm())
			assert.Equal(t, tt.wantShape, b.Policy().Kind)
			require.NoError(t, b.Exec(context.Background(), "SELECT 1"))

			if tt.verify != nil {
				tt.verify(t, url)
			}
		})
	}
}

func TestBackend_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, b *Backend) error
	}{
		{
			name: "exec without connect",
			operation: func(ctx context.Context, b *Backend) error {
				return b.Exec(ctx, "SELECT 1")
			},
		},
		{
			name: "query without connect",
			operation: func(ctx context.Context, b *Backend) error {
				_, err := b.Query(ctx, "SELECT 1")
				return err
			},
		},
		{
			name: "load without connect",
			operation: func(ctx context.Context, b *Backend) error {
				return b.LoadFile(ctx, "t", "t.csv")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(core.TargetConfig{}, nil)
			err := tt.operation(context.Background(), b)
			assert.ErrorIs(t, err, adapter.ErrNotConnected)
		})
	}
}

func TestBackend_Close(t *testing.T) {
	tests := []struct {
		name    string
		connect bool
	}{
		{"close without connect", false},
		{"close after connect", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(core.TargetConfig{URL: ":memory:"}, nil)
			b.Environ = map[string]string{}
			if tt.connect {
				require.NoError(t, b.Connect(context.Background()))
			}

			assert.NoError(t, b.Close())
			assert.False(t, b.IsConnected())
		})
	}
}

func TestBackend_LoadAndReflect(t *testing.T) {
	ctx := context.Background()
	b := connect(t, core.TargetConfig{URL: ":memory:"})

	csvPath := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id,name,email\n1,Alice,alice@example.com\n2,Bob,bob@example.com\n"), 0o600))
	require.NoError(t, b.LoadFile(ctx, "users", csvPath))

	meta, err := b.Columns(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, "users", meta.Name)
	require.Len(t, meta.Columns, 3)

	names := make([]string, len(meta.Columns))
	for i, c := range meta.Columns {
		names[i] = c.Name
		assert.Equal(t, i+1, c.Position)
	}
	assert.Equal(t, []string{"id", "name", "email"}, names)

	schemas, err := b.Schemas(ctx)
	require.NoError(t, err)
	assert.Contains(t, schemas, core.SchemaName{Database: "memory", Schema: "main"})

	tables, err := b.Tables(ctx, "")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "memory.main.users", tables[0].QualifiedName())
}

func TestBackend_InsertUsesThreshold(t *testing.T) {
	ctx := context.Background()
	b := connect(t, core.TargetConfig{URL: ":memory:", Bulk: core.BulkConfig{Threshold: 3}})

	require.NoError(t, b.Exec(ctx, "CREATE TABLE points (x INTEGER, y INTEGER)"))

	res, err := b.Insert(ctx, "points", []string{"x", "y"}, [][]any{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, bulk.PathInsert, res.Path)

	res, err = b.Insert(ctx, "points", []string{"x", "y"}, [][]any{{5, 6}, {7, 8}, {9, 10}})
	require.NoError(t, err)
	assert.Equal(t, bulk.PathAppender, res.Path)
	assert.Equal(t, int64(3), res.Rows)

	var sum int
	require.NoError(t, b.DB().QueryRowContext(ctx, "SELECT CAST(sum(x + y) AS BIGINT) FROM points").Scan(&sum))
	assert.Equal(t, 55, sum)
}

func TestConnect_WithParams(t *testing.T) {
	ctx := context.Background()
	b := connect(t, core.TargetConfig{
		URL: ":memory:",
		Params: map[string]any{
			"preload_extensions": []any{"json"},
			"settings": map[string]any{
				"threads": "2",
			},
		},
	})

	var extName string
	require.NoError(t, b.DB().QueryRowContext(ctx,
		"SELECT extension_name FROM duckdb_extensions() WHERE loaded = true AND extension_name = 'json'").Scan(&extName))
	assert.Equal(t, "json", extName)

	var threads string
	require.NoError(t, b.DB().QueryRowContext(ctx, "SELECT current_setting('threads')").Scan(&threads))
	assert.Equal(t, "2", threads)
}

func TestConnect_WithSettings(t *testing.T) {
	ctx := context.Background()
	b := connect(t, core.TargetConfig{
		URL:      ":memory:",
		Settings: map[string]any{"threads": 3},
	})

	var threads string
	require.NoError(t, b.DB().QueryRowContext(ctx, "SELECT current_setting('threads')").Scan(&threads))
	assert.Equal(t, "3", threads)
}

func TestConnect_InvalidParams(t *testing.T) {
	tests := []struct {
		name string
		cfg  core.TargetConfig
	}{
		{name: "unknown params key", cfg: core.TargetConfig{Params: map[string]any{"bogus": true}}},
		{name: "bad extension name", cfg: core.TargetConfig{Extensions: []string{"json; DROP TABLE x"}}},
		{name: "bad url", cfg: core.TargetConfig{URL: "postgres://localhost/db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.cfg, nil)
			b.Environ = map[string]string{}
			assert.Error(t, b.Connect(context.Background()))
			assert.False(t, b.IsConnected())
		})
	}
}

func TestMotherDuck_RejectsLocalURL(t *testing.T) {
	b := NewMotherDuck(core.TargetConfig{URL: "duckdb:///local.db"}, nil)
	err := b.Connect(context.Background())
	require.ErrorIs(t, err, ErrNotMotherDuck)
	assert.Equal(t, NameMotherDuck, b.Name())
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{NameDuckDB, NameMotherDuck} {
		assert.True(t, adapter.IsRegistered(name), name)
	}

	b, err := adapter.NewBackend(core.TargetConfig{URL: "md:analytics"}, nil)
	require.NoError(t, err)
	assert.Equal(t, NameMotherDuck, b.Name())

	b, err = adapter.NewBackend(core.TargetConfig{URL: ":memory:"}, nil)
	require.NoError(t, err)
	assert.Equal(t, NameDuckDB, b.Name())
}

func TestBackend_RegistersPoolMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	b := New(core.TargetConfig{}, testutil.NewTestLogger(t))
	b.Environ = map[string]string{}
	b.Registerer = reg
	require.NoError(t, b.Connect(context.Background()))
	t.Cleanup(func() { _ = b.Close() })

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "go_sql_max_open_connections")

	dup := New(core.TargetConfig{}, testutil.NewTestLogger(t))
	dup.Environ = map[string]string{}
	dup.Registerer = reg
	err = dup.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to register pool metrics")
	assert.Nil(t, dup.DB())
}
