package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/duckgorm/pkg/core"
)

func TestNew_CoercesTypesAndOverrides(t *testing.T) {
	u := New(":memory:",
		map[string]any{"access_mode": "read_only", "flag": true, "drop": nil},
		map[string]any{
			"access_mode": "read_write",
			"enabled":     false,
			"list_val":    []any{1, "two"},
			"tuple_val":   [2]any{"a", 2},
			"empty":       nil,
			"threads":     4,
		},
	)

	assert.Equal(t, []string{"read_write"}, u.Query["access_mode"])
	assert.Equal(t, []string{"true"}, u.Query["flag"])
	assert.Equal(t, []string{"false"}, u.Query["enabled"])
	assert.Equal(t, []string{"1", "two"}, u.Query["list_val"])
	assert.Equal(t, []string{"a", "2"}, u.Query["tuple_val"])
	assert.Equal(t, []string{"4"}, u.Query["threads"])
	assert.NotContains(t, u.Query, "drop")
	assert.NotContains(t, u.Query, "empty")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		database string
		query    map[string][]string
		shape    core.BackendKind
		wantErr  string
	}{
		{name: "empty scheme url", raw: "duckdb://", database: "", shape: core.BackendMemory},
		{name: "memory url", raw: "duckdb:///:memory:", database: ":memory:", shape: core.BackendMemory},
		{name: "bare memory", raw: ":memory:", database: ":memory:", shape: core.BackendMemory},
		{name: "relative file", raw: "duckdb:///data/app.duckdb?threads=4", database: "data/app.duckdb",
			query: map[string][]string{"threads": {"4"}}, shape: core.BackendFile},
		{name: "absolute file", raw: "duckdb:////var/lib/app.duckdb", database: "/var/lib/app.duckdb", shape: core.BackendFile},
		{name: "bare path", raw: "/tmp/x.db", database: "/tmp/x.db", shape: core.BackendFile},
		{name: "escaped path", raw: "duckdb:///my%20data.db", database: "my data.db", shape: core.BackendFile},
		{name: "md database", raw: "md:analytics?motherduck_token=abc", database: "md:analytics",
			query: map[string][]string{"motherduck_token": {"abc"}}, shape: core.BackendMotherDuck},
		{name: "md through duckdb scheme", raw: "duckdb:///md:analytics", database: "md:analytics", shape: core.BackendMotherDuck},
		{name: "motherduck prefix", raw: "motherduck:", database: "motherduck:", shape: core.BackendMotherDuck},
		{name: "local file with token", raw: "duckdb:///local.db?motherduck_token=abc", database: "local.db",
			query: map[string][]string{"motherduck_token": {"abc"}}, shape: core.BackendMotherDuck},
		{name: "read only local file", raw: "duckdb:///local.db?access_mode=read_only", database: "local.db",
			query: map[string][]string{"access_mode": {"read_only"}}, shape: core.BackendFile},
		{name: "repeated keys", raw: "duckdb:///x.db?allowed_paths=a&allowed_paths=b", database: "x.db",
			query: map[string][]string{"allowed_paths": {"a", "b"}}, shape: core.BackendFile},
		{name: "unknown scheme", raw: "postgres://localhost/db", wantErr: `unsupported URL scheme "postgres"`},
		{name: "bad query", raw: "duckdb:///x.db?a=%zz", wantErr: "invalid query string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Parse(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.database, u.Database)
			for k, v := range tt.query {
				assert.Equal(t, v, u.Query[k], "query key %s", k)
			}
			assert.Equal(t, tt.shape, u.Shape())
		})
	}
}

func TestConnectArgs_MovesUserQueryParam(t *testing.T) {
	u := New(":memory:", map[string]any{"user": "alice", "memory_limit": "1GB"}, nil)

	args := u.ConnectArgs()

	assert.Equal(t, ":memory:?user=alice", args.Database)
	assert.Equal(t, map[string]any{"memory_limit": "1GB"}, args.Config)
}

func TestConnectArgs_JoinsRepeatedValues(t *testing.T) {
	u := MustParse("duckdb:///x.db?allowed_paths=a&allowed_paths=b")
	assert.Equal(t, map[string]any{"allowed_paths": "a,b"}, u.ConnectArgs().Config)
}

func TestString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"duckdb:///x.db?threads=4&access_mode=read_only", "duckdb:///x.db?access_mode=read_only&threads=4"},
		{":memory:", "duckdb:///:memory:"},
		{"md:analytics?saas_mode=true", "md:analytics?saas_mode=true"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParse(tt.raw).String())
		})
	}
}

func TestRedaction(t *testing.T) {
	u := MustParse("md:analytics?motherduck_token=secret&saas_mode=true")
	assert.Equal(t, "md:analytics?motherduck_token=xxxxx&saas_mode=true", u.Redacted())
	assert.Equal(t, []string{"secret"}, u.Query["motherduck_token"], "Redacted must not modify the URL")

	assert.Equal(t, "md:x?motherduck_token=xxxxx&a=1", Redact("md:x?motherduck_token=secret&a=1"))
	assert.Equal(t, "duckdb:///x.db", MustParse("duckdb:///x.db").Redacted())
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("mysql://x") })
}
