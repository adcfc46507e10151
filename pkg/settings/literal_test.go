package settings

import (
	"context"
	"errors"
	"runtime/debug"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    string
		wantErr bool
	}{
		{"string", "1GB", "'1GB'", false},
		{"string with quote", "o'neil", "'o''neil'", false},
		{"int", 4, "4", false},
		{"uint64", uint64(8), "8", false},
		{"bool true", true, "true", false},
		{"bool false", false, "false", false},
		{"float", 0.5, "0.5", false},
		{"duration", 90 * time.Second, "'1m30s'", false},
		{"unsupported", []int{1}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Literal(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetStatements(t *testing.T) {
	stmts, err := SetStatements(map[string]any{
		"threads":          4,
		"memory_limit":     "1GB",
		"enable_profiling": true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"SET enable_profiling = true",
		"SET memory_limit = '1GB'",
		"SET threads = 4",
	}, stmts)

	_, err = SetStatements(map[string]any{"threads; DROP TABLE t": 1})
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "setting", verr.Kind)
}

func TestCoreKeysIncludesMotherDuckKeys(t *testing.T) {
	core := CoreKeys()
	for _, k := range []string{
		"motherduck_token",
		"attach_mode",
		"saas_mode",
		"session_hint",
		"access_mode",
		"dbinstance_inactivity_ttl",
		"motherduck_dbinstance_inactivity_ttl",
	} {
		assert.Contains(t, core, k)
	}
}

func TestSplit(t *testing.T) {
	core, ext := Split(map[string]any{
		"threads":          4,
		"Memory_Limit":     "1GB",
		"motherduck_token": "tok",
		"s3_region":        "us-east-1",
		"http_retries":     3,
	})

	assert.Equal(t, map[string]any{
		"threads":          4,
		"Memory_Limit":     "1GB",
		"motherduck_token": "tok",
	}, core)
	assert.Equal(t, map[string]any{
		"s3_region":    "us-east-1",
		"http_retries": 3,
	}, ext)
}

func TestLoadCoreKeys(t *testing.T) {
	t.Cleanup(ResetCoreKeys)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT name FROM duckdb_settings\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("threads").AddRow("TimeZone"))

	require.NoError(t, LoadCoreKeys(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.True(t, IsCore("timezone"))
	assert.True(t, IsCore("threads"))
	assert.True(t, IsCore("motherduck_token"))
	assert.False(t, IsCore("memory_limit"), "loaded list replaces the built-in one")
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "duckgorm/"+Version+"(gorm/"+GormVersion()+")", UserAgent(""))
	assert.Equal(t, "duckgorm/"+Version+"(gorm/"+GormVersion()+") my-app/2", UserAgent("my-app/2"))
	assert.NotEmpty(t, GormVersion())

	cfg := map[string]any{"custom_user_agent": "etl"}
	ApplyUserAgent(cfg)
	assert.Equal(t, UserAgent("etl"), cfg["custom_user_agent"])
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		check   func() error
		wantErr string
	}{
		{"identifier", func() error { return ValidateIdentifier("main_1", "schema") }, ""},
		{"identifier leading digit", func() error { return ValidateIdentifier("1main", "schema") }, `invalid schema: "1main"`},
		{"identifier default kind", func() error { return ValidateIdentifier("a-b", "") }, `invalid identifier: "a-b"`},
		{"dotted", func() error { return ValidateDottedIdentifier("db.main", "") }, ""},
		{"dotted empty part", func() error { return ValidateDottedIdentifier("db..main", "table") }, `invalid table: "db..main"`},
		{"dotted bad part", func() error { return ValidateDottedIdentifier("db.ma in", "") }, `invalid identifier: "ma in"`},
		{"extension", func() error { return ValidateExtensionName("httpfs") }, ""},
		{"extension digits first", func() error { return ValidateExtensionName("3d") }, ""},
		{"extension bad", func() error { return ValidateExtensionName("http-fs") }, `invalid extension name: "http-fs"`},
		{"list", func() error { return ValidateIdentifierList([]string{"a", "b"}, "column") }, ""},
		{"list bad", func() error { return ValidateIdentifierList([]string{"a", ""}, "column") }, `invalid column: ""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestModuleVersion(t *testing.T) {
	tests := []struct {
		name string
		info *debug.BuildInfo
		want string
	}{
		{name: "no build info", info: nil, want: "1.0.0"},
		{name: "module missing", info: &debug.BuildInfo{}, want: "1.0.0"},
		{
			name: "linked version",
			info: &debug.BuildInfo{Deps: []*debug.Module{{Path: "gorm.io/gorm", Version: "v1.31.2"}}},
			want: "1.31.2",
		},
		{
			name: "replaced module",
			info: &debug.BuildInfo{Deps: []*debug.Module{{
				Path: "gorm.io/gorm", Version: "v1.31.1",
				Replace: &debug.Module{Path: "example.com/gorm", Version: "v1.32.0"},
			}}},
			want: "1.32.0",
		},
		{
			name: "devel build",
			info: &debug.BuildInfo{Deps: []*debug.Module{{Path: "gorm.io/gorm", Version: "(devel)"}}},
			want: "1.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, moduleVersion(tt.info, "gorm.io/gorm", "1.0.0"))
		})
	}
}
