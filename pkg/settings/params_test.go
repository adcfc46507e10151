package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		want    *Params
		wantErr string
	}{
		{
			name:  "nil params returns empty struct",
			input: nil,
			want:  &Params{},
		},
		{
			name: "extensions and preload",
			input: map[string]any{
				"extensions":         []any{"httpfs", "spatial"},
				"preload_extensions": []any{"json"},
			},
			want: &Params{
				Extensions:        []string{"httpfs", "spatial"},
				PreloadExtensions: []string{"json"},
			},
		},
		{
			name: "settings keep their types",
			input: map[string]any{
				"settings": map[string]any{
					"memory_limit": "4GB",
					"threads":      4,
				},
			},
			want: &Params{
				Settings: map[string]any{"memory_limit": "4GB", "threads": 4},
			},
		},
		{
			name: "secrets with scope as array",
			input: map[string]any{
				"secrets": []any{
					map[string]any{
						"type":  "s3",
						"scope": []any{"s3://bucket1", "s3://bucket2"},
					},
				},
			},
			want: &Params{
				Secrets: []SecretConfig{
					{Type: "s3", Scope: []any{"s3://bucket1", "s3://bucket2"}},
				},
			},
		},
		{
			name:    "invalid extension name",
			input:   map[string]any{"extensions": []any{"httpfs; DROP TABLE x"}},
			wantErr: "invalid extension name",
		},
		{
			name: "invalid secret name",
			input: map[string]any{
				"secrets": []any{map[string]any{"type": "s3", "name": "my secret"}},
			},
			wantErr: "invalid secret name",
		},
		{
			name:    "unknown key",
			input:   map[string]any{"extension": []any{"httpfs"}},
			wantErr: "invalid duckdb params",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want.Extensions, got.Extensions)
			assert.Equal(t, tt.want.PreloadExtensions, got.PreloadExtensions)
			assert.Equal(t, tt.want.Settings, got.Settings)
			assert.Equal(t, tt.want.Secrets, got.Secrets)
		})
	}
}

func TestParams_InstallStatements(t *testing.T) {
	p := &Params{Extensions: []string{"httpfs"}, PreloadExtensions: []string{"json"}}
	assert.Equal(t, []string{"INSTALL httpfs", "LOAD httpfs", "LOAD json"}, p.InstallStatements())
}

func TestCreateSecretSQL(t *testing.T) {
	tests := []struct {
		name string
		cfg  SecretConfig
		want string
	}{
		{
			name: "s3 with credential chain",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "credential_chain",
				Region:   "us-west-2",
			},
			want: `CREATE SECRET (
    TYPE s3,
    PROVIDER credential_chain,
    REGION 'us-west-2'
)`,
		},
		{
			name: "type only",
			cfg:  SecretConfig{Type: "s3"},
			want: `CREATE SECRET (
    TYPE s3
)`,
		},
		{
			name: "multiple scopes",
			cfg: SecretConfig{
				Type:   "s3",
				Region: "eu-central-1",
				Scope:  []string{"s3://bucket1", "s3://bucket2"},
			},
			want: `CREATE SECRET (
    TYPE s3,
    REGION 'eu-central-1',
    SCOPE ('s3://bucket1', 's3://bucket2')
)`,
		},
		{
			name: "named s3 compatible secret",
			cfg: SecretConfig{
				Name:     "minio",
				Type:     "s3",
				Provider: "config",
				KeyID:    "minioadmin",
				Secret:   "it's",
				Endpoint: "localhost:9000",
				URLStyle: "path",
				UseSSL:   boolPtr(false),
			},
			want: `CREATE OR REPLACE SECRET minio (
    TYPE s3,
    PROVIDER config,
    KEY_ID 'minioadmin',
    SECRET 'it''s',
    ENDPOINT 'localhost:9000',
    URL_STYLE 'path',
    USE_SSL false
)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CreateSecretSQL(tt.cfg))
		})
	}
}

func boolPtr(b bool) *bool {
	return &b
}
