package settings

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from core.TargetConfig.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "httpfs", "spatial", "json")
	Extensions []string `mapstructure:"extensions"`

	// PreloadExtensions are loaded on every new connection without INSTALL.
	PreloadExtensions []string `mapstructure:"preload_extensions"`

	// Secrets for cloud storage authentication
	Secrets []SecretConfig `mapstructure:"secrets"`

	// Settings to apply (e.g., memory_limit, threads, s3_region)
	Settings map[string]any `mapstructure:"settings"`
}

// SecretConfig defines a DuckDB secret for cloud storage.
type SecretConfig struct {
	// Name is optional; unnamed secrets get an engine generated name.
	Name string `mapstructure:"name,omitempty"`

	// Type: "s3", "gcs", "azure", "r2", "huggingface"
	Type string `mapstructure:"type"`

	// Provider: "config", "credential_chain", "service_account", etc.
	Provider string `mapstructure:"provider"`

	Region string `mapstructure:"region,omitempty"`

	// Scope limits the secret to specific paths (string or []string)
	Scope any `mapstructure:"scope,omitempty"`

	KeyID    string `mapstructure:"key_id,omitempty"`
	Secret   string `mapstructure:"secret,omitempty"`
	Endpoint string `mapstructure:"endpoint,omitempty"`

	// URLStyle: "vhost" or "path" for S3
	URLStyle string `mapstructure:"url_style,omitempty"`

	UseSSL *bool `mapstructure:"use_ssl,omitempty"`
}

// ParseParams decodes a generic params map into Params.
func ParseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}

	for _, ext := range append(append([]string{}, p.Extensions...), p.PreloadExtensions...) {
		if err := ValidateExtensionName(ext); err != nil {
			return nil, err
		}
	}
	for _, s := range p.Secrets {
		if s.Name != "" {
			if err := ValidateIdentifier(s.Name, "secret name"); err != nil {
				return nil, err
			}
		}
		if err := ValidateIdentifier(s.Type, "secret type"); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// InstallStatements returns INSTALL/LOAD pairs for p.Extensions followed by
// LOAD for the preload list.
func (p *Params) InstallStatements() []string {
	stmts := make([]string, 0, 2*len(p.Extensions)+len(p.PreloadExtensions))
	for _, ext := range p.Extensions {
		stmts = append(stmts, "INSTALL "+ext, "LOAD "+ext)
	}
	for _, ext := range p.PreloadExtensions {
		stmts = append(stmts, "LOAD "+ext)
	}
	return stmts
}

// CreateSecretSQL renders a CREATE SECRET statement for cfg.
func CreateSecretSQL(cfg SecretConfig) string {
	var opts []string
	opts = append(opts, "TYPE "+cfg.Type)
	if cfg.Provider != "" {
		opts = append(opts, "PROVIDER "+cfg.Provider)
	}
	if cfg.Region != "" {
		opts = append(opts, "REGION "+quote(cfg.Region))
	}
	if scope := scopeLiteral(cfg.Scope); scope != "" {
		opts = append(opts, "SCOPE "+scope)
	}
	if cfg.KeyID != "" {
		opts = append(opts, "KEY_ID "+quote(cfg.KeyID))
	}
	if cfg.Secret != "" {
		opts = append(opts, "SECRET "+quote(cfg.Secret))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, "ENDPOINT "+quote(cfg.Endpoint))
	}
	if cfg.URLStyle != "" {
		opts = append(opts, "URL_STYLE "+quote(cfg.URLStyle))
	}
	if cfg.UseSSL != nil {
		opts = append(opts, fmt.Sprintf("USE_SSL %t", *cfg.UseSSL))
	}

	head := "CREATE SECRET ("
	if cfg.Name != "" {
		head = "CREATE OR REPLACE SECRET " + cfg.Name + " ("
	}
	return head + "\n    " + strings.Join(opts, ",\n    ") + "\n)"
}

func scopeLiteral(scope any) string {
	switch s := scope.(type) {
	case nil:
		return ""
	case string:
		if s == "" {
			return ""
		}
		return quote(s)
	case []string:
		return quoteList(s)
	case []any:
		items := make([]string, 0, len(s))
		for _, v := range s {
			items = append(items, fmt.Sprint(v))
		}
		return quoteList(items)
	default:
		return quote(fmt.Sprint(s))
	}
}

func quoteList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) == 1 {
		return quote(items[0])
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = quote(item)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
