package core

import "time"

// TargetConfig holds the connection target configuration.
type TargetConfig struct {
	Backend string `koanf:"backend"` // duckdb, motherduck

	// URL is a duckdb:/// URL, an md: database, or a bare path.
	URL string `koanf:"url"`

	// Extensions are installed and loaded on connect.
	Extensions []string `koanf:"extensions"`

	// PreloadExtensions are only loaded (LOAD) on every new connection.
	PreloadExtensions []string `koanf:"preload_extensions"`

	// Settings are engine options. Core options go into the DSN,
	// the rest are applied with SET after connect.
	Settings map[string]any `koanf:"settings"`

	// Params holds backend-specific configuration (secrets, extensions, settings)
	// decoded by the backend.
	Params map[string]any `koanf:"params"`

	Pool       PoolConfig       `koanf:"pool"`
	MotherDuck MotherDuckConfig `koanf:"motherduck"`
	Bulk       BulkConfig       `koanf:"bulk"`
}

// BulkConfig tunes bulk inserts.
type BulkConfig struct {
	// Threshold is the row count from which the appender is used. Zero
	// keeps the default; negative disables the appender.
	Threshold int `koanf:"threshold"`
}

// PoolConfig overrides the pool policy derived from the URL shape.
// Zero values keep the derived default.
type PoolConfig struct {
	MaxOpen     int           `koanf:"max_open"`
	MaxIdle     int           `koanf:"max_idle"`
	MaxLifetime time.Duration `koanf:"max_lifetime"`
	MaxIdleTime time.Duration `koanf:"max_idle_time"`
	PrePing     *bool         `koanf:"pre_ping"`
}

// MotherDuckConfig holds token sources and read-replica options.
type MotherDuckConfig struct {
	Token         string `koanf:"token"`
	TokenFile     string `koanf:"token_file"`
	TokenSecretID string `koanf:"token_secret_id"`
	AWSRegion     string `koanf:"aws_region"`
	SessionHint   string `koanf:"session_hint"`
	ReadScaling   bool   `koanf:"read_scaling"`
}
