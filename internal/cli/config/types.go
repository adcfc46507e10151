// Package config loads the duckgorm CLI configuration.
//
// Values are layered, lowest first: built-in defaults, duckgorm.yaml,
// DUCKGORM_ environment variables and explicitly set command-line flags.
// The connection target fields live at the top level of the file:
//
//	url: md:analytics
//	extensions: [httpfs]
//	settings:
//	  threads: 4
//	pool:
//	  max_open: 8
//	motherduck:
//	  token_file: ~/.motherduck/token
//	bulk:
//	  threshold: 5000
package config

import (
	"github.com/leapstack-labs/duckgorm/pkg/bulk"
	"github.com/leapstack-labs/duckgorm/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	Target       TargetConfig `koanf:",squash"`
	Verbose      bool         `koanf:"verbose"`
	OutputFormat string       `koanf:"output"`
}

// Output formats.
const (
	OutputTable    = "table"
	OutputJSON     = "json"
	OutputCSV      = "csv"
	OutputYAML     = "yaml"
	OutputMarkdown = "markdown"
)

// OutputFormats lists the accepted --output values.
var OutputFormats = []string{OutputTable, OutputJSON, OutputCSV, OutputYAML, OutputMarkdown}

// Default configuration values.
const (
	DefaultURL       = ":memory:"
	DefaultOutput    = OutputTable
	DefaultThreshold = bulk.DefaultThreshold
	EnvPrefix        = "DUCKGORM_"
)

// ConfigFileNames are looked up in the working directory and its parents.
var ConfigFileNames = []string{"duckgorm.yaml", "duckgorm.yml"}
