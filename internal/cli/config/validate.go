package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/duckgorm/pkg/dsn"
	"github.com/leapstack-labs/duckgorm/pkg/settings"
)

// ValidationError reports one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Backends are the backend names accepted in the backend field. Empty
// means derive from the URL.
var Backends = []string{"", "duckdb", "motherduck"}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if !slices.Contains(OutputFormats, c.OutputFormat) {
		add("output", "unknown format %q (want one of %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}

	t := c.Target
	if !slices.Contains(Backends, strings.ToLower(t.Backend)) {
		add("backend", "unknown backend %q", t.Backend)
	}
	if _, err := dsn.Parse(t.URL); err != nil {
		add("url", "%v", err)
	}
	for _, ext := range slices.Concat(t.Extensions, t.PreloadExtensions) {
		if err := settings.ValidateExtensionName(ext); err != nil {
			add("extensions", "%v", err)
		}
	}
	if _, err := settings.ParseParams(t.Params); err != nil {
		add("params", "%v", err)
	}

	p := t.Pool
	if p.MaxOpen < 0 || p.MaxIdle < 0 {
		add("pool", "sizes must not be negative")
	}
	if p.MaxOpen > 0 && p.MaxIdle > p.MaxOpen {
		add("pool.max_idle", "%d exceeds pool.max_open %d", p.MaxIdle, p.MaxOpen)
	}
	if p.MaxLifetime < 0 || p.MaxIdleTime < 0 {
		add("pool", "durations must not be negative")
	}

	md := t.MotherDuck
	if md.Token != "" && md.TokenFile != "" {
		add("motherduck", "token and token_file are mutually exclusive")
	}
	if md.AWSRegion != "" && md.TokenSecretID == "" {
		add("motherduck.aws_region", "set without motherduck.token_secret_id")
	}

	return errors.Join(errs...)
}
