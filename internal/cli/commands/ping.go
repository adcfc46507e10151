package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/duckgorm/pkg/dsn"
)

// PingResult is the structured output of ping.
type PingResult struct {
	Backend string `json:"backend" yaml:"backend"`
	URL     string `json:"url" yaml:"url"`
	Version string `json:"version" yaml:"version"`
	Elapsed string `json:"elapsed" yaml:"elapsed"`
}

// NewPingCommand creates the ping command.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Connect to the target and report the engine version",
		Long: `Open the configured target, run a round trip and report the engine version.

The URL in the output has any MotherDuck token redacted.`,
		Example: `  duckgorm ping --url duckdb:///analytics.duckdb
  duckgorm ping --url md:analytics -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			start := time.Now()

			backend, err := connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			var version string
			if err := backend.DB().QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}

			res := PingResult{
				Backend: backend.Name(),
				URL:     dsn.Redact(urlOf(cmd)),
				Version: version,
				Elapsed: time.Since(start).Round(time.Millisecond).String(),
			}
			r := renderer(cmd)
			if r.Format == "json" || r.Format == "yaml" {
				return r.Value(res)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok: %s %s via %s (%s)\n", res.Backend, res.Version, res.URL, res.Elapsed)
			return nil
		},
	}
}
