package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/duckgorm/internal/cli/config"
	"github.com/leapstack-labs/duckgorm/pkg/adapters/duckdb"
	"github.com/leapstack-labs/duckgorm/pkg/conn"
)

// NewPoolCommand creates the pool command.
func NewPoolCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pool",
		Short: "Show the pool policy chosen for the target",
		Long: `Resolve the configured target without connecting and print the pool policy
derived from the URL shape and the pool overrides.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			opts, err := duckdb.Options(cfg.Target, nil, config.GetLogger(ctx))
			if err != nil {
				return err
			}
			prepared, _, err := conn.Prepare(ctx, urlOf(cmd), opts...)
			if err != nil {
				return err
			}

			p := prepared.Policy
			return renderer(cmd).Table(
				[]string{"setting", "value"},
				[][]any{
					{"kind", p.Kind.String()},
					{"max_open", p.MaxOpen},
					{"max_idle", p.MaxIdle},
					{"max_lifetime", p.MaxLifetime},
					{"max_idle_time", p.MaxIdleTime},
					{"pre_ping", p.PrePing},
					{"shared", p.Shared},
					{"session_hint", p.SessionHint},
					{"init_statements", len(prepared.Init)},
				},
			)
		},
	}
}

func urlOf(cmd *cobra.Command) string {
	u := config.FromContext(cmd.Context()).Target.URL
	if u == "" {
		return config.DefaultURL
	}
	return u
}
