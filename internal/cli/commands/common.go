// Package commands implements the duckgorm subcommands.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/duckgorm/internal/cli/config"
	"github.com/leapstack-labs/duckgorm/internal/cli/output"
	"github.com/leapstack-labs/duckgorm/pkg/adapter"

	_ "github.com/leapstack-labs/duckgorm/pkg/adapters/duckdb" // register backends
)

// connect builds and connects the backend for the configured target. The
// caller closes it.
func connect(ctx context.Context) (adapter.Backend, error) {
	cfg := config.FromContext(ctx)
	backend, err := adapter.NewBackend(cfg.Target, config.GetLogger(ctx))
	if err != nil {
		return nil, err
	}
	if err := backend.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return backend, nil
}

func renderer(cmd *cobra.Command) *output.Renderer {
	cfg := config.FromContext(cmd.Context())
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.OutputFormat)
}
