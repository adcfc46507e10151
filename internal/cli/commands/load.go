package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/duckgorm/pkg/dialect"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load <table> <file>",
		Short: "Create or replace a table from a CSV, Parquet or JSON file",
		Long: `Create or replace <table> from <file>. The reader is picked by extension:
.csv, .tsv and .txt use read_csv_auto, .parquet uses read_parquet and
.json, .jsonl and .ndjson use read_json_auto. Compressed .gz files are
accepted. Remote paths such as s3:// need the httpfs extension.`,
		Example: `  duckgorm load raw_customers seeds/customers.csv
  duckgorm load events s3://bucket/events.parquet --url duckdb:///lake.duckdb`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			table, path := args[0], args[1]

			backend, err := connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()

			start := time.Now()
			if err := backend.LoadFile(ctx, table, path); err != nil {
				return err
			}

			quoted := dialect.ParseTableRef(table).Quoted(dialect.NewPreparer())
			var n int64
			//nolint:gosec // identifier parts are quoted by the preparer
			if err := backend.DB().QueryRowContext(ctx, "SELECT count(*) FROM "+quoted).Scan(&n); err != nil {
				return fmt.Errorf("failed to count rows: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "loaded %d rows into %s in %s\n", n, table, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
