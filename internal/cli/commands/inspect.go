package commands

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/duckgorm/pkg/core"
	"github.com/leapstack-labs/duckgorm/pkg/dialect"
)

// InspectOptions holds options for the inspect command.
type InspectOptions struct {
	Schema      string
	Concurrency int
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &InspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect [table]",
		Short: "List schemas, tables and views, or the columns of one table",
		Long: `Without arguments, list the tables and views of every user schema, or of
--schema only. With a table name (optionally schema or database
qualified), list its columns.`,
		Example: `  duckgorm inspect
  duckgorm inspect --schema analytics
  duckgorm inspect analytics.events -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return inspectTable(cmd, args[0])
			}
			return inspectCatalog(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "Only list this schema (db.schema accepted)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 4, "Schemas listed in parallel")

	return cmd
}

func inspectCatalog(cmd *cobra.Command, opts *InspectOptions) error {
	ctx := cmd.Context()
	backend, err := connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	var schemas []string
	if opts.Schema != "" {
		schemas = []string{opts.Schema}
	} else {
		names, err := backend.Schemas(ctx)
		if err != nil {
			return err
		}
		q := dialect.NewPreparer()
		for _, s := range names {
			schemas = append(schemas, q.Quote(s.Database)+"."+q.Quote(s.Schema))
		}
	}

	results := make([][]core.TableMetadata, len(schemas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))
	for i, schema := range schemas {
		g.Go(func() error {
			tables, err := backend.Tables(gctx, schema)
			if err != nil {
				return err
			}
			results[i] = tables
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var rows [][]any
	for _, tables := range results {
		for _, t := range tables {
			kind := "table"
			if t.View {
				kind = "view"
			}
			rows = append(rows, []any{t.Database, t.Schema, t.Name, kind, t.Comment})
		}
	}
	return renderer(cmd).Table([]string{"database", "schema", "name", "kind", "comment"}, rows)
}

func inspectTable(cmd *cobra.Command, table string) error {
	ctx := cmd.Context()
	backend, err := connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	meta, err := backend.Columns(ctx, table)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(meta.Columns))
	for _, c := range meta.Columns {
		rows = append(rows, []any{c.Position, c.Name, c.Type, c.Nullable, c.Default, c.Comment})
	}
	return renderer(cmd).Table([]string{"position", "name", "type", "nullable", "default", "comment"}, rows)
}
