package commands

import (
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/duckgorm/pkg/dialect"
)

// NewTypesCommand creates the types command.
func NewTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "Show how catalog types map to GORM and Go types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := slices.Sorted(maps.Keys(dialect.TypeNames))
			rows := make([][]any, 0, len(names))
			for _, name := range names {
				info := dialect.TypeNames[name]
				rows = append(rows, []any{name, string(info.DataType), info.ScanType.String()})
			}
			return renderer(cmd).Table([]string{"catalog type", "gorm type", "go type"}, rows)
		},
	}
}
