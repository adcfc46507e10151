package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/duckgorm/pkg/adapter"
	"github.com/leapstack-labs/duckgorm/pkg/core"
)

// Importing this package registers the "duckdb" and "motherduck" backends:
//
//	import _ "github.com/leapstack-labs/duckgorm/pkg/adapters/duckdb"
func init() {
	adapter.Register(NameDuckDB, func(cfg core.TargetConfig, logger *slog.Logger) adapter.Backend {
		return New(cfg, logger)
	})
	adapter.Register(NameMotherDuck, func(cfg core.TargetConfig, logger *slog.Logger) adapter.Backend {
		return NewMotherDuck(cfg, logger)
	})
}
