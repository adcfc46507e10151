// Package core defines the shared vocabulary of duckgorm.
//
// This package contains:
//   - Backend kinds (memory, file, motherduck)
//   - Catalog entities (Column, TableMetadata, SchemaName)
//   - Configuration types (TargetConfig, PoolConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
