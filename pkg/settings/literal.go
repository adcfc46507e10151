package settings

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// coreKeys are options DuckDB accepts at database open time. Anything else
// is an extension setting and must be applied with SET once the extension
// is loaded.
var coreKeys = map[string]struct{}{
	"access_mode":                   {},
	"allocator_flush_threshold":     {},
	"allow_community_extensions":    {},
	"allow_persistent_secrets":      {},
	"allow_unsigned_extensions":     {},
	"autoinstall_known_extensions":  {},
	"autoload_known_extensions":     {},
	"catalog_error_max_schemas":     {},
	"checkpoint_threshold":          {},
	"custom_extension_repository":   {},
	"custom_user_agent":             {},
	"default_collation":             {},
	"default_null_order":            {},
	"default_order":                 {},
	"enable_external_access":        {},
	"enable_fsst_vectors":           {},
	"enable_object_cache":           {},
	"enable_progress_bar":           {},
	"errors_as_json":                {},
	"extension_directory":           {},
	"external_threads":              {},
	"home_directory":                {},
	"immediate_transaction_mode":    {},
	"lock_configuration":            {},
	"max_memory":                    {},
	"max_temp_directory_size":       {},
	"memory_limit":                  {},
	"null_order":                    {},
	"old_implicit_casting":          {},
	"preserve_insertion_order":      {},
	"secret_directory":              {},
	"storage_compatibility_version": {},
	"temp_directory":                {},
	"threads":                       {},
	"timezone":                      {},
	"wal_autocheckpoint":            {},
	"worker_threads":                {},
}

// MotherDuckKeys are connect-time options understood by the MotherDuck
// extension.
var MotherDuckKeys = []string{
	"motherduck_token",
	"attach_mode",
	"saas_mode",
	"session_hint",
	"access_mode",
	"dbinstance_inactivity_ttl",
	"motherduck_dbinstance_inactivity_ttl",
}

var (
	coreMu     sync.RWMutex
	loadedKeys map[string]struct{}
)

// CoreKeys returns the set of connect-time option names, MotherDuck keys
// included. Names are lower case.
func CoreKeys() map[string]struct{} {
	coreMu.RLock()
	defer coreMu.RUnlock()

	keys := maps.Clone(coreKeys)
	if loadedKeys != nil {
		keys = maps.Clone(loadedKeys)
	}
	for _, k := range MotherDuckKeys {
		keys[k] = struct{}{}
	}
	return keys
}

// Querier is the subset of *sql.DB / *sql.Conn used to read engine metadata.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// LoadCoreKeys replaces the built-in option list with the names reported by
// duckdb_settings() on q.
func LoadCoreKeys(ctx context.Context, q Querier) error {
	rows, err := q.QueryContext(ctx, "SELECT name FROM duckdb_settings()")
	if err != nil {
		return fmt.Errorf("failed to query duckdb_settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan setting name: %w", err)
		}
		keys[strings.ToLower(name)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating settings: %w", err)
	}

	coreMu.Lock()
	loadedKeys = keys
	coreMu.Unlock()
	return nil
}

// ResetCoreKeys restores the built-in option list. Used in tests.
func ResetCoreKeys() {
	coreMu.Lock()
	loadedKeys = nil
	coreMu.Unlock()
}

// IsCore reports whether key is a connect-time option.
func IsCore(key string) bool {
	_, ok := CoreKeys()[strings.ToLower(key)]
	return ok
}

// Split separates connect-time options from extension settings.
func Split(config map[string]any) (core, ext map[string]any) {
	keys := CoreKeys()
	core = make(map[string]any, len(config))
	ext = make(map[string]any)
	for k, v := range config {
		if _, ok := keys[strings.ToLower(k)]; ok {
			core[k] = v
			continue
		}
		ext[k] = v
	}
	return core, ext
}

// Literal renders v as a SQL literal suitable for SET.
func Literal(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'", nil
	case bool:
		return strconv.FormatBool(val), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case time.Duration:
		return "'" + val.String() + "'", nil
	case fmt.Stringer:
		return Literal(val.String())
	default:
		return "", fmt.Errorf("unsupported setting value type %T", v)
	}
}

// SetStatements renders one SET statement per extension setting, ordered
// by key.
func SetStatements(ext map[string]any) ([]string, error) {
	stmts := make([]string, 0, len(ext))
	for _, key := range slices.Sorted(maps.Keys(ext)) {
		if err := ValidateDottedIdentifier(key, "setting"); err != nil {
			return nil, err
		}
		lit, err := Literal(ext[key])
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", key, err)
		}
		stmts = append(stmts, fmt.Sprintf("SET %s = %s", key, lit))
	}
	return stmts, nil
}

// DSNValue renders v the way the engine expects it in a DSN query string.
func DSNValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case []string:
		return strings.Join(val, ",")
	default:
		return fmt.Sprint(val)
	}
}
