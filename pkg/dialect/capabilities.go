package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/duckdb/duckdb-go/v2"
	"golang.org/x/sync/singleflight"
)

// Fixed capabilities of the engine.
const (
	SupportsStatementCache    = false
	SupportsSaneRowcount      = false
	SupportsServerSideCursors = false
)

// ServerVersion is the PostgreSQL version the engine's SQL is treated as.
var ServerVersion = [2]int{8, 0}

// Capabilities are the probed features of a connected engine.
type Capabilities struct {
	Version  string
	Comments bool
}

var (
	probes       singleflight.Group
	commentCache sync.Map // engine version -> bool
)

// Probe reads the engine version and whether COMMENT ON is supported.
// Concurrent probes of the same engine version share one round trip and
// the comment result is cached per version.
func Probe(ctx context.Context, db *sql.DB, logger *slog.Logger) (Capabilities, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return Capabilities{}, fmt.Errorf("failed to read engine version: %w", err)
	}

	if v, ok := commentCache.Load(version); ok {
		return Capabilities{Version: version, Comments: v.(bool)}, nil
	}

	v, err, _ := probes.Do(version, func() (any, error) {
		ok, err := SupportsComments(ctx, db)
		if err != nil {
			return false, err
		}
		commentCache.Store(version, ok)
		return ok, nil
	})
	if err != nil {
		logger.Debug("comment support probe failed", "version", version, "error", err)
		return Capabilities{Version: version}, nil
	}

	caps := Capabilities{Version: version, Comments: v.(bool)}
	logger.Debug("probed engine capabilities", "version", caps.Version, "comments", caps.Comments)
	return caps, nil
}

// SupportsComments runs COMMENT ON against a temporary table inside a
// rolled back transaction. A parser error means no support.
func SupportsComments(ctx context.Context, db *sql.DB) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "CREATE TEMPORARY TABLE duckgorm_comment_probe (id INTEGER)"); err != nil {
		return false, err
	}
	_, err = tx.ExecContext(ctx, "COMMENT ON TABLE duckgorm_comment_probe IS 'probe'")
	switch {
	case err == nil:
		return true, nil
	case isParserError(err):
		return false, nil
	default:
		return false, err
	}
}

func isParserError(err error) bool {
	var de *duckdb.Error
	if errors.As(err, &de) && de.Type == duckdb.ErrorTypeParser {
		return true
	}
	return strings.Contains(err.Error(), "Parser Error")
}
