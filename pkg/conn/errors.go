package conn

import (
	"errors"
	"strings"

	"github.com/duckdb/duckdb-go/v2"
	"gorm.io/gorm"
)

// ErrIsolationLevel is returned by BeginTx for any isolation level other
// than the default. DuckDB transactions are always snapshot isolated.
var ErrIsolationLevel = errors.New("duckdb supports only the default isolation level")

// ErrClosed is returned when a closed connection is used.
var ErrClosed = errors.New("connection is closed")

// NotImplementedError wraps an engine "Not implemented" error. It matches
// both gorm.ErrNotImplemented and the engine error with errors.Is/As.
type NotImplementedError struct {
	Err error
}

func (e *NotImplementedError) Error() string {
	return "not implemented: " + strings.TrimPrefix(e.Err.Error(), "Not implemented Error: ")
}

// Unwrap returns gorm.ErrNotImplemented and the engine error.
func (e *NotImplementedError) Unwrap() []error {
	return []error{gorm.ErrNotImplemented, e.Err}
}

// translate converts engine errors callers need to recognise.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var de *duckdb.Error
	if errors.As(err, &de) && de.Type == duckdb.ErrorTypeNotImplemented {
		return &NotImplementedError{Err: err}
	}
	if strings.Contains(err.Error(), "Not implemented Error") {
		return &NotImplementedError{Err: err}
	}
	return err
}

// noActiveTx reports whether err is the engine complaining that COMMIT or
// ROLLBACK ran outside a transaction.
func noActiveTx(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no transaction is active")
}
