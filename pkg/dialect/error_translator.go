package dialect

import (
	"errors"
	"strings"

	"github.com/duckdb/duckdb-go/v2"
	"gorm.io/gorm"
)

// constraintErrors maps fragments of engine constraint messages to GORM
// errors. Checked in order.
var constraintErrors = []struct {
	fragment string
	err      error
}{
	{"violates primary key constraint", gorm.ErrDuplicatedKey},
	{"violates unique constraint", gorm.ErrDuplicatedKey},
	{"duplicate key", gorm.ErrDuplicatedKey},
	{"foreign key constraint", gorm.ErrForeignKeyViolated},
	{"check constraint failed", gorm.ErrCheckConstraintViolated},
}

// Translate implements gorm.ErrorTranslator.
func (dialector Dialector) Translate(err error) error {
	return Translate(err)
}

// Translate converts engine errors into GORM's sentinel errors. Errors it
// does not recognise are returned unchanged.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrNotImplemented) {
		return gorm.ErrNotImplemented
	}

	msg := strings.ToLower(err.Error())
	var de *duckdb.Error
	if errors.As(err, &de) {
		if de.Type == duckdb.ErrorTypeNotImplemented {
			return gorm.ErrNotImplemented
		}
		if de.Type != duckdb.ErrorTypeConstraint {
			return err
		}
	} else if !strings.Contains(msg, "constraint error") {
		return err
	}
	for _, c := range constraintErrors {
		if strings.Contains(msg, c.fragment) {
			return c.err
		}
	}
	return err
}
