// Package settings renders DuckDB engine configuration: the split between
// connect-time options and SET statements, literal quoting, identifier
// validation, the custom user agent and extension/secret parameters.
package settings

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	extensionRE  = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// ValidationError reports a value rejected by one of the validators.
type ValidationError struct {
	Kind  string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Kind, e.Value)
}

// ValidateIdentifier checks that value is a plain SQL identifier.
// kind names the value in the error, e.g. "setting" or "schema".
func ValidateIdentifier(value, kind string) error {
	if kind == "" {
		kind = "identifier"
	}
	if !identifierRE.MatchString(value) {
		return &ValidationError{Kind: kind, Value: value}
	}
	return nil
}

// ValidateDottedIdentifier checks a dot-separated identifier like "db.schema".
func ValidateDottedIdentifier(value, kind string) error {
	if kind == "" {
		kind = "identifier"
	}
	parts := strings.Split(value, ".")
	for _, part := range parts {
		if part == "" {
			return &ValidationError{Kind: kind, Value: value}
		}
		if err := ValidateIdentifier(part, kind); err != nil {
			return err
		}
	}
	return nil
}

// ValidateExtensionName checks an extension name used in LOAD / INSTALL.
func ValidateExtensionName(value string) error {
	if !extensionRE.MatchString(value) {
		return &ValidationError{Kind: "extension name", Value: value}
	}
	return nil
}

// ValidateIdentifierList validates every value and returns the first error.
func ValidateIdentifierList(values []string, kind string) error {
	for _, v := range values {
		if err := ValidateIdentifier(v, kind); err != nil {
			return err
		}
	}
	return nil
}
