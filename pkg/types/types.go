// Package types renders DuckDB's nested column types and binds MAP values.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoFields is returned when a STRUCT or UNION has no fields.
var ErrNoFields = errors.New("STRUCT and UNION types require at least one field")

// Quoter quotes identifiers. The dialect's identifier preparer satisfies it.
type Quoter interface {
	Quote(ident string) string
}

var plainRE = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type defaultQuoter struct{}

func (defaultQuoter) Quote(ident string) string {
	if plainRE.MatchString(ident) {
		return ident
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// DefaultQuoter quotes every identifier that is not lower case letters,
// digits and underscores.
var DefaultQuoter Quoter = defaultQuoter{}

// Type is a column type that renders to DDL.
type Type interface {
	DDL(q Quoter) (string, error)
}

// Named is a scalar type given by its DDL name, e.g. "INTEGER".
type Named string

// DDL implements Type.
func (n Named) DDL(Quoter) (string, error) { return string(n), nil }

// Field is one member of a STRUCT or UNION.
type Field struct {
	Name string
	Type Type
}

// Struct is a STRUCT type.
type Struct struct {
	Fields []Field
}

// DDL implements Type.
func (s Struct) DDL(q Quoter) (string, error) {
	body, err := fieldList(s.Fields, q)
	if err != nil {
		return "", err
	}
	return "STRUCT" + body, nil
}

// Union is a UNION type.
type Union struct {
	Fields []Field
}

// DDL implements Type.
func (u Union) DDL(q Quoter) (string, error) {
	body, err := fieldList(u.Fields, q)
	if err != nil {
		return "", err
	}
	return "UNION" + body, nil
}

func fieldList(fields []Field, q Quoter) (string, error) {
	if len(fields) == 0 {
		return "", ErrNoFields
	}
	if q == nil {
		q = DefaultQuoter
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Type == nil {
			return "", fmt.Errorf("field %q has no type", f.Name)
		}
		ddl, err := f.Type.DDL(q)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", f.Name, err)
		}
		parts = append(parts, q.Quote(f.Name)+" "+ddl)
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}

// Map is a MAP(key, value) type.
type Map struct {
	Key   Type
	Value Type
}

// DDL implements Type.
func (m Map) DDL(q Quoter) (string, error) {
	if m.Key == nil || m.Value == nil {
		return "", errors.New("MAP requires key and value types")
	}
	k, err := m.Key.DDL(q)
	if err != nil {
		return "", err
	}
	v, err := m.Value.DDL(q)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("MAP(%s, %s)", k, v), nil
}

// List is a variable length LIST type.
type List struct {
	Elem Type
}

// DDL implements Type.
func (l List) DDL(q Quoter) (string, error) {
	if l.Elem == nil {
		return "", errors.New("LIST requires an element type")
	}
	e, err := l.Elem.DDL(q)
	if err != nil {
		return "", err
	}
	return e + "[]", nil
}

// Array is a fixed size ARRAY type.
type Array struct {
	Elem Type
	Size int
}

// DDL implements Type.
func (a Array) DDL(q Quoter) (string, error) {
	if a.Elem == nil || a.Size <= 0 {
		return "", errors.New("ARRAY requires an element type and a positive size")
	}
	e, err := a.Elem.DDL(q)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s[%d]", e, a.Size), nil
}
