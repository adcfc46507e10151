package core

import (
	"database/sql"
	"fmt"
)

// BackendKind classifies a connection target by the shape of its URL.
type BackendKind string

// Backend kinds.
const (
	BackendMemory     BackendKind = "memory"
	BackendFile       BackendKind = "file"
	BackendMotherDuck BackendKind = "motherduck"
)

// String implements fmt.Stringer.
func (k BackendKind) String() string { return string(k) }

// Column represents a column in a database table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
	Comment  string
	Position int
}

// TableMetadata holds metadata about a database table or view.
type TableMetadata struct {
	Database string
	Schema   string
	Name     string
	View     bool
	Columns  []Column
	Comment  string
}

// QualifiedName returns database.schema.name with empty parts omitted.
func (t TableMetadata) QualifiedName() string {
	switch {
	case t.Database != "" && t.Schema != "":
		return fmt.Sprintf("%s.%s.%s", t.Database, t.Schema, t.Name)
	case t.Schema != "":
		return t.Schema + "." + t.Name
	default:
		return t.Name
	}
}

// SchemaName identifies a schema inside an attached database.
type SchemaName struct {
	Database string
	Schema   string
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
