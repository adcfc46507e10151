package dialect

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/leapstack-labs/duckgorm/pkg/settings"
)

var typeNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_ ,()\[\]"]*$`)

// TryCastExpr renders TRY_CAST(expr AS type).
type TryCastExpr struct {
	Expr any
	Type string
}

// TryCast casts expr to typ, yielding NULL where the cast fails. A string
// expr names a column; other values are bound as parameters.
func TryCast(expr any, typ string) TryCastExpr {
	return TryCastExpr{Expr: expr, Type: typ}
}

// Build implements clause.Expression.
func (c TryCastExpr) Build(b clause.Builder) {
	if !typeNameRE.MatchString(c.Type) {
		_ = b.AddError(&settings.ValidationError{Kind: "type name", Value: c.Type})
		return
	}
	_, _ = b.WriteString("TRY_CAST(")
	switch e := c.Expr.(type) {
	case string:
		b.WriteQuoted(clause.Column{Name: e})
	default:
		b.AddVar(b, e)
	}
	_, _ = b.WriteString(" AS " + c.Type + ")")
}

// TableFunc is a table function call usable wherever GORM accepts a table
// expression:
//
//	db.Table("?", dialect.ReadParquet("events/*.parquet", nil)).Find(&rows)
type TableFunc struct {
	Name    string
	Args    []any
	Named   map[string]any
	Alias   string
	Columns []string
}

// TableFunction calls name with positional args.
func TableFunction(name string, args ...any) TableFunc {
	return TableFunc{Name: name, Args: args}
}

// ReadParquet reads Parquet files matching path.
func ReadParquet(path any, named map[string]any) TableFunc {
	return TableFunc{Name: "read_parquet", Args: []any{path}, Named: named}
}

// ReadCSV reads CSV files with explicit options.
func ReadCSV(path any, named map[string]any) TableFunc {
	return TableFunc{Name: "read_csv", Args: []any{path}, Named: named}
}

// ReadCSVAuto reads CSV files with sniffed options.
func ReadCSVAuto(path any, named map[string]any) TableFunc {
	return TableFunc{Name: "read_csv_auto", Args: []any{path}, Named: named}
}

// With returns a copy of f with a named argument added.
func (f TableFunc) With(name string, value any) TableFunc {
	named := maps.Clone(f.Named)
	if named == nil {
		named = map[string]any{}
	}
	named[name] = value
	f.Named = named
	return f
}

// As returns a copy of f aliased as alias(columns...).
func (f TableFunc) As(alias string, columns ...string) TableFunc {
	f.Alias = alias
	f.Columns = columns
	return f
}

// SQL renders f with every argument inlined as a literal.
func (f TableFunc) SQL() (string, error) {
	if err := settings.ValidateDottedIdentifier(f.Name, "table function"); err != nil {
		return "", err
	}

	args := make([]string, 0, len(f.Args)+len(f.Named))
	for _, a := range f.Args {
		lit, err := argLiteral(a)
		if err != nil {
			return "", fmt.Errorf("%s: %w", f.Name, err)
		}
		args = append(args, lit)
	}
	for _, k := range slices.Sorted(maps.Keys(f.Named)) {
		if err := settings.ValidateIdentifier(k, "argument name"); err != nil {
			return "", err
		}
		lit, err := argLiteral(f.Named[k])
		if err != nil {
			return "", fmt.Errorf("%s %s: %w", f.Name, k, err)
		}
		args = append(args, k+" := "+lit)
	}

	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteByte('(')
	b.WriteString(strings.Join(args, ", "))
	b.WriteByte(')')

	if f.Alias != "" {
		q := NewPreparer()
		b.WriteString(" AS ")
		b.WriteString(q.Quote(f.Alias))
		if len(f.Columns) > 0 {
			cols := make([]string, len(f.Columns))
			for i, c := range f.Columns {
				cols[i] = q.Quote(c)
			}
			b.WriteString("(" + strings.Join(cols, ", ") + ")")
		}
	}
	return b.String(), nil
}

// Build implements clause.Expression.
func (f TableFunc) Build(b clause.Builder) {
	sql, err := f.SQL()
	if err != nil {
		_ = b.AddError(err)
		return
	}
	_, _ = b.WriteString(sql)
}

// argLiteral renders lists as [...] and string keyed maps as {...}, for
// example the columns argument of read_csv.
func argLiteral(v any) (string, error) {
	switch val := v.(type) {
	case []string:
		items := make([]string, len(val))
		for i, s := range val {
			items[i], _ = settings.Literal(s)
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			lit, err := argLiteral(item)
			if err != nil {
				return "", err
			}
			items[i] = lit
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, s := range val {
			m[k] = s
		}
		return argLiteral(m)
	case map[string]any:
		items := make([]string, 0, len(val))
		for _, k := range slices.Sorted(maps.Keys(val)) {
			key, _ := settings.Literal(k)
			lit, err := argLiteral(val[k])
			if err != nil {
				return "", err
			}
			items = append(items, key+": "+lit)
		}
		return "{" + strings.Join(items, ", ") + "}", nil
	default:
		return settings.Literal(v)
	}
}
