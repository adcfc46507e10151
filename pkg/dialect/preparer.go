package dialect

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/leapstack-labs/duckgorm/pkg/settings"
)

//go:generate go run ../../scripts/genkeywords -out=keywords_gen.go

var (
	legalIdentRE = regexp.MustCompile(`^[a-z_][a-z0-9_$]*$`)

	// qualifiedPartRE matches one part of a dotted name: a double quoted
	// identifier, which may hold dots and doubled quotes, or a bare run.
	qualifiedPartRE = regexp.MustCompile(`"((?:[^"]|"")*)"|([^."]+)`)
)

// Preparer quotes identifiers the way the engine expects: names that are
// reserved words or not plain lower case identifiers are double quoted.
type Preparer struct {
	mu       sync.RWMutex
	reserved map[string]struct{}
	loaded   bool
}

// NewPreparer returns a preparer seeded with the built-in reserved words.
func NewPreparer() *Preparer {
	p := &Preparer{reserved: make(map[string]struct{}, len(builtinReserved))}
	for _, w := range builtinReserved {
		p.reserved[w] = struct{}{}
	}
	return p
}

// Load adds the reserved keywords reported by duckdb_keywords(). It only
// queries the engine once per preparer.
func (p *Preparer) Load(ctx context.Context, q settings.Querier) error {
	p.mu.RLock()
	loaded := p.loaded
	p.mu.RUnlock()
	if loaded {
		return nil
	}

	rows, err := q.QueryContext(ctx,
		"SELECT keyword_name FROM duckdb_keywords() WHERE keyword_category = 'reserved'")
	if err != nil {
		return fmt.Errorf("failed to query duckdb_keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return fmt.Errorf("failed to scan keyword: %w", err)
		}
		words = append(words, strings.ToLower(w))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating keywords: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range words {
		p.reserved[w] = struct{}{}
	}
	p.loaded = true
	return nil
}

// IsReserved reports whether word is a reserved keyword.
func (p *Preparer) IsReserved(word string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.reserved[strings.ToLower(word)]
	return ok
}

// RequiresQuotes reports whether ident must be quoted.
func (p *Preparer) RequiresQuotes(ident string) bool {
	return !legalIdentRE.MatchString(ident) || p.IsReserved(ident)
}

// Quote quotes ident when required, doubling embedded quotes.
func (p *Preparer) Quote(ident string) string {
	if !p.RequiresQuotes(ident) {
		return ident
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// FormatSchema quotes a schema name that may carry a database prefix,
// "db.schema", quoting each part separately.
func (p *Preparer) FormatSchema(name string) string {
	database, schema := Separate(name)
	if database == "" {
		return p.Quote(name)
	}
	return p.Quote(database) + "." + p.Quote(schema)
}

// Separate splits "db.schema" into its parts. Either part may be double
// quoted. A name without a dot, or with more than two parts, is returned
// as the schema.
func Separate(name string) (database, schema string) {
	parts := splitQualified(name)
	if len(parts) != 2 {
		return "", name
	}
	return parts[0], parts[1]
}

// splitQualified splits a dotted name into its unquoted parts. It returns
// nil when name is not a well formed dotted name.
func splitQualified(name string) []string {
	locs := qualifiedPartRE.FindAllStringSubmatchIndex(name, -1)
	if len(locs) == 0 {
		return nil
	}
	parts := make([]string, 0, len(locs))
	prev := 0
	for i, loc := range locs {
		sep := name[prev:loc[0]]
		if (i == 0 && sep != "") || (i > 0 && sep != ".") {
			return nil
		}
		if loc[2] >= 0 {
			parts = append(parts, strings.ReplaceAll(name[loc[2]:loc[3]], `""`, `"`))
		} else {
			parts = append(parts, name[loc[4]:loc[5]])
		}
		prev = loc[1]
	}
	if prev != len(name) {
		return nil
	}
	return parts
}
