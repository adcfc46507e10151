// Package dsn parses and renders duckgorm connection URLs.
//
// Accepted forms:
//
//	duckdb:///path/to/file.db?threads=4
//	duckdb:///:memory:
//	duckdb://
//	md:analytics?motherduck_token=...
//	motherduck:analytics
//	/path/to/file.db
//	:memory:
package dsn

import (
	"fmt"
	"maps"
	"net/url"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/duckgorm/pkg/core"
	"github.com/leapstack-labs/duckgorm/pkg/motherduck"
)

// Scheme is the URL scheme for local DuckDB targets.
const Scheme = "duckdb"

// Memory is the database name of an in-memory engine.
const Memory = ":memory:"

const redacted = "xxxxx"

var schemeRE = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9+.\-]*)://`)

// URL is a parsed connection URL.
type URL struct {
	// Database is the file path, ":memory:", or an md:/motherduck: database.
	Database string
	// Query holds connection options. Values are always strings.
	Query url.Values
}

// ConnectArgs are the arguments handed to the engine connector.
type ConnectArgs struct {
	// Database is the engine path, with "?user=" appended when a user was given.
	Database string
	// Config holds every remaining query option.
	Config map[string]any
}

// New builds a URL from typed query values. Booleans render as
// "true"/"false", slices and arrays become multi-valued keys, nil values are
// dropped. Values in overrides replace those in query.
func New(database string, query map[string]any, overrides map[string]any) URL {
	u := URL{Database: database, Query: url.Values{}}
	merged := maps.Clone(query)
	if merged == nil {
		merged = map[string]any{}
	}
	maps.Copy(merged, overrides)

	for k, v := range merged {
		if vals, ok := coerce(v); ok {
			u.Query[k] = vals
		}
	}
	return u
}

func coerce(v any) ([]string, bool) {
	if v == nil {
		return nil, false
	}
	switch val := v.(type) {
	case string:
		return []string{val}, true
	case bool:
		return []string{strconv.FormatBool(val)}, true
	case []string:
		return slices.Clone(val), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, false
		}
		return coerce(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]string, 0, rv.Len())
		for i := range rv.Len() {
			item, ok := coerce(rv.Index(i).Interface())
			if !ok {
				continue
			}
			out = append(out, item...)
		}
		return out, true
	default:
		return []string{fmt.Sprint(v)}, true
	}
}

// Parse parses a connection URL.
func Parse(raw string) (URL, error) {
	raw = strings.TrimSpace(raw)

	rest := raw
	if m := schemeRE.FindStringSubmatch(raw); m != nil {
		if !strings.EqualFold(m[1], Scheme) {
			return URL{}, fmt.Errorf("unsupported URL scheme %q (expected %s://, md: or a path)", m[1], Scheme)
		}
		rest = raw[len(m[0]):]
		// duckdb:///file.db has an empty host; strip the separator slash.
		rest = strings.TrimPrefix(rest, "/")
	}

	database, rawQuery, _ := strings.Cut(rest, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return URL{}, fmt.Errorf("invalid query string in %q: %w", Redact(raw), err)
	}
	if database != "" && !motherduck.HasPrefix(database) {
		if database, err = url.PathUnescape(database); err != nil {
			return URL{}, fmt.Errorf("invalid database path: %w", err)
		}
	}
	return URL{Database: database, Query: query}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level variables.
func MustParse(raw string) URL {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// IsMemory reports whether the URL targets an in-memory engine.
func (u URL) IsMemory() bool {
	return u.Database == "" || u.Database == Memory || strings.HasPrefix(u.Database, Memory)
}

// IsMotherDuck reports whether the URL routes to MotherDuck, either by its
// database prefix or by carrying MotherDuck options.
func (u URL) IsMotherDuck() bool {
	return motherduck.LooksLikeMotherDuck(u.Database, u.Config())
}

// Shape classifies the URL for pool policy selection.
func (u URL) Shape() core.BackendKind {
	switch {
	case u.IsMemory():
		return core.BackendMemory
	case motherduck.IsRemote(u.Database, u.Config()):
		return core.BackendMotherDuck
	default:
		return core.BackendFile
	}
}

// Config returns the query as a config map. Repeated keys are joined with
// commas.
func (u URL) Config() map[string]any {
	cfg := make(map[string]any, len(u.Query))
	for k, vals := range u.Query {
		if len(vals) == 0 {
			continue
		}
		cfg[k] = strings.Join(vals, ",")
	}
	return cfg
}

// ConnectArgs translates the URL into engine connect arguments. The "user"
// option is moved into the database as "<db>?user=<name>".
func (u URL) ConnectArgs() ConnectArgs {
	cfg := u.Config()
	database := u.Database
	if user, ok := cfg["user"]; ok {
		delete(cfg, "user")
		database += "?user=" + fmt.Sprint(user)
	}
	return ConnectArgs{Database: database, Config: cfg}
}

// String renders the URL in canonical form with sorted query keys.
func (u URL) String() string {
	var b strings.Builder
	if !motherduck.HasPrefix(u.Database) {
		b.WriteString(Scheme + ":///")
	}
	b.WriteString(u.Database)
	if len(u.Query) > 0 {
		b.WriteByte('?')
		b.WriteString(u.Query.Encode())
	}
	return b.String()
}

// Redacted renders the URL with the MotherDuck token masked.
func (u URL) Redacted() string {
	if _, ok := u.Query["motherduck_token"]; !ok {
		return u.String()
	}
	c := URL{Database: u.Database, Query: maps.Clone(u.Query)}
	c.Query.Set("motherduck_token", redacted)
	return c.String()
}

var tokenRE = regexp.MustCompile(`(?i)(motherduck_token=)([^&\s'"]+)`)

// Redact masks a MotherDuck token inside an unparsed URL string.
func Redact(raw string) string {
	return tokenRE.ReplaceAllString(raw, "${1}"+redacted)
}
