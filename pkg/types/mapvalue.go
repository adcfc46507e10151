package types

import (
	"database/sql/driver"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/duckdb/duckdb-go/v2"
)

// MapValue holds a DuckDB MAP with string keys. It binds as a
// duckdb.OrderedMap with sorted keys and scans engine maps as well as the
// {"key": [...], "value": [...]} struct shape older engines returned.
type MapValue map[string]any

// Value implements driver.Valuer. A nil map binds NULL.
func (m MapValue) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	var out duckdb.OrderedMap
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out.Set(k, m[k])
	}
	return out, nil
}

// KeyValue returns the struct shape of m with keys in sorted order.
func (m MapValue) KeyValue() map[string][]any {
	keys := slices.Sorted(maps.Keys(m))
	vals := make([]any, len(keys))
	ks := make([]any, len(keys))
	for i, k := range keys {
		ks[i] = k
		vals[i] = m[k]
	}
	return map[string][]any{"key": ks, "value": vals}
}

// Scan implements sql.Scanner. NULL scans as an empty map.
func (m *MapValue) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = MapValue{}
		return nil
	case duckdb.OrderedMap:
		return m.fromOrdered(&v)
	case *duckdb.OrderedMap:
		if v == nil {
			*m = MapValue{}
			return nil
		}
		return m.fromOrdered(v)
	case duckdb.Map:
		return m.fromAnyMap(v)
	case map[any]any:
		return m.fromAnyMap(v)
	case map[string]any:
		if kv, ok := legacyPairs(v); ok {
			*m = kv
			return nil
		}
		*m = maps.Clone(MapValue(v))
		return nil
	default:
		return fmt.Errorf("cannot scan %T into MapValue", src)
	}
}

func (m *MapValue) fromOrdered(src *duckdb.OrderedMap) error {
	keys, vals := src.Keys(), src.Values()
	out := make(MapValue, len(keys))
	for i, k := range keys {
		out[fmt.Sprint(k)] = vals[i]
	}
	*m = out
	return nil
}

func (m *MapValue) fromAnyMap(src map[any]any) error {
	out := make(MapValue, len(src))
	for k, v := range src {
		out[fmt.Sprint(k)] = v
	}
	*m = out
	return nil
}

// legacyPairs converts {"key": [...], "value": [...]} to a plain map.
func legacyPairs(src map[string]any) (MapValue, bool) {
	if len(src) != 2 {
		return nil, false
	}
	keys, ok := asSlice(src["key"])
	if !ok {
		return nil, false
	}
	vals, ok := asSlice(src["value"])
	if !ok || len(keys) != len(vals) {
		return nil, false
	}
	out := make(MapValue, len(keys))
	for i, k := range keys {
		out[fmt.Sprint(k)] = vals[i]
	}
	return out, true
}

func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
