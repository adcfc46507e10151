package dialect

import (
	"math/big"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/duckdb/duckdb-go/v2"
	"gorm.io/gorm/schema"
)

// TypeInfo describes how a catalog type name maps to GORM and Go.
type TypeInfo struct {
	DataType schema.DataType
	ScanType reflect.Type
}

var (
	anyType      = reflect.TypeOf((*any)(nil)).Elem()
	anySliceType = reflect.TypeOf([]any(nil))
)

// TypeNames maps the type names reported by duckdb_columns() to GORM data
// types and the Go types values scan into.
var TypeNames = map[string]TypeInfo{
	"BOOLEAN":                  {schema.Bool, reflect.TypeOf(false)},
	"TINYINT":                  {schema.Int, reflect.TypeOf(int8(0))},
	"SMALLINT":                 {schema.Int, reflect.TypeOf(int16(0))},
	"INTEGER":                  {schema.Int, reflect.TypeOf(int32(0))},
	"BIGINT":                   {schema.Int, reflect.TypeOf(int64(0))},
	"HUGEINT":                  {schema.Int, reflect.TypeOf((*big.Int)(nil))},
	"UTINYINT":                 {schema.Uint, reflect.TypeOf(uint8(0))},
	"USMALLINT":                {schema.Uint, reflect.TypeOf(uint16(0))},
	"UINTEGER":                 {schema.Uint, reflect.TypeOf(uint32(0))},
	"UBIGINT":                  {schema.Uint, reflect.TypeOf(uint64(0))},
	"UHUGEINT":                 {schema.Uint, reflect.TypeOf((*big.Int)(nil))},
	"VARINT":                   {schema.Int, reflect.TypeOf((*big.Int)(nil))},
	"BIGNUM":                   {schema.Int, reflect.TypeOf((*big.Int)(nil))},
	"FLOAT":                    {schema.Float, reflect.TypeOf(float32(0))},
	"DOUBLE":                   {schema.Float, reflect.TypeOf(float64(0))},
	"DECIMAL":                  {schema.Float, reflect.TypeOf(duckdb.Decimal{})},
	"VARCHAR":                  {schema.String, reflect.TypeOf("")},
	"JSON":                     {schema.String, anyType},
	"UUID":                     {schema.String, reflect.TypeOf(duckdb.UUID{})},
	"ENUM":                     {schema.String, reflect.TypeOf("")},
	"BIT":                      {schema.String, reflect.TypeOf("")},
	"BLOB":                     {schema.Bytes, reflect.TypeOf([]byte(nil))},
	"DATE":                     {schema.Time, reflect.TypeOf(time.Time{})},
	"TIME":                     {schema.Time, reflect.TypeOf(time.Time{})},
	"TIME WITH TIME ZONE":      {schema.Time, reflect.TypeOf(time.Time{})},
	"TIMESTAMP":                {schema.Time, reflect.TypeOf(time.Time{})},
	"TIMESTAMP_S":              {schema.Time, reflect.TypeOf(time.Time{})},
	"TIMESTAMP_MS":             {schema.Time, reflect.TypeOf(time.Time{})},
	"TIMESTAMP_NS":             {schema.Time, reflect.TypeOf(time.Time{})},
	"TIMESTAMP WITH TIME ZONE": {schema.Time, reflect.TypeOf(time.Time{})},
	"INTERVAL":                 {"interval", reflect.TypeOf(duckdb.Interval{})},
	"LIST":                     {"list", anySliceType},
	"ARRAY":                    {"array", anySliceType},
	"STRUCT":                   {"struct", reflect.TypeOf(map[string]any(nil))},
	"MAP":                      {"map", reflect.TypeOf(duckdb.Map(nil))},
	"UNION":                    {"union", reflect.TypeOf(duckdb.Union{})},
}

// typeAliases maps catalog names to the spellings DataTypeOf produces.
var typeAliases = map[string][]string{
	"boolean":                  {"bool"},
	"float":                    {"real", "float4"},
	"real":                     {"float"},
	"double":                   {"float8"},
	"integer":                  {"int", "int4"},
	"bigint":                   {"int8"},
	"smallint":                 {"int2"},
	"tinyint":                  {"int1"},
	"varchar":                  {"text", "string"},
	"timestamp with time zone": {"timestamptz"},
	"timestamptz":              {"timestamp with time zone"},
	"timestamp":                {"datetime"},
	"blob":                     {"bytea"},
}

// TypeName is a parsed catalog type.
type TypeName struct {
	// Base is the upper case type name without parameters, e.g. "DECIMAL".
	Base      string
	Length    int64
	Precision int64
	Scale     int64
	// List is set for "T[]"; Elem then holds T.
	List bool
	// Size is the fixed length of "T[n]".
	Size int64
	Elem *TypeName
}

var (
	decimalRE = regexp.MustCompile(`^(?i)(DECIMAL|NUMERIC)\s*\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)$`)
	lengthRE  = regexp.MustCompile(`^(?i)(VARCHAR|CHAR|BPCHAR|TEXT|STRING)\s*\(\s*(\d+)\s*\)$`)
	arrayRE   = regexp.MustCompile(`^(.*)\[(\d*)\]$`)
)

// ParseTypeName parses "DECIMAL(p,s)", "VARCHAR(n)", "T[]" and "T[n]".
// Nested types such as STRUCT(...) keep their keyword as Base.
func ParseTypeName(name string) TypeName {
	name = strings.TrimSpace(name)

	if m := arrayRE.FindStringSubmatch(name); m != nil {
		elem := ParseTypeName(m[1])
		if m[2] == "" {
			return TypeName{Base: "LIST", List: true, Elem: &elem}
		}
		size, _ := strconv.ParseInt(m[2], 10, 64)
		return TypeName{Base: "ARRAY", Size: size, Elem: &elem}
	}
	if m := decimalRE.FindStringSubmatch(name); m != nil {
		p, _ := strconv.ParseInt(m[2], 10, 64)
		var s int64
		if m[3] != "" {
			s, _ = strconv.ParseInt(m[3], 10, 64)
		}
		return TypeName{Base: "DECIMAL", Precision: p, Scale: s}
	}
	if m := lengthRE.FindStringSubmatch(name); m != nil {
		n, _ := strconv.ParseInt(m[2], 10, 64)
		return TypeName{Base: "VARCHAR", Length: n}
	}

	upper := strings.ToUpper(name)
	for _, nested := range []string{"STRUCT", "MAP", "UNION", "ENUM"} {
		if strings.HasPrefix(upper, nested+"(") {
			return TypeName{Base: nested}
		}
	}
	return TypeName{Base: upper}
}

// Info returns the mapping for t. Unknown names map to a string column
// scanned into any.
func (t TypeName) Info() TypeInfo {
	if info, ok := TypeNames[t.Base]; ok {
		return info
	}
	return TypeInfo{DataType: schema.DataType(strings.ToLower(t.Base)), ScanType: anyType}
}
