package types

import (
	"context"
	"database/sql"
	"testing"

	"github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperQuoter struct{}

func (upperQuoter) Quote(ident string) string { return "[" + ident + "]" }

func TestDDL(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		quoter  Quoter
		want    string
		wantErr error
	}{
		{
			name: "struct quotes names with spaces",
			typ:  Struct{Fields: []Field{{"first name", Named("VARCHAR")}, {"age", Named("INTEGER")}}},
			want: `STRUCT("first name" VARCHAR, age INTEGER)`,
		},
		{
			name:    "empty struct",
			typ:     Struct{},
			wantErr: ErrNoFields,
		},
		{
			name:    "empty union",
			typ:     Union{},
			wantErr: ErrNoFields,
		},
		{
			name: "union",
			typ:  Union{Fields: []Field{{"num", Named("INTEGER")}, {"Str", Named("VARCHAR")}}},
			want: `UNION(num INTEGER, "Str" VARCHAR)`,
		},
		{
			name: "map of list",
			typ:  Map{Key: Named("VARCHAR"), Value: List{Elem: Named("INTEGER")}},
			want: "MAP(VARCHAR, INTEGER[])",
		},
		{
			name: "nested struct in array",
			typ:  Array{Elem: Struct{Fields: []Field{{"x", Named("DOUBLE")}}}, Size: 3},
			want: "STRUCT(x DOUBLE)[3]",
		},
		{
			name:   "custom quoter",
			typ:    Struct{Fields: []Field{{"a", Named("INT")}}},
			quoter: upperQuoter{},
			want:   "STRUCT([a] INT)",
		},
		{
			name:    "nested error propagates",
			typ:     List{Elem: Struct{}},
			wantErr: ErrNoFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.typ.DDL(tt.quoter)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Map{Key: Named("VARCHAR")}.DDL(nil)
	require.Error(t, err)
	_, err = Array{Elem: Named("INT")}.DDL(nil)
	require.Error(t, err)
	_, err = Struct{Fields: []Field{{Name: "x"}}}.DDL(nil)
	require.Error(t, err)
}

func TestMapValue_Value(t *testing.T) {
	v, err := MapValue{"a": 1, "b": 2}.Value()
	require.NoError(t, err)
	om, ok := v.(duckdb.OrderedMap)
	require.True(t, ok, "bound as %T", v)
	assert.Equal(t, []any{"a", "b"}, om.Keys())
	assert.Equal(t, []any{1, 2}, om.Values())

	v, err = MapValue(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Equal(t, map[string][]any{"key": {"a", "b"}, "value": {1, 2}},
		MapValue{"b": 2, "a": 1}.KeyValue())
}

func TestMapValue_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want MapValue
	}{
		{"null", nil, MapValue{}},
		{"engine map", duckdb.Map{"a": int32(1)}, MapValue{"a": int32(1)}},
		{"non string keys", map[any]any{int32(7): "x"}, MapValue{"7": "x"}},
		{"legacy shape", map[string]any{"key": []any{"a"}, "value": []any{1}}, MapValue{"a": 1}},
		{"typed legacy shape", map[string]any{"key": []string{"a", "b"}, "value": []int{1, 2}}, MapValue{"a": 1, "b": 2}},
		{"plain struct", map[string]any{"x": 1}, MapValue{"x": 1}},
		{"mismatched legacy lengths", map[string]any{"key": []any{"a"}, "value": []any{}}, MapValue{"key": []any{"a"}, "value": []any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m MapValue
			require.NoError(t, m.Scan(tt.src))
			assert.Equal(t, tt.want, m)
		})
	}

	var m MapValue
	require.Error(t, m.Scan(42))
}

func TestMapValue_ScanOrderedMap(t *testing.T) {
	var om duckdb.OrderedMap
	om.Set("b", int32(2))
	om.Set(int64(7), "x")

	var m MapValue
	require.NoError(t, m.Scan(om))
	assert.Equal(t, MapValue{"b": int32(2), "7": "x"}, m)

	require.NoError(t, m.Scan(&om))
	assert.Equal(t, MapValue{"b": int32(2), "7": "x"}, m)

	require.NoError(t, m.Scan((*duckdb.OrderedMap)(nil)))
	assert.Equal(t, MapValue{}, m)
}

func TestMapValue_ScanFromEngine(t *testing.T) {
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	defer db.Close()

	var m MapValue
	err = db.QueryRowContext(context.Background(), "SELECT MAP {'a': 1, 'b': 2}").Scan(&m)
	require.NoError(t, err)
	assert.Equal(t, MapValue{"a": int32(1), "b": int32(2)}, m)

	ddl, err := Map{Key: Named("VARCHAR"), Value: Named("INTEGER")}.DDL(nil)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE m (id INTEGER, v " + ddl + ")")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO m VALUES (1, MAP {'k': 3}), (2, NULL)")
	require.NoError(t, err)

	rows, err := db.Query("SELECT v FROM m ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var got []MapValue
	for rows.Next() {
		var v MapValue
		require.NoError(t, rows.Scan(&v))
		got = append(got, v)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []MapValue{{"k": int32(3)}, {}}, got)
}

func TestMapValue_RoundTrip(t *testing.T) {
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE m (v MAP(VARCHAR, INTEGER))")
	require.NoError(t, err)
	bound, err := MapValue{"y": int32(2), "x": int32(1)}.Value()
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO m VALUES (?)", bound)
	require.NoError(t, err)

	var got MapValue
	require.NoError(t, db.QueryRow("SELECT v FROM m").Scan(&got))
	assert.Equal(t, MapValue{"x": int32(1), "y": int32(2)}, got)

	var keys string
	require.NoError(t, db.QueryRow("SELECT CAST(map_keys(v) AS VARCHAR) FROM m").Scan(&keys))
	assert.Equal(t, "[x, y]", keys)
}
