package dialect

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/schema"
)

func TestParseTypeName(t *testing.T) {
	tests := []struct {
		in   string
		want TypeName
	}{
		{"INTEGER", TypeName{Base: "INTEGER"}},
		{"varchar", TypeName{Base: "VARCHAR"}},
		{"VARCHAR(12)", TypeName{Base: "VARCHAR", Length: 12}},
		{"DECIMAL(18,3)", TypeName{Base: "DECIMAL", Precision: 18, Scale: 3}},
		{"NUMERIC(10)", TypeName{Base: "DECIMAL", Precision: 10}},
		{"TIMESTAMP WITH TIME ZONE", TypeName{Base: "TIMESTAMP WITH TIME ZONE"}},
		{"STRUCT(a INTEGER, b VARCHAR)", TypeName{Base: "STRUCT"}},
		{"MAP(VARCHAR, INTEGER)", TypeName{Base: "MAP"}},
		{"ENUM('a', 'b')", TypeName{Base: "ENUM"}},
		{"INTEGER[]", TypeName{Base: "LIST", List: true, Elem: &TypeName{Base: "INTEGER"}}},
		{"DOUBLE[3]", TypeName{Base: "ARRAY", Size: 3, Elem: &TypeName{Base: "DOUBLE"}}},
		{"VARCHAR[][]", TypeName{Base: "LIST", List: true, Elem: &TypeName{
			Base: "LIST", List: true, Elem: &TypeName{Base: "VARCHAR"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTypeName(tt.in))
		})
	}
}

func TestTypeName_Info(t *testing.T) {
	assert.Equal(t, schema.Uint, ParseTypeName("UBIGINT").Info().DataType)
	assert.Equal(t, reflect.TypeOf(uint64(0)), ParseTypeName("UBIGINT").Info().ScanType)
	assert.Equal(t, schema.Float, ParseTypeName("DECIMAL(10,2)").Info().DataType)
	assert.Equal(t, schema.String, ParseTypeName("VARCHAR(5)").Info().DataType)
	assert.Equal(t, schema.DataType("list"), ParseTypeName("INTEGER[]").Info().DataType)

	unknown := ParseTypeName("GEOMETRY").Info()
	assert.Equal(t, schema.DataType("geometry"), unknown.DataType)
	assert.Equal(t, anyType, unknown.ScanType)
}

func TestGetTypeAliases(t *testing.T) {
	m := Migrator{}
	assert.Equal(t, []string{"timestamptz"}, m.GetTypeAliases("TIMESTAMP WITH TIME ZONE"))
	assert.Contains(t, m.GetTypeAliases("float"), "real")
	assert.Nil(t, m.GetTypeAliases("uuid"))
}
