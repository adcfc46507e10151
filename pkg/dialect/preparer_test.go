package dialect

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeparate(t *testing.T) {
	tests := []struct {
		name     string
		database string
		schema   string
	}{
		{"main", "", "main"},
		{"memory.main", "memory", "main"},
		{`"my db".main`, "my db", "main"},
		{`"Other DB"."Sales"`, "Other DB", "Sales"},
		{"a.b.c", "", "a.b.c"},
		{`"my.db"."a""b"`, "my.db", `a"b`},
		{`"my.schema"`, "", `"my.schema"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database, schema := Separate(tt.name)
			assert.Equal(t, tt.database, database)
			assert.Equal(t, tt.schema, schema)
		})
	}
}

func TestPreparer_Quote(t *testing.T) {
	p := NewPreparer()

	tests := []struct {
		ident string
		want  string
	}{
		{"users", "users"},
		{"user_id", "user_id"},
		{"_tmp$1", "_tmp$1"},
		{"select", `"select"`},
		{"Users", `"Users"`},
		{"1st", `"1st"`},
		{"my table", `"my table"`},
		{`a"b`, `"a""b"`},
	}
	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Quote(tt.ident))
		})
	}
}

func TestPreparer_FormatSchema(t *testing.T) {
	p := NewPreparer()

	assert.Equal(t, "main", p.FormatSchema("main"))
	assert.Equal(t, "memory.main", p.FormatSchema("memory.main"))
	assert.Equal(t, `"Other DB".main`, p.FormatSchema(`"Other DB".main`))
	assert.Equal(t, `analytics."order"`, p.FormatSchema("analytics.order"))
}

func TestPreparer_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT keyword_name FROM duckdb_keywords()")).
		WillReturnRows(sqlmock.NewRows([]string{"keyword_name"}).AddRow("ASOF").AddRow("select"))

	p := NewPreparer()
	assert.False(t, p.IsReserved("asof"))

	require.NoError(t, p.Load(context.Background(), db))
	assert.True(t, p.IsReserved("asof"))
	assert.True(t, p.IsReserved("ASOF"))
	assert.Equal(t, `"asof"`, p.Quote("asof"))

	// Loaded preparers do not query again.
	require.NoError(t, p.Load(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPreparer_LoadError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("duckdb_keywords").WillReturnError(assert.AnError)

	p := NewPreparer()
	err = p.Load(context.Background(), db)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, p.IsReserved("select"))
}

func TestParseTableRef(t *testing.T) {
	p := NewPreparer()

	ref := ParseTableRef(`"Other DB".main.events`)
	assert.Equal(t, TableRef{Database: "Other DB", Schema: "main", Name: "events"}, ref)
	assert.Equal(t, `"Other DB".main.events`, ref.Quoted(p))

	ref = ParseTableRef(`"Users"`)
	assert.Equal(t, TableRef{Name: "Users"}, ref)
	assert.Equal(t, `"Users"`, ref.Quoted(p))

	ref = ParseTableRef(`"my.schema".t`)
	assert.Equal(t, TableRef{Schema: "my.schema", Name: "t"}, ref)
	assert.Equal(t, `"my.schema".t`, ref.Quoted(p))

	ref = ParseTableRef(`lake."raw.v2"."Events"`)
	assert.Equal(t, TableRef{Database: "lake", Schema: "raw.v2", Name: "Events"}, ref)

	ref = ParseTableRef(`a..b`)
	assert.Equal(t, TableRef{Name: "a..b"}, ref)

	where, args := ParseTableRef("main.users").Scope("table_name")
	assert.Equal(t, "table_name = ? AND schema_name = ? AND database_name = current_database()", where)
	assert.Equal(t, []any{"users", "main"}, args)
}
