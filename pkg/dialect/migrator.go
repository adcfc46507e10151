package dialect

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/migrator"
	"gorm.io/gorm/schema"
)

// ErrNoSuchTable is returned when a table or view is not in the catalog.
var ErrNoSuchTable = errors.New("no such table")

// notSystemSchema excludes the pg_catalog compatibility schemas.
const notSystemSchema = `schema_name NOT LIKE 'pg\_%' ESCAPE '\'`

const columnsSQL = `SELECT column_name, column_default, is_nullable, data_type, comment,
	column_index, character_maximum_length, numeric_precision, numeric_scale
FROM duckdb_columns()
WHERE `

const keyColumnsSQL = `SELECT constraint_type, unnest(constraint_column_names) AS column_name,
	len(constraint_column_names) AS column_count
FROM duckdb_constraints()
WHERE constraint_type IN ('PRIMARY KEY', 'UNIQUE') AND `

const indexSQL = `SELECT table_name, index_name, is_unique, is_primary,
	CAST(expressions AS VARCHAR) AS expressions
FROM duckdb_indexes()
WHERE `

// Migrator implements gorm.Migrator over the duckdb_* catalog functions.
type Migrator struct {
	migrator.Migrator
	dialect Dialector
}

// queryRaw runs catalog queries even when the session is a dry run.
func (m Migrator) queryRaw(sql string, values ...any) *gorm.DB {
	queryTx := m.DB
	if m.DB.DryRun {
		queryTx = m.DB.Session(&gorm.Session{})
		queryTx.DryRun = false
	}
	return queryTx.Raw(sql, values...)
}

// CurrentDatabase returns the catalog queries default to.
func (m Migrator) CurrentDatabase() (name string) {
	m.queryRaw("SELECT current_database()").Scan(&name)
	return
}

// CurrentSchema returns the schema queries default to.
func (m Migrator) CurrentSchema() (name string) {
	m.queryRaw("SELECT current_schema()").Scan(&name)
	return
}

// TableRef is a possibly qualified table name.
type TableRef struct {
	Database string
	Schema   string
	Name     string
}

// ParseTableRef splits "table", "schema.table" or "db.schema.table".
// Quoted parts may contain dots and doubled quotes. A name that does not
// parse is kept whole as the table name.
func ParseTableRef(table string) TableRef {
	parts := splitQualified(table)
	switch len(parts) {
	case 2:
		return TableRef{Schema: parts[0], Name: parts[1]}
	case 3:
		return TableRef{Database: parts[0], Schema: parts[1], Name: parts[2]}
	case 1:
		return TableRef{Name: parts[0]}
	default:
		return TableRef{Name: table}
	}
}

// Quoted renders the reference with each part quoted where p requires it.
func (t TableRef) Quoted(p *Preparer) string {
	name := p.Quote(t.Name)
	if t.Schema != "" {
		name = p.Quote(t.Schema) + "." + name
	}
	if t.Database != "" {
		name = p.Quote(t.Database) + "." + name
	}
	return name
}

// Scope filters a catalog function on nameCol. Unqualified names resolve
// in the current database and schema.
func (t TableRef) Scope(nameCol string) (string, []any) {
	where := nameCol + " = ?"
	args := []any{t.Name}
	if t.Schema != "" {
		where += " AND schema_name = ?"
		args = append(args, t.Schema)
	} else {
		where += " AND schema_name = current_schema()"
	}
	if t.Database != "" {
		where += " AND database_name = ?"
		args = append(args, t.Database)
	} else {
		where += " AND database_name = current_database()"
	}
	return where, args
}

func (m Migrator) tableOf(stmt *gorm.Statement) TableRef {
	return ParseTableRef(stmt.Table)
}

// filter builds the optional name, schema and database conditions used by
// the listing queries. schemaName may be "db.schema".
func filter(tableName, schemaName string) (string, []any) {
	var (
		sql  string
		args []any
	)
	database := ""
	if schemaName != "" {
		database, schemaName = Separate(schemaName)
	}
	if tableName != "" {
		sql += " AND table_name = ?"
		args = append(args, tableName)
	}
	if schemaName != "" {
		sql += " AND schema_name = ?"
		args = append(args, schemaName)
	}
	if database != "" {
		sql += " AND database_name = ?"
		args = append(args, database)
	}
	return sql, args
}

// GetTables returns the tables of the current schema.
func (m Migrator) GetTables() (tableList []string, err error) {
	return tableList, m.queryRaw(
		"SELECT table_name FROM duckdb_tables() WHERE schema_name = current_schema() AND database_name = current_database() ORDER BY table_name",
	).Scan(&tableList).Error
}

// GetTableNames returns the tables of schema, or of every schema when it
// is empty. schema may be "db.schema".
func (m Migrator) GetTableNames(schemaName string) (tableList []string, err error) {
	where, args := filter("", schemaName)
	return tableList, m.queryRaw(
		"SELECT table_name FROM duckdb_tables() WHERE "+notSystemSchema+where+" ORDER BY table_name", args...,
	).Scan(&tableList).Error
}

// GetViewNames returns the views of schema, "main" when empty. schema may
// be "db.schema".
func (m Migrator) GetViewNames(schemaName string) (viewList []string, err error) {
	database := ""
	if schemaName == "" {
		schemaName = "main"
	} else {
		database, schemaName = Separate(schemaName)
	}
	sql := "SELECT table_name FROM information_schema.tables WHERE table_type = 'VIEW' AND table_schema = ?"
	args := []any{schemaName}
	if database != "" {
		sql += " AND table_catalog = ?"
		args = append(args, database)
	}
	return viewList, m.queryRaw(sql+" ORDER BY table_name", args...).Scan(&viewList).Error
}

// GetSchemaNames returns every "db.schema" pair, quoted where needed.
func (m Migrator) GetSchemaNames() ([]string, error) {
	rows, err := m.queryRaw(
		"SELECT database_name, schema_name FROM duckdb_schemas() WHERE " + notSystemSchema +
			" ORDER BY database_name, schema_name",
	).Rows()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	p := m.dialect.Preparer()
	var names []string
	for rows.Next() {
		var db, sc string
		if err := rows.Scan(&db, &sc); err != nil {
			return nil, err
		}
		names = append(names, p.FormatSchema(db+"."+sc))
	}
	return names, rows.Err()
}

// TableOID returns the oid of a table or view. schema may be "db.schema";
// when empty any schema matches.
func (m Migrator) TableOID(table, schemaName string) (int64, error) {
	where, args := filter(table, schemaName)
	var oids []int64
	err := m.queryRaw(`SELECT oid FROM (
	SELECT table_oid AS oid, table_name, database_name, schema_name FROM duckdb_tables()
	UNION ALL BY NAME
	SELECT view_oid AS oid, view_name AS table_name, database_name, schema_name FROM duckdb_views()
) WHERE `+notSystemSchema+where, args...).Scan(&oids).Error
	if err != nil {
		return 0, err
	}
	if len(oids) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoSuchTable, table)
	}
	return oids[0], nil
}

// HasTable reports whether the table or view exists. Unqualified names
// are looked up in the current schema.
func (m Migrator) HasTable(value any) bool {
	var found bool
	_ = m.RunWithValue(value, func(stmt *gorm.Statement) error {
		ref := m.tableOf(stmt)
		schemaName := ref.Schema
		if schemaName == "" {
			schemaName = m.CurrentSchema()
		}
		database := ref.Database
		if database == "" {
			database = m.CurrentDatabase()
		}
		schemaName = database + "." + schemaName
		_, err := m.TableOID(ref.Name, schemaName)
		found = err == nil
		return err
	})
	return found
}

// HasColumn reports whether field exists on value's table.
func (m Migrator) HasColumn(value any, field string) bool {
	var count int64
	_ = m.RunWithValue(value, func(stmt *gorm.Statement) error {
		name := field
		if stmt.Schema != nil {
			if f := stmt.Schema.LookUpField(field); f != nil {
				name = f.DBName
			}
		}
		where, args := m.tableOf(stmt).Scope("table_name")
		return m.queryRaw(
			"SELECT count(*) FROM duckdb_columns() WHERE "+where+" AND column_name = ?",
			append(args, name)...,
		).Scan(&count).Error
	})
	return count > 0
}

// ColumnTypes reflects value's columns in table order.
func (m Migrator) ColumnTypes(value any) ([]gorm.ColumnType, error) {
	columnTypes := make([]gorm.ColumnType, 0)
	err := m.RunWithValue(value, func(stmt *gorm.Statement) error {
		ref := m.tableOf(stmt)
		where, args := ref.Scope("table_name")

		keys, err := m.keyColumns(where, args)
		if err != nil {
			return err
		}

		columnTypes, err = m.readColumns(where, args, keys)
		if err != nil {
			return err
		}
		if len(columnTypes) == 0 {
			return fmt.Errorf("%w: %s", ErrNoSuchTable, stmt.Table)
		}

		return m.attachSQLColumnTypes(stmt, columnTypes)
	})
	return columnTypes, err
}

// readColumns scans duckdb_columns and closes the cursor before
// returning.
func (m Migrator) readColumns(where string, args []any, keys keyColumns) ([]gorm.ColumnType, error) {
	columnTypes := make([]gorm.ColumnType, 0)
	rows, err := m.queryRaw(columnsSQL+where+" ORDER BY column_index", args...).Rows()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			name, dataType        string
			def, comment          sql.NullString
			nullable              bool
			index                 int64
			length, precis, scale sql.NullInt64
		)
		if err := rows.Scan(&name, &def, &nullable, &dataType, &comment, &index, &length, &precis, &scale); err != nil {
			return nil, err
		}

		parsed := ParseTypeName(dataType)
		ct := migrator.ColumnType{
			NameValue:          sql.NullString{String: name, Valid: true},
			DataTypeValue:      sql.NullString{String: parsed.Base, Valid: true},
			ColumnTypeValue:    sql.NullString{String: dataType, Valid: true},
			NullableValue:      sql.NullBool{Bool: nullable, Valid: true},
			DefaultValueValue:  sql.NullString{String: parseDefault(def.String), Valid: def.Valid},
			PrimaryKeyValue:    sql.NullBool{Bool: keys.primary[name], Valid: true},
			UniqueValue:        sql.NullBool{Bool: keys.unique[name], Valid: true},
			AutoIncrementValue: sql.NullBool{Bool: strings.HasPrefix(def.String, "nextval("), Valid: true},
			ScanTypeValue:      parsed.Info().ScanType,
		}
		if m.dialect.caps.Comments {
			ct.CommentValue = sql.NullString{String: comment.String, Valid: true}
		}
		if parsed.Base == "VARCHAR" && (length.Valid || parsed.Length > 0) {
			n := length.Int64
			if parsed.Length > 0 {
				n = parsed.Length
			}
			ct.LengthValue = sql.NullInt64{Int64: n, Valid: n > 0}
		}
		if parsed.Base == "DECIMAL" {
			ct.DecimalSizeValue = sql.NullInt64{Int64: precis.Int64, Valid: precis.Valid}
			ct.ScaleValue = sql.NullInt64{Int64: scale.Int64, Valid: scale.Valid}
		}
		columnTypes = append(columnTypes, ct)
	}
	return columnTypes, rows.Err()
}

type keyColumns struct {
	primary map[string]bool
	unique  map[string]bool
}

// keyColumns reads primary key and single column unique constraints.
func (m Migrator) keyColumns(where string, args []any) (keyColumns, error) {
	keys := keyColumns{primary: map[string]bool{}, unique: map[string]bool{}}
	rows, err := m.queryRaw(keyColumnsSQL+where, args...).Rows()
	if err != nil {
		return keys, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			kind, column string
			count        int64
		)
		if err := rows.Scan(&kind, &column, &count); err != nil {
			return keys, err
		}
		switch {
		case kind == "PRIMARY KEY":
			keys.primary[column] = true
			if count == 1 {
				keys.unique[column] = true
			}
		case count == 1:
			keys.unique[column] = true
		}
	}
	return keys, rows.Err()
}

// attachSQLColumnTypes fills in the driver's column types from an empty
// result set so ScanType and DatabaseTypeName fall back correctly.
func (m Migrator) attachSQLColumnTypes(stmt *gorm.Statement, columnTypes []gorm.ColumnType) error {
	rows, err := m.DB.Session(&gorm.Session{}).Table(stmt.Table).Limit(1).Rows()
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	raw, err := rows.ColumnTypes()
	if err != nil {
		return err
	}
	byName := make(map[string]*sql.ColumnType, len(raw))
	for _, c := range raw {
		byName[c.Name()] = c
	}
	for i, ct := range columnTypes {
		c := ct.(migrator.ColumnType)
		if sc, ok := byName[c.Name()]; ok {
			c.SQLColumnType = sc
			columnTypes[i] = c
		}
	}
	return nil
}

// parseDefault strips the quotes and casts the catalog puts around
// literal defaults.
func parseDefault(def string) string {
	def = strings.TrimSpace(def)
	if strings.HasPrefix(def, "CAST(") && strings.HasSuffix(def, ")") {
		inner := strings.TrimSuffix(strings.TrimPrefix(def, "CAST("), ")")
		if i := strings.LastIndex(inner, " AS "); i > 0 {
			def = inner[:i]
		}
	}
	if len(def) >= 2 && def[0] == '\'' && def[len(def)-1] == '\'' {
		def = strings.ReplaceAll(def[1:len(def)-1], "''", "'")
	}
	return def
}

// GetTypeAliases implements gorm.Migrator.
func (m Migrator) GetTypeAliases(databaseTypeName string) []string {
	return typeAliases[strings.ToLower(databaseTypeName)]
}

// BuildIndexOptions renders index columns. Prefix lengths are not
// supported by the engine and are dropped.
func (m Migrator) BuildIndexOptions(opts []schema.IndexOption, stmt *gorm.Statement) (results []any) {
	for _, opt := range opts {
		str := stmt.Quote(opt.DBName)
		if opt.Expression != "" {
			str = opt.Expression
		}
		if opt.Collate != "" {
			str += " COLLATE " + opt.Collate
		}
		if opt.Sort != "" {
			str += " " + opt.Sort
		}
		results = append(results, clause.Expr{SQL: str})
	}
	return
}

// Index is one row of duckdb_indexes().
type Index struct {
	TableName   string `gorm:"column:table_name"`
	IndexName   string `gorm:"column:index_name"`
	IsUnique    bool   `gorm:"column:is_unique"`
	IsPrimary   bool   `gorm:"column:is_primary"`
	Expressions string `gorm:"column:expressions"`
}

// Columns parses the expressions list, e.g. "[a, b]".
func (i Index) Columns() []string {
	s := strings.TrimSpace(i.Expressions)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		cols = append(cols, strings.Trim(strings.TrimSpace(p), `'"`))
	}
	return cols
}

// GetIndexes returns the explicitly created indexes of value's table.
// Indexes backing PRIMARY KEY and UNIQUE constraints are not listed by
// the catalog.
func (m Migrator) GetIndexes(value any) ([]gorm.Index, error) {
	indexes := make([]gorm.Index, 0)
	err := m.RunWithValue(value, func(stmt *gorm.Statement) error {
		where, args := m.tableOf(stmt).Scope("table_name")
		var result []Index
		if err := m.queryRaw(indexSQL+where+" ORDER BY index_name", args...).Scan(&result).Error; err != nil {
			return err
		}
		for _, idx := range result {
			indexes = append(indexes, &migrator.Index{
				TableName:       idx.TableName,
				NameValue:       idx.IndexName,
				ColumnList:      idx.Columns(),
				PrimaryKeyValue: sql.NullBool{Bool: idx.IsPrimary, Valid: true},
				UniqueValue:     sql.NullBool{Bool: idx.IsUnique, Valid: true},
			})
		}
		return nil
	})
	return indexes, err
}

// HasIndex reports whether the named index exists on value's table.
func (m Migrator) HasIndex(value any, name string) bool {
	var count int64
	_ = m.RunWithValue(value, func(stmt *gorm.Statement) error {
		if stmt.Schema != nil {
			if idx := stmt.Schema.LookIndex(name); idx != nil {
				name = idx.Name
			}
		}
		where, args := m.tableOf(stmt).Scope("table_name")
		return m.queryRaw(
			"SELECT count(*) FROM duckdb_indexes() WHERE "+where+" AND index_name = ?",
			append(args, name)...,
		).Scan(&count).Error
	})
	return count > 0
}

// DropIndex drops the named index.
func (m Migrator) DropIndex(value any, name string) error {
	return m.RunWithValue(value, func(stmt *gorm.Statement) error {
		if stmt.Schema != nil {
			if idx := stmt.Schema.LookIndex(name); idx != nil {
				name = idx.Name
			}
		}
		return m.DB.Exec("DROP INDEX IF EXISTS ?", clause.Column{Name: name}).Error
	})
}

// RenameIndex is not supported by the engine.
func (m Migrator) RenameIndex(value any, oldName, newName string) error {
	return gorm.ErrNotImplemented
}

// HasConstraint reports whether a constraint exists. The engine generates
// its own constraint names, so GORM's unique, check and foreign key
// constraints are also matched by their columns or expression.
func (m Migrator) HasConstraint(value any, name string) bool {
	var count int64
	_ = m.RunWithValue(value, func(stmt *gorm.Statement) error {
		constraint, table := m.GuessConstraintInterfaceAndTable(stmt, name)
		if constraint != nil {
			name = constraint.GetName()
		}
		where, args := ParseTableRef(table).Scope("table_name")
		sql := "SELECT count(*) FROM duckdb_constraints() WHERE " + where + " AND (constraint_name = ?"
		args = append(args, name)

		switch c := constraint.(type) {
		case *schema.UniqueConstraint:
			sql += " OR (constraint_type = 'UNIQUE' AND list_contains(constraint_column_names, ?))"
			args = append(args, c.Field.DBName)
		case *schema.CheckConstraint:
			sql += " OR (constraint_type = 'CHECK' AND contains(constraint_text, ?))"
			args = append(args, c.Constraint)
		case *schema.Constraint:
			if len(c.ForeignKeys) > 0 {
				sql += " OR (constraint_type = 'FOREIGN KEY' AND list_contains(constraint_column_names, ?))"
				args = append(args, c.ForeignKeys[0].DBName)
			}
		}
		return m.queryRaw(sql+")", args...).Scan(&count).Error
	})
	return count > 0
}

// ConstraintInfo describes a reflected constraint.
type ConstraintInfo struct {
	Name    string
	Columns []string
}

// ForeignKeys reflects foreign keys. The engine's foreign keys are not
// reported; an existing table yields an empty list.
func (m Migrator) ForeignKeys(table, schemaName string) ([]ConstraintInfo, error) {
	return m.emptyReflection(table, schemaName)
}

// UniqueConstraints reflects unique constraints. An existing table yields
// an empty list; use ColumnTypes for per column uniqueness.
func (m Migrator) UniqueConstraints(table, schemaName string) ([]ConstraintInfo, error) {
	return m.emptyReflection(table, schemaName)
}

// CheckConstraints reflects check constraints. An existing table yields
// an empty list.
func (m Migrator) CheckConstraints(table, schemaName string) ([]ConstraintInfo, error) {
	return m.emptyReflection(table, schemaName)
}

func (m Migrator) emptyReflection(table, schemaName string) ([]ConstraintInfo, error) {
	where, args := filter(table, schemaName)
	var count int64
	if err := m.queryRaw("SELECT count(*) FROM duckdb_tables() WHERE "+notSystemSchema+where, args...).
		Scan(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchTable, table)
	}
	return []ConstraintInfo{}, nil
}

// TableType returns whether value's table is a base table or a view, and
// its comment.
func (m Migrator) TableType(value any) (gorm.TableType, error) {
	var tt migrator.TableType
	err := m.RunWithValue(value, func(stmt *gorm.Statement) error {
		ref := m.tableOf(stmt)
		tWhere, tArgs := ref.Scope("table_name")
		vWhere, vArgs := ref.Scope("view_name")

		rows, err := m.queryRaw(
			"SELECT schema_name, table_name, 'BASE TABLE' AS table_type, comment FROM duckdb_tables() WHERE "+tWhere+
				" UNION ALL SELECT schema_name, view_name, 'VIEW', comment FROM duckdb_views() WHERE NOT internal AND "+vWhere,
			append(tArgs, vArgs...)...,
		).Rows()
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return err
			}
			return fmt.Errorf("%w: %s", ErrNoSuchTable, stmt.Table)
		}
		return rows.Scan(&tt.SchemaValue, &tt.NameValue, &tt.TypeValue, &tt.CommentValue)
	})
	if err != nil {
		return nil, err
	}
	return tt, nil
}

// autoIncrementFields returns the fields backed by a sequence.
func autoIncrementFields(stmt *gorm.Statement) []*schema.Field {
	if stmt.Schema == nil {
		return nil
	}
	var fields []*schema.Field
	for _, name := range stmt.Schema.DBNames {
		f := stmt.Schema.FieldsByDBName[name]
		if f.AutoIncrement && !f.IgnoreMigration {
			fields = append(fields, f)
		}
	}
	return fields
}

func (m Migrator) createSequence(tx *gorm.DB, stmt *gorm.Statement, field *schema.Field) error {
	return tx.Exec("CREATE SEQUENCE IF NOT EXISTS ?",
		clause.Table{Name: SequenceName(tableOf(field), field.DBName)}).Error
}

func (m Migrator) commentOn(tx *gorm.DB, stmt *gorm.Statement, field *schema.Field) error {
	if field.Comment == "" || !m.dialect.caps.Comments {
		return nil
	}
	return tx.Exec("COMMENT ON COLUMN ?.? IS ?",
		m.CurrentTable(stmt), clause.Column{Name: field.DBName},
		gorm.Expr(m.Dialector.Explain("?", field.Comment))).Error
}

// CreateTable creates the sequences of auto-increment columns, then the
// tables, then column comments when the engine supports them.
func (m Migrator) CreateTable(values ...any) error {
	for _, value := range m.ReorderModels(values, false) {
		tx := m.DB.Session(&gorm.Session{})
		if err := m.RunWithValue(value, func(stmt *gorm.Statement) error {
			for _, f := range autoIncrementFields(stmt) {
				if err := m.createSequence(tx, stmt, f); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}

	if err := m.Migrator.CreateTable(values...); err != nil {
		return err
	}

	for _, value := range m.ReorderModels(values, false) {
		tx := m.DB.Session(&gorm.Session{})
		if err := m.RunWithValue(value, func(stmt *gorm.Statement) error {
			if stmt.Schema == nil {
				return nil
			}
			for _, name := range stmt.Schema.DBNames {
				if err := m.commentOn(tx, stmt, stmt.Schema.FieldsByDBName[name]); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// DropTable drops the tables and then their sequences.
func (m Migrator) DropTable(values ...any) error {
	values = m.ReorderModels(values, false)
	tx := m.DB.Session(&gorm.Session{})
	for i := len(values) - 1; i >= 0; i-- {
		if err := m.RunWithValue(values[i], func(stmt *gorm.Statement) error {
			if err := tx.Exec("DROP TABLE IF EXISTS ?", m.CurrentTable(stmt)).Error; err != nil {
				return err
			}
			for _, f := range autoIncrementFields(stmt) {
				if err := tx.Exec("DROP SEQUENCE IF EXISTS ?",
					clause.Table{Name: SequenceName(tableOf(f), f.DBName)}).Error; err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// AddColumn adds a column, creating its sequence first when it
// auto-increments.
func (m Migrator) AddColumn(value any, name string) error {
	err := m.RunWithValue(value, func(stmt *gorm.Statement) error {
		if stmt.Schema == nil {
			return nil
		}
		if f := stmt.Schema.LookUpField(name); f != nil && f.AutoIncrement {
			return m.createSequence(m.DB.Session(&gorm.Session{}), stmt, f)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := m.Migrator.AddColumn(value, name); err != nil {
		return err
	}
	return m.RunWithValue(value, func(stmt *gorm.Statement) error {
		if stmt.Schema == nil {
			return nil
		}
		if f := stmt.Schema.LookUpField(name); f != nil {
			return m.commentOn(m.DB.Session(&gorm.Session{}), stmt, f)
		}
		return nil
	})
}

// AlterColumn changes a column's type, nullability and default in
// separate statements; the engine's ALTER COLUMN TYPE takes a bare type.
func (m Migrator) AlterColumn(value any, field string) error {
	return m.RunWithValue(value, func(stmt *gorm.Statement) error {
		if stmt.Schema == nil {
			return errors.New("failed to get schema")
		}
		f := stmt.Schema.LookUpField(field)
		if f == nil {
			return fmt.Errorf("failed to look up field with name: %s", field)
		}

		tx := m.DB.Session(&gorm.Session{})
		table, column := m.CurrentTable(stmt), clause.Column{Name: f.DBName}
		dataType, _, _ := strings.Cut(m.DataTypeOf(f), " DEFAULT ")

		if err := tx.Exec("ALTER TABLE ? ALTER COLUMN ? TYPE ?", table, column, clause.Expr{SQL: dataType}).Error; err != nil {
			return err
		}
		if !f.PrimaryKey {
			nullSQL := "ALTER TABLE ? ALTER COLUMN ? DROP NOT NULL"
			if f.NotNull {
				nullSQL = "ALTER TABLE ? ALTER COLUMN ? SET NOT NULL"
			}
			if err := tx.Exec(nullSQL, table, column).Error; err != nil {
				return err
			}
		}
		if f.HasDefaultValue && (f.DefaultValueInterface != nil || f.DefaultValue != "") && !f.AutoIncrement {
			def := f.DefaultValue
			if f.DefaultValueInterface != nil {
				def = m.Dialector.Explain("?", f.DefaultValueInterface)
			}
			if err := tx.Exec("ALTER TABLE ? ALTER COLUMN ? SET DEFAULT ?", table, column, clause.Expr{SQL: def}).Error; err != nil {
				return err
			}
		}
		return m.commentOn(tx, stmt, f)
	})
}
