package schema

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gustavorviana/sharporm"
	"github.com/gustavorviana/sharporm/dialect"
	"github.com/gustavorviana/sharporm/dialect/sql"
)

// TableGrammar writes the table DDL of a dialect. Identifiers are quoted
// and validated with the rules of the wrapped sql.Grammar.
type TableGrammar struct {
	g *sql.Grammar
}

// NewTableGrammar returns the DDL grammar of g's dialect.
func NewTableGrammar(g *sql.Grammar) *TableGrammar {
	return &TableGrammar{g: g}
}

// OpenTableGrammar returns the DDL grammar of the named dialect.
func OpenTableGrammar(name string, opts ...sql.Option) (*TableGrammar, error) {
	g, err := sql.OpenGrammar(name, opts...)
	if err != nil {
		return nil, err
	}
	return NewTableGrammar(g), nil
}

// Dialect returns the dialect name.
func (t *TableGrammar) Dialect() string { return t.g.Dialect() }

func (t *TableGrammar) finish(b *sql.Builder) (sql.Expression, error) {
	if err := b.Err(); err != nil {
		b.Clear()
		return sql.Expression{}, err
	}
	return sql.Render(b.Expression(), t.g.Config().Placeholder), nil
}

// Exists builds a query returning the number of tables named name (0 or
// 1). A schema-qualified name ("dbo.users") restricts the schema.
func (t *TableGrammar) Exists(name string) (sql.Expression, error) {
	b := sql.NewBuilder(t.g.Quote)
	schemaName, table, qualified := strings.Cut(name, ".")
	if !qualified {
		schemaName, table = "", name
	}
	if _, err := t.g.Quote(name); err != nil {
		return sql.Expression{}, err
	}
	switch t.Dialect() {
	case dialect.MySQL:
		b.Add("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ")
		if qualified {
			b.AddParameter(schemaName, false)
		} else {
			b.Add("DATABASE()")
		}
		b.Add(" AND table_name = ")
		b.AddParameter(table, false)
	case dialect.SQLServer:
		b.Add("SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = ")
		b.AddParameter(table, false)
		if qualified {
			b.Add(" AND TABLE_SCHEMA = ")
			b.AddParameter(schemaName, false)
		}
	case dialect.Firebird:
		if qualified {
			return sql.Expression{}, sharporm.NewUnsupportedError(dialect.Firebird, "exists", "schema-qualified table names")
		}
		b.Add("SELECT COUNT(*) FROM RDB$RELATIONS WHERE RDB$RELATION_NAME = ")
		b.AddParameter(table, false)
	}
	return t.finish(b)
}

// Create builds the CREATE TABLE statement of tbl. Indexes are created
// with CreateIndexes.
func (t *TableGrammar) Create(tbl *Table) (sql.Expression, error) {
	if tbl == nil {
		return sql.Expression{}, sharporm.NewQueryStateError("create table", "nil table")
	}
	if err := ValidateTable(tbl); err != nil {
		return sql.Expression{}, sharporm.NewQueryStateError("create table", "%v", err)
	}
	b := sql.NewBuilder(t.g.Quote)
	b.Add("CREATE ")
	if tbl.Temporary {
		switch t.Dialect() {
		case dialect.MySQL:
			b.Add("TEMPORARY ")
		case dialect.Firebird:
			b.Add("GLOBAL TEMPORARY ")
		}
	}
	b.Add("TABLE ")
	t.writeTableName(b, tbl)
	b.Add(" (")
	for i, c := range tbl.Columns {
		if i > 0 {
			b.Comma()
		}
		t.writeColumn(b, c)
	}
	if len(tbl.PrimaryKey) > 0 {
		b.Add(", PRIMARY KEY (")
		t.writeIdents(b, tbl.PrimaryKey)
		b.Add(")")
	}
	for _, fk := range tbl.ForeignKeys {
		b.Comma()
		if fk.Name != "" {
			b.Add("CONSTRAINT ").Ident(fk.Name).Add(" ")
		}
		b.Add("FOREIGN KEY (")
		t.writeIdents(b, fk.Columns)
		b.Add(") REFERENCES ").Ident(fk.RefTable).Add(" (")
		t.writeIdents(b, fk.RefColumns)
		b.Add(")")
		if fk.OnDelete != "" {
			action, err := referentialAction(fk.OnDelete)
			b.AddError(err)
			b.Add(" ON DELETE ").Add(action)
		}
	}
	b.Add(")")
	if tbl.Temporary && t.Dialect() == dialect.Firebird {
		b.Add(" ON COMMIT PRESERVE ROWS")
	}
	return t.finish(b)
}

// writeTableName writes the table name; SQL Server temporary tables are
// prefixed with "#".
func (t *TableGrammar) writeTableName(b *sql.Builder, tbl *Table) {
	if !tbl.Temporary || t.Dialect() != dialect.SQLServer {
		b.Ident(tbl.Name)
		return
	}
	if strings.Contains(tbl.Name, ".") {
		b.AddError(sharporm.NewIdentifierError(tbl.Name, "temporary tables cannot be schema-qualified"))
		return
	}
	q, err := t.g.Quote(tbl.Name)
	if err != nil {
		b.AddError(err)
		return
	}
	b.Add("[#").Add(q[1:])
}

func (t *TableGrammar) writeIdents(b *sql.Builder, names []string) {
	for i, n := range names {
		if i > 0 {
			b.Comma()
		}
		b.Ident(n)
	}
}

func (t *TableGrammar) writeColumn(b *sql.Builder, c *Column) {
	b.Ident(c.Name).Add(" ").Add(t.columnType(c))
	if c.AutoIncrement {
		switch t.Dialect() {
		case dialect.MySQL:
			b.Add(" NOT NULL AUTO_INCREMENT")
		case dialect.SQLServer:
			b.Add(" IDENTITY(1,1) NOT NULL")
		case dialect.Firebird:
			b.Add(" GENERATED BY DEFAULT AS IDENTITY NOT NULL")
		}
		return
	}
	if c.Default != nil {
		lit, err := t.literal(c.Default)
		if err != nil {
			b.AddError(fmt.Errorf("schema: column %s: %w", c.Name, err))
		}
		b.Add(" DEFAULT ").Add(lit)
	}
	switch {
	case c.Nullable && t.Dialect() != dialect.Firebird:
		b.Add(" NULL")
	case !c.Nullable:
		b.Add(" NOT NULL")
	}
	if c.Unique {
		b.Add(" UNIQUE")
	}
}

// columnType returns the dialect type of c.
func (t *TableGrammar) columnType(c *Column) string {
	size := c.Size
	switch t.Dialect() {
	case dialect.MySQL:
		switch c.Type {
		case TypeInt:
			return "INT"
		case TypeBigInt:
			return "BIGINT"
		case TypeString:
			return "VARCHAR(" + strconv.Itoa(orDefault(size, 255)) + ")"
		case TypeText:
			return "LONGTEXT"
		case TypeBool:
			return "TINYINT(1)"
		case TypeTime:
			return "DATETIME(6)"
		case TypeFloat:
			return "DOUBLE"
		case TypeDecimal:
			return decimal(c)
		case TypeBytes:
			return "LONGBLOB"
		case TypeUUID:
			return "CHAR(36)"
		}
	case dialect.SQLServer:
		switch c.Type {
		case TypeInt:
			return "INT"
		case TypeBigInt:
			return "BIGINT"
		case TypeString:
			return "NVARCHAR(" + strconv.Itoa(orDefault(size, 255)) + ")"
		case TypeText:
			return "NVARCHAR(MAX)"
		case TypeBool:
			return "BIT"
		case TypeTime:
			return "DATETIME2"
		case TypeFloat:
			return "FLOAT"
		case TypeDecimal:
			return decimal(c)
		case TypeBytes:
			return "VARBINARY(MAX)"
		case TypeUUID:
			return "UNIQUEIDENTIFIER"
		}
	case dialect.Firebird:
		switch c.Type {
		case TypeInt:
			return "INTEGER"
		case TypeBigInt:
			return "BIGINT"
		case TypeString:
			return "VARCHAR(" + strconv.Itoa(orDefault(size, 255)) + ")"
		case TypeText:
			return "BLOB SUB_TYPE TEXT"
		case TypeBool:
			return "BOOLEAN"
		case TypeTime:
			return "TIMESTAMP"
		case TypeFloat:
			return "DOUBLE PRECISION"
		case TypeDecimal:
			return decimal(c)
		case TypeBytes:
			return "BLOB"
		case TypeUUID:
			return "CHAR(36)"
		}
	}
	return "UNKNOWN"
}

func decimal(c *Column) string {
	return fmt.Sprintf("DECIMAL(%d,%d)", orDefault(c.Size, 18), c.Scale)
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// literal writes a DEFAULT value. DDL takes no parameters, so values are
// written inline.
func (t *TableGrammar) literal(v any) (string, error) {
	switch v := v.(type) {
	case bool:
		switch {
		case t.Dialect() == dialect.Firebird && v:
			return "TRUE", nil
		case t.Dialect() == dialect.Firebird:
			return "FALSE", nil
		case v:
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case string:
		s := strings.ReplaceAll(v, "'", "''")
		if t.Dialect() == dialect.MySQL {
			s = strings.ReplaceAll(s, `\`, `\\`)
		}
		if t.Dialect() == dialect.SQLServer {
			return "N'" + s + "'", nil
		}
		return "'" + s + "'", nil
	case sql.Expression:
		if v.NumArgs() > 0 {
			return "", fmt.Errorf("default expression %q takes parameters", v.Text())
		}
		return v.Text(), nil
	}
	return "", fmt.Errorf("unsupported default value type %T", v)
}

// referentialAction validates a foreign key action.
func referentialAction(action string) (string, error) {
	a := strings.ToUpper(strings.TrimSpace(action))
	switch a {
	case "CASCADE", "SET NULL", "SET DEFAULT", "NO ACTION", "RESTRICT":
		return a, nil
	}
	return "", fmt.Errorf("schema: unknown referential action %q", action)
}

// CreateIndexes builds a CREATE INDEX statement per index of tbl.
func (t *TableGrammar) CreateIndexes(tbl *Table) ([]sql.Expression, error) {
	stmts := make([]sql.Expression, 0, len(tbl.Indexes))
	for _, idx := range tbl.Indexes {
		b := sql.NewBuilder(t.g.Quote)
		b.Add("CREATE ")
		if idx.Unique {
			b.Add("UNIQUE ")
		}
		b.Add("INDEX ").Ident(idx.Name).Add(" ON ")
		t.writeTableName(b, tbl)
		b.Add(" (")
		t.writeIdents(b, idx.Columns)
		b.Add(")")
		e, err := t.finish(b)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, e)
	}
	return stmts, nil
}

// Drop builds the DROP TABLE statement of the named table. MySQL and
// SQL Server skip missing tables.
func (t *TableGrammar) Drop(name string) (sql.Expression, error) {
	b := sql.NewBuilder(t.g.Quote)
	b.Add("DROP TABLE ")
	if t.Dialect() != dialect.Firebird {
		b.Add("IF EXISTS ")
	}
	b.Ident(name)
	return t.finish(b)
}

// Exists reports whether the named table exists.
func Exists(ctx context.Context, ex dialect.ExecQuerier, t *TableGrammar, name string) (bool, error) {
	e, err := t.Exists(name)
	if err != nil {
		return false, err
	}
	rows, err := sql.QueryExpr(ctx, ex, e)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return false, err
		}
		return false, fmt.Errorf("schema: table %s: no rows returned", name)
	}
	var n int
	if err := rows.Scan(&n); err != nil {
		return false, fmt.Errorf("schema: table %s: scanning count: %w", name, err)
	}
	return n > 0, rows.Err()
}

// Create creates the table and its indexes, in a transaction when ex is
// a driver.
func Create(ctx context.Context, ex dialect.ExecQuerier, t *TableGrammar, tbl *Table) error {
	create, err := t.Create(tbl)
	if err != nil {
		return err
	}
	indexes, err := t.CreateIndexes(tbl)
	if err != nil {
		return err
	}
	stmts := append([]sql.Expression{create}, indexes...)
	if drv, ok := ex.(dialect.Driver); ok {
		_, err = sql.ExecBatchTx(ctx, drv, stmts)
	} else {
		_, err = sql.ExecBatch(ctx, ex, stmts)
	}
	return err
}
