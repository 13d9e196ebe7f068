package sql

import (
	"regexp"
	"strings"

	"github.com/gustavorviana/sharporm"
)

// identifierRe validates SQL identifiers: letters, digits and underscores,
// optionally qualified with dots (schema.table, table.column).
var identifierRe = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)

// maxIdentifierLen bounds a single identifier (SQL Server allows 128).
const maxIdentifierLen = 128

// validateIdentifier reports whether name is a valid, optionally qualified, identifier.
// When allowStar is set, the last part may be "*".
func validateIdentifier(name string, allowStar bool) error {
	switch {
	case name == "":
		return sharporm.NewIdentifierError(name, "empty name")
	case len(name) > maxIdentifierLen*3:
		return sharporm.NewIdentifierError(name, "name too long")
	case allowStar && name == "*":
		return nil
	case allowStar && strings.HasSuffix(name, ".*"):
		name = strings.TrimSuffix(name, ".*")
	}
	if !identifierRe.MatchString(name) {
		return sharporm.NewIdentifierError(name, "only letters, digits, underscores and dots are allowed")
	}
	for _, part := range strings.Split(name, ".") {
		if len(part) > maxIdentifierLen {
			return sharporm.NewIdentifierError(name, "name part too long")
		}
	}
	return nil
}

// validateAlias rejects aliases that look like qualified or quoted names.
func validateAlias(alias string) error {
	if alias == "" {
		return nil
	}
	if strings.ContainsAny(alias, ".`\"[]'") {
		return sharporm.NewIdentifierError(alias, "alias must not be qualified or quoted")
	}
	if !identifierRe.MatchString(alias) {
		return sharporm.NewIdentifierError(alias, "only letters, digits and underscores are allowed")
	}
	return nil
}

// DbName is a table (or schema-qualified table) name with an optional alias.
type DbName struct {
	name   string
	alias  string
	unsafe bool
}

// NewDbName returns a validated DbName.
func NewDbName(name, alias string) (DbName, error) {
	if err := validateIdentifier(name, false); err != nil {
		return DbName{}, err
	}
	if err := validateAlias(alias); err != nil {
		return DbName{}, err
	}
	return DbName{name: name, alias: alias}, nil
}

// UnsafeDbName returns a DbName without validating it. The grammars quote
// it as given, which allows names already quoted by the caller.
func UnsafeDbName(name, alias string) DbName {
	return DbName{name: name, alias: alias, unsafe: true}
}

// Name returns the table name.
func (n DbName) Name() string { return n.name }

// Alias returns the alias, if any.
func (n DbName) Alias() string { return n.alias }

// IsZero reports whether the name is unset.
func (n DbName) IsZero() bool { return n.name == "" }

// Reference returns the name used to qualify columns of this table:
// the alias when present, otherwise the table name.
func (n DbName) Reference() string {
	if n.alias != "" {
		return n.alias
	}
	return n.name
}

// Column is a projected or referenced column: either a plain identifier
// with an optional alias, or an already-rendered SQL expression.
type Column struct {
	name  string
	alias string
	expr  Expression
	raw   bool
}

// Col returns a column referencing name (e.g. "id", "u.name", "u.*").
func Col(name string) Column {
	return Column{name: name}
}

// Raw returns a column wrapping a raw SQL expression.
//
//	sql.Raw("COUNT(*)").As("total")
func Raw(text string, args ...any) Column {
	return Column{expr: Expr(text, args...), raw: true}
}

// ExprColumn returns a column wrapping e.
func ExprColumn(e Expression) Column {
	return Column{expr: e, raw: true}
}

// Cols returns a column for each name.
func Cols(names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Col(n)
	}
	return cols
}

// As returns a copy of the column with the given alias.
func (c Column) As(alias string) Column {
	c.alias = alias
	return c
}

// Name returns the column name, or "" for expression columns.
func (c Column) Name() string { return c.name }

// Alias returns the column alias.
func (c Column) Alias() string { return c.alias }

// Expr returns the wrapped expression and whether the column is an expression.
func (c Column) Expr() (Expression, bool) { return c.expr, c.raw }

// IsExpr reports whether the column wraps a raw expression.
func (c Column) IsExpr() bool { return c.raw }

// IsAll reports whether the column selects all columns ("*" or "table.*").
func (c Column) IsAll() bool {
	if c.raw {
		t := strings.TrimSpace(c.expr.text)
		return t == "*" || strings.HasSuffix(t, ".*")
	}
	return c.name == "*" || strings.HasSuffix(c.name, ".*")
}

// IsCount reports whether the column is a COUNT aggregate.
func (c Column) IsCount() bool {
	if !c.raw {
		return false
	}
	t := strings.ToUpper(strings.TrimSpace(c.expr.text))
	return strings.HasPrefix(t, "COUNT(") || strings.HasPrefix(t, "COUNT (")
}
