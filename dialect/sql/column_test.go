package sql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustavorviana/sharporm"
)

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"users", "dbo.users", "u.id", "_x1", "A_B"}
	for _, name := range valid {
		assert.NoError(t, validateIdentifier(name, false), name)
	}
	assert.NoError(t, validateIdentifier("*", true))
	assert.NoError(t, validateIdentifier("u.*", true))

	invalid := []string{
		"",
		"*",
		"a b",
		"a;b",
		"a--",
		"a.",
		".a",
		"`a`",
		"a'b",
		strings.Repeat("x", maxIdentifierLen+1),
		strings.Repeat("x", maxIdentifierLen*3+1),
	}
	for _, name := range invalid {
		err := validateIdentifier(name, false)
		require.Error(t, err, name)
		assert.True(t, sharporm.IsIdentifierError(err), name)
	}
}

func TestValidateAlias(t *testing.T) {
	assert.NoError(t, validateAlias(""))
	assert.NoError(t, validateAlias("total"))
	for _, a := range []string{"a.b", "`a`", "[a]", "\"a\"", "a'", "a b"} {
		assert.Error(t, validateAlias(a), a)
	}
}

func TestDbName(t *testing.T) {
	n, err := NewDbName("dbo.users", "u")
	require.NoError(t, err)
	assert.Equal(t, "dbo.users", n.Name())
	assert.Equal(t, "u", n.Alias())
	assert.Equal(t, "u", n.Reference())
	assert.False(t, n.IsZero())

	n, err = NewDbName("users", "")
	require.NoError(t, err)
	assert.Equal(t, "users", n.Reference())

	_, err = NewDbName("users;", "")
	assert.True(t, sharporm.IsIdentifierError(err))
	_, err = NewDbName("users", "u.x")
	assert.True(t, sharporm.IsIdentifierError(err))

	assert.True(t, DbName{}.IsZero())
	assert.Equal(t, "[my table]", UnsafeDbName("[my table]", "").Name())
}

func TestColumn(t *testing.T) {
	c := Col("name").As("n")
	assert.Equal(t, "name", c.Name())
	assert.Equal(t, "n", c.Alias())
	assert.False(t, c.IsExpr())
	assert.False(t, c.IsAll())
	assert.False(t, c.IsCount())

	assert.True(t, Col("*").IsAll())
	assert.True(t, Col("u.*").IsAll())
	assert.True(t, Raw("u.*").IsAll())

	r := Raw("COUNT(DISTINCT ?)", "x").As("total")
	assert.True(t, r.IsExpr())
	assert.True(t, r.IsCount())
	assert.Empty(t, r.Name())
	e, ok := r.Expr()
	require.True(t, ok)
	assert.Equal(t, []any{"x"}, e.Args())
	assert.True(t, ExprColumn(Expr("count (*)")).IsCount())
	assert.False(t, Raw("SUM(a)").IsCount())

	assert.Equal(t, []Column{Col("a"), Col("b")}, Cols("a", "b"))
}

func TestRow(t *testing.T) {
	r := NewRow(NewCell("id", 1), NewCell("Name", "a"), NewCell("at", Raw("NOW()")))
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"id", "Name", "at"}, r.Names())
	assert.Equal(t, []any{1, "a", Raw("NOW()")}, r.Values())

	c, ok := r.Get("NAME")
	require.True(t, ok)
	assert.Equal(t, "a", c.Value)
	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.False(t, r.Cells()[0].Computed())
	assert.True(t, r.Cells()[2].Computed())
	assert.True(t, NewCell("x", Expr("?", 1)).Computed())

	cells := r.Cells()
	cells[0].Value = 2
	assert.Equal(t, 1, r.Cells()[0].Value, "Cells returns a copy")

	assert.NoError(t, r.Validate())
	assert.Error(t, NewRow().Validate())
	err := NewRow(NewCell("a", 1), NewCell("A", 2)).Validate()
	require.Error(t, err)
	assert.True(t, sharporm.IsQueryStateError(err))

	assert.True(t, r.sameShape(NewRow(NewCell("ID", 2), NewCell("name", "b"), NewCell("AT", nil))))
	assert.False(t, r.sameShape(NewRow(NewCell("name", "b"), NewCell("id", 2), NewCell("at", nil))))
	assert.False(t, r.sameShape(NewRow(NewCell("id", 2))))
}
