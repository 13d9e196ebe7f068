package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustavorviana/sharporm"
)

func TestBuilder_AddParameter(t *testing.T) {
	b := NewBuilder(nil)
	assert.Equal(t, "?", b.AddParameter("x", false))
	assert.Equal(t, "NULL", b.AddParameter(nil, false))
	assert.Equal(t, "1", b.AddParameter(true, false))
	assert.Equal(t, "42", b.AddParameter(int64(42), false))
	assert.Equal(t, "name AS n", b.AddParameter(Col("name").As("n"), true))
	assert.Equal(t, "LOWER(?)", b.AddParameter(Expr("LOWER(?)", "Y"), false))
	require.NoError(t, b.Err())
	assert.Equal(t, "?NULL142name AS nLOWER(?)", b.String())
	assert.Equal(t, []any{"x", "Y"}, b.Expression().Args())
	assert.Equal(t, 2, b.NumArgs())
}

func TestBuilder_Errors(t *testing.T) {
	b := NewBuilder(nil)
	b.Ident("bad name")
	b.AddExpression(Expr("a = ? AND b = ?", 1))
	b.AddColumn(Col("a").As("x.y"), true)
	err := b.Err()
	require.Error(t, err)
	assert.True(t, sharporm.IsIdentifierError(err))
	assert.Contains(t, err.Error(), "2 placeholders and 1 args")

	b.Clear()
	assert.NoError(t, b.Err())
	assert.Zero(t, b.Len())
	assert.Zero(t, b.NumArgs())
}

func TestBuilder_SavePoint(t *testing.T) {
	b := NewBuilder(nil)
	b.Add("a = ")
	b.AddParameter("x", false)
	assert.False(t, b.HasSavePoint())

	b.CreateSavePoint()
	assert.True(t, b.HasSavePoint())
	b.Add(", b = ")
	b.AddParameter("y", false)
	assert.Equal(t, "a = ?, b = ?", b.String())
	assert.True(t, b.BuildSavePoint())
	assert.False(t, b.HasSavePoint())
	assert.Equal(t, "a = ?", b.String())
	assert.Equal(t, 1, b.NumArgs())
	assert.False(t, b.BuildSavePoint())

	b.CreateSavePoint()
	b.Add(", c = ")
	b.AddParameter("z", false)
	b.ResetSavePoint()
	assert.False(t, b.BuildSavePoint())
	e := b.Expression()
	assert.Equal(t, "a = ?, c = ?", e.Text())
	assert.Equal(t, []any{"x", "z"}, e.Args())
}

func TestBuilder_Cursor(t *testing.T) {
	b := NewBuilder(nil)
	start := b.Mark()
	b.Add("FROM t WHERE c = ")
	b.AddParameter("z", false)

	b.SetCursor(start)
	b.Add("SELECT ")
	b.AddParameter("w", false)
	b.Add(" ")
	assert.Equal(t, "SELECT ? FROM t WHERE c = ?", b.String())
	assert.Equal(t, 2, b.NumArgs())
	b.RestoreCursor()
	b.Add(" LIMIT 1")

	require.NoError(t, b.Err())
	e := b.Expression()
	assert.Equal(t, "SELECT ? FROM t WHERE c = ? LIMIT 1", e.Text())
	assert.Equal(t, []any{"w", "z"}, e.Args())
}

func TestBuilder_CursorMiddle(t *testing.T) {
	b := NewBuilder(nil)
	b.Add("a = ")
	b.AddParameter(1.5, false)
	mid := b.Mark()
	b.Add(" AND c = ")
	b.AddParameter("c", false)

	b.SetCursor(mid)
	b.Add(" AND b = ")
	b.AddParameter("b", false)
	// Expression restores a pending cursor.
	e := b.Expression()
	assert.Equal(t, "a = ? AND b = ? AND c = ?", e.Text())
	assert.Equal(t, []any{1.5, "b", "c"}, e.Args())
}

func TestBuilder_CursorAndSavePoint(t *testing.T) {
	b := NewBuilder(nil)
	b.Add("head")
	b.CreateSavePoint()
	b.Add(" tail")

	b.SetCursor(Cursor{})
	require.Error(t, b.Err(), "cursor before the savepoint")

	b = NewBuilder(nil)
	b.Add("x")
	b.SetCursor(b.Mark())
	b.CreateSavePoint()
	require.Error(t, b.Err(), "savepoint while a cursor is set")

	b = NewBuilder(nil)
	b.SetCursor(Cursor{text: 10})
	require.ErrorContains(t, b.Err(), "cursor out of range")

	b = NewBuilder(nil)
	b.Add("head")
	b.CreateSavePoint()
	mark := b.Mark()
	b.Add(" tail").AddParameter("t", false)
	b.SetCursor(mark)
	b.Add(" mid").AddParameter("m", false)
	b.RestoreCursor()
	b.ResetSavePoint()
	require.NoError(t, b.Err())
	assert.Equal(t, "head mid? tail?", b.String())
	assert.Equal(t, []any{"m", "t"}, b.Expression().Args())

	b = NewBuilder(nil)
	b.Add("head").AddParameter("h", false)
	b.CreateSavePoint()
	mark = b.Mark()
	b.Add(" tail").AddParameter("t", false)
	b.SetCursor(mark)
	b.Add(" mid").AddParameter("m", false)
	require.True(t, b.BuildSavePoint(), "a cursor after the savepoint is rolled back with it")
	b.RestoreCursor()
	b.Add(" end")
	require.NoError(t, b.Err())
	e := b.Expression()
	assert.Equal(t, "head? end", e.Text())
	assert.Equal(t, []any{"h"}, e.Args())
}

func TestBuilder_Wrap(t *testing.T) {
	b := NewBuilder(func(s string) (string, error) { return "[" + s + "]", nil })
	b.Add("IN ").Wrap(func(b *Builder) {
		b.AddParameter(1, false)
		b.Comma()
		b.AddParameter(2, false)
	})
	b.Add(" ").Ident("x")
	assert.Equal(t, "IN (1, 2) [x]", b.String())
}
