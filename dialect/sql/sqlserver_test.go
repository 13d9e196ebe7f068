package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustavorviana/sharporm"
	"github.com/gustavorviana/sharporm/dialect"
)

func TestSQLServer_Select(t *testing.T) {
	g := openGrammar(t, dialect.SQLServer)
	tests := []struct {
		name string
		q    *QueryInfo
		want string
		args []any
	}{
		{
			name: "top",
			q:    NewQueryInfo("users").Select("id", "name").Where("status", "=", "active").OrderBy("name").Limit(10),
			want: "SELECT TOP(10) [id], [name] FROM [users] WHERE [status] = @p1 ORDER BY [name] ASC",
			args: []any{"active"},
		},
		{
			name: "distinct top",
			q:    NewQueryInfo("users").Select("name").Distinct().Limit(5),
			want: "SELECT DISTINCT TOP(5) [name] FROM [users]",
		},
		{
			name: "offset fetch",
			q:    NewQueryInfo("T").OrderBy("Id").Limit(10).Offset(20),
			want: "SELECT * FROM [T] ORDER BY [Id] ASC OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY",
		},
		{
			name: "offset only",
			q:    NewQueryInfo("T").OrderByDesc("Id").Offset(3),
			want: "SELECT * FROM [T] ORDER BY [Id] DESC OFFSET 3 ROWS",
		},
		{
			name: "schema",
			q:    NewQueryInfo("dbo.users").As("u").InnerJoin("dbo.orders o", "o.user_id", "=", "u.id").Select("u.*"),
			want: "SELECT [u].* FROM [dbo].[users] [u] INNER JOIN [dbo].[orders] [o] ON [o].[user_id] = [u].[id]",
		},
		{
			name: "groups",
			q: func() *QueryInfo {
				q := NewQueryInfo("users").Where("a", "=", 1)
				q.Filter().OrGroup(func(w *Where) {
					w.Where("b", "LIKE", "x%").WhereNotNull("c")
				})
				return q
			}(),
			want: "SELECT * FROM [users] WHERE [a] = 1 OR ([b] LIKE @p1 AND [c] IS NOT NULL)",
			args: []any{"x%"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := g.Select(tt.q)
			assertStmt(t, e, err, tt.want, tt.args...)
		})
	}

	_, err := g.Select(NewQueryInfo("T").Offset(1))
	require.Error(t, err)
	assert.True(t, sharporm.IsQueryStateError(err))
}

func TestSQLServer_LegacyPagination(t *testing.T) {
	g := openGrammar(t, dialect.SQLServer, WithLegacyPagination())

	e, err := g.Select(NewQueryInfo("dbo.T").Where("a", "=", "x").OrderBy("Id").Limit(10).Offset(20))
	assertStmt(t, e, err, "SELECT * FROM (SELECT ROW_NUMBER() OVER(ORDER BY [Id] ASC) AS [grammar_rownum], * FROM [dbo].[T] WHERE [a] = @p1) [T] WHERE [grammar_rownum] BETWEEN 21 AND 30", "x")

	e, err = g.Select(NewQueryInfo("T").As("t").Select("t.id").OrderByDesc("t.id").Offset(1))
	assertStmt(t, e, err, "SELECT * FROM (SELECT ROW_NUMBER() OVER(ORDER BY [t].[id] DESC) AS [grammar_rownum], [t].[id] FROM [T] [t]) [t] WHERE [grammar_rownum] > 1")

	e, err = g.Select(NewQueryInfo("T").OrderBy("Id").Limit(3))
	assertStmt(t, e, err, "SELECT TOP(3) * FROM [T] ORDER BY [Id] ASC")

	_, err = g.Select(NewQueryInfo("T").Distinct().OrderBy("Id").Offset(1))
	assert.True(t, sharporm.IsUnsupported(err))
}

func TestSQLServer_Insert(t *testing.T) {
	g := openGrammar(t, dialect.SQLServer)
	e, err := g.Insert(NewQueryInfo("users"), NewRow(NewCell("name", "a"), NewCell("active", false)), true)
	assertStmt(t, e, err, "INSERT INTO [users] ([name], [active]) VALUES (@p1, 0); SELECT SCOPE_IDENTITY();", "a")
}

func TestSQLServer_Update(t *testing.T) {
	g := openGrammar(t, dialect.SQLServer)

	e, err := g.Update(NewQueryInfo("users").Where("id", ">", 3).Limit(5), NewRow(NewCell("name", "b")))
	assertStmt(t, e, err, "UPDATE TOP(5) [users] SET [name] = @p1 WHERE [id] > 3", "b")

	q := NewQueryInfo("users").As("u").InnerJoin("orders o", "o.user_id", "=", "u.id").Where("o.total", ">", 100)
	e, err = g.Update(q, NewRow(NewCell("u.vip", true)))
	assertStmt(t, e, err, "UPDATE [u] SET [u].[vip] = 1 FROM [users] [u] INNER JOIN [orders] [o] ON [o].[user_id] = [u].[id] WHERE [o].[total] > 100")

	_, err = g.Update(NewQueryInfo("users").OrderBy("id"), NewRow(NewCell("a", 1)))
	assert.True(t, sharporm.IsUnsupported(err))
	_, err = g.Update(NewQueryInfo("users").OrderBy("id").Offset(2), NewRow(NewCell("a", 1)))
	assert.True(t, sharporm.IsUnsupported(err))
}

func TestSQLServer_Delete(t *testing.T) {
	g := openGrammar(t, dialect.SQLServer)

	e, err := g.Delete(NewQueryInfo("users").Where("id", "<", 100).Limit(10))
	assertStmt(t, e, err, "DELETE TOP(10) FROM [users] WHERE [id] < 100")

	q := NewQueryInfo("users").As("u").InnerJoin("orders o", "o.user_id", "=", "u.id").Where("o.total", "=", 0)
	e, err = g.Delete(q)
	assertStmt(t, e, err, "DELETE [u] FROM [users] [u] INNER JOIN [orders] [o] ON [o].[user_id] = [u].[id] WHERE [o].[total] = 0")

	e, err = g.Delete(q.Clone().DeleteFrom("o"))
	assertStmt(t, e, err, "DELETE [o] FROM [users] [u] INNER JOIN [orders] [o] ON [o].[user_id] = [u].[id] WHERE [o].[total] = 0")

	_, err = g.Delete(q.Clone().DeleteFrom("u", "o"))
	assert.True(t, sharporm.IsUnsupported(err))
	_, err = g.Delete(NewQueryInfo("users").OrderBy("id"))
	assert.True(t, sharporm.IsUnsupported(err))
}

func TestSQLServer_SoftDelete(t *testing.T) {
	g := openGrammar(t, dialect.SQLServer)
	q := NewQueryInfo("users").WithSoftDelete(SoftDelete{}).Where("id", "=", 1)

	e, err := g.SoftDelete(q)
	assertStmt(t, e, err, "UPDATE [users] SET [deleted] = 1, [deleted_at] = @p1 WHERE [id] = 1 AND [deleted] = 0", testNow)
	e, err = g.RestoreSoftDeleted(q)
	assertStmt(t, e, err, "UPDATE [users] SET [deleted] = 0, [deleted_at] = NULL WHERE [id] = 1 AND [deleted] = 1")
	e, err = g.Count(q)
	assertStmt(t, e, err, "SELECT COUNT(*) FROM [users] WHERE [id] = 1 AND [deleted] = 0")
}

func TestSQLServer_Merge(t *testing.T) {
	g := openGrammar(t, dialect.SQLServer)
	rows := []Row{
		NewRow(NewCell("id", 1), NewCell("name", "a")),
		NewRow(NewCell("id", 2), NewCell("name", "b")),
	}

	stmts, err := g.Upsert(NewQueryInfo("users"), UpsertSpec{Rows: rows, Match: []string{"id"}})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assertStmt(t, stmts[0], nil, "MERGE INTO [users] [Target] USING (VALUES (1, @p1), (2, @p2)) AS [Source] ([id], [name]) ON [Source].[id] = [Target].[id] WHEN MATCHED THEN UPDATE SET [name] = [Source].[name] WHEN NOT MATCHED THEN INSERT ([id], [name]) VALUES ([Source].[id], [Source].[name]);", "a", "b")

	// Only match columns: nothing to update on a match.
	stmts, err = g.Upsert(NewQueryInfo("users").As("u"), UpsertSpec{Rows: rows[:1], Match: []string{"id", "name"}})
	require.NoError(t, err)
	assertStmt(t, stmts[0], nil, "MERGE INTO [users] [u] USING (VALUES (1, @p1)) AS [Source] ([id], [name]) ON [Source].[id] = [u].[id] AND [Source].[name] = [u].[name] WHEN NOT MATCHED THEN INSERT ([id], [name]) VALUES ([Source].[id], [Source].[name]);", "a")

	src := UnsafeDbName("staging", "s")
	stmts, err = g.Upsert(NewQueryInfo("users"), UpsertSpec{Source: src, Columns: []string{"id", "name"}, Match: []string{"id"}, Insert: []string{"id"}})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assertStmt(t, stmts[0], nil, "MERGE INTO [users] [Target] USING [staging] [s] ON [s].[id] = [Target].[id] WHEN MATCHED THEN UPDATE SET [name] = [s].[name] WHEN NOT MATCHED THEN INSERT ([id]) VALUES ([s].[id]);")

	g = openGrammar(t, dialect.SQLServer, WithBatchLimits(0, 1))
	stmts, err = g.Upsert(NewQueryInfo("users"), UpsertSpec{Rows: rows, Match: []string{"id"}})
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, []any{"b"}, stmts[1].Args())
	assert.Contains(t, stmts[1].Text(), "USING (VALUES (2, @p1)) AS [Source]")
}
