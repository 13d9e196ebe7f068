package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustavorviana/sharporm"
	"github.com/gustavorviana/sharporm/dialect"
)

func TestMySQL_Select(t *testing.T) {
	g := openGrammar(t, dialect.MySQL)
	tests := []struct {
		name string
		q    *QueryInfo
		want string
		args []any
	}{
		{
			name: "paginated",
			q:    NewQueryInfo("users").Select("id", "name").Where("status", "=", "active").OrderBy("name").Limit(10).Offset(20),
			want: "SELECT `id`, `name` FROM `users` WHERE `status` = @p1 ORDER BY `name` ASC LIMIT 10 OFFSET 20",
			args: []any{"active"},
		},
		{
			name: "offset only",
			q:    NewQueryInfo("users").Offset(5),
			want: "SELECT * FROM `users` LIMIT 18446744073709551615 OFFSET 5",
		},
		{
			name: "schema qualified",
			q:    NewQueryInfo("app.users").As("u").Select("u.*"),
			want: "SELECT `u`.* FROM `app`.`users` `u`",
		},
		{
			name: "null and in",
			q:    NewQueryInfo("users").Where("deleted_at", "=", nil).Where("id", "IN", []int{1, 2, 3}).Where("email", "!=", nil),
			want: "SELECT * FROM `users` WHERE `deleted_at` IS NULL AND `id` IN (1, 2, 3) AND `email` IS NOT NULL",
		},
		{
			name: "join",
			q: NewQueryInfo("users").As("u").Select("u.id", "o.total").
				LeftJoin("orders o", "o.user_id", "=", "u.id").
				Where("o.total", ">", 10.5).
				OrderByDesc("o.total"),
			want: "SELECT `u`.`id`, `o`.`total` FROM `users` `u` LEFT JOIN `orders` `o` ON `o`.`user_id` = `u`.`id` WHERE `o`.`total` > @p1 ORDER BY `o`.`total` DESC",
			args: []any{10.5},
		},
		{
			name: "aggregate alias",
			q: NewQueryInfo("orders").
				SelectColumns(Col("user_id"), Raw("SUM(`total`)").As("sum")).
				GroupBy("user_id").
				Having(func(w *Where) { w.WhereExpr(Raw("SUM(`total`)"), ">=", 100) }),
			want: "SELECT `user_id`, SUM(`total`) AS `sum` FROM `orders` GROUP BY `user_id` HAVING SUM(`total`) >= 100",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := g.Select(tt.q)
			assertStmt(t, e, err, tt.want, tt.args...)
		})
	}
}

func TestMySQL_Insert(t *testing.T) {
	g := openGrammar(t, dialect.MySQL)
	row := NewRow(NewCell("id", 1), NewCell("name", "a"), NewCell("created", Raw("NOW()")))
	e, err := g.Insert(NewQueryInfo("users"), row, false)
	assertStmt(t, e, err, "INSERT INTO `users` (`id`, `name`, `created`) VALUES (1, @p1, NOW())", "a")

	g = openGrammar(t, dialect.MySQL, WithPlaceholder(Question))
	e, err = g.Insert(NewQueryInfo("users"), row, true)
	assertStmt(t, e, err, "INSERT INTO `users` (`id`, `name`, `created`) VALUES (1, ?, NOW()); SELECT LAST_INSERT_ID();", "a")
}

func TestMySQL_Update(t *testing.T) {
	g := openGrammar(t, dialect.MySQL)

	e, err := g.Update(NewQueryInfo("users").Where("id", "=", 7).OrderBy("id").Limit(1), NewRow(NewCell("name", "b"), NewCell("age", nil)))
	assertStmt(t, e, err, "UPDATE `users` SET `name` = @p1, `age` = NULL WHERE `id` = 7 ORDER BY `id` ASC LIMIT 1", "b")

	q := NewQueryInfo("users").As("u").InnerJoin("orders o", "o.user_id", "=", "u.id").Where("o.total", ">", 100)
	e, err = g.Update(q, NewRow(NewCell("u.vip", true)))
	assertStmt(t, e, err, "UPDATE `users` `u` INNER JOIN `orders` `o` ON `o`.`user_id` = `u`.`id` SET `u`.`vip` = 1 WHERE `o`.`total` > 100")

	_, err = g.Update(q.Clone().Limit(3), NewRow(NewCell("u.vip", true)))
	assert.True(t, sharporm.IsUnsupported(err))

	_, err = g.Update(NewQueryInfo("users").Offset(3), NewRow(NewCell("a", 1)))
	assert.True(t, sharporm.IsUnsupported(err))
}

func TestMySQL_Delete(t *testing.T) {
	g := openGrammar(t, dialect.MySQL)

	e, err := g.Delete(NewQueryInfo("users").Where("id", "<", 10).OrderByDesc("id").Limit(2))
	assertStmt(t, e, err, "DELETE FROM `users` WHERE `id` < 10 ORDER BY `id` DESC LIMIT 2")

	q := NewQueryInfo("users").As("u").InnerJoin("orders o", "o.user_id", "=", "u.id").Where("u.banned", "=", true)
	e, err = g.Delete(q)
	assertStmt(t, e, err, "DELETE `u` FROM `users` `u` INNER JOIN `orders` `o` ON `o`.`user_id` = `u`.`id` WHERE `u`.`banned` = 1")

	e, err = g.Delete(q.Clone().DeleteFrom("u", "o"))
	assertStmt(t, e, err, "DELETE `u`, `o` FROM `users` `u` INNER JOIN `orders` `o` ON `o`.`user_id` = `u`.`id` WHERE `u`.`banned` = 1")

	_, err = g.Delete(q.Clone().Limit(1))
	assert.True(t, sharporm.IsUnsupported(err))
	_, err = g.Delete(NewQueryInfo("users").Offset(1))
	assert.True(t, sharporm.IsUnsupported(err))
}

func TestMySQL_SoftDelete(t *testing.T) {
	g := openGrammar(t, dialect.MySQL)
	q := func() *QueryInfo {
		return NewQueryInfo("users").WithSoftDelete(SoftDelete{}).Where("id", "=", 1)
	}

	e, err := g.Select(q())
	assertStmt(t, e, err, "SELECT * FROM `users` WHERE `id` = 1 AND `deleted` = 0")
	e, err = g.Select(q().WithTrashed())
	assertStmt(t, e, err, "SELECT * FROM `users` WHERE `id` = 1")
	e, err = g.Select(q().OnlyTrashed())
	assertStmt(t, e, err, "SELECT * FROM `users` WHERE `id` = 1 AND `deleted` = 1")
	e, err = g.Select(q().OrWhere("id", "=", 2))
	assertStmt(t, e, err, "SELECT * FROM `users` WHERE (`id` = 1 OR `id` = 2) AND `deleted` = 0")
	e, err = g.Select(NewQueryInfo("users").WithSoftDelete(SoftDelete{}))
	assertStmt(t, e, err, "SELECT * FROM `users` WHERE `deleted` = 0")

	e, err = g.Select(NewQueryInfo("users").As("u").WithSoftDelete(SoftDelete{}).InnerJoin("orders o", "o.user_id", "=", "u.id"))
	assertStmt(t, e, err, "SELECT * FROM `users` `u` INNER JOIN `orders` `o` ON `o`.`user_id` = `u`.`id` WHERE `u`.`deleted` = 0")

	e, err = g.Delete(q())
	assertStmt(t, e, err, "DELETE FROM `users` WHERE `id` = 1 AND `deleted` = 0")

	e, err = g.SoftDelete(q().OnlyTrashed())
	assertStmt(t, e, err, "UPDATE `users` SET `deleted` = 1, `deleted_at` = @p1 WHERE `id` = 1 AND `deleted` = 0", testNow)

	e, err = g.RestoreSoftDeleted(q())
	assertStmt(t, e, err, "UPDATE `users` SET `deleted` = 0, `deleted_at` = NULL WHERE `id` = 1 AND `deleted` = 1")

	e, err = g.SoftDelete(NewQueryInfo("users").WithSoftDelete(SoftDelete{Column: "removed", NoDate: true}))
	assertStmt(t, e, err, "UPDATE `users` SET `removed` = 1 WHERE `removed` = 0")

	g = openGrammar(t, dialect.MySQL, WithSoftDeleteColumns("is_del", "del_on"))
	e, err = g.SoftDelete(q())
	assertStmt(t, e, err, "UPDATE `users` SET `is_del` = 1, `del_on` = @p1 WHERE `id` = 1 AND `is_del` = 0", testNow)
}

func TestMySQL_RawEscapes(t *testing.T) {
	g := openGrammar(t, dialect.MySQL)
	q := NewQueryInfo("users")
	q.Filter().
		WhereRaw("CONCAT(`name`, 'it\\'s') = ?", "x").
		WhereRaw("`note` <> ? -- who's there?\n", "y")
	e, err := g.Select(q)
	assertStmt(t, e, err, "SELECT * FROM `users` WHERE CONCAT(`name`, 'it\\'s') = @p1 AND `note` <> @p2 -- who's there?\n", "x", "y")

	// SQL Server has no backslash escapes: 'C:\' is a complete string.
	q = NewQueryInfo("files")
	q.Filter().WhereRaw(`[path] = 'C:\' OR [name] = ?`, "a")
	e, err = openGrammar(t, dialect.SQLServer).Select(q)
	assertStmt(t, e, err, `SELECT * FROM [files] WHERE [path] = 'C:\' OR [name] = @p1`, "a")
}

func TestMySQL_SubQueries(t *testing.T) {
	g := openGrammar(t, dialect.MySQL)
	active := NewQueryInfo("orders").Select("user_id").Where("status", "=", "paid")
	q := NewQueryInfo("users").Where("id", "IN", active).Where("kind", "=", "x")
	e, err := g.Select(q)
	assertStmt(t, e, err, "SELECT * FROM `users` WHERE `id` IN (SELECT `user_id` FROM `orders` WHERE `status` = @p1) AND `kind` = @p2", "paid", "x")

	sub := NewQueryInfo("orders").As("o").Select("o.id").Where("o.user_id", "=", Col("u.id")).Limit(1)
	q = NewQueryInfo("users").As("u")
	q.Filter().WhereNotExists(sub)
	e, err = g.Select(q)
	assertStmt(t, e, err, "SELECT * FROM `users` `u` WHERE NOT EXISTS (SELECT `o`.`id` FROM `orders` `o` WHERE `o`.`user_id` = `u`.`id` LIMIT 1)")

	q = NewQueryInfo("users")
	q.Filter().WhereInQuery("id", NewQueryInfo("bad name"))
	_, err = g.Select(q)
	assert.True(t, sharporm.IsIdentifierError(err))
}

func TestMySQL_Upsert(t *testing.T) {
	g := openGrammar(t, dialect.MySQL)
	rows := []Row{
		NewRow(NewCell("id", 1), NewCell("name", "a")),
		NewRow(NewCell("id", 2), NewCell("name", "b")),
	}
	stmts, err := g.Upsert(NewQueryInfo("users"), UpsertSpec{Rows: rows, Match: []string{"id"}})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assertStmt(t, stmts[0], nil, "INSERT INTO `users` (`id`, `name`) VALUES (1, @p1), (2, @p2) AS `Source` ON DUPLICATE KEY UPDATE `name`=`Source`.`name`", "a", "b")

	stmts, err = g.Upsert(NewQueryInfo("users"), UpsertSpec{Rows: rows[:1], Match: []string{"id", "name"}})
	require.NoError(t, err)
	assertStmt(t, stmts[0], nil, "INSERT INTO `users` (`id`, `name`) VALUES (1, @p1) AS `Source` ON DUPLICATE KEY UPDATE `id`=`Source`.`id`", "a")

	src := UnsafeDbName("staging", "")
	stmts, err = g.Upsert(NewQueryInfo("users"), UpsertSpec{Source: src, Columns: []string{"id", "name"}, Match: []string{"id"}})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assertStmt(t, stmts[0], nil, "INSERT INTO `users` (`id`, `name`) SELECT `Source`.`id`, `Source`.`name` FROM `staging` `Source` ON DUPLICATE KEY UPDATE `name`=`Source`.`name`")

	g = openGrammar(t, dialect.MySQL, WithBatchLimits(0, 1))
	stmts, err = g.Upsert(NewQueryInfo("users"), UpsertSpec{Rows: rows, Match: []string{"id"}})
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assertStmt(t, stmts[1], nil, "INSERT INTO `users` (`id`, `name`) VALUES (2, @p1) AS `Source` ON DUPLICATE KEY UPDATE `name`=`Source`.`name`", "b")

	_, err = g.Upsert(NewQueryInfo("users"), UpsertSpec{Rows: rows, Match: []string{"id"}, Insert: []string{"id"}, Update: []string{"name"}})
	assert.True(t, sharporm.IsUnsupported(err))
}

func TestUpsertSpecErrors(t *testing.T) {
	g := openGrammar(t, dialect.SQLServer)
	row := NewRow(NewCell("id", 1), NewCell("name", "a"))
	tests := []struct {
		name string
		spec UpsertSpec
		msg  string
	}{
		{"no match", UpsertSpec{Rows: []Row{row}}, "no columns to match"},
		{"no source", UpsertSpec{Match: []string{"id"}}, "no rows and no source"},
		{"no source columns", UpsertSpec{Source: UnsafeDbName("s", ""), Match: []string{"id"}}, "no source columns"},
		{"unknown match", UpsertSpec{Rows: []Row{row}, Match: []string{"email"}}, `match column "email"`},
		{"unknown update", UpsertSpec{Rows: []Row{row}, Match: []string{"id"}, Update: []string{"age"}}, `column "age"`},
		{"shape", UpsertSpec{Rows: []Row{row, NewRow(NewCell("id", 2))}, Match: []string{"id"}}, "row 2 columns differ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Upsert(NewQueryInfo("users"), tt.spec)
			require.Error(t, err)
			assert.True(t, sharporm.IsQueryStateError(err))
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}
