// Package sql turns query descriptions into parameterized SQL for the
// MySQL, SQL Server and Firebird dialect families, and executes the
// resulting statements over database/sql.
//
// # Queries
//
// A QueryInfo describes one query: the table, the projection, a Where
// filter tree, joins, grouping, ordering, pagination and the soft-delete
// visibility. It is built with fluent methods and only read by grammars:
//
//	q := sql.NewQueryInfo("users").
//		Select("id", "name").
//		Where("status", "=", "active").
//		OrderBy("name").
//		Limit(10)
//
// # Grammars
//
// A Grammar renders a QueryInfo for one dialect. Every operation returns an
// immutable Expression (text plus ordered arguments) or an error; partial
// text never escapes:
//
//	g, err := sql.OpenGrammar(dialect.SQLServer)
//	if err != nil {
//		return err
//	}
//	stmt, err := g.Select(q)
//	// SELECT TOP(10) [id], [name] FROM [users] WHERE [status] = @p1 ORDER BY [name] ASC
//
// Nil, booleans and integers are written inline; every other value becomes
// a parameter. Parameters are rendered with the configured marker ("?" or
// "@p1", "@p2", ...) in the order they appear in the text.
//
// # Batching
//
// BulkInsert and Upsert split their rows over as many statements as the
// configured parameter and row limits require. A row is never split, and
// every row appears in exactly one statement:
//
//	stmts, err := g.BulkInsert(sql.NewQueryInfo("events"), rows...)
//	if err != nil {
//		return err
//	}
//	n, err := sql.ExecBatchTx(ctx, drv, stmts)
//
// # Soft delete
//
// Queries configured with WithSoftDelete exclude deleted rows unless
// WithTrashed or OnlyTrashed is used. SoftDelete and RestoreSoftDeleted
// build the UPDATE statements flagging and restoring rows.
package sql
