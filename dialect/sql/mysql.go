package sql

import (
	"github.com/gustavorviana/sharporm/dialect"
)

// mysqlMaxLimit is the LIMIT written when only an OFFSET is requested.
const mysqlMaxLimit = "18446744073709551615"

// mysqlGrammar writes MySQL/MariaDB statements: backtick quoting,
// LIMIT/OFFSET pagination, multi-table DELETE and ON DUPLICATE KEY UPDATE.
type mysqlGrammar struct{}

func (mysqlGrammar) name() string               { return dialect.MySQL }
func (mysqlGrammar) quotes() (open, close byte) { return '`', '`' }
func (mysqlGrammar) insertIDSuffix() string     { return "; SELECT LAST_INSERT_ID();" }
func (mysqlGrammar) boolLiteral(v bool) string  { return numericBool(v) }
func (mysqlGrammar) lexer() sqlLexer            { return sqlLexer{mysql: true} }

func (m mysqlGrammar) selectStmt(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext) {
	g.writeSelectCore(b, q, ctx, nil, nil)
	g.writeOrderBy(b, q.orders)
	m.writeLimit(b, q.limit, q.offset)
}

func (mysqlGrammar) writeLimit(b *Builder, limit, offset int) {
	switch {
	case limit > 0:
		b.Add(" LIMIT ").AddInt(limit)
		if offset > 0 {
			b.Add(" OFFSET ").AddInt(offset)
		}
	case offset > 0:
		b.Add(" LIMIT ").Add(mysqlMaxLimit).Add(" OFFSET ").AddInt(offset)
	}
}

func (m mysqlGrammar) updateStmt(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext, row Row) {
	joined := len(q.joins) > 0
	switch {
	case q.offset > 0:
		g.unsupported(b, ctx.op, "OFFSET in UPDATE")
		return
	case joined && (q.limit > 0 || len(q.orders) > 0):
		g.unsupported(b, ctx.op, "ORDER BY or LIMIT in a multi-table UPDATE")
		return
	}
	b.Add("UPDATE ")
	g.writeTable(b, q.table)
	g.writeJoins(b, q)
	b.Add(" SET ")
	g.writeSet(b, row)
	g.writeWhere(b, q, ctx)
	g.writeOrderBy(b, q.orders)
	m.writeLimit(b, q.limit, 0)
}

func (m mysqlGrammar) deleteStmt(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext) {
	multi := len(q.joins) > 0 || q.table.alias != "" || len(q.targets) > 0
	switch {
	case q.offset > 0:
		g.unsupported(b, ctx.op, "OFFSET in DELETE")
		return
	case multi && (q.limit > 0 || len(q.orders) > 0):
		g.unsupported(b, ctx.op, "ORDER BY or LIMIT in a multi-table DELETE")
		return
	}
	b.Add("DELETE ")
	if multi {
		g.writeIdents(b, deleteTargets(q))
		b.Add(" ")
	}
	b.Add("FROM ")
	g.writeTable(b, q.table)
	g.writeJoins(b, q)
	g.writeWhere(b, q, ctx)
	g.writeOrderBy(b, q.orders)
	m.writeLimit(b, q.limit, 0)
}

// upsert writes INSERT ... ON DUPLICATE KEY UPDATE. Inline rows use the
// row alias syntax (VALUES ... AS alias), a source table INSERT ... SELECT.
// Matching relies on the table's unique keys; the match columns are only
// excluded from the update list.
func (m mysqlGrammar) upsert(g *Grammar, q *QueryInfo, p upsertPlan) ([]Expression, error) {
	update := p.update
	if len(update) == 0 {
		update = p.match[:1]
	}
	footer := func(b *Builder) {
		b.Add(" ON DUPLICATE KEY UPDATE ")
		for i, c := range update {
			if i > 0 {
				b.Comma()
			}
			b.Ident(c).Add("=")
			g.writeSourceRef(b, p.alias, c)
		}
	}
	if len(p.rows) == 0 {
		b := g.newBuilder()
		g.writeInsertInto(b, q, p.insert)
		b.Add(" SELECT ")
		for i, c := range p.insert {
			if i > 0 {
				b.Comma()
			}
			g.writeSourceRef(b, p.alias, c)
		}
		b.Add(" FROM ")
		g.writeTable(b, DbName{name: p.source.name, alias: p.alias, unsafe: p.source.unsafe})
		footer(b)
		if err := b.Err(); err != nil {
			return nil, err
		}
		return []Expression{b.Expression()}, nil
	}
	for _, c := range update {
		if !containsFold(p.insert, c) {
			return nil, g.unsupportedErr("upsert", "updating column "+c+" that is not inserted")
		}
	}
	return foldRows(g.newBuilder, p.rows, g.cfg.Limits, batchStatement{
		header: func(b *Builder) {
			g.writeInsertInto(b, q, p.insert)
			b.Add(" VALUES ")
		},
		row: func(b *Builder, r Row) { g.writeRowSubset(b, r, p.insert) },
		footer: func(b *Builder) {
			b.Add(" AS ").Ident(p.alias)
			footer(b)
		},
	})
}
