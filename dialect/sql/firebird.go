package sql

import (
	"github.com/gustavorviana/sharporm/dialect"
)

// firebirdGrammar writes Firebird statements: double-quote identifiers,
// FIRST/SKIP pagination and ROWS on UPDATE and DELETE.
type firebirdGrammar struct{}

func (firebirdGrammar) name() string               { return dialect.Firebird }
func (firebirdGrammar) quotes() (open, close byte) { return '"', '"' }

// insertIDSuffix is empty: Firebird returns generated keys through
// INSERT ... RETURNING, which needs the key column name.
func (firebirdGrammar) insertIDSuffix() string { return "" }

// Firebird 3 BOOLEAN columns reject integer literals.
func (firebirdGrammar) boolLiteral(v bool) string { return keywordBool(v) }

func (firebirdGrammar) lexer() sqlLexer { return sqlLexer{} }

func (firebirdGrammar) selectStmt(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext) {
	var lead func(*Builder)
	if q.hasPagination() {
		lead = func(b *Builder) {
			if q.limit > 0 {
				b.Add("FIRST ").AddInt(q.limit).Add(" ")
			}
			if q.offset > 0 {
				b.Add("SKIP ").AddInt(q.offset).Add(" ")
			}
		}
	}
	g.writeSelectCore(b, q, ctx, lead, nil)
	g.writeOrderBy(b, q.orders)
}

// checkSingleTable rejects the statement shapes Firebird cannot write
// for UPDATE and DELETE.
func (firebirdGrammar) checkSingleTable(g *Grammar, b *Builder, q *QueryInfo, op string) bool {
	switch {
	case len(q.joins) > 0:
		g.unsupported(b, op, "joins in "+op)
	case len(q.targets) > 1:
		g.unsupported(b, op, "several target tables")
	case q.offset > 0:
		g.unsupported(b, op, "OFFSET in "+op)
	default:
		return true
	}
	return false
}

func (f firebirdGrammar) updateStmt(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext, row Row) {
	if !f.checkSingleTable(g, b, q, ctx.op) {
		return
	}
	b.Add("UPDATE ")
	g.writeTable(b, q.table)
	b.Add(" SET ")
	g.writeSet(b, row)
	g.writeWhere(b, q, ctx)
	f.writeTail(g, b, q)
}

func (f firebirdGrammar) deleteStmt(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext) {
	if !f.checkSingleTable(g, b, q, ctx.op) {
		return
	}
	b.Add("DELETE FROM ")
	g.writeTable(b, q.table)
	g.writeWhere(b, q, ctx)
	f.writeTail(g, b, q)
}

// writeTail writes "ORDER BY ... ROWS n".
func (firebirdGrammar) writeTail(g *Grammar, b *Builder, q *QueryInfo) {
	g.writeOrderBy(b, q.orders)
	if q.limit > 0 {
		b.Add(" ROWS ").AddInt(q.limit)
	}
}

func (firebirdGrammar) upsert(g *Grammar, _ *QueryInfo, _ upsertPlan) ([]Expression, error) {
	return nil, g.unsupportedErr("upsert", "no upsert strategy")
}
