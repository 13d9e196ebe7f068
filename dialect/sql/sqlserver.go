package sql

import (
	"strings"

	"github.com/gustavorviana/sharporm"
	"github.com/gustavorviana/sharporm/dialect"
)

// rowNumberColumn is the column added by the ROW_NUMBER() pagination.
const rowNumberColumn = "grammar_rownum"

// targetAlias names the MERGE target when the query table has no alias.
const targetAlias = "Target"

// sqlServerGrammar writes SQL Server statements: bracket quoting, TOP and
// OFFSET/FETCH pagination (or ROW_NUMBER() in legacy mode) and MERGE.
type sqlServerGrammar struct{}

func (sqlServerGrammar) name() string               { return dialect.SQLServer }
func (sqlServerGrammar) quotes() (open, close byte) { return '[', ']' }
func (sqlServerGrammar) insertIDSuffix() string     { return "; SELECT SCOPE_IDENTITY();" }
func (sqlServerGrammar) boolLiteral(v bool) string  { return numericBool(v) }
func (sqlServerGrammar) lexer() sqlLexer            { return sqlLexer{} }

func (s sqlServerGrammar) selectStmt(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext) {
	if q.offset == 0 {
		g.writeSelectCore(b, q, ctx, nil, s.top(q.limit))
		g.writeOrderBy(b, q.orders)
		return
	}
	if len(q.orders) == 0 {
		b.AddError(sharporm.NewQueryStateError(ctx.op, "OFFSET requires ORDER BY on %s", dialect.SQLServer))
		return
	}
	if g.cfg.LegacyPagination {
		s.rowNumberSelect(g, b, q, ctx)
		return
	}
	g.writeSelectCore(b, q, ctx, nil, nil)
	g.writeOrderBy(b, q.orders)
	b.Add(" OFFSET ").AddInt(q.offset).Add(" ROWS")
	if q.limit > 0 {
		b.Add(" FETCH NEXT ").AddInt(q.limit).Add(" ROWS ONLY")
	}
}

// top returns the writer of "TOP(n) ", or nil without a limit.
func (sqlServerGrammar) top(limit int) func(*Builder) {
	if limit <= 0 {
		return nil
	}
	return func(b *Builder) {
		b.Add("TOP(").AddInt(limit).Add(") ")
	}
}

// rowNumberSelect numbers the rows of the inner select and filters the
// wrapping select on the row number:
//
//	SELECT * FROM (SELECT ROW_NUMBER() OVER(ORDER BY ...) AS [grammar_rownum], * FROM [T]) [T]
//	WHERE [grammar_rownum] BETWEEN o+1 AND o+l
func (sqlServerGrammar) rowNumberSelect(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext) {
	if q.distinct {
		g.unsupported(b, ctx.op, "DISTINCT with ROW_NUMBER() pagination")
		return
	}
	start := b.Mark()
	g.writeSelectCore(b, q, ctx, func(b *Builder) {
		b.Add("ROW_NUMBER() OVER(ORDER BY ")
		g.writeOrderList(b, q.orders)
		b.Add(") AS ").Ident(rowNumberColumn).Add(", ")
	}, nil)
	b.SetCursor(start)
	b.Add("SELECT * FROM (")
	b.RestoreCursor()
	b.Add(") ").Ident(outerAlias(q.table)).Add(" WHERE ").Ident(rowNumberColumn)
	if q.limit > 0 {
		b.Add(" BETWEEN ").AddInt(q.offset + 1).Add(" AND ").AddInt(q.offset + q.limit)
	} else {
		b.Add(" > ").AddInt(q.offset)
	}
}

// outerAlias names a derived table after the table it wraps.
func outerAlias(t DbName) string {
	if t.alias != "" {
		return t.alias
	}
	name := t.name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.Trim(name, "[]\"`")
}

func (s sqlServerGrammar) updateStmt(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext, row Row) {
	switch {
	case q.offset > 0:
		g.unsupported(b, ctx.op, "OFFSET in UPDATE")
		return
	case len(q.orders) > 0:
		g.unsupported(b, ctx.op, "ORDER BY in UPDATE")
		return
	}
	joined := len(q.joins) > 0 || q.table.alias != ""
	b.Add("UPDATE ")
	if top := s.top(q.limit); top != nil {
		top(b)
	}
	if joined {
		g.writeName(b, q.table.Reference(), q.table.unsafe)
	} else {
		g.writeTable(b, q.table)
	}
	b.Add(" SET ")
	g.writeSet(b, row)
	if joined {
		b.Add(" FROM ")
		g.writeTable(b, q.table)
		g.writeJoins(b, q)
	}
	g.writeWhere(b, q, ctx)
}

func (s sqlServerGrammar) deleteStmt(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext) {
	targets := deleteTargets(q)
	switch {
	case len(targets) > 1:
		g.unsupported(b, ctx.op, "DELETE from several joined tables; issue one DELETE per table")
		return
	case q.offset > 0:
		g.unsupported(b, ctx.op, "OFFSET in DELETE")
		return
	case len(q.orders) > 0:
		g.unsupported(b, ctx.op, "ORDER BY in DELETE")
		return
	}
	b.Add("DELETE ")
	if top := s.top(q.limit); top != nil {
		top(b)
	}
	if len(q.joins) == 0 && q.table.alias == "" && len(q.targets) == 0 {
		b.Add("FROM ")
		g.writeTable(b, q.table)
	} else {
		g.writeName(b, targets[0], q.table.unsafe)
		b.Add(" FROM ")
		g.writeTable(b, q.table)
		g.writeJoins(b, q)
	}
	g.writeWhere(b, q, ctx)
}

// upsert writes a MERGE per batch of inline rows, or a single MERGE over
// the source table.
func (s sqlServerGrammar) upsert(g *Grammar, q *QueryInfo, p upsertPlan) ([]Expression, error) {
	target := q.table
	if target.alias == "" {
		target.alias = targetAlias
	}
	into := func(b *Builder) {
		b.Add("MERGE INTO ")
		g.writeTable(b, target)
		b.Add(" USING ")
	}
	if len(p.rows) == 0 {
		b := g.newBuilder()
		into(b)
		g.writeTable(b, DbName{name: p.source.name, alias: p.alias, unsafe: p.source.unsafe})
		s.mergeBody(g, b, target.alias, p)
		if err := b.Err(); err != nil {
			return nil, err
		}
		return []Expression{b.Expression()}, nil
	}
	return foldRows(g.newBuilder, p.rows, g.cfg.Limits, batchStatement{
		header: func(b *Builder) {
			into(b)
			b.Add("(VALUES ")
		},
		row: func(b *Builder, r Row) { g.writeRowSubset(b, r, p.columns) },
		footer: func(b *Builder) {
			b.Add(") AS ").Ident(p.alias).Add(" (")
			g.writeIdents(b, p.columns)
			b.Add(")")
			s.mergeBody(g, b, target.alias, p)
		},
	})
}

// mergeBody writes the ON condition and the WHEN clauses of a MERGE.
func (sqlServerGrammar) mergeBody(g *Grammar, b *Builder, target string, p upsertPlan) {
	b.Add(" ON ")
	for i, m := range p.match {
		if i > 0 {
			b.Add(" AND ")
		}
		g.writeSourceRef(b, p.alias, m)
		b.Add(" = ")
		g.writeSourceRef(b, target, m)
	}
	if len(p.update) > 0 {
		b.Add(" WHEN MATCHED THEN UPDATE SET ")
		for i, c := range p.update {
			if i > 0 {
				b.Comma()
			}
			b.Ident(c).Add(" = ")
			g.writeSourceRef(b, p.alias, c)
		}
	}
	b.Add(" WHEN NOT MATCHED THEN INSERT (")
	g.writeIdents(b, p.insert)
	b.Add(") VALUES (")
	for i, c := range p.insert {
		if i > 0 {
			b.Comma()
		}
		g.writeSourceRef(b, p.alias, c)
	}
	b.Add(");")
}
