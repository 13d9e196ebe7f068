package sql

import (
	"github.com/gustavorviana/sharporm"
)

// writeTable writes a table name followed by its alias.
func (g *Grammar) writeTable(b *Builder, t DbName) {
	g.writeName(b, t.name, t.unsafe)
	if t.alias != "" {
		b.Add(" ")
		g.writeName(b, t.alias, t.unsafe)
	}
}

// writeName writes an identifier, skipping validation for unsafe names.
func (g *Grammar) writeName(b *Builder, name string, unsafe bool) {
	s, err := g.quote(name, !unsafe && !g.cfg.SkipIdentifierValidation)
	if err != nil {
		b.AddError(err)
		return
	}
	b.Add(s)
}

// writeColumns writes the projection, "*" when empty.
func (g *Grammar) writeColumns(b *Builder, cols []Column) {
	if len(cols) == 0 {
		b.Add("*")
		return
	}
	for i, c := range cols {
		if i > 0 {
			b.Comma()
		}
		b.AddColumn(c, true)
	}
}

// writeSelectCore writes SELECT up to GROUP BY/HAVING. lead is written
// before DISTINCT and top after it.
func (g *Grammar) writeSelectCore(b *Builder, q *QueryInfo, ctx buildContext, lead, top func(*Builder)) {
	b.Add("SELECT ")
	if lead != nil {
		lead(b)
	}
	if q.distinct {
		b.Add("DISTINCT ")
	}
	if top != nil {
		top(b)
	}
	g.writeColumns(b, q.columns)
	g.writeFrom(b, q, ctx)
}

// writeFrom writes FROM, joins, WHERE and GROUP BY/HAVING.
func (g *Grammar) writeFrom(b *Builder, q *QueryInfo, ctx buildContext) {
	b.Add(" FROM ")
	g.writeTable(b, q.table)
	g.writeJoins(b, q)
	g.writeWhere(b, q, ctx)
	g.writeGroupBy(b, q)
}

func (g *Grammar) writeJoins(b *Builder, q *QueryInfo) {
	for _, j := range q.joins {
		b.Add(" ").Add(j.Kind).Add(" JOIN ")
		g.writeTable(b, j.Table)
		if j.Kind != CrossJoin && !j.On.Empty() {
			b.Add(" ON ")
			g.writeFilter(b, j.On)
		}
	}
}

// writeWhere writes the WHERE clause: the query filter combined with the
// soft-delete visibility filter of ctx.
func (g *Grammar) writeWhere(b *Builder, q *QueryInfo, ctx buildContext) {
	trashed, hasTrashed := g.trashedTerm(q, ctx)
	filter := q.where
	if filter.Empty() && !hasTrashed {
		return
	}
	b.Add(" WHERE ")
	if !filter.Empty() {
		if hasTrashed && filter.hasOr() {
			b.Wrap(func(b *Builder) { g.writeFilter(b, filter) })
		} else {
			g.writeFilter(b, filter)
		}
	}
	if hasTrashed {
		if !filter.Empty() {
			b.Add(" AND ")
		}
		g.writeTerm(b, trashed)
	}
}

// trashedTerm returns the soft-delete filter for the visibility of ctx.
func (g *Grammar) trashedTerm(q *QueryInfo, ctx buildContext) (term, bool) {
	sd, ok := g.softDeleteColumns(q)
	if !ok || ctx.trashed == TrashedWith {
		return term{}, false
	}
	col := sd.Column
	if len(q.joins) > 0 {
		col = q.table.Reference() + "." + col
	}
	return term{kind: termCompare, column: Col(col), op: "=", value: ctx.trashed == TrashedOnly}, true
}

func (g *Grammar) writeFilter(b *Builder, w *Where) {
	first := true
	for _, t := range w.terms {
		if t.kind == termGroup && t.group.Empty() {
			continue
		}
		if !first {
			if t.or {
				b.Add(" OR ")
			} else {
				b.Add(" AND ")
			}
		}
		first = false
		g.writeTerm(b, t)
	}
}

func (g *Grammar) writeTerm(b *Builder, t term) {
	switch t.kind {
	case termCompare:
		g.writeCompare(b, t)
	case termIn:
		b.AddColumn(t.column, false)
		if t.not {
			b.Add(" NOT")
		}
		b.Add(" IN ")
		switch {
		case t.sub != nil:
			g.writeValue(b, t.sub)
		case len(t.values) == 0:
			b.AddError(sharporm.NewQueryStateError("where", "empty IN list for %q", t.column.name))
		default:
			b.Wrap(func(b *Builder) {
				for i, v := range t.values {
					if i > 0 {
						b.Comma()
					}
					g.writeValue(b, v)
				}
			})
		}
	case termNull:
		b.AddColumn(t.column, false)
		if t.not {
			b.Add(" IS NOT NULL")
		} else {
			b.Add(" IS NULL")
		}
	case termBetween:
		b.AddColumn(t.column, false)
		if t.not {
			b.Add(" NOT")
		}
		b.Add(" BETWEEN ")
		g.writeValue(b, t.low)
		b.Add(" AND ")
		g.writeValue(b, t.high)
	case termRaw:
		b.AddExpression(t.raw)
	case termGroup:
		if t.not {
			b.Add("NOT ")
		}
		b.Wrap(func(b *Builder) { g.writeFilter(b, t.group) })
	case termExists:
		if t.not {
			b.Add("NOT ")
		}
		b.Add("EXISTS ")
		g.writeValue(b, t.sub)
	}
}

func (g *Grammar) writeCompare(b *Builder, t term) {
	if _, ok := operators[t.op]; !ok {
		b.AddError(sharporm.NewQueryStateError("where", "unknown operator %q", t.op))
		return
	}
	b.AddColumn(t.column, false)
	if t.value == nil {
		switch t.op {
		case "=":
			b.Add(" IS NULL")
		case "!=", "<>":
			b.Add(" IS NOT NULL")
		default:
			b.AddError(sharporm.NewQueryStateError("where", "operator %q cannot compare with NULL", t.op))
		}
		return
	}
	b.Add(" ").Add(t.op).Add(" ")
	g.writeValue(b, t.value)
}

// writeValue writes a value, a column, an expression or a sub-query.
func (g *Grammar) writeValue(b *Builder, v any) {
	sub, ok := v.(*QueryInfo)
	if !ok {
		b.AddParameter(v, false)
		return
	}
	if sub == nil {
		b.AddError(sharporm.NewQueryStateError("where", "nil sub-query"))
		return
	}
	b.AddError(sub.Err())
	b.Wrap(func(b *Builder) {
		g.d.selectStmt(g, b, sub, g.context("select", sub))
	})
}

func (g *Grammar) writeGroupBy(b *Builder, q *QueryInfo) {
	if len(q.groupBy) == 0 {
		return
	}
	b.Add(" GROUP BY ")
	for i, c := range q.groupBy {
		if i > 0 {
			b.Comma()
		}
		b.AddColumn(c, false)
	}
	if !q.having.Empty() {
		b.Add(" HAVING ")
		g.writeFilter(b, q.having)
	}
}

// writeOrderBy writes " ORDER BY ..." when orders is not empty.
func (g *Grammar) writeOrderBy(b *Builder, orders []Order) {
	if len(orders) == 0 {
		return
	}
	b.Add(" ORDER BY ")
	g.writeOrderList(b, orders)
}

func (g *Grammar) writeOrderList(b *Builder, orders []Order) {
	for i, o := range orders {
		if i > 0 {
			b.Comma()
		}
		b.AddColumn(o.Column, false)
		if o.Direction == Desc {
			b.Add(" DESC")
		} else {
			b.Add(" ASC")
		}
	}
}

// writeInsertInto writes "INSERT INTO table (columns)".
func (g *Grammar) writeInsertInto(b *Builder, q *QueryInfo, columns []string) {
	b.Add("INSERT INTO ")
	g.writeName(b, q.table.name, q.table.unsafe)
	b.Add(" (")
	g.writeIdents(b, columns)
	b.Add(")")
}

// writeIdents writes a comma separated list of quoted names.
func (g *Grammar) writeIdents(b *Builder, names []string) {
	for i, n := range names {
		if i > 0 {
			b.Comma()
		}
		b.Ident(n)
	}
}

// writeRowValues writes "(v1, v2, ...)".
func (g *Grammar) writeRowValues(b *Builder, row Row) {
	b.Wrap(func(b *Builder) {
		for i, c := range row.cells {
			if i > 0 {
				b.Comma()
			}
			g.writeValue(b, c.Value)
		}
	})
}

// writeSet writes "a = v1, b = v2".
func (g *Grammar) writeSet(b *Builder, row Row) {
	for i, c := range row.cells {
		if i > 0 {
			b.Comma()
		}
		b.Ident(c.Name).Add(" = ")
		g.writeValue(b, c.Value)
	}
}

// deleteTargets returns the tables a DELETE removes rows from.
func deleteTargets(q *QueryInfo) []string {
	if len(q.targets) > 0 {
		return q.targets
	}
	return []string{q.table.Reference()}
}

// unsupported records that the dialect cannot build the requested shape.
func (g *Grammar) unsupported(b *Builder, op, reason string) {
	b.AddError(g.unsupportedErr(op, reason))
}

func (g *Grammar) unsupportedErr(op, reason string) error {
	return sharporm.NewUnsupportedError(g.d.name(), op, reason)
}
