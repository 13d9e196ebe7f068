package sql

import (
	"slices"

	"github.com/gustavorviana/sharporm"
)

// UpsertSpec describes an insert-or-update of a row set or of the rows of
// a source table into the query table.
type UpsertSpec struct {
	// Rows is the inline source. All rows share the columns of the first one.
	Rows []Row
	// Source is a source table, used when Rows is empty. Its alias names
	// the source in the statement ("Source" when unset).
	Source DbName
	// Columns lists the source columns when Source is used.
	Columns []string
	// Match lists the columns identifying an existing row. Required.
	Match []string
	// Update lists the columns updated on a match. Defaults to every
	// column not in Match.
	Update []string
	// Insert lists the columns inserted when nothing matches. Defaults to
	// every column.
	Insert []string
}

// upsertPlan is a validated UpsertSpec with its defaults resolved.
type upsertPlan struct {
	rows    []Row
	source  DbName
	alias   string
	columns []string
	match   []string
	update  []string
	insert  []string
}

// sourceAlias is the default name of the upsert source.
const sourceAlias = "Source"

// Upsert builds the statements inserting the source rows and updating the
// rows that already exist. Inline rows are split by the batch limits.
func (g *Grammar) Upsert(q *QueryInfo, spec UpsertSpec) ([]Expression, error) {
	if err := g.begin(q).Err(); err != nil {
		return nil, err
	}
	p, err := newUpsertPlan(spec)
	if err != nil {
		return nil, err
	}
	stmts, err := g.d.upsert(g, q, p)
	if err != nil {
		return nil, err
	}
	return g.finishAll("upsert", stmts), nil
}

func newUpsertPlan(spec UpsertSpec) (upsertPlan, error) {
	const op = "upsert"
	p := upsertPlan{rows: spec.Rows, source: spec.Source, match: spec.Match}
	switch {
	case len(spec.Match) == 0:
		return p, sharporm.NewQueryStateError(op, "no columns to match rows")
	case len(spec.Rows) > 0:
		if err := checkRows(op, spec.Rows); err != nil {
			return p, err
		}
		p.columns = spec.Rows[0].Names()
	case !spec.Source.IsZero():
		if len(spec.Columns) == 0 {
			return p, sharporm.NewQueryStateError(op, "no source columns")
		}
		p.columns = slices.Clone(spec.Columns)
	default:
		return p, sharporm.NewQueryStateError(op, "no rows and no source table")
	}
	p.alias = sourceAlias
	if spec.Source.alias != "" {
		p.alias = spec.Source.alias
	}
	for _, m := range spec.Match {
		if !containsFold(p.columns, m) {
			return p, sharporm.NewQueryStateError(op, "match column %q is not a source column", m)
		}
	}
	p.update = spec.Update
	if len(p.update) == 0 {
		for _, c := range p.columns {
			if !containsFold(spec.Match, c) {
				p.update = append(p.update, c)
			}
		}
	}
	p.insert = spec.Insert
	if len(p.insert) == 0 {
		p.insert = p.columns
	}
	for _, c := range append(slices.Clone(p.update), p.insert...) {
		if !containsFold(p.columns, c) {
			return p, sharporm.NewQueryStateError(op, "column %q is not a source column", c)
		}
	}
	return p, nil
}

// writeSourceRef writes "alias.column" for the upsert source.
func (g *Grammar) writeSourceRef(b *Builder, alias, column string) {
	b.Ident(alias).Add(".").Ident(column)
}

// writeRowSubset writes the values of row for columns, in order.
func (g *Grammar) writeRowSubset(b *Builder, row Row, columns []string) {
	b.Wrap(func(b *Builder) {
		for i, name := range columns {
			if i > 0 {
				b.Comma()
			}
			c, _ := row.Get(name)
			g.writeValue(b, c.Value)
		}
	})
}
