package sql

import (
	"strings"

	"github.com/gustavorviana/sharporm"
	"github.com/gustavorviana/sharporm/dialect"
)

// dialectGrammar is the strategy a dialect provides to the Grammar:
// quoting, pagination and the statements whose shape differs per dialect.
type dialectGrammar interface {
	name() string
	quotes() (open, close byte)
	insertIDSuffix() string
	boolLiteral(v bool) string
	lexer() sqlLexer
	selectStmt(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext)
	updateStmt(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext, row Row)
	deleteStmt(g *Grammar, b *Builder, q *QueryInfo, ctx buildContext)
	upsert(g *Grammar, q *QueryInfo, p upsertPlan) ([]Expression, error)
}

// buildContext carries per-call settings that override the query state
// without mutating it, such as the soft-delete visibility of SoftDelete.
type buildContext struct {
	op      string
	trashed Trashed
}

// Grammar turns a QueryInfo into dialect-specific SQL statements.
// A Grammar holds no per-call state and is safe for concurrent use; the
// caller must not mutate a QueryInfo while a statement is being built from it.
//
//	g, err := sql.OpenGrammar(dialect.MySQL)
//	if err != nil {
//		return err
//	}
//	q := sql.NewQueryInfo("users").Where("id", "=", 1)
//	stmt, err := g.Select(q) // SELECT * FROM `users` WHERE `id` = 1
type Grammar struct {
	cfg Config
	d   dialectGrammar
}

// NewGrammar returns the Grammar of the configured dialect.
func NewGrammar(cfg Config) (*Grammar, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	g := &Grammar{cfg: cfg}
	switch cfg.Dialect {
	case dialect.MySQL:
		g.d = mysqlGrammar{}
	case dialect.SQLServer:
		g.d = sqlServerGrammar{}
	case dialect.Firebird:
		g.d = firebirdGrammar{}
	}
	return g, nil
}

// OpenGrammar returns the Grammar of the named dialect configured with opts.
func OpenGrammar(name string, opts ...Option) (*Grammar, error) {
	cfg, err := NewConfig(name, opts...)
	if err != nil {
		return nil, err
	}
	return NewGrammar(cfg)
}

// Dialect returns the dialect name.
func (g *Grammar) Dialect() string { return g.d.name() }

// Config returns the grammar configuration.
func (g *Grammar) Config() Config { return g.cfg }

// Quote quotes a possibly qualified identifier. Parts that are already
// quoted, and "*", are kept as they are, so quoting is idempotent.
func (g *Grammar) Quote(name string) (string, error) {
	return g.quote(name, !g.cfg.SkipIdentifierValidation)
}

func (g *Grammar) quote(name string, validate bool) (string, error) {
	open, closing := g.d.quotes()
	parts := splitIdentifier(name, open, closing)
	if validate && len(parts) == 0 {
		return "", sharporm.NewIdentifierError(name, "empty name")
	}
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			sb.WriteByte('.')
		}
		switch {
		case p == "*" && i == len(parts)-1:
			sb.WriteString(p)
		case isQuoted(p, open, closing):
			sb.WriteString(p)
		default:
			if validate {
				if err := validateIdentifier(p, false); err != nil {
					return "", err
				}
			}
			sb.WriteByte(open)
			sb.WriteString(strings.ReplaceAll(p, string(closing), string([]byte{closing, closing})))
			sb.WriteByte(closing)
		}
	}
	return sb.String(), nil
}

// splitIdentifier splits name on dots that are not inside quotes.
func splitIdentifier(name string, open, closing byte) []string {
	if name == "" {
		return nil
	}
	var (
		parts  []string
		start  int
		quoted bool
	)
	for i := 0; i < len(name); i++ {
		switch c := name[i]; {
		case !quoted && c == open:
			quoted = true
		case quoted && c == closing:
			quoted = false
		case !quoted && c == '.':
			parts = append(parts, name[start:i])
			start = i + 1
		}
	}
	return append(parts, name[start:])
}

func isQuoted(p string, open, closing byte) bool {
	return len(p) >= 2 && p[0] == open && p[len(p)-1] == closing
}

// newBuilder returns a builder quoting with the grammar rules.
func (g *Grammar) newBuilder() *Builder {
	b := NewBuilder(g.Quote).SetBoolLiteral(g.d.boolLiteral)
	b.lex = g.d.lexer()
	return b
}

// begin returns a builder for q, carrying the errors recorded on q.
func (g *Grammar) begin(q *QueryInfo) *Builder {
	b := g.newBuilder()
	if q == nil {
		return b.AddError(sharporm.NewQueryStateError("", "nil query"))
	}
	return b.AddError(q.Err())
}

func (g *Grammar) context(op string, q *QueryInfo) buildContext {
	return buildContext{op: op, trashed: q.trashed}
}

// finish renders the builder content as a statement, or discards it and
// returns the recorded errors.
func (g *Grammar) finish(op string, b *Builder) (Expression, error) {
	if err := b.Err(); err != nil {
		b.Clear()
		return Expression{}, err
	}
	e := g.d.lexer().render(b.Expression(), g.cfg.Placeholder)
	logStatement(g.d.name(), op, e)
	return e, nil
}

// finishAll renders the statements of a batched operation.
func (g *Grammar) finishAll(op string, stmts []Expression) []Expression {
	for i, s := range stmts {
		stmts[i] = g.d.lexer().render(s, g.cfg.Placeholder)
		logStatement(g.d.name(), op, stmts[i])
	}
	return stmts
}

// Select builds the SELECT statement of q.
func (g *Grammar) Select(q *QueryInfo) (Expression, error) {
	b := g.begin(q)
	if q != nil {
		g.d.selectStmt(g, b, q, g.context("select", q))
	}
	return g.finish("select", b)
}

// Count builds a statement counting the rows selected by q. Ordering and
// pagination are ignored. DISTINCT over several (or all) columns and
// grouped queries are counted over a derived table.
func (g *Grammar) Count(q *QueryInfo) (Expression, error) {
	b := g.begin(q)
	if q == nil {
		return g.finish("count", b)
	}
	ctx := g.context("count", q)
	switch {
	case q.distinct && (len(q.columns) != 1 || q.columns[0].IsAll()), len(q.groupBy) > 0:
		start := b.Mark()
		g.writeSelectCore(b, q, ctx, nil, nil)
		b.SetCursor(start)
		b.Add("SELECT COUNT(*) FROM (")
		b.RestoreCursor()
		b.Add(") ").Ident("count")
	case q.distinct:
		b.Add("SELECT COUNT(DISTINCT ").AddColumn(q.columns[0], false).Add(")")
		g.writeFrom(b, q, ctx)
	default:
		b.Add("SELECT COUNT(*)")
		g.writeFrom(b, q, ctx)
	}
	return g.finish("count", b)
}

// Exists builds a statement selecting at most one row matching q.
func (g *Grammar) Exists(q *QueryInfo) (Expression, error) {
	if q == nil {
		return g.Select(nil)
	}
	e := *q
	e.columns = []Column{Raw("1")}
	e.distinct = false
	e.orders = nil
	e.limit, e.offset = 1, 0
	b := g.begin(&e)
	g.d.selectStmt(g, b, &e, g.context("exists", &e))
	return g.finish("exists", b)
}

// Insert builds an INSERT of a single row. When returnID is set and the
// dialect supports it, the statement also selects the generated id.
func (g *Grammar) Insert(q *QueryInfo, row Row, returnID bool) (Expression, error) {
	b := g.begin(q)
	if err := checkRow("insert", row); err != nil || q == nil {
		return g.finish("insert", b.AddError(err))
	}
	g.writeInsertInto(b, q, row.Names())
	b.Add(" VALUES ")
	g.writeRowValues(b, row)
	if returnID {
		b.Add(g.d.insertIDSuffix())
	}
	return g.finish("insert", b)
}

// InsertSelect builds "INSERT INTO table (columns) SELECT ..." from source.
func (g *Grammar) InsertSelect(q *QueryInfo, columns []string, source *QueryInfo) (Expression, error) {
	b := g.begin(q)
	switch {
	case len(columns) == 0:
		b.AddError(sharporm.NewQueryStateError("insert", "no columns to insert"))
	case source == nil:
		b.AddError(sharporm.NewQueryStateError("insert", "nil source query"))
	}
	if b.Err() != nil || q == nil {
		return g.finish("insert", b)
	}
	g.writeInsertInto(b, q, columns)
	b.Add(" ")
	b.AddError(source.Err())
	g.d.selectStmt(g, b, source, g.context("select", source))
	return g.finish("insert", b)
}

// BulkInsert builds multi-row INSERT statements, split so that none
// exceeds the configured parameter and row limits. All rows must have the
// column names of the first row, in the same order.
func (g *Grammar) BulkInsert(q *QueryInfo, rows ...Row) ([]Expression, error) {
	if err := g.begin(q).Err(); err != nil {
		return nil, err
	}
	if err := checkRows("bulk insert", rows); err != nil {
		return nil, err
	}
	if q == nil {
		return nil, sharporm.NewQueryStateError("bulk insert", "nil query")
	}
	names := rows[0].Names()
	stmts, err := foldRows(g.newBuilder, rows, g.cfg.Limits, batchStatement{
		header: func(b *Builder) {
			g.writeInsertInto(b, q, names)
			b.Add(" VALUES ")
		},
		row: g.writeRowValues,
	})
	if err != nil {
		return nil, err
	}
	return g.finishAll("bulk insert", stmts), nil
}

// Update builds an UPDATE setting the row cells on the rows matched by q.
func (g *Grammar) Update(q *QueryInfo, row Row) (Expression, error) {
	b := g.begin(q)
	if err := checkRow("update", row); err != nil || q == nil {
		return g.finish("update", b.AddError(err))
	}
	g.d.updateStmt(g, b, q, g.context("update", q), row)
	return g.finish("update", b)
}

// Delete builds a DELETE of the rows matched by q.
func (g *Grammar) Delete(q *QueryInfo) (Expression, error) {
	b := g.begin(q)
	if q != nil {
		g.d.deleteStmt(g, b, q, g.context("delete", q))
	}
	return g.finish("delete", b)
}

// SoftDelete builds an UPDATE flagging the non-deleted rows matched by q
// as deleted, stamping the date column unless disabled.
func (g *Grammar) SoftDelete(q *QueryInfo) (Expression, error) {
	return g.softDeleteUpdate(q, "soft delete", TrashedExcept, true)
}

// RestoreSoftDeleted builds an UPDATE clearing the deleted flag (and
// date) of the soft-deleted rows matched by q.
func (g *Grammar) RestoreSoftDeleted(q *QueryInfo) (Expression, error) {
	return g.softDeleteUpdate(q, "restore", TrashedOnly, false)
}

func (g *Grammar) softDeleteUpdate(q *QueryInfo, op string, visible Trashed, deleted bool) (Expression, error) {
	b := g.begin(q)
	if q == nil {
		return g.finish(op, b)
	}
	sd, ok := g.softDeleteColumns(q)
	if !ok {
		b.AddError(sharporm.NewQueryStateError(op, "table %q has no soft-delete column", q.table.name))
		return g.finish(op, b)
	}
	cells := []Cell{NewCell(sd.Column, deleted)}
	if !sd.NoDate {
		var date any
		if deleted {
			date = g.cfg.Now()
		}
		cells = append(cells, NewCell(sd.DateColumn, date))
	}
	g.d.updateStmt(g, b, q, buildContext{op: op, trashed: visible}, NewRow(cells...))
	return g.finish(op, b)
}

// softDeleteColumns resolves the soft-delete settings of q.
func (g *Grammar) softDeleteColumns(q *QueryInfo) (SoftDelete, bool) {
	if q.softDelete == nil {
		return SoftDelete{}, false
	}
	sd := *q.softDelete
	if sd.Column == "" {
		sd.Column = g.cfg.SoftDeleteColumn
	}
	if sd.DateColumn == "" {
		sd.DateColumn = g.cfg.SoftDeleteDateColumn
	}
	return sd, true
}

func checkRow(op string, row Row) error {
	if row.Len() == 0 {
		return sharporm.NewQueryStateError(op, "no cells")
	}
	if dup, ok := duplicateName(row.Names()); ok {
		return sharporm.NewQueryStateError(op, "duplicate column %q", dup)
	}
	return nil
}

func checkRows(op string, rows []Row) error {
	if len(rows) == 0 {
		return sharporm.NewQueryStateError(op, "no rows")
	}
	for i, r := range rows {
		if err := checkRow(op, r); err != nil {
			return err
		}
		if i > 0 && !r.sameShape(rows[0]) {
			return sharporm.NewQueryStateError(op, "row %d columns differ from the first row", i+1)
		}
	}
	return nil
}
