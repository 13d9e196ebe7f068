package sql

import (
	"errors"
	"slices"
	"strings"
)

// Trashed is the soft-delete visibility mode of a query.
type Trashed uint8

const (
	// TrashedExcept excludes soft-deleted rows. It is the default.
	TrashedExcept Trashed = iota
	// TrashedWith includes soft-deleted rows.
	TrashedWith
	// TrashedOnly selects only soft-deleted rows.
	TrashedOnly
)

// String returns the mode name.
func (t Trashed) String() string {
	switch t {
	case TrashedWith:
		return "with"
	case TrashedOnly:
		return "only"
	default:
		return "except"
	}
}

// SoftDelete names the columns marking a row as deleted. Empty names fall
// back to the grammar configuration (deleted, deleted_at by default). When
// NoDate is set no timestamp column is written.
type SoftDelete struct {
	Column     string
	DateColumn string
	NoDate     bool
}

// Direction is the sort direction of an order term.
type Direction uint8

const (
	Asc Direction = iota
	Desc
)

// Order is a single ORDER BY term.
type Order struct {
	Column    Column
	Direction Direction
}

// Join kinds.
const (
	InnerJoin = "INNER"
	LeftJoin  = "LEFT"
	RightJoin = "RIGHT"
	CrossJoin = "CROSS"
)

// Join is a joined table with its own filter tree.
type Join struct {
	Kind  string
	Table DbName
	On    *Where
}

// QueryInfo holds the state of one query: the table, projection, filter
// tree, joins, grouping, ordering, pagination and soft-delete visibility.
// Grammars only read it.
//
//	q := sql.NewQueryInfo("users").
//		Select("id", "name").
//		Where("status", "=", "active").
//		OrderBy("name").
//		Limit(10)
type QueryInfo struct {
	table      DbName
	columns    []Column
	where      *Where
	joins      []*Join
	groupBy    []Column
	having     *Where
	orders     []Order
	limit      int
	offset     int
	distinct   bool
	softDelete *SoftDelete
	trashed    Trashed
	targets    []string
	errs       []error
}

// NewQueryInfo returns a query over the given table. An invalid table
// name is reported when a statement is built.
func NewQueryInfo(table string) *QueryInfo {
	q := &QueryInfo{where: NewWhere(), having: NewWhere()}
	name, err := NewDbName(table, "")
	if err != nil {
		q.errs = append(q.errs, err)
		name = UnsafeDbName(table, "")
	}
	q.table = name
	return q
}

// NewQueryInfoFrom returns a query over an already-built table name.
func NewQueryInfoFrom(table DbName) *QueryInfo {
	return &QueryInfo{table: table, where: NewWhere(), having: NewWhere()}
}

// Table returns the main table.
func (q *QueryInfo) Table() DbName { return q.table }

// As sets the alias of the main table.
func (q *QueryInfo) As(alias string) *QueryInfo {
	if err := validateAlias(alias); err != nil && !q.table.unsafe {
		q.errs = append(q.errs, err)
	}
	q.table.alias = alias
	return q
}

// Select sets the projected columns by name.
func (q *QueryInfo) Select(columns ...string) *QueryInfo {
	q.columns = Cols(columns...)
	return q
}

// SelectColumns sets the projected columns.
func (q *QueryInfo) SelectColumns(columns ...Column) *QueryInfo {
	q.columns = slices.Clone(columns)
	return q
}

// AddColumns appends columns to the projection.
func (q *QueryInfo) AddColumns(columns ...Column) *QueryInfo {
	q.columns = append(q.columns, columns...)
	return q
}

// Columns returns the projected columns.
func (q *QueryInfo) Columns() []Column { return slices.Clone(q.columns) }

// Distinct marks the projection as DISTINCT.
func (q *QueryInfo) Distinct() *QueryInfo {
	q.distinct = true
	return q
}

// Filter returns the WHERE tree of the query.
func (q *QueryInfo) Filter() *Where { return q.where }

// Where adds "column op value" to the WHERE tree.
func (q *QueryInfo) Where(column, op string, value any) *QueryInfo {
	q.where.Where(column, op, value)
	return q
}

// OrWhere adds "column op value" joined with OR.
func (q *QueryInfo) OrWhere(column, op string, value any) *QueryInfo {
	q.where.OrWhere(column, op, value)
	return q
}

// WhereGroup adds a parenthesized group to the WHERE tree.
func (q *QueryInfo) WhereGroup(fn func(*Where)) *QueryInfo {
	q.where.Group(fn)
	return q
}

// Join adds a join of the given kind. The table may carry an alias
// separated by a space ("orders o").
func (q *QueryInfo) Join(kind, table string, on func(*Where)) *QueryInfo {
	name, alias, _ := strings.Cut(strings.TrimSpace(table), " ")
	t, err := NewDbName(name, strings.TrimSpace(alias))
	if err != nil {
		q.errs = append(q.errs, err)
		t = UnsafeDbName(name, strings.TrimSpace(alias))
	}
	j := &Join{Kind: strings.ToUpper(kind), Table: t, On: NewWhere()}
	if on != nil {
		on(j.On)
	}
	q.joins = append(q.joins, j)
	return q
}

// InnerJoin adds "INNER JOIN table ON left op right".
func (q *QueryInfo) InnerJoin(table, left, op, right string) *QueryInfo {
	return q.Join(InnerJoin, table, func(w *Where) { w.WhereColumn(left, op, right) })
}

// LeftJoin adds "LEFT JOIN table ON left op right".
func (q *QueryInfo) LeftJoin(table, left, op, right string) *QueryInfo {
	return q.Join(LeftJoin, table, func(w *Where) { w.WhereColumn(left, op, right) })
}

// Joins returns the joins of the query.
func (q *QueryInfo) Joins() []*Join { return slices.Clone(q.joins) }

// GroupBy sets the GROUP BY columns.
func (q *QueryInfo) GroupBy(columns ...string) *QueryInfo {
	q.groupBy = Cols(columns...)
	return q
}

// Having adds terms to the HAVING tree.
func (q *QueryInfo) Having(fn func(*Where)) *QueryInfo {
	fn(q.having)
	return q
}

// OrderBy appends ascending order terms.
func (q *QueryInfo) OrderBy(columns ...string) *QueryInfo {
	for _, c := range columns {
		q.orders = append(q.orders, Order{Column: Col(c)})
	}
	return q
}

// OrderByDesc appends descending order terms.
func (q *QueryInfo) OrderByDesc(columns ...string) *QueryInfo {
	for _, c := range columns {
		q.orders = append(q.orders, Order{Column: Col(c), Direction: Desc})
	}
	return q
}

// OrderByColumn appends an order term over any column or expression.
func (q *QueryInfo) OrderByColumn(c Column, dir Direction) *QueryInfo {
	q.orders = append(q.orders, Order{Column: c, Direction: dir})
	return q
}

// ClearOrder removes all order terms.
func (q *QueryInfo) ClearOrder() *QueryInfo {
	q.orders = nil
	return q
}

// Limit sets the maximum number of rows. Zero means no limit.
func (q *QueryInfo) Limit(n int) *QueryInfo {
	q.limit = max(n, 0)
	return q
}

// Offset sets the number of rows to skip. Zero means no offset.
func (q *QueryInfo) Offset(n int) *QueryInfo {
	q.offset = max(n, 0)
	return q
}

// WithSoftDelete enables soft-delete handling for the table.
func (q *QueryInfo) WithSoftDelete(sd SoftDelete) *QueryInfo {
	q.softDelete = &sd
	return q
}

// SetTrashed sets the soft-delete visibility mode.
func (q *QueryInfo) SetTrashed(t Trashed) *QueryInfo {
	q.trashed = t
	return q
}

// WithTrashed includes soft-deleted rows.
func (q *QueryInfo) WithTrashed() *QueryInfo { return q.SetTrashed(TrashedWith) }

// OnlyTrashed selects only soft-deleted rows.
func (q *QueryInfo) OnlyTrashed() *QueryInfo { return q.SetTrashed(TrashedOnly) }

// Trashed returns the soft-delete visibility mode.
func (q *QueryInfo) Trashed() Trashed { return q.trashed }

// DeleteFrom sets the tables (by alias or name) removed by a joined DELETE.
// By default only the main table is deleted from.
func (q *QueryInfo) DeleteFrom(targets ...string) *QueryInfo {
	q.targets = slices.Clone(targets)
	return q
}

// Err returns the errors recorded while the query was built.
func (q *QueryInfo) Err() error {
	return errors.Join(q.errs...)
}

// Clone returns a deep copy of the query state. Sub-queries referenced
// from filter trees are shared.
func (q *QueryInfo) Clone() *QueryInfo {
	c := *q
	c.columns = slices.Clone(q.columns)
	c.where = q.where.clone()
	c.having = q.having.clone()
	c.groupBy = slices.Clone(q.groupBy)
	c.orders = slices.Clone(q.orders)
	c.targets = slices.Clone(q.targets)
	c.errs = slices.Clone(q.errs)
	c.joins = make([]*Join, len(q.joins))
	for i, j := range q.joins {
		jc := *j
		jc.On = j.On.clone()
		c.joins[i] = &jc
	}
	if q.softDelete != nil {
		sd := *q.softDelete
		c.softDelete = &sd
	}
	return &c
}

// hasPagination reports whether a limit or offset is set.
func (q *QueryInfo) hasPagination() bool { return q.limit > 0 || q.offset > 0 }
