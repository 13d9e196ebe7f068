package sql

import "strings"

// termKind identifies the shape of a filter term.
type termKind uint8

const (
	termCompare termKind = iota
	termIn
	termNull
	termBetween
	termRaw
	termGroup
	termExists
)

// term is a single node of a filter tree.
type term struct {
	kind   termKind
	or     bool // joined to the previous term with OR
	not    bool
	column Column
	op     string
	value  any
	values []any
	low    any
	high   any
	raw    Expression
	group  *Where
	sub    *QueryInfo
}

// Where is a boolean filter tree. Terms are joined with AND unless added
// through one of the Or* methods; groups nest in parentheses.
//
//	w := sql.NewWhere().
//		Where("status", "=", "active").
//		OrGroup(func(w *sql.Where) {
//			w.Where("role", "=", "admin").WhereNotNull("verified_at")
//		})
type Where struct {
	terms []term
}

// NewWhere returns an empty filter tree.
func NewWhere() *Where { return &Where{} }

// Len returns the number of top-level terms.
func (w *Where) Len() int {
	if w == nil {
		return 0
	}
	return len(w.terms)
}

// Empty reports whether the tree has no terms, ignoring empty groups.
func (w *Where) Empty() bool {
	if w == nil {
		return true
	}
	for _, t := range w.terms {
		if t.kind != termGroup || !t.group.Empty() {
			return false
		}
	}
	return true
}

// hasOr reports whether any top-level term is joined with OR.
func (w *Where) hasOr() bool {
	for _, t := range w.terms[1:] {
		if t.or {
			return true
		}
	}
	return false
}

func (w *Where) add(t term) *Where {
	w.terms = append(w.terms, t)
	return w
}

// Where adds "column op value". A nil value with "=" or "!=" renders
// IS NULL / IS NOT NULL. The value may be a Column, an Expression or a
// *QueryInfo sub-query.
func (w *Where) Where(column, op string, value any) *Where {
	return w.add(compareTerm(Col(column), op, value, false))
}

// OrWhere is like Where but joins the term with OR.
func (w *Where) OrWhere(column, op string, value any) *Where {
	return w.add(compareTerm(Col(column), op, value, true))
}

// WhereColumn compares two columns.
func (w *Where) WhereColumn(left, op, right string) *Where {
	return w.add(compareTerm(Col(left), op, Col(right), false))
}

// OrWhereColumn is like WhereColumn but joins the term with OR.
func (w *Where) OrWhereColumn(left, op, right string) *Where {
	return w.add(compareTerm(Col(left), op, Col(right), true))
}

// WhereExpr compares an arbitrary column or expression.
func (w *Where) WhereExpr(column Column, op string, value any) *Where {
	return w.add(compareTerm(column, op, value, false))
}

func compareTerm(c Column, op string, value any, or bool) term {
	op = strings.ToUpper(strings.TrimSpace(op))
	if values, ok := listValues(value); ok && (op == "IN" || op == "NOT IN") {
		return term{kind: termIn, column: c, values: values, not: op == "NOT IN", or: or}
	}
	if sub, ok := value.(*QueryInfo); ok && (op == "IN" || op == "NOT IN") {
		return term{kind: termIn, column: c, sub: sub, not: op == "NOT IN", or: or}
	}
	return term{kind: termCompare, column: c, op: op, value: value, or: or}
}

// WhereIn adds "column IN (values...)".
func (w *Where) WhereIn(column string, values ...any) *Where {
	return w.add(term{kind: termIn, column: Col(column), values: values})
}

// OrWhereIn is like WhereIn but joins the term with OR.
func (w *Where) OrWhereIn(column string, values ...any) *Where {
	return w.add(term{kind: termIn, column: Col(column), values: values, or: true})
}

// WhereNotIn adds "column NOT IN (values...)".
func (w *Where) WhereNotIn(column string, values ...any) *Where {
	return w.add(term{kind: termIn, column: Col(column), values: values, not: true})
}

// WhereInQuery adds "column IN (SELECT ...)".
func (w *Where) WhereInQuery(column string, sub *QueryInfo) *Where {
	return w.add(term{kind: termIn, column: Col(column), sub: sub})
}

// WhereNull adds "column IS NULL".
func (w *Where) WhereNull(column string) *Where {
	return w.add(term{kind: termNull, column: Col(column)})
}

// WhereNotNull adds "column IS NOT NULL".
func (w *Where) WhereNotNull(column string) *Where {
	return w.add(term{kind: termNull, column: Col(column), not: true})
}

// OrWhereNull is like WhereNull but joins the term with OR.
func (w *Where) OrWhereNull(column string) *Where {
	return w.add(term{kind: termNull, column: Col(column), or: true})
}

// WhereBetween adds "column BETWEEN low AND high".
func (w *Where) WhereBetween(column string, low, high any) *Where {
	return w.add(term{kind: termBetween, column: Col(column), low: low, high: high})
}

// WhereNotBetween adds "column NOT BETWEEN low AND high".
func (w *Where) WhereNotBetween(column string, low, high any) *Where {
	return w.add(term{kind: termBetween, column: Col(column), low: low, high: high, not: true})
}

// WhereRaw adds a raw SQL condition using "?" placeholders.
func (w *Where) WhereRaw(text string, args ...any) *Where {
	return w.add(term{kind: termRaw, raw: Expr(text, args...)})
}

// OrWhereRaw is like WhereRaw but joins the term with OR.
func (w *Where) OrWhereRaw(text string, args ...any) *Where {
	return w.add(term{kind: termRaw, raw: Expr(text, args...), or: true})
}

// Group adds a parenthesized group of terms.
func (w *Where) Group(fn func(*Where)) *Where {
	return w.add(groupTerm(fn, false, false))
}

// OrGroup adds a parenthesized group joined with OR.
func (w *Where) OrGroup(fn func(*Where)) *Where {
	return w.add(groupTerm(fn, true, false))
}

// NotGroup adds a negated parenthesized group.
func (w *Where) NotGroup(fn func(*Where)) *Where {
	return w.add(groupTerm(fn, false, true))
}

func groupTerm(fn func(*Where), or, not bool) term {
	g := NewWhere()
	fn(g)
	return term{kind: termGroup, group: g, or: or, not: not}
}

// WhereExists adds "EXISTS (SELECT ...)".
func (w *Where) WhereExists(sub *QueryInfo) *Where {
	return w.add(term{kind: termExists, sub: sub})
}

// WhereNotExists adds "NOT EXISTS (SELECT ...)".
func (w *Where) WhereNotExists(sub *QueryInfo) *Where {
	return w.add(term{kind: termExists, sub: sub, not: true})
}

// clone returns a deep copy of the tree. Sub-queries are shared.
func (w *Where) clone() *Where {
	if w == nil {
		return nil
	}
	c := &Where{terms: make([]term, len(w.terms))}
	for i, t := range w.terms {
		if t.group != nil {
			t.group = t.group.clone()
		}
		c.terms[i] = t
	}
	return c
}

// operators lists the comparison operators accepted by Where.
var operators = map[string]struct{}{
	"=": {}, "!=": {}, "<>": {}, ">": {}, ">=": {}, "<": {}, "<=": {},
	"LIKE": {}, "NOT LIKE": {},
}
