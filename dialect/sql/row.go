package sql

import (
	"slices"

	"golang.org/x/text/cases"

	"github.com/gustavorviana/sharporm"
)

// Cell is a column name paired with the value written to it. A value may
// be nil, a scalar, a Column or an Expression (a computed cell).
type Cell struct {
	Name  string
	Value any
}

// NewCell returns a new Cell.
func NewCell(name string, value any) Cell {
	return Cell{Name: name, Value: value}
}

// Computed reports whether the cell value is rendered as SQL instead of
// being bound as a parameter.
func (c Cell) Computed() bool {
	switch c.Value.(type) {
	case Column, Expression:
		return true
	}
	return false
}

// Row is an ordered set of cells, used as the column list of INSERT and the
// SET list of UPDATE statements.
type Row struct {
	cells []Cell
}

// NewRow returns a row holding the given cells.
func NewRow(cells ...Cell) Row {
	return Row{cells: slices.Clone(cells)}
}

// Len returns the number of cells.
func (r Row) Len() int { return len(r.cells) }

// Cells returns a copy of the row cells.
func (r Row) Cells() []Cell { return slices.Clone(r.cells) }

// Names returns the cell names in order.
func (r Row) Names() []string {
	names := make([]string, len(r.cells))
	for i, c := range r.cells {
		names[i] = c.Name
	}
	return names
}

// Values returns the cell values in order.
func (r Row) Values() []any {
	values := make([]any, len(r.cells))
	for i, c := range r.cells {
		values[i] = c.Value
	}
	return values
}

// Get returns the cell with the given name, compared case-insensitively.
func (r Row) Get(name string) (Cell, bool) {
	fold := cases.Fold()
	key := fold.String(name)
	for _, c := range r.cells {
		if fold.String(c.Name) == key {
			return c, true
		}
	}
	return Cell{}, false
}

// Validate checks that the row is non-empty and its names are unique.
func (r Row) Validate() error {
	if len(r.cells) == 0 {
		return sharporm.NewQueryStateError("row", "row has no cells")
	}
	if dup, ok := duplicateName(r.Names()); ok {
		return sharporm.NewQueryStateError("row", "duplicate column %q", dup)
	}
	return nil
}

// sameShape reports whether r has the same column names, in order, as o.
func (r Row) sameShape(o Row) bool {
	if len(r.cells) != len(o.cells) {
		return false
	}
	fold := cases.Fold()
	for i := range r.cells {
		if fold.String(r.cells[i].Name) != fold.String(o.cells[i].Name) {
			return false
		}
	}
	return true
}

// duplicateName returns the first name appearing twice, ignoring case.
func duplicateName(names []string) (string, bool) {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		k := fold.String(n)
		if _, ok := seen[k]; ok {
			return n, true
		}
		seen[k] = struct{}{}
	}
	return "", false
}

// containsFold reports whether names contains name, ignoring case.
func containsFold(names []string, name string) bool {
	fold := cases.Fold()
	key := fold.String(name)
	for _, n := range names {
		if fold.String(n) == key {
			return true
		}
	}
	return false
}
