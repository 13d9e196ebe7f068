package schema

import (
	"fmt"
	"strings"
)

// TableError lists the problems found in a table definition.
type TableError struct {
	Table    string
	Problems []string
}

func (e *TableError) Error() string {
	name := e.Table
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("schema: table %s: %s", name, strings.Join(e.Problems, "; "))
}

// ValidateTable checks a table definition before DDL is written for it.
// Column, index and key references are compared case-insensitively.
func ValidateTable(t *Table) error {
	v := &tableCheck{err: &TableError{Table: t.Name}, cols: make(map[string]bool, len(t.Columns))}
	if t.Name == "" {
		v.add("table has no name")
	}
	if len(t.Columns) == 0 {
		v.add("table has no columns")
	}
	identity := 0
	for _, c := range t.Columns {
		key := strings.ToLower(c.Name)
		switch {
		case c.Name == "":
			v.add("column has no name")
		case v.cols[key]:
			v.add("duplicate column name %q", c.Name)
		}
		v.cols[key] = true
		if !c.Type.Valid() {
			v.add("column %q: unknown column type %v", c.Name, c.Type)
		}
		if c.AutoIncrement {
			identity++
			if c.Type != TypeInt && c.Type != TypeBigInt {
				v.add("column %q: auto increment requires an integer column", c.Name)
			}
		}
	}
	if identity > 1 {
		v.add("more than one auto increment column")
	}
	v.refs("primary key", t.PrimaryKey)

	idx := make(map[string]bool, len(t.Indexes))
	for _, i := range t.Indexes {
		if idx[strings.ToLower(i.Name)] {
			v.add("duplicate index name %q", i.Name)
		}
		idx[strings.ToLower(i.Name)] = true
		if len(i.Columns) == 0 {
			v.add("index %q has no columns", i.Name)
		}
		v.refs(fmt.Sprintf("index %q", i.Name), i.Columns)
	}
	for _, fk := range t.ForeignKeys {
		v.refs("foreign key", fk.Columns)
		if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.RefColumns) {
			v.add("foreign key to %q has %d columns and %d referenced columns", fk.RefTable, len(fk.Columns), len(fk.RefColumns))
		}
	}
	if len(v.err.Problems) > 0 {
		return v.err
	}
	return nil
}

type tableCheck struct {
	err  *TableError
	cols map[string]bool
}

func (v *tableCheck) add(format string, args ...any) {
	v.err.Problems = append(v.err.Problems, fmt.Sprintf(format, args...))
}

// refs reports the names that are not columns of the table.
func (v *tableCheck) refs(what string, names []string) {
	for _, n := range names {
		if !v.cols[strings.ToLower(n)] {
			v.add("%s references non-existent column %q", what, n)
		}
	}
}
