// Package schema writes the table DDL of the supported dialects and
// validates table definitions.
package schema

import (
	"fmt"
	"strings"
)

// ColumnType is the portable type of a column.
type ColumnType uint8

// Column types.
const (
	TypeInt ColumnType = iota + 1
	TypeBigInt
	TypeString
	TypeText
	TypeBool
	TypeTime
	TypeFloat
	TypeDecimal
	TypeBytes
	TypeUUID
)

var typeNames = [...]string{
	TypeInt:     "int",
	TypeBigInt:  "bigint",
	TypeString:  "string",
	TypeText:    "text",
	TypeBool:    "bool",
	TypeTime:    "time",
	TypeFloat:   "float",
	TypeDecimal: "decimal",
	TypeBytes:   "bytes",
	TypeUUID:    "uuid",
}

// String returns the type name.
func (t ColumnType) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return fmt.Sprintf("ColumnType(%d)", t)
}

// Valid reports whether t is a known type.
func (t ColumnType) Valid() bool {
	return t >= TypeInt && t <= TypeUUID
}

// Column is a column definition.
type Column struct {
	Name string
	Type ColumnType
	// Size is the length of strings and the precision of decimals.
	Size int
	// Scale is the scale of decimals.
	Scale         int
	Nullable      bool
	Unique        bool
	AutoIncrement bool
	// Default is written as a literal: nil, booleans, numbers and strings.
	Default any
}

// Index is a secondary index of a table.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// ForeignKey references the columns of another table.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
	// OnDelete is the referential action ("CASCADE", "SET NULL", ...).
	OnDelete string
}

// Table is a table definition.
type Table struct {
	Name        string
	Columns     []*Column
	PrimaryKey  []string
	Indexes     []*Index
	ForeignKeys []*ForeignKey
	// Temporary tables live for the session.
	Temporary bool
}

// NewTable returns a table definition with the given columns.
func NewTable(name string, columns ...*Column) *Table {
	return &Table{Name: name, Columns: columns}
}

// SetPrimaryKey sets the primary key columns.
func (t *Table) SetPrimaryKey(columns ...string) *Table {
	t.PrimaryKey = columns
	return t
}

// AddIndex adds a secondary index.
func (t *Table) AddIndex(name string, unique bool, columns ...string) *Table {
	t.Indexes = append(t.Indexes, &Index{Name: name, Columns: columns, Unique: unique})
	return t
}

// AddForeignKey adds a foreign key.
func (t *Table) AddForeignKey(fk *ForeignKey) *Table {
	t.ForeignKeys = append(t.ForeignKeys, fk)
	return t
}

// Column returns the column with the given name, compared case-insensitively.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}
