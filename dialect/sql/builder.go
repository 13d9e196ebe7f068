package sql

import (
	"errors"
	"slices"
	"strconv"
)

// Cursor is a position in a Builder: a text offset and a parameter count.
type Cursor struct {
	text int
	args int
}

// Builder accumulates SQL text and parameter values in emission order.
// Parameters are written as "?" and rendered with the dialect marker when
// the statement is finished.
//
// A savepoint lets the batching code un-append the last row, and a cursor
// lets a caller splice text (with its parameters) in front of what was
// already written. While a savepoint is active, a cursor may only point
// after it, and rolling back to the savepoint drops the cursor.
type Builder struct {
	text  []byte
	args  []any
	errs  []error
	quote func(string) (string, error)
	bools func(bool) string
	lex   sqlLexer

	save   *Cursor
	cursor *Cursor
	ptext  []byte // pending splice text
	pargs  []any  // pending splice args
}

// NewBuilder returns a Builder quoting identifiers with quote. A nil quote
// writes validated identifiers unquoted.
func NewBuilder(quote func(string) (string, error)) *Builder {
	if quote == nil {
		quote = func(s string) (string, error) {
			return s, validateIdentifier(s, true)
		}
	}
	return &Builder{quote: quote, bools: numericBool}
}

// SetBoolLiteral sets how inline booleans are written. The default
// writes 1 and 0.
func (b *Builder) SetBoolLiteral(f func(bool) string) *Builder {
	if f != nil {
		b.bools = f
	}
	return b
}

func (b *Builder) write(s string) {
	if b.cursor != nil {
		b.ptext = append(b.ptext, s...)
		return
	}
	b.text = append(b.text, s...)
}

func (b *Builder) arg(v any) {
	if b.cursor != nil {
		b.pargs = append(b.pargs, v)
		return
	}
	b.args = append(b.args, v)
}

// Add appends raw SQL text.
func (b *Builder) Add(s string) *Builder {
	b.write(s)
	return b
}

// AddInt appends an integer literal.
func (b *Builder) AddInt(n int) *Builder {
	b.write(strconv.Itoa(n))
	return b
}

// Ident appends a quoted identifier.
func (b *Builder) Ident(name string) *Builder {
	q, err := b.quote(name)
	if err != nil {
		b.AddError(err)
		return b
	}
	b.write(q)
	return b
}

// AddColumn appends a column, quoted, followed by its alias when allowAlias is set.
func (b *Builder) AddColumn(c Column, allowAlias bool) *Builder {
	if c.raw {
		b.AddExpression(c.expr)
	} else {
		b.Ident(c.name)
	}
	if allowAlias && c.alias != "" {
		if err := validateAlias(c.alias); err != nil {
			b.AddError(err)
			return b
		}
		b.write(" AS ")
		b.Ident(c.alias)
	}
	return b
}

// AddExpression appends the expression text and its parameters.
func (b *Builder) AddExpression(e Expression) *Builder {
	if err := b.lex.validate(e); err != nil {
		b.AddError(err)
		return b
	}
	b.write(e.text)
	for _, a := range e.args {
		b.arg(a)
	}
	return b
}

// AddParameter appends a value and returns the text written for it:
// the quoted column for a Column, the expression text for an Expression,
// an inline literal for nil, booleans and integers, or "?" with the value
// recorded as a parameter.
func (b *Builder) AddParameter(v any, allowAlias bool) string {
	start := b.pos()
	switch v := v.(type) {
	case Column:
		b.AddColumn(v, allowAlias)
	case Expression:
		b.AddExpression(v)
	default:
		if lit, ok := literal(v, b.bools); ok {
			b.write(lit)
			return lit
		}
		b.write("?")
		b.arg(v)
		return "?"
	}
	return b.since(start)
}

// pos returns the length of the active buffer.
func (b *Builder) pos() int {
	if b.cursor != nil {
		return len(b.ptext)
	}
	return len(b.text)
}

// since returns the text written to the active buffer after start.
func (b *Builder) since(start int) string {
	if b.cursor != nil {
		return string(b.ptext[start:])
	}
	return string(b.text[start:])
}

// Comma appends ", ".
func (b *Builder) Comma() *Builder {
	b.write(", ")
	return b
}

// Wrap appends f's output enclosed in parentheses.
func (b *Builder) Wrap(f func(*Builder)) *Builder {
	b.write("(")
	f(b)
	b.write(")")
	return b
}

// Len returns the text length.
func (b *Builder) Len() int { return len(b.text) + len(b.ptext) }

// NumArgs returns the number of recorded parameters.
func (b *Builder) NumArgs() int { return len(b.args) + len(b.pargs) }

// AddError records an error. Building continues, and the error is
// reported by Err.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns the recorded errors.
func (b *Builder) Err() error {
	return errors.Join(b.errs...)
}

// Clear resets text, parameters, errors, savepoint and cursor.
func (b *Builder) Clear() {
	b.text = b.text[:0]
	b.args = b.args[:0]
	b.errs = nil
	b.save = nil
	b.cursor = nil
	b.ptext = b.ptext[:0]
	b.pargs = b.pargs[:0]
}

// CreateSavePoint records the current position. It must not be called
// while a cursor is set.
func (b *Builder) CreateSavePoint() {
	if b.cursor != nil {
		b.AddError(errors.New("dialect/sql: savepoint created while a cursor is set"))
		return
	}
	b.save = &Cursor{text: len(b.text), args: len(b.args)}
}

// ResetSavePoint discards the savepoint, keeping everything written after it.
func (b *Builder) ResetSavePoint() {
	b.save = nil
}

// BuildSavePoint truncates text and parameters back to the savepoint and
// discards it, together with a cursor set after it and its pending writes.
// It reports whether a savepoint existed.
func (b *Builder) BuildSavePoint() bool {
	if b.save == nil {
		return false
	}
	b.cursor = nil
	b.ptext = b.ptext[:0]
	b.pargs = b.pargs[:0]
	b.text = b.text[:b.save.text]
	b.args = b.args[:b.save.args]
	b.save = nil
	return true
}

// HasSavePoint reports whether a savepoint is active.
func (b *Builder) HasSavePoint() bool { return b.save != nil }

// Mark returns the current end position. The zero Cursor is the start.
func (b *Builder) Mark() Cursor {
	return Cursor{text: len(b.text), args: len(b.args)}
}

// SetCursor redirects writes to position c. The text and parameters written
// until RestoreCursor are inserted at c, ahead of what follows it.
func (b *Builder) SetCursor(c Cursor) {
	switch {
	case b.save != nil && c.text < b.save.text:
		b.AddError(errors.New("dialect/sql: cursor set before the active savepoint"))
		return
	case b.cursor != nil:
		b.RestoreCursor()
	}
	if c.text > len(b.text) || c.args > len(b.args) || c.text < 0 || c.args < 0 {
		b.AddError(errors.New("dialect/sql: cursor out of range"))
		return
	}
	b.cursor = &c
}

// RestoreCursor splices the pending writes at the cursor and resumes
// appending at the end.
func (b *Builder) RestoreCursor() {
	if b.cursor == nil {
		return
	}
	c := *b.cursor
	b.cursor = nil
	b.text = slices.Insert(b.text, c.text, b.ptext...)
	b.args = slices.Insert(b.args, c.args, b.pargs...)
	b.ptext = b.ptext[:0]
	b.pargs = b.pargs[:0]
}

// Expression returns the accumulated statement. A pending cursor is
// restored first.
func (b *Builder) Expression() Expression {
	b.RestoreCursor()
	return Expression{text: string(b.text), args: slices.Clone(b.args)}
}

// String returns the accumulated text.
func (b *Builder) String() string {
	if b.cursor == nil {
		return string(b.text)
	}
	return string(slices.Insert(slices.Clone(b.text), b.cursor.text, b.ptext...))
}
