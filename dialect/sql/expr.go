package sql

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Placeholder is the parameter marker style used in rendered statements.
type Placeholder int

const (
	// PlaceholderDefault selects the dialect's default marker.
	PlaceholderDefault Placeholder = iota
	// Question renders every parameter as "?".
	Question
	// AtNumbered renders parameters as "@p1", "@p2", ... in order.
	AtNumbered
)

// String returns the configuration name of the placeholder style.
func (p Placeholder) String() string {
	switch p {
	case Question:
		return "question"
	case AtNumbered:
		return "at"
	default:
		return "default"
	}
}

// ParsePlaceholder parses a placeholder style name.
func ParsePlaceholder(s string) (Placeholder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return PlaceholderDefault, nil
	case "question", "?":
		return Question, nil
	case "at", "@p", "named":
		return AtNumbered, nil
	}
	return PlaceholderDefault, fmt.Errorf("unknown placeholder style %q", s)
}

// marker returns the n-th (1-based) parameter marker.
func (p Placeholder) marker(n int) string {
	if p == AtNumbered {
		return "@p" + strconv.Itoa(n)
	}
	return "?"
}

// Expression is an immutable SQL fragment: a template using "?" as the
// positional placeholder and the ordered parameter values bound to it.
// A "?" inside a quoted literal or identifier is not a placeholder.
type Expression struct {
	text string
	args []any
}

// Expr returns a new Expression. The args slice is copied.
//
//	sql.Expr("COUNT(*)")
//	sql.Expr("SUBSTRING(`name`, ?, ?)", 1, 3)
func Expr(text string, args ...any) Expression {
	return Expression{text: text, args: slices.Clone(args)}
}

// Text returns the template text.
func (e Expression) Text() string { return e.text }

// Args returns a copy of the parameter values.
func (e Expression) Args() []any { return slices.Clone(e.args) }

// NumArgs returns the number of parameter values.
func (e Expression) NumArgs() int { return len(e.args) }

// IsEmpty reports whether the expression has no text.
func (e Expression) IsEmpty() bool { return strings.TrimSpace(e.text) == "" }

// String implements fmt.Stringer.
func (e Expression) String() string {
	if len(e.args) == 0 {
		return e.text
	}
	return fmt.Sprintf("%s %v", e.text, e.args)
}

// Equal compares the template text and the parameter sequence.
func (e Expression) Equal(o Expression) bool {
	if e.text != o.text || len(e.args) != len(o.args) {
		return false
	}
	for i := range e.args {
		if !reflect.DeepEqual(e.args[i], o.args[i]) {
			return false
		}
	}
	return true
}

// Validate checks that the number of placeholders matches the number of args.
// Quoted sections and comments follow standard SQL; statements built by a
// MySQL grammar also accept backslash escapes in strings.
func (e Expression) Validate() error {
	return sqlLexer{}.validate(e)
}

// CountPlaceholders returns the number of "?" placeholders in text.
func CountPlaceholders(text string) int {
	return sqlLexer{}.count(text)
}

// Render rewrites the "?" placeholders of e with the markers of style p,
// numbering them left to right starting at 1.
func Render(e Expression, p Placeholder) Expression {
	return sqlLexer{}.render(e, p)
}

// sqlLexer finds the "?" placeholders of SQL text. Quoted sections
// ('...', "...", `...`, [...]) and comments (-- and /* */) are skipped.
type sqlLexer struct {
	// mysql enables backslash escapes in strings and "#" comments, and
	// requires whitespace after "--".
	mysql bool
}

func (l sqlLexer) validate(e Expression) error {
	if n := l.count(e.text); n != len(e.args) {
		return fmt.Errorf("expression %q has %d placeholders and %d args", e.text, n, len(e.args))
	}
	return nil
}

func (l sqlLexer) count(text string) int {
	n := 0
	l.scan(text, func(string) { n++ }, nil)
	return n
}

func (l sqlLexer) render(e Expression, p Placeholder) Expression {
	if p != AtNumbered || len(e.args) == 0 {
		return e
	}
	var (
		n  int
		sb strings.Builder
	)
	sb.Grow(len(e.text) + 2*len(e.args))
	l.scan(e.text, func(string) {
		n++
		sb.WriteString(p.marker(n))
	}, func(s string) {
		sb.WriteString(s)
	})
	return Expression{text: sb.String(), args: e.args}
}

// scan walks text, calling ph for every placeholder and lit for every
// other chunk. Skipped sections are passed to lit untouched.
func (l sqlLexer) scan(text string, ph, lit func(string)) {
	if lit == nil {
		lit = func(string) {}
	}
	start := 0
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c == '\'' || c == '"':
			i = l.skipString(text, i)
		case c == '`':
			i = skipTo(text, i+1, "`")
		case c == '[':
			i = skipTo(text, i+1, "]")
		case c == '-' && l.lineComment(text, i), c == '#' && l.mysql:
			i = skipTo(text, i, "\n")
		case c == '/' && strings.HasPrefix(text[i:], "/*"):
			i = skipTo(text, i+2, "*/")
		case c == '?':
			lit(text[start:i])
			ph(text[i : i+1])
			start = i + 1
		}
	}
	lit(text[start:])
}

// skipString returns the index of the quote closing the string opened at i.
func (l sqlLexer) skipString(text string, i int) int {
	quote := text[i]
	for k := i + 1; k < len(text); k++ {
		switch text[k] {
		case '\\':
			if l.mysql {
				k++
			}
		case quote:
			return k
		}
	}
	return len(text) - 1
}

func (l sqlLexer) lineComment(text string, i int) bool {
	if !strings.HasPrefix(text[i:], "--") {
		return false
	}
	return !l.mysql || i+2 == len(text) || text[i+2] <= ' '
}

// skipTo returns the index of the last byte of the first end at or after
// from, or the last index of text when there is none.
func skipTo(text string, from int, end string) int {
	if j := strings.Index(text[from:], end); j >= 0 {
		return from + j + len(end) - 1
	}
	return len(text) - 1
}
