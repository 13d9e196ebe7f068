package sharporm

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for statement building.
var (
	// ErrUnsupported is returned when a dialect cannot express the requested
	// statement shape.
	ErrUnsupported = errors.New("sharporm: unsupported capability")

	// ErrInvalidQuery is returned when the query state cannot produce a
	// statement (empty cell set, OFFSET without ORDER BY, ...).
	ErrInvalidQuery = errors.New("sharporm: invalid query state")

	// ErrInvalidIdentifier is returned when a table, column or alias name
	// fails the identifier grammar.
	ErrInvalidIdentifier = errors.New("sharporm: invalid identifier")
)

// UnsupportedError is returned when a dialect rejects an operation.
type UnsupportedError struct {
	Dialect string // Dialect name (e.g. "sqlserver")
	Op      string // Operation (e.g. "delete", "upsert")
	Reason  string // Optional detail
}

// Error returns the error string.
func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("sharporm: %s does not support %s: %s", e.Dialect, e.Op, e.Reason)
	}
	return fmt.Sprintf("sharporm: %s does not support %s", e.Dialect, e.Op)
}

// Is reports whether the target error matches UnsupportedError.
// This allows errors.Is(err, ErrUnsupported) to return true.
func (e *UnsupportedError) Is(err error) bool {
	return err == ErrUnsupported
}

// NewUnsupportedError returns a new UnsupportedError.
func NewUnsupportedError(dialect, op, reason string) *UnsupportedError {
	return &UnsupportedError{Dialect: dialect, Op: op, Reason: reason}
}

// IsUnsupported returns true if the error is an UnsupportedError.
func IsUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupported)
}

// QueryStateError represents a caller error detected while building a statement.
type QueryStateError struct {
	Op      string // Operation being built (e.g. "insert", "select")
	Message string
}

// Error returns the error string.
func (e *QueryStateError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("sharporm: invalid query state (%s): %s", e.Op, e.Message)
	}
	return fmt.Sprintf("sharporm: invalid query state: %s", e.Message)
}

// Is reports whether the target error matches QueryStateError.
func (e *QueryStateError) Is(err error) bool {
	return err == ErrInvalidQuery
}

// NewQueryStateError returns a new QueryStateError for the given operation.
func NewQueryStateError(op, format string, args ...any) *QueryStateError {
	return &QueryStateError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// IsQueryStateError returns true if the error is a QueryStateError.
func IsQueryStateError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryStateError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidQuery)
}

// IdentifierError represents a name rejected by the identifier grammar.
type IdentifierError struct {
	Name   string
	Reason string
}

// Error returns the error string.
func (e *IdentifierError) Error() string {
	return fmt.Sprintf("sharporm: invalid identifier %q: %s", e.Name, e.Reason)
}

// Is reports whether the target error matches IdentifierError.
func (e *IdentifierError) Is(err error) bool {
	return err == ErrInvalidIdentifier
}

// NewIdentifierError returns a new IdentifierError.
func NewIdentifierError(name, reason string) *IdentifierError {
	return &IdentifierError{Name: name, Reason: reason}
}

// IsIdentifierError returns true if the error is an IdentifierError.
func IsIdentifierError(err error) bool {
	if err == nil {
		return false
	}
	var e *IdentifierError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidIdentifier)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("sharporm: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation,
// such as the statements of one batched execution.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "sharporm: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("sharporm: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
