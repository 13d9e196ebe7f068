// Package sqlerr classifies the errors returned by the database drivers
// into constraint violations.
package sqlerr

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Kind is the kind of constraint a driver error reports as violated.
type Kind uint8

const (
	// None means the error is not a constraint violation.
	None Kind = iota
	Unique
	ForeignKey
	Check
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Unique:
		return "unique"
	case ForeignKey:
		return "foreign key"
	case Check:
		return "check"
	default:
		return "none"
	}
}

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// SQL Server error numbers for constraint violations.
const (
	mssqlUniqueConstraint = 2627
	mssqlUniqueIndex      = 2601
	mssqlConflict         = 547 // FOREIGN KEY or CHECK, told apart by the message
)

// sqlServerError is implemented by the SQL Server driver errors.
type sqlServerError interface {
	SQLErrorNumber() int32
}

// Classify returns the kind of constraint violated by err.
func Classify(err error) Kind {
	if err == nil {
		return None
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return Unique
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ForeignKey
		case mysqlCheckConstraintViolate:
			return Check
		}
		return None
	}
	if e, ok := asError[sqlServerError](err); ok {
		switch e.SQLErrorNumber() {
		case mssqlUniqueConstraint, mssqlUniqueIndex:
			return Unique
		case mssqlConflict:
			if strings.Contains(err.Error(), "CHECK constraint") {
				return Check
			}
			return ForeignKey
		}
		return None
	}
	msg := err.Error()
	switch {
	case containsAny(msg,
		"Error 1062",                                    // MySQL (string fallback)
		"Violation of PRIMARY KEY constraint",           // SQL Server
		"Violation of UNIQUE KEY constraint",            // SQL Server
		"Cannot insert duplicate key row",               // SQL Server
		"violation of PRIMARY or UNIQUE KEY constraint", // Firebird
		"UNIQUE constraint failed",                      // SQLite
	):
		return Unique
	case containsAny(msg,
		"Error 1451",                          // MySQL (Cannot delete or update a parent row)
		"Error 1452",                          // MySQL (Cannot add or update a child row)
		"conflicted with the FOREIGN KEY",     // SQL Server
		"conflicted with the REFERENCE",       // SQL Server
		"violation of FOREIGN KEY constraint", // Firebird
		"FOREIGN KEY constraint failed",       // SQLite
	):
		return ForeignKey
	case containsAny(msg,
		"Error 3819",                           // MySQL
		"conflicted with the CHECK constraint", // SQL Server
		"violates CHECK constraint",            // Firebird
		"CHECK constraint failed",              // SQLite
	):
		return Check
	}
	return None
}

// IsConstraintError reports whether err resulted from a constraint violation.
func IsConstraintError(err error) bool {
	return Classify(err) != None
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return Classify(err) == Unique
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return Classify(err) == ForeignKey
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return Classify(err) == Check
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
