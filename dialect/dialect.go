package dialect

import (
	"context"
	"database/sql/driver"
	"strings"
)

// Dialect names for the database families supported by the grammars.
const (
	MySQL     = "mysql"
	SQLServer = "sqlserver"
	Firebird  = "firebird"
)

// aliases maps driver and vendor names to their dialect family.
var aliases = map[string]string{
	"mysql":       MySQL,
	"mariadb":     MySQL,
	"sqlserver":   SQLServer,
	"mssql":       SQLServer,
	"azuresql":    SQLServer,
	"firebird":    Firebird,
	"firebirdsql": Firebird,
}

// Family returns the dialect family of the given driver or vendor name.
// Names carrying a suffix, such as "mysql:debug", resolve by prefix.
func Family(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if d, ok := aliases[name]; ok {
		return d, true
	}
	for alias, d := range aliases {
		if strings.HasPrefix(name, alias) {
			return d, true
		}
	}
	return "", false
}

// Names returns the supported dialect families.
func Names() []string {
	return []string{MySQL, SQLServer, Firebird}
}

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for executing
// the statements produced by the grammars.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	driver.Tx
}

type nopTx struct {
	Driver
}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

// NopTx returns a Tx with a no-op Commit / Rollback methods wrapping
// the provided Driver d.
func NopTx(d Driver) Tx {
	return nopTx{d}
}
