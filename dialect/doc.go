// Package dialect identifies the database families the statement grammars
// target and defines the execution contract shared by drivers.
//
// # Supported Dialects
//
//   - MySQL: MySQL/MariaDB
//   - SQLServer: Microsoft SQL Server / Azure SQL
//   - Firebird: Firebird
//
// Driver and vendor names resolve to a family with Family:
//
//	d, ok := dialect.Family("mariadb") // "mysql", true
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface adds Commit and Rollback. Both Driver and Tx satisfy
// ExecQuerier, so batched statements can run inside or outside a transaction.
//
// # Sub-packages
//
//   - dialect/sql: statement grammars, query model and driver implementation
//   - dialect/sql/schema: minimal table DDL (exists, create, drop)
//   - dialect/sql/sqlerr: constraint error classification
package dialect
