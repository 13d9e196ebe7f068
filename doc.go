// Package sharporm holds the error values shared by the statement grammars
// in dialect/sql and the packages built on them.
//
// Grammar operations never panic on bad input. They return one of:
//
//   - *UnsupportedError: the dialect cannot express the statement shape
//   - *QueryStateError: the query state cannot produce a statement
//   - *IdentifierError: a table, column or alias name is not valid
//
// Execution adds ConstraintError for driver constraint violations and
// *AggregateError when a failed batch also fails to roll back.
//
//	stmt, err := g.Delete(q)
//	switch {
//	case sharporm.IsUnsupported(err):
//		// issue one statement per table
//	case err != nil:
//		return err
//	}
package sharporm
