package sql

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gustavorviana/sharporm"
	"github.com/gustavorviana/sharporm/dialect"
)

// ExecExpr executes a built statement and returns its result.
func ExecExpr(ctx context.Context, ex dialect.ExecQuerier, e Expression) (Result, error) {
	var res Result
	if err := ex.Exec(ctx, e.text, e.Args(), &res); err != nil {
		return nil, err
	}
	return res, nil
}

// QueryExpr executes a built query. The caller closes the returned rows.
func QueryExpr(ctx context.Context, ex dialect.ExecQuerier, e Expression) (*Rows, error) {
	rows := &Rows{}
	if err := ex.Query(ctx, e.text, e.Args(), rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ExecBatch executes the statements of a batched operation in order and
// returns the total number of affected rows. It stops at the first error.
// Pass a transaction to make the batch atomic, or use ExecBatchTx.
//
//	stmts, err := g.BulkInsert(q, rows...)
//	if err != nil {
//		return err
//	}
//	n, err := sql.ExecBatch(ctx, tx, stmts)
func ExecBatch(ctx context.Context, ex dialect.ExecQuerier, stmts []Expression) (int64, error) {
	var (
		id    = uuid.NewString()
		log   = Logger().With("batch", id)
		total int64
	)
	for i, s := range stmts {
		res, err := ExecExpr(ctx, ex, s)
		if err != nil {
			log.ErrorContext(ctx, "sql batch failed", "stmt", i+1, "of", len(stmts), "error", err)
			return total, fmt.Errorf("dialect/sql: batch %s statement %d of %d: %w", id, i+1, len(stmts), err)
		}
		n, err := res.RowsAffected()
		if err == nil {
			total += n
		}
		log.DebugContext(ctx, "sql batch statement", "stmt", i+1, "of", len(stmts), "rows", n)
	}
	return total, nil
}

// ExecBatchTx executes the statements in a transaction of drv. The
// transaction is rolled back when a statement fails.
func ExecBatchTx(ctx context.Context, drv dialect.Driver, stmts []Expression) (int64, error) {
	tx, err := drv.Tx(ctx)
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: begin batch: %w", err)
	}
	n, err := ExecBatch(ctx, tx, stmts)
	if err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return 0, sharporm.NewAggregateError(err, fmt.Errorf("dialect/sql: rollback: %w", rerr))
		}
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("dialect/sql: commit batch: %w", err)
	}
	return n, nil
}
