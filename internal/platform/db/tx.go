package db

import (
	"context"
	"database/sql"
	"errors"

	dErrors "novabook/pkg/domain-errors"
	txcontext "novabook/pkg/platform/tx"
)

// TxRunner is the unit-of-work surface services depend on. Production code
// uses *Coordinator; unit tests substitute a pass-through.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Coordinator owns transaction boundaries. It hands the unit of work a context
// carrying the open *sql.Tx so every nested store call joins the same
// transaction, commits on success, and rolls back on any failure.
type Coordinator struct {
	db *sql.DB
}

func NewCoordinator(pool *sql.DB) *Coordinator {
	return &Coordinator{db: pool}
}

// RunInTx executes fn exactly once inside a single transaction.
//
// Nesting is not supported: a unit of work must reuse the context it was
// given, and opening a second top-level transaction from inside one is an
// error rather than a silent second connection.
//
// Any failure inside fn triggers a rollback and is returned unchanged, so
// callers branch on the original error's code. A rollback failure is attached
// to the chain without masking what went wrong first.
func (c *Coordinator) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		return dErrors.New(dErrors.CodeTransaction, "nested transaction not supported")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransaction, "begin transaction")
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return dErrors.Wrap(errors.Join(err, rbErr), dErrors.CodeTransaction, "rollback failed after unit of work error")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransaction, "commit transaction")
	}
	committed = true
	return nil
}

// RunInTxResult runs fn as a unit of work on runner and returns its result.
// The zero value of T comes back on any failure.
func RunInTxResult[T any](ctx context.Context, runner TxRunner, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
