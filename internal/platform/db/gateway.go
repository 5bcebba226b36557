// Package db is the data-access layer shared by every store: a thin gateway
// over database/sql plus the transaction coordinator. Stores never touch the
// driver directly; every statement goes through one of the helpers here so
// driver failures surface as a single classified error kind.
package db

import (
	"context"
	"database/sql"

	dErrors "novabook/pkg/domain-errors"
	txcontext "novabook/pkg/platform/tx"
)

// Executor is the subset of *sql.DB and *sql.Tx the gateway needs. Stores pick
// one per call via ExecutorFor so statements inside a unit of work run on the
// transaction's connection.
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ExecutorFor returns the context's transaction when one is open, otherwise
// the pooled database handle.
func ExecutorFor(ctx context.Context, pool *sql.DB) Executor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return pool
}

// Scanner is the single-row scan surface passed to row mappers.
type Scanner interface {
	Scan(dest ...any) error
}

// Query runs a parameterized SELECT and maps each row via scan. The result is
// never nil on success; no matching rows yields an empty slice. Any driver or
// mapping failure comes back as a data-access error carrying the statement
// text for diagnostics.
func Query[T any](ctx context.Context, exec Executor, query string, args []any, scan func(Scanner) (T, error)) ([]T, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDataAccess, "query failed: "+query)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, scanErr := scan(rows)
		if scanErr != nil {
			return nil, dErrors.Wrap(scanErr, dErrors.CodeDataAccess, "scan failed: "+query)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDataAccess, "row iteration failed: "+query)
	}
	return out, nil
}

// QueryOne runs a parameterized SELECT expected to match at most one row and
// returns nil when nothing matched. Additional rows are ignored, not rejected;
// callers are responsible for querying by a unique key.
func QueryOne[T any](ctx context.Context, exec Executor, query string, args []any, scan func(Scanner) (T, error)) (*T, error) {
	results, err := Query(ctx, exec, query, args, scan)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// Exec runs an INSERT/UPDATE/DELETE and returns the affected row count.
func Exec(ctx context.Context, exec Executor, query string, args ...any) (int64, error) {
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeDataAccess, "exec failed: "+query)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeDataAccess, "rows affected unavailable: "+query)
	}
	return affected, nil
}

// InsertReturningID runs an INSERT ... RETURNING id statement and returns the
// generated identity. A statement that produces no row is a data-access error.
func InsertReturningID(ctx context.Context, exec Executor, query string, args ...any) (int64, error) {
	var id int64
	if err := exec.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, dErrors.New(dErrors.CodeDataAccess, "insert produced no generated id: "+query)
		}
		return 0, dErrors.Wrap(err, dErrors.CodeDataAccess, "insert failed: "+query)
	}
	return id, nil
}
