package loan

import (
	"context"
	"database/sql"
	"time"

	"novabook/internal/platform/db"
	"novabook/pkg/platform/sentinel"
)

// PostgresStore persists loans in PostgreSQL. Statements join an open
// transaction when the context carries one, which is how the workflow keeps
// loan and stock mutations atomic.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed loan store.
func NewPostgres(pool *sql.DB) *PostgresStore {
	return &PostgresStore{db: pool}
}

func (s *PostgresStore) exec(ctx context.Context) db.Executor {
	return db.ExecutorFor(ctx, s.db)
}

const loanColumns = "id, member_id, book_id, date_loaned, date_due, returned, created_at, updated_at"

func scanLoan(sc db.Scanner) (Loan, error) {
	var l Loan
	err := sc.Scan(&l.ID, &l.MemberID, &l.BookID, &l.DateLoaned, &l.DateDue, &l.Returned, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*Loan, error) {
	row, err := db.QueryOne(ctx, s.exec(ctx),
		"SELECT "+loanColumns+" FROM loan WHERE id = $1",
		[]any{id}, scanLoan)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, sentinel.ErrNotFound
	}
	return row, nil
}

// FindByIDForUpdate locks the loan row for the surrounding transaction so
// concurrent returns of the same loan serialize instead of both reading a
// pre-return snapshot.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, id int64) (*Loan, error) {
	row, err := db.QueryOne(ctx, s.exec(ctx),
		"SELECT "+loanColumns+" FROM loan WHERE id = $1 FOR UPDATE",
		[]any{id}, scanLoan)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, sentinel.ErrNotFound
	}
	return row, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Loan, error) {
	return db.Query(ctx, s.exec(ctx),
		"SELECT "+loanColumns+" FROM loan ORDER BY date_loaned DESC",
		nil, scanLoan)
}

func (s *PostgresStore) FindByMemberID(ctx context.Context, memberID int64) ([]Loan, error) {
	return db.Query(ctx, s.exec(ctx),
		"SELECT "+loanColumns+" FROM loan WHERE member_id = $1 ORDER BY date_loaned DESC",
		[]any{memberID}, scanLoan)
}

func (s *PostgresStore) FindByBookID(ctx context.Context, bookID int64) ([]Loan, error) {
	return db.Query(ctx, s.exec(ctx),
		"SELECT "+loanColumns+" FROM loan WHERE book_id = $1 ORDER BY date_loaned DESC",
		[]any{bookID}, scanLoan)
}

func (s *PostgresStore) FindActiveByMemberID(ctx context.Context, memberID int64) ([]Loan, error) {
	return db.Query(ctx, s.exec(ctx),
		"SELECT "+loanColumns+" FROM loan WHERE member_id = $1 AND returned = FALSE ORDER BY date_loaned DESC",
		[]any{memberID}, scanLoan)
}

func (s *PostgresStore) FindActiveByBookID(ctx context.Context, bookID int64) ([]Loan, error) {
	return db.Query(ctx, s.exec(ctx),
		"SELECT "+loanColumns+" FROM loan WHERE book_id = $1 AND returned = FALSE ORDER BY date_loaned DESC",
		[]any{bookID}, scanLoan)
}

// FindOverdue lists active loans whose due date lies strictly before asOf.
func (s *PostgresStore) FindOverdue(ctx context.Context, asOf time.Time) ([]Loan, error) {
	return db.Query(ctx, s.exec(ctx),
		"SELECT "+loanColumns+" FROM loan WHERE date_due < $1 AND returned = FALSE ORDER BY date_due",
		[]any{asOf}, scanLoan)
}

func (s *PostgresStore) CountActiveByMemberID(ctx context.Context, memberID int64) (int, error) {
	row, err := db.QueryOne(ctx, s.exec(ctx),
		"SELECT COUNT(*) FROM loan WHERE member_id = $1 AND returned = FALSE",
		[]any{memberID},
		func(sc db.Scanner) (int, error) {
			var n int
			err := sc.Scan(&n)
			return n, err
		})
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	return *row, nil
}

// HasActiveLoan reports whether an active loan exists for the (member, book)
// pair. The borrow workflow calls this while holding the book's row lock.
func (s *PostgresStore) HasActiveLoan(ctx context.Context, memberID, bookID int64) (bool, error) {
	row, err := db.QueryOne(ctx, s.exec(ctx),
		"SELECT EXISTS(SELECT 1 FROM loan WHERE member_id = $1 AND book_id = $2 AND returned = FALSE)",
		[]any{memberID, bookID},
		func(sc db.Scanner) (bool, error) {
			var exists bool
			err := sc.Scan(&exists)
			return exists, err
		})
	if err != nil {
		return false, err
	}
	if row == nil {
		return false, nil
	}
	return *row, nil
}

func (s *PostgresStore) Create(ctx context.Context, l *Loan) error {
	id, err := db.InsertReturningID(ctx, s.exec(ctx),
		"INSERT INTO loan (member_id, book_id, date_loaned, date_due, returned) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		l.MemberID, l.BookID, l.DateLoaned, l.DateDue, l.Returned)
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, l *Loan) error {
	affected, err := db.Exec(ctx, s.exec(ctx),
		"UPDATE loan SET member_id = $1, book_id = $2, date_loaned = $3, date_due = $4, returned = $5, updated_at = now() WHERE id = $6",
		l.MemberID, l.BookID, l.DateLoaned, l.DateDue, l.Returned, l.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// MarkReturned flips the terminal flag. The statement only matches active
// loans, so under concurrent returns exactly one caller sees an affected row.
// Zero affected rows surfaces as ErrNotFound: the loan is missing or already
// returned, and the workflow decides which it was.
func (s *PostgresStore) MarkReturned(ctx context.Context, id int64) error {
	affected, err := db.Exec(ctx, s.exec(ctx),
		"UPDATE loan SET returned = TRUE, updated_at = now() WHERE id = $1 AND returned = FALSE", id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Delete is an administrative operation; the workflow never removes loans.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	affected, err := db.Exec(ctx, s.exec(ctx), "DELETE FROM loan WHERE id = $1", id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
