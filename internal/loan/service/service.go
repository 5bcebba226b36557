package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"novabook/internal/book"
	"novabook/internal/loan"
	"novabook/internal/member"
	"novabook/internal/platform/db"
	dErrors "novabook/pkg/domain-errors"
	"novabook/pkg/platform/sentinel"
	"novabook/pkg/requestcontext"
)

// LoanStore is the persistence surface the workflow needs.
type LoanStore interface {
	FindByID(ctx context.Context, id int64) (*loan.Loan, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*loan.Loan, error)
	List(ctx context.Context) ([]loan.Loan, error)
	FindByMemberID(ctx context.Context, memberID int64) ([]loan.Loan, error)
	FindByBookID(ctx context.Context, bookID int64) ([]loan.Loan, error)
	FindActiveByMemberID(ctx context.Context, memberID int64) ([]loan.Loan, error)
	FindOverdue(ctx context.Context, asOf time.Time) ([]loan.Loan, error)
	CountActiveByMemberID(ctx context.Context, memberID int64) (int, error)
	HasActiveLoan(ctx context.Context, memberID, bookID int64) (bool, error)
	Create(ctx context.Context, l *loan.Loan) error
	MarkReturned(ctx context.Context, id int64) error
}

// BookStore covers the book reads and the stock mutation the workflow
// performs inside its transactional unit.
type BookStore interface {
	FindByID(ctx context.Context, id int64) (*book.Book, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*book.Book, error)
	UpdateStock(ctx context.Context, id int64, stock int) error
}

type MemberStore interface {
	FindByID(ctx context.Context, id int64) (*member.Member, error)
}

// ReturnResult reports the outcome of a return, including the fine
// assessed against the due date. Fines are reported, never persisted.
type ReturnResult struct {
	Loan            *loan.Loan `json:"loan"`
	Fine            int64      `json:"fine"`
	AlreadyReturned bool       `json:"already_returned"`
}

// Service drives the loan lifecycle. Borrow and Return each run as a
// single unit of work so stock and loan rows move together or not at all.
type Service struct {
	loans   LoanStore
	books   BookStore
	members MemberStore
	tx      db.TxRunner
	fines   *loan.FineCalculator
	logger  *slog.Logger
}

func NewService(loans LoanStore, books BookStore, members MemberStore, tx db.TxRunner, fines *loan.FineCalculator, logger *slog.Logger) *Service {
	return &Service{loans: loans, books: books, members: members, tx: tx, fines: fines, logger: logger}
}

// Borrow checks member eligibility, book availability and the one active
// loan per member-book pair rule, then decrements stock and records the
// loan atomically. A zero dueDate gets the default loan period applied.
func (s *Service) Borrow(ctx context.Context, memberID, bookID int64, dueDate time.Time) (*loan.Loan, error) {
	created, err := db.RunInTxResult(ctx, s.tx, func(ctx context.Context) (*loan.Loan, error) {
		m, err := s.members.FindByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Newf(dErrors.CodeNotFound, "member %d not found", memberID)
			}
			return nil, err
		}
		if !m.CanBorrow() {
			return nil, dErrors.Newf(dErrors.CodeMemberIneligible, "member %d is not eligible to borrow", memberID)
		}

		// Row lock on the book serialises concurrent borrows of the
		// same title for the rest of the unit of work.
		b, err := s.books.FindByIDForUpdate(ctx, bookID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Newf(dErrors.CodeNotFound, "book %d not found", bookID)
			}
			return nil, err
		}
		if !b.Available() {
			return nil, dErrors.Newf(dErrors.CodeOutOfStock, "book %d has no copies available", bookID)
		}

		active, err := s.loans.HasActiveLoan(ctx, memberID, bookID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, dErrors.Newf(dErrors.CodeDuplicateLoan, "member %d already has book %d on loan", memberID, bookID)
		}

		if err := s.books.UpdateStock(ctx, bookID, b.Stock-1); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Newf(dErrors.CodeDataAccess, "stock update affected no rows for book %d", bookID)
			}
			return nil, err
		}

		now := requestcontext.Now(ctx)
		if dueDate.IsZero() {
			dueDate = s.fines.DefaultDueDate(now)
		}
		l := &loan.Loan{
			MemberID:   memberID,
			BookID:     bookID,
			DateLoaned: now,
			DateDue:    dueDate,
			Returned:   false,
		}
		if err := s.loans.Create(ctx, l); err != nil {
			return nil, err
		}
		return l, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan created",
		slog.Int64("loan_id", created.ID),
		slog.Int64("member_id", memberID),
		slog.Int64("book_id", bookID),
		slog.Time("date_due", created.DateDue))
	return created, nil
}

// Return marks the loan returned, restores the book's stock and reports
// the fine owed. Returning an already returned loan is a no-op.
func (s *Service) Return(ctx context.Context, loanID int64) (*ReturnResult, error) {
	result, err := db.RunInTxResult(ctx, s.tx, func(ctx context.Context) (*ReturnResult, error) {
		// Row lock on the loan; two returns of the same loan must not
		// both see it active and restore stock twice.
		l, err := s.loans.FindByIDForUpdate(ctx, loanID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Newf(dErrors.CodeNotFound, "loan %d not found", loanID)
			}
			return nil, err
		}
		if l.Returned {
			return &ReturnResult{Loan: l, Fine: 0, AlreadyReturned: true}, nil
		}

		if err := s.loans.MarkReturned(ctx, loanID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				// The guarded update matched nothing: a racing
				// return got there first. Report the no-op.
				l.Returned = true
				return &ReturnResult{Loan: l, Fine: 0, AlreadyReturned: true}, nil
			}
			return nil, err
		}
		l.Returned = true

		b, err := s.books.FindByIDForUpdate(ctx, l.BookID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Newf(dErrors.CodeDataAccess, "book %d missing while returning loan %d", l.BookID, loanID)
			}
			return nil, err
		}
		if err := s.books.UpdateStock(ctx, b.ID, b.Stock+1); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Newf(dErrors.CodeDataAccess, "stock update affected no rows for book %d", b.ID)
			}
			return nil, err
		}

		fine := s.fines.CalculateFine(l.DateDue, requestcontext.Now(ctx))
		return &ReturnResult{Loan: l, Fine: fine}, nil
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadyReturned {
		s.logger.Info("loan already returned", slog.Int64("loan_id", loanID))
		return result, nil
	}
	s.logger.Info("loan returned",
		slog.Int64("loan_id", loanID),
		slog.Int64("book_id", result.Loan.BookID),
		slog.Int64("fine", result.Fine))
	return result, nil
}

func (s *Service) FindByID(ctx context.Context, id int64) (*loan.Loan, error) {
	l, err := s.loans.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "loan %d not found", id)
		}
		return nil, err
	}
	return l, nil
}

func (s *Service) List(ctx context.Context) ([]loan.Loan, error) {
	return s.loans.List(ctx)
}

func (s *Service) FindByMemberID(ctx context.Context, memberID int64) ([]loan.Loan, error) {
	return s.loans.FindByMemberID(ctx, memberID)
}

func (s *Service) FindByBookID(ctx context.Context, bookID int64) ([]loan.Loan, error) {
	return s.loans.FindByBookID(ctx, bookID)
}

func (s *Service) FindActiveByMemberID(ctx context.Context, memberID int64) ([]loan.Loan, error) {
	return s.loans.FindActiveByMemberID(ctx, memberID)
}

// FindOverdue lists active loans whose due date has passed as of the
// request time.
func (s *Service) FindOverdue(ctx context.Context) ([]loan.Loan, error) {
	return s.loans.FindOverdue(ctx, requestcontext.Now(ctx))
}

func (s *Service) CountActiveByMemberID(ctx context.Context, memberID int64) (int, error) {
	return s.loans.CountActiveByMemberID(ctx, memberID)
}
