package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"novabook/internal/book"
	"novabook/internal/loan"
	"novabook/internal/member"
	dErrors "novabook/pkg/domain-errors"
	"novabook/pkg/requestcontext"
)

// passthroughTx runs the unit of work without a real transaction. The
// rollback semantics are covered by the postgres integration tests.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type LoanServiceSuite struct {
	suite.Suite
	loans   *loan.InMemoryStore
	books   *book.InMemoryStore
	members *member.InMemoryStore
	svc     *Service
	ctx     context.Context
}

func (s *LoanServiceSuite) SetupTest() {
	s.loans = loan.NewInMemoryStore()
	s.books = book.NewInMemoryStore()
	s.members = member.NewInMemoryStore()
	s.svc = NewService(s.loans, s.books, s.members, passthroughTx{}, loan.NewFineCalculator(7, 1500), slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC))
}

func (s *LoanServiceSuite) seedMember(active bool) *member.Member {
	m := &member.Member{Name: "Ada", Role: member.RoleRegular, Active: active}
	s.Require().NoError(s.members.Create(s.ctx, m))
	return m
}

func (s *LoanServiceSuite) seedBook(stock int) *book.Book {
	b := &book.Book{ISBN: "978-0-13-468599-1", Title: "The Go Programming Language", Author: "Donovan", Stock: stock}
	s.Require().NoError(s.books.Create(s.ctx, b))
	return b
}

func (s *LoanServiceSuite) TestBorrowCreatesLoanAndDecrementsStock() {
	m := s.seedMember(true)
	b := s.seedBook(3)

	due := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	l, err := s.svc.Borrow(s.ctx, m.ID, b.ID, due)
	s.Require().NoError(err)
	s.Equal(m.ID, l.MemberID)
	s.Equal(b.ID, l.BookID)
	s.Equal(due, l.DateDue)
	s.False(l.Returned)

	got, err := s.books.FindByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(2, got.Stock)
}

func (s *LoanServiceSuite) TestBorrowDefaultsDueDate() {
	m := s.seedMember(true)
	b := s.seedBook(1)

	l, err := s.svc.Borrow(s.ctx, m.ID, b.ID, time.Time{})
	s.Require().NoError(err)
	s.Equal(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC), l.DateDue)
}

func (s *LoanServiceSuite) TestBorrowUnknownMember() {
	b := s.seedBook(1)

	_, err := s.svc.Borrow(s.ctx, 42, b.ID, time.Time{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *LoanServiceSuite) TestBorrowIneligibleMemberLeavesStockUntouched() {
	m := s.seedMember(false)
	b := s.seedBook(2)

	_, err := s.svc.Borrow(s.ctx, m.ID, b.ID, time.Time{})
	s.True(dErrors.HasCode(err, dErrors.CodeMemberIneligible))

	got, err := s.books.FindByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(2, got.Stock)

	count, err := s.loans.CountActiveByMemberID(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *LoanServiceSuite) TestBorrowSoftDeletedMemberRejected() {
	m := s.seedMember(true)
	s.Require().NoError(s.members.SoftDelete(s.ctx, m.ID))
	b := s.seedBook(1)

	_, err := s.svc.Borrow(s.ctx, m.ID, b.ID, time.Time{})
	s.True(dErrors.HasCode(err, dErrors.CodeMemberIneligible))
}

func (s *LoanServiceSuite) TestBorrowOutOfStock() {
	m := s.seedMember(true)
	b := s.seedBook(0)

	_, err := s.svc.Borrow(s.ctx, m.ID, b.ID, time.Time{})
	s.True(dErrors.HasCode(err, dErrors.CodeOutOfStock))

	count, err := s.loans.CountActiveByMemberID(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *LoanServiceSuite) TestBorrowDuplicateLoanRejected() {
	m := s.seedMember(true)
	b := s.seedBook(5)

	_, err := s.svc.Borrow(s.ctx, m.ID, b.ID, time.Time{})
	s.Require().NoError(err)

	_, err = s.svc.Borrow(s.ctx, m.ID, b.ID, time.Time{})
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateLoan))

	got, err := s.books.FindByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(4, got.Stock, "stock decremented once, not twice")
}

func (s *LoanServiceSuite) TestBorrowAgainAfterReturn() {
	m := s.seedMember(true)
	b := s.seedBook(1)

	l, err := s.svc.Borrow(s.ctx, m.ID, b.ID, time.Time{})
	s.Require().NoError(err)
	_, err = s.svc.Return(s.ctx, l.ID)
	s.Require().NoError(err)

	_, err = s.svc.Borrow(s.ctx, m.ID, b.ID, time.Time{})
	s.NoError(err)
}

func (s *LoanServiceSuite) TestReturnRestoresStockAndReportsNoFineOnTime() {
	m := s.seedMember(true)
	b := s.seedBook(1)

	due := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	l, err := s.svc.Borrow(s.ctx, m.ID, b.ID, due)
	s.Require().NoError(err)

	returnCtx := requestcontext.WithTime(context.Background(), time.Date(2025, 1, 10, 16, 0, 0, 0, time.UTC))
	res, err := s.svc.Return(returnCtx, l.ID)
	s.Require().NoError(err)
	s.True(res.Loan.Returned)
	s.Zero(res.Fine)
	s.False(res.AlreadyReturned)

	got, err := s.books.FindByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(1, got.Stock)
}

func (s *LoanServiceSuite) TestReturnLateAssessesFine() {
	m := s.seedMember(true)
	b := s.seedBook(1)

	due := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	l, err := s.svc.Borrow(s.ctx, m.ID, b.ID, due)
	s.Require().NoError(err)

	returnCtx := requestcontext.WithTime(context.Background(), time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC))
	res, err := s.svc.Return(returnCtx, l.ID)
	s.Require().NoError(err)
	s.Equal(int64(4500), res.Fine)
}

func (s *LoanServiceSuite) TestReturnIsIdempotent() {
	m := s.seedMember(true)
	b := s.seedBook(1)

	l, err := s.svc.Borrow(s.ctx, m.ID, b.ID, time.Time{})
	s.Require().NoError(err)

	late := requestcontext.WithTime(context.Background(), time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	first, err := s.svc.Return(late, l.ID)
	s.Require().NoError(err)
	s.False(first.AlreadyReturned)

	second, err := s.svc.Return(late, l.ID)
	s.Require().NoError(err)
	s.True(second.AlreadyReturned)
	s.Zero(second.Fine, "fine is not recomputed on repeat returns")

	got, err := s.books.FindByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(1, got.Stock, "stock restored once, not twice")
}

// staleSnapshotLoanStore serves a pre-return snapshot from the locking read,
// so the guarded MarkReturned update is the only thing standing between two
// rival returns of the same loan.
type staleSnapshotLoanStore struct {
	*loan.InMemoryStore
	snapshot *loan.Loan
}

func (s *staleSnapshotLoanStore) FindByIDForUpdate(ctx context.Context, id int64) (*loan.Loan, error) {
	if s.snapshot != nil && s.snapshot.ID == id {
		stale := *s.snapshot
		return &stale, nil
	}
	return s.InMemoryStore.FindByIDForUpdate(ctx, id)
}

func (s *LoanServiceSuite) TestReturnRivalSeeingStaleLoanDoesNotRestoreStockTwice() {
	m := s.seedMember(true)
	b := s.seedBook(1)

	l, err := s.svc.Borrow(s.ctx, m.ID, b.ID, time.Time{})
	s.Require().NoError(err)

	stale := *l
	stale.Returned = false
	store := &staleSnapshotLoanStore{InMemoryStore: s.loans, snapshot: &stale}
	svc := NewService(store, s.books, s.members, passthroughTx{}, loan.NewFineCalculator(7, 1500), slog.New(slog.NewTextHandler(io.Discard, nil)))

	first, err := svc.Return(s.ctx, l.ID)
	s.Require().NoError(err)
	s.False(first.AlreadyReturned)

	// The rival also read the loan as active; the guarded update turns
	// its return into a no-op.
	second, err := svc.Return(s.ctx, l.ID)
	s.Require().NoError(err)
	s.True(second.AlreadyReturned)
	s.Zero(second.Fine)

	got, err := s.books.FindByID(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(1, got.Stock, "concurrent returns must restore stock once")
}

func (s *LoanServiceSuite) TestReturnUnknownLoan() {
	_, err := s.svc.Return(s.ctx, 99)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *LoanServiceSuite) TestFindOverdueUsesRequestTime() {
	m := s.seedMember(true)
	b := s.seedBook(2)

	due := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	l, err := s.svc.Borrow(s.ctx, m.ID, b.ID, due)
	s.Require().NoError(err)

	before := requestcontext.WithTime(context.Background(), time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC))
	overdue, err := s.svc.FindOverdue(before)
	s.Require().NoError(err)
	s.Empty(overdue)

	after := requestcontext.WithTime(context.Background(), time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC))
	overdue, err = s.svc.FindOverdue(after)
	s.Require().NoError(err)
	s.Require().Len(overdue, 1)
	s.Equal(l.ID, overdue[0].ID)
}

func TestLoanServiceSuite(t *testing.T) {
	suite.Run(t, new(LoanServiceSuite))
}
