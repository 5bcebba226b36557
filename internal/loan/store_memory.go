package loan

import (
	"context"
	"sort"
	"sync"
	"time"

	"novabook/pkg/platform/sentinel"
)

// InMemoryStore backs unit tests; it mirrors the PostgresStore contract
// without transactional semantics.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	loans  map[int64]Loan
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1, loans: make(map[int64]Loan)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.loans[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &l, nil
}

// FindByIDForUpdate matches the PostgresStore method; there is no row lock
// to take, the guarded MarkReturned carries the contract here.
func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, id int64) (*Loan, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemoryStore) List(_ context.Context) ([]Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(Loan) bool { return true }), nil
}

func (s *InMemoryStore) FindByMemberID(_ context.Context, memberID int64) ([]Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(l Loan) bool { return l.MemberID == memberID }), nil
}

func (s *InMemoryStore) FindByBookID(_ context.Context, bookID int64) ([]Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(l Loan) bool { return l.BookID == bookID }), nil
}

func (s *InMemoryStore) FindActiveByMemberID(_ context.Context, memberID int64) ([]Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(l Loan) bool { return l.MemberID == memberID && l.Active() }), nil
}

func (s *InMemoryStore) FindActiveByBookID(_ context.Context, bookID int64) ([]Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(l Loan) bool { return l.BookID == bookID && l.Active() }), nil
}

func (s *InMemoryStore) FindOverdue(_ context.Context, asOf time.Time) ([]Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(l Loan) bool { return l.OverdueAt(asOf) }), nil
}

func (s *InMemoryStore) CountActiveByMemberID(_ context.Context, memberID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, l := range s.loans {
		if l.MemberID == memberID && l.Active() {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) HasActiveLoan(_ context.Context, memberID, bookID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.loans {
		if l.MemberID == memberID && l.BookID == bookID && l.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) Create(_ context.Context, l *Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.nextID
	s.nextID++
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	s.loans[l.ID] = *l
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, l *Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loans[l.ID]; !ok {
		return sentinel.ErrNotFound
	}
	l.UpdatedAt = time.Now()
	s.loans[l.ID] = *l
	return nil
}

func (s *InMemoryStore) MarkReturned(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[id]
	if !ok || l.Returned {
		return sentinel.ErrNotFound
	}
	l.Returned = true
	l.UpdatedAt = time.Now()
	s.loans[id] = l
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loans[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.loans, id)
	return nil
}

// collect returns matching loans sorted by loan date descending, newest
// first, matching the SQL ordering.
func (s *InMemoryStore) collect(match func(Loan) bool) []Loan {
	out := make([]Loan, 0)
	for _, l := range s.loans {
		if match(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateLoaned.After(out[j].DateLoaned) })
	return out
}
