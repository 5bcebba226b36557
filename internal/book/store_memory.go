package book

import (
	"context"
	"strings"
	"sync"
	"time"

	"novabook/pkg/platform/sentinel"
)

// InMemoryStore backs unit tests; it mirrors the PostgresStore contract
// without transactional semantics.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	books  map[int64]Book
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1, books: make(map[int64]Book)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &b, nil
}

// FindByIDForUpdate behaves like FindByID; row locking has no in-memory
// equivalent.
func (s *InMemoryStore) FindByIDForUpdate(ctx context.Context, id int64) (*Book, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemoryStore) FindByISBN(_ context.Context, isbn string) (*Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		if b.ISBN == isbn {
			return &b, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	return out, nil
}

func (s *InMemoryStore) Search(_ context.Context, term string) ([]Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(term)
	out := make([]Book, 0)
	for _, b := range s.books {
		if strings.Contains(strings.ToLower(b.Title), needle) || strings.Contains(strings.ToLower(b.Author), needle) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Create(_ context.Context, b *Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.books {
		if existing.ISBN == b.ISBN {
			return sentinel.ErrConflict
		}
	}
	b.ID = s.nextID
	s.nextID++
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	s.books[b.ID] = *b
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, b *Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[b.ID]; !ok {
		return sentinel.ErrNotFound
	}
	b.UpdatedAt = time.Now()
	s.books[b.ID] = *b
	return nil
}

func (s *InMemoryStore) UpdateStock(_ context.Context, id int64, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	b.Stock = stock
	b.UpdatedAt = time.Now()
	s.books[id] = b
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.books, id)
	return nil
}
