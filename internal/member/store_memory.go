package member

import (
	"context"
	"strings"
	"sync"
	"time"

	"novabook/pkg/platform/sentinel"
)

// InMemoryStore backs unit tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	members map[int64]Member
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1, members: make(map[int64]Member)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &m, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Member, 0, len(s.members))
	for _, m := range s.members {
		if !m.Deleted {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(name)
	out := make([]Member, 0)
	for _, m := range s.members {
		if !m.Deleted && strings.Contains(strings.ToLower(m.Name), needle) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Create(_ context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.nextID
	s.nextID++
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	s.members[m.ID] = *m
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.ID]; !ok {
		return sentinel.ErrNotFound
	}
	m.UpdatedAt = time.Now()
	s.members[m.ID] = *m
	return nil
}

func (s *InMemoryStore) SoftDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	m.Deleted = true
	m.Active = false
	m.UpdatedAt = time.Now()
	s.members[id] = m
	return nil
}

func (s *InMemoryStore) HardDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.members, id)
	return nil
}
