package user

import (
	"context"
	"sort"
	"sync"
	"time"

	"novabook/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1, users: make(map[int64]User)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(u User) bool { return !u.Deleted }), nil
}

func (s *InMemoryStore) FindByRole(_ context.Context, role Role) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(u User) bool { return u.Role == role && !u.Deleted }), nil
}

func (s *InMemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return sentinel.ErrConflict
		}
	}
	u.ID = s.nextID
	s.nextID++
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = *u
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok || existing.Deleted {
		return sentinel.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	s.users[u.ID] = *u
	return nil
}

func (s *InMemoryStore) SoftDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.Deleted = true
	u.Active = false
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

func (s *InMemoryStore) collect(match func(User) bool) []User {
	out := make([]User, 0)
	for _, u := range s.users {
		if match(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}
