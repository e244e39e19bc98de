package directory

import (
	"context"
	"sync"
)

// InMemoryStore is a seedable user directory for tests and development.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]User)}
}

// Seed inserts or replaces a user record.
func (s *InMemoryStore) Seed(users ...User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.ID] = u
	}
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *InMemoryStore) Admins(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var admins []User
	for _, u := range s.users {
		if u.Role == RoleAdmin {
			admins = append(admins, u)
		}
	}
	return admins, nil
}
