package notification

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore keeps notifications in process memory for unit tests and
// single-node development.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[string]*Notification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[string]*Notification)}
}

func (s *InMemoryStore) Create(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := n
	s.rows[n.ID] = &row
	return nil
}

func (s *InMemoryStore) List(_ context.Context, recipientID string, f Filter) ([]Notification, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Notification
	for _, row := range s.rows {
		if row.RecipientID != recipientID {
			continue
		}
		if f.IsRead != nil && row.IsRead != *f.IsRead {
			continue
		}
		matched = append(matched, *row)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		return []Notification{}, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]Notification{}, matched[start:end]...), total, nil
}

func (s *InMemoryStore) Get(_ context.Context, id, recipientID string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	if !ok || row.RecipientID != recipientID {
		return nil, ErrNotFound
	}
	n := *row
	return &n, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, ids []string, recipientID string, readAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, id := range ids {
		row, ok := s.rows[id]
		if !ok || row.RecipientID != recipientID || row.IsRead {
			continue
		}
		row.IsRead = true
		t := readAt
		row.ReadAt = &t
		count++
	}
	return count, nil
}

func (s *InMemoryStore) MarkAllRead(_ context.Context, recipientID string, readAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, row := range s.rows {
		if row.RecipientID != recipientID || row.IsRead {
			continue
		}
		row.IsRead = true
		t := readAt
		row.ReadAt = &t
		count++
	}
	return count, nil
}

func (s *InMemoryStore) UnreadCount(_ context.Context, recipientID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, row := range s.rows {
		if row.RecipientID == recipientID && !row.IsRead {
			count++
		}
	}
	return count, nil
}
