package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore keeps the audit trail in process memory. Used by unit tests
// and single-node development; production uses PostgresStore.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *InMemoryStore) matches(e Entry, f Filter) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.Start != nil && e.CreatedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && e.CreatedAt.After(*f.End) {
		return false
	}
	return true
}

func (s *InMemoryStore) List(_ context.Context, f Filter) ([]Entry, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entry
	for _, e := range s.entries {
		if s.matches(e, f) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		return []Entry{}, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return append([]Entry{}, matched[start:end]...), total, nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			e := s.entries[i]
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) Stats(_ context.Context, userID string, dayStart time.Time) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{}
	byType := make(map[string]int64)
	for _, e := range s.entries {
		if userID != "" && e.UserID != userID {
			continue
		}
		stats.Total++
		if !e.CreatedAt.Before(dayStart) {
			stats.Today++
		}
		byType[e.EventType]++
	}

	for eventType, count := range byType {
		stats.ByEventType = append(stats.ByEventType, TypeCount{EventType: eventType, Count: count})
	}
	sort.SliceStable(stats.ByEventType, func(i, j int) bool {
		if stats.ByEventType[i].Count != stats.ByEventType[j].Count {
			return stats.ByEventType[i].Count > stats.ByEventType[j].Count
		}
		return stats.ByEventType[i].EventType < stats.ByEventType[j].EventType
	})
	return stats, nil
}
