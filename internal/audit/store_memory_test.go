package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEntries(t *testing.T, s *InMemoryStore, entries ...Entry) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, s.Append(context.Background(), e))
	}
}

func TestInMemoryStoreListFiltersAndPaginates(t *testing.T) {
	s := NewInMemoryStore()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	seedEntries(t, s,
		Entry{ID: "a1", UserID: "u1", EventType: TypeProfileUpdate, CreatedAt: base},
		Entry{ID: "a2", UserID: "u1", EventType: TypePasswordChange, CreatedAt: base.Add(time.Minute)},
		Entry{ID: "a3", UserID: "u2", EventType: TypeProfileUpdate, CreatedAt: base.Add(2 * time.Minute)},
		Entry{ID: "a4", UserID: "u2", EventType: TypeEmployeeCreated, CreatedAt: base.Add(3 * time.Minute)},
	)

	t.Run("newest first", func(t *testing.T) {
		entries, total, err := s.List(context.Background(), Filter{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		require.Len(t, entries, 4)
		assert.Equal(t, "a4", entries[0].ID)
		assert.Equal(t, "a1", entries[3].ID)
	})

	t.Run("filter by user", func(t *testing.T) {
		entries, total, err := s.List(context.Background(), Filter{UserID: "u1", Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, entries, 2)
		assert.Equal(t, "a2", entries[0].ID)
	})

	t.Run("filter by event type", func(t *testing.T) {
		entries, total, err := s.List(context.Background(), Filter{EventType: TypeProfileUpdate, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, entries, 2)
	})

	t.Run("date range", func(t *testing.T) {
		start := base.Add(time.Minute)
		end := base.Add(2 * time.Minute)
		entries, total, err := s.List(context.Background(), Filter{Start: &start, End: &end, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, entries, 2)
		assert.Equal(t, "a3", entries[0].ID)
		assert.Equal(t, "a2", entries[1].ID)
	})

	t.Run("pagination totals survive paging", func(t *testing.T) {
		entries, total, err := s.List(context.Background(), Filter{Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		require.Len(t, entries, 1)
		assert.Equal(t, "a1", entries[0].ID)
	})

	t.Run("page past the end", func(t *testing.T) {
		entries, total, err := s.List(context.Background(), Filter{Page: 9, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		assert.Empty(t, entries)
	})
}

func TestInMemoryStoreGet(t *testing.T) {
	s := NewInMemoryStore()
	seedEntries(t, s, Entry{ID: "a1", UserID: "u1", EventType: TypeProfileUpdate})

	entry, err := s.Get(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "u1", entry.UserID)

	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStoreStats(t *testing.T) {
	s := NewInMemoryStore()
	dayStart := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	seedEntries(t, s,
		Entry{ID: "a1", UserID: "u1", EventType: TypeProfileUpdate, CreatedAt: dayStart.Add(-time.Hour)},
		Entry{ID: "a2", UserID: "u1", EventType: TypeProfileUpdate, CreatedAt: dayStart.Add(time.Hour)},
		Entry{ID: "a3", UserID: "u1", EventType: TypePasswordChange, CreatedAt: dayStart.Add(2 * time.Hour)},
		Entry{ID: "a4", UserID: "u2", EventType: TypeProfileUpdate, CreatedAt: dayStart.Add(3 * time.Hour)},
	)

	t.Run("global", func(t *testing.T) {
		stats, err := s.Stats(context.Background(), "", dayStart)
		require.NoError(t, err)
		assert.EqualValues(t, 4, stats.Total)
		assert.EqualValues(t, 3, stats.Today)
		require.Len(t, stats.ByEventType, 2)
		assert.Equal(t, TypeProfileUpdate, stats.ByEventType[0].EventType)
		assert.EqualValues(t, 3, stats.ByEventType[0].Count)
	})

	t.Run("scoped to one user", func(t *testing.T) {
		stats, err := s.Stats(context.Background(), "u2", dayStart)
		require.NoError(t, err)
		assert.EqualValues(t, 1, stats.Total)
		assert.EqualValues(t, 1, stats.Today)
	})
}
