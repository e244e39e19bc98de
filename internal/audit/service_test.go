package audit

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "workpulse/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type captureMirror struct {
	mu      sync.Mutex
	entries []Entry
}

func (m *captureMirror) Publish(_ context.Context, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func TestServiceRecordAssignsIdentityAndClient(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	svc := NewService(store, testLogger(), nil, WithClock(func() time.Time { return now }))

	const chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	entry, err := svc.Record(context.Background(), Entry{
		UserID:      "u1",
		UserName:    "Jane Doe",
		EventType:   TypeProfileUpdate,
		EventAction: "updated",
		UserAgent:   chromeUA,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, now, entry.CreatedAt)
	assert.Contains(t, entry.Client, "Chrome")
	assert.Contains(t, entry.Client, "on Linux")

	stored, err := store.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Client, stored.Client)
}

func TestServiceRecordWithoutUserAgent(t *testing.T) {
	svc := NewService(NewInMemoryStore(), testLogger(), nil)

	entry, err := svc.Record(context.Background(), Entry{
		UserID:      "u1",
		EventType:   TypePasswordChange,
		EventAction: "updated",
	})
	require.NoError(t, err)
	assert.Empty(t, entry.Client)
}

func TestServiceRecordPublishesToMirror(t *testing.T) {
	mirror := &captureMirror{}
	svc := NewService(NewInMemoryStore(), testLogger(), nil, WithMirror(mirror))

	_, err := svc.Record(context.Background(), Entry{
		UserID:      "u1",
		EventType:   TypeProfileUpdate,
		EventAction: "updated",
	})
	require.NoError(t, err)

	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	require.Len(t, mirror.entries, 1)
	assert.Equal(t, "u1", mirror.entries[0].UserID)
}

func TestServiceListValidation(t *testing.T) {
	svc := NewService(NewInMemoryStore(), testLogger(), nil)
	ctx := context.Background()

	t.Run("defaults applied", func(t *testing.T) {
		_, _, err := svc.List(ctx, Filter{})
		assert.NoError(t, err)
	})

	t.Run("limit above maximum rejected", func(t *testing.T) {
		_, _, err := svc.List(ctx, Filter{Page: 1, Limit: 500})
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeBadRequest))
	})

	t.Run("negative page rejected", func(t *testing.T) {
		_, _, err := svc.List(ctx, Filter{Page: -1, Limit: 10})
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeBadRequest))
	})

	t.Run("inverted date range rejected", func(t *testing.T) {
		start := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
		end := start.Add(-time.Hour)
		_, _, err := svc.List(ctx, Filter{Start: &start, End: &end, Page: 1, Limit: 10})
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeBadRequest))
	})
}

func TestServiceStatsUsesLocalMidnight(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Date(2026, 8, 30, 15, 30, 0, 0, time.UTC)
	svc := NewService(store, testLogger(), nil, WithClock(func() time.Time { return now }))

	seedEntries(t, store,
		Entry{ID: "a1", UserID: "u1", EventType: TypeProfileUpdate, CreatedAt: now.Add(-20 * time.Hour)},
		Entry{ID: "a2", UserID: "u1", EventType: TypeProfileUpdate, CreatedAt: now.Add(-time.Hour)},
	)

	stats, err := svc.Stats(context.Background(), "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	// a1 landed yesterday relative to the 2026-08-30 midnight boundary.
	assert.EqualValues(t, 1, stats.Today)
}
