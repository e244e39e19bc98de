//go:build integration

package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workpulse/internal/platform/postgres"
	"workpulse/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()
	require.NoError(t, postgres.Migrate(ctx, pc.DB))

	store := NewPostgres(pc.DB)
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	rows := []Notification{
		{
			ID: "n1", RecipientID: "admin-1", SenderID: "emp-1", SenderName: "Jane Doe",
			Type: TypeProfileUpdated, Title: "Profile Updated",
			Message:  "Jane Doe has updated their profile",
			Metadata: map[string]any{"changes": map[string]any{"name": "Jane Doe"}},
			CreatedAt: base,
		},
		{
			ID: "n2", RecipientID: "admin-1", SenderID: "emp-2", SenderName: "John Roe",
			Type: TypeNewEmployee, Title: "New Employee Created",
			Message:   "New employee John Roe has been added",
			CreatedAt: base.Add(time.Hour),
		},
		{
			ID: "n3", RecipientID: "admin-2", SenderID: "emp-1", SenderName: "Jane Doe",
			Type: TypeProfileUpdated, Title: "Profile Updated",
			Message:   "Jane Doe has updated their profile",
			CreatedAt: base.Add(2 * time.Hour),
		},
	}
	for _, n := range rows {
		require.NoError(t, store.Create(ctx, n))
	}

	t.Run("Get round-trips metadata and enforces recipient", func(t *testing.T) {
		got, err := store.Get(ctx, "n1", "admin-1")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"changes": map[string]any{"name": "Jane Doe"}}, got.Metadata)
		assert.False(t, got.IsRead)
		assert.Nil(t, got.ReadAt)

		_, err = store.Get(ctx, "n1", "admin-2")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("List is recipient-scoped and newest first", func(t *testing.T) {
		got, total, err := store.List(ctx, "admin-1", Filter{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, got, 2)
		assert.Equal(t, "n2", got[0].ID)
	})

	t.Run("MarkRead is idempotent and recipient-scoped", func(t *testing.T) {
		readAt := base.Add(3 * time.Hour)

		count, err := store.MarkRead(ctx, []string{"n1", "n3", "missing"}, "admin-1", readAt)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		got, err := store.Get(ctx, "n1", "admin-1")
		require.NoError(t, err)
		assert.True(t, got.IsRead)
		require.NotNil(t, got.ReadAt)
		assert.True(t, got.ReadAt.Equal(readAt))

		// Replay affects zero rows.
		count, err = store.MarkRead(ctx, []string{"n1"}, "admin-1", readAt.Add(time.Hour))
		require.NoError(t, err)
		assert.Zero(t, count)

		// The other recipient's row was never touched.
		other, err := store.Get(ctx, "n3", "admin-2")
		require.NoError(t, err)
		assert.False(t, other.IsRead)
	})

	t.Run("unread filter, MarkAllRead, UnreadCount", func(t *testing.T) {
		unread := false
		got, total, err := store.List(ctx, "admin-1", Filter{IsRead: &unread, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, got, 1)
		assert.Equal(t, "n2", got[0].ID)

		count, err := store.MarkAllRead(ctx, "admin-1", base.Add(4*time.Hour))
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		remaining, err := store.UnreadCount(ctx, "admin-1")
		require.NoError(t, err)
		assert.Zero(t, remaining)

		otherCount, err := store.UnreadCount(ctx, "admin-2")
		require.NoError(t, err)
		assert.EqualValues(t, 1, otherCount)
	})
}
