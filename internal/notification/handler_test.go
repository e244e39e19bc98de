package notification

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workpulse/internal/transport/http/shared"
	"workpulse/pkg/testutil"
)

func newTestRouter(t *testing.T, store *InMemoryStore) http.Handler {
	t.Helper()
	svc := NewService(store, testLogger(), nil)
	r := chi.NewRouter()
	NewHandler(svc, testLogger()).Register(r)
	return r
}

func TestHandlerListIsRecipientScoped(t *testing.T) {
	store := NewInMemoryStore()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	seedNotifications(t, store,
		Notification{ID: "n1", RecipientID: "admin-1", Type: TypeProfileUpdated, CreatedAt: base},
		Notification{ID: "n2", RecipientID: "admin-2", Type: TypeProfileUpdated, CreatedAt: base.Add(time.Minute)},
	)
	router := newTestRouter(t, store)

	req := testutil.WithAdmin(testutil.NewRequest(t, http.MethodGet, "/api/notifications"), "admin-1", "Admin One")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[shared.Paginated[Notification]](t, rr)
	assert.EqualValues(t, 1, resp.Meta.Total)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "n1", resp.Data[0].ID)
}

func TestHandlerListRejectsBadIsRead(t *testing.T) {
	router := newTestRouter(t, NewInMemoryStore())

	req := testutil.WithAdmin(testutil.NewRequest(t, http.MethodGet, "/api/notifications?isRead=maybe"), "admin-1", "Admin One")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertErrorCode(t, rr, "bad_request")
}

func TestHandlerListRejectsNonPositivePagination(t *testing.T) {
	router := newTestRouter(t, NewInMemoryStore())

	for _, query := range []string{"?limit=0", "?limit=-5", "?page=0"} {
		req := testutil.WithAdmin(testutil.NewRequest(t, http.MethodGet, "/api/notifications"+query), "admin-1", "Admin One")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorCode(t, rr, "bad_request")
	}
}

func TestHandlerUnreadCount(t *testing.T) {
	store := NewInMemoryStore()
	seedNotifications(t, store,
		Notification{ID: "n1", RecipientID: "admin-1"},
		Notification{ID: "n2", RecipientID: "admin-1", IsRead: true},
	)
	router := newTestRouter(t, store)

	req := testutil.WithAdmin(testutil.NewRequest(t, http.MethodGet, "/api/notifications/unread-count"), "admin-1", "Admin One")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[map[string]int64](t, rr)
	assert.EqualValues(t, 1, (*resp)["count"])
}

func TestHandlerGet(t *testing.T) {
	store := NewInMemoryStore()
	seedNotifications(t, store, Notification{ID: "n1", RecipientID: "admin-1", Title: "Profile Updated"})
	router := newTestRouter(t, store)

	t.Run("own notification", func(t *testing.T) {
		req := testutil.WithAdmin(testutil.NewRequest(t, http.MethodGet, "/api/notifications/n1"), "admin-1", "Admin One")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		n := testutil.UnmarshalResponse[Notification](t, rr)
		assert.Equal(t, "Profile Updated", n.Title)
	})

	t.Run("someone else's notification", func(t *testing.T) {
		req := testutil.WithAdmin(testutil.NewRequest(t, http.MethodGet, "/api/notifications/n1"), "admin-2", "Admin Two")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}

func TestHandlerMarkRead(t *testing.T) {
	store := NewInMemoryStore()
	seedNotifications(t, store,
		Notification{ID: "n1", RecipientID: "admin-1"},
		Notification{ID: "n2", RecipientID: "admin-1"},
	)
	router := newTestRouter(t, store)

	body := map[string]any{"notificationIds": []string{"n1", "n2"}}
	req := testutil.WithAdmin(testutil.NewJSONRequest(t, http.MethodPost, "/api/notifications/mark-as-read", body), "admin-1", "Admin One")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[markReadResponse](t, rr)
	assert.True(t, resp.Success)
	assert.EqualValues(t, 2, resp.Count)

	// Replay: already-read rows do not count again.
	req = testutil.WithAdmin(testutil.NewJSONRequest(t, http.MethodPost, "/api/notifications/mark-as-read", body), "admin-1", "Admin One")
	rr = testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	resp = testutil.UnmarshalResponse[markReadResponse](t, rr)
	assert.True(t, resp.Success)
	assert.Zero(t, resp.Count)
}

func TestHandlerMarkReadRejectsEmptyIDs(t *testing.T) {
	router := newTestRouter(t, NewInMemoryStore())

	body := map[string]any{"notificationIds": []string{}}
	req := testutil.WithAdmin(testutil.NewJSONRequest(t, http.MethodPost, "/api/notifications/mark-as-read", body), "admin-1", "Admin One")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandlerMarkAllRead(t *testing.T) {
	store := NewInMemoryStore()
	seedNotifications(t, store,
		Notification{ID: "n1", RecipientID: "admin-1"},
		Notification{ID: "n2", RecipientID: "admin-1"},
		Notification{ID: "n3", RecipientID: "admin-2"},
	)
	router := newTestRouter(t, store)

	req := testutil.WithAdmin(testutil.NewRequest(t, http.MethodPost, "/api/notifications/mark-all-as-read"), "admin-1", "Admin One")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[markReadResponse](t, rr)
	assert.EqualValues(t, 2, resp.Count)
}
