package audit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workpulse/internal/transport/http/shared"
	"workpulse/pkg/testutil"
)

func newTestRouter(t *testing.T, store *InMemoryStore, opts ...Option) http.Handler {
	t.Helper()
	svc := NewService(store, testLogger(), nil, opts...)
	r := chi.NewRouter()
	NewHandler(svc, testLogger()).Register(r)
	return r
}

func TestHandlerListAuditLogs(t *testing.T) {
	store := NewInMemoryStore()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	seedEntries(t, store,
		Entry{ID: "a1", UserID: "u1", UserName: "Jane Doe", EventType: TypeProfileUpdate, CreatedAt: base},
		Entry{ID: "a2", UserID: "u2", UserName: "John Roe", EventType: TypePasswordChange, CreatedAt: base.Add(time.Hour)},
	)
	router := newTestRouter(t, store)

	t.Run("returns paginated envelope", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/audit-logs"))
		testutil.AssertStatus(t, rr, http.StatusOK)

		resp := testutil.UnmarshalResponse[shared.Paginated[Entry]](t, rr)
		assert.EqualValues(t, 2, resp.Meta.Total)
		assert.EqualValues(t, 1, resp.Meta.TotalPages)
		require.Len(t, resp.Data, 2)
		assert.Equal(t, "a2", resp.Data[0].ID)
	})

	t.Run("filters by userId", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/audit-logs?userId=u1"))
		testutil.AssertStatus(t, rr, http.StatusOK)

		resp := testutil.UnmarshalResponse[shared.Paginated[Entry]](t, rr)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "a1", resp.Data[0].ID)
	})

	t.Run("date-only end bound includes the whole day", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet,
			"/api/audit-logs?startDate=2026-08-30&endDate=2026-08-30"))
		testutil.AssertStatus(t, rr, http.StatusOK)

		resp := testutil.UnmarshalResponse[shared.Paginated[Entry]](t, rr)
		assert.EqualValues(t, 2, resp.Meta.Total)
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/audit-logs?startDate=yesterday"))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertErrorCode(t, rr, "bad_request")
	})

	t.Run("rejects malformed page", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/audit-logs?page=abc"))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("rejects non-positive limit and page", func(t *testing.T) {
		for _, query := range []string{"?limit=0", "?page=-1"} {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/audit-logs"+query))
			testutil.AssertStatus(t, rr, http.StatusBadRequest)
			testutil.AssertErrorCode(t, rr, "bad_request")
		}
	})
}

func TestHandlerGetAuditLog(t *testing.T) {
	store := NewInMemoryStore()
	seedEntries(t, store, Entry{ID: "a1", UserID: "u1", EventType: TypeProfileUpdate})
	router := newTestRouter(t, store)

	t.Run("found", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/audit-logs/a1"))
		testutil.AssertStatus(t, rr, http.StatusOK)

		entry := testutil.UnmarshalResponse[Entry](t, rr)
		assert.Equal(t, "u1", entry.UserID)
	})

	t.Run("not found", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/audit-logs/missing"))
		testutil.AssertStatus(t, rr, http.StatusNotFound)
		testutil.AssertErrorCode(t, rr, "not_found")
	})
}

func TestHandlerStats(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Append(context.Background(), Entry{
		ID: "a1", UserID: "u1", EventType: TypeProfileUpdate, CreatedAt: time.Now(),
	}))
	router := newTestRouter(t, store)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/audit-logs/stats"))
	testutil.AssertStatus(t, rr, http.StatusOK)

	stats := testutil.UnmarshalResponse[Stats](t, rr)
	assert.EqualValues(t, 1, stats.Total)
	require.Len(t, stats.ByEventType, 1)
	assert.Equal(t, TypeProfileUpdate, stats.ByEventType[0].EventType)
}
