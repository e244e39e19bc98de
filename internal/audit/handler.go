package audit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"workpulse/internal/platform/middleware"
	"workpulse/internal/transport/http/shared"
	pkgerrors "workpulse/pkg/errors"
)

// Handler exposes the admin-only audit query API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the audit routes. The caller is expected to wrap the
// router in RequireAuth + RequireAdmin.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/audit-logs", h.handleList)
	r.Get("/api/audit-logs/stats", h.handleStats)
	r.Get("/api/audit-logs/{id}", h.handleGet)
}

func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid date: "+raw)
		}
		return &t, nil
	}
	if endOfDay {
		// Date-only end bounds include the whole day.
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := shared.QueryPositiveInt(r, "page", 1)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	limit, err := shared.QueryPositiveInt(r, "limit", 20)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	start, err := parseDate(r.URL.Query().Get("startDate"), false)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	end, err := parseDate(r.URL.Query().Get("endDate"), true)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	f := Filter{
		UserID:    r.URL.Query().Get("userId"),
		EventType: r.URL.Query().Get("eventType"),
		Start:     start,
		End:       end,
		Page:      page,
		Limit:     limit,
	}

	entries, total, err := h.service.List(ctx, f)
	if err != nil {
		if !pkgerrors.Is(err, pkgerrors.CodeBadRequest) {
			h.logger.ErrorContext(ctx, "failed to list audit logs",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
			err = pkgerrors.New(pkgerrors.CodeInternal, "failed to list audit logs")
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, shared.NewPaginated(entries, f.Page, f.Limit, total))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	entry, err := h.service.Get(ctx, id)
	if err != nil {
		if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to get audit log",
				"request_id", middleware.GetRequestID(ctx),
				"audit_id", id,
				"error", err,
			)
			err = pkgerrors.New(pkgerrors.CodeInternal, "failed to get audit log")
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.Stats(ctx, r.URL.Query().Get("userId"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute audit stats",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, pkgerrors.New(pkgerrors.CodeInternal, "failed to compute audit stats"))
		return
	}
	if stats.ByEventType == nil {
		stats.ByEventType = []TypeCount{}
	}

	shared.WriteJSON(w, http.StatusOK, stats)
}
