package notification

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"workpulse/internal/platform/middleware"
	"workpulse/internal/transport/http/shared"
	pkgerrors "workpulse/pkg/errors"
)

// Handler exposes the recipient-scoped notification API. The recipient is
// always the authenticated caller; there is no way to address another
// user's notifications.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the notification routes. The caller is expected to wrap
// the router in RequireAuth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/notifications", h.handleList)
	r.Get("/api/notifications/unread-count", h.handleUnreadCount)
	r.Get("/api/notifications/{id}", h.handleGet)
	r.Post("/api/notifications/mark-as-read", h.handleMarkRead)
	r.Post("/api/notifications/mark-all-as-read", h.handleMarkAllRead)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recipientID := middleware.GetUserID(ctx)

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

	f := Filter{Page: page, Limit: limit}
	if raw := r.URL.Query().Get("isRead"); raw != "" {
		isRead, err := strconv.ParseBool(raw)
		if err != nil {
			shared.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid isRead parameter"))
			return
		}
		f.IsRead = &isRead
	}

	notifications, total, err := h.service.List(ctx, recipientID, f)
	if err != nil {
		if !pkgerrors.Is(err, pkgerrors.CodeBadRequest) {
			h.logger.ErrorContext(ctx, "failed to list notifications",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
			err = pkgerrors.New(pkgerrors.CodeInternal, "failed to list notifications")
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, shared.NewPaginated(notifications, f.Page, f.Limit, total))
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.service.UnreadCount(ctx, middleware.GetUserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get unread count",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, pkgerrors.New(pkgerrors.CodeInternal, "failed to get unread count"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := h.service.FindOne(ctx, chi.URLParam(r, "id"), middleware.GetUserID(ctx))
	if err != nil {
		if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to get notification",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
			err = pkgerrors.New(pkgerrors.CodeInternal, "failed to get notification")
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, n)
}

type markReadRequest struct {
	NotificationIDs []string `json:"notificationIds"`
}

type markReadResponse struct {
	Success bool  `json:"success"`
	Count   int64 `json:"count"`
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}

	count, err := h.service.MarkRead(ctx, req.NotificationIDs, middleware.GetUserID(ctx))
	if err != nil {
		if !pkgerrors.Is(err, pkgerrors.CodeBadRequest) {
			h.logger.ErrorContext(ctx, "failed to mark notifications read",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
			err = pkgerrors.New(pkgerrors.CodeInternal, "failed to mark notifications read")
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, markReadResponse{Success: true, Count: count})
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.service.MarkAllRead(ctx, middleware.GetUserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to mark all notifications read",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, pkgerrors.New(pkgerrors.CodeInternal, "failed to mark all notifications read"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, markReadResponse{Success: true, Count: count})
}
