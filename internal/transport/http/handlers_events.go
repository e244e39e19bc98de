package httptransport

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"workpulse/internal/event"
	"workpulse/internal/platform/middleware"
	"workpulse/internal/queue"
	"workpulse/internal/transport/http/shared"
	pkgerrors "workpulse/pkg/errors"
)

// EventsHandler is the producer edge: it validates and enqueues, never
// processes. A 202 means the event is durably queued, not processed.
type EventsHandler struct {
	logger *slog.Logger
	queue  queue.Queue
}

func NewEventsHandler(q queue.Queue, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{logger: logger, queue: q}
}

type publishEventRequest struct {
	EventType   string         `json:"eventType"`
	EventAction string         `json:"eventAction"`
	OldData     map[string]any `json:"oldData,omitempty"`
	NewData     map[string]any `json:"newData,omitempty"`
}

func (h *EventsHandler) handlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req publishEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return
	}

	typ, err := event.ParseType(req.EventType)
	if err != nil {
		shared.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, err.Error()))
		return
	}
	action, err := event.ParseAction(req.EventAction)
	if err != nil {
		shared.WriteError(w, pkgerrors.New(pkgerrors.CodeBadRequest, err.Error()))
		return
	}

	evt := event.Event{
		UserID:    middleware.GetUserID(ctx),
		UserName:  middleware.GetUserName(ctx),
		Type:      typ,
		Action:    action,
		OldData:   req.OldData,
		NewData:   req.NewData,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		Timestamp: time.Now(),
	}

	if err := h.queue.Enqueue(ctx, evt); err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue event",
			"request_id", middleware.GetRequestID(ctx),
			"event_type", evt.Type,
			"error", err,
		)
		shared.WriteError(w, pkgerrors.New(pkgerrors.CodeInternal, "failed to enqueue event"))
		return
	}

	shared.WriteJSON(w, http.StatusAccepted, map[string]any{"accepted": true})
}

// handleDeadLetters lets operators inspect jobs that exhausted their retries.
func (h *EventsHandler) handleDeadLetters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := shared.QueryInt(r, "limit", 100)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	jobs, err := h.queue.DeadLetters(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list dead letters",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, pkgerrors.New(pkgerrors.CodeInternal, "failed to list dead letters"))
		return
	}
	if jobs == nil {
		jobs = []queue.Job{}
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{"data": jobs})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
