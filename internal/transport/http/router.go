// Package httptransport assembles the public HTTP surface: the producer
// endpoint, the query APIs, the websocket mount, and operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"workpulse/internal/audit"
	"workpulse/internal/hub"
	"workpulse/internal/notification"
	"workpulse/internal/platform/middleware"
	"workpulse/internal/queue"
)

const requestTimeout = 30 * time.Second

// Deps carries everything the router mounts.
type Deps struct {
	Logger        *slog.Logger
	Validator     middleware.JWTValidator
	Queue         queue.Queue
	Audit         *audit.Handler
	Notifications *notification.Handler
	Hub           *hub.Hub
}

// NewRouter wires middleware and routes. The websocket mount deliberately
// skips the timeout middleware; its connections are long-lived.
func NewRouter(d Deps) http.Handler {
	events := NewEventsHandler(d.Queue, d.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Logger(d.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(middleware.RequireAuth(d.Validator, d.Logger))

		r.Post("/api/events", events.handlePublish)
		d.Notifications.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.Logger))
			d.Audit.Register(r)
			r.Get("/api/events/dead-letters", events.handleDeadLetters)
		})
	})

	r.Get("/ws/notifications", d.Hub.ServeHTTP)

	return r
}
