// Package hub maintains the set of live client connections keyed by user
// identity and delivers push messages. Connection state is process-local
// and never persisted: the notification store holds the durable copy, so a
// recipient with no live connection simply fetches on next connect.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"workpulse/internal/directory"
	"workpulse/internal/notification"
	"workpulse/internal/platform/metrics"
	"workpulse/internal/platform/middleware"
)

// Envelope is the wire frame for every push: an event name plus payload.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub tracks live connections per recipient. The clients map is the only
// shared mutable state in the pipeline; every mutation holds mu.
type Hub struct {
	logger        *slog.Logger
	metrics       *metrics.Metrics
	notifications *notification.Service
	directory     directory.Store
	validator     middleware.JWTValidator
	upgrader      websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

// Option configures the Hub.
type Option func(*Hub)

// WithValidator lets clients authenticate with a bearer token instead of a
// bare userId parameter.
func WithValidator(v middleware.JWTValidator) Option {
	return func(h *Hub) { h.validator = v }
}

func New(notifications *notification.Service, dir directory.Store, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Hub {
	h := &Hub{
		logger:        logger,
		metrics:       m,
		notifications: notifications,
		directory:     dir,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from a different origin than the API.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]map[*client]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// identify resolves the connecting recipient. A connection without an
// identity is rejected before the upgrade.
func (h *Hub) identify(r *http.Request) string {
	if userID := r.URL.Query().Get("userId"); userID != "" {
		return userID
	}
	if h.validator == nil {
		return ""
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		return ""
	}
	claims, err := h.validator.ValidateToken(token)
	if err != nil {
		return ""
	}
	return claims.UserID
}

// ServeHTTP upgrades the connection and runs its read/write pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := h.identify(r)
	if userID == "" {
		h.logger.WarnContext(r.Context(), "websocket connect without identity rejected",
			"remote_addr", r.RemoteAddr,
		)
		http.Error(w, "recipient identity required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := newClient(h, conn, userID)
	h.register(c)

	go c.writePump()
	go c.readPump()

	// The client's first frame is its current unread total.
	h.PushUnreadCount(context.Background(), userID)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	total := len(set)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.AddLiveConnections(1)
	}
	h.logger.Info("client connected",
		"user_id", c.userID,
		"connections", total,
	)
}

// unregister removes one connection handle. The last handle for a recipient
// removes the recipient entry entirely.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if ok {
		if _, present := set[c]; present {
			delete(set, c)
			if len(set) == 0 {
				delete(h.clients, c.userID)
			}
		} else {
			ok = false
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	if h.metrics != nil {
		h.metrics.AddLiveConnections(-1)
	}
	h.logger.Info("client disconnected", "user_id", c.userID)
}

// SendToUser pushes an event to every live connection of one recipient.
// Recipients with no live connection are skipped: there is no
// store-and-forward here.
func (h *Hub) SendToUser(recipientID, event string, payload any) {
	msg, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		h.logger.Error("failed to marshal push payload", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[recipientID]))
	for c := range h.clients[recipientID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.trySend(msg) {
			if h.metrics != nil {
				h.metrics.IncPushesSent()
			}
		}
	}
}

// BroadcastToAdmins resolves the administrator set and pushes to each.
func (h *Hub) BroadcastToAdmins(ctx context.Context, event string, payload any) {
	admins, err := h.directory.Admins(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve admins for broadcast", "error", err)
		return
	}
	for _, admin := range admins {
		h.SendToUser(admin.ID, event, payload)
	}
}

// PushUnreadCount sends the recipient's current unread total to all of
// their connections.
func (h *Hub) PushUnreadCount(ctx context.Context, recipientID string) {
	count, err := h.notifications.UnreadCount(ctx, recipientID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute unread count for push",
			"recipient_id", recipientID,
			"error", err,
		)
		return
	}
	h.SendToUser(recipientID, "unreadCount", map[string]int64{"count": count})
}

// Connections reports the live connection count for a recipient.
func (h *Hub) Connections(recipientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[recipientID])
}
