package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// client is one live connection handle. Raw handles never leave the hub.
type client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	quit   chan struct{} // closed inside once on teardown
	once   sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, userID string) *client {
	return &client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		quit:   make(chan struct{}),
	}
}

// trySend queues a message without blocking. A full buffer means the client
// is too slow to keep up; it gets torn down rather than stalling the hub.
func (c *client) trySend(msg []byte) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.teardown()
		return false
	}
}

// teardown may be called concurrently from both pumps and any number of
// overflowing senders; the Once collapses them into a single close.
func (c *client) teardown() {
	c.once.Do(func() {
		close(c.quit)
		c.hub.unregister(c)
		c.conn.Close()
	})
}

// command is what clients may send over the socket.
type command struct {
	Action          string   `json:"action"`
	NotificationIDs []string `json:"notificationIds,omitempty"`
}

// readPump consumes client commands until the connection drops.
func (c *client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.reply("error", map[string]string{"message": "invalid command"})
			continue
		}
		c.handleCommand(cmd)
	}
}

// handleCommand mirrors the REST semantics over the socket. Mark commands
// trigger a fresh unread-count push to every connection of this recipient.
func (c *client) handleCommand(cmd command) {
	ctx := context.Background()
	switch cmd.Action {
	case "markAsRead":
		count, err := c.hub.notifications.MarkRead(ctx, cmd.NotificationIDs, c.userID)
		if err != nil {
			c.reply(cmd.Action, map[string]any{"success": false, "message": "failed to mark as read"})
			return
		}
		c.reply(cmd.Action, map[string]any{"success": true, "count": count})
		c.hub.PushUnreadCount(ctx, c.userID)
	case "markAllAsRead":
		count, err := c.hub.notifications.MarkAllRead(ctx, c.userID)
		if err != nil {
			c.reply(cmd.Action, map[string]any{"success": false, "message": "failed to mark all as read"})
			return
		}
		c.reply(cmd.Action, map[string]any{"success": true, "count": count})
		c.hub.PushUnreadCount(ctx, c.userID)
	case "getUnreadCount":
		count, err := c.hub.notifications.UnreadCount(ctx, c.userID)
		if err != nil {
			c.reply(cmd.Action, map[string]any{"count": 0})
			return
		}
		c.reply(cmd.Action, map[string]int64{"count": count})
	default:
		c.reply("error", map[string]string{"message": "unknown action: " + cmd.Action})
	}
}

// reply sends a response frame to this connection only.
func (c *client) reply(event string, payload any) {
	msg, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return
	}
	c.trySend(msg)
}

// writePump drains the send buffer and keeps the connection alive with
// pings. Exactly one writer per connection, as the websocket package
// requires.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.quit:
			return
		}
	}
}
