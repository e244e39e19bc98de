package notification

import (
	"context"
	"time"

	pkgerrors "workpulse/pkg/errors"
)

// ErrNotFound covers both a missing row and a row owned by another
// recipient, so lookups never leak existence across recipients.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")

// Store persists notifications. All read-state mutations are scoped by
// recipient in the statement itself, never by a separate authorization
// check.
type Store interface {
	Create(ctx context.Context, n Notification) error
	List(ctx context.Context, recipientID string, f Filter) ([]Notification, int64, error)
	Get(ctx context.Context, id, recipientID string) (*Notification, error)
	MarkRead(ctx context.Context, ids []string, recipientID string, readAt time.Time) (int64, error)
	MarkAllRead(ctx context.Context, recipientID string, readAt time.Time) (int64, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
}
