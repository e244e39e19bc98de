package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"workpulse/internal/platform/metrics"
	pkgerrors "workpulse/pkg/errors"
)

// Service owns notification creation and read-state transitions.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewService(store Store, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{store: store, logger: logger, metrics: m, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateInput carries what the processor knows when it fans out an event.
type CreateInput struct {
	RecipientID string
	SenderID    string
	SenderName  string
	Type        string
	Title       string
	Message     string
	Metadata    map[string]any
}

// Create inserts one unread notification and returns the stored row.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Notification, error) {
	if in.RecipientID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "notification requires a recipient")
	}

	n := Notification{
		ID:          uuid.NewString(),
		RecipientID: in.RecipientID,
		SenderID:    in.SenderID,
		SenderName:  in.SenderName,
		Type:        in.Type,
		Title:       in.Title,
		Message:     in.Message,
		Metadata:    in.Metadata,
		IsRead:      false,
		CreatedAt:   s.clock(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncNotificationsCreated()
	}
	s.logger.InfoContext(ctx, "notification created",
		"notification_id", n.ID,
		"type", n.Type,
		"recipient_id", n.RecipientID,
	)
	return &n, nil
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// List returns one page of the recipient's notifications newest-first.
func (s *Service) List(ctx context.Context, recipientID string, f Filter) ([]Notification, int64, error) {
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = defaultLimit
	}
	if f.Page < 1 || f.Limit < 1 || f.Limit > maxLimit {
		return nil, 0, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid pagination parameters")
	}
	return s.store.List(ctx, recipientID, f)
}

// FindOne returns a notification only if it belongs to the recipient.
func (s *Service) FindOne(ctx context.Context, id, recipientID string) (*Notification, error) {
	return s.store.Get(ctx, id, recipientID)
}

// MarkRead flips the listed notifications to read for this recipient only.
// Returns how many rows actually changed, so a second identical call
// returns zero.
func (s *Service) MarkRead(ctx context.Context, ids []string, recipientID string) (int64, error) {
	if len(ids) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeBadRequest, "notificationIds must not be empty")
	}
	count, err := s.store.MarkRead(ctx, ids, recipientID, s.clock())
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "notifications marked read",
		"recipient_id", recipientID,
		"count", count,
	)
	return count, nil
}

// MarkAllRead flips every unread notification for the recipient.
func (s *Service) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	count, err := s.store.MarkAllRead(ctx, recipientID, s.clock())
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "all notifications marked read",
		"recipient_id", recipientID,
		"count", count,
	)
	return count, nil
}

// UnreadCount returns the recipient's current unread total.
func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.store.UnreadCount(ctx, recipientID)
}
