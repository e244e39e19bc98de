package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"workpulse/internal/platform/metrics"
	pkgerrors "workpulse/pkg/errors"
)

// Mirror receives a copy of every recorded entry on a best-effort basis.
// Implementations must not block and must swallow their own failures.
type Mirror interface {
	Publish(ctx context.Context, e Entry)
}

// Service owns audit recording and querying.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	mirror  Mirror
	clock   func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithMirror attaches a best-effort entry mirror (e.g. the Kafka firehose).
func WithMirror(m Mirror) Option {
	return func(s *Service) { s.mirror = m }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewService(store Store, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  logger,
		metrics: m,
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Record persists one immutable entry, assigning id and timestamp and
// deriving the client summary from the raw User-Agent.
func (s *Service) Record(ctx context.Context, e Entry) (*Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock()
	}
	e.Client = clientSummary(e.UserAgent)

	if err := s.store.Append(ctx, e); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncAuditRecords()
	}
	s.logger.InfoContext(ctx, "audit log created",
		"audit_id", e.ID,
		"event_type", e.EventType,
		"user_id", e.UserID,
	)

	if s.mirror != nil {
		s.mirror.Publish(ctx, e)
	}
	return &e, nil
}

// clientSummary renders "Chrome 120 on Linux" style strings from a raw
// User-Agent, or empty when there is nothing to parse.
func clientSummary(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return ""
	}
	if os := ua.OS(); os != "" {
		return fmt.Sprintf("%s %s on %s", name, version, os)
	}
	return fmt.Sprintf("%s %s", name, version)
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

func normalizePage(page, limit int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if page < 1 || limit < 1 || limit > maxLimit {
		return 0, 0, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid pagination parameters")
	}
	return page, limit, nil
}

// List returns one page of entries newest-first plus the total match count.
func (s *Service) List(ctx context.Context, f Filter) ([]Entry, int64, error) {
	var err error
	if f.Page, f.Limit, err = normalizePage(f.Page, f.Limit); err != nil {
		return nil, 0, err
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return nil, 0, pkgerrors.New(pkgerrors.CodeBadRequest, "end date before start date")
	}
	return s.store.List(ctx, f)
}

// Get returns a single entry by id.
func (s *Service) Get(ctx context.Context, id string) (*Entry, error) {
	return s.store.Get(ctx, id)
}

// Stats aggregates the trail, optionally scoped to one user. "Today" starts
// at local midnight.
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	now := s.clock()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.store.Stats(ctx, userID, dayStart)
}
