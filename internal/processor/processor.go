// Package processor consumes jobs from the queue and fans each event out to
// its side effects: an audit record, notifications for administrators, and
// live pushes. Handlers are idempotent-free by design; the queue's
// at-least-once delivery means a retried job repeats its side effects.
package processor

//go:generate mockgen -source=processor.go -destination=mocks/mocks.go -package=mocks AuditLog,Notifier,AdminDirectory,Pusher

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"workpulse/internal/audit"
	"workpulse/internal/directory"
	"workpulse/internal/event"
	"workpulse/internal/notification"
	"workpulse/internal/queue"
)

// AuditLog is the slice of the audit service the processor needs.
type AuditLog interface {
	Record(ctx context.Context, e audit.Entry) (*audit.Entry, error)
}

// Notifier creates durable notifications.
type Notifier interface {
	Create(ctx context.Context, in notification.CreateInput) (*notification.Notification, error)
}

// AdminDirectory resolves the administrator set for fan-out.
type AdminDirectory interface {
	Admins(ctx context.Context) ([]directory.User, error)
}

// Pusher delivers a payload to a recipient's live connections. Delivery is
// best-effort; recipients without a connection are skipped.
type Pusher interface {
	SendToUser(recipientID, event string, payload any)
}

type handlerFunc func(ctx context.Context, evt event.Event) error

// Processor dispatches events to their handlers. The dispatch table is
// closed over the event catalogue; New refuses to build a processor that
// would drop an event type on the floor.
type Processor struct {
	logger   *slog.Logger
	audit    AuditLog
	notifier Notifier
	dir      AdminDirectory
	pusher   Pusher
	tracer   trace.Tracer

	handlers map[event.Type]handlerFunc
}

func New(auditLog AuditLog, notifier Notifier, dir AdminDirectory, pusher Pusher, logger *slog.Logger) (*Processor, error) {
	p := &Processor{
		logger:   logger,
		audit:    auditLog,
		notifier: notifier,
		dir:      dir,
		pusher:   pusher,
		tracer:   otel.Tracer("workpulse/processor"),
	}
	p.handlers = map[event.Type]handlerFunc{
		event.TypeProfileUpdated:     p.handleProfileUpdated,
		event.TypePasswordChanged:    p.handlePasswordChanged,
		event.TypePhotoUpdated:       p.handlePhotoUpdated,
		event.TypePhoneUpdated:       p.handlePhoneUpdated,
		event.TypeEmployeeCreated:    p.handleEmployeeCreated,
		event.TypeEmployeeUpdated:    p.handleEmployeeUpdated,
		event.TypeEmployeeDeleted:    p.handleEmployeeDeleted,
		event.TypeAttendanceClockIn:  p.handleAttendanceClockIn,
		event.TypeAttendanceClockOut: p.handleAttendanceClockOut,
	}
	for _, t := range event.AllTypes {
		if _, ok := p.handlers[t]; !ok {
			return nil, fmt.Errorf("no handler registered for event type %q", t)
		}
	}
	return p, nil
}

// Process is the queue handler. A returned error leaves the job to the
// queue's retry schedule; partial side effects are not rolled back.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	ctx, span := p.tracer.Start(ctx, "processor.process",
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.String("event.type", string(job.Event.Type)),
		),
	)
	defer span.End()

	h, ok := p.handlers[job.Event.Type]
	if !ok {
		err := fmt.Errorf("no handler for event type %q", job.Event.Type)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := h(ctx, job.Event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// record writes the audit entry for one event under its canonical type name.
func (p *Processor) record(ctx context.Context, evt event.Event, auditType string, oldData, newData map[string]any) error {
	_, err := p.audit.Record(ctx, audit.Entry{
		UserID:      evt.UserID,
		UserName:    evt.UserName,
		EventType:   auditType,
		EventAction: string(evt.Action),
		OldData:     oldData,
		NewData:     newData,
		IPAddress:   evt.IPAddress,
		UserAgent:   evt.UserAgent,
	})
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// notifyAdmins creates one notification per administrator and pushes each to
// the recipient's live connections.
func (p *Processor) notifyAdmins(ctx context.Context, evt event.Event, typ, title, message string, metadata map[string]any) error {
	admins, err := p.dir.Admins(ctx)
	if err != nil {
		return fmt.Errorf("resolve admins: %w", err)
	}
	for _, admin := range admins {
		n, err := p.notifier.Create(ctx, notification.CreateInput{
			RecipientID: admin.ID,
			SenderID:    evt.UserID,
			SenderName:  evt.UserName,
			Type:        typ,
			Title:       title,
			Message:     message,
			Metadata:    metadata,
		})
		if err != nil {
			return fmt.Errorf("create notification for %s: %w", admin.ID, err)
		}
		p.pusher.SendToUser(admin.ID, "notification", n)
	}
	return nil
}
