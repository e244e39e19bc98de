// Package queue provides the durable work queue that decouples event
// producers from the processor. Delivery is at-least-once: a job is handed
// to exactly one worker at a time, retried with bounded backoff on failure,
// and moved to a dead-letter state once retries are exhausted. Jobs are
// never silently dropped.
package queue

import (
	"context"
	"log/slog"
	"time"

	"workpulse/internal/event"
	"workpulse/internal/platform/config"
	"workpulse/internal/platform/metrics"
)

// Job is one in-flight delivery of an event.
type Job struct {
	ID         string      `json:"id"`
	Event      event.Event `json:"event"`
	Attempts   int         `json:"attempts"`
	EnqueuedAt time.Time   `json:"enqueuedAt"`
	LastError  string      `json:"lastError,omitempty"`
}

// Handler processes one job. A non-nil error leaves the job eligible for
// retry; the queue owns the retry schedule, not the handler.
type Handler func(ctx context.Context, job *Job) error

// Queue is the producer/worker contract. Enqueue returns once the job is
// durably recorded; producers never wait for processing.
type Queue interface {
	Enqueue(ctx context.Context, evt event.Event) error
	Run(ctx context.Context, h Handler) error
	DeadLetters(ctx context.Context, limit int) ([]Job, error)
	Depth(ctx context.Context) (int64, error)
}

// backoffDelay computes the delay before attempt N is retried:
// base, 2*base, 4*base, ... capped at 5 minutes.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	const maxDelay = 5 * time.Minute
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return d
}

// runJob executes the handler under the configured timeout and logs the
// lifecycle transition. Returns the handler error for the caller to route
// into retry or dead-letter handling.
func runJob(ctx context.Context, logger *slog.Logger, m *metrics.Metrics, cfg config.QueueConfig, h Handler, job *Job) error {
	logger.InfoContext(ctx, "job active",
		"job_id", job.ID,
		"event_type", job.Event.Type,
		"attempt", job.Attempts+1,
	)

	jobCtx, cancel := context.WithTimeout(ctx, cfg.JobTimeout)
	defer cancel()

	if err := h(jobCtx, job); err != nil {
		if m != nil {
			m.ObserveJob(string(job.Event.Type), "failed")
		}
		logger.ErrorContext(ctx, "job failed",
			"job_id", job.ID,
			"event_type", job.Event.Type,
			"attempt", job.Attempts+1,
			"error", err,
		)
		return err
	}

	if m != nil {
		m.ObserveJob(string(job.Event.Type), "completed")
	}
	logger.InfoContext(ctx, "job completed",
		"job_id", job.ID,
		"event_type", job.Event.Type,
	)
	return nil
}
