package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"workpulse/internal/event"
	"workpulse/internal/platform/config"
	"workpulse/internal/platform/metrics"
)

// Memory is the in-process queue used by tests and single-node
// development. It mirrors the Redis backend's observable semantics
// (FIFO delivery, backoff retries, dead-letter) without surviving a
// process crash; production uses Redis.
type Memory struct {
	cfg     config.QueueConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   func() time.Time

	mu      sync.Mutex
	waiting []Job
	delayed []delayedJob
	dead    []Job
	wake    chan struct{}
}

type delayedJob struct {
	job     Job
	readyAt time.Time
}

// MemoryOption configures the Memory queue.
type MemoryOption func(*Memory)

// WithMemoryClock sets the clock function for testability.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(q *Memory) {
		if clock != nil {
			q.clock = clock
		}
	}
}

func NewMemory(cfg config.QueueConfig, logger *slog.Logger, m *metrics.Metrics, opts ...MemoryOption) *Memory {
	q := &Memory{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		clock:   time.Now,
		wake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

func (q *Memory) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Memory) Enqueue(ctx context.Context, evt event.Event) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	job := Job{
		ID:         uuid.NewString(),
		Event:      evt,
		EnqueuedAt: q.clock(),
	}

	q.mu.Lock()
	q.waiting = append(q.waiting, job)
	depth := len(q.waiting)
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.SetQueueDepth(depth)
	}
	q.logger.InfoContext(ctx, "job enqueued",
		"job_id", job.ID,
		"event_type", job.Event.Type,
	)
	q.signal()
	return nil
}

// pop removes the oldest waiting job, promoting due delayed jobs first.
func (q *Memory) pop() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock()
	remaining := q.delayed[:0]
	for _, d := range q.delayed {
		if !d.readyAt.After(now) {
			q.waiting = append(q.waiting, d.job)
		} else {
			remaining = append(remaining, d)
		}
	}
	q.delayed = remaining

	if len(q.waiting) == 0 {
		return nil, false
	}
	job := q.waiting[0]
	q.waiting = q.waiting[1:]
	if q.metrics != nil {
		q.metrics.SetQueueDepth(len(q.waiting))
	}
	return &job, true
}

func (q *Memory) retryOrBury(ctx context.Context, job *Job, handlerErr error) {
	job.Attempts++
	job.LastError = handlerErr.Error()

	if job.Attempts >= q.cfg.MaxAttempts {
		q.mu.Lock()
		q.dead = append(q.dead, *job)
		q.mu.Unlock()
		if q.metrics != nil {
			q.metrics.IncDeadLetters()
		}
		q.logger.ErrorContext(ctx, "job dead-lettered",
			"job_id", job.ID,
			"event_type", job.Event.Type,
			"attempts", job.Attempts,
			"error", handlerErr,
		)
		return
	}

	delay := backoffDelay(q.cfg.BackoffBase, job.Attempts)
	q.mu.Lock()
	q.delayed = append(q.delayed, delayedJob{job: *job, readyAt: q.clock().Add(delay)})
	q.mu.Unlock()
	if q.metrics != nil {
		q.metrics.IncRetries()
	}
	q.logger.WarnContext(ctx, "job scheduled for retry",
		"job_id", job.ID,
		"event_type", job.Event.Type,
		"attempt", job.Attempts,
		"delay", delay.String(),
	)
}

// Run drains the queue with a fixed-size worker pool until ctx is done.
func (q *Memory) Run(ctx context.Context, h Handler) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < q.cfg.Workers; i++ {
		g.Go(func() error {
			ticker := time.NewTicker(20 * time.Millisecond)
			defer ticker.Stop()
			for {
				job, ok := q.pop()
				if !ok {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-q.wake:
					case <-ticker.C:
					}
					continue
				}
				if err := runJob(ctx, q.logger, q.metrics, q.cfg, h, job); err != nil {
					q.retryOrBury(ctx, job, err)
					q.signal()
				}
			}
		})
	}

	return g.Wait()
}

func (q *Memory) DeadLetters(_ context.Context, limit int) ([]Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if limit <= 0 || limit > len(q.dead) {
		limit = len(q.dead)
	}
	return append([]Job{}, q.dead[:limit]...), nil
}

func (q *Memory) Depth(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.waiting)), nil
}
