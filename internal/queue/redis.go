package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"workpulse/internal/event"
	"workpulse/internal/platform/config"
	"workpulse/internal/platform/metrics"
)

// Redis key layout. Jobs travel waiting -> active -> (done | delayed | dead);
// delayed jobs are promoted back to waiting when their score comes due.
const (
	keyWaiting = "eventq:waiting"
	keyActive  = "eventq:active"
	keyDelayed = "eventq:delayed"
	keyDead    = "eventq:dead"

	promoteInterval = 500 * time.Millisecond
	promoteBatch    = 100
	popBlock        = time.Second
)

// Redis is the production queue backend. A job accepted by Enqueue lives in
// Redis until a worker acknowledges it, so it survives a process crash
// between enqueue and processing; orphaned active jobs are reclaimed into
// the waiting list on startup.
type Redis struct {
	rdb     *redis.Client
	cfg     config.QueueConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRedis(rdb *redis.Client, cfg config.QueueConfig, logger *slog.Logger, m *metrics.Metrics) *Redis {
	return &Redis{rdb: rdb, cfg: cfg, logger: logger, metrics: m}
}

func (q *Redis) Enqueue(ctx context.Context, evt event.Event) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	job := Job{
		ID:         uuid.NewString(),
		Event:      evt,
		EnqueuedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.LPush(ctx, keyWaiting, raw).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	q.logger.InfoContext(ctx, "job enqueued",
		"job_id", job.ID,
		"event_type", job.Event.Type,
	)
	return nil
}

// reclaim moves jobs stranded in the active list by a previous crash back
// to the waiting list. At-least-once: a job mid-flight during the crash
// will be delivered again.
func (q *Redis) reclaim(ctx context.Context) error {
	for {
		raw, err := q.rdb.LMove(ctx, keyActive, keyWaiting, "RIGHT", "LEFT").Result()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reclaim active jobs: %w", err)
		}
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err == nil {
			q.logger.WarnContext(ctx, "reclaimed orphaned job", "job_id", job.ID)
		}
	}
}

// promote moves due delayed jobs back to the waiting list.
func (q *Redis) promote(ctx context.Context) error {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())
	due, err := q.rdb.ZRangeByScore(ctx, keyDelayed, &redis.ZRangeBy{
		Min: "-inf", Max: now, Count: promoteBatch,
	}).Result()
	if err != nil {
		return fmt.Errorf("scan delayed jobs: %w", err)
	}
	for _, raw := range due {
		pipe := q.rdb.TxPipeline()
		pipe.ZRem(ctx, keyDelayed, raw)
		pipe.LPush(ctx, keyWaiting, raw)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("promote delayed job: %w", err)
		}
	}
	return nil
}

func (q *Redis) ack(ctx context.Context, raw string) {
	if err := q.rdb.LRem(ctx, keyActive, 1, raw).Err(); err != nil {
		q.logger.ErrorContext(ctx, "failed to ack job", "error", err)
	}
}

func (q *Redis) retryOrBury(ctx context.Context, raw string, job *Job, handlerErr error) {
	job.Attempts++
	job.LastError = handlerErr.Error()
	updated, err := json.Marshal(job)
	if err != nil {
		q.logger.ErrorContext(ctx, "failed to marshal retried job", "job_id", job.ID, "error", err)
		q.ack(ctx, raw)
		return
	}

	pipe := q.rdb.TxPipeline()
	if job.Attempts >= q.cfg.MaxAttempts {
		pipe.LPush(ctx, keyDead, updated)
	} else {
		delay := backoffDelay(q.cfg.BackoffBase, job.Attempts)
		readyAt := time.Now().Add(delay)
		pipe.ZAdd(ctx, keyDelayed, redis.Z{Score: float64(readyAt.UnixMilli()), Member: updated})
	}
	pipe.LRem(ctx, keyActive, 1, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		q.logger.ErrorContext(ctx, "failed to reschedule job", "job_id", job.ID, "error", err)
		return
	}

	if job.Attempts >= q.cfg.MaxAttempts {
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
	if q.metrics != nil {
		q.metrics.IncRetries()
	}
	q.logger.WarnContext(ctx, "job scheduled for retry",
		"job_id", job.ID,
		"event_type", job.Event.Type,
		"attempt", job.Attempts,
	)
}

func (q *Redis) worker(ctx context.Context, h Handler) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		raw, err := q.rdb.BLMove(ctx, keyWaiting, keyActive, "RIGHT", "LEFT", popBlock).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			q.logger.ErrorContext(ctx, "failed to pop job", "error", err)
			time.Sleep(time.Second)
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			// Unparseable payloads go straight to the dead list for
			// operator inspection.
			q.logger.ErrorContext(ctx, "unparseable job payload", "error", err)
			pipe := q.rdb.TxPipeline()
			pipe.LPush(ctx, keyDead, raw)
			pipe.LRem(ctx, keyActive, 1, raw)
			if _, err := pipe.Exec(ctx); err != nil {
				q.logger.ErrorContext(ctx, "failed to bury unparseable job", "error", err)
			}
			continue
		}

		if err := runJob(ctx, q.logger, q.metrics, q.cfg, h, &job); err != nil {
			q.retryOrBury(ctx, raw, &job, err)
			continue
		}
		q.ack(ctx, raw)
	}
}

// Run reclaims orphaned jobs, then drains the queue with a fixed-size
// worker pool plus one promoter until ctx is done.
func (q *Redis) Run(ctx context.Context, h Handler) error {
	if err := q.reclaim(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(promoteInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := q.promote(ctx); err != nil && ctx.Err() == nil {
					q.logger.ErrorContext(ctx, "failed to promote delayed jobs", "error", err)
				}
				if q.metrics != nil {
					if depth, err := q.Depth(ctx); err == nil {
						q.metrics.SetQueueDepth(int(depth))
					}
				}
			}
		}
	})

	for i := 0; i < q.cfg.Workers; i++ {
		g.Go(func() error { return q.worker(ctx, h) })
	}

	return g.Wait()
}

func (q *Redis) DeadLetters(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 100
	}
	raws, err := q.rdb.LRange(ctx, keyDead, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	jobs := make([]Job, 0, len(raws))
	for _, raw := range raws {
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (q *Redis) Depth(ctx context.Context) (int64, error) {
	depth, err := q.rdb.LLen(ctx, keyWaiting).Result()
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return depth, nil
}
