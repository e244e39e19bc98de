//go:build integration

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workpulse/internal/event"
	"workpulse/pkg/testutil/containers"
)

func TestRedisQueue_DeliverAckAndRetry(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, rc.FlushAll(ctx))

	cfg := testCfg()
	q := NewRedis(rc.Client, cfg, testLogger(), nil)

	require.NoError(t, q.Enqueue(ctx, testEvent("u1")))
	require.NoError(t, q.Enqueue(ctx, testEvent("u2")))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, depth)

	processed := make(chan string, 8)
	failFirst := true
	go func() {
		_ = q.Run(ctx, func(_ context.Context, job *Job) error {
			if job.Event.UserID == "u1" && failFirst {
				failFirst = false
				return errors.New("transient failure")
			}
			processed <- job.Event.UserID
			return nil
		})
	}()

	got := map[string]int{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-processed:
			got[id]++
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out, processed so far: %v", got)
		}
	}
	assert.Equal(t, map[string]int{"u1": 1, "u2": 1}, got)

	// Everything acked: no queue residue beyond the empty lists.
	require.Eventually(t, func() bool {
		waiting, err := rc.Client.LLen(ctx, keyWaiting).Result()
		if err != nil || waiting != 0 {
			return false
		}
		active, err := rc.Client.LLen(ctx, keyActive).Result()
		return err == nil && active == 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRedisQueue_DeadLetters(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, rc.FlushAll(ctx))

	cfg := testCfg()
	q := NewRedis(rc.Client, cfg, testLogger(), nil)
	require.NoError(t, q.Enqueue(ctx, testEvent("u1")))

	go func() {
		_ = q.Run(ctx, func(_ context.Context, _ *Job) error {
			return errors.New("permanent failure")
		})
	}()

	require.Eventually(t, func() bool {
		dead, err := q.DeadLetters(ctx, 10)
		return err == nil && len(dead) == 1
	}, 15*time.Second, 100*time.Millisecond)

	dead, err := q.DeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, cfg.MaxAttempts, dead[0].Attempts)
	assert.Equal(t, "permanent failure", dead[0].LastError)
}

func TestRedisQueue_ReclaimsOrphanedActiveJobs(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, rc.FlushAll(ctx))

	// Simulate a crash: a job sits in the active list with no worker.
	orphan := Job{ID: "orphan-1", Event: testEvent("u9"), EnqueuedAt: time.Now()}
	raw, err := json.Marshal(orphan)
	require.NoError(t, err)
	require.NoError(t, rc.Client.LPush(ctx, keyActive, raw).Err())

	q := NewRedis(rc.Client, testCfg(), testLogger(), nil)

	processed := make(chan string, 1)
	go func() {
		_ = q.Run(ctx, func(_ context.Context, job *Job) error {
			processed <- job.ID
			return nil
		})
	}()

	select {
	case id := <-processed:
		assert.Equal(t, "orphan-1", id)
	case <-time.After(10 * time.Second):
		t.Fatal("orphaned job was not reclaimed")
	}
}
