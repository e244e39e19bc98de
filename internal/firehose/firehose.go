// Package firehose mirrors every recorded audit entry to a Kafka topic for
// downstream consumers. The mirror is strictly best-effort: produce failures
// are logged and never reach the processing pipeline.
package firehose

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"workpulse/internal/audit"
)

// Topic is where audit entries land, keyed by user id so one user's trail
// stays ordered within a partition.
const Topic = "workpulse.audit.v1"

// Publisher implements audit.Mirror on top of a Kafka producer.
type Publisher struct {
	client *kgo.Client
	logger *slog.Logger
}

// New connects to the brokers and ensures the topic exists. Topic creation
// is idempotent; an "already exists" response is not an error.
func New(ctx context.Context, brokers []string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(Topic),
		kgo.ProducerLinger(50*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, Topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create topic: %w", err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}

	return &Publisher{client: client, logger: logger}, nil
}

// Publish produces one entry asynchronously. Failures are logged only.
func (p *Publisher) Publish(ctx context.Context, e audit.Entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal audit entry for firehose",
			"audit_id", e.ID,
			"error", err,
		)
		return
	}
	p.client.Produce(ctx, &kgo.Record{Key: []byte(e.UserID), Value: raw}, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("firehose produce failed",
				"audit_id", e.ID,
				"error", err,
			)
		}
	})
}

// Close flushes outstanding records and releases the client.
func (p *Publisher) Close(ctx context.Context) error {
	if err := p.client.Flush(ctx); err != nil {
		p.client.Close()
		return fmt.Errorf("flush firehose: %w", err)
	}
	p.client.Close()
	return nil
}
