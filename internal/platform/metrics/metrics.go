// Package metrics holds the Prometheus instruments for the event pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	JobsProcessed        *prometheus.CounterVec
	JobRetries           prometheus.Counter
	DeadLetters          prometheus.Counter
	QueueDepth           prometheus.Gauge
	AuditRecords         prometheus.Counter
	NotificationsCreated prometheus.Counter
	PushesSent           prometheus.Counter
	LiveConnections      prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		JobsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "workpulse_jobs_processed_total",
			Help: "Total number of queue jobs processed, by event type and outcome",
		}, []string{"event_type", "status"}),
		JobRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workpulse_job_retries_total",
			Help: "Total number of job deliveries scheduled for retry",
		}),
		DeadLetters: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workpulse_dead_letters_total",
			Help: "Total number of jobs moved to the dead-letter list",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "workpulse_queue_depth",
			Help: "Current number of jobs waiting for a worker",
		}),
		AuditRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workpulse_audit_records_total",
			Help: "Total number of audit log entries written",
		}),
		NotificationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workpulse_notifications_created_total",
			Help: "Total number of notifications persisted",
		}),
		PushesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "workpulse_pushes_sent_total",
			Help: "Total number of messages pushed over live connections",
		}),
		LiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "workpulse_live_connections",
			Help: "Current number of open websocket connections",
		}),
	}
}

func (m *Metrics) ObserveJob(eventType, status string) {
	m.JobsProcessed.WithLabelValues(eventType, status).Inc()
}

func (m *Metrics) IncRetries()              { m.JobRetries.Inc() }
func (m *Metrics) IncDeadLetters()          { m.DeadLetters.Inc() }
func (m *Metrics) SetQueueDepth(n int)      { m.QueueDepth.Set(float64(n)) }
func (m *Metrics) IncAuditRecords()         { m.AuditRecords.Inc() }
func (m *Metrics) IncNotificationsCreated() { m.NotificationsCreated.Inc() }
func (m *Metrics) IncPushesSent()           { m.PushesSent.Inc() }
func (m *Metrics) AddLiveConnections(d int) { m.LiveConnections.Add(float64(d)) }
