package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты попыток публикации из outbox.
const (
	PublishSent       = "sent"
	PublishRetryError = "retry_error"
	PublishFailed     = "failed"
	PublishDLQ        = "dlq"
	PublishDLQFailed  = "dlq_failed"
)

// OutboxMetrics описывает публикацию событий из outbox.
type OutboxMetrics struct {
	attempts     *prometheus.CounterVec
	pending      prometheus.Gauge
	failed       prometheus.Gauge
	oldestAge    prometheus.Gauge
	batchLatency prometheus.Histogram
}

// NewOutboxMetrics создаёт метрики outbox в DefaultRegisterer.
func NewOutboxMetrics() *OutboxMetrics {
	return NewOutboxMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOutboxMetricsWithRegisterer создаёт метрики outbox в указанном реестре.
func NewOutboxMetricsWithRegisterer(registerer prometheus.Registerer) *OutboxMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &OutboxMetrics{
		attempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_outbox_publish_attempts_total",
			Help: "Total number of outbox publish attempts grouped by result.",
		}, []string{"result"}),
		pending: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "shop_outbox_pending_records",
			Help: "Current number of pending records in outbox.",
		}),
		failed: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "shop_outbox_failed_records",
			Help: "Current number of outbox records that exhausted publish attempts.",
		}),
		oldestAge: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "shop_outbox_oldest_pending_age_seconds",
			Help: "Age in seconds of the oldest pending outbox record.",
		}),
		batchLatency: register(registerer, "shop_outbox_batch_duration_seconds", prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shop_outbox_batch_duration_seconds",
			Help:    "Duration of one outbox polling cycle.",
			Buckets: prometheus.DefBuckets,
		})),
	}
}

// RecordAttempt увеличивает счётчик попыток с указанным результатом.
func (m *OutboxMetrics) RecordAttempt(result string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(result).Inc()
}

// SetBacklog обновляет размер backlog и возраст самого старого сообщения.
func (m *OutboxMetrics) SetBacklog(pending int, oldestAge time.Duration) {
	if m == nil {
		return
	}
	if oldestAge < 0 {
		oldestAge = 0
	}
	m.pending.Set(float64(pending))
	m.oldestAge.Set(oldestAge.Seconds())
}

// SetFailed обновляет число сообщений, так и не опубликованных.
func (m *OutboxMetrics) SetFailed(failed int) {
	if m == nil {
		return
	}
	m.failed.Set(float64(failed))
}

// ObserveBatch фиксирует длительность цикла.
func (m *OutboxMetrics) ObserveBatch(duration time.Duration) {
	if m == nil {
		return
	}
	m.batchLatency.Observe(duration.Seconds())
}

// AttemptsFor возвращает счётчик попыток по результату.
func (m *OutboxMetrics) AttemptsFor(result string) prometheus.Counter {
	return m.attempts.WithLabelValues(result)
}

// Pending возвращает gauge размера backlog.
func (m *OutboxMetrics) Pending() prometheus.Gauge {
	return m.pending
}

// Failed возвращает gauge failed-сообщений.
func (m *OutboxMetrics) Failed() prometheus.Gauge {
	return m.failed
}
