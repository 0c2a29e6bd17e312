package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Значения label result.
const (
	ResultOK         = "ok"
	ResultValidation = "validation"
	ResultNotFound   = "not_found"
	ResultRejected   = "rejected"
	ResultConflict   = "conflict"
	ResultError      = "error"
)

// ShopMetrics содержит метрики операций каталога, покупателей и корзин.
type ShopMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	inFlight          prometheus.Gauge

	domainEvents  *prometheus.CounterVec
	historyEvents prometheus.Counter
	outboxEvents  prometheus.Counter
	retries       *prometheus.CounterVec
}

// NewShopMetrics создаёт метрики в DefaultRegisterer.
func NewShopMetrics() *ShopMetrics {
	return NewShopMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewShopMetricsWithRegisterer создаёт метрики в указанном реестре (для тестов).
func NewShopMetricsWithRegisterer(registerer prometheus.Registerer) *ShopMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ShopMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_operations_total",
			Help: "Total number of service operations grouped by component, operation and result",
		}, []string{"component", "operation", "result"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "shop_operation_duration_seconds",
			Help:    "Duration of service operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"component", "operation"}),
		inFlight: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "shop_operations_in_flight",
			Help: "Number of service operations currently executing",
		}),
		domainEvents: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_domain_events_total",
			Help: "Total number of domain events emitted grouped by type",
		}, []string{"event"}),
		historyEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_history_events_total",
			Help: "Total number of history events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_outbox_events_total",
			Help: "Total number of events enqueued to outbox",
		}),
		retries: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_version_conflict_retries_total",
			Help: "Total number of retries after optimistic locking conflicts",
		}, []string{"operation"}),
	}
}

// ObserveOperation фиксирует результат и длительность операции.
func (m *ShopMetrics) ObserveOperation(component, operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(component, operation, ResultOf(err)).Inc()
	m.operationDuration.WithLabelValues(component, operation).Observe(duration.Seconds())
}

// OperationStarted увеличивает количество выполняющихся операций.
func (m *ShopMetrics) OperationStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// OperationFinished уменьшает количество выполняющихся операций.
func (m *ShopMetrics) OperationFinished() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}

// RecordDomainEvent увеличивает счётчик доменных событий.
func (m *ShopMetrics) RecordDomainEvent(eventType string) {
	if m == nil {
		return
	}
	m.domainEvents.WithLabelValues(eventType).Inc()
}

// RecordHistoryEvent увеличивает счётчик событий истории.
func (m *ShopMetrics) RecordHistoryEvent() {
	if m == nil {
		return
	}
	m.historyEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *ShopMetrics) RecordOutboxEvent() {
	if m == nil {
		return
	}
	m.outboxEvents.Inc()
}

// RecordRetry фиксирует повтор операции после конфликта версий.
func (m *ShopMetrics) RecordRetry(operation string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(operation).Inc()
}

// ResultOf классифицирует ошибку операции для label result.
func ResultOf(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrValidation):
		return ResultValidation
	case errors.Is(err, domain.ErrNotFound):
		return ResultNotFound
	case domain.IsBusinessRule(err):
		return ResultRejected
	case errors.Is(err, domain.ErrVersionConflict):
		return ResultConflict
	default:
		return ResultError
	}
}

// OperationsFor возвращает счётчик операций для указанных labels.
func (m *ShopMetrics) OperationsFor(component, operation, result string) prometheus.Counter {
	return m.operations.WithLabelValues(component, operation, result)
}

// RetriesFor возвращает счётчик повторов операции.
func (m *ShopMetrics) RetriesFor(operation string) prometheus.Counter {
	return m.retries.WithLabelValues(operation)
}
