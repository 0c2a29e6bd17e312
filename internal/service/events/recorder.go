package events

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Recorder сохраняет доменные события в outbox и историю сущности.
// Emit вызывается после записи агрегата и вне её транзакции: при падении процесса между
// ними событие теряется. Ошибки записи логируются и не прерывают бизнес-операцию.
type Recorder struct {
	outbox  domain.OutboxRepository
	history domain.HistoryRepository
	metrics *metrics.ShopMetrics
	logger  *log.Entry
	now     func() time.Time
}

// NewRecorder создаёт Recorder. Любой из репозиториев может быть nil.
func NewRecorder(outbox domain.OutboxRepository, history domain.HistoryRepository, m *metrics.ShopMetrics, logger *log.Entry) *Recorder {
	if logger == nil {
		logger = log.New().WithField("component", "events")
	}
	return &Recorder{
		outbox:  outbox,
		history: history,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Emit записывает событие. Nil-получатель ничего не делает.
func (r *Recorder) Emit(ctx context.Context, event domain.Event) {
	if r == nil {
		return
	}

	occurred := r.now()
	payload := make(map[string]any, len(event.Payload)+3)
	for k, v := range event.Payload {
		payload[k] = v
	}
	payload["aggregate_id"] = event.AggregateID
	payload["ts"] = occurred.Format(time.RFC3339Nano)
	if event.Reason != "" {
		payload["reason"] = event.Reason
	}

	fields := log.Fields{
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"event":          event.Type,
	}
	r.metrics.RecordDomainEvent(event.Type)

	if r.outbox != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			r.logger.WithError(err).WithFields(fields).Error("marshal event failed")
		} else {
			msg := domain.OutboxMessage{
				AggregateType: event.AggregateType,
				AggregateID:   event.AggregateID,
				EventType:     event.Type,
				Payload:       data,
			}
			if _, err := r.outbox.Enqueue(ctx, msg); err != nil {
				r.logger.WithError(err).WithFields(fields).Error("enqueue event failed")
			} else {
				r.metrics.RecordOutboxEvent()
			}
		}
	}

	if r.history != nil {
		entry := domain.HistoryEvent{
			AggregateType: event.AggregateType,
			AggregateID:   event.AggregateID,
			Type:          event.Type,
			Reason:        event.Reason,
			Occurred:      occurred,
		}
		if err := r.history.Append(ctx, entry); err != nil {
			r.logger.WithError(err).WithFields(fields).Warn("append history event failed")
		} else {
			r.metrics.RecordHistoryEvent()
		}
	}
}
