package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Статусы сообщения outbox. Из pending сообщение переходит ровно один раз.
const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Validate проверяет, что сообщение адресовано агрегату и несёт JSON-payload.
// Пустой payload допустим: consumer получит только метаданные события.
func (m OutboxMessage) Validate() error {
	switch {
	case strings.TrimSpace(m.AggregateType) == "":
		return fmt.Errorf("%w: aggregate type is required", ErrOutboxMessageInvalid)
	case strings.TrimSpace(m.AggregateID) == "":
		return fmt.Errorf("%w: aggregate id is required", ErrOutboxMessageInvalid)
	case strings.TrimSpace(m.EventType) == "":
		return fmt.Errorf("%w: event type is required", ErrOutboxMessageInvalid)
	case len(m.Payload) > 0 && !json.Valid(m.Payload):
		return fmt.Errorf("%w: payload is not valid JSON", ErrOutboxMessageInvalid)
	}
	return nil
}

// OutboxStats описывает текущее состояние backlog outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
	// FailedCount — сообщения, исчерпавшие попытки публикации; их разбирает оператор или replay.
	FailedCount int
}
