package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Kafka topics магазина.
const (
	TopicShopEvents      = "shop.events"
	TopicDeadLetterQueue = "shop.events.dlq"
)

// Заголовки сообщений.
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOutboxID      = "x-outbox-id"
	HeaderReplayed      = "x-replayed"
)

// ErrUnsupportedMessage — сообщение DLQ не похоже на outbox-конверт.
var ErrUnsupportedMessage = errors.New("unsupported dlq message")

// Envelope — формат события в shop.events и shop.events.dlq.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// NewEnvelope упаковывает outbox-сообщение.
func NewEnvelope(msg domain.OutboxMessage, publishedAt time.Time) Envelope {
	payload := json.RawMessage(msg.Payload)
	if !json.Valid(payload) {
		encoded, _ := json.Marshal(string(msg.Payload))
		payload = encoded
	}
	return Envelope{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       payload,
		PublishedAt:   publishedAt.UTC(),
	}
}

// Key — ключ партиционирования: события одного агрегата попадают в одну партицию.
func (e Envelope) Key() string {
	if e.AggregateID != "" {
		return e.AggregateID
	}
	return e.ID
}

// Headers возвращает заголовки, по которым консьюмеры фильтруют события без разбора тела.
func (e Envelope) Headers() map[string]string {
	return map[string]string{
		HeaderEventType:     e.EventType,
		HeaderAggregateType: e.AggregateType,
		HeaderOutboxID:      e.ID,
	}
}

// ParseEnvelope разбирает тело сообщения.
func ParseEnvelope(value []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.ID == "" && envelope.EventType == "" {
		return Envelope{}, ErrUnsupportedMessage
	}
	return envelope, nil
}

// DeadLetter — payload конверта в DLQ: исходное событие и причина отказа.
type DeadLetter struct {
	OutboxID       string          `json:"outbox_id"`
	AggregateType  string          `json:"aggregate_type"`
	AggregateID    string          `json:"aggregate_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	PublishError   string          `json:"publish_error"`
	Attempts       int             `json:"attempts"`
	DLQPublishedAt time.Time       `json:"dlq_published_at"`
}

// ReplayMessage — сообщение, готовое к повторной публикации.
type ReplayMessage struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

// ExtractReplay восстанавливает исходное событие из DLQ-конверта.
// ok=false без ошибки означает, что сообщение не относится к outbox и должно быть пропущено.
func ExtractReplay(value []byte, targetTopic string, now time.Time) (ReplayMessage, bool, error) {
	envelope, err := ParseEnvelope(value)
	if err != nil {
		return ReplayMessage{}, false, nil
	}
	if len(envelope.Payload) == 0 {
		return ReplayMessage{}, false, nil
	}

	var dead DeadLetter
	if err := json.Unmarshal(envelope.Payload, &dead); err != nil {
		return ReplayMessage{}, false, fmt.Errorf("decode dead letter: %w", err)
	}
	if len(dead.Payload) == 0 {
		return ReplayMessage{}, false, fmt.Errorf("dead letter does not contain original event payload")
	}

	replay := Envelope{
		ID:            firstNonEmpty(dead.OutboxID, envelope.ID),
		AggregateType: firstNonEmpty(dead.AggregateType, envelope.AggregateType),
		AggregateID:   firstNonEmpty(dead.AggregateID, envelope.AggregateID),
		EventType:     firstNonEmpty(dead.EventType, envelope.EventType),
		Payload:       dead.Payload,
		PublishedAt:   now.UTC(),
	}
	encoded, err := json.Marshal(replay)
	if err != nil {
		return ReplayMessage{}, false, fmt.Errorf("encode replay envelope: %w", err)
	}

	headers := replay.Headers()
	headers[HeaderReplayed] = "true"

	return ReplayMessage{
		Topic:   targetTopic,
		Key:     replay.Key(),
		Value:   encoded,
		Headers: headers,
	}, true, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
