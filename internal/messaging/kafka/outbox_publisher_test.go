package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestOutboxPublisher_Publish(t *testing.T) {
	producer, mockProducer := newTestProducer(t)
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		envelope, err := ParseEnvelope(val)
		if err != nil {
			return err
		}
		if envelope.AggregateID != "customer-1" || envelope.EventType != domain.EventCartProductAdded {
			return fmt.Errorf("unexpected envelope: %+v", envelope)
		}
		if string(envelope.Payload) != `{"quantity":2}` {
			return fmt.Errorf("unexpected payload: %s", envelope.Payload)
		}
		return nil
	})

	publisher := NewOutboxPublisher(producer, "")
	require.Equal(t, TopicShopEvents, publisher.Topic())

	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: domain.AggregateCart,
		AggregateID:   "customer-1",
		EventType:     domain.EventCartProductAdded,
		Payload:       []byte(`{"quantity":2}`),
	})
	require.NoError(t, err)
	require.NoError(t, producer.Close())
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	producer, mockProducer := newTestProducer(t)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewDLQPublisher(producer, "")
	require.Equal(t, TopicDeadLetterQueue, publisher.Topic())

	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "outbox-2",
		AggregateType: domain.AggregateProduct,
		AggregateID:   "product-1",
		EventType:     domain.EventProductCreated,
		Payload:       []byte(`{"title":"Good book"}`),
	})
	require.Error(t, err)
	require.NoError(t, producer.Close())
}

func TestOutboxPublisher_NotInitialized(t *testing.T) {
	var publisher *OutboxTopicPublisher

	err := publisher.Publish(context.Background(), domain.OutboxMessage{ID: "outbox-3"})
	require.Error(t, err)
}

func TestNewEnvelope(t *testing.T) {
	envelope := NewEnvelope(domain.OutboxMessage{
		ID:        "outbox-1",
		EventType: domain.EventProductCreated,
		Payload:   []byte("not json"),
	}, fixedNow())

	require.Equal(t, "outbox-1", envelope.Key())
	require.True(t, json.Valid(envelope.Payload))
	require.Equal(t, `"not json"`, string(envelope.Payload))
	require.Equal(t, domain.EventProductCreated, envelope.Headers()[HeaderEventType])
}
