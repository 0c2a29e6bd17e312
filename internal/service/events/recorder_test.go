package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type failingOutbox struct {
	*memory.OutboxRepository
}

func (failingOutbox) Enqueue(context.Context, domain.OutboxMessage) (domain.OutboxMessage, error) {
	return domain.OutboxMessage{}, errors.New("outbox down")
}

func TestRecorder_EmitWritesOutboxAndHistory(t *testing.T) {
	ctx := context.Background()
	outbox := memory.NewOutboxRepository()
	history := memory.NewHistoryRepository()
	m := metrics.NewShopMetricsWithRegisterer(prometheus.NewRegistry())

	rec := NewRecorder(outbox, history, m, nil)
	rec.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateCart,
		AggregateID:   "customer-1",
		Type:          domain.EventCartProductAdded,
		Payload:       map[string]any{"product_id": "p-1", "quantity": 3},
	})

	pending := outbox.AllPending()
	require.Len(t, pending, 1)
	require.Equal(t, domain.AggregateCart, pending[0].AggregateType)
	require.Equal(t, domain.EventCartProductAdded, pending[0].EventType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(pending[0].Payload, &payload))
	require.Equal(t, "customer-1", payload["aggregate_id"])
	require.Equal(t, "p-1", payload["product_id"])
	require.EqualValues(t, 3, payload["quantity"])
	require.NotEmpty(t, payload["ts"])

	events, err := history.List(ctx, domain.AggregateCart, "customer-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, domain.EventCartProductAdded, events[0].Type)
	require.False(t, events[0].Occurred.IsZero())
}

func TestRecorder_OutboxFailureStillRecordsHistory(t *testing.T) {
	ctx := context.Background()
	history := memory.NewHistoryRepository()
	rec := NewRecorder(failingOutbox{memory.NewOutboxRepository()}, history, nil, nil)

	rec.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateProduct,
		AggregateID:   "p-1",
		Type:          domain.EventProductDeactivated,
		Reason:        "soft delete",
	})

	events, err := history.List(ctx, domain.AggregateProduct, "p-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "soft delete", events[0].Reason)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *Recorder
	require.NotPanics(t, func() {
		rec.Emit(context.Background(), domain.Event{Type: domain.EventCartCleared})
	})

	withoutStores := NewRecorder(nil, nil, nil, nil)
	require.NotPanics(t, func() {
		withoutStores.Emit(context.Background(), domain.Event{Type: domain.EventCartCleared})
	})
}
