package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// historyRepositoryInMemory хранит события в памяти (для разработки/тестов).
type historyRepositoryInMemory struct {
	mu     sync.RWMutex
	events map[string][]domain.HistoryEvent
}

// NewHistoryRepository создаёт in-memory реализацию HistoryRepository.
func NewHistoryRepository() domain.HistoryRepository {
	return &historyRepositoryInMemory{events: make(map[string][]domain.HistoryEvent)}
}

func historyKey(aggregateType, aggregateID string) string {
	return aggregateType + "/" + aggregateID
}

// Append добавляет событие в хранилище.
func (r *historyRepositoryInMemory) Append(_ context.Context, event domain.HistoryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := historyKey(event.AggregateType, event.AggregateID)
	r.events[key] = append(r.events[key], event)

	sort.SliceStable(r.events[key], func(i, j int) bool {
		return r.events[key][i].Occurred.Before(r.events[key][j].Occurred)
	})

	return nil
}

// List возвращает события сущности в хронологическом порядке.
func (r *historyRepositoryInMemory) List(_ context.Context, aggregateType, aggregateID string) ([]domain.HistoryEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[historyKey(aggregateType, aggregateID)]
	result := make([]domain.HistoryEvent, len(events))
	copy(result, events)
	return result, nil
}

var _ domain.HistoryRepository = (*historyRepositoryInMemory)(nil)
