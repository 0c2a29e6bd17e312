package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type historyRepository struct {
	db *sql.DB
}

// NewHistoryRepository создаёт PostgreSQL-реализацию HistoryRepository.
func NewHistoryRepository(store *Store) domain.HistoryRepository {
	return &historyRepository{db: store.DB()}
}

func (r *historyRepository) Append(ctx context.Context, event domain.HistoryEvent) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO history_events (aggregate_type, aggregate_id, type, reason, occurred)
		VALUES ($1,$2,$3,$4,$5)
	`, event.AggregateType, event.AggregateID, event.Type, event.Reason, event.Occurred); err != nil {
		return fmt.Errorf("append history event: %w", err)
	}

	return nil
}

func (r *historyRepository) List(ctx context.Context, aggregateType, aggregateID string) ([]domain.HistoryEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT aggregate_type, aggregate_id, type, reason, occurred
		FROM history_events
		WHERE aggregate_type = $1
		  AND aggregate_id = $2
		ORDER BY occurred ASC, id ASC
	`, aggregateType, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("list history events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.HistoryEvent, 0)
	for rows.Next() {
		var event domain.HistoryEvent
		if err := rows.Scan(&event.AggregateType, &event.AggregateID, &event.Type, &event.Reason, &event.Occurred); err != nil {
			return nil, fmt.Errorf("scan history event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history events: %w", err)
	}

	return events, nil
}

var _ domain.HistoryRepository = (*historyRepository)(nil)
