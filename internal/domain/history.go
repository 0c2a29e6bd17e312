package domain

import "time"

// HistoryEvent описывает событие в жизненном цикле товара, покупателя или корзины.
type HistoryEvent struct {
	AggregateType string
	AggregateID   string
	Type          string
	Reason        string
	Occurred      time.Time
}
