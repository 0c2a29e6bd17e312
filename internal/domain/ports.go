package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceBook отдаёт цены товаров по идентификатору без учёта флага активности.
type PriceBook interface {
	// PricesByID возвращает цены для переданных товаров; отсутствующие товары в результат не попадают.
	PricesByID(ctx context.Context, ids []string) (PriceIndex, error)
}

// ImageUploader загружает изображение товара во внешнее хранилище.
type ImageUploader interface {
	// Upload проверяет, что payload — непустое изображение, и возвращает публичный URL.
	Upload(ctx context.Context, image Image) (string, error)
}

// IdentityProvider определяет вызывающего по токену.
type IdentityProvider interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// OutboxPublisher публикует события из outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(ctx context.Context, event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// HistoryRepository хранит события жизненного цикла сущностей.
type HistoryRepository interface {
	Append(ctx context.Context, event HistoryEvent) error
	List(ctx context.Context, aggregateType, aggregateID string) ([]HistoryEvent, error)
}

// IdempotencyRepository хранит состояние обработки мутаций по idempotency-key.
type IdempotencyRepository interface {
	// Claim регистрирует ключ в статусе processing. Истёкшую запись с тем же ключом заменяет.
	// Для живой записи возвращает её вместе с ошибкой IdempotencyRecord.Conflict.
	Claim(ctx context.Context, claim IdempotencyClaim) (IdempotencyRecord, error)
	Get(ctx context.Context, key string) (IdempotencyRecord, error)
	// Finish сохраняет итог мутации; допускаются только завершающие статусы.
	Finish(ctx context.Context, key string, result IdempotencyResult) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}

// Image — загружаемый файл изображения товара.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Totals — агрегаты по активным товарам.
type Totals struct {
	Count   int64
	Total   decimal.Decimal
	Average decimal.Decimal
}
