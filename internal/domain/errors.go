package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation — входные данные нарушают структурное ограничение (формат имени, границы цены/количества).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound — сущность отсутствует или не в требуемом активном состоянии.
	ErrNotFound = errors.New("entity not found")
	// ErrCartUpdate — бизнес-правило корзины запрещает изменение.
	ErrCartUpdate = errors.New("cart update rejected")
	// ErrCapacityExceeded — в корзине уже максимальное число различных позиций.
	ErrCapacityExceeded = errors.New("cart capacity exceeded")
	// ErrEmptyCart — операция требует непустую корзину.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotFoundInCart — в корзине нет позиции с указанным товаром.
	ErrNotFoundInCart = errors.New("product not found in cart")
	// ErrVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrVersionConflict = errors.New("version conflict")
	// ErrImageInvalid — пустой файл или не изображение.
	ErrImageInvalid = errors.New("invalid image payload")
	// ErrUnauthenticated — не удалось установить личность вызывающего.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden — у вызывающего нет нужной роли.
	ErrForbidden = errors.New("forbidden")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrOutboxMessageInvalid — событие нельзя поставить в outbox: нет обязательных полей или payload не JSON.
	ErrOutboxMessageInvalid = errors.New("invalid outbox message")

	// ErrIdempotencyKeyRequired — не передан idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — не передан хеш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — ключ уже зарегистрирован с тем же запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другой операцией или другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
	// ErrIdempotencyKeyNotFound — ключ не найден.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrIdempotencyStatusInvalid — попытка завершить ключ незавершающим статусом.
	ErrIdempotencyStatusInvalid = errors.New("idempotency status is not terminal")
)

// ValidationError описывает нарушение ограничения конкретного поля.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is позволяет сравнивать через errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError сообщает, какая сущность не найдена.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFound создаёт ошибку отсутствия сущности.
func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CartUpdateError — отказ в изменении корзины с человекочитаемой причиной.
// Cause (если есть) доступна через errors.Is/As.
type CartUpdateError struct {
	Reason string
	Cause  error
}

// NewCartUpdate создаёт ошибку изменения корзины с форматированной причиной.
func NewCartUpdate(cause error, format string, args ...any) error {
	return &CartUpdateError{Reason: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *CartUpdateError) Error() string {
	return e.Reason
}

func (e *CartUpdateError) Is(target error) bool {
	return target == ErrCartUpdate
}

func (e *CartUpdateError) Unwrap() error {
	return e.Cause
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsIdempotencyConflict проверяет, что ключ идемпотентности уже занят.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}

// IsBusinessRule проверяет, что ошибка относится к бизнес-правилам корзины.
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrCartUpdate) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrNotFoundInCart)
}
