package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultIdempotencyTTL — сколько хранится результат мутации, если TTL не задан явно.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStatus описывает жизненный цикл ключа идемпотентности.
type IdempotencyStatus string

const (
	// IdempotencyStatusProcessing означает, что мутация принята и ещё выполняется.
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	// IdempotencyStatusDone означает, что мутация завершилась успешно и ответ сохранён.
	IdempotencyStatusDone IdempotencyStatus = "done"
	// IdempotencyStatusFailed означает, что мутация завершилась ошибкой и повтор получит её же.
	IdempotencyStatusFailed IdempotencyStatus = "failed"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s IdempotencyStatus) Valid() bool {
	return s == IdempotencyStatusProcessing || s.Terminal()
}

// Terminal сообщает, что обработка завершена и результат можно отдавать повторам.
func (s IdempotencyStatus) Terminal() bool {
	return s == IdempotencyStatusDone || s == IdempotencyStatusFailed
}

// IdempotencyClaim — заявка на выполнение мутации под idempotency-key.
// Ключ действует в пределах одной операции: тот же ключ для другого метода считается конфликтом.
type IdempotencyClaim struct {
	Key         string
	Operation   string
	RequestHash string
	TTLAt       time.Time
}

// Normalize обрезает пробелы, проверяет обязательные поля и подставляет TTL по умолчанию.
func (c IdempotencyClaim) Normalize(now time.Time) (IdempotencyClaim, error) {
	c.Key = strings.TrimSpace(c.Key)
	c.Operation = strings.TrimSpace(c.Operation)
	c.RequestHash = strings.TrimSpace(c.RequestHash)
	if c.Key == "" {
		return IdempotencyClaim{}, ErrIdempotencyKeyRequired
	}
	if c.RequestHash == "" {
		return IdempotencyClaim{}, ErrIdempotencyRequestHashRequired
	}
	if c.TTLAt.IsZero() {
		c.TTLAt = now.Add(DefaultIdempotencyTTL)
	}
	return c, nil
}

// IdempotencyRecord хранит состояние обработки мутации с idempotency-key.
type IdempotencyRecord struct {
	Key          string
	Operation    string
	RequestHash  string
	Status       IdempotencyStatus
	ResponseBody []byte
	// ResponseCode — код gRPC-статуса сохранённого ответа.
	ResponseCode int
	TTLAt        time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewIdempotencyRecord создаёт запись в статусе processing по нормализованной заявке.
func NewIdempotencyRecord(claim IdempotencyClaim, now time.Time) IdempotencyRecord {
	return IdempotencyRecord{
		Key:         claim.Key,
		Operation:   claim.Operation,
		RequestHash: claim.RequestHash,
		Status:      IdempotencyStatusProcessing,
		TTLAt:       claim.TTLAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Conflict классифицирует повторную заявку на занятый ключ.
// Другая операция или другое тело дают ErrIdempotencyHashMismatch, иначе ErrIdempotencyKeyAlreadyExists.
func (r IdempotencyRecord) Conflict(claim IdempotencyClaim) error {
	if r.Operation != claim.Operation || r.RequestHash != claim.RequestHash {
		return ErrIdempotencyHashMismatch
	}
	return ErrIdempotencyKeyAlreadyExists
}

// Expired сообщает, истёк ли срок хранения записи к моменту now.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !r.TTLAt.After(now)
}

// IdempotencyResult — итог мутации, который получат повторы вместо повторного выполнения.
type IdempotencyResult struct {
	Status IdempotencyStatus
	Body   []byte
	Code   int
}

// Validate допускает только завершающие статусы.
func (r IdempotencyResult) Validate() error {
	if !r.Status.Terminal() {
		return fmt.Errorf("%w: %q", ErrIdempotencyStatusInvalid, r.Status)
	}
	return nil
}
