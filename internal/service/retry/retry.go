package retry

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Config конфигурация повторов при конфликте версий.
type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultConfig возвращает конфигурацию по умолчанию: 3 попытки, 10ms, удвоение.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      500 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// OnConflict выполняет fn и повторяет её, пока та возвращает ErrVersionConflict.
// fn должна сама перечитывать агрегат, иначе повтор бессмыслен.
// onRetry вызывается перед каждой повторной попыткой и может быть nil.
func OnConflict(ctx context.Context, cfg Config, logger *log.Entry, operation string, fn func() error, onRetry func()) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 1
	}

	delay := cfg.InitialDelay
	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err = fn()
		if err == nil || !domain.IsVersionConflict(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		if logger != nil {
			logger.WithFields(log.Fields{
				"operation": operation,
				"attempt":   attempt,
				"delay":     delay,
			}).Warn("version conflict detected, retrying")
		}
		if onRetry != nil {
			onRetry()
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	if logger != nil {
		logger.WithFields(log.Fields{
			"operation":    operation,
			"max_attempts": cfg.MaxAttempts,
		}).Warn("version conflict persisted after all attempts")
	}
	return err
}

func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
