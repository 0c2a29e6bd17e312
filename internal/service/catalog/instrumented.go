package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const component = "catalog"

// instrumented оборачивает Service логированием и метриками каждой операции.
type instrumented struct {
	next    Service
	metrics *metrics.ShopMetrics
	logger  *log.Entry
}

// NewInstrumented создаёт декоратор каталога. metrics может быть nil.
func NewInstrumented(next Service, m *metrics.ShopMetrics, logger *log.Entry) Service {
	if logger == nil {
		logger = log.New().WithField("component", component)
	}
	return &instrumented{next: next, metrics: m, logger: logger}
}

func (s *instrumented) observe(operation string, fields log.Fields, fn func() error) error {
	s.metrics.OperationStarted()
	start := time.Now()
	err := fn()
	duration := time.Since(start)
	s.metrics.OperationFinished()
	s.metrics.ObserveOperation(component, operation, err, duration)

	entry := s.logger.WithFields(fields).WithFields(log.Fields{
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
	})
	switch {
	case err == nil:
		entry.Debug("operation completed")
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
		entry.WithError(err).Info("operation rejected")
	default:
		entry.WithError(err).Error("operation failed")
	}
	return err
}

func (s *instrumented) Create(ctx context.Context, title string, price decimal.Decimal) (product domain.Product, err error) {
	err = s.observe("create", log.Fields{"title": title}, func() error {
		product, err = s.next.Create(ctx, title, price)
		return err
	})
	return product, err
}

func (s *instrumented) GetActiveByID(ctx context.Context, id string) (product domain.Product, err error) {
	err = s.observe("get_active", log.Fields{"product_id": id}, func() error {
		product, err = s.next.GetActiveByID(ctx, id)
		return err
	})
	return product, err
}

func (s *instrumented) ListActive(ctx context.Context) (products []domain.Product, err error) {
	err = s.observe("list_active", nil, func() error {
		products, err = s.next.ListActive(ctx)
		return err
	})
	return products, err
}

func (s *instrumented) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) error {
	return s.observe("update_price", log.Fields{"product_id": id, "price": price.String()}, func() error {
		return s.next.UpdatePrice(ctx, id, price)
	})
}

func (s *instrumented) Deactivate(ctx context.Context, id string) error {
	return s.observe("deactivate", log.Fields{"product_id": id}, func() error {
		return s.next.Deactivate(ctx, id)
	})
}

func (s *instrumented) Reactivate(ctx context.Context, id string) error {
	return s.observe("reactivate", log.Fields{"product_id": id}, func() error {
		return s.next.Reactivate(ctx, id)
	})
}

func (s *instrumented) CountActive(ctx context.Context) (count int64, err error) {
	err = s.observe("count_active", nil, func() error {
		count, err = s.next.CountActive(ctx)
		return err
	})
	return count, err
}

func (s *instrumented) TotalActivePrice(ctx context.Context) (total decimal.Decimal, err error) {
	err = s.observe("total_active_price", nil, func() error {
		total, err = s.next.TotalActivePrice(ctx)
		return err
	})
	return total, err
}

func (s *instrumented) AverageActivePrice(ctx context.Context) (avg decimal.Decimal, err error) {
	err = s.observe("average_active_price", nil, func() error {
		avg, err = s.next.AverageActivePrice(ctx)
		return err
	})
	return avg, err
}

func (s *instrumented) IsActive(ctx context.Context, id string) (active bool, err error) {
	err = s.observe("is_active", log.Fields{"product_id": id}, func() error {
		active, err = s.next.IsActive(ctx, id)
		return err
	})
	return active, err
}

func (s *instrumented) AttachImage(ctx context.Context, id string, image domain.Image) (url string, err error) {
	err = s.observe("attach_image", log.Fields{"product_id": id, "file": image.Name}, func() error {
		url, err = s.next.AttachImage(ctx, id, image)
		return err
	})
	return url, err
}

var _ Service = (*instrumented)(nil)
