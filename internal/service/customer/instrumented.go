package customer

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const component = "customer"

// instrumented оборачивает Directory логированием и метриками каждой операции.
type instrumented struct {
	next    Directory
	metrics *metrics.ShopMetrics
	logger  *log.Entry
}

// NewInstrumented создаёт декоратор Directory.
func NewInstrumented(next Directory, m *metrics.ShopMetrics, logger *log.Entry) Directory {
	if logger == nil {
		logger = log.New().WithField("component", component)
	}
	return &instrumented{next: next, metrics: m, logger: logger}
}

func (s *instrumented) observe(operation string, fields log.Fields, fn func() error) error {
	s.metrics.OperationStarted()
	defer s.metrics.OperationFinished()

	start := time.Now()
	err := fn()
	duration := time.Since(start)
	s.metrics.ObserveOperation(component, operation, err, duration)

	entry := s.logger.WithFields(fields).WithFields(log.Fields{
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
	})
	switch metrics.ResultOf(err) {
	case metrics.ResultOK:
		entry.Debug("operation completed")
	case metrics.ResultError:
		entry.WithError(err).Error("operation failed")
	default:
		entry.WithError(err).Info("operation rejected")
	}
	return err
}

func (s *instrumented) Create(ctx context.Context, name string) (customer domain.Customer, err error) {
	err = s.observe("create", log.Fields{"name": name}, func() error {
		customer, err = s.next.Create(ctx, name)
		return err
	})
	return customer, err
}

func (s *instrumented) ListActive(ctx context.Context) (customers []domain.Customer, err error) {
	err = s.observe("list_active", nil, func() error {
		customers, err = s.next.ListActive(ctx)
		return err
	})
	return customers, err
}

func (s *instrumented) GetActiveByID(ctx context.Context, id string) (customer domain.Customer, err error) {
	err = s.observe("get_active", log.Fields{"customer_id": id}, func() error {
		customer, err = s.next.GetActiveByID(ctx, id)
		return err
	})
	return customer, err
}

func (s *instrumented) CountActive(ctx context.Context) (count int64, err error) {
	err = s.observe("count_active", nil, func() error {
		count, err = s.next.CountActive(ctx)
		return err
	})
	return count, err
}

func (s *instrumented) Rename(ctx context.Context, id, name string) error {
	return s.observe("rename", log.Fields{"customer_id": id, "name": name}, func() error {
		return s.next.Rename(ctx, id, name)
	})
}

func (s *instrumented) Deactivate(ctx context.Context, id string) error {
	return s.observe("deactivate", log.Fields{"customer_id": id}, func() error {
		return s.next.Deactivate(ctx, id)
	})
}

func (s *instrumented) Reactivate(ctx context.Context, id string) error {
	return s.observe("reactivate", log.Fields{"customer_id": id}, func() error {
		return s.next.Reactivate(ctx, id)
	})
}

func (s *instrumented) CartTotalCost(ctx context.Context, id string) (total decimal.Decimal, err error) {
	err = s.observe("cart_total_cost", log.Fields{"customer_id": id}, func() error {
		total, err = s.next.CartTotalCost(ctx, id)
		return err
	})
	return total, err
}

func (s *instrumented) CartAveragePrice(ctx context.Context, id string) (avg decimal.Decimal, err error) {
	err = s.observe("cart_average_price", log.Fields{"customer_id": id}, func() error {
		avg, err = s.next.CartAveragePrice(ctx, id)
		return err
	})
	return avg, err
}

func (s *instrumented) GetCart(ctx context.Context, id string) (view CartView, err error) {
	err = s.observe("get_cart", log.Fields{"customer_id": id}, func() error {
		view, err = s.next.GetCart(ctx, id)
		return err
	})
	return view, err
}

func (s *instrumented) AddProductToCart(ctx context.Context, customerID, productID string, quantity int) error {
	fields := log.Fields{"customer_id": customerID, "product_id": productID, "quantity": quantity}
	return s.observe("add_product_to_cart", fields, func() error {
		return s.next.AddProductToCart(ctx, customerID, productID, quantity)
	})
}

func (s *instrumented) RemoveProductFromCart(ctx context.Context, customerID, productID string) error {
	fields := log.Fields{"customer_id": customerID, "product_id": productID}
	return s.observe("remove_product_from_cart", fields, func() error {
		return s.next.RemoveProductFromCart(ctx, customerID, productID)
	})
}

func (s *instrumented) ClearCart(ctx context.Context, customerID string) error {
	return s.observe("clear_cart", log.Fields{"customer_id": customerID}, func() error {
		return s.next.ClearCart(ctx, customerID)
	})
}

var _ Directory = (*instrumented)(nil)
