package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/events"
	"github.com/vladislavdragonenkov/storefront/internal/service/retry"
)

// Directory управляет покупателями и их корзинами.
type Directory interface {
	Create(ctx context.Context, name string) (domain.Customer, error)
	ListActive(ctx context.Context) ([]domain.Customer, error)
	GetActiveByID(ctx context.Context, id string) (domain.Customer, error)
	CountActive(ctx context.Context) (int64, error)
	Rename(ctx context.Context, id, name string) error
	Deactivate(ctx context.Context, id string) error
	// Reactivate ищет покупателя без учёта флага активности.
	Reactivate(ctx context.Context, id string) error

	CartTotalCost(ctx context.Context, id string) (decimal.Decimal, error)
	CartAveragePrice(ctx context.Context, id string) (decimal.Decimal, error)
	GetCart(ctx context.Context, id string) (CartView, error)
	AddProductToCart(ctx context.Context, customerID, productID string, quantity int) error
	RemoveProductFromCart(ctx context.Context, customerID, productID string) error
	ClearCart(ctx context.Context, customerID string) error
}

// ActiveProducts разрешает активный товар; реализуется каталогом.
type ActiveProducts interface {
	GetActiveByID(ctx context.Context, id string) (domain.Product, error)
}

// PositionView — позиция корзины с ценой товара.
type PositionView struct {
	ID         string
	ProductID  string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// CartView — корзина покупателя с производными значениями.
type CartView struct {
	ID            string
	CustomerID    string
	Positions     []PositionView
	TotalQuantity int64
	TotalPrice    decimal.Decimal
	AveragePrice  decimal.Decimal
}

type directory struct {
	customers domain.CustomerRepository
	products  ActiveProducts
	engine    *cart.Engine
	events    *events.Recorder
	metrics   *metrics.ShopMetrics
	retry     retry.Config
	logger    *log.Entry
	now       func() time.Time
}

// Option настраивает Directory.
type Option func(*directory)

// WithRetryConfig задаёт политику повторов при конфликте версий корзины.
func WithRetryConfig(cfg retry.Config) Option {
	return func(d *directory) {
		d.retry = cfg
	}
}

// WithMetrics включает счётчик повторов.
func WithMetrics(m *metrics.ShopMetrics) Option {
	return func(d *directory) {
		d.metrics = m
	}
}

// WithEvents задаёт запись доменных событий.
func WithEvents(recorder *events.Recorder) Option {
	return func(d *directory) {
		d.events = recorder
	}
}

// NewDirectory создаёт Directory.
func NewDirectory(customers domain.CustomerRepository, products ActiveProducts, engine *cart.Engine, logger *log.Entry, opts ...Option) Directory {
	if logger == nil {
		logger = log.New().WithField("component", "customer")
	}
	d := &directory{
		customers: customers,
		products:  products,
		engine:    engine,
		retry:     retry.DefaultConfig(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *directory) Create(ctx context.Context, name string) (domain.Customer, error) {
	customer, emptyCart, err := domain.NewCustomer(uuid.NewString(), name, uuid.NewString(), d.now())
	if err != nil {
		return domain.Customer{}, err
	}
	if err := d.customers.CreateWithCart(ctx, customer, emptyCart); err != nil {
		return domain.Customer{}, err
	}

	d.events.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateCustomer,
		AggregateID:   customer.ID,
		Type:          domain.EventCustomerCreated,
		Payload:       map[string]any{"name": customer.Name, "cart_id": customer.CartID},
	})
	return customer, nil
}

func (d *directory) ListActive(ctx context.Context) ([]domain.Customer, error) {
	return d.customers.FindAllActive(ctx)
}

func (d *directory) GetActiveByID(ctx context.Context, id string) (domain.Customer, error) {
	return d.customers.FindActiveByID(ctx, id)
}

func (d *directory) CountActive(ctx context.Context) (int64, error) {
	return d.customers.CountActive(ctx)
}

func (d *directory) Rename(ctx context.Context, id, name string) error {
	err := d.withRetry(ctx, "rename", func() error {
		customer, err := d.customers.FindActiveByID(ctx, id)
		if err != nil {
			return err
		}
		if err := customer.Rename(name, d.now()); err != nil {
			return err
		}
		return d.customers.Save(ctx, customer)
	})
	if err != nil {
		return err
	}

	d.events.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateCustomer,
		AggregateID:   id,
		Type:          domain.EventCustomerRenamed,
		Payload:       map[string]any{"name": name},
	})
	return nil
}

func (d *directory) Deactivate(ctx context.Context, id string) error {
	err := d.withRetry(ctx, "deactivate", func() error {
		customer, err := d.customers.FindActiveByID(ctx, id)
		if err != nil {
			return err
		}
		customer.Deactivate(d.now())
		return d.customers.Save(ctx, customer)
	})
	if err != nil {
		return err
	}

	d.events.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateCustomer,
		AggregateID:   id,
		Type:          domain.EventCustomerDeactivated,
	})
	return nil
}

func (d *directory) Reactivate(ctx context.Context, id string) error {
	err := d.withRetry(ctx, "reactivate", func() error {
		customer, err := d.customers.FindByID(ctx, id)
		if err != nil {
			return err
		}
		customer.Reactivate(d.now())
		return d.customers.Save(ctx, customer)
	})
	if err != nil {
		return err
	}

	d.events.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateCustomer,
		AggregateID:   id,
		Type:          domain.EventCustomerReactivated,
	})
	return nil
}

func (d *directory) CartTotalCost(ctx context.Context, id string) (decimal.Decimal, error) {
	c, ok, err := d.activeCart(ctx, id)
	if err != nil || !ok {
		return decimal.Zero, err
	}
	return d.engine.TotalPrice(ctx, c)
}

func (d *directory) CartAveragePrice(ctx context.Context, id string) (decimal.Decimal, error) {
	c, ok, err := d.activeCart(ctx, id)
	if err != nil || !ok {
		return decimal.Zero, err
	}
	return d.engine.AveragePrice(ctx, c)
}

func (d *directory) GetCart(ctx context.Context, id string) (CartView, error) {
	c, ok, err := d.activeCart(ctx, id)
	if err != nil {
		return CartView{}, err
	}
	if !ok {
		return CartView{CustomerID: id, TotalPrice: decimal.Zero, AveragePrice: decimal.Zero}, nil
	}

	prices, err := d.engine.Prices(ctx, c)
	if err != nil {
		return CartView{}, err
	}
	total, err := c.TotalPrice(prices)
	if err != nil {
		return CartView{}, err
	}
	avg, err := c.AveragePrice(prices)
	if err != nil {
		return CartView{}, err
	}

	view := CartView{
		ID:            c.ID,
		CustomerID:    c.CustomerID,
		Positions:     make([]PositionView, 0, len(c.Positions)),
		TotalQuantity: c.TotalQuantity(),
		TotalPrice:    total,
		AveragePrice:  avg,
	}
	for _, p := range c.Positions {
		price := prices[p.ProductID]
		view.Positions = append(view.Positions, PositionView{
			ID:         p.ID,
			ProductID:  p.ProductID,
			Quantity:   p.Quantity,
			UnitPrice:  price,
			TotalPrice: price.Mul(decimal.NewFromInt(int64(p.Quantity))),
		})
	}
	return view, nil
}

func (d *directory) AddProductToCart(ctx context.Context, customerID, productID string, quantity int) error {
	if quantity < domain.MinPositionQuantity {
		return domain.NewCartUpdate(nil, "Quantity must be positive. Provided: %d", quantity)
	}
	if quantity > domain.MaxPositionQuantity {
		return domain.NewCartUpdate(nil, "Cannot add more than %d items. Provided: %d", domain.MaxPositionQuantity, quantity)
	}

	customer, err := d.customers.FindActiveByID(ctx, customerID)
	if err != nil {
		return err
	}
	if _, err := d.products.GetActiveByID(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewCartUpdate(nil, "Cannot add product to cart: Product with ID %s is not active or does not exist", productID)
		}
		return err
	}

	err = d.withRetry(ctx, "add_product_to_cart", func() error {
		c, err := d.ensureCart(ctx, customer)
		if err != nil {
			return err
		}
		// Полная корзина отклоняет любое добавление, в том числе слияние с существующей позицией.
		if c.IsFull() {
			return domain.NewCartUpdate(domain.ErrCapacityExceeded, "Cart cannot contain more than %d different items", domain.MaxCartPositions)
		}
		if err := c.AddPosition(productID, quantity, uuid.NewString(), d.now()); err != nil {
			return err
		}
		return d.customers.SaveCart(ctx, c)
	})
	if err != nil {
		return err
	}

	d.events.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateCart,
		AggregateID:   customer.ID,
		Type:          domain.EventCartProductAdded,
		Payload:       map[string]any{"product_id": productID, "quantity": quantity},
	})
	return nil
}

func (d *directory) RemoveProductFromCart(ctx context.Context, customerID, productID string) error {
	customer, err := d.customers.FindActiveByID(ctx, customerID)
	if err != nil {
		return err
	}

	err = d.withRetry(ctx, "remove_product_from_cart", func() error {
		c, ok, err := d.cartOf(ctx, customer.ID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewCartUpdate(domain.ErrEmptyCart, "Cannot remove product: Cart of customer ID %s is empty", customer.ID)
		}
		switch err := c.RemovePosition(productID, d.now()); {
		case errors.Is(err, domain.ErrEmptyCart):
			return domain.NewCartUpdate(err, "Cannot remove product: Cart of customer ID %s is empty", customer.ID)
		case errors.Is(err, domain.ErrNotFoundInCart):
			return domain.NewCartUpdate(err, "Product ID %s not found in cart of customer ID %s", productID, customer.ID)
		case err != nil:
			return err
		}
		return d.customers.SaveCart(ctx, c)
	})
	if err != nil {
		return err
	}

	d.events.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateCart,
		AggregateID:   customer.ID,
		Type:          domain.EventCartProductRemoved,
		Payload:       map[string]any{"product_id": productID},
	})
	return nil
}

func (d *directory) ClearCart(ctx context.Context, customerID string) error {
	customer, err := d.customers.FindActiveByID(ctx, customerID)
	if err != nil {
		return err
	}

	err = d.withRetry(ctx, "clear_cart", func() error {
		c, ok, err := d.cartOf(ctx, customer.ID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewCartUpdate(domain.ErrEmptyCart, "Cannot clear cart: Cart of customer ID %s is already empty", customer.ID)
		}
		if err := c.Clear(d.now()); err != nil {
			if errors.Is(err, domain.ErrEmptyCart) {
				return domain.NewCartUpdate(err, "Cannot clear cart: Cart of customer ID %s is already empty", customer.ID)
			}
			return err
		}
		return d.customers.SaveCart(ctx, c)
	})
	if err != nil {
		return err
	}

	d.events.Emit(ctx, domain.Event{
		AggregateType: domain.AggregateCart,
		AggregateID:   customer.ID,
		Type:          domain.EventCartCleared,
	})
	return nil
}

// activeCart возвращает корзину активного покупателя; ok=false, если корзины нет.
func (d *directory) activeCart(ctx context.Context, customerID string) (domain.Cart, bool, error) {
	customer, err := d.customers.FindActiveByID(ctx, customerID)
	if err != nil {
		return domain.Cart{}, false, err
	}
	return d.cartOf(ctx, customer.ID)
}

func (d *directory) cartOf(ctx context.Context, customerID string) (domain.Cart, bool, error) {
	c, err := d.customers.GetCart(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Cart{}, false, nil
		}
		return domain.Cart{}, false, fmt.Errorf("load cart: %w", err)
	}
	return c, true, nil
}

// ensureCart возвращает корзину покупателя, создавая её при отсутствии.
func (d *directory) ensureCart(ctx context.Context, customer domain.Customer) (domain.Cart, error) {
	c, ok, err := d.cartOf(ctx, customer.ID)
	if err != nil || ok {
		return c, err
	}

	c = domain.NewCart(uuid.NewString(), customer.ID, d.now())
	if err := d.customers.AttachCart(ctx, customer, c); err != nil {
		return domain.Cart{}, err
	}
	d.logger.WithFields(log.Fields{
		"customer_id": customer.ID,
		"cart_id":     c.ID,
	}).Warn("customer had no cart, created a new one")
	return c, nil
}

func (d *directory) withRetry(ctx context.Context, operation string, fn func() error) error {
	return retry.OnConflict(ctx, d.retry, d.logger, operation, fn, func() {
		d.metrics.RecordRetry(operation)
	})
}

var _ Directory = (*directory)(nil)
