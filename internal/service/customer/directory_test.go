package customer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/events"
	"github.com/vladislavdragonenkov/storefront/internal/service/retry"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type fixture struct {
	dir       Directory
	catalog   catalog.Service
	customers domain.CustomerRepository
	history   domain.HistoryRepository
}

func newFixture(t *testing.T, wrap func(domain.CustomerRepository) domain.CustomerRepository, opts ...Option) fixture {
	t.Helper()
	logger := log.New().WithField("test", t.Name())
	products := memory.NewProductRepository()
	customers := memory.NewCustomerRepository()
	if wrap != nil {
		customers = wrap(customers)
	}
	history := memory.NewHistoryRepository()
	recorder := events.NewRecorder(memory.NewOutboxRepository(), history, nil, logger)

	cat := catalog.NewService(products, nil, recorder, logger)
	opts = append([]Option{
		WithEvents(recorder),
		WithRetryConfig(retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 2}),
	}, opts...)
	dir := NewDirectory(customers, cat, cart.NewEngine(products), logger, opts...)
	return fixture{dir: dir, catalog: cat, customers: customers, history: history}
}

func (f fixture) product(t *testing.T, title, price string) domain.Product {
	t.Helper()
	p, err := f.catalog.Create(context.Background(), title, decimal.RequireFromString(price))
	require.NoError(t, err)
	return p
}

func (f fixture) customer(t *testing.T, name string) domain.Customer {
	t.Helper()
	c, err := f.dir.Create(context.Background(), name)
	require.NoError(t, err)
	return c
}

func TestCreateCustomerWithEmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	c := f.customer(t, "Ivan Ivanov")
	require.True(t, c.Active)
	require.True(t, c.HasCart())

	view, err := f.dir.GetCart(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.CartID, view.ID)
	require.Empty(t, view.Positions)
	require.Equal(t, "0.00", view.TotalPrice.StringFixed(2))
	require.Equal(t, "0.00", view.AveragePrice.StringFixed(2))

	for _, bad := range []string{"", "i", "ivan", "Ivan  Ivanov", "Ivan3", "Ivan ivanov"} {
		_, err := f.dir.Create(ctx, bad)
		require.ErrorIs(t, err, domain.ErrValidation, bad)
	}

	count, err := f.dir.CountActive(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestCustomerLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	book := f.product(t, "Good Book", "10.00")
	c := f.customer(t, "Ivan Ivanov")
	require.NoError(t, f.dir.AddProductToCart(ctx, c.ID, book.ID, 2))

	require.NoError(t, f.dir.Rename(ctx, c.ID, "Petr Petrov"))
	require.ErrorIs(t, f.dir.Rename(ctx, c.ID, "petr"), domain.ErrValidation)

	require.NoError(t, f.dir.Deactivate(ctx, c.ID))
	list, err := f.dir.ListActive(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
	_, err = f.dir.GetActiveByID(ctx, c.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, f.dir.Deactivate(ctx, c.ID), domain.ErrNotFound)
	require.ErrorIs(t, f.dir.Rename(ctx, c.ID, "Ivan Ivanov"), domain.ErrNotFound)
	_, err = f.dir.CartTotalCost(ctx, c.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.dir.Reactivate(ctx, c.ID))
	list, err = f.dir.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Petr Petrov", list[0].Name)
	require.Equal(t, c.CartID, list[0].CartID)

	total, err := f.dir.CartTotalCost(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "20.00", total.StringFixed(2))

	require.ErrorIs(t, f.dir.Reactivate(ctx, "missing"), domain.ErrNotFound)

	history, err := f.history.List(ctx, domain.AggregateCustomer, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, domain.EventCustomerCreated, history[0].Type)
	require.Equal(t, domain.EventCustomerReactivated, history[3].Type)
}

func TestAddProductToCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	book := f.product(t, "Good Book", "10.00")
	c := f.customer(t, "Ivan Ivanov")

	t.Run("quantity bounds", func(t *testing.T) {
		err := f.dir.AddProductToCart(ctx, c.ID, book.ID, 0)
		require.ErrorIs(t, err, domain.ErrCartUpdate)
		require.EqualError(t, err, "Quantity must be positive. Provided: 0")

		err = f.dir.AddProductToCart(ctx, c.ID, book.ID, 101)
		require.ErrorIs(t, err, domain.ErrCartUpdate)
		require.EqualError(t, err, "Cannot add more than 100 items. Provided: 101")
	})

	t.Run("unknown customer", func(t *testing.T) {
		require.ErrorIs(t, f.dir.AddProductToCart(ctx, "missing", book.ID, 1), domain.ErrNotFound)
	})

	t.Run("inactive product", func(t *testing.T) {
		hidden := f.product(t, "Hidden book", "1")
		require.NoError(t, f.catalog.Deactivate(ctx, hidden.ID))

		err := f.dir.AddProductToCart(ctx, c.ID, hidden.ID, 1)
		require.ErrorIs(t, err, domain.ErrCartUpdate)
		require.NotErrorIs(t, err, domain.ErrNotFound)
		require.Contains(t, err.Error(), "is not active or does not exist")

		err = f.dir.AddProductToCart(ctx, c.ID, "missing", 1)
		require.ErrorIs(t, err, domain.ErrCartUpdate)
	})

	t.Run("merge keeps single position without cap", func(t *testing.T) {
		require.NoError(t, f.dir.AddProductToCart(ctx, c.ID, book.ID, 100))
		require.NoError(t, f.dir.AddProductToCart(ctx, c.ID, book.ID, 100))

		view, err := f.dir.GetCart(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, view.Positions, 1)
		require.Equal(t, 200, view.Positions[0].Quantity)
		require.Equal(t, "2000.00", view.Positions[0].TotalPrice.StringFixed(2))
		require.EqualValues(t, 200, view.TotalQuantity)
	})
}

func TestInactiveProductStillPricedInCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	book := f.product(t, "Good Book", "10.00")
	c := f.customer(t, "Ivan Ivanov")
	require.NoError(t, f.dir.AddProductToCart(ctx, c.ID, book.ID, 3))
	require.NoError(t, f.catalog.Deactivate(ctx, book.ID))

	total, err := f.dir.CartTotalCost(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "30.00", total.StringFixed(2))
}

func TestCartCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	c := f.customer(t, "Ivan Ivanov")

	var first domain.Product
	for i := 0; i < domain.MaxCartPositions; i++ {
		p := f.product(t, fmt.Sprintf("Book %s", letters(i)), "1")
		require.NoError(t, f.dir.AddProductToCart(ctx, c.ID, p.ID, 1))
		if i == 0 {
			first = p
		}
	}
	extra := f.product(t, "Extra book", "1")

	err := f.dir.AddProductToCart(ctx, c.ID, extra.ID, 1)
	require.ErrorIs(t, err, domain.ErrCartUpdate)
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	require.EqualError(t, err, "Cart cannot contain more than 50 different items")

	// Слияние с уже лежащим товаром в полной корзине тоже отклоняется.
	err = f.dir.AddProductToCart(ctx, c.ID, first.ID, 1)
	require.ErrorIs(t, err, domain.ErrCartUpdate)
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)

	view, err := f.dir.GetCart(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, view.Positions, domain.MaxCartPositions)
	require.Equal(t, "50.00", view.TotalPrice.StringFixed(2))
	for _, position := range view.Positions {
		require.Equal(t, 1, position.Quantity)
	}
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	book := f.product(t, "Good Book", "10.00")
	pen := f.product(t, "Blue pen", "0.50")
	c := f.customer(t, "Ivan Ivanov")

	err := f.dir.RemoveProductFromCart(ctx, c.ID, book.ID)
	require.ErrorIs(t, err, domain.ErrCartUpdate)
	require.ErrorIs(t, err, domain.ErrEmptyCart)
	require.EqualError(t, err, fmt.Sprintf("Cannot remove product: Cart of customer ID %s is empty", c.ID))

	require.NoError(t, f.dir.AddProductToCart(ctx, c.ID, book.ID, 1))

	err = f.dir.RemoveProductFromCart(ctx, c.ID, pen.ID)
	require.ErrorIs(t, err, domain.ErrNotFoundInCart)
	require.EqualError(t, err, fmt.Sprintf("Product ID %s not found in cart of customer ID %s", pen.ID, c.ID))

	require.NoError(t, f.dir.AddProductToCart(ctx, c.ID, pen.ID, 4))
	require.NoError(t, f.dir.RemoveProductFromCart(ctx, c.ID, book.ID))

	avg, err := f.dir.CartAveragePrice(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "0.50", avg.StringFixed(2))

	require.NoError(t, f.dir.ClearCart(ctx, c.ID))
	err = f.dir.ClearCart(ctx, c.ID)
	require.ErrorIs(t, err, domain.ErrEmptyCart)
	require.EqualError(t, err, fmt.Sprintf("Cannot clear cart: Cart of customer ID %s is already empty", c.ID))

	require.ErrorIs(t, f.dir.ClearCart(ctx, "missing"), domain.ErrNotFound)
	require.ErrorIs(t, f.dir.RemoveProductFromCart(ctx, "missing", pen.ID), domain.ErrNotFound)

	history, err := f.history.List(ctx, domain.AggregateCart, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, domain.EventCartCleared, history[3].Type)
}

// cartlessRepository хранит корзины отдельно, чтобы смоделировать покупателя без корзины.
type cartlessRepository struct {
	domain.CustomerRepository
	mu       sync.Mutex
	carts    map[string]domain.Cart
	attached int
}

func (r *cartlessRepository) GetCart(_ context.Context, customerID string) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[customerID]
	if !ok {
		return domain.Cart{}, domain.NewNotFound(domain.EntityCart, customerID)
	}
	return c, nil
}

func (r *cartlessRepository) AttachCart(_ context.Context, customer domain.Customer, c domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attached++
	r.carts[customer.ID] = c
	return nil
}

func (r *cartlessRepository) SaveCart(_ context.Context, c domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Version++
	r.carts[c.CustomerID] = c
	return nil
}

func TestMissingCartIsRepairedLazily(t *testing.T) {
	ctx := context.Background()
	var repo *cartlessRepository
	f := newFixture(t, func(inner domain.CustomerRepository) domain.CustomerRepository {
		repo = &cartlessRepository{CustomerRepository: inner, carts: map[string]domain.Cart{}}
		return repo
	})
	book := f.product(t, "Good Book", "10.00")
	c := f.customer(t, "Ivan Ivanov")

	total, err := f.dir.CartTotalCost(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, total.IsZero())
	avg, err := f.dir.CartAveragePrice(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, avg.IsZero())

	require.ErrorIs(t, f.dir.ClearCart(ctx, c.ID), domain.ErrEmptyCart)

	require.NoError(t, f.dir.AddProductToCart(ctx, c.ID, book.ID, 2))
	require.Equal(t, 1, repo.attached)

	total, err = f.dir.CartTotalCost(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "20.00", total.StringFixed(2))
}

// conflictingRepository отклоняет первые сохранения корзины конфликтом версий.
type conflictingRepository struct {
	domain.CustomerRepository
	conflicts int
	calls     int
}

func (r *conflictingRepository) SaveCart(ctx context.Context, c domain.Cart) error {
	r.calls++
	if r.calls <= r.conflicts {
		return domain.ErrVersionConflict
	}
	return r.CustomerRepository.SaveCart(ctx, c)
}

func TestCartWriteRetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.NewShopMetricsWithRegisterer(reg)

	var repo *conflictingRepository
	f := newFixture(t, func(inner domain.CustomerRepository) domain.CustomerRepository {
		repo = &conflictingRepository{CustomerRepository: inner, conflicts: 2}
		return repo
	}, WithMetrics(m))
	book := f.product(t, "Good Book", "10.00")
	c := f.customer(t, "Ivan Ivanov")

	require.NoError(t, f.dir.AddProductToCart(ctx, c.ID, book.ID, 1))
	require.Equal(t, 3, repo.calls)
	require.Equal(t, 2.0, testutil.ToFloat64(m.RetriesFor("add_product_to_cart")))

	repo.calls, repo.conflicts = 0, 5
	err := f.dir.AddProductToCart(ctx, c.ID, book.ID, 1)
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	require.Equal(t, 3, repo.calls)

	total, err := f.dir.CartTotalCost(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "10.00", total.StringFixed(2))
}

type brokenCatalog struct{}

func (brokenCatalog) GetActiveByID(context.Context, string) (domain.Product, error) {
	return domain.Product{}, errors.New("catalog unavailable")
}

func TestCatalogFailurePropagates(t *testing.T) {
	ctx := context.Background()
	customers := memory.NewCustomerRepository()
	dir := NewDirectory(customers, brokenCatalog{}, cart.NewEngine(memory.NewProductRepository()), nil)

	c, err := dir.Create(ctx, "Ivan Ivanov")
	require.NoError(t, err)

	err = dir.AddProductToCart(ctx, c.ID, "p-1", 1)
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrCartUpdate)
	require.EqualError(t, err, "catalog unavailable")
}

func TestInstrumentedDirectory(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.NewShopMetricsWithRegisterer(reg)
	f := newFixture(t, nil)
	dir := NewInstrumented(f.dir, m, nil)

	c, err := dir.Create(ctx, "Ivan Ivanov")
	require.NoError(t, err)
	require.ErrorIs(t, dir.ClearCart(ctx, c.ID), domain.ErrEmptyCart)
	_, err = dir.GetActiveByID(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.Equal(t, 1.0, testutil.ToFloat64(m.OperationsFor("customer", "create", metrics.ResultOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.OperationsFor("customer", "clear_cart", metrics.ResultRejected)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.OperationsFor("customer", "get_active", metrics.ResultNotFound)))
}

// letters превращает число в суффикс из строчных букв, пригодный для названия товара.
func letters(i int) string {
	return string(rune('a'+i/26)) + string(rune('a'+i%26))
}
