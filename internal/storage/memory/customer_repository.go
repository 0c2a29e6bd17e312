package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// customerRepositoryInMemory хранит покупателей и корзины под одним мьютексом,
// чтобы создание покупателя с корзиной было атомарным.
type customerRepositoryInMemory struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
	carts     map[string]domain.Cart // ключ — customer_id
}

// NewCustomerRepository возвращает in-memory репозиторий покупателей.
func NewCustomerRepository() domain.CustomerRepository {
	return &customerRepositoryInMemory{
		customers: make(map[string]domain.Customer),
		carts:     make(map[string]domain.Cart),
	}
}

func (r *customerRepositoryInMemory) CreateWithCart(_ context.Context, customer domain.Customer, cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.customers[customer.ID]; exists {
		return domain.ErrVersionConflict
	}
	customer.CartID = cart.ID
	cart.CustomerID = customer.ID
	r.customers[customer.ID] = customer
	r.carts[customer.ID] = cloneCart(cart)
	return nil
}

func (r *customerRepositoryInMemory) Save(_ context.Context, customer domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.customers[customer.ID]
	if !ok {
		return domain.NewNotFound(domain.EntityCustomer, customer.ID)
	}
	if current.Version != customer.Version {
		return domain.ErrVersionConflict
	}
	// Связь с корзиной меняется только через CreateWithCart/AttachCart.
	customer.CartID = current.CartID
	customer.Version++
	r.customers[customer.ID] = customer
	return nil
}

func (r *customerRepositoryInMemory) FindByID(_ context.Context, id string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok {
		return domain.Customer{}, domain.NewNotFound(domain.EntityCustomer, id)
	}
	return c, nil
}

func (r *customerRepositoryInMemory) FindActiveByID(_ context.Context, id string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok || !c.Active {
		return domain.Customer{}, domain.NewNotFound(domain.EntityCustomer, id)
	}
	return c, nil
}

func (r *customerRepositoryInMemory) FindAllActive(_ context.Context) ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		if c.Active {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *customerRepositoryInMemory) CountActive(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, c := range r.customers {
		if c.Active {
			n++
		}
	}
	return n, nil
}

func (r *customerRepositoryInMemory) GetCart(_ context.Context, customerID string) (domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[customerID]
	if !ok {
		return domain.Cart{}, domain.NewNotFound(domain.EntityCart, customerID)
	}
	return cloneCart(cart), nil
}

func (r *customerRepositoryInMemory) AttachCart(_ context.Context, customer domain.Customer, cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.customers[customer.ID]
	if !ok {
		return domain.NewNotFound(domain.EntityCustomer, customer.ID)
	}
	if _, exists := r.carts[customer.ID]; exists {
		return domain.ErrVersionConflict
	}
	cart.CustomerID = current.ID
	current.CartID = cart.ID
	current.Version++
	r.customers[current.ID] = current
	r.carts[current.ID] = cloneCart(cart)
	return nil
}

// SaveCart заменяет корзину целиком, проверяя версию (optimistic locking).
func (r *customerRepositoryInMemory) SaveCart(_ context.Context, cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.carts[cart.CustomerID]
	if !ok || current.ID != cart.ID {
		return domain.NewNotFound(domain.EntityCart, cart.ID)
	}
	if current.Version != cart.Version {
		return domain.ErrVersionConflict
	}
	cart.Version++
	r.carts[cart.CustomerID] = cloneCart(cart)
	return nil
}

func cloneCart(src domain.Cart) domain.Cart {
	dst := src
	if src.Positions != nil {
		dst.Positions = append([]domain.Position(nil), src.Positions...)
	}
	return dst
}

var _ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
