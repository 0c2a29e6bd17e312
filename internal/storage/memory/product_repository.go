package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// productRepositoryInMemory — простая in-memory реализация ProductRepository.
type productRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{
		items: make(map[string]domain.Product),
	}
}

// Create сохраняет новый товар, если ID и название ещё не заняты.
func (r *productRepositoryInMemory) Create(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; exists {
		return domain.ErrVersionConflict
	}
	for _, p := range r.items {
		if p.Title == product.Title {
			return titleTakenError(product.Title)
		}
	}
	r.items[product.ID] = product
	return nil
}

// Save перезаписывает товар, проверяя версию (optimistic locking).
func (r *productRepositoryInMemory) Save(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[product.ID]
	if !ok {
		return domain.NewNotFound(domain.EntityProduct, product.ID)
	}
	if current.Version != product.Version {
		return domain.ErrVersionConflict
	}
	product.Version++
	r.items[product.ID] = product
	return nil
}

func (r *productRepositoryInMemory) FindByID(_ context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.NewNotFound(domain.EntityProduct, id)
	}
	return p, nil
}

func (r *productRepositoryInMemory) FindActiveByID(_ context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok || !p.Active {
		return domain.Product{}, domain.NewNotFound(domain.EntityProduct, id)
	}
	return p, nil
}

// FindAllActive возвращает активные товары, упорядоченные по времени создания.
func (r *productRepositoryInMemory) FindAllActive(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.items))
	for _, p := range r.items {
		if p.Active {
			result = append(result, p)
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

func (r *productRepositoryInMemory) CountActive(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.items {
		if p.Active {
			n++
		}
	}
	return n, nil
}

func (r *productRepositoryInMemory) ExistsActiveByID(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	return ok && p.Active, nil
}

func (r *productRepositoryInMemory) ExistsByTitle(_ context.Context, title string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.items {
		if p.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// PricesByID отдаёт цены независимо от флага активности.
func (r *productRepositoryInMemory) PricesByID(_ context.Context, ids []string) (domain.PriceIndex, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prices := make(domain.PriceIndex, len(ids))
	for _, id := range ids {
		if p, ok := r.items[id]; ok {
			prices[id] = p.Price
		}
	}
	return prices, nil
}

func titleTakenError(title string) error {
	return &domain.ValidationError{Field: "title", Message: "Product with title " + title + " already exists"}
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
