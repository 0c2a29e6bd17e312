package domain

import "context"

// ProductRepository описывает требования к хранилищу товаров.
// FindByID ищет по факту существования, FindActiveByID — только среди активных.
type ProductRepository interface {
	// Create сохраняет новый товар. Дубликат названия — ValidationError.
	Create(ctx context.Context, product Product) error
	// Save применяет изменения с учётом optimistic locking.
	Save(ctx context.Context, product Product) error
	FindByID(ctx context.Context, id string) (Product, error)
	FindActiveByID(ctx context.Context, id string) (Product, error)
	FindAllActive(ctx context.Context) ([]Product, error)
	CountActive(ctx context.Context) (int64, error)
	ExistsActiveByID(ctx context.Context, id string) (bool, error)
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	PriceBook
}

// CustomerRepository хранит покупателей и их корзины. Корзина сохраняется каскадно с позициями.
type CustomerRepository interface {
	// CreateWithCart атомарно сохраняет покупателя и его пустую корзину.
	CreateWithCart(ctx context.Context, customer Customer, cart Cart) error
	// Save применяет изменения покупателя с учётом optimistic locking.
	Save(ctx context.Context, customer Customer) error
	FindByID(ctx context.Context, id string) (Customer, error)
	FindActiveByID(ctx context.Context, id string) (Customer, error)
	FindAllActive(ctx context.Context) ([]Customer, error)
	CountActive(ctx context.Context) (int64, error)
	// GetCart возвращает корзину покупателя или ErrNotFound, если корзины нет.
	GetCart(ctx context.Context, customerID string) (Cart, error)
	// AttachCart создаёт корзину для покупателя без неё и связывает их.
	AttachCart(ctx context.Context, customer Customer, cart Cart) error
	// SaveCart заменяет набор позиций корзины с учётом optimistic locking.
	SaveCart(ctx context.Context, cart Cart) error
}
