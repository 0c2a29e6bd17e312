package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityCart используется в сообщениях об ошибках и событиях.
const EntityCart = "Cart"

const (
	// MaxCartPositions — максимум различных товаров в одной корзине.
	MaxCartPositions = 50
	// MinPositionQuantity и MaxPositionQuantity ограничивают количество, добавляемое за один вызов.
	MinPositionQuantity = 1
	MaxPositionQuantity = 100
)

// Position — строка корзины: товар и количество. Ссылки только по идентификаторам.
type Position struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Cart — агрегат корзины, владеет своими позициями. Товар в корзине уникален.
type Cart struct {
	ID         string
	CustomerID string
	Positions  []Position
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PriceIndex сопоставляет идентификатор товара с его ценой.
type PriceIndex map[string]decimal.Decimal

// NewCart создаёт пустую корзину покупателя.
func NewCart(id, customerID string, now time.Time) Cart {
	return Cart{
		ID:         id,
		CustomerID: customerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsEmpty сообщает, что в корзине нет позиций.
func (c *Cart) IsEmpty() bool {
	return len(c.Positions) == 0
}

// IsFull сообщает, что новую позицию добавить нельзя.
func (c *Cart) IsFull() bool {
	return len(c.Positions) >= MaxCartPositions
}

// FindPosition возвращает позицию по товару.
func (c *Cart) FindPosition(productID string) (Position, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Positions[i], true
	}
	return Position{}, false
}

// AddPosition увеличивает количество существующей позиции или добавляет новую.
// Суммарное количество после слияния не ограничивается: границы проверяются только для входного значения.
func (c *Cart) AddPosition(productID string, quantity int, positionID string, now time.Time) error {
	if quantity < MinPositionQuantity {
		return &ValidationError{Field: "quantity", Message: "quantity must be positive"}
	}
	if i := c.indexOf(productID); i >= 0 {
		c.Positions[i].Quantity += quantity
		c.Positions[i].UpdatedAt = now
		c.UpdatedAt = now
		return nil
	}
	if c.IsFull() {
		return ErrCapacityExceeded
	}
	c.Positions = append(c.Positions, Position{
		ID:        positionID,
		CartID:    c.ID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	})
	c.UpdatedAt = now
	return nil
}

// RemovePosition удаляет позицию товара. Пустая корзина проверяется раньше отсутствия товара.
func (c *Cart) RemovePosition(productID string, now time.Time) error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	i := c.indexOf(productID)
	if i < 0 {
		return ErrNotFoundInCart
	}
	c.Positions = append(c.Positions[:i], c.Positions[i+1:]...)
	c.UpdatedAt = now
	return nil
}

// Clear удаляет все позиции.
func (c *Cart) Clear(now time.Time) error {
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	c.Positions = nil
	c.UpdatedAt = now
	return nil
}

// TotalQuantity — сумма количеств по всем позициям.
func (c *Cart) TotalQuantity() int64 {
	var total int64
	for _, p := range c.Positions {
		total += int64(p.Quantity)
	}
	return total
}

// ProductIDs возвращает товары корзины в порядке позиций.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Positions))
	for _, p := range c.Positions {
		ids = append(ids, p.ProductID)
	}
	return ids
}

// TotalPrice считает Σ quantity × price. Цена каждого товара корзины должна быть в индексе.
func (c *Cart) TotalPrice(prices PriceIndex) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range c.Positions {
		price, ok := prices[p.ProductID]
		if !ok {
			return decimal.Zero, NewNotFound(EntityProduct, p.ProductID)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(p.Quantity))))
	}
	return total, nil
}

// AveragePrice — средняя цена единицы товара, 2 знака half-up; ноль для пустой корзины.
func (c *Cart) AveragePrice(prices PriceIndex) (decimal.Decimal, error) {
	qty := c.TotalQuantity()
	if qty == 0 {
		return decimal.Zero, nil
	}
	total, err := c.TotalPrice(prices)
	if err != nil {
		return decimal.Zero, err
	}
	return AverageOf(total, qty), nil
}

// ValidateQuantity проверяет количество, добавляемое за один вызов.
func ValidateQuantity(quantity int) error {
	if quantity < MinPositionQuantity {
		return &ValidationError{Field: "quantity", Message: "quantity must be positive"}
	}
	if quantity > MaxPositionQuantity {
		return &ValidationError{Field: "quantity", Message: "quantity must not exceed 100"}
	}
	return nil
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Positions {
		if c.Positions[i].ProductID == productID {
			return i
		}
	}
	return -1
}
