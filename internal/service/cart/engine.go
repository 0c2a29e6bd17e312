package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Engine считает производные значения корзины по ценам из PriceBook.
// Цены берутся без учёта флага активности: деактивированный товар в корзине продолжает учитываться.
type Engine struct {
	prices domain.PriceBook
}

// NewEngine создаёт Engine.
func NewEngine(prices domain.PriceBook) *Engine {
	return &Engine{prices: prices}
}

// Prices возвращает цены всех товаров корзины.
func (e *Engine) Prices(ctx context.Context, cart domain.Cart) (domain.PriceIndex, error) {
	if cart.IsEmpty() {
		return domain.PriceIndex{}, nil
	}
	index, err := e.prices.PricesByID(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("load cart prices: %w", err)
	}
	return index, nil
}

// TotalPrice возвращает Σ quantity × price; ноль для пустой корзины.
func (e *Engine) TotalPrice(ctx context.Context, cart domain.Cart) (decimal.Decimal, error) {
	index, err := e.Prices(ctx, cart)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.TotalPrice(index)
}

// AveragePrice возвращает среднюю цену единицы товара с округлением half-up до 2 знаков.
func (e *Engine) AveragePrice(ctx context.Context, cart domain.Cart) (decimal.Decimal, error) {
	if cart.TotalQuantity() == 0 {
		return decimal.Zero, nil
	}
	index, err := e.Prices(ctx, cart)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.AveragePrice(index)
}
