package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type priceBookStub struct {
	prices domain.PriceIndex
	err    error
	calls  int
}

func (p *priceBookStub) PricesByID(_ context.Context, ids []string) (domain.PriceIndex, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := make(domain.PriceIndex, len(ids))
	for _, id := range ids {
		if price, ok := p.prices[id]; ok {
			out[id] = price
		}
	}
	return out, nil
}

func newCart(t *testing.T, lines map[string]int) domain.Cart {
	t.Helper()
	now := time.Now().UTC()
	c := domain.NewCart("cart-1", "customer-1", now)
	for productID, qty := range lines {
		require.NoError(t, c.AddPosition(productID, qty, "pos-"+productID, now))
	}
	return c
}

func TestEngine_EmptyCartIsZeroWithoutLookup(t *testing.T) {
	book := &priceBookStub{}
	engine := NewEngine(book)
	c := newCart(t, nil)

	total, err := engine.TotalPrice(context.Background(), c)
	require.NoError(t, err)
	require.True(t, total.IsZero())

	avg, err := engine.AveragePrice(context.Background(), c)
	require.NoError(t, err)
	require.True(t, avg.IsZero())
	require.Zero(t, book.calls)
}

func TestEngine_TotalsAndAverage(t *testing.T) {
	book := &priceBookStub{prices: domain.PriceIndex{
		"book": decimal.RequireFromString("10.00"),
		"pen":  decimal.RequireFromString("0.01"),
	}}
	engine := NewEngine(book)
	c := newCart(t, map[string]int{"book": 3, "pen": 1})

	total, err := engine.TotalPrice(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, "30.01", total.StringFixed(2))

	avg, err := engine.AveragePrice(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, "7.50", avg.StringFixed(2))
}

func TestEngine_Errors(t *testing.T) {
	c := newCart(t, map[string]int{"book": 1})

	_, err := NewEngine(&priceBookStub{prices: domain.PriceIndex{}}).TotalPrice(context.Background(), c)
	require.ErrorIs(t, err, domain.ErrNotFound)

	boom := errors.New("db down")
	_, err = NewEngine(&priceBookStub{err: boom}).AveragePrice(context.Background(), c)
	require.ErrorIs(t, err, boom)
}
