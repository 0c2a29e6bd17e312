package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func newTestCart() domain.Cart {
	return domain.NewCart("cart-1", "c-1", time.Now().UTC())
}

func TestCart_AddPositionMergesQuantities(t *testing.T) {
	cart := newTestCart()
	now := time.Now().UTC()

	if err := cart.AddPosition("p-1", 3, "pos-1", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cart.AddPosition("p-1", 2, "pos-2", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cart.Positions) != 1 {
		t.Fatalf("expected single position, got %d", len(cart.Positions))
	}
	pos, ok := cart.FindPosition("p-1")
	if !ok || pos.Quantity != 5 || pos.ID != "pos-1" {
		t.Fatalf("unexpected position: %+v", pos)
	}
}

func TestCart_MergeDoesNotCapTotal(t *testing.T) {
	cart := newTestCart()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		if err := cart.AddPosition("p-1", domain.MaxPositionQuantity, fmt.Sprintf("pos-%d", i), now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := cart.TotalQuantity(); got != 300 {
		t.Fatalf("expected 300, got %d", got)
	}
}

func TestCart_CapacityExceeded(t *testing.T) {
	cart := newTestCart()
	now := time.Now().UTC()

	for i := 0; i < domain.MaxCartPositions; i++ {
		if err := cart.AddPosition(fmt.Sprintf("p-%d", i), 1, fmt.Sprintf("pos-%d", i), now); err != nil {
			t.Fatalf("unexpected error on %d: %v", i, err)
		}
	}

	err := cart.AddPosition("p-extra", 1, "pos-extra", now)
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if len(cart.Positions) != domain.MaxCartPositions {
		t.Fatalf("positions changed: %d", len(cart.Positions))
	}

	// слияние в существующую позицию допускается и при полной корзине
	if err := cart.AddPosition("p-0", 1, "pos-x", now); err != nil {
		t.Fatalf("merge into full cart failed: %v", err)
	}
}

func TestCart_RemovePositionErrorPriority(t *testing.T) {
	cart := newTestCart()
	now := time.Now().UTC()

	if err := cart.RemovePosition("p-1", now); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	if err := cart.AddPosition("p-1", 1, "pos-1", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cart.RemovePosition("p-2", now); !errors.Is(err, domain.ErrNotFoundInCart) {
		t.Fatalf("expected ErrNotFoundInCart, got %v", err)
	}
	if err := cart.RemovePosition("p-1", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatal("expected empty cart")
	}
}

func TestCart_Clear(t *testing.T) {
	cart := newTestCart()
	now := time.Now().UTC()

	if err := cart.Clear(now); !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	_ = cart.AddPosition("p-1", 1, "pos-1", now)
	_ = cart.AddPosition("p-2", 4, "pos-2", now)
	if err := cart.Clear(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatal("expected empty cart")
	}
}

func TestCart_Prices(t *testing.T) {
	cart := newTestCart()
	now := time.Now().UTC()
	prices := domain.PriceIndex{
		"p-1": decimal.RequireFromString("10.00"),
		"p-2": decimal.RequireFromString("0.01"),
	}

	total, err := cart.TotalPrice(prices)
	if err != nil || !total.IsZero() {
		t.Fatalf("expected zero total for empty cart, got %s (%v)", total, err)
	}
	avg, err := cart.AveragePrice(prices)
	if err != nil || !avg.IsZero() {
		t.Fatalf("expected zero average for empty cart, got %s (%v)", avg, err)
	}

	_ = cart.AddPosition("p-1", 3, "pos-1", now)
	_ = cart.AddPosition("p-2", 1, "pos-2", now)

	total, err = cart.TotalPrice(prices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("30.01")) {
		t.Fatalf("expected 30.01, got %s", total)
	}
	avg, err = cart.AveragePrice(prices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 30.01 / 4 = 7.5025 -> 7.50
	if !avg.Equal(decimal.RequireFromString("7.50")) {
		t.Fatalf("expected 7.50, got %s", avg)
	}
}

func TestCart_TotalPriceMissingProduct(t *testing.T) {
	cart := newTestCart()
	_ = cart.AddPosition("p-1", 1, "pos-1", time.Now().UTC())

	if _, err := cart.TotalPrice(domain.PriceIndex{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateQuantity(t *testing.T) {
	for _, q := range []int{1, 50, 100} {
		if err := domain.ValidateQuantity(q); err != nil {
			t.Fatalf("quantity %d must be valid: %v", q, err)
		}
	}
	for _, q := range []int{-1, 0, 101} {
		if err := domain.ValidateQuantity(q); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("quantity %d must be invalid, got %v", q, err)
		}
	}
}
