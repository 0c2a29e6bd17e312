package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// EntityCustomer используется в сообщениях об ошибках и событиях.
const EntityCustomer = "Customer"

const (
	customerNameMinLen = 2
	customerNameMaxLen = 50
)

var customerNamePattern = regexp.MustCompile(`^[A-Z][a-z]+( [A-Z][a-z]+)*$`)

// Customer — покупатель. Владеет ровно одной корзиной, связь хранится по идентификатору.
type Customer struct {
	ID        string
	Name      string
	Active    bool
	CartID    string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCustomer создаёт активного покупателя с привязанной пустой корзиной.
func NewCustomer(id, name, cartID string, now time.Time) (Customer, Cart, error) {
	if err := ValidateCustomerName(name); err != nil {
		return Customer{}, Cart{}, err
	}
	customer := Customer{
		ID:        id,
		Name:      name,
		Active:    true,
		CartID:    cartID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return customer, NewCart(cartID, id, now), nil
}

// ValidateCustomerName проверяет формат имени: слова с заглавной буквы через одиночный пробел, 2..50 символов.
func ValidateCustomerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "Customer name cannot be empty"}
	}
	if n := utf8.RuneCountInString(name); n < customerNameMinLen || n > customerNameMaxLen {
		return &ValidationError{Field: "name", Message: "Customer name must be between 2 and 50 characters"}
	}
	if !customerNamePattern.MatchString(name) {
		return &ValidationError{
			Field:   "name",
			Message: "Customer name should start with capital letter and contain only letters",
		}
	}
	return nil
}

// Rename меняет имя покупателя.
func (c *Customer) Rename(name string, now time.Time) error {
	if err := ValidateCustomerName(name); err != nil {
		return err
	}
	c.Name = name
	c.UpdatedAt = now
	return nil
}

// Deactivate выполняет мягкое удаление. Корзина не затрагивается.
func (c *Customer) Deactivate(now time.Time) {
	c.Active = false
	c.UpdatedAt = now
}

// Reactivate восстанавливает покупателя.
func (c *Customer) Reactivate(now time.Time) {
	c.Active = true
	c.UpdatedAt = now
}

// HasCart сообщает, привязана ли к покупателю корзина.
func (c Customer) HasCart() bool {
	return c.CartID != ""
}
