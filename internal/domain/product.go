package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntityProduct используется в сообщениях об ошибках и событиях.
const EntityProduct = "Product"

var (
	productTitlePattern = regexp.MustCompile(`^[A-Z][A-Za-z ]{2,99}$`)
	// MaxProductPrice — верхняя граница цены (не включительно).
	MaxProductPrice = decimal.NewFromInt(1000)
)

// Product — товар каталога. Никогда не удаляется физически, только деактивируется.
type Product struct {
	ID        string
	Title     string
	Price     decimal.Decimal
	Active    bool
	ImageURL  string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct создаёт активный товар после проверки названия и цены.
func NewProduct(id, title string, price decimal.Decimal, now time.Time) (Product, error) {
	if err := ValidateProductTitle(title); err != nil {
		return Product{}, err
	}
	if err := ValidateProductPrice(price); err != nil {
		return Product{}, err
	}
	return Product{
		ID:        id,
		Title:     title,
		Price:     price,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateProductTitle проверяет формат названия: заглавная буква, далее буквы и пробелы, от 3 до 100 символов.
// Пробелы по краям не обрезаются.
func ValidateProductTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "Product title cannot be empty"}
	}
	if !productTitlePattern.MatchString(title) {
		return &ValidationError{
			Field:   "title",
			Message: "Product title should be at least three characters length and starts with capital letter",
		}
	}
	return nil
}

// ValidateProductPrice проверяет 0 <= price < 1000 и не больше двух знаков после запятой.
// Цена не округляется: сохраняется ровно то значение, что пришло.
func ValidateProductPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return &ValidationError{Field: "price", Message: "Product price should be greater or equal than 0"}
	}
	if price.GreaterThanOrEqual(MaxProductPrice) {
		return &ValidationError{Field: "price", Message: "Product price should be lesser than 1000"}
	}
	if !price.Equal(price.Truncate(PriceScale)) {
		return &ValidationError{Field: "price", Message: "Product price should have at most 2 decimal places"}
	}
	return nil
}

// ChangePrice меняет цену без изменения флага активности.
func (p *Product) ChangePrice(price decimal.Decimal, now time.Time) error {
	if err := ValidateProductPrice(price); err != nil {
		return err
	}
	p.Price = price
	p.UpdatedAt = now
	return nil
}

// Deactivate выполняет мягкое удаление.
func (p *Product) Deactivate(now time.Time) {
	p.Active = false
	p.UpdatedAt = now
}

// Reactivate восстанавливает товар.
func (p *Product) Reactivate(now time.Time) {
	p.Active = true
	p.UpdatedAt = now
}

// AttachImage сохраняет публичный URL изображения.
func (p *Product) AttachImage(url string, now time.Time) {
	p.ImageURL = url
	p.UpdatedAt = now
}
