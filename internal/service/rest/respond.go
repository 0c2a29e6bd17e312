package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/customer"
)

const maxBodyBytes = 1 << 20

type productDTO struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Active   bool   `json:"active"`
	ImageURL string `json:"image_url,omitempty"`
}

type customerDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	CartID string `json:"cart_id,omitempty"`
}

type positionDTO struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}

type cartDTO struct {
	ID            string        `json:"id,omitempty"`
	CustomerID    string        `json:"customer_id"`
	Positions     []positionDTO `json:"positions"`
	TotalQuantity int64         `json:"total_quantity"`
	TotalPrice    string        `json:"total_price"`
	AveragePrice  string        `json:"average_price"`
}

type countDTO struct {
	Count int64 `json:"count"`
}

type amountDTO struct {
	Value string `json:"value"`
}

func money(v decimal.Decimal) string {
	return v.StringFixed(domain.PriceScale)
}

func toProductDTO(p domain.Product) productDTO {
	return productDTO{ID: p.ID, Title: p.Title, Price: money(p.Price), Active: p.Active, ImageURL: p.ImageURL}
}

func toCustomerDTO(c domain.Customer) customerDTO {
	return customerDTO{ID: c.ID, Name: c.Name, Active: c.Active, CartID: c.CartID}
}

func toCartDTO(view customer.CartView) cartDTO {
	positions := make([]positionDTO, 0, len(view.Positions))
	for _, p := range view.Positions {
		positions = append(positions, positionDTO{
			ID:         p.ID,
			ProductID:  p.ProductID,
			Quantity:   p.Quantity,
			UnitPrice:  money(p.UnitPrice),
			TotalPrice: money(p.TotalPrice),
		})
	}
	return cartDTO{
		ID:            view.ID,
		CustomerID:    view.CustomerID,
		Positions:     positions,
		TotalQuantity: view.TotalQuantity,
		TotalPrice:    money(view.TotalPrice),
		AveragePrice:  money(view.AveragePrice),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": strings.TrimSpace(msg)})
}

// decodeJSON читает тело запроса с ограничением размера.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Message: fmt.Sprintf("malformed request body: %v", err)}
	}
	return nil
}

// statusFor сопоставляет доменную ошибку HTTP-коду.
// Бизнес-отказы корзины отдаются как 400, конфликт версий как 409.
func statusFor(err error) int {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation),
		errors.Is(err, domain.ErrImageInvalid),
		domain.IsBusinessRule(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsVersionConflict(err):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, catalog.ErrImagesDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError логирует и отдаёт ошибку операции. Детали внутренних ошибок клиенту не раскрываются.
func writeError(w http.ResponseWriter, logger *log.Entry, operation string, err error) {
	code := statusFor(err)
	entry := logger.WithError(err).WithFields(log.Fields{"operation": operation, "status": code})
	if code == http.StatusInternalServerError {
		entry.Error("request failed")
		writeErr(w, code, "internal error")
		return
	}
	entry.Warn("request rejected")

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		writeErr(w, code, validation.Message)
		return
	}
	writeErr(w, code, err.Error())
}
