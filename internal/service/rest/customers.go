package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	shopv1 "github.com/vladislavdragonenkov/storefront/proto/shop/v1"
)

type customerSaveRequest struct {
	Name string `json:"name"`
}

type customerUpdateRequest struct {
	NewName string `json:"newName"`
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerSaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, shopv1.MethodCreateCustomer, err)
		return
	}
	created, err := h.customers.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, h.logger, shopv1.MethodCreateCustomer, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerDTO(created))
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.customers.ListActive(r.Context())
	if err != nil {
		writeError(w, h.logger, shopv1.MethodListCustomers, err)
		return
	}
	out := make([]customerDTO, 0, len(list))
	for _, c := range list {
		out = append(out, toCustomerDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	found, err := h.customers.GetActiveByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, shopv1.MethodGetCustomer, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(found))
}

func (h *Handler) renameCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, shopv1.MethodRenameCustomer, err)
		return
	}
	if err := h.customers.Rename(r.Context(), chi.URLParam(r, "id"), req.NewName); err != nil {
		writeError(w, h.logger, shopv1.MethodRenameCustomer, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) deactivateCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, shopv1.MethodDeactivateCustomer, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reactivateCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Reactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, shopv1.MethodReactivateCustomer, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) countCustomers(w http.ResponseWriter, r *http.Request) {
	count, err := h.customers.CountActive(r.Context())
	if err != nil {
		writeError(w, h.logger, shopv1.MethodCountCustomers, err)
		return
	}
	writeJSON(w, http.StatusOK, countDTO{Count: count})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.customers.GetCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, shopv1.MethodGetCart, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(view))
}

func (h *Handler) cartTotalCost(w http.ResponseWriter, r *http.Request) {
	total, err := h.customers.CartTotalCost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, shopv1.MethodCartTotalPrice, err)
		return
	}
	writeJSON(w, http.StatusOK, amountDTO{Value: money(total)})
}

func (h *Handler) cartAveragePrice(w http.ResponseWriter, r *http.Request) {
	avg, err := h.customers.CartAveragePrice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, shopv1.MethodCartAveragePrice, err)
		return
	}
	writeJSON(w, http.StatusOK, amountDTO{Value: money(avg)})
}

// addProductToCart: количество передаётся query-параметром quantity, по умолчанию 1.
func (h *Handler) addProductToCart(w http.ResponseWriter, r *http.Request) {
	quantity := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("quantity")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, h.logger, shopv1.MethodAddProductToCart, &domain.ValidationError{Field: "quantity", Message: "quantity must be an integer"})
			return
		}
		quantity = parsed
	}

	err := h.customers.AddProductToCart(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productId"), quantity)
	if err != nil {
		writeError(w, h.logger, shopv1.MethodAddProductToCart, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) removeProductFromCart(w http.ResponseWriter, r *http.Request) {
	err := h.customers.RemoveProductFromCart(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, h.logger, shopv1.MethodRemoveProductFromCart, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.ClearCart(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, shopv1.MethodClearCart, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
