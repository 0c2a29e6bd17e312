package rest

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	shopv1 "github.com/vladislavdragonenkov/storefront/proto/shop/v1"
)

const (
	imageFormField  = "image"
	maxImageBytes   = 10 << 20
	multipartMemory = 1 << 20
)

type productSaveRequest struct {
	Title string           `json:"title"`
	Price *decimal.Decimal `json:"price"`
}

type productUpdateRequest struct {
	NewPrice *decimal.Decimal `json:"newPrice"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productSaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, shopv1.MethodCreateProduct, err)
		return
	}
	if req.Price == nil {
		writeError(w, h.logger, shopv1.MethodCreateProduct, &domain.ValidationError{Field: "price", Message: "price is required"})
		return
	}
	product, err := h.catalog.Create(r.Context(), req.Title, *req.Price)
	if err != nil {
		writeError(w, h.logger, shopv1.MethodCreateProduct, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(product))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListActive(r.Context())
	if err != nil {
		writeError(w, h.logger, shopv1.MethodListProducts, err)
		return
	}
	out := make([]productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetActiveByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, shopv1.MethodGetProduct, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(product))
}

func (h *Handler) updateProductPrice(w http.ResponseWriter, r *http.Request) {
	var req productUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, shopv1.MethodUpdateProductPrice, err)
		return
	}
	if req.NewPrice == nil {
		writeError(w, h.logger, shopv1.MethodUpdateProductPrice, &domain.ValidationError{Field: "newPrice", Message: "newPrice is required"})
		return
	}
	if err := h.catalog.UpdatePrice(r.Context(), chi.URLParam(r, "id"), *req.NewPrice); err != nil {
		writeError(w, h.logger, shopv1.MethodUpdateProductPrice, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, shopv1.MethodDeactivateProduct, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reactivateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Reactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, shopv1.MethodReactivateProduct, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) isProductActive(w http.ResponseWriter, r *http.Request) {
	active, err := h.catalog.IsActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, shopv1.MethodIsProductActive, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (h *Handler) countProducts(w http.ResponseWriter, r *http.Request) {
	count, err := h.catalog.CountActive(r.Context())
	if err != nil {
		writeError(w, h.logger, shopv1.MethodCountProducts, err)
		return
	}
	writeJSON(w, http.StatusOK, countDTO{Count: count})
}

func (h *Handler) productsTotalCost(w http.ResponseWriter, r *http.Request) {
	total, err := h.catalog.TotalActivePrice(r.Context())
	if err != nil {
		writeError(w, h.logger, shopv1.MethodProductsTotalPrice, err)
		return
	}
	writeJSON(w, http.StatusOK, amountDTO{Value: money(total)})
}

func (h *Handler) productsAveragePrice(w http.ResponseWriter, r *http.Request) {
	avg, err := h.catalog.AverageActivePrice(r.Context())
	if err != nil {
		writeError(w, h.logger, shopv1.MethodProductsAveragePrice, err)
		return
	}
	writeJSON(w, http.StatusOK, amountDTO{Value: money(avg)})
}

// attachProductImage принимает multipart/form-data с файлом в поле "image".
func (h *Handler) attachProductImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, h.logger, shopv1.MethodAttachProductImage, &domain.ValidationError{Field: imageFormField, Message: "multipart form with image file is required"})
		return
	}
	file, header, err := r.FormFile(imageFormField)
	if err != nil {
		writeError(w, h.logger, shopv1.MethodAttachProductImage, &domain.ValidationError{Field: imageFormField, Message: "image file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, h.logger, shopv1.MethodAttachProductImage, err)
		return
	}
	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	url, err := h.catalog.AttachImage(r.Context(), chi.URLParam(r, "id"), domain.Image{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		writeError(w, h.logger, shopv1.MethodAttachProductImage, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"image_url": url})
}
