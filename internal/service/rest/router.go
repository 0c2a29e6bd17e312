// Package rest публикует каталог и справочник покупателей поверх HTTP/JSON.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/customer"
	"github.com/vladislavdragonenkov/storefront/internal/service/identity"
	shopv1 "github.com/vladislavdragonenkov/storefront/proto/shop/v1"
)

// Handler содержит зависимости HTTP-обработчиков.
type Handler struct {
	catalog   catalog.Service
	customers customer.Directory
	provider  domain.IdentityProvider
	policy    identity.Policy
	logger    *log.Entry
}

// NewHandler конструирует обработчики. При provider == nil проверка токенов отключена.
func NewHandler(
	catalogService catalog.Service,
	customers customer.Directory,
	provider domain.IdentityProvider,
	policy identity.Policy,
	logger *log.Entry,
) *Handler {
	if logger == nil {
		logger = log.WithField("component", "rest")
	}
	return &Handler{
		catalog:   catalogService,
		customers: customers,
		provider:  provider,
		policy:    policy,
		logger:    logger,
	}
}

// Router собирает маршруты /products и /customers.
// Имена операций совпадают с методами gRPC, поэтому обе поверхности делят одну политику ролей.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/products", func(r chi.Router) {
		r.With(h.authorize(shopv1.MethodCreateProduct)).Post("/", h.createProduct)
		r.With(h.authorize(shopv1.MethodListProducts)).Get("/", h.listProducts)
		r.With(h.authorize(shopv1.MethodCountProducts)).Get("/count", h.countProducts)
		r.With(h.authorize(shopv1.MethodProductsTotalPrice)).Get("/total-cost", h.productsTotalCost)
		r.With(h.authorize(shopv1.MethodProductsAveragePrice)).Get("/avg", h.productsAveragePrice)
		r.Route("/{id}", func(r chi.Router) {
			r.With(h.authorize(shopv1.MethodGetProduct)).Get("/", h.getProduct)
			r.With(h.authorize(shopv1.MethodUpdateProductPrice)).Put("/", h.updateProductPrice)
			r.With(h.authorize(shopv1.MethodDeactivateProduct)).Delete("/", h.deactivateProduct)
			r.With(h.authorize(shopv1.MethodReactivateProduct)).Put("/restore", h.reactivateProduct)
			r.With(h.authorize(shopv1.MethodIsProductActive)).Get("/active", h.isProductActive)
			r.With(h.authorize(shopv1.MethodAttachProductImage)).Post("/image", h.attachProductImage)
		})
	})

	r.Route("/customers", func(r chi.Router) {
		r.With(h.authorize(shopv1.MethodCreateCustomer)).Post("/", h.createCustomer)
		r.With(h.authorize(shopv1.MethodListCustomers)).Get("/", h.listCustomers)
		r.With(h.authorize(shopv1.MethodCountCustomers)).Get("/count", h.countCustomers)
		r.Route("/{id}", func(r chi.Router) {
			r.With(h.authorize(shopv1.MethodGetCustomer)).Get("/", h.getCustomer)
			r.With(h.authorize(shopv1.MethodRenameCustomer)).Put("/", h.renameCustomer)
			r.With(h.authorize(shopv1.MethodDeactivateCustomer)).Delete("/", h.deactivateCustomer)
			r.With(h.authorize(shopv1.MethodReactivateCustomer)).Put("/restore", h.reactivateCustomer)
			r.With(h.authorize(shopv1.MethodGetCart)).Get("/cart", h.getCart)
			r.With(h.authorize(shopv1.MethodClearCart)).Delete("/cart", h.clearCart)
			r.With(h.authorize(shopv1.MethodCartTotalPrice)).Get("/cart/total-cost", h.cartTotalCost)
			r.With(h.authorize(shopv1.MethodCartAveragePrice)).Get("/cart/avg-price", h.cartAveragePrice)
			r.With(h.authorize(shopv1.MethodAddProductToCart)).Post("/cart/products/{productId}", h.addProductToCart)
			r.With(h.authorize(shopv1.MethodRemoveProductFromCart)).Delete("/cart/products/{productId}", h.removeProductFromCart)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusNotFound, "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})
	return r
}

// authorize проверяет Authorization: Bearer по политике операции.
func (h *Handler) authorize(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h.provider == nil || h.policy.Public(operation) {
				next.ServeHTTP(w, r)
				return
			}
			token := identity.BearerToken(r.Header.Get("Authorization"))
			id, err := identity.Authorize(r.Context(), h.provider, token, h.policy.Roles(operation)...)
			if err != nil {
				writeError(w, h.logger, operation, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
		})
	}
}
