package domain

// Типы агрегатов в outbox и истории.
const (
	AggregateProduct  = "product"
	AggregateCustomer = "customer"
	AggregateCart     = "cart"
)

// Типы доменных событий.
const (
	EventProductCreated       = "ProductCreated"
	EventProductPriceChanged  = "ProductPriceChanged"
	EventProductDeactivated   = "ProductDeactivated"
	EventProductReactivated   = "ProductReactivated"
	EventProductImageAttached = "ProductImageAttached"

	EventCustomerCreated     = "CustomerCreated"
	EventCustomerRenamed     = "CustomerRenamed"
	EventCustomerDeactivated = "CustomerDeactivated"
	EventCustomerReactivated = "CustomerReactivated"

	EventCartProductAdded   = "CartProductAdded"
	EventCartProductRemoved = "CartProductRemoved"
	EventCartCleared        = "CartCleared"
)

// Event — доменное событие до сериализации в outbox.
type Event struct {
	AggregateType string
	AggregateID   string
	Type          string
	Reason        string
	Payload       map[string]any
}
