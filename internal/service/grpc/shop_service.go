package grpcsvc

import (
	"context"
	"encoding/base64"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/customer"
	shopv1 "github.com/vladislavdragonenkov/storefront/proto/shop/v1"
)

// ShopService реализует gRPC API каталога, покупателей и корзин.
type ShopService struct {
	catalog   catalog.Service
	customers customer.Directory
	history   domain.HistoryRepository
	idemRepo  domain.IdempotencyRepository
	logger    *log.Entry
}

// NewShopService конструирует сервис. history и idemRepo могут быть nil.
func NewShopService(
	catalogService catalog.Service,
	customers customer.Directory,
	history domain.HistoryRepository,
	idemRepo domain.IdempotencyRepository,
	logger *log.Entry,
) *ShopService {
	if logger == nil {
		logger = log.New().WithField("component", "shop-grpc")
	}
	return &ShopService{
		catalog:   catalogService,
		customers: customers,
		history:   history,
		idemRepo:  idemRepo,
		logger:    logger,
	}
}

// CreateProduct создаёт активный товар.
func (s *ShopService) CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	title, err := requiredString(req, "title")
	if err != nil {
		return nil, err
	}
	price, err := requiredDecimal(req, "price")
	if err != nil {
		return nil, err
	}

	return s.withIdempotency(ctx, shopv1.MethodCreateProduct, req, func(ctx context.Context) (*structpb.Struct, error) {
		product, err := s.catalog.Create(ctx, title, price)
		if err != nil {
			return nil, toStatus(s.logger, shopv1.MethodCreateProduct, err)
		}
		return reply(map[string]*structpb.Value{"product": productValue(product)}), nil
	})
}

// GetProduct возвращает активный товар.
func (s *ShopService) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	product, err := s.catalog.GetActiveByID(ctx, id)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodGetProduct, err)
	}
	return reply(map[string]*structpb.Value{"product": productValue(product)}), nil
}

// ListProducts возвращает активные товары.
func (s *ShopService) ListProducts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	products, err := s.catalog.ListActive(ctx)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodListProducts, err)
	}
	values := make([]*structpb.Value, 0, len(products))
	for _, p := range products {
		values = append(values, productValue(p))
	}
	return reply(map[string]*structpb.Value{
		"products": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}), nil
}

// UpdateProductPrice меняет цену товара, в том числе неактивного.
func (s *ShopService) UpdateProductPrice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	price, err := requiredDecimal(req, "price")
	if err != nil {
		return nil, err
	}
	return s.withIdempotency(ctx, shopv1.MethodUpdateProductPrice, req, func(ctx context.Context) (*structpb.Struct, error) {
		if err := s.catalog.UpdatePrice(ctx, id, price); err != nil {
			return nil, toStatus(s.logger, shopv1.MethodUpdateProductPrice, err)
		}
		return idReply(id), nil
	})
}

func (s *ShopService) DeactivateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.mutateByID(ctx, shopv1.MethodDeactivateProduct, req, s.catalog.Deactivate)
}

func (s *ShopService) ReactivateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.mutateByID(ctx, shopv1.MethodReactivateProduct, req, s.catalog.Reactivate)
}

func (s *ShopService) CountProducts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	count, err := s.catalog.CountActive(ctx)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodCountProducts, err)
	}
	return reply(map[string]*structpb.Value{"count": structpb.NewNumberValue(float64(count))}), nil
}

func (s *ShopService) ProductsTotalPrice(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	total, err := s.catalog.TotalActivePrice(ctx)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodProductsTotalPrice, err)
	}
	return reply(map[string]*structpb.Value{"value": money(total)}), nil
}

func (s *ShopService) ProductsAveragePrice(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	avg, err := s.catalog.AverageActivePrice(ctx)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodProductsAveragePrice, err)
	}
	return reply(map[string]*structpb.Value{"value": money(avg)}), nil
}

func (s *ShopService) IsProductActive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	active, err := s.catalog.IsActive(ctx, id)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodIsProductActive, err)
	}
	return reply(map[string]*structpb.Value{"active": structpb.NewBoolValue(active)}), nil
}

// AttachProductImage принимает изображение в поле data (base64).
func (s *ShopService) AttachProductImage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(req.GetFields()["data"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "data must be base64 encoded")
	}
	image := domain.Image{
		Name:        req.GetFields()["name"].GetStringValue(),
		ContentType: req.GetFields()["content_type"].GetStringValue(),
		Data:        data,
	}

	return s.withIdempotency(ctx, shopv1.MethodAttachProductImage, req, func(ctx context.Context) (*structpb.Struct, error) {
		url, err := s.catalog.AttachImage(ctx, id, image)
		if err != nil {
			return nil, toStatus(s.logger, shopv1.MethodAttachProductImage, err)
		}
		return reply(map[string]*structpb.Value{"image_url": structpb.NewStringValue(url)}), nil
	})
}

// CreateCustomer создаёт покупателя вместе с пустой корзиной.
func (s *ShopService) CreateCustomer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := requiredString(req, "name")
	if err != nil {
		return nil, err
	}
	return s.withIdempotency(ctx, shopv1.MethodCreateCustomer, req, func(ctx context.Context) (*structpb.Struct, error) {
		created, err := s.customers.Create(ctx, name)
		if err != nil {
			return nil, toStatus(s.logger, shopv1.MethodCreateCustomer, err)
		}
		return reply(map[string]*structpb.Value{"customer": customerValue(created)}), nil
	})
}

func (s *ShopService) GetCustomer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	found, err := s.customers.GetActiveByID(ctx, id)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodGetCustomer, err)
	}
	return reply(map[string]*structpb.Value{"customer": customerValue(found)}), nil
}

func (s *ShopService) ListCustomers(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	list, err := s.customers.ListActive(ctx)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodListCustomers, err)
	}
	values := make([]*structpb.Value, 0, len(list))
	for _, c := range list {
		values = append(values, customerValue(c))
	}
	return reply(map[string]*structpb.Value{
		"customers": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}), nil
}

func (s *ShopService) CountCustomers(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	count, err := s.customers.CountActive(ctx)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodCountCustomers, err)
	}
	return reply(map[string]*structpb.Value{"count": structpb.NewNumberValue(float64(count))}), nil
}

func (s *ShopService) RenameCustomer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	name := req.GetFields()["name"].GetStringValue()
	return s.withIdempotency(ctx, shopv1.MethodRenameCustomer, req, func(ctx context.Context) (*structpb.Struct, error) {
		if err := s.customers.Rename(ctx, id, name); err != nil {
			return nil, toStatus(s.logger, shopv1.MethodRenameCustomer, err)
		}
		return idReply(id), nil
	})
}

func (s *ShopService) DeactivateCustomer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.mutateByID(ctx, shopv1.MethodDeactivateCustomer, req, s.customers.Deactivate)
}

func (s *ShopService) ReactivateCustomer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.mutateByID(ctx, shopv1.MethodReactivateCustomer, req, s.customers.Reactivate)
}

// GetCart возвращает корзину покупателя с позициями и суммами.
func (s *ShopService) GetCart(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "customer_id")
	if err != nil {
		return nil, err
	}
	view, err := s.customers.GetCart(ctx, id)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodGetCart, err)
	}
	return reply(map[string]*structpb.Value{"cart": cartValue(view)}), nil
}

func (s *ShopService) CartTotalPrice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "customer_id")
	if err != nil {
		return nil, err
	}
	total, err := s.customers.CartTotalCost(ctx, id)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodCartTotalPrice, err)
	}
	return reply(map[string]*structpb.Value{"value": money(total)}), nil
}

func (s *ShopService) CartAveragePrice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredString(req, "customer_id")
	if err != nil {
		return nil, err
	}
	avg, err := s.customers.CartAveragePrice(ctx, id)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodCartAveragePrice, err)
	}
	return reply(map[string]*structpb.Value{"value": money(avg)}), nil
}

// AddProductToCart добавляет товар в корзину или увеличивает количество существующей позиции.
func (s *ShopService) AddProductToCart(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	customerID, err := requiredString(req, "customer_id")
	if err != nil {
		return nil, err
	}
	productID, err := requiredString(req, "product_id")
	if err != nil {
		return nil, err
	}
	quantity, err := requiredInt(req, "quantity")
	if err != nil {
		return nil, err
	}
	return s.withIdempotency(ctx, shopv1.MethodAddProductToCart, req, func(ctx context.Context) (*structpb.Struct, error) {
		if err := s.customers.AddProductToCart(ctx, customerID, productID, quantity); err != nil {
			return nil, toStatus(s.logger, shopv1.MethodAddProductToCart, err)
		}
		return s.cartReply(ctx, shopv1.MethodAddProductToCart, customerID)
	})
}

func (s *ShopService) RemoveProductFromCart(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	customerID, err := requiredString(req, "customer_id")
	if err != nil {
		return nil, err
	}
	productID, err := requiredString(req, "product_id")
	if err != nil {
		return nil, err
	}
	return s.withIdempotency(ctx, shopv1.MethodRemoveProductFromCart, req, func(ctx context.Context) (*structpb.Struct, error) {
		if err := s.customers.RemoveProductFromCart(ctx, customerID, productID); err != nil {
			return nil, toStatus(s.logger, shopv1.MethodRemoveProductFromCart, err)
		}
		return s.cartReply(ctx, shopv1.MethodRemoveProductFromCart, customerID)
	})
}

func (s *ShopService) ClearCart(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	customerID, err := requiredString(req, "customer_id")
	if err != nil {
		return nil, err
	}
	return s.withIdempotency(ctx, shopv1.MethodClearCart, req, func(ctx context.Context) (*structpb.Struct, error) {
		if err := s.customers.ClearCart(ctx, customerID); err != nil {
			return nil, toStatus(s.logger, shopv1.MethodClearCart, err)
		}
		return s.cartReply(ctx, shopv1.MethodClearCart, customerID)
	})
}

// GetHistory возвращает события жизненного цикла товара, покупателя или корзины.
func (s *ShopService) GetHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	aggregateType, err := requiredString(req, "aggregate_type")
	if err != nil {
		return nil, err
	}
	switch aggregateType {
	case domain.AggregateProduct, domain.AggregateCustomer, domain.AggregateCart:
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown aggregate_type %q", aggregateType)
	}
	aggregateID, err := requiredString(req, "aggregate_id")
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, status.Error(codes.Unimplemented, "history is not configured")
	}

	events, err := s.history.List(ctx, aggregateType, aggregateID)
	if err != nil {
		return nil, toStatus(s.logger, shopv1.MethodGetHistory, err)
	}
	values := make([]*structpb.Value, 0, len(events))
	for _, e := range events {
		values = append(values, historyValue(e))
	}
	return reply(map[string]*structpb.Value{
		"events": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}), nil
}

func (s *ShopService) mutateByID(
	ctx context.Context,
	method string,
	req *structpb.Struct,
	mutate func(context.Context, string) error,
) (*structpb.Struct, error) {
	id, err := requiredString(req, "id")
	if err != nil {
		return nil, err
	}
	return s.withIdempotency(ctx, method, req, func(ctx context.Context) (*structpb.Struct, error) {
		if err := mutate(ctx, id); err != nil {
			return nil, toStatus(s.logger, method, err)
		}
		return idReply(id), nil
	})
}

// cartReply перечитывает корзину после изменения. Ошибка чтения не отменяет уже применённое изменение.
func (s *ShopService) cartReply(ctx context.Context, method, customerID string) (*structpb.Struct, error) {
	view, err := s.customers.GetCart(ctx, customerID)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"method":      method,
			"customer_id": customerID,
		}).Warn("failed to reload cart after update")
		return reply(map[string]*structpb.Value{"customer_id": structpb.NewStringValue(customerID)}), nil
	}
	return reply(map[string]*structpb.Value{"cart": cartValue(view)}), nil
}

func idReply(id string) *structpb.Struct {
	return reply(map[string]*structpb.Value{"id": structpb.NewStringValue(id)})
}

var _ shopv1.ShopServiceServer = (*ShopService)(nil)
