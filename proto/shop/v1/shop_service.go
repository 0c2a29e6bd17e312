// Package shopv1 описывает gRPC-контракт shop.v1.ShopService.
//
// Сообщения передаются как google.protobuf.Struct: схема полей задаётся
// сервером, а клиенту не нужен сгенерированный код.
package shopv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName — полное имя gRPC-сервиса.
const ServiceName = "shop.v1.ShopService"

// Имена методов ShopService.
const (
	MethodCreateProduct         = "CreateProduct"
	MethodGetProduct            = "GetProduct"
	MethodListProducts          = "ListProducts"
	MethodUpdateProductPrice    = "UpdateProductPrice"
	MethodDeactivateProduct     = "DeactivateProduct"
	MethodReactivateProduct     = "ReactivateProduct"
	MethodCountProducts         = "CountProducts"
	MethodProductsTotalPrice    = "ProductsTotalPrice"
	MethodProductsAveragePrice  = "ProductsAveragePrice"
	MethodIsProductActive       = "IsProductActive"
	MethodAttachProductImage    = "AttachProductImage"
	MethodCreateCustomer        = "CreateCustomer"
	MethodGetCustomer           = "GetCustomer"
	MethodListCustomers         = "ListCustomers"
	MethodCountCustomers        = "CountCustomers"
	MethodRenameCustomer        = "RenameCustomer"
	MethodDeactivateCustomer    = "DeactivateCustomer"
	MethodReactivateCustomer    = "ReactivateCustomer"
	MethodGetCart               = "GetCart"
	MethodCartTotalPrice        = "CartTotalPrice"
	MethodCartAveragePrice      = "CartAveragePrice"
	MethodAddProductToCart      = "AddProductToCart"
	MethodRemoveProductFromCart = "RemoveProductFromCart"
	MethodClearCart             = "ClearCart"
	MethodGetHistory            = "GetHistory"
)

// Methods перечисляет все методы сервиса в порядке объявления.
var Methods = []string{
	MethodCreateProduct,
	MethodGetProduct,
	MethodListProducts,
	MethodUpdateProductPrice,
	MethodDeactivateProduct,
	MethodReactivateProduct,
	MethodCountProducts,
	MethodProductsTotalPrice,
	MethodProductsAveragePrice,
	MethodIsProductActive,
	MethodAttachProductImage,
	MethodCreateCustomer,
	MethodGetCustomer,
	MethodListCustomers,
	MethodCountCustomers,
	MethodRenameCustomer,
	MethodDeactivateCustomer,
	MethodReactivateCustomer,
	MethodGetCart,
	MethodCartTotalPrice,
	MethodCartAveragePrice,
	MethodAddProductToCart,
	MethodRemoveProductFromCart,
	MethodClearCart,
	MethodGetHistory,
}

// FullMethod возвращает путь метода в формате "/shop.v1.ShopService/<name>".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// ShopServiceServer — серверная часть ShopService.
type ShopServiceServer interface {
	CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProductPrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeactivateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReactivateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CountProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ProductsTotalPrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ProductsAveragePrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IsProductActive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AttachProductImage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCustomer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCustomer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCustomers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CountCustomers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RenameCustomer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeactivateCustomer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReactivateCustomer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCart(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CartTotalPrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CartAveragePrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddProductToCart(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveProductFromCart(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClearCart(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, pick func(ShopServiceServer) unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := pick(srv.(ShopServiceServer))
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ShopService_ServiceDesc — описание сервиса для grpc.Server.
var ShopService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ShopServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodCreateProduct, func(s ShopServiceServer) unaryCall { return s.CreateProduct }),
		unaryMethod(MethodGetProduct, func(s ShopServiceServer) unaryCall { return s.GetProduct }),
		unaryMethod(MethodListProducts, func(s ShopServiceServer) unaryCall { return s.ListProducts }),
		unaryMethod(MethodUpdateProductPrice, func(s ShopServiceServer) unaryCall { return s.UpdateProductPrice }),
		unaryMethod(MethodDeactivateProduct, func(s ShopServiceServer) unaryCall { return s.DeactivateProduct }),
		unaryMethod(MethodReactivateProduct, func(s ShopServiceServer) unaryCall { return s.ReactivateProduct }),
		unaryMethod(MethodCountProducts, func(s ShopServiceServer) unaryCall { return s.CountProducts }),
		unaryMethod(MethodProductsTotalPrice, func(s ShopServiceServer) unaryCall { return s.ProductsTotalPrice }),
		unaryMethod(MethodProductsAveragePrice, func(s ShopServiceServer) unaryCall { return s.ProductsAveragePrice }),
		unaryMethod(MethodIsProductActive, func(s ShopServiceServer) unaryCall { return s.IsProductActive }),
		unaryMethod(MethodAttachProductImage, func(s ShopServiceServer) unaryCall { return s.AttachProductImage }),
		unaryMethod(MethodCreateCustomer, func(s ShopServiceServer) unaryCall { return s.CreateCustomer }),
		unaryMethod(MethodGetCustomer, func(s ShopServiceServer) unaryCall { return s.GetCustomer }),
		unaryMethod(MethodListCustomers, func(s ShopServiceServer) unaryCall { return s.ListCustomers }),
		unaryMethod(MethodCountCustomers, func(s ShopServiceServer) unaryCall { return s.CountCustomers }),
		unaryMethod(MethodRenameCustomer, func(s ShopServiceServer) unaryCall { return s.RenameCustomer }),
		unaryMethod(MethodDeactivateCustomer, func(s ShopServiceServer) unaryCall { return s.DeactivateCustomer }),
		unaryMethod(MethodReactivateCustomer, func(s ShopServiceServer) unaryCall { return s.ReactivateCustomer }),
		unaryMethod(MethodGetCart, func(s ShopServiceServer) unaryCall { return s.GetCart }),
		unaryMethod(MethodCartTotalPrice, func(s ShopServiceServer) unaryCall { return s.CartTotalPrice }),
		unaryMethod(MethodCartAveragePrice, func(s ShopServiceServer) unaryCall { return s.CartAveragePrice }),
		unaryMethod(MethodAddProductToCart, func(s ShopServiceServer) unaryCall { return s.AddProductToCart }),
		unaryMethod(MethodRemoveProductFromCart, func(s ShopServiceServer) unaryCall { return s.RemoveProductFromCart }),
		unaryMethod(MethodClearCart, func(s ShopServiceServer) unaryCall { return s.ClearCart }),
		unaryMethod(MethodGetHistory, func(s ShopServiceServer) unaryCall { return s.GetHistory }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shop/v1/shop_service.proto",
}

// RegisterShopServiceServer регистрирует реализацию на сервере.
func RegisterShopServiceServer(s grpc.ServiceRegistrar, srv ShopServiceServer) {
	s.RegisterService(&ShopService_ServiceDesc, srv)
}

// ShopServiceClient вызывает методы ShopService.
type ShopServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewShopServiceClient создаёт клиента поверх соединения.
func NewShopServiceClient(cc grpc.ClientConnInterface) *ShopServiceClient {
	return &ShopServiceClient{cc: cc}
}

// Call вызывает метод по имени. Пустой запрос заменяется пустой структурой.
func (c *ShopServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
