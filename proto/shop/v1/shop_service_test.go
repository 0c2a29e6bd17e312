package shopv1

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeClientConn struct {
	invoke func(context.Context, string, any, any, ...grpc.CallOption) error
}

func (f *fakeClientConn) Invoke(ctx context.Context, method string, args any, reply any, opts ...grpc.CallOption) error {
	if f.invoke == nil {
		return errors.New("unexpected Invoke call")
	}
	return f.invoke(ctx, method, args, reply, opts...)
}

func (f *fakeClientConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("not implemented")
}

// echoServer отвечает именем вызванного метода.
type echoServer struct{}

func echo(method string, in *structpb.Struct) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{"method": method})
	if err != nil {
		return nil, err
	}
	for k, v := range in.GetFields() {
		out.Fields[k] = v
	}
	return out, nil
}

func (echoServer) CreateProduct(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodCreateProduct, in)
}

func (echoServer) GetProduct(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodGetProduct, in)
}

func (echoServer) ListProducts(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodListProducts, in)
}

func (echoServer) UpdateProductPrice(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodUpdateProductPrice, in)
}

func (echoServer) DeactivateProduct(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodDeactivateProduct, in)
}

func (echoServer) ReactivateProduct(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodReactivateProduct, in)
}

func (echoServer) CountProducts(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodCountProducts, in)
}

func (echoServer) ProductsTotalPrice(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodProductsTotalPrice, in)
}

func (echoServer) ProductsAveragePrice(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodProductsAveragePrice, in)
}

func (echoServer) IsProductActive(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodIsProductActive, in)
}

func (echoServer) AttachProductImage(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodAttachProductImage, in)
}

func (echoServer) CreateCustomer(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodCreateCustomer, in)
}

func (echoServer) GetCustomer(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodGetCustomer, in)
}

func (echoServer) ListCustomers(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodListCustomers, in)
}

func (echoServer) CountCustomers(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodCountCustomers, in)
}

func (echoServer) RenameCustomer(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodRenameCustomer, in)
}

func (echoServer) DeactivateCustomer(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodDeactivateCustomer, in)
}

func (echoServer) ReactivateCustomer(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodReactivateCustomer, in)
}

func (echoServer) GetCart(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodGetCart, in)
}

func (echoServer) CartTotalPrice(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodCartTotalPrice, in)
}

func (echoServer) CartAveragePrice(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodCartAveragePrice, in)
}

func (echoServer) AddProductToCart(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodAddProductToCart, in)
}

func (echoServer) RemoveProductFromCart(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodRemoveProductFromCart, in)
}

func (echoServer) ClearCart(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodClearCart, in)
}

func (echoServer) GetHistory(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return echo(MethodGetHistory, in)
}

func TestServiceDescCoversAllMethods(t *testing.T) {
	require.Len(t, ShopService_ServiceDesc.Methods, len(Methods))
	for i, desc := range ShopService_ServiceDesc.Methods {
		require.Equal(t, Methods[i], desc.MethodName)
	}
	require.Equal(t, "/shop.v1.ShopService/GetCart", FullMethod(MethodGetCart))
}

func TestServiceDescHandlers(t *testing.T) {
	for _, desc := range ShopService_ServiceDesc.Methods {
		dec := func(v any) error {
			in := v.(*structpb.Struct)
			in.Fields = map[string]*structpb.Value{"id": structpb.NewStringValue("p-1")}
			return nil
		}

		resp, err := desc.Handler(echoServer{}, context.Background(), dec, nil)
		require.NoError(t, err)
		out := resp.(*structpb.Struct)
		require.Equal(t, desc.MethodName, out.Fields["method"].GetStringValue())
		require.Equal(t, "p-1", out.Fields["id"].GetStringValue())
	}
}

func TestServiceDescHandlerWithInterceptor(t *testing.T) {
	var seen string
	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return handler(ctx, req)
	}
	dec := func(any) error { return nil }

	desc := ShopService_ServiceDesc.Methods[0]
	resp, err := desc.Handler(echoServer{}, context.Background(), dec, interceptor)
	require.NoError(t, err)
	require.Equal(t, FullMethod(MethodCreateProduct), seen)
	require.Equal(t, MethodCreateProduct, resp.(*structpb.Struct).Fields["method"].GetStringValue())

	decodeErr := errors.New("decode failed")
	_, err = desc.Handler(echoServer{}, context.Background(), func(any) error { return decodeErr }, interceptor)
	require.ErrorIs(t, err, decodeErr)
}

func TestShopServiceClientCall(t *testing.T) {
	var gotMethod string
	conn := &fakeClientConn{
		invoke: func(_ context.Context, method string, args any, reply any, _ ...grpc.CallOption) error {
			gotMethod = method
			require.NotNil(t, args.(*structpb.Struct))
			out := reply.(*structpb.Struct)
			out.Fields = map[string]*structpb.Value{"count": structpb.NewNumberValue(3)}
			return nil
		},
	}

	resp, err := NewShopServiceClient(conn).Call(context.Background(), MethodCountProducts, nil)
	require.NoError(t, err)
	require.Equal(t, FullMethod(MethodCountProducts), gotMethod)
	require.Equal(t, float64(3), resp.Fields["count"].GetNumberValue())

	failing := &fakeClientConn{invoke: func(context.Context, string, any, any, ...grpc.CallOption) error {
		return errors.New("unavailable")
	}}
	_, err = NewShopServiceClient(failing).Call(context.Background(), MethodCountProducts, nil)
	require.Error(t, err)
}
