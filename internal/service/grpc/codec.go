package grpcsvc

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/customer"
)

func requiredString(req *structpb.Struct, field string) (string, error) {
	value := strings.TrimSpace(req.GetFields()[field].GetStringValue())
	if value == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", field)
	}
	return value, nil
}

// requiredDecimal принимает как строку ("12.50"), так и число.
func requiredDecimal(req *structpb.Struct, field string) (decimal.Decimal, error) {
	value, ok := req.GetFields()[field]
	if !ok {
		return decimal.Decimal{}, status.Errorf(codes.InvalidArgument, "%s is required", field)
	}
	switch kind := value.GetKind().(type) {
	case *structpb.Value_StringValue:
		parsed, err := decimal.NewFromString(strings.TrimSpace(kind.StringValue))
		if err != nil {
			return decimal.Decimal{}, status.Errorf(codes.InvalidArgument, "%s must be a decimal number", field)
		}
		return parsed, nil
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(kind.NumberValue), nil
	default:
		return decimal.Decimal{}, status.Errorf(codes.InvalidArgument, "%s must be a decimal number", field)
	}
}

func requiredInt(req *structpb.Struct, field string) (int, error) {
	value, ok := req.GetFields()[field]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", field)
	}
	number, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok || number.NumberValue != math.Trunc(number.NumberValue) ||
		number.NumberValue > math.MaxInt32 || number.NumberValue < math.MinInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", field)
	}
	return int(number.NumberValue), nil
}

func money(value decimal.Decimal) *structpb.Value {
	return structpb.NewStringValue(value.StringFixed(2))
}

func productValue(p domain.Product) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"id":        structpb.NewStringValue(p.ID),
		"title":     structpb.NewStringValue(p.Title),
		"price":     money(p.Price),
		"active":    structpb.NewBoolValue(p.Active),
		"image_url": structpb.NewStringValue(p.ImageURL),
	}})
}

func customerValue(c domain.Customer) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"id":      structpb.NewStringValue(c.ID),
		"name":    structpb.NewStringValue(c.Name),
		"active":  structpb.NewBoolValue(c.Active),
		"cart_id": structpb.NewStringValue(c.CartID),
	}})
}

func cartValue(view customer.CartView) *structpb.Value {
	positions := make([]*structpb.Value, 0, len(view.Positions))
	for _, p := range view.Positions {
		positions = append(positions, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"id":          structpb.NewStringValue(p.ID),
			"product_id":  structpb.NewStringValue(p.ProductID),
			"quantity":    structpb.NewNumberValue(float64(p.Quantity)),
			"unit_price":  money(p.UnitPrice),
			"total_price": money(p.TotalPrice),
		}}))
	}
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"id":             structpb.NewStringValue(view.ID),
		"customer_id":    structpb.NewStringValue(view.CustomerID),
		"positions":      structpb.NewListValue(&structpb.ListValue{Values: positions}),
		"total_quantity": structpb.NewNumberValue(float64(view.TotalQuantity)),
		"total_price":    money(view.TotalPrice),
		"average_price":  money(view.AveragePrice),
	}})
}

func historyValue(e domain.HistoryEvent) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"type":     structpb.NewStringValue(e.Type),
		"reason":   structpb.NewStringValue(e.Reason),
		"occurred": structpb.NewStringValue(e.Occurred.UTC().Format(time.RFC3339Nano)),
	}})
}

func reply(fields map[string]*structpb.Value) *structpb.Struct {
	return &structpb.Struct{Fields: fields}
}
