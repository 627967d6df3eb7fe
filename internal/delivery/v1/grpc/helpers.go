package grpc

import (
	"errors"
	"fmt"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func GRPCErrorResponse(err error) error {
	switch {
	case errors.Is(err, e.ErrValidation),
		errors.Is(err, e.ErrInvalidID),
		errors.Is(err, e.ErrMissingFields),
		errors.Is(err, e.ErrNoProducts):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, e.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, e.ErrUnauthorized.Error())
	case errors.Is(err, e.ErrForbidden):
		return status.Error(codes.PermissionDenied, e.ErrForbidden.Error())
	case errors.Is(err, e.ErrInsufficientInventory),
		errors.Is(err, e.ErrProductInactive),
		errors.Is(err, e.ErrProductUnavailable):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	}
}

// stringField читает обязательное строковое поле запроса.
func stringField(req *structpb.Struct, name string) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", e.Wrap(name, e.ErrMissingFields)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok || s.StringValue == "" {
		return "", e.Wrap(fmt.Sprintf("%s must be a non-empty string", name), e.ErrMissingFields)
	}

	return s.StringValue, nil
}

// stringListField читает список строк. Нестроковые элементы — ошибка.
func stringListField(req *structpb.Struct, name string) ([]string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, e.Wrap(name, e.ErrMissingFields)
	}

	list := v.GetListValue()
	if list == nil {
		return nil, e.Wrap(fmt.Sprintf("%s must be a list", name), e.ErrMissingFields)
	}

	res := make([]string, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, e.Wrap(fmt.Sprintf("%s must contain strings", name), e.ErrMissingFields)
		}
		res = append(res, s.StringValue)
	}

	return res, nil
}

// intField читает целое число. Отсутствующее поле даёт def.
func intField(req *structpb.Struct, name string, def int) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return def, nil
	}

	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != float64(int(n.NumberValue)) {
		return 0, e.ErrInvalidQuantity
	}

	return int(n.NumberValue), nil
}

func toGRPCProduct(pr *usecase.ProductInfo) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"id":       structpb.NewStringValue(pr.ID),
		"name":     structpb.NewStringValue(pr.Name),
		"category": structpb.NewStringValue(pr.CategoryName),
		"price":    structpb.NewNumberValue(float64(pr.Price)),
	}})
}

func toArrGRPCProduct(prs []usecase.ProductInfo) *structpb.Value {
	res := make([]*structpb.Value, len(prs))
	for i := range prs {
		res[i] = toGRPCProduct(&prs[i])
	}

	return structpb.NewListValue(&structpb.ListValue{Values: res})
}

func toGRPCStrings(ss []string) *structpb.Value {
	res := make([]*structpb.Value, len(ss))
	for i, s := range ss {
		res[i] = structpb.NewStringValue(s)
	}

	return structpb.NewListValue(&structpb.ListValue{Values: res})
}

func toGRPCProductView(p *usecase.ProductView) *structpb.Struct {
	category := structpb.NewNullValue()
	if p.CategoryID != nil {
		category = structpb.NewStringValue(*p.CategoryID)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":            structpb.NewStringValue(p.ID),
		"name":          structpb.NewStringValue(p.Name),
		"description":   structpb.NewStringValue(p.Description),
		"price":         structpb.NewNumberValue(float64(p.Price)),
		"inventory":     structpb.NewNumberValue(float64(p.Inventory)),
		"is_active":     structpb.NewBoolValue(p.IsActive),
		"category_id":   category,
		"category_name": structpb.NewStringValue(p.CategoryName),
	}}
}

func isInternal(err error) bool {
	return status.Code(err) == codes.Internal
}
