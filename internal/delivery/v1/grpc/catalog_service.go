package grpc

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const catalogServiceName = "storefront.v1.CatalogService"

// CatalogServiceServer — внутренний API каталога для соседних сервисов.
// Сообщения передаются как google.protobuf.Struct, без отдельной схемы.
type CatalogServiceServer interface {
	GetProductsInfo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CheckStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: catalogServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProductsInfo", Handler: unaryHandler("GetProductsInfo", CatalogServiceServer.GetProductsInfo)},
		{MethodName: "GetProduct", Handler: unaryHandler("GetProduct", CatalogServiceServer.GetProduct)},
		{MethodName: "CheckStock", Handler: unaryHandler("CheckStock", CatalogServiceServer.CheckStock)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/catalog.proto",
}

func unaryHandler(
	method string,
	call func(CatalogServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + catalogServiceName + "/" + method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CatalogServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CatalogServiceClient — клиент для тестов и соседних сервисов на Go.
type CatalogServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogServiceClient(cc grpc.ClientConnInterface) *CatalogServiceClient {
	return &CatalogServiceClient{cc: cc}
}

func (c *CatalogServiceClient) call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+catalogServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogServiceClient) GetProductsInfo(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "GetProductsInfo", req, opts...)
}

func (c *CatalogServiceClient) GetProduct(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "GetProduct", req, opts...)
}

func (c *CatalogServiceClient) CheckStock(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "CheckStock", req, opts...)
}

type CatalogService struct {
	catalogUC   usecase.CatalogUC
	inventoryUC usecase.InventoryUC
	logger      logger.Logger
}

func NewCatalogService(catalogUC usecase.CatalogUC, inventoryUC usecase.InventoryUC, logger logger.Logger) *CatalogService {
	return &CatalogService{catalogUC: catalogUC, inventoryUC: inventoryUC, logger: logger}
}

// GetProductsInfo: {"ids": [...]} -> {"products": [...], "not_found": [...], "unavailable": [...]}. Цена в копейках.
// unavailable — товары, которые существуют, но сейчас не читаются.
func (g *CatalogService) GetProductsInfo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.GetProductsInfo"

	ids, err := stringListField(req, "ids")
	if err != nil {
		return nil, g.fail(op, err)
	}

	res, err := g.catalogUC.GetProductsInfo(ctx, usecase.NewGetProductsReq(ids))
	if err != nil {
		return nil, g.fail(op, err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"products":    toArrGRPCProduct(res.Products),
		"not_found":   toGRPCStrings(res.NotFoundProducts),
		"unavailable": toGRPCStrings(res.Malformed),
	}}, nil
}

func (g *CatalogService) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.GetProduct"

	id, err := stringField(req, "id")
	if err != nil {
		return nil, g.fail(op, err)
	}

	product, err := g.catalogUC.GetProduct(ctx, id)
	if err != nil {
		return nil, g.fail(op, err)
	}

	return toGRPCProductView(product), nil
}

// CheckStock: {"product_id", "quantity"=1} -> {"available", "sufficient"}.
func (g *CatalogService) CheckStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.CheckStock"

	id, err := stringField(req, "product_id")
	if err != nil {
		return nil, g.fail(op, err)
	}
	qty, err := intField(req, "quantity", 1)
	if err != nil {
		return nil, g.fail(op, err)
	}
	if qty <= 0 {
		return nil, g.fail(op, e.ErrInvalidQuantity)
	}

	available, err := g.inventoryUC.Available(ctx, id)
	if err != nil {
		return nil, g.fail(op, err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"product_id": structpb.NewStringValue(id),
		"available":  structpb.NewNumberValue(float64(available)),
		"sufficient": structpb.NewBoolValue(available >= qty),
	}}, nil
}

func (g *CatalogService) fail(op string, err error) error {
	wrapped := e.Wrap(op, err)
	st := GRPCErrorResponse(wrapped)
	if isInternal(st) {
		g.logger.Errorf(wrapped, "%s", op)
	} else {
		g.logger.Warnf("%s: %v", op, wrapped)
	}

	return st
}
