package infrastructure

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"go-orders/internal/orders/application"
	"go-orders/internal/orders/domain"
	"go-orders/pkg/errors"
)

// gRPC method names of the internal order service
const (
	OrderServiceName          = "orders.v1.OrderService"
	MethodGetOrder            = "/" + OrderServiceName + "/GetOrder"
	MethodApplyPaymentFailure = "/" + OrderServiceName + "/ApplyPaymentFailure"
)

// OrderServiceServer is the server API for the internal order service.
// Messages are google.protobuf.Struct so ops tooling needs no generated stubs.
type OrderServiceServer interface {
	GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ApplyPaymentFailure(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// OrderServiceDesc describes the service for grpc.Server.RegisterService
var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: OrderServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetOrder", Handler: unaryHandler(MethodGetOrder, OrderServiceServer.GetOrder)},
		{MethodName: "ApplyPaymentFailure", Handler: unaryHandler(MethodApplyPaymentFailure, OrderServiceServer.ApplyPaymentFailure)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orders/v1/orders.proto",
}

// RegisterOrderServiceServer registers srv on s
func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderServiceDesc, srv)
}

// methodHandler matches grpc.MethodDesc.Handler
type methodHandler = func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error)

func unaryHandler(fullMethod string, call func(OrderServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) methodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(OrderServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GRPCServer implements OrderServiceServer
type GRPCServer struct {
	useCase    *application.OrderUseCase
	reconciler *application.PaymentReconciler
}

// NewGRPCServer creates a new gRPC server
func NewGRPCServer(useCase *application.OrderUseCase, reconciler *application.PaymentReconciler) *GRPCServer {
	return &GRPCServer{useCase: useCase, reconciler: reconciler}
}

// GetOrder implements OrderServiceServer.GetOrder; request {"id": "<order id>"}
func (s *GRPCServer) GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, errors.NewValidation("id is required", nil)
	}

	order, err := s.useCase.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return orderStruct(order)
}

// ApplyPaymentFailure implements OrderServiceServer.ApplyPaymentFailure;
// request {"gateway_order_ref": "...", "reason": "..."}
func (s *GRPCServer) ApplyPaymentFailure(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	res, err := s.reconciler.ApplyPaymentFailure(ctx,
		fields["gateway_order_ref"].GetStringValue(),
		fields["reason"].GetStringValue(),
	)
	if err != nil {
		return nil, err
	}

	out, err := orderStruct(res.Order)
	if err != nil {
		return nil, err
	}
	out.Fields["transitioned"] = structpb.NewBoolValue(res.Transitioned)
	return out, nil
}

func orderStruct(o *domain.Order) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"id":                      o.ID,
		"principal_id":            o.Customer.PrincipalID,
		"subtotal":                o.Amounts.Subtotal,
		"tax":                     o.Amounts.Tax,
		"shipping":                o.Amounts.Shipping,
		"total":                   o.Amounts.Total,
		"currency":                o.Amounts.Currency,
		"gateway":                 o.Payment.Gateway,
		"gateway_order_ref":       o.Payment.GatewayOrderRef,
		"gateway_transaction_ref": o.Payment.GatewayTransactionRef,
		"payment_status":          string(o.PaymentStatus),
		"status":                  string(o.Status),
		"failure_reason":          o.FailureReason,
		"item_count":              len(o.Items),
		"order_date":              o.OrderDate.Format(time.RFC3339),
	}
	if o.PaymentDate != nil {
		fields["payment_date"] = o.PaymentDate.Format(time.RFC3339)
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.NewInternal("failed to encode order", err)
	}
	return s, nil
}
