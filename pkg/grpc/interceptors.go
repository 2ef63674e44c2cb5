package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"go-orders/pkg/errors"
	"go-orders/pkg/logger"
)

const (
	// TraceIDMetadataKey is the metadata key for trace ID
	TraceIDMetadataKey = "x-trace-id"
)

// UnaryServerInterceptor carries the caller's trace id into the handler context,
// bounds the call by timeout and converts application errors to gRPC statuses.
func UnaryServerInterceptor(log *logger.Logger, timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		start := time.Now()
		ctx = incomingTraceContext(ctx)

		defer func() {
			if r := recover(); r != nil {
				log.WithContext(ctx).Error("panic recovered in grpc handler",
					zap.Any("panic", r),
					zap.String("method", info.FullMethod),
				)
				resp, err = nil, errors.GRPCStatus(errors.NewInternal("internal error", nil))
			}
		}()

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		resp, err = handler(ctx, req)
		logCall(ctx, log, info.FullMethod, time.Since(start), err)
		if err != nil {
			return nil, errors.GRPCStatus(err)
		}
		return resp, nil
	}
}

func logCall(ctx context.Context, log *logger.Logger, method string, d time.Duration, err error) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.Duration("duration", d),
	}

	switch {
	case err == nil:
		log.WithContext(ctx).Info("grpc request completed", fields...)
	case errors.HTTPStatus(err) >= 500:
		log.WithContext(ctx).Error("grpc request failed", append(fields, zap.Error(err))...)
	default:
		log.WithContext(ctx).Warn("grpc request rejected", append(fields, zap.Error(err))...)
	}
}

// UnaryClientInterceptor creates a client interceptor for tracing and timeout
func UnaryClientInterceptor(timeout time.Duration) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		// Propagate trace ID
		traceID := logger.GetTraceID(ctx)
		if traceID != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, TraceIDMetadataKey, traceID)
		}

		// Apply timeout
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		err := invoker(ctx, method, req, reply, cc, opts...)
		if err != nil {
			// Convert gRPC status to domain error
			return errors.FromGRPCStatus(err)
		}

		return nil
	}
}

// incomingTraceContext adopts the caller's trace id, or starts a new trace
func incomingTraceContext(ctx context.Context) context.Context {
	traceID := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(TraceIDMetadataKey); len(values) > 0 {
			traceID = values[0]
		}
	}
	if traceID == "" {
		traceID = uuid.New().String()
	}
	return logger.WithTraceIDContext(ctx, traceID)
}
