package interceptors

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/orders-service/internal/pkg/interceptors/constants"
)

// UnaryServerInterceptor copies the request id and idempotency key from the
// incoming metadata into the context and logs the call.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		requestID := GetMetadataValue(ctx, constants.HeaderXRequestId)
		idempotencyKey := GetMetadataValue(ctx, constants.HeaderXIdempotencyKey)

		newCtx := context.WithValue(ctx, constants.ContextKeyRequestID, requestID)
		newCtx = context.WithValue(newCtx, constants.ContextKeyIdempotencyKey, idempotencyKey)

		resp, err := handler(newCtx, req)
		if err != nil {
			slog.WarnContext(newCtx, "grpc call failed",
				"method", info.FullMethod, "request_id", requestID, "error", err)
			return resp, err
		}
		slog.DebugContext(newCtx, "grpc call",
			"method", info.FullMethod, "request_id", requestID, "idempotency_key", idempotencyKey)
		return resp, nil
	}
}

// RequestIDFromContext returns the request id attached by the HTTP middleware
// or the gRPC interceptor, or "unknown".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && id != "" {
		return id
	}
	if id := GetMetadataValue(ctx, constants.HeaderXRequestId); id != "" {
		return id
	}
	return "unknown"
}

// GetMetadataValue looks key up in the incoming metadata, then the outgoing.
func GetMetadataValue(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(key); len(ids) > 0 {
			return ids[0]
		}
	}

	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		if ids := md.Get(key); len(ids) > 0 {
			return ids[0]
		}
	}
	return ""
}
