package interceptors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/orders-service/internal/pkg/interceptors/constants"
)

func TestUnaryServerInterceptor(t *testing.T) {
	md := metadata.Pairs(constants.HeaderXRequestId, "req-1", constants.HeaderXIdempotencyKey, "idem-1")
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	var seen context.Context
	resp, err := UnaryServerInterceptor()(ctx, "req", info, func(ctx context.Context, req any) (any, error) {
		seen = ctx
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "req-1", seen.Value(constants.ContextKeyRequestID))
	assert.Equal(t, "idem-1", seen.Value(constants.ContextKeyIdempotencyKey))
	assert.Equal(t, "req-1", RequestIDFromContext(seen))
}

func TestUnaryServerInterceptorPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	info := &grpc.UnaryServerInfo{FullMethod: "/x/Y"}

	_, err := UnaryServerInterceptor()(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Equal(t, "unknown", RequestIDFromContext(context.Background()))

	out := metadata.AppendToOutgoingContext(context.Background(), constants.HeaderXRequestId, "out-1")
	assert.Equal(t, "out-1", RequestIDFromContext(out))

	typed := context.WithValue(context.Background(), constants.ContextKeyRequestID, "typed-1")
	assert.Equal(t, "typed-1", RequestIDFromContext(typed))
}
