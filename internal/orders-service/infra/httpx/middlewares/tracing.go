package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/orders-service/internal/pkg/interceptors/constants"
)

// AttachTracingMetadata copies the chi request id and the caller's idempotency
// key into the request context and echoes the request id back to the caller.
// It must run after middleware.RequestID.
func AttachTracingMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := r.Header.Get(constants.HeaderXIdempotencyKey)

		ctx := context.WithValue(r.Context(), constants.ContextKeyRequestID, requestID)
		if idempotencyKey != "" {
			ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, idempotencyKey)
		}
		if requestID != "" {
			w.Header().Set(constants.HeaderXRequestId, requestID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
