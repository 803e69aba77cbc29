package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/jcmexdev/orders-service/internal/pkg/interceptors/constants"
)

func TestAttachTracingMetadata(t *testing.T) {
	var gotReqID, gotKey any
	h := middleware.RequestID(AttachTracingMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReqID = r.Context().Value(constants.ContextKeyRequestID)
		gotKey = r.Context().Value(constants.ContextKeyIdempotencyKey)
	})))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set("X-Request-Id", "req-42")
	req.Header.Set("X-Idempotency-Key", "idem-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", gotReqID)
	assert.Equal(t, "idem-1", gotKey)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestAttachTracingMetadataWithoutIdempotencyKey(t *testing.T) {
	var gotKey any
	h := middleware.RequestID(AttachTracingMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Context().Value(constants.ContextKeyIdempotencyKey)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Nil(t, gotKey)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRequireBearer(t *testing.T) {
	tokens := map[string]string{"upstox": "up-secret", "zerodha": "ze-secret"}
	deny := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) }
	h := RequireBearer(tokens, deny)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		target string
		auth   string
		want   int
	}{
		{"missing header", "/orders?broker=upstox", "", http.StatusUnauthorized},
		{"wrong scheme", "/orders?broker=upstox", "Basic up-secret", http.StatusUnauthorized},
		{"broker token", "/orders?broker=upstox", "Bearer up-secret", http.StatusOK},
		{"other broker's token", "/orders?broker=upstox", "Bearer ze-secret", http.StatusUnauthorized},
		{"broker without token accepts any", "/orders?broker=groww", "Bearer ze-secret", http.StatusOK},
		{"lowercase scheme", "/orders?broker=zerodha", "bearer ze-secret", http.StatusOK},
		{"unknown token", "/orders?broker=groww", "Bearer nope", http.StatusUnauthorized},
		{"repeated broker checks the last one too", "/orders?broker=zerodha&broker=upstox", "Bearer ze-secret", http.StatusUnauthorized},
		{"repeated broker checks the first one too", "/orders?broker=upstox&broker=zerodha", "Bearer ze-secret", http.StatusUnauthorized},
		{"repeated same broker", "/orders?broker=zerodha&broker=zerodha", "Bearer ze-secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
