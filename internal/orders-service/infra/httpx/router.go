package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/orders-service/internal/orders-service/infra/httpx/middlewares"
)

// RouterOptions toggles bearer authentication on the /orders routes.
type RouterOptions struct {
	AuthEnabled bool
	AuthTokens  map[string]string
}

func NewRouter(handler *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/", handler.Root)
	r.Get("/health", handler.Health)
	r.Get("/openapi.json", handler.OpenAPI)

	r.Route("/orders", func(r chi.Router) {
		if opts.AuthEnabled {
			r.Use(middlewares.RequireBearer(opts.AuthTokens, handler.Unauthorized))
		}
		r.Post("/", handler.PlaceOrder)
		r.Get("/", handler.ListOrders)
		r.Get("/{order_id}", handler.GetOrder)
		r.Delete("/{order_id}", handler.CancelOrder)
		r.Get("/{order_id}/history", handler.OrderHistory)
	})
	return r
}
