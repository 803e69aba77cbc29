package httpx

import (
	"github.com/jcmexdev/orders-service/internal/coordinator/orderlog"
	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
)

// OrderQuery holds the routing parameters of every /orders call.
type OrderQuery struct {
	Broker   string `schema:"broker"`
	UserID   string `schema:"user_id"`
	UseCache bool   `schema:"use_cache"`
}

type ServiceInfo struct {
	Service          string   `json:"service"`
	Version          string   `json:"version"`
	AvailableBrokers []string `json:"available_brokers"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type PlaceOrderResponse struct {
	Status  string        `json:"status"`
	OrderID string        `json:"order_id"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

type ListOrdersResponse struct {
	Status string          `json:"status"`
	Orders []*domain.Order `json:"orders"`
}

type CancelOrderResponse struct {
	Status  string        `json:"status"`
	OrderID string        `json:"order_id"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

type OrderHistoryResponse struct {
	OrderID string            `json:"order_id"`
	Events  []*orderlog.Entry `json:"events"`
}

// ErrorResponse is the envelope of every non-2xx response.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  any    `json:"detail"`
	Path    string `json:"path"`
}
