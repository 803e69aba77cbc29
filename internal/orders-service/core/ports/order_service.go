package ports

import (
	"context"

	"github.com/jcmexdev/orders-service/internal/coordinator/orderlog"
	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
)

// Scope identifies whose orders a call addresses and whether cached reads are allowed.
type Scope struct {
	Broker   string
	UserID   string
	UseCache bool
	// IdempotencyKey, when set on a placement, makes retries with the same key
	// return the first order instead of placing a new one.
	IdempotencyKey string
}

type OrderService interface {
	Brokers() []string
	PlaceOrder(ctx context.Context, scope Scope, req domain.PlaceOrderRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, scope Scope) ([]*domain.Order, error)
	GetOrder(ctx context.Context, scope Scope, orderID string) (*domain.Order, error)
	CancelOrder(ctx context.Context, scope Scope, orderID string) (*domain.Order, error)
	OrderHistory(ctx context.Context, scope Scope, orderID string) ([]*orderlog.Entry, error)
}
