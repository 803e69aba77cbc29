package ports

import (
	"context"

	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
)

// Broker is one trading-account integration. Implementations must be safe for
// concurrent use; a single instance serves every user of that broker.
type Broker interface {
	Name() string
	PlaceOrder(ctx context.Context, userID string, req domain.PlaceOrderRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
}

type BrokerRegistry interface {
	Get(name string) (Broker, error)
	Names() []string
}
