// Package paper implements a simulated broker that keeps orders in memory.
// It is the default backend for every broker without a configured gateway.
package paper

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
	"github.com/jcmexdev/orders-service/internal/orders-service/core/ports"
)

// ReferencePrice fills market orders submitted without a price.
const ReferencePrice = 100.0

var _ ports.Broker = (*Broker)(nil)

type Broker struct {
	name   string
	mu     sync.RWMutex
	orders map[string]map[string]*domain.Order // user id -> order id -> order
	now    func() time.Time
}

func NewBroker(name string) *Broker {
	return &Broker{
		name:   name,
		orders: make(map[string]map[string]*domain.Order),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (b *Broker) Name() string { return b.name }

func (b *Broker) PlaceOrder(ctx context.Context, userID string, req domain.PlaceOrderRequest) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := b.now()
	order := &domain.Order{
		OrderID:         fmt.Sprintf("%s-%s", b.name, uuid.NewString()),
		Broker:          b.name,
		UserID:          userID,
		TradingSymbol:   req.TradingSymbol,
		Quantity:        req.Quantity,
		OrderType:       req.OrderType,
		TransactionType: req.TransactionType,
		Product:         req.Product,
		Price:           req.Price,
		TriggerPrice:    req.TriggerPrice,
		Status:          domain.StatusOpen,
		PlacedAt:        now,
		UpdatedAt:       now,
	}

	if req.OrderType == domain.OrderTypeMarket {
		order.Status = domain.StatusComplete
		order.FilledQuantity = req.Quantity
		order.AveragePrice = ReferencePrice
		if req.Price != nil {
			order.AveragePrice = *req.Price
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userOrders, ok := b.orders[userID]
	if !ok {
		userOrders = make(map[string]*domain.Order)
		b.orders[userID] = userOrders
	}
	userOrders[order.OrderID] = order

	slog.InfoContext(ctx, "paper order placed",
		"broker", b.name, "user_id", userID, "order_id", order.OrderID, "status", order.Status)

	return clone(order), nil
}

// ListOrders returns the user's orders, oldest first.
func (b *Broker) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*domain.Order, 0, len(b.orders[userID]))
	for _, o := range b.orders[userID] {
		out = append(out, clone(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].PlacedAt.Before(out[j].PlacedAt)
	})
	return out, nil
}

func (b *Broker) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	order, ok := b.orders[userID][orderID]
	if !ok {
		return nil, fmt.Errorf("paper %s: order %s: %w", b.name, orderID, domain.ErrOrderNotFound)
	}
	return clone(order), nil
}

func (b *Broker) CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[userID][orderID]
	if !ok {
		return nil, fmt.Errorf("paper %s: order %s: %w", b.name, orderID, domain.ErrOrderNotFound)
	}
	if !order.Cancellable() {
		return nil, fmt.Errorf("paper %s: order %s is %s: %w", b.name, orderID, order.Status, domain.ErrOrderNotCancellable)
	}

	order.Status = domain.StatusCancelled
	order.UpdatedAt = b.now()

	slog.InfoContext(ctx, "paper order cancelled", "broker", b.name, "user_id", userID, "order_id", orderID)
	return clone(order), nil
}

// clone keeps callers from mutating stored orders. Price pointers are shared
// because they are never written after placement.
func clone(o *domain.Order) *domain.Order {
	c := *o
	return &c
}
