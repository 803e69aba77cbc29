package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jcmexdev/orders-service/internal/coordinator"
	"github.com/jcmexdev/orders-service/internal/coordinator/orderlog"
	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
	"github.com/jcmexdev/orders-service/internal/orders-service/core/ports"
	"github.com/jcmexdev/orders-service/internal/pkg/cache"
	"github.com/jcmexdev/orders-service/internal/pkg/events"
)

var _ ports.OrderService = (*OrderService)(nil)

// IdempotencyTTL bounds how long a placement can be replayed by key.
const IdempotencyTTL = 24 * time.Hour

// pendingPlacement marks an idempotency key whose placement is still running.
const pendingPlacement = "pending"

// OrderService routes order calls to brokers, runs placements as a saga and
// keeps the read cache coherent with writes.
type OrderService struct {
	brokers   ports.BrokerRegistry
	cache     *cache.ReadThrough
	store     cache.Cache
	log       orderlog.Repository
	publisher events.Publisher
	inflight  singleflight.Group
}

// NewOrderService wires the service. log and publisher may be nil.
func NewOrderService(brokers ports.BrokerRegistry, c cache.Cache, ttl time.Duration, log orderlog.Repository, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		brokers:   brokers,
		cache:     cache.NewReadThrough(c, ttl),
		store:     c,
		log:       log,
		publisher: publisher,
	}
}

func (s *OrderService) Brokers() []string {
	return s.brokers.Names()
}

func (s *OrderService) PlaceOrder(ctx context.Context, scope ports.Scope, req domain.PlaceOrderRequest) (*domain.Order, error) {
	if err := domain.JoinValidation(
		domain.ValidateQuery(scope.Broker, scope.UserID, s.brokers.Names()),
		req.Validate(),
	); err != nil {
		return nil, err
	}
	broker, err := s.brokers.Get(scope.Broker)
	if err != nil {
		return nil, err
	}
	req.Normalize()

	if scope.IdempotencyKey == "" {
		order, err := s.place(ctx, broker, scope, req)
		if err != nil {
			return nil, err
		}
		return order, nil
	}

	// Duplicates inside this process share one placement; the SetNX
	// reservation covers retries landing on other replicas.
	v, err, _ := s.inflight.Do(s.idempotencyKey(scope), func() (interface{}, error) {
		return s.placeOnce(ctx, broker, scope, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Order), nil
}

// placeOnce runs a keyed placement at most once per IdempotencyTTL.
func (s *OrderService) placeOnce(ctx context.Context, broker ports.Broker, scope ports.Scope, req domain.PlaceOrderRequest) (*domain.Order, error) {
	key := s.idempotencyKey(scope)
	if prior, ok := s.replay(ctx, key); ok {
		slog.InfoContext(ctx, "idempotent replay of placement",
			"broker", scope.Broker, "user_id", scope.UserID, "order_id", prior.OrderID)
		return prior, nil
	}

	reserved, err := s.store.SetNX(ctx, key, pendingPlacement, IdempotencyTTL)
	if err != nil {
		slog.WarnContext(ctx, "idempotency reservation failed, placing without it", "error", err)
		reserved = true
	}
	if !reserved {
		if prior, ok := s.replay(ctx, key); ok {
			return prior, nil
		}
		return nil, fmt.Errorf("app: place order: key %q: %w", scope.IdempotencyKey, domain.ErrPlacementInProgress)
	}

	order, err := s.place(ctx, broker, scope, req)
	if order != nil {
		// The broker holds this order, so retries must see it even when the
		// request itself failed.
		s.remember(ctx, key, order)
	} else if delErr := s.store.Delete(ctx, key); delErr != nil {
		slog.WarnContext(ctx, "idempotency release failed", "error", delErr)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// place runs the placement saga. On failure the order is returned as well when
// it is still live at the broker.
func (s *OrderService) place(ctx context.Context, broker ports.Broker, scope ports.Scope, req domain.PlaceOrderRequest) (*domain.Order, error) {
	sagaID := uuid.NewString()
	submit := coordinator.NewSubmitOrderStep(broker, scope.UserID, req)
	steps := []coordinator.Step{submit}
	if s.log != nil {
		steps = append(steps, coordinator.NewRecordOrderStep(s.log, sagaID, submit))
	}
	steps = append(steps, coordinator.NewPublishOrderStep(s.publisher, s.log, sagaID, submit))

	meta := orderlog.Meta{SagaID: sagaID, Broker: scope.Broker, UserID: scope.UserID}
	saga := coordinator.NewOrchestrator(meta, steps, s.log)

	slog.InfoContext(ctx, "placing order",
		"saga_id", sagaID, "broker", scope.Broker, "user_id", scope.UserID,
		"tradingsymbol", req.TradingSymbol, "order_type", req.OrderType, "quantity", req.Quantity)

	err := saga.Start(ctx)
	if submit.Order() != nil {
		s.cache.Invalidate(ctx, s.listKey(scope))
	}
	if err != nil {
		if submit.Live() {
			slog.ErrorContext(ctx, "placement failed but the order stays at the broker",
				"saga_id", sagaID, "order_id", submit.OrderID(), "error", err)
			return submit.Order(), fmt.Errorf("app: place order: %w", err)
		}
		return nil, fmt.Errorf("app: place order: %w", err)
	}

	order := submit.Order()
	if scope.UseCache {
		s.cache.Store(ctx, s.orderKey(scope, order.OrderID), order)
	}
	return order, nil
}

// replay returns the order placed earlier under key.
func (s *OrderService) replay(ctx context.Context, key string) (*domain.Order, bool) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "idempotency lookup failed", "error", err)
		return nil, false
	}
	if raw == "" || raw == pendingPlacement {
		return nil, false
	}
	var order domain.Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		slog.WarnContext(ctx, "idempotency entry undecodable", "error", err)
		return nil, false
	}
	return &order, true
}

func (s *OrderService) remember(ctx context.Context, key string, order *domain.Order) {
	b, err := json.Marshal(order)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, b, IdempotencyTTL); err != nil {
		slog.WarnContext(ctx, "idempotency write failed", "order_id", order.OrderID, "error", err)
	}
}

func (s *OrderService) ListOrders(ctx context.Context, scope ports.Scope) ([]*domain.Order, error) {
	broker, err := s.resolve(scope)
	if err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context) (any, error) {
		return broker.ListOrders(ctx, scope.UserID)
	}

	var orders []*domain.Order
	if scope.UseCache {
		if err := s.cache.Load(ctx, s.listKey(scope), &orders, fetch); err != nil {
			return nil, fmt.Errorf("app: list orders: %w", err)
		}
	} else {
		if orders, err = broker.ListOrders(ctx, scope.UserID); err != nil {
			return nil, fmt.Errorf("app: list orders: %w", err)
		}
	}

	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, scope ports.Scope, orderID string) (*domain.Order, error) {
	broker, err := s.resolve(scope)
	if err != nil {
		return nil, err
	}

	if !scope.UseCache {
		order, err := broker.GetOrder(ctx, scope.UserID, orderID)
		if err != nil {
			return nil, fmt.Errorf("app: get order: %w", err)
		}
		return order, nil
	}

	var order domain.Order
	err = s.cache.Load(ctx, s.orderKey(scope, orderID), &order, func(ctx context.Context) (any, error) {
		return broker.GetOrder(ctx, scope.UserID, orderID)
	})
	if err != nil {
		return nil, fmt.Errorf("app: get order: %w", err)
	}
	return &order, nil
}

func (s *OrderService) CancelOrder(ctx context.Context, scope ports.Scope, orderID string) (*domain.Order, error) {
	broker, err := s.resolve(scope)
	if err != nil {
		return nil, err
	}

	order, err := broker.CancelOrder(ctx, scope.UserID, orderID)
	if err != nil {
		return nil, fmt.Errorf("app: cancel order: %w", err)
	}

	s.cache.Invalidate(ctx, s.listKey(scope), s.orderKey(scope, orderID))

	if s.log != nil {
		payload, _ := json.Marshal(order)
		meta := orderlog.Meta{OrderID: order.OrderID, Broker: scope.Broker, UserID: scope.UserID}
		if err := s.log.Save(ctx, orderlog.NewEntry(ctx, meta, orderlog.StatusCancelled, "", string(payload), nil)); err != nil {
			slog.ErrorContext(ctx, "failed to journal cancellation", "order_id", orderID, "error", err)
		}
	}

	evt := events.Event{
		Type:       events.TypeOrderCancelled,
		OrderID:    order.OrderID,
		Broker:     scope.Broker,
		UserID:     scope.UserID,
		Order:      order,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "failed to publish cancellation", "order_id", orderID, "error", err)
	}

	return order, nil
}

// OrderHistory returns the journal rows of an order that belong to the broker
// and user of scope. Without a journal it is always empty.
func (s *OrderService) OrderHistory(ctx context.Context, scope ports.Scope, orderID string) ([]*orderlog.Entry, error) {
	if err := domain.ValidateQuery(scope.Broker, scope.UserID, s.brokers.Names()); err != nil {
		return nil, err
	}
	if s.log == nil {
		return []*orderlog.Entry{}, nil
	}
	entries, err := s.log.History(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("app: order history: %w", err)
	}
	owned := make([]*orderlog.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Broker == scope.Broker && e.UserID == scope.UserID {
			owned = append(owned, e)
		}
	}
	return owned, nil
}

func (s *OrderService) resolve(scope ports.Scope) (ports.Broker, error) {
	if err := domain.ValidateQuery(scope.Broker, scope.UserID, s.brokers.Names()); err != nil {
		return nil, err
	}
	return s.brokers.Get(scope.Broker)
}

func (s *OrderService) listKey(scope ports.Scope) string {
	return s.cache.Key("list", joinKey(scope.Broker, scope.UserID))
}

func (s *OrderService) idempotencyKey(scope ports.Scope) string {
	return s.store.GenerateKey("idempotency", joinKey(scope.Broker, scope.UserID, scope.IdempotencyKey))
}

func (s *OrderService) orderKey(scope ports.Scope, orderID string) string {
	return s.cache.Key("order", joinKey(scope.Broker, scope.UserID, orderID))
}

// joinKey escapes each part so that a ':' inside an id cannot shift the
// boundary between parts.
func joinKey(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.QueryEscape(p)
	}
	return strings.Join(escaped, ":")
}
