package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcmexdev/orders-service/internal/coordinator/orderlog"
	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
	"github.com/jcmexdev/orders-service/internal/orders-service/core/ports"
	"github.com/jcmexdev/orders-service/internal/pkg/events"
)

// --- SubmitOrderStep ---

// SubmitOrderStep sends the order to the broker. The placed order is shared
// with the later steps through Order().
type SubmitOrderStep struct {
	broker      ports.Broker
	userID      string
	request     domain.PlaceOrderRequest
	order       *domain.Order
	compensated bool
}

func NewSubmitOrderStep(broker ports.Broker, userID string, request domain.PlaceOrderRequest) *SubmitOrderStep {
	return &SubmitOrderStep{
		broker:  broker,
		userID:  userID,
		request: request,
	}
}

func (s *SubmitOrderStep) Name() string { return "Submit_Order_Step" }

func (s *SubmitOrderStep) Execute(ctx context.Context) error {
	order, err := s.broker.PlaceOrder(ctx, s.userID, s.request)
	if err != nil {
		return fmt.Errorf("failed to place order at %s: %w", s.broker.Name(), err)
	}
	s.order = order
	return nil
}

// Compensate cancels the order at the broker. Orders that already filled
// cannot be taken back; that is reported, not retried.
func (s *SubmitOrderStep) Compensate(ctx context.Context) error {
	if s.order == nil {
		return nil
	}
	if !s.order.Cancellable() {
		return fmt.Errorf("order %s is %s at %s and cannot be cancelled", s.order.OrderID, s.order.Status, s.broker.Name())
	}
	if _, err := s.broker.CancelOrder(ctx, s.userID, s.order.OrderID); err != nil {
		return fmt.Errorf("cancel order %s: %w", s.order.OrderID, err)
	}
	s.compensated = true
	return nil
}

func (s *SubmitOrderStep) Order() *domain.Order { return s.order }

// Live reports whether the broker holds an order from this step that was not
// cancelled by compensation.
func (s *SubmitOrderStep) Live() bool { return s.order != nil && !s.compensated }

func (s *SubmitOrderStep) OrderID() string {
	if s.order == nil {
		return ""
	}
	return s.order.OrderID
}

// --- RecordOrderStep ---

// RecordOrderStep appends the ORDER_PLACED row with the full order snapshot.
type RecordOrderStep struct {
	log    orderlog.Repository
	sagaID string
	submit *SubmitOrderStep
}

func NewRecordOrderStep(log orderlog.Repository, sagaID string, submit *SubmitOrderStep) *RecordOrderStep {
	return &RecordOrderStep{log: log, sagaID: sagaID, submit: submit}
}

func (s *RecordOrderStep) Name() string { return "Record_Order_Step" }

func (s *RecordOrderStep) Execute(ctx context.Context) error {
	order := s.submit.Order()
	if order == nil {
		return fmt.Errorf("no order to record")
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order %s: %w", order.OrderID, err)
	}
	meta := orderlog.Meta{SagaID: s.sagaID, OrderID: order.OrderID, Broker: order.Broker, UserID: order.UserID}
	if err := s.log.Save(ctx, orderlog.NewEntry(ctx, meta, orderlog.StatusPlaced, s.Name(), string(payload), nil)); err != nil {
		return fmt.Errorf("journal order %s: %w", order.OrderID, err)
	}
	return nil
}

// Compensate is a no-op: the journal is append-only and the FAILED row
// written by the orchestrator supersedes it.
func (s *RecordOrderStep) Compensate(ctx context.Context) error { return nil }

// --- PublishOrderStep ---

// PublishOrderStep announces the placed order. The broker already holds the
// order at this point, so a publish failure is journaled and logged instead of
// failing the placement.
type PublishOrderStep struct {
	publisher events.Publisher
	log       orderlog.Repository // nil-safe
	sagaID    string
	submit    *SubmitOrderStep
}

func NewPublishOrderStep(publisher events.Publisher, log orderlog.Repository, sagaID string, submit *SubmitOrderStep) *PublishOrderStep {
	return &PublishOrderStep{publisher: publisher, log: log, sagaID: sagaID, submit: submit}
}

func (s *PublishOrderStep) Name() string { return "Publish_Order_Step" }

func (s *PublishOrderStep) Execute(ctx context.Context) error {
	order := s.submit.Order()
	if order == nil {
		return fmt.Errorf("no order to publish")
	}
	evt := events.Event{
		Type:       events.TypeOrderPlaced,
		OrderID:    order.OrderID,
		Broker:     order.Broker,
		UserID:     order.UserID,
		Order:      order,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "failed to publish order event",
			"saga_id", s.sagaID, "order_id", order.OrderID, "type", evt.Type, "error", err)
		if s.log != nil {
			meta := orderlog.Meta{SagaID: s.sagaID, OrderID: order.OrderID, Broker: order.Broker, UserID: order.UserID}
			entry := orderlog.NewEntry(ctx, meta, orderlog.StatusEventFailed, s.Name(), "",
				[]string{fmt.Sprintf("publish %s: %v", evt.Type, err)})
			if err := s.log.Save(ctx, entry); err != nil {
				slog.ErrorContext(ctx, "failed to journal event failure", "order_id", order.OrderID, "error", err)
			}
		}
	}
	return nil
}

// Compensate is empty as it's the last step.
func (s *PublishOrderStep) Compensate(ctx context.Context) error { return nil }
