package events

import (
	"context"
	"time"

	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
)

type Type string

const (
	TypeOrderPlaced    Type = "order.placed"
	TypeOrderCancelled Type = "order.cancelled"
)

type Event struct {
	Type       Type          `json:"type"`
	OrderID    string        `json:"order_id"`
	Broker     string        `json:"broker"`
	UserID     string        `json:"user_id"`
	Order      *domain.Order `json:"order,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NopPublisher drops every event. Used when no broker URL is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
