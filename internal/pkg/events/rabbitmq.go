package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jcmexdev/orders-service/internal/pkg/interceptors"
)

const (
	ExchangeName = "orders"
	ExchangeType = "topic"
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type rabbitPublisher struct {
	ch Channel
}

// NewRabbitPublisher publishes events to the orders topic exchange.
func NewRabbitPublisher(ch Channel) Publisher {
	return &rabbitPublisher{ch: ch}
}

func (p *rabbitPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", evt.Type, err)
	}

	return p.ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey(evt),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     evt.OrderID,
			CorrelationId: interceptors.RequestIDFromContext(ctx),
			Timestamp:     evt.OccurredAt,
			Type:          string(evt.Type),
			Body:          body,
		},
	)
}

// RoutingKey is orders.<broker>.<event>, e.g. orders.zerodha.placed.
func RoutingKey(evt Event) string {
	return fmt.Sprintf("orders.%s.%s", evt.Broker, strings.TrimPrefix(string(evt.Type), "order."))
}

// SetupConn dials RabbitMQ with a few retries and declares the exchange.
func SetupConn(url string) (*amqp.Connection, *amqp.Channel, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		slog.Warn("failed to connect to RabbitMQ", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("events: connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("events: open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName,
		ExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("events: declare exchange: %w", err)
	}

	return conn, ch, nil
}
