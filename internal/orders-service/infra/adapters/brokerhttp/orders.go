package brokerhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
	"github.com/jcmexdev/orders-service/internal/orders-service/core/ports"
)

var _ ports.Broker = (*Client)(nil)

type listOrdersResponse struct {
	Orders []*domain.Order `json:"orders"`
}

func (c *Client) Name() string { return c.name }

func (c *Client) PlaceOrder(ctx context.Context, userID string, req domain.PlaceOrderRequest) (*domain.Order, error) {
	body, status, err := c.post(ctx, ordersPath(userID), req)
	if err != nil {
		return nil, c.wrap("place order", err)
	}
	if err := c.checkStatus("place order", status, body); err != nil {
		return nil, err
	}
	return c.decodeOrder("place order", body, userID)
}

func (c *Client) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	body, status, err := c.get(ctx, ordersPath(userID))
	if err != nil {
		return nil, c.wrap("list orders", err)
	}
	if err := c.checkStatus("list orders", status, body); err != nil {
		return nil, err
	}

	var resp listOrdersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: list orders: unmarshal: %w", c.name, err)
	}
	if resp.Orders == nil {
		resp.Orders = []*domain.Order{}
	}
	for _, o := range resp.Orders {
		c.fill(o, userID)
	}
	return resp.Orders, nil
}

func (c *Client) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	body, status, err := c.get(ctx, orderPath(userID, orderID))
	if err != nil {
		return nil, c.wrap("get order", err)
	}
	if err := c.checkStatus("get order "+orderID, status, body); err != nil {
		return nil, err
	}
	return c.decodeOrder("get order", body, userID)
}

func (c *Client) CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	body, status, err := c.delete(ctx, orderPath(userID, orderID))
	if err != nil {
		return nil, c.wrap("cancel order", err)
	}
	if err := c.checkStatus("cancel order "+orderID, status, body); err != nil {
		return nil, err
	}
	return c.decodeOrder("cancel order", body, userID)
}

func (c *Client) checkStatus(op string, status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", c.name, op, domain.ErrOrderNotFound)
	case status == http.StatusConflict:
		return fmt.Errorf("%s: %s: %w", c.name, op, domain.ErrOrderNotCancellable)
	default:
		return fmt.Errorf("%s: %s: status=%d body=%s: %w", c.name, op, status, string(body), domain.ErrBrokerUnavailable)
	}
}

func (c *Client) decodeOrder(op string, body []byte, userID string) (*domain.Order, error) {
	var order domain.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("%s: %s: unmarshal: %w", c.name, op, err)
	}
	if order.OrderID == "" {
		return nil, fmt.Errorf("%s: %s: empty order id in response: %w", c.name, op, domain.ErrBrokerUnavailable)
	}
	c.fill(&order, userID)
	return &order, nil
}

// fill sets the routing fields gateways commonly omit.
func (c *Client) fill(o *domain.Order, userID string) {
	if o.Broker == "" {
		o.Broker = c.name
	}
	if o.UserID == "" {
		o.UserID = userID
	}
}

func (c *Client) wrap(op string, err error) error {
	return fmt.Errorf("%s: %s: %v: %w", c.name, op, err, domain.ErrBrokerUnavailable)
}

func ordersPath(userID string) string {
	return "/users/" + url.PathEscape(userID) + "/orders"
}

func orderPath(userID, orderID string) string {
	return ordersPath(userID) + "/" + url.PathEscape(orderID)
}
