package paper

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
)

func price(f float64) *float64 { return &f }

func limitOrder() domain.PlaceOrderRequest {
	return domain.PlaceOrderRequest{
		TradingSymbol:   "INFY",
		Quantity:        10,
		OrderType:       domain.OrderTypeLimit,
		Price:           price(1500),
		TransactionType: domain.TransactionBuy,
	}
}

func TestBroker_PlaceAndGet(t *testing.T) {
	b := NewBroker("upstox")
	ctx := context.Background()

	order, err := b.PlaceOrder(ctx, "12345", limitOrder())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(order.OrderID, "upstox-"))
	assert.Equal(t, domain.StatusOpen, order.Status)
	assert.Equal(t, "upstox", order.Broker)
	assert.Zero(t, order.FilledQuantity)

	got, err := b.GetOrder(ctx, "12345", order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order, got)

	_, err = b.GetOrder(ctx, "other-user", order.OrderID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestBroker_MarketOrderFills(t *testing.T) {
	b := NewBroker("zerodha")
	order, err := b.PlaceOrder(context.Background(), "u", domain.PlaceOrderRequest{
		TradingSymbol: "TCS", Quantity: 3, OrderType: domain.OrderTypeMarket,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, order.Status)
	assert.Equal(t, 3, order.FilledQuantity)
	assert.Equal(t, ReferencePrice, order.AveragePrice)
}

func TestBroker_Cancel(t *testing.T) {
	b := NewBroker("fyers")
	ctx := context.Background()

	order, err := b.PlaceOrder(ctx, "u", limitOrder())
	require.NoError(t, err)

	cancelled, err := b.CancelOrder(ctx, "u", order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	_, err = b.CancelOrder(ctx, "u", order.OrderID)
	assert.ErrorIs(t, err, domain.ErrOrderNotCancellable)

	_, err = b.CancelOrder(ctx, "u", "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestBroker_ListOrdersIsolatedPerUser(t *testing.T) {
	b := NewBroker("groww")
	ctx := context.Background()

	empty, err := b.ListOrders(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.PlaceOrder(ctx, "a", limitOrder())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	_, err = b.PlaceOrder(ctx, "b", limitOrder())
	require.NoError(t, err)

	list, err := b.ListOrders(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestBroker_ReturnsCopies(t *testing.T) {
	b := NewBroker("angelone")
	ctx := context.Background()

	order, err := b.PlaceOrder(ctx, "u", limitOrder())
	require.NoError(t, err)
	order.Status = domain.StatusRejected

	got, err := b.GetOrder(ctx, "u", order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, got.Status)
}
