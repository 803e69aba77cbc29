package domain

import "time"

type OrderType string

const (
	OrderTypeMarket    OrderType = "MARKET"
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStopLoss  OrderType = "SL"
	OrderTypeStopLossM OrderType = "SL-M"
)

// RequiresPrice reports whether the order type rests on the book at a limit price.
func (t OrderType) RequiresPrice() bool {
	return t == OrderTypeLimit || t == OrderTypeStopLoss
}

// RequiresTrigger reports whether the order type is a stop-loss variant.
func (t OrderType) RequiresTrigger() bool {
	return t == OrderTypeStopLoss || t == OrderTypeStopLossM
}

type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

type OrderStatus string

const (
	StatusOpen      OrderStatus = "OPEN"
	StatusComplete  OrderStatus = "COMPLETE"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusRejected  OrderStatus = "REJECTED"
)

type Order struct {
	OrderID         string          `json:"order_id"`
	Broker          string          `json:"broker"`
	UserID          string          `json:"user_id"`
	TradingSymbol   string          `json:"tradingsymbol"`
	Quantity        int             `json:"quantity"`
	OrderType       OrderType       `json:"order_type"`
	TransactionType TransactionType `json:"transaction_type"`
	Product         string          `json:"product,omitempty"`
	Price           *float64        `json:"price"`
	TriggerPrice    *float64        `json:"trigger_price"`
	AveragePrice    float64         `json:"average_price"`
	FilledQuantity  int             `json:"filled_quantity"`
	Status          OrderStatus     `json:"status"`
	StatusMessage   string          `json:"status_message,omitempty"`
	PlacedAt        time.Time       `json:"placed_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Cancellable is true only while the order still rests at the broker.
func (o *Order) Cancellable() bool {
	return o.Status == StatusOpen
}
