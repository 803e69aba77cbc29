// Package orderlog defines the append-only journal of order lifecycle events.
//
// Every placement, step of the placement saga and cancellation appends one
// row. The journal is never updated in place, so the history of an order is
// the ordered list of its rows and the latest row is its last known state.
package orderlog

import "time"

// Status is the lifecycle event recorded by an entry.
type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusPlaced       Status = "ORDER_PLACED"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
	StatusCancelled    Status = "ORDER_CANCELLED"
	StatusEventFailed  Status = "EVENT_FAILED"
)

// Entry is a single row in the order_events table.
type Entry struct {
	// OrderID is empty for STARTED rows written before the broker assigned one;
	// those rows are keyed by the saga id in SagaID instead.
	OrderID string `json:"order_id"`
	SagaID  string `json:"saga_id"`
	Broker  string `json:"broker"`
	UserID  string `json:"user_id"`

	Status Status `json:"status"`
	Step   string `json:"step,omitempty"`

	// Payload is the JSON order snapshot at the time of the event.
	Payload string `json:"payload,omitempty"`

	// ErrorMessages is a JSON array of failure details.
	ErrorMessages string `json:"error_messages"`

	TraceID string `json:"trace_id,omitempty"`
	SpanID  string `json:"span_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
