package orderlog

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo returns the ids of the active span in ctx, or zero values
// when there is none.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// Meta carries the identifiers copied onto every entry of one saga run.
type Meta struct {
	SagaID  string
	OrderID string
	Broker  string
	UserID  string
}

// NewEntry builds an entry stamped with the current time and the trace of ctx.
func NewEntry(ctx context.Context, meta Meta, status Status, step, payload string, errs []string) *Entry {
	ti := ExtractTraceInfo(ctx)

	errJSON := "[]"
	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			errJSON = string(b)
		}
	}

	return &Entry{
		OrderID:       meta.OrderID,
		SagaID:        meta.SagaID,
		Broker:        meta.Broker,
		UserID:        meta.UserID,
		Status:        status,
		Step:          step,
		Payload:       payload,
		ErrorMessages: errJSON,
		TraceID:       ti.TraceID,
		SpanID:        ti.SpanID,
		CreatedAt:     time.Now().UTC(),
	}
}
