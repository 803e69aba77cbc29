package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/orders-service/internal/coordinator/orderlog"
)

// Step represents a single unit of work in the Saga.
// Each step must have a compensating action to undo its effects.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// OrderIdentifier is implemented by steps that learn the broker order id, so
// later journal rows can carry it.
type OrderIdentifier interface {
	OrderID() string
}

// Orchestrator manages the execution of a collection of Steps.
type Orchestrator struct {
	meta  orderlog.Meta
	steps []Step
	log   orderlog.Repository // nil-safe
}

func NewOrchestrator(meta orderlog.Meta, steps []Step, log orderlog.Repository) *Orchestrator {
	return &Orchestrator{meta: meta, steps: steps, log: log}
}

// Start runs the saga steps sequentially.
// If a step fails, it triggers the compensation of all previously successful steps.
func (o *Orchestrator) Start(ctx context.Context) error {
	var successfulSteps []Step

	o.record(ctx, orderlog.StatusStarted, "", nil)

	for _, step := range o.steps {
		slog.DebugContext(ctx, "executing saga step", "saga_id", o.meta.SagaID, "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			slog.WarnContext(ctx, "saga step failed, starting rollback",
				"saga_id", o.meta.SagaID, "step", step.Name(), "error", err)
			errs := o.rollback(ctx, step.Name(), err, successfulSteps)
			o.record(ctx, orderlog.StatusFailed, step.Name(), errs)
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
		if id, ok := step.(OrderIdentifier); ok && id.OrderID() != "" {
			o.meta.OrderID = id.OrderID()
		}
		// Track successful step for potential compensation (LIFO)
		successfulSteps = append(successfulSteps, step)
		o.record(ctx, orderlog.StatusStepDone, step.Name(), nil)
	}

	o.record(ctx, orderlog.StatusCompleted, "", nil)
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, failed string, cause error, steps []Step) []string {
	errs := []string{fmt.Sprintf("step %s failed: %v", failed, cause)}
	if len(steps) > 0 {
		o.record(ctx, orderlog.StatusCompensating, failed, errs)
	}
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		slog.InfoContext(ctx, "compensating saga step", "saga_id", o.meta.SagaID, "step", step.Name())
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to compensate step",
				"saga_id", o.meta.SagaID, "step", step.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("compensation of %s failed: %v", step.Name(), err))
		}
	}
	return errs
}

func (o *Orchestrator) record(ctx context.Context, status orderlog.Status, step string, errs []string) {
	if o.log == nil {
		return
	}
	entry := orderlog.NewEntry(ctx, o.meta, status, step, "", errs)
	if err := o.log.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to journal saga transition",
			"saga_id", o.meta.SagaID, "status", status, "error", err)
	}
}
