package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/checkout/checkoutlog"
)

// Step is a single unit of work in a checkout run. Each step must have a
// compensating action to undo its effects.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Orchestrator executes a checkout's steps sequentially. If a step fails it
// compensates all previously successful steps in LIFO order and records
// every transition in the checkout log.
type Orchestrator struct {
	checkoutID string
	steps      []Step
	log        checkoutlog.Repository // nil-safe: logging skipped if nil
}

func NewOrchestrator(checkoutID string, steps []Step, log checkoutlog.Repository) *Orchestrator {
	return &Orchestrator{checkoutID: checkoutID, steps: steps, log: log}
}

// Start runs the steps. payload is the JSON order payload recorded on the
// STARTED row so the run can be replayed from the log.
func (o *Orchestrator) Start(ctx context.Context, payload string) error {
	o.record(ctx, checkoutlog.StatusStarted, "", payload, nil)

	var successful []Step
	var errs []string

	for _, step := range o.steps {
		slog.InfoContext(ctx, "executing checkout step", "checkout_id", o.checkoutID, "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			slog.ErrorContext(ctx, "checkout step failed, starting rollback",
				"checkout_id", o.checkoutID, "step", step.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("%s: %v", step.Name(), err))
			o.record(ctx, checkoutlog.StatusCompensating, step.Name(), "", errs)
			o.rollback(ctx, successful, &errs)
			o.record(ctx, checkoutlog.StatusFailed, step.Name(), "", errs)
			return err
		}
		// Track successful steps for potential compensation (LIFO).
		successful = append(successful, step)
		o.record(ctx, checkoutlog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, checkoutlog.StatusCompleted, "", "", nil)
	slog.InfoContext(ctx, "checkout completed", "checkout_id", o.checkoutID)
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step, errs *[]string) {
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		slog.InfoContext(ctx, "compensating checkout step", "checkout_id", o.checkoutID, "step", step.Name())
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to compensate checkout step",
				"checkout_id", o.checkoutID, "step", step.Name(), "error", err)
			*errs = append(*errs, fmt.Sprintf("compensation of %s failed: %v", step.Name(), err))
		}
	}
}

func (o *Orchestrator) record(ctx context.Context, status checkoutlog.Status, step, payload string, errs []string) {
	if o.log == nil {
		return
	}
	entry := checkoutlog.NewEntry(ctx, o.checkoutID, status, step, payload, errs)
	if err := o.log.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to persist checkout log entry",
			"checkout_id", o.checkoutID, "status", status, "error", err)
	}
}
