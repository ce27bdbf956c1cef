package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/checkout/checkoutlog"
)

// CloseStaleRuns scans the checkout log for runs a previous process left in
// a non-terminal state and closes them as FAILED, so the status endpoint
// never reports a dead run as live. Returns the ids of the closed runs.
func CloseStaleRuns(ctx context.Context, log checkoutlog.Repository, logger *slog.Logger) ([]string, error) {
	if log == nil {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	stale, err := log.InFlight(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout: scan for stale runs: %w", err)
	}

	var closed []string
	for _, e := range stale {
		logger.WarnContext(ctx, "closing checkout run interrupted by restart",
			"checkout_id", e.CheckoutID, "last_status", e.Status, "last_step", e.CurrentStep)
		entry := checkoutlog.NewEntry(ctx, e.CheckoutID, checkoutlog.StatusFailed, e.CurrentStep, "",
			[]string{"run interrupted by process restart"})
		if err := log.Save(ctx, entry); err != nil {
			return closed, fmt.Errorf("checkout: close stale run %q: %w", e.CheckoutID, err)
		}
		closed = append(closed, e.CheckoutID)
	}
	return closed, nil
}
