// Package payment drives the hosted-payment-page flow used by mobile-money
// modes: create a paiement record, hand the hosted URL to the caller, then
// learn the outcome either from the /payment/thank-you redirect or by
// polling the record's status. The actual authorization happens entirely on
// the provider's page; nothing here touches settlement.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/backend"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/phone"
)

// ThankYouPath is the redirect path the hosted page lands on when done.
const ThankYouPath = "/payment/thank-you"

var (
	ErrNotCompletion = errors.New("payment: url is not a completion redirect")
	ErrTimedOut      = errors.New("payment: status polling timed out")
)

// Completion is the outcome carried back by the redirect URL or message.
type Completion struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
}

// Succeeded reports whether the provider confirmed the payment.
func (c Completion) Succeeded() bool {
	return strings.EqualFold(c.Status, "success") || strings.EqualFold(c.Status, "successful")
}

// Flow is the mobile-money payment orchestration.
type Flow struct {
	api      *backend.Client
	logger   *slog.Logger
	interval time.Duration
	attempts int
}

// NewFlow builds a flow polling every interval up to attempts times.
// Zero values fall back to 3s × 20 (a minute of polling).
func NewFlow(api *backend.Client, logger *slog.Logger, interval time.Duration, attempts int) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if attempts <= 0 {
		attempts = 20
	}
	return &Flow{api: api, logger: logger, interval: interval, attempts: attempts}
}

// Begin creates the paiement record and returns it; the URL field points at
// the hosted payment page. The phone number is normalised first.
func (f *Flow) Begin(ctx context.Context, amount float64, mm domain.MobileMoneyType, rawPhone, customerID, idempotencyKey string) (*domain.Payment, error) {
	if !mm.Valid() {
		return nil, fmt.Errorf("payment: unknown mobile money type %q", mm)
	}
	formatted, err := phone.Format(rawPhone)
	if err != nil {
		return nil, fmt.Errorf("payment: %w", err)
	}
	p, err := f.api.CreatePayment(ctx, domain.CreatePayment{
		Amount:          amount,
		Mode:            domain.PaymentModeMobileMoney,
		MobileMoneyType: mm,
		Phone:           formatted,
		CustomerID:      customerID,
	}, idempotencyKey)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// WaitForCompletion polls the paiement until it leaves PENDING or the
// attempt budget runs out. Cancellation of ctx (the user closing the page)
// stops the polling immediately.
func (f *Flow) WaitForCompletion(ctx context.Context, paymentID string) (*domain.Payment, error) {
	for i := 0; i < f.attempts; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.interval):
		}

		p, err := f.api.Payment(ctx, paymentID)
		if err != nil {
			f.logger.WarnContext(ctx, "payment status poll failed", "payment_id", paymentID, "error", err)
			continue
		}
		if p.Status != domain.PaymentStatusPending {
			return p, nil
		}
	}
	return nil, ErrTimedOut
}

// ResolveFreePayment finds the confirmed paiement matching the transaction
// reference from the redirect; its id is what the order references.
func (f *Flow) ResolveFreePayment(ctx context.Context, transactionID string) (*domain.Payment, error) {
	return f.api.FreePayment(ctx, transactionID)
}

// ParseCompletion extracts the outcome from a navigation URL. Only the
// thank-you redirect carries one; any other URL returns ErrNotCompletion.
func ParseCompletion(rawURL string) (*Completion, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("payment: parse url: %w", err)
	}
	if !strings.HasSuffix(u.Path, ThankYouPath) {
		return nil, ErrNotCompletion
	}
	q := u.Query()
	status := q.Get("status")
	if status == "" {
		return nil, ErrNotCompletion
	}
	return &Completion{
		Status:        status,
		TransactionID: q.Get("transactionId"),
	}, nil
}

// ParseMessage extracts the outcome from a JSON message event posted by the
// hosted page, the alternative channel to the redirect.
func ParseMessage(data []byte) (*Completion, error) {
	var c Completion
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("payment: parse message: %w", err)
	}
	if c.Status == "" {
		return nil, ErrNotCompletion
	}
	return &c, nil
}
