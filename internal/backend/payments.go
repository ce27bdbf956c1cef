package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
)

// CreatePayment creates a paiement record. For mobile-money modes the
// response carries the hosted payment page URL.
func (c *Client) CreatePayment(ctx context.Context, cp domain.CreatePayment, idempotencyKey string) (*domain.Payment, error) {
	var out domain.Payment
	opts := []RequestOption{}
	if idempotencyKey != "" {
		opts = append(opts, WithIdempotencyKey(idempotencyKey))
	}
	if err := c.do(ctx, http.MethodPost, "/v1/paiements", cp, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// Payment fetches one paiement by id.
func (c *Client) Payment(ctx context.Context, id string) (*domain.Payment, error) {
	var out domain.Payment
	if err := c.do(ctx, http.MethodGet, "/v1/paiements/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelPayment marks a paiement CANCELLED. Used as the compensation of the
// payment step when a later checkout step fails.
func (c *Client) CancelPayment(ctx context.Context, id string) error {
	body := map[string]domain.PaymentStatus{"status": domain.PaymentStatusCancelled}
	return c.do(ctx, http.MethodPatch, "/v1/paiements/"+id, body, nil)
}

// FreePayment looks up a successful paiement by transaction reference that
// is not yet attached to an order. The checkout references it at order
// creation after the hosted page confirms the payment.
func (c *Client) FreePayment(ctx context.Context, reference string) (*domain.Payment, error) {
	q := url.Values{}
	q.Set("reference", reference)
	q.Set("status", string(domain.PaymentStatusSuccess))
	q.Set("free", "true")
	var out []domain.Payment
	if err := c.do(ctx, http.MethodGet, "/v1/paiements", nil, &out, WithQuery(q)); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, &APIError{Status: http.StatusNotFound, Message: "paiement introuvable"}
	}
	return &out[0], nil
}
