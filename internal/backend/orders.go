package backend

import (
	"context"
	"net/http"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
)

// CreateOrder submits an order payload. The idempotency key lets the backend
// drop a duplicate submission (double tap, saga retry).
func (c *Client) CreateOrder(ctx context.Context, co domain.CreateOrder, idempotencyKey string) (*domain.Order, error) {
	var out domain.Order
	opts := []RequestOption{}
	if idempotencyKey != "" {
		opts = append(opts, WithIdempotencyKey(idempotencyKey))
	}
	if err := c.do(ctx, http.MethodPost, "/v1/orders", co, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

// CustomerOrders lists the authenticated customer's orders.
func (c *Client) CustomerOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.do(ctx, http.MethodGet, "/v1/orders/customer", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Order fetches one order by id.
func (c *Client) Order(ctx context.Context, id string) (*domain.Order, error) {
	var out domain.Order
	if err := c.do(ctx, http.MethodGet, "/v1/orders/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderStatus patches the status of an order. Checkout compensation
// uses it to cancel an order created by a failed run.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	body := map[string]domain.OrderStatus{"status": status}
	return c.do(ctx, http.MethodPatch, "/v1/orders/"+id+"/status", body, nil)
}
