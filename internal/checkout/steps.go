package checkout

import (
	"context"
	"fmt"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/backend"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/cart"
)

// runState carries the ids produced by earlier steps to later ones and to
// the service once the run finishes.
type runState struct {
	PaymentID string
	OrderID   string
	Order     *domain.Order
}

// --- CreatePaymentStep ---

// CreatePaymentStep creates the paiement record mobile-money orders must
// reference. Its compensation cancels the record.
type CreatePaymentStep struct {
	api     *backend.Client
	request domain.CreatePayment
	idemKey string
	state   *runState
}

func NewCreatePaymentStep(api *backend.Client, request domain.CreatePayment, idemKey string, state *runState) *CreatePaymentStep {
	return &CreatePaymentStep{api: api, request: request, idemKey: idemKey, state: state}
}

func (s *CreatePaymentStep) Name() string { return "Create_Payment_Step" }

func (s *CreatePaymentStep) Execute(ctx context.Context) error {
	p, err := s.api.CreatePayment(ctx, s.request, s.idemKey)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	s.state.PaymentID = p.ID
	return nil
}

func (s *CreatePaymentStep) Compensate(ctx context.Context) error {
	if s.state.PaymentID == "" {
		return nil
	}
	return s.api.CancelPayment(ctx, s.state.PaymentID)
}

// --- CreateOrderStep ---

// CreateOrderStep posts the order payload, wiring in the payment id produced
// by an earlier step. Its compensation cancels the order.
type CreateOrderStep struct {
	api     *backend.Client
	request domain.CreateOrder
	idemKey string
	state   *runState
}

func NewCreateOrderStep(api *backend.Client, request domain.CreateOrder, idemKey string, state *runState) *CreateOrderStep {
	return &CreateOrderStep{api: api, request: request, idemKey: idemKey, state: state}
}

func (s *CreateOrderStep) Name() string { return "Create_Order_Step" }

func (s *CreateOrderStep) Execute(ctx context.Context) error {
	req := s.request
	if req.PaymentID == "" {
		req.PaymentID = s.state.PaymentID
	}
	o, err := s.api.CreateOrder(ctx, req, s.idemKey)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	s.state.OrderID = o.ID
	s.state.Order = o
	return nil
}

func (s *CreateOrderStep) Compensate(ctx context.Context) error {
	if s.state.OrderID == "" {
		return nil
	}
	return s.api.UpdateOrderStatus(ctx, s.state.OrderID, domain.OrderStatusCancelled)
}

// --- ClearCartStep ---

// ClearCartStep empties the local cart once the order exists. The snapshot
// taken before clearing lets the compensation put the cart back, so a
// failure after order creation never strands the user with an empty cart
// and no order.
type ClearCartStep struct {
	cart     *cart.Store
	snapshot []domain.CartItem
}

func NewClearCartStep(c *cart.Store) *ClearCartStep {
	return &ClearCartStep{cart: c}
}

func (s *ClearCartStep) Name() string { return "Clear_Cart_Step" }

func (s *ClearCartStep) Execute(ctx context.Context) error {
	s.snapshot = s.cart.Snapshot()
	return s.cart.Clear(ctx)
}

func (s *ClearCartStep) Compensate(ctx context.Context) error {
	return s.cart.Restore(ctx, s.snapshot)
}
