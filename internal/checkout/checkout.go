// Package checkout orchestrates order creation: it combines cart, session,
// location and order-type state into one validated payload and runs it as a
// saga — payment, order, cart clear — with LIFO compensation on failure.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/backend"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/cache"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/checkout/checkoutlog"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/phone"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/cart"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/location"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/ordertype"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/session"
)

// Business errors surfaced to the UI with the original French messages.
var (
	ErrEmptyCart     = errors.New("votre panier est vide")
	ErrNoProfile     = errors.New("profil client introuvable, veuillez vous reconnecter")
	ErrNoPhone       = errors.New("numéro de téléphone requis")
	ErrNoAddress     = errors.New("veuillez sélectionner une adresse de livraison")
	ErrNoReservation = errors.New("informations de réservation incomplètes")
)

const ordersCacheTTL = 30 * time.Second

// Options carries the payment choices collected by the checkout screens.
type Options struct {
	// PaymentID references an already-confirmed paiement (the "free
	// payment" resolved after the hosted page redirect). When empty and
	// Mode is MOBILE_MONEY, a payment record is created as a saga step.
	PaymentID       string
	Mode            domain.PaymentMode
	MobileMoneyType domain.MobileMoneyType
	PaymentPhone    string
	PromoCode       string

	// IdempotencyKey, when supplied by the caller, becomes the checkout id
	// sent to the backend on payment and order creation, so replaying the
	// same request cannot create a second order.
	IdempotencyKey string

	// Reset is invoked after a successful run, before the result is
	// returned (the wizard uses it to advance to the success step).
	Reset func()
}

// Service is the order store: it validates, runs the checkout saga and
// tracks the resulting order id plus the fetched order list.
type Service struct {
	api       *backend.Client
	cart      *cart.Store
	session   *session.Store
	location  *location.Store
	orderType *ordertype.Store
	log       checkoutlog.Repository
	cache     cache.Cache
	logger    *slog.Logger

	mu             sync.RWMutex
	currentOrderID string
	lastCheckoutID string
	lastError      string
	orders         []domain.Order
}

func NewService(
	api *backend.Client,
	cartStore *cart.Store,
	sessionStore *session.Store,
	locationStore *location.Store,
	orderTypeStore *ordertype.Store,
	log checkoutlog.Repository,
	orderCache cache.Cache,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:       api,
		cart:      cartStore,
		session:   sessionStore,
		location:  locationStore,
		orderType: orderTypeStore,
		log:       log,
		cache:     orderCache,
		logger:    logger,
	}
}

// CreateDeliveryOrder assembles and submits a DELIVERY order, using the
// selected location and falling back to the profile address.
func (s *Service) CreateDeliveryOrder(ctx context.Context, opts Options) (*domain.Order, error) {
	customer, phoneNumber, err := s.requireCustomer()
	if err != nil {
		return s.fail(err)
	}
	addr := s.deliveryAddress(customer)
	if addr == nil {
		return s.fail(ErrNoAddress)
	}
	items := s.cart.OrderItems()
	if len(items) == 0 {
		return s.fail(ErrEmptyCart)
	}

	co, err := domain.NewDeliveryOrder(customer.ID, phoneNumber, items, addr)
	if err != nil {
		return s.fail(err)
	}
	return s.run(ctx, co, opts)
}

// CreatePickupOrder assembles and submits a PICKUP order with the chosen
// collection slot.
func (s *Service) CreatePickupOrder(ctx context.Context, opts Options) (*domain.Order, error) {
	customer, phoneNumber, err := s.requireCustomer()
	if err != nil {
		return s.fail(err)
	}
	items := s.cart.OrderItems()
	if len(items) == 0 {
		return s.fail(ErrEmptyCart)
	}

	r := s.orderType.Reservation()
	if r.Date == "" || r.Time == "" {
		return s.fail(ErrNoReservation)
	}
	date, err := ordertype.FormatDate(r.Date)
	if err != nil {
		return s.fail(ErrNoReservation)
	}

	co, err := domain.NewPickupOrder(customer.ID, phoneNumber, items, date, r.Time)
	if err != nil {
		return s.fail(err)
	}
	return s.run(ctx, co, opts)
}

// CreateTableOrder assembles and submits a TABLE reservation order.
func (s *Service) CreateTableOrder(ctx context.Context, opts Options) (*domain.Order, error) {
	customer, phoneNumber, err := s.requireCustomer()
	if err != nil {
		return s.fail(err)
	}
	items := s.cart.OrderItems()
	if len(items) == 0 {
		return s.fail(ErrEmptyCart)
	}

	fr := s.orderType.FormattedReservation()
	if fr == nil {
		return s.fail(ErrNoReservation)
	}

	co, err := domain.NewTableOrder(customer.ID, phoneNumber, items, fr.Date, fr.Time, fr.TableType, fr.Places)
	if err != nil {
		return s.fail(err)
	}
	return s.run(ctx, co, opts)
}

// CreateOrder dispatches on the active order type. This is the single
// canonical path; there is one constructor per fulfillment mode and nothing
// else.
func (s *Service) CreateOrder(ctx context.Context, opts Options) (*domain.Order, error) {
	switch s.orderType.ActiveType() {
	case domain.OrderTypePickup:
		return s.CreatePickupOrder(ctx, opts)
	case domain.OrderTypeTable:
		return s.CreateTableOrder(ctx, opts)
	default:
		return s.CreateDeliveryOrder(ctx, opts)
	}
}

// run executes the saga for a validated payload. All validation happens
// before this point — no network call is made for an invalid checkout.
func (s *Service) run(ctx context.Context, co domain.CreateOrder, opts Options) (*domain.Order, error) {
	co.PaymentID = opts.PaymentID
	co.PromoCode = opts.PromoCode

	// The checkout id doubles as the idempotency key: a caller replaying a
	// run (double tap, network retry) supplies the same key and the backend
	// deduplicates. A fresh UUID is generated only when no key was given.
	checkoutID := opts.IdempotencyKey
	if checkoutID == "" {
		checkoutID = uuid.NewString()
	}
	state := &runState{}

	var steps []Step
	if opts.PaymentID == "" && opts.Mode == domain.PaymentModeMobileMoney {
		if !opts.MobileMoneyType.Valid() {
			return s.fail(fmt.Errorf("moyen de paiement invalide: %q", opts.MobileMoneyType))
		}
		steps = append(steps, NewCreatePaymentStep(s.api, domain.CreatePayment{
			Amount:          s.cart.TotalAmount(),
			Mode:            domain.PaymentModeMobileMoney,
			MobileMoneyType: opts.MobileMoneyType,
			Phone:           opts.PaymentPhone,
			CustomerID:      co.CustomerID,
		}, checkoutID, state))
	}
	steps = append(steps,
		NewCreateOrderStep(s.api, co, checkoutID, state),
		NewClearCartStep(s.cart),
	)

	payload, _ := json.Marshal(co)
	saga := NewOrchestrator(checkoutID, steps, s.log)

	s.mu.Lock()
	s.lastCheckoutID = checkoutID
	s.mu.Unlock()

	if err := saga.Start(ctx, string(payload)); err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.currentOrderID = state.OrderID
	s.lastError = ""
	s.mu.Unlock()

	if opts.Reset != nil {
		opts.Reset()
	}
	return state.Order, nil
}

// FetchOrders loads the customer's orders, serving a short-TTL cache unless
// forceRefresh bypasses it.
func (s *Service) FetchOrders(ctx context.Context, forceRefresh bool) ([]domain.Order, error) {
	customer := s.session.Customer()
	if customer == nil {
		_, err := s.fail(ErrNoProfile)
		return nil, err
	}

	key := ""
	if s.cache != nil {
		key = s.cache.GenerateKey("orders", customer.ID)
		if !forceRefresh {
			if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
				var cached []domain.Order
				if json.Unmarshal([]byte(raw), &cached) == nil {
					s.setOrders(cached)
					return cached, nil
				}
			}
		}
	}

	orders, err := s.api.CustomerOrders(ctx)
	if err != nil {
		_, ferr := s.fail(err)
		return nil, ferr
	}
	if s.cache != nil && key != "" {
		if b, err := json.Marshal(orders); err == nil {
			if err := s.cache.Set(ctx, key, string(b), ordersCacheTTL); err != nil {
				s.logger.WarnContext(ctx, "orders cache write failed", "error", err)
			}
		}
	}
	s.setOrders(orders)
	return orders, nil
}

// ActiveOrders returns the in-flight subset of the last fetched list.
func (s *Service) ActiveOrders() []domain.Order {
	active, _, _ := domain.PartitionOrders(s.Orders())
	return active
}

// CompletedOrders returns the delivered/collected subset.
func (s *Service) CompletedOrders() []domain.Order {
	_, completed, _ := domain.PartitionOrders(s.Orders())
	return completed
}

// CancelledOrders returns the cancelled subset.
func (s *Service) CancelledOrders() []domain.Order {
	_, _, cancelled := domain.PartitionOrders(s.Orders())
	return cancelled
}

// Orders returns a copy of the last fetched list.
func (s *Service) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// CurrentOrderID is the id of the most recently created order.
func (s *Service) CurrentOrderID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentOrderID
}

// LastCheckoutID is the id (and idempotency key) of the most recent run.
func (s *Service) LastCheckoutID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCheckoutID
}

// LastError is the most recent failure message for the UI; empty after a
// successful run.
func (s *Service) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// requireCustomer resolves the profile and a normalised phone number.
func (s *Service) requireCustomer() (*domain.Customer, string, error) {
	customer := s.session.Customer()
	if customer == nil {
		return nil, "", ErrNoProfile
	}
	if customer.Phone == "" {
		return nil, "", ErrNoPhone
	}
	formatted, err := phone.Format(customer.Phone)
	if err != nil {
		return nil, "", ErrNoPhone
	}
	return customer, formatted, nil
}

// deliveryAddress prefers the explicitly selected location and falls back to
// the address saved on the profile.
func (s *Service) deliveryAddress(customer *domain.Customer) *domain.Address {
	if addr := s.location.Address(); addr != nil {
		return addr
	}
	return customer.Address
}

func (s *Service) setOrders(orders []domain.Order) {
	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
}

// fail records the error message for the UI and returns a nil order, the
// no-retry contract every screen relies on.
func (s *Service) fail(err error) (*domain.Order, error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
	return nil, err
}
