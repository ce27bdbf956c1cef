package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/checkout"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/checkout/checkoutlog"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/gateway/httpx/middlewares"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/geocode"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/payment"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/cart"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/location"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/ordertype"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/session"
)

// Handler exposes the checkout orchestration over the local HTTP surface.
type Handler struct {
	checkout  *checkout.Service
	cart      *cart.Store
	session   *session.Store
	orderType *ordertype.Store
	location  *location.Store
	payments  *payment.Flow      // nil-safe: payment endpoints 503 if nil
	nominatim *geocode.Nominatim // nil-safe: reverse endpoint 503s if nil
	places    *geocode.Places    // nil-safe: search endpoint 503s if nil
	log       checkoutlog.Repository // nil-safe: status endpoint 404s if nil
}

func NewHandler(
	co *checkout.Service,
	cartStore *cart.Store,
	sessionStore *session.Store,
	orderTypeStore *ordertype.Store,
	locationStore *location.Store,
	payments *payment.Flow,
	nominatim *geocode.Nominatim,
	places *geocode.Places,
	log checkoutlog.Repository,
) *Handler {
	return &Handler{
		checkout:  co,
		cart:      cartStore,
		session:   sessionStore,
		orderType: orderTypeStore,
		location:  locationStore,
		payments:  payments,
		nominatim: nominatim,
		places:    places,
		log:       log,
	}
}

// Checkout validates the request and runs the order saga synchronously,
// returning the created order id or the failure message.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	if req.Type != "" && !h.orderType.SetTypeIfValid(r.Context(), req.Type) {
		writeError(w, http.StatusBadRequest, "invalid_order_type", req.Type)
		return
	}

	opts := checkout.Options{
		PaymentID:       req.PaymentID,
		Mode:            domain.PaymentMode(req.PaymentMode),
		MobileMoneyType: domain.MobileMoneyType(req.MobileMoneyType),
		PaymentPhone:    req.PaymentPhone,
		PromoCode:       req.PromoCode,
		IdempotencyKey:  middlewares.IdempotencyKey(r.Context()),
	}

	slog.InfoContext(r.Context(), "starting checkout",
		"type", h.orderType.ActiveType(),
		"request_id", middlewares.RequestID(r.Context()),
		"idempotency_key", middlewares.IdempotencyKey(r.Context()))

	order, err := h.checkout.CreateOrder(r.Context(), opts)
	if err != nil {
		writeError(w, statusForCheckoutError(err), "checkout_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, CheckoutResponse{
		CheckoutID: h.checkout.LastCheckoutID(),
		OrderID:    order.ID,
		Status:     string(order.Status),
	})
}

// CheckoutState returns the latest checkout-log row for a run.
func (h *Handler) CheckoutState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "checkout_id_required", "")
		return
	}
	if h.log == nil {
		writeError(w, http.StatusNotFound, "checkout_log_disabled", "")
		return
	}
	entry, err := h.log.GetLatest(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "checkout_not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CheckoutStateResponse{
		CheckoutID:  entry.CheckoutID,
		Status:      string(entry.Status),
		CurrentStep: entry.CurrentStep,
		Errors:      entry.ErrorMessages,
		TraceID:     entry.TraceID,
		UpdatedAt:   entry.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// PaymentThankYou is the landing endpoint for the hosted payment page
// redirect. On a confirmed payment it resolves the transaction reference
// into the free paiement record, whose id the checkout then references as
// CheckoutRequest.PaymentID.
func (h *Handler) PaymentThankYou(w http.ResponseWriter, r *http.Request) {
	c, err := payment.ParseCompletion(r.URL.String())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_completion", err.Error())
		return
	}
	res := PaymentCompletionResponse{
		Status:        c.Status,
		TransactionID: c.TransactionID,
		Succeeded:     c.Succeeded(),
	}
	if c.Succeeded() && c.TransactionID != "" && h.payments != nil {
		p, err := h.payments.ResolveFreePayment(r.Context(), c.TransactionID)
		if err != nil {
			writeError(w, http.StatusBadGateway, "payment_lookup_failed", err.Error())
			return
		}
		res.PaymentID = p.ID
	}
	writeJSON(w, http.StatusOK, res)
}

// BeginPayment creates a paiement record for the cart total and returns the
// hosted payment page URL the caller must open.
func (h *Handler) BeginPayment(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		writeError(w, http.StatusServiceUnavailable, "payments_disabled", "")
		return
	}
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	customer := h.session.Customer()
	if customer == nil {
		writeError(w, http.StatusUnauthorized, "not_authenticated",
			"profil client introuvable, veuillez vous reconnecter")
		return
	}

	idemKey := middlewares.IdempotencyKey(r.Context())
	if idemKey == "" {
		idemKey = uuid.NewString()
	}

	p, err := h.payments.Begin(r.Context(), h.cart.TotalAmount(),
		domain.MobileMoneyType(req.MobileMoneyType), req.Phone, customer.ID, idemKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, "payment_begin_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// AwaitPayment blocks until the paiement leaves PENDING, the polling budget
// runs out, or the caller goes away.
func (h *Handler) AwaitPayment(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		writeError(w, http.StatusServiceUnavailable, "payments_disabled", "")
		return
	}
	p, err := h.payments.WaitForCompletion(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, payment.ErrTimedOut) {
		writeError(w, http.StatusGatewayTimeout, "payment_pending", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "payment_status_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Orders returns the partitioned order list; ?refresh=1 bypasses the cache.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	orders, err := h.checkout.FetchOrders(r.Context(), force)
	if err != nil {
		writeError(w, http.StatusBadGateway, "orders_fetch_failed", err.Error())
		return
	}
	active, completed, cancelled := domain.PartitionOrders(orders)
	writeJSON(w, http.StatusOK, OrdersResponse{
		Active:    active,
		Completed: completed,
		Cancelled: cancelled,
	})
}

// Cart returns the current cart contents and total.
func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CartResponse{
		Items:       h.cart.Items(),
		TotalAmount: h.cart.TotalAmount(),
	})
}

// AddCartItem adds (or merges) a line.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req CartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.ID == "" || req.Price < 0 {
		writeError(w, http.StatusBadRequest, "invalid_item", "id is required and price must not be negative")
		return
	}
	err := h.cart.Add(r.Context(), domain.CartItem{
		ID:          req.ID,
		Name:        req.Name,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Image:       req.Image,
		Description: req.Description,
		Supplements: req.Supplements,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}
	h.Cart(w, r)
}

// UpdateCartItem sets a line's quantity; zero removes it.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.cart.UpdateQuantity(r.Context(), id, req.Quantity); err != nil {
		writeError(w, http.StatusNotFound, "item_not_found", err.Error())
		return
	}
	h.Cart(w, r)
}

// RemoveCartItem drops a line.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.cart.Remove(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}
	h.Cart(w, r)
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
		return
	}
	h.Cart(w, r)
}

// Location returns the currently selected delivery location.
func (h *Handler) Location(w http.ResponseWriter, r *http.Request) {
	sel := h.location.Selected()
	if sel == nil {
		writeError(w, http.StatusNotFound, "no_location_selected", "")
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// SelectLocation stores the location chosen on the map or via search.
func (h *Handler) SelectLocation(w http.ResponseWriter, r *http.Request) {
	var req location.Selected
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.location.Set(r.Context(), req); err != nil {
		writeError(w, http.StatusInternalServerError, "location_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ClearLocation forgets the selection.
func (h *Handler) ClearLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.location.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "location_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReverseGeocode resolves map-pin coordinates into a formatted address.
func (h *Handler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	if h.nominatim == nil {
		writeError(w, http.StatusServiceUnavailable, "geocoding_disabled", "")
		return
	}
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "lat and lon are required")
		return
	}
	place, err := h.nominatim.Reverse(r.Context(), lat, lon)
	if err != nil {
		writeError(w, http.StatusBadGateway, "reverse_geocode_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// SearchAddress returns autocomplete suggestions for a partial address.
func (h *Handler) SearchAddress(w http.ResponseWriter, r *http.Request) {
	if h.places == nil {
		writeError(w, http.StatusServiceUnavailable, "places_disabled", "")
		return
	}
	input := r.URL.Query().Get("q")
	if input == "" {
		writeError(w, http.StatusBadRequest, "query_required", "")
		return
	}
	suggestions, err := h.places.Autocomplete(r.Context(), input)
	if err != nil {
		writeError(w, http.StatusBadGateway, "search_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: suggestions})
}

// PlaceDetails resolves an autocomplete suggestion into coordinates.
func (h *Handler) PlaceDetails(w http.ResponseWriter, r *http.Request) {
	if h.places == nil {
		writeError(w, http.StatusServiceUnavailable, "places_disabled", "")
		return
	}
	place, err := h.places.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadGateway, "place_details_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// statusForCheckoutError maps pre-validation failures, including the order
// constructors' own checks, to 400; everything that reached the backend is a
// 502.
func statusForCheckoutError(err error) int {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrNoProfile),
		errors.Is(err, checkout.ErrNoPhone),
		errors.Is(err, checkout.ErrNoAddress),
		errors.Is(err, checkout.ErrNoReservation),
		errors.Is(err, domain.ErrNoItems),
		errors.Is(err, domain.ErrNoCustomer),
		errors.Is(err, domain.ErrNoPhone),
		errors.Is(err, domain.ErrNoAddress),
		errors.Is(err, domain.ErrNoReservation),
		errors.Is(err, domain.ErrNoTableType),
		errors.Is(err, domain.ErrInvalidOrderType):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
