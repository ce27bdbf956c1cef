package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/backend"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/cache"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/checkout"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/geocode"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/payment"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/cart"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/location"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/ordertype"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/session"
)

type testEnv struct {
	router   http.Handler
	cart     *cart.Store
	session  *session.Store
	location *location.Store
}

func newTestEnv(t *testing.T, backendURL string, nominatim *geocode.Nominatim) *testEnv {
	t.Helper()
	ctx := context.Background()

	sessionStore, err := session.New(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, sessionStore.SetCustomer(ctx, &domain.Customer{
		ID:    "cust-1",
		Phone: "+2250708091011",
		Address: &domain.Address{
			Title: "Maison", Address: "Cocody", Latitude: 5.36, Longitude: -3.99,
		},
	}))

	cartStore, err := cart.New(ctx, nil)
	require.NoError(t, err)
	locationStore, err := location.New(ctx, nil)
	require.NoError(t, err)
	orderTypeStore, err := ordertype.New(ctx, nil, nil)
	require.NoError(t, err)

	api := backend.New(backendURL, nil, nil)
	svc := checkout.NewService(api, cartStore, sessionStore, locationStore,
		orderTypeStore, nil, cache.NewMemory("test"), nil)
	flow := payment.NewFlow(api, nil, time.Millisecond, 3)

	handler := NewHandler(svc, cartStore, sessionStore, orderTypeStore,
		locationStore, flow, nominatim, nil, nil)
	return &testEnv{
		router:   NewRouter(handler),
		cart:     cartStore,
		session:  sessionStore,
		location: locationStore,
	}
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCartEndpoints(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:0", nil)

	rec := doJSON(t, env.router, http.MethodPost, "/cart/items", CartItemRequest{
		ID: "dish-1", Name: "Poulet braisé", Price: 5000, Quantity: 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Items, 1)
	assert.Equal(t, 10000.0, res.TotalAmount)

	rec = doJSON(t, env.router, http.MethodPatch, "/cart/items/dish-1", UpdateQuantityRequest{Quantity: 1})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 5000.0, res.TotalAmount)

	rec = doJSON(t, env.router, http.MethodDelete, "/cart/items/dish-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, env.cart.Len())
}

func TestCartRejectsInvalidItem(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:0", nil)

	rec := doJSON(t, env.router, http.MethodPost, "/cart/items", CartItemRequest{Price: -1})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var res ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "invalid_item", res.Error)
}

func TestCheckoutEmptyCartReturns400(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:0", nil)

	rec := doJSON(t, env.router, http.MethodPost, "/checkout", CheckoutRequest{Type: "DELIVERY"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var res ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "votre panier est vide", res.Message)
}

func TestCheckoutRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:0", nil)

	rec := doJSON(t, env.router, http.MethodPost, "/checkout", CheckoutRequest{Type: "DRIVE_THROUGH"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var res ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "invalid_order_type", res.Error)
}

func TestCheckoutCreatesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/orders", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "order-1", "status": "PENDING"})
	}))
	defer srv.Close()

	env := newTestEnv(t, srv.URL, nil)
	require.NoError(t, env.cart.Add(context.Background(),
		domain.CartItem{ID: "dish-1", Price: 5000, Quantity: 1}))

	rec := doJSON(t, env.router, http.MethodPost, "/checkout", CheckoutRequest{Type: "DELIVERY"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var res CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "order-1", res.OrderID)
	assert.NotEmpty(t, res.CheckoutID)
}

func TestPaymentThankYouResolvesFreePayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/paiements", r.URL.Path)
		assert.Equal(t, "tx-1", r.URL.Query().Get("reference"))
		assert.Equal(t, "true", r.URL.Query().Get("free"))
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"id": "pay-9", "status": "SUCCESS", "reference": "tx-1"},
		})
	}))
	defer srv.Close()

	env := newTestEnv(t, srv.URL, nil)

	rec := doJSON(t, env.router, http.MethodGet,
		"/payment/thank-you?status=success&transactionId=tx-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res PaymentCompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Succeeded)
	assert.Equal(t, "tx-1", res.TransactionID)
	assert.Equal(t, "pay-9", res.PaymentID, "the free payment id feeds the checkout request")
}

func TestPaymentThankYouFailureSkipsLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	env := newTestEnv(t, srv.URL, nil)

	rec := doJSON(t, env.router, http.MethodGet, "/payment/thank-you?status=failed", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res PaymentCompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Succeeded)
	assert.Empty(t, res.PaymentID)

	rec = doJSON(t, env.router, http.MethodGet, "/payment/thank-you", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBeginPaymentUsesCartTotalAndProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/paiements", r.URL.Path)
		var cp domain.CreatePayment
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cp))
		assert.Equal(t, 10000.0, cp.Amount)
		assert.Equal(t, "cust-1", cp.CustomerID)
		assert.Equal(t, "+2250708091011", cp.Phone)
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "pay-1", "status": "PENDING", "url": "https://pay.example.com/p/1",
		})
	}))
	defer srv.Close()

	env := newTestEnv(t, srv.URL, nil)
	require.NoError(t, env.cart.Add(context.Background(),
		domain.CartItem{ID: "dish-1", Price: 5000, Quantity: 2}))

	rec := doJSON(t, env.router, http.MethodPost, "/payment", PaymentRequest{
		MobileMoneyType: "WAVE", Phone: "07 08 09 10 11",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var p domain.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "pay-1", p.ID)
	assert.NotEmpty(t, p.URL)
}

func TestAwaitPaymentReturnsTerminalStatus(t *testing.T) {
	var polls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/paiements/pay-1", r.URL.Path)
		polls++
		status := "PENDING"
		if polls >= 2 {
			status = "SUCCESS"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "pay-1", "status": status})
	}))
	defer srv.Close()

	env := newTestEnv(t, srv.URL, nil)

	rec := doJSON(t, env.router, http.MethodGet, "/payment/pay-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var p domain.Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, domain.PaymentStatusSuccess, p.Status)
}

func TestCheckoutForwardsCallerIdempotencyKey(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/orders", r.URL.Path)
		keys = append(keys, r.Header.Get("X-Idempotency-Key"))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "order-1", "status": "PENDING"})
	}))
	defer srv.Close()

	env := newTestEnv(t, srv.URL, nil)

	send := func() *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(CheckoutRequest{Type: "DELIVERY"}))
		req := httptest.NewRequest(http.MethodPost, "/checkout", &buf)
		req.Header.Set("X-Idempotency-Key", "caller-key-1")
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	require.NoError(t, env.cart.Add(context.Background(),
		domain.CartItem{ID: "dish-1", Price: 5000, Quantity: 1}))
	rec := send()
	require.Equal(t, http.StatusCreated, rec.Code)

	var res CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "caller-key-1", res.CheckoutID)

	// A replayed request reaches the backend with the same key.
	require.NoError(t, env.cart.Add(context.Background(),
		domain.CartItem{ID: "dish-1", Price: 5000, Quantity: 1}))
	rec = send()
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"caller-key-1", "caller-key-1"}, keys)
}

func TestCheckoutConstructorErrorsReturn400(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	env := newTestEnv(t, srv.URL, nil)
	ctx := context.Background()
	require.NoError(t, env.cart.Add(ctx, domain.CartItem{ID: "dish-1", Price: 5000, Quantity: 1}))

	// A profile with no id fails the order constructor, not the backend.
	require.NoError(t, env.session.SetCustomer(ctx, &domain.Customer{
		ID:    "",
		Phone: "+2250708091011",
		Address: &domain.Address{
			Title: "Maison", Address: "Cocody", Latitude: 5.36, Longitude: -3.99,
		},
	}))

	rec := doJSON(t, env.router, http.MethodPost, "/checkout", CheckoutRequest{Type: "DELIVERY"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLocationLifecycle(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:0", nil)

	rec := doJSON(t, env.router, http.MethodGet, "/location", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, env.router, http.MethodPost, "/location", location.Selected{
		Latitude: 5.36, Longitude: -3.99, Formatted: "Cocody, Abidjan",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, env.router, http.MethodGet, "/location", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sel location.Selected
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sel))
	assert.Equal(t, "Cocody, Abidjan", sel.Formatted)

	rec = doJSON(t, env.router, http.MethodDelete, "/location", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, env.location.Selected())
}

func TestReverseGeocodeEndpoint(t *testing.T) {
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"display_name": "Cocody, Abidjan", "address": {"city": "Abidjan"}}`))
	}))
	defer geoSrv.Close()

	env := newTestEnv(t, "http://127.0.0.1:0", geocode.NewNominatim(geoSrv.URL, "test-agent"))

	rec := doJSON(t, env.router, http.MethodGet, "/location/reverse?lat=5.36&lon=-3.99", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var place geocode.Place
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &place))
	assert.Equal(t, "Cocody, Abidjan", place.DisplayName)

	rec = doJSON(t, env.router, http.MethodGet, "/location/reverse?lat=bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchUnavailableWithoutAPIKey(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:0", nil)

	rec := doJSON(t, env.router, http.MethodGet, "/location/search?q=Cocody", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
