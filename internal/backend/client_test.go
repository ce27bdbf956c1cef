package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
)

func testDeliveryOrder(t *testing.T) domain.CreateOrder {
	t.Helper()
	co, err := domain.NewDeliveryOrder("cust-1", "+2250708091011",
		[]domain.OrderItem{{DishID: "dish-1", Quantity: 1}},
		&domain.Address{Title: "Maison", Address: "Cocody", Latitude: 5.36, Longitude: -3.99})
	require.NoError(t, err)
	return co
}

type fakeTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
}

func (f *fakeTokens) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access
}

func (f *fakeTokens) RefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh
}

func (f *fakeTokens) UpdateTokens(_ context.Context, access, refresh string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access, f.refresh = access, refresh
}

func TestUnauthorizedTriggersSingleRefreshAndReplay(t *testing.T) {
	var refreshCalls, orderCalls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/refresh-token":
			refreshCalls++
			assert.Equal(t, "Bearer refresh-1", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]string{
				"accessToken":  "access-2",
				"refreshToken": "refresh-2",
			})
		case "/v1/orders/customer":
			orderCalls++
			if r.Header.Get("Authorization") != "Bearer access-2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	tokens := &fakeTokens{access: "access-1", refresh: "refresh-1"}
	c := New(srv.URL, tokens, nil)

	_, err := c.CustomerOrders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, refreshCalls)
	assert.Equal(t, 2, orderCalls, "original call plus one replay")
	assert.Equal(t, "access-2", tokens.AccessToken())
	assert.Equal(t, "refresh-2", tokens.RefreshToken())
}

func TestUnauthorizedReplayedAtMostOnce(t *testing.T) {
	var orderCalls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/refresh-token":
			_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "access-2"})
		case "/v1/orders/customer":
			orderCalls++
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	tokens := &fakeTokens{access: "access-1", refresh: "refresh-1"}
	c := New(srv.URL, tokens, nil)

	_, err := c.CustomerOrders(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, 2, orderCalls, "no replay loop after a failed replay")
}

func TestNoRefreshWithoutRefreshToken(t *testing.T) {
	var refreshCalls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/auth/refresh-token" {
			refreshCalls++
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, &fakeTokens{access: "access-1"}, nil)
	_, err := c.CustomerOrders(context.Background())

	require.Error(t, err)
	assert.Equal(t, 0, refreshCalls)
}

func TestAPIErrorCarriesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "invalid_request",
			"message": "numéro de téléphone invalide",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	err := c.Login(context.Background(), "+2250708091011")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid_request", apiErr.Code)
	assert.Equal(t, "numéro de téléphone invalide", apiErr.Message)
	assert.Equal(t, "numéro de téléphone invalide", apiErr.Error())
}

func TestCreateOrderSendsIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("X-Idempotency-Key"))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "order-1"})
	}))
	defer srv.Close()

	c := New(srv.URL, &fakeTokens{access: "a"}, nil)
	o, err := c.CreateOrder(context.Background(), testDeliveryOrder(t), "key-123")
	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
}
