package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/backend"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
)

func TestParseCompletion(t *testing.T) {
	c, err := ParseCompletion("https://pay.example.com/payment/thank-you?status=success&transactionId=tx-42")
	require.NoError(t, err)
	assert.Equal(t, "success", c.Status)
	assert.Equal(t, "tx-42", c.TransactionID)
	assert.True(t, c.Succeeded())
}

func TestParseCompletionFailureStatus(t *testing.T) {
	c, err := ParseCompletion("https://pay.example.com/payment/thank-you?status=failed&transactionId=tx-43")
	require.NoError(t, err)
	assert.False(t, c.Succeeded())
}

func TestParseCompletionIgnoresOtherURLs(t *testing.T) {
	for _, raw := range []string{
		"https://pay.example.com/checkout/step2",
		"https://pay.example.com/payment/thank-you", // no status param
	} {
		_, err := ParseCompletion(raw)
		assert.ErrorIs(t, err, ErrNotCompletion, "url %s", raw)
	}
}

func TestParseMessage(t *testing.T) {
	c, err := ParseMessage([]byte(`{"status":"SUCCESS","transactionId":"tx-7"}`))
	require.NoError(t, err)
	assert.True(t, c.Succeeded())
	assert.Equal(t, "tx-7", c.TransactionID)

	_, err = ParseMessage([]byte(`{"foo":"bar"}`))
	assert.ErrorIs(t, err, ErrNotCompletion)
}

func TestBeginNormalisesPhone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/paiements", r.URL.Path)
		var cp domain.CreatePayment
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cp))
		assert.Equal(t, "+2250708091011", cp.Phone)
		assert.Equal(t, domain.MobileMoneyWave, cp.MobileMoneyType)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "pay-1", "status": "PENDING", "url": "https://pay.example.com/p/1",
		})
	}))
	defer srv.Close()

	f := NewFlow(backend.New(srv.URL, nil, nil), nil, time.Millisecond, 3)
	p, err := f.Begin(context.Background(), 5000, domain.MobileMoneyWave, "07 08 09 10 11", "cust-1", "key-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", p.ID)
	assert.NotEmpty(t, p.URL)
}

func TestBeginRejectsUnknownWallet(t *testing.T) {
	f := NewFlow(backend.New("http://127.0.0.1:0", nil, nil), nil, time.Millisecond, 1)
	_, err := f.Begin(context.Background(), 5000, domain.MobileMoneyType("PAYPAL"), "0708091011", "cust-1", "")
	require.Error(t, err)
}

func TestWaitForCompletionStopsOnTerminalStatus(t *testing.T) {
	var polls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		status := "PENDING"
		if polls >= 2 {
			status = "SUCCESS"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "pay-1", "status": status})
	}))
	defer srv.Close()

	f := NewFlow(backend.New(srv.URL, nil, nil), nil, time.Millisecond, 10)
	p, err := f.WaitForCompletion(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSuccess, p.Status)
	assert.Equal(t, 2, polls)
}

func TestWaitForCompletionTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "pay-1", "status": "PENDING"})
	}))
	defer srv.Close()

	f := NewFlow(backend.New(srv.URL, nil, nil), nil, time.Millisecond, 3)
	_, err := f.WaitForCompletion(context.Background(), "pay-1")
	assert.ErrorIs(t, err, ErrTimedOut)
}

func TestWaitForCompletionHonoursCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "pay-1", "status": "PENDING"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFlow(backend.New(srv.URL, nil, nil), nil, time.Second, 10)
	_, err := f.WaitForCompletion(ctx, "pay-1")
	assert.ErrorIs(t, err, context.Canceled)
}
