package paymob

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/m073med011/lms-api/pkg/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Paymob: config.PaymobConfig{
			APIKey:         "key-123",
			IntegrationID:  "int-9",
			IframeID:       "777",
			BaseURL:        srv.URL,
			IframeBase:     "https://accept.paymob.com/api/acceptance/iframes",
			Currency:       "EGP",
			TimeoutSeconds: 2,
		},
	}
	return NewClient(cfg, zap.NewNop().Sugar()), srv
}

func TestAuthenticate_ReturnsToken(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/tokens", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "key-123", body["api_key"])
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "auth-token"})
	}))

	token, err := c.Authenticate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "auth-token", token)
}

func TestCreateOrder_NumericIDBecomesString(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ecommerce/orders", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(5000), body["amount_cents"])
		require.Equal(t, "EGP", body["currency"])
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 9001})
	}))

	orderID, err := c.CreateOrder(context.Background(), "auth-token", 5000, "course-1-1")
	require.NoError(t, err)
	require.Equal(t, "9001", orderID)
}

func TestCreateOrder_NonSuccessStatusIsGatewayError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.CreateOrder(context.Background(), "auth-token", 5000, "ref")
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, StageCreateOrder, gwErr.Stage)
}

func TestIssuePaymentKey_SendsIntegrationID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/acceptance/payment_keys", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "int-9", body["integration_id"])
		require.Equal(t, "9001", body["order_id"])
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "pay-key"})
	}))

	key, err := c.IssuePaymentKey(context.Background(), "auth-token", "9001", 5000, BillingDataFor("Jane Doe", "jane@example.com"))
	require.NoError(t, err)
	require.Equal(t, "pay-key", key)
}

func TestPaymentURL_Template(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := c.PaymentURL("pay-key")
	require.Equal(t, "https://accept.paymob.com/api/acceptance/iframes/777?payment_token=pay-key", url)
}

func TestOrderPaid_ChecksPaymentStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ecommerce/orders/9001", r.URL.Path)
		require.Equal(t, "Bearer auth-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 9001, "payment_status": "PAID"})
	}))

	paid, err := c.OrderPaid(context.Background(), "auth-token", "9001")
	require.NoError(t, err)
	require.True(t, paid)
}

func TestOrderPaid_UnpaidOrder(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 9001, "payment_status": "UNPAID"})
	}))

	paid, err := c.OrderPaid(context.Background(), "auth-token", "9001")
	require.NoError(t, err)
	require.False(t, paid)
}

func TestTimeout_SurfacesAsGatewayError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "late"})
	}))
	c.http.Timeout = 10 * time.Millisecond

	_, err := c.Authenticate(context.Background())
	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	require.Equal(t, StageAuthenticate, gwErr.Stage)
}

func TestBillingDataFor_SplitsName(t *testing.T) {
	b := BillingDataFor("Jane Doe", "jane@example.com")
	require.Equal(t, "Jane", b.FirstName)
	require.Equal(t, "Doe", b.LastName)

	single := BillingDataFor("Cher", "cher@example.com")
	require.Equal(t, "Cher", single.FirstName)
	require.Equal(t, "Cher", single.LastName)
}
