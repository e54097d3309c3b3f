package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/m073med011/lms-api/internal/app/service/reconciliation"
	"github.com/m073med011/lms-api/internal/models"
	"github.com/m073med011/lms-api/pkg/types"
)

type stubEngine struct {
	lastWebhook *reconciliation.WebhookSignal
	lastConfirm *reconciliation.ConfirmSignal
	result      *models.Purchase
	err         error
	status      types.PurchaseStatus
}

func (s *stubEngine) HandleWebhook(_ context.Context, sig *reconciliation.WebhookSignal) (*models.Purchase, error) {
	s.lastWebhook = sig
	return s.result, s.err
}

func (s *stubEngine) HandleConfirm(_ context.Context, sig *reconciliation.ConfirmSignal) (*models.Purchase, error) {
	s.lastConfirm = sig
	return s.result, s.err
}

func (s *stubEngine) PurchaseStatus(_ context.Context, _ string) (types.PurchaseStatus, error) {
	return s.status, s.err
}

func paidPurchase() *models.Purchase {
	return &models.Purchase{ID: "purchase-1", TransactionID: "9001", Status: types.PurchaseStatusPaid}
}

func TestApiPaymentWebhook_ParsesNumericOrderID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	eng := &stubEngine{result: paidPurchase()}
	r := gin.New()
	r.POST("/api/v1/payment/webhook", ApiPaymentWebhook(eng, zap.NewNop().Sugar()))

	body := []byte(`{"type":"TRANSACTION","obj":{"success":true,"amount_cents":5000,"order":{"id":9001}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, eng.lastWebhook)
	require.Equal(t, "9001", eng.lastWebhook.TransactionID)
	require.True(t, eng.lastWebhook.Success)
	require.Equal(t, int64(5000), eng.lastWebhook.AmountCents)
	require.Contains(t, w.Body.String(), `"code":0`)
}

func TestApiPaymentWebhook_SkipsNonTransactionCallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	eng := &stubEngine{}
	r := gin.New()
	r.POST("/api/v1/payment/webhook", ApiPaymentWebhook(eng, zap.NewNop().Sugar()))

	body := []byte(`{"type":"TOKEN","obj":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, eng.lastWebhook)
	require.Contains(t, w.Body.String(), `"code":0`)
}

func TestApiConfirmPayment_ForwardsClientAssertion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	eng := &stubEngine{result: paidPurchase()}
	r := gin.New()
	r.POST("/api/v1/payment/confirm", ApiConfirmPayment(eng))

	body, _ := json.Marshal(map[string]any{"transaction_id": "9001", "success": true})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/confirm", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, eng.lastConfirm)
	require.Equal(t, "9001", eng.lastConfirm.TransactionID)
	require.True(t, eng.lastConfirm.ClientAssertedSuccess)
}

func TestApiConfirmPayment_UnverifiedReportsBadRequestCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	eng := &stubEngine{err: reconciliation.ErrVerificationFailed}
	r := gin.New()
	r.POST("/api/v1/payment/confirm", ApiConfirmPayment(eng))

	body, _ := json.Marshal(map[string]any{"transaction_id": "9001", "success": true})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/confirm", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"code":40000`)
}

func TestApiPurchaseStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	eng := &stubEngine{status: types.PurchaseStatusPending}
	r := gin.New()
	r.GET("/api/v1/purchases/:id/status", ApiPurchaseStatus(eng))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/purchases/purchase-1/status", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"Pending"`)
}
