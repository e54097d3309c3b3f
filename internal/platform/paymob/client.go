package paymob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/m073med011/lms-api/pkg/config"
)

// Stage identifies which gateway round trip failed.
type Stage string

const (
	StageAuthenticate Stage = "authenticate"
	StageCreateOrder  Stage = "create_order"
	StagePaymentKey   Stage = "payment_key"
	StageOrderInquiry Stage = "order_inquiry"
)

// GatewayError wraps any network or third-party fault from the payment
// gateway. The client never retries; retry policy belongs to callers.
type GatewayError struct {
	Stage Stage
	Err   error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("paymob %s failed: %v", e.Stage, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// BillingData is the payer information required by the payment-key call.
// Fields the marketplace does not collect are sent as "NA", matching what
// the gateway accepts for digital goods.
type BillingData struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone_number"`
	Street    string `json:"street"`
	City      string `json:"city"`
	Country   string `json:"country"`
	State     string `json:"state"`
}

// BillingDataFor fills billing data from a user's name and email.
func BillingDataFor(name, email string) BillingData {
	first, last := name, name
	if parts := strings.SplitN(name, " ", 2); len(parts) == 2 {
		first, last = parts[0], parts[1]
	}
	return BillingData{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Phone:     "NA",
		Street:    "NA",
		City:      "NA",
		Country:   "EG",
		State:     "NA",
	}
}

// Client is a stateless adapter over the Paymob Accept REST API. A single
// value is injected wherever gateway access is needed; it holds no session
// state beyond configuration and the HTTP client.
type Client struct {
	cfg  *config.PaymobConfig
	http *http.Client
	log  *zap.SugaredLogger
}

func NewClient(cfg *config.Config, log *zap.SugaredLogger) *Client {
	return &Client{
		cfg:  &cfg.Paymob,
		http: &http.Client{Timeout: cfg.Paymob.Timeout()},
		log:  log,
	}
}

type authRequest struct {
	APIKey string `json:"api_key"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges the merchant API key for a short-lived auth token.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	var resp authResponse
	if err := c.post(ctx, StageAuthenticate, "/auth/tokens", authRequest{APIKey: c.cfg.APIKey}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &GatewayError{Stage: StageAuthenticate, Err: fmt.Errorf("empty token in response")}
	}
	return resp.Token, nil
}

type createOrderRequest struct {
	AuthToken       string `json:"auth_token"`
	DeliveryNeeded  bool   `json:"delivery_needed"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
	MerchantOrderID string `json:"merchant_order_id"`
}

type createOrderResponse struct {
	ID json.Number `json:"id"`
}

// CreateOrder registers a remote order for the given minor-unit amount and
// returns the gateway-issued order id, which becomes the purchase's
// transaction id.
func (c *Client) CreateOrder(ctx context.Context, token string, amountCents int64, merchantOrderID string) (string, error) {
	req := createOrderRequest{
		AuthToken:       token,
		AmountCents:     amountCents,
		Currency:        c.cfg.Currency,
		MerchantOrderID: merchantOrderID,
	}
	var resp createOrderResponse
	if err := c.post(ctx, StageCreateOrder, "/ecommerce/orders", req, &resp); err != nil {
		return "", err
	}
	if resp.ID.String() == "" {
		return "", &GatewayError{Stage: StageCreateOrder, Err: fmt.Errorf("empty order id in response")}
	}
	return resp.ID.String(), nil
}

type paymentKeyRequest struct {
	AuthToken     string      `json:"auth_token"`
	AmountCents   int64       `json:"amount_cents"`
	Expiration    int         `json:"expiration"`
	OrderID       string      `json:"order_id"`
	Currency      string      `json:"currency"`
	IntegrationID string      `json:"integration_id"`
	BillingData   BillingData `json:"billing_data"`
}

type paymentKeyResponse struct {
	Token string `json:"token"`
}

// IssuePaymentKey obtains the payment token that parameterizes the hosted
// payment page for one order.
func (c *Client) IssuePaymentKey(ctx context.Context, token, orderID string, amountCents int64, billing BillingData) (string, error) {
	req := paymentKeyRequest{
		AuthToken:     token,
		AmountCents:   amountCents,
		Expiration:    3600,
		OrderID:       orderID,
		Currency:      c.cfg.Currency,
		IntegrationID: c.cfg.IntegrationID,
		BillingData:   billing,
	}
	var resp paymentKeyResponse
	if err := c.post(ctx, StagePaymentKey, "/acceptance/payment_keys", req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &GatewayError{Stage: StagePaymentKey, Err: fmt.Errorf("empty payment token in response")}
	}
	return resp.Token, nil
}

// PaymentURL builds the hosted payment page URL for a payment token.
func (c *Client) PaymentURL(paymentToken string) string {
	return fmt.Sprintf("%s/%s?payment_token=%s", c.cfg.IframeBase, c.cfg.IframeID, paymentToken)
}

type orderInquiryResponse struct {
	ID            json.Number `json:"id"`
	PaymentStatus string      `json:"payment_status"`
}

// OrderPaid asks the gateway for the authoritative payment status of an
// order. Client-asserted confirmations are only trusted when this reports
// the order as paid.
func (c *Client) OrderPaid(ctx context.Context, token, orderID string) (bool, error) {
	url := fmt.Sprintf("%s/ecommerce/orders/%s", c.cfg.BaseURL, orderID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, &GatewayError{Stage: StageOrderInquiry, Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return false, &GatewayError{Stage: StageOrderInquiry, Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return false, &GatewayError{Stage: StageOrderInquiry, Err: fmt.Errorf("unexpected status %d", httpResp.StatusCode)}
	}
	var resp orderInquiryResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return false, &GatewayError{Stage: StageOrderInquiry, Err: fmt.Errorf("malformed body: %w", err)}
	}
	return strings.EqualFold(resp.PaymentStatus, "PAID"), nil
}

func (c *Client) post(ctx context.Context, stage Stage, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &GatewayError{Stage: stage, Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &GatewayError{Stage: stage, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return &GatewayError{Stage: stage, Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return &GatewayError{Stage: stage, Err: fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, snippet)}
	}
	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return &GatewayError{Stage: stage, Err: fmt.Errorf("malformed body: %w", err)}
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
