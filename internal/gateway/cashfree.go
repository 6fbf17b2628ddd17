package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	cashfreeAPIVersion   = "2023-08-01"
	cashfreeProdBaseURL  = "https://api.cashfree.com/pg"
	cashfreeTestBaseURL  = "https://sandbox.cashfree.com/pg"
	cashfreeReceiptLimit = 45
)

// cashfreeGateway talks to the Cashfree PG REST API. Webhook signatures are
// base64(HMAC-SHA256(timestamp + rawBody)) with the client secret, the
// timestamp arriving in a separate header. Vendor splits on Cashfree happen
// at order-creation time, so post-capture transfers are unsupported.
type cashfreeGateway struct {
	clientID     string
	clientSecret string
	environment  string
	baseURL      string
	client       *http.Client
	lookupClient *http.Client
	log          *zap.Logger
}

func newCashfree(clientID, clientSecret, environment string, log *zap.Logger) *cashfreeGateway {
	baseURL := cashfreeTestBaseURL
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(environment)), "prod") {
		baseURL = cashfreeProdBaseURL
	}

	return &cashfreeGateway{
		clientID:     clientID,
		clientSecret: clientSecret,
		environment:  environment,
		baseURL:      baseURL,
		client:       &http.Client{Timeout: 30 * time.Second},
		lookupClient: &http.Client{Timeout: 15 * time.Second},
		log:          log.With(zap.String("gateway", "cashfree")),
	}
}

func (g *cashfreeGateway) Name() string { return "cashfree" }

func (g *cashfreeGateway) SignatureHeader() (string, string) {
	return "X-Webhook-Signature", "X-Webhook-Timestamp"
}

func (g *cashfreeGateway) headers(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", g.clientID)
	req.Header.Set("x-client-secret", g.clientSecret)
	req.Header.Set("x-api-version", cashfreeAPIVersion)
}

func (g *cashfreeGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrGatewayRejected)
	}
	if g.clientID == "" || g.clientSecret == "" {
		return nil, fmt.Errorf("%w: cashfree credentials not configured", ErrGatewayRejected)
	}

	orderID := TruncateReceipt(req.Receipt, cashfreeReceiptLimit)

	customerPhone := req.CustomerPhone
	if customerPhone == "" {
		customerPhone = "9999999999"
	}

	customer := map[string]string{
		"customer_id":    "cust_" + orderID,
		"customer_phone": customerPhone,
	}
	if req.CustomerName != "" {
		customer["customer_name"] = req.CustomerName
	}
	if req.CustomerEmail != "" {
		customer["customer_email"] = req.CustomerEmail
	}

	payload := map[string]any{
		"order_id":         orderID,
		"order_amount":     req.Amount,
		"order_currency":   req.Currency,
		"customer_details": customer,
	}
	if len(req.Notes) > 0 {
		payload["order_tags"] = req.Notes
	}

	var resp struct {
		OrderID          string `json:"order_id"`
		CFOrderID        string `json:"cf_order_id"`
		PaymentSessionID string `json:"payment_session_id"`
	}
	if err := g.post(ctx, g.client, "/orders", payload, &resp); err != nil {
		return nil, err
	}

	if resp.OrderID == "" {
		resp.OrderID = orderID
	}

	return &Order{
		OrderID:  resp.OrderID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Gateway:  g.Name(),
		ClientConfig: map[string]string{
			"payment_session_id": resp.PaymentSessionID,
			"cf_order_id":        resp.CFOrderID,
			"order_id":           resp.OrderID,
			"environment":        g.environment,
		},
	}, nil
}

func (g *cashfreeGateway) VerifyWebhookSignature(rawBody []byte, signature string, headers map[string]string) bool {
	if g.clientSecret == "" || signature == "" {
		return false
	}

	timestamp := ""
	for name, value := range headers {
		if strings.EqualFold(name, "X-Webhook-Timestamp") {
			timestamp = value
		}
	}

	mac := hmac.New(sha256.New, []byte(g.clientSecret))
	mac.Write([]byte(timestamp))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (g *cashfreeGateway) ParseWebhookEvent(rawBody []byte) (*WebhookEvent, error) {
	var payload struct {
		Type      string `json:"type"`
		EventTime string `json:"event_time"`
		Data      struct {
			Order struct {
				OrderID       string  `json:"order_id"`
				OrderAmount   float64 `json:"order_amount"`
				OrderCurrency string  `json:"order_currency"`
			} `json:"order"`
			Payment struct {
				CFPaymentID   json.Number `json:"cf_payment_id"`
				PaymentAmount float64     `json:"payment_amount"`
				ErrorReason   string      `json:"payment_message"`
			} `json:"payment"`
		} `json:"data"`
	}

	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWebhook, err)
	}
	if payload.Type == "" || payload.Data.Order.OrderID == "" {
		return nil, fmt.Errorf("%w: missing type or order id", ErrMalformedWebhook)
	}

	eventType := EventUnknown
	switch payload.Type {
	case "PAYMENT_SUCCESS_WEBHOOK":
		eventType = EventPaymentCaptured
	case "PAYMENT_FAILED_WEBHOOK":
		eventType = EventPaymentFailed
	}

	amount := payload.Data.Payment.PaymentAmount
	if amount == 0 {
		amount = payload.Data.Order.OrderAmount
	}

	// Cashfree has no top-level event id; the payment id plus event type is
	// unique per delivery.
	eventID := fmt.Sprintf("cf_%s_%s", payload.Data.Payment.CFPaymentID.String(), payload.Type)

	return &WebhookEvent{
		EventID:     eventID,
		Type:        eventType,
		RawType:     payload.Type,
		OrderID:     payload.Data.Order.OrderID,
		PaymentID:   payload.Data.Payment.CFPaymentID.String(),
		AmountMinor: toMinorUnits(amount),
		Currency:    payload.Data.Order.OrderCurrency,
		Reason:      payload.Data.Payment.ErrorReason,
	}, nil
}

func (g *cashfreeGateway) GetPaymentDetails(ctx context.Context, paymentID string) (*PaymentDetails, error) {
	if g.clientID == "" || g.clientSecret == "" {
		return nil, fmt.Errorf("%w: cashfree credentials not configured", ErrGatewayRejected)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/orders/"+paymentID+"/payments", nil)
	if err != nil {
		return nil, fmt.Errorf("build payment lookup request: %w", err)
	}
	g.headers(httpReq)

	httpResp, err := g.lookupClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode == http.StatusNotFound:
		return nil, ErrPaymentNotFound
	case httpResp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, httpResp.StatusCode)
	case httpResp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrGatewayRejected, httpResp.StatusCode)
	}

	var payments []struct {
		CFPaymentID   json.Number `json:"cf_payment_id"`
		OrderID       string      `json:"order_id"`
		PaymentAmount float64     `json:"payment_amount"`
		Currency      string      `json:"payment_currency"`
		Status        string      `json:"payment_status"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&payments); err != nil {
		return nil, fmt.Errorf("decode payment details: %w", err)
	}
	if len(payments) == 0 {
		return nil, ErrPaymentNotFound
	}

	p := payments[0]
	return &PaymentDetails{
		PaymentID:   p.CFPaymentID.String(),
		OrderID:     p.OrderID,
		AmountMinor: toMinorUnits(p.PaymentAmount),
		Currency:    p.Currency,
		Status:      p.Status,
		Captured:    p.Status == "SUCCESS",
	}, nil
}

func (g *cashfreeGateway) CreateRefund(ctx context.Context, paymentID string, amount float64, reason string) (*Refund, error) {
	if g.clientID == "" || g.clientSecret == "" {
		return nil, fmt.Errorf("%w: cashfree credentials not configured", ErrGatewayRejected)
	}

	payload := map[string]any{
		"refund_id":     fmt.Sprintf("refund_%d", time.Now().Unix()),
		"refund_amount": amount,
		"refund_note":   reason,
	}

	var resp struct {
		RefundID     string  `json:"refund_id"`
		RefundAmount float64 `json:"refund_amount"`
		RefundStatus string  `json:"refund_status"`
	}
	if err := g.post(ctx, g.lookupClient, "/orders/"+paymentID+"/refunds", payload, &resp); err != nil {
		return nil, err
	}

	return &Refund{
		RefundID:    resp.RefundID,
		PaymentID:   paymentID,
		AmountMinor: toMinorUnits(resp.RefundAmount),
		Status:      resp.RefundStatus,
	}, nil
}

// CreateTransfer is not available post-capture on Cashfree: vendor splits
// are declared when the order is created. The limitation is logged and
// surfaced as ErrTransferUnsupported so the reconciler can skip the split
// without treating it as a failure of the payment itself.
func (g *cashfreeGateway) CreateTransfer(_ context.Context, paymentID, accountID string, amountMinor int64, _ map[string]string) (*Transfer, error) {
	g.log.Warn("Post-capture transfer not supported, skipping split",
		zap.String("payment_id", paymentID),
		zap.String("account_id", accountID),
		zap.Int64("amount_minor", amountMinor),
	)
	return nil, ErrTransferUnsupported
}

func (g *cashfreeGateway) post(ctx context.Context, client *http.Client, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	g.headers(httpReq)

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrGatewayUnavailable, httpResp.StatusCode)
	case httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusCreated:
		return fmt.Errorf("%w: status %d", ErrGatewayRejected, httpResp.StatusCode)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
