package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	razorpayBaseURL      = "https://api.razorpay.com/v1"
	razorpayReceiptLimit = 40
)

// razorpayGateway talks to the Razorpay REST API with basic auth. Webhook
// signatures are HMAC-SHA256 hex over the raw body with a dedicated webhook
// secret; split payouts use Route transfers.
type razorpayGateway struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	client        *http.Client
	lookupClient  *http.Client
	log           *zap.Logger
}

func newRazorpay(keyID, keySecret, webhookSecret string, log *zap.Logger) *razorpayGateway {
	return &razorpayGateway{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		baseURL:       razorpayBaseURL,
		client:        &http.Client{Timeout: 30 * time.Second},
		lookupClient:  &http.Client{Timeout: 15 * time.Second},
		log:           log.With(zap.String("gateway", "razorpay")),
	}
}

func (g *razorpayGateway) Name() string { return "razorpay" }

func (g *razorpayGateway) SignatureHeader() (string, string) {
	return "X-Razorpay-Signature", ""
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrGatewayRejected)
	}
	if g.keyID == "" || g.keySecret == "" {
		return nil, fmt.Errorf("%w: razorpay credentials not configured", ErrGatewayRejected)
	}

	payload := map[string]any{
		"amount":          toMinorUnits(req.Amount),
		"currency":        req.Currency,
		"receipt":         TruncateReceipt(req.Receipt, razorpayReceiptLimit),
		"payment_capture": 1,
		"notes":           req.Notes,
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := g.post(ctx, g.client, "/orders", payload, &resp); err != nil {
		return nil, err
	}

	return &Order{
		OrderID:  resp.ID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Gateway:  g.Name(),
		ClientConfig: map[string]string{
			"key_id":            g.keyID,
			"razorpay_order_id": resp.ID,
		},
	}, nil
}

func (g *razorpayGateway) VerifyWebhookSignature(rawBody []byte, signature string, _ map[string]string) bool {
	if g.webhookSecret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (g *razorpayGateway) ParseWebhookEvent(rawBody []byte) (*WebhookEvent, error) {
	var payload struct {
		ID      string `json:"id"`
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					ID               string `json:"id"`
					OrderID          string `json:"order_id"`
					Amount           int64  `json:"amount"`
					Currency         string `json:"currency"`
					ErrorDescription string `json:"error_description"`
				} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}

	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWebhook, err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("%w: missing event id", ErrMalformedWebhook)
	}

	eventType := EventUnknown
	switch payload.Event {
	case "payment.captured":
		eventType = EventPaymentCaptured
	case "payment.failed":
		eventType = EventPaymentFailed
	}

	entity := payload.Payload.Payment.Entity
	return &WebhookEvent{
		EventID:     payload.ID,
		Type:        eventType,
		RawType:     payload.Event,
		OrderID:     entity.OrderID,
		PaymentID:   entity.ID,
		AmountMinor: entity.Amount,
		Currency:    entity.Currency,
		Reason:      entity.ErrorDescription,
	}, nil
}

func (g *razorpayGateway) GetPaymentDetails(ctx context.Context, paymentID string) (*PaymentDetails, error) {
	if g.keyID == "" || g.keySecret == "" {
		return nil, fmt.Errorf("%w: razorpay credentials not configured", ErrGatewayRejected)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payments/"+paymentID, nil)
	if err != nil {
		return nil, fmt.Errorf("build payment lookup request: %w", err)
	}
	httpReq.SetBasicAuth(g.keyID, g.keySecret)

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

	var resp struct {
		ID       string `json:"id"`
		OrderID  string `json:"order_id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Status   string `json:"status"`
		Captured bool   `json:"captured"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode payment details: %w", err)
	}

	return &PaymentDetails{
		PaymentID:   resp.ID,
		OrderID:     resp.OrderID,
		AmountMinor: resp.Amount,
		Currency:    resp.Currency,
		Status:      resp.Status,
		Captured:    resp.Captured,
	}, nil
}

func (g *razorpayGateway) CreateRefund(ctx context.Context, paymentID string, amount float64, reason string) (*Refund, error) {
	if g.keyID == "" || g.keySecret == "" {
		return nil, fmt.Errorf("%w: razorpay credentials not configured", ErrGatewayRejected)
	}

	payload := map[string]any{
		"notes": map[string]string{"reason": reason},
	}
	if amount > 0 {
		payload["amount"] = toMinorUnits(amount)
	}

	var resp struct {
		ID     string `json:"id"`
		Amount int64  `json:"amount"`
		Status string `json:"status"`
	}
	if err := g.post(ctx, g.lookupClient, "/payments/"+paymentID+"/refund", payload, &resp); err != nil {
		return nil, err
	}

	return &Refund{
		RefundID:    resp.ID,
		PaymentID:   paymentID,
		AmountMinor: resp.Amount,
		Status:      resp.Status,
	}, nil
}

func (g *razorpayGateway) CreateTransfer(ctx context.Context, paymentID, accountID string, amountMinor int64, notes map[string]string) (*Transfer, error) {
	if g.keyID == "" || g.keySecret == "" {
		return nil, fmt.Errorf("%w: razorpay credentials not configured", ErrGatewayRejected)
	}

	payload := map[string]any{
		"transfers": []map[string]any{
			{
				"account":  accountID,
				"amount":   amountMinor,
				"currency": "INR",
				"notes":    notes,
			},
		},
	}

	var resp struct {
		Items []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"items"`
	}
	if err := g.post(ctx, g.lookupClient, "/payments/"+paymentID+"/transfers", payload, &resp); err != nil {
		return nil, err
	}

	transfer := &Transfer{
		AccountID:   accountID,
		AmountMinor: amountMinor,
	}
	if len(resp.Items) > 0 {
		transfer.TransferID = resp.Items[0].ID
		transfer.Status = resp.Items[0].Status
	}

	g.log.Info("Route transfer created",
		zap.String("transfer_id", transfer.TransferID),
		zap.String("account_id", accountID),
		zap.Int64("amount_minor", amountMinor),
	)

	return transfer, nil
}

func (g *razorpayGateway) post(ctx context.Context, client *http.Client, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.SetBasicAuth(g.keyID, g.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

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
