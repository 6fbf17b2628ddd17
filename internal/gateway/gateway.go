package gateway

import (
	"context"
	"errors"
)

// Gateway is the uniform contract over payment providers. Business logic
// never branches on the provider identity; the only provider-specific
// knowledge callers need is which headers carry the webhook signature,
// exposed through SignatureHeader.
type Gateway interface {
	Name() string

	// CreateOrder registers a payment order with the provider. Amount is in
	// major currency units; the implementation converts to the provider's
	// minor-unit representation.
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)

	// VerifyWebhookSignature checks the keyed hash over the raw body (plus
	// provider-specific extras such as a timestamp header) in constant time.
	// It returns false, never an error, on a missing secret or malformed
	// signature; callers treat false as reject.
	VerifyWebhookSignature(rawBody []byte, signature string, headers map[string]string) bool

	// SignatureHeader returns the header names carrying the webhook
	// signature and, when the provider uses one, the timestamp.
	SignatureHeader() (sigHeader, timestampHeader string)

	// ParseWebhookEvent normalizes a raw webhook body into a provider-neutral
	// event so the reconciler never touches provider payload shapes.
	ParseWebhookEvent(rawBody []byte) (*WebhookEvent, error)

	// GetPaymentDetails fetches the provider's authoritative record for a
	// payment, used to cross-verify webhook claims.
	GetPaymentDetails(ctx context.Context, paymentID string) (*PaymentDetails, error)

	CreateRefund(ctx context.Context, paymentID string, amount float64, reason string) (*Refund, error)

	// CreateTransfer moves amountMinor (minor units) of a captured payment
	// to a linked sub-account. Providers that only split at order-creation
	// time return ErrTransferUnsupported.
	CreateTransfer(ctx context.Context, paymentID, accountID string, amountMinor int64, notes map[string]string) (*Transfer, error)
}

var (
	// ErrGatewayUnavailable covers transport failures and provider 5xx
	// responses; the operation may be retried.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrGatewayRejected covers provider 4xx responses and local validation
	// failures (non-positive amount, missing credentials); retrying the
	// identical request will not help.
	ErrGatewayRejected = errors.New("payment gateway rejected request")

	ErrPaymentNotFound    = errors.New("payment not found at gateway")
	ErrTransferUnsupported = errors.New("gateway does not support post-capture transfers")
	ErrMalformedWebhook   = errors.New("malformed webhook payload")
)

type OrderRequest struct {
	Amount        float64
	Currency      string
	Receipt       string
	Notes         map[string]string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
}

// Order is the provider's view of a created order. ClientConfig carries the
// provider-specific keys the frontend needs to open the checkout.
type Order struct {
	OrderID      string
	Amount       float64
	Currency     string
	Gateway      string
	ClientConfig map[string]string
}

// Event types normalized across providers.
type EventType string

const (
	EventPaymentCaptured EventType = "payment.captured"
	EventPaymentFailed   EventType = "payment.failed"
	EventUnknown         EventType = "unknown"
)

// WebhookEvent is the provider-neutral shape of an inbound delivery.
type WebhookEvent struct {
	EventID     string
	Type        EventType
	RawType     string
	OrderID     string
	PaymentID   string
	AmountMinor int64
	Currency    string
	Reason      string
}

type PaymentDetails struct {
	PaymentID   string
	OrderID     string
	AmountMinor int64
	Currency    string
	Status      string
	Captured    bool
}

type Refund struct {
	RefundID    string
	PaymentID   string
	AmountMinor int64
	Status      string
}

type Transfer struct {
	TransferID  string
	AccountID   string
	AmountMinor int64
	Status      string
}

// toMinorUnits converts a major-unit amount to the smallest currency unit
// (paise for INR). Rounding guards against float drift on exact values.
func toMinorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}
