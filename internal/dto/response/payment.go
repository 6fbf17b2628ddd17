package response

import (
	"time"

	"hospital-booking/internal/data/entity"
)

// OrderResponse is returned from order creation; ClientConfig is the
// gateway-specific bundle the frontend needs to open the checkout.
type OrderResponse struct {
	PaymentID    string            `json:"payment_id"`
	OrderID      string            `json:"order_id"`
	Amount       float64           `json:"amount"`
	Currency     string            `json:"currency"`
	Gateway      string            `json:"gateway"`
	ClientConfig map[string]string `json:"gateway_config"`
}

type PaymentResponse struct {
	ID               string    `json:"id"`
	BookingKind      *string   `json:"booking_kind,omitempty"`
	BookingID        *string   `json:"booking_id,omitempty"`
	Amount           float64   `json:"amount"`
	Currency         string    `json:"currency"`
	Gateway          string    `json:"gateway"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayPaymentID *string   `json:"gateway_payment_id,omitempty"`
	Status           string    `json:"status"`
	FailureReason    *string   `json:"failure_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func PaymentToResponse(p *entity.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:               p.ID.String(),
		Amount:           p.Amount,
		Currency:         p.Currency,
		Gateway:          p.Gateway,
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		Status:           string(p.Status),
		FailureReason:    p.FailureReason,
		CreatedAt:        p.CreatedAt,
	}

	if p.BookingKind != nil {
		kind := string(*p.BookingKind)
		resp.BookingKind = &kind
	}
	if p.BookingID != nil {
		id := p.BookingID.String()
		resp.BookingID = &id
	}

	return resp
}

type WebhookAckResponse struct {
	Status string `json:"status"`
}

type GatewayInfoResponse struct {
	Gateway string `json:"gateway"`
}
