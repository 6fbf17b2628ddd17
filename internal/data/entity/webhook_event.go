package entity

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is the dedup record for asynchronous gateway deliveries.
// A given provider event ID is applied at most once; Processed flips to true
// only after the payment and booking transitions have been applied.
type WebhookEvent struct {
	BaseSimple
	EventID           string     `db:"event_id"`
	EventType         string     `db:"event_type"`
	Gateway           string     `db:"gateway"`
	GatewayOrderID    *string    `db:"gateway_order_id"`
	GatewayPaymentID  *string    `db:"gateway_payment_id"`
	PaymentID         *uuid.UUID `db:"payment_id"`
	SignatureVerified bool       `db:"signature_verified"`
	Processed         bool       `db:"processed"`
	ProcessedAt       *time.Time `db:"processed_at"`
	ProcessingError   *string    `db:"processing_error"`
}
