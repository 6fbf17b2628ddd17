package entity

import (
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsTerminal reports whether the payment can no longer change status.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// Payment links a gateway order to an optional booking. IdempotencyKey is
// the internal dedup token for client retries; GatewayOrderID is assigned
// after the order is created on the provider side.
type Payment struct {
	Base
	UserID           *uuid.UUID    `db:"user_id"`
	BookingKind      *BookingKind  `db:"booking_kind"`
	BookingID        *uuid.UUID    `db:"booking_id"`
	Amount           float64       `db:"amount"`
	Currency         string        `db:"currency"`
	Gateway          string        `db:"gateway"`
	IdempotencyKey   string        `db:"idempotency_key"`
	GatewayOrderID   string        `db:"gateway_order_id"`
	GatewayPaymentID *string       `db:"gateway_payment_id"`
	Status           PaymentStatus `db:"status"`
	FailureReason    *string       `db:"failure_reason"`
	Metadata         *string       `db:"metadata"`
}
