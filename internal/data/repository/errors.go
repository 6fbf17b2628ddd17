package repository

import "errors"

// Sentinel errors returned by the stores. Callers branch with errors.Is
// instead of matching on error text.
var (
	// ErrSlotConflict means a non-cancelled booking already holds the
	// (doctor, date, slot, kind) tuple. Raised from the unique index, so
	// two concurrent inserts can never both succeed.
	ErrSlotConflict = errors.New("slot already booked")

	ErrBookingNotFound     = errors.New("booking not found")
	ErrInvalidTransition   = errors.New("invalid booking status transition")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrAlreadyTerminal     = errors.New("payment already in terminal status")
	ErrDuplicateIdemKey    = errors.New("duplicate idempotency key")
	ErrHospitalNotFound    = errors.New("hospital not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateWebhookID  = errors.New("webhook event already recorded")
	ErrWebhookEventMissing = errors.New("webhook event not found")
)
