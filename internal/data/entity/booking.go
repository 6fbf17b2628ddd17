package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingKind string

const (
	BookingKindAppointment BookingKind = "appointment"
	BookingKindOperation   BookingKind = "operation"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// Booking covers both appointments and operations. Appointments carry a
// discrete time slot; operations are booked per day, so TimeSlot stays empty.
type Booking struct {
	Base
	Kind       BookingKind   `db:"kind"`
	UserID     uuid.UUID     `db:"user_id"`
	DoctorID   uuid.UUID     `db:"doctor_id"`
	HospitalID uuid.UUID     `db:"hospital_id"`
	Date       time.Time     `db:"date"`
	TimeSlot   string        `db:"time_slot"`
	Specialty  *string       `db:"specialty"`
	Reason     *string       `db:"reason"`
	Status     BookingStatus `db:"status"`
}
