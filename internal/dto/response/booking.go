package response

import (
	"time"

	"hospital-booking/internal/data/entity"
)

type BookingResponse struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	UserID       string    `json:"user_id"`
	DoctorID     string    `json:"doctor_id"`
	DoctorName   string    `json:"doctor_name,omitempty"`
	HospitalID   string    `json:"hospital_id"`
	HospitalName string    `json:"hospital_name,omitempty"`
	Date         string    `json:"date"`
	TimeSlot     string    `json:"time_slot,omitempty"`
	Specialty    *string   `json:"specialty,omitempty"`
	Reason       *string   `json:"reason,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:         b.ID.String(),
		Kind:       string(b.Kind),
		UserID:     b.UserID.String(),
		DoctorID:   b.DoctorID.String(),
		HospitalID: b.HospitalID.String(),
		Date:       b.Date.Format("2006-01-02"),
		TimeSlot:   b.TimeSlot,
		Specialty:  b.Specialty,
		Reason:     b.Reason,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
	}
}

type AvailableSlotsResponse struct {
	DoctorID       string   `json:"doctor_id"`
	DoctorName     string   `json:"doctor_name"`
	Date           string   `json:"date"`
	AvailableSlots []string `json:"available_slots"`
	BookedSlots    []string `json:"booked_slots"`
}
