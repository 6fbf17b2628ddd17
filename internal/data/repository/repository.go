package repository

import (
	"hospital-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User         UserRepository
	Session      SessionRepository
	Hospital     HospitalRepository
	Doctor       DoctorRepository
	Booking      BookingRepository
	Payment      PaymentRepository
	WebhookEvent WebhookEventRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(db, log),
		Session:      NewSessionRepository(db, log),
		Hospital:     NewHospitalRepository(db, log),
		Doctor:       NewDoctorRepository(db, log),
		Booking:      NewBookingRepository(db, log),
		Payment:      NewPaymentRepository(db, log),
		WebhookEvent: NewWebhookEventRepository(db, log),
	}
}
