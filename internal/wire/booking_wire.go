package wire

import (
	"hospital-booking/internal/adaptor"
	"hospital-booking/internal/data/repository"
	"hospital-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// POST /api/appointments - Book an appointment slot
		r.Post("/api/appointments", bookingHandler.CreateAppointment)

		// GET /api/appointments/my - Caller's appointment history
		r.Get("/api/appointments/my", bookingHandler.GetMyAppointments)

		// PUT /api/appointments/{id}/status - Confirm/cancel/complete
		r.Put("/api/appointments/{id}/status", bookingHandler.UpdateAppointmentStatus)

		// POST /api/operations - Book an operation date
		r.Post("/api/operations", bookingHandler.CreateOperation)

		// GET /api/operations/my - Caller's operation history
		r.Get("/api/operations/my", bookingHandler.GetMyOperations)

		// PUT /api/operations/{id}/status - Confirm/cancel/complete
		r.Put("/api/operations/{id}/status", bookingHandler.UpdateOperationStatus)
	})

	// ==================== PUBLIC ROUTES ====================
	// POST /api/appointments/guest - Book without an account
	r.Post("/api/appointments/guest", bookingHandler.CreateGuestAppointment)

	// GET /api/doctors/{id}/slots - Slot availability for a date
	r.Get("/api/doctors/{id}/slots", bookingHandler.GetAvailableSlots)
}
