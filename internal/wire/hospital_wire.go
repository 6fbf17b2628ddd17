package wire

import (
	"hospital-booking/internal/adaptor"
	"hospital-booking/internal/data/repository"
	"hospital-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireHospital(
	r chi.Router,
	hospitalHandler *adaptor.HospitalHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/hospitals - Approved hospitals, optionally by city
	r.Get("/api/hospitals", hospitalHandler.List)

	// GET /api/hospitals/{id}/doctors - Active doctors of a hospital
	r.Get("/api/hospitals/{id}/doctors", hospitalHandler.ListDoctors)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/hospitals", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(repo.User, log))

		// PUT /api/admin/hospitals/{id}/status - Approve or reject onboarding
		r.Put("/{id}/status", hospitalHandler.UpdateStatus)

		// PUT /api/admin/hospitals/{id}/account - Link gateway payout account
		r.Put("/{id}/account", hospitalHandler.LinkAccount)
	})
}
