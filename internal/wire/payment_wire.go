package wire

import (
	"hospital-booking/internal/adaptor"
	"hospital-booking/internal/data/repository"
	"hospital-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// POST /api/payments/create-order - Open a gateway order for a booking
		r.Post("/api/payments/create-order", paymentHandler.CreateOrder)

		// GET /api/payments/my-payments - Caller's payment history
		r.Get("/api/payments/my-payments", paymentHandler.GetMyPayments)
	})

	// ==================== PUBLIC ROUTES ====================
	// POST /api/payments/create-order-guest - Order for a guest booking
	r.Post("/api/payments/create-order-guest", paymentHandler.CreateGuestOrder)

	// POST /api/payments/create-order-hospital - Hospital registration fee
	r.Post("/api/payments/create-order-hospital", paymentHandler.CreateHospitalOrder)

	// POST /api/payments/webhook - Gateway callback, signature-gated
	r.Post("/api/payments/webhook", paymentHandler.Webhook)

	// GET /api/payments/gateway-info - Which provider the frontend should load
	r.Get("/api/payments/gateway-info", paymentHandler.GatewayInfo)
}
