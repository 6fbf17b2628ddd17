package usecase

import (
	"context"

	"hospital-booking/internal/data/entity"

	"go.uber.org/zap"
)

// Notifier is the seam to the external notification service (WhatsApp,
// email). Calls are fire-and-forget: a delivery failure never affects
// payment or booking state.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *entity.Booking, payment *entity.Payment)
}

type logNotifier struct {
	log *zap.Logger
}

// NewLogNotifier returns a Notifier that only records the event; delivery
// belongs to the external service.
func NewLogNotifier(log *zap.Logger) Notifier {
	return &logNotifier{log: log.With(zap.String("service", "notify"))}
}

func (n *logNotifier) BookingConfirmed(_ context.Context, booking *entity.Booking, payment *entity.Payment) {
	n.log.Info("Booking confirmed notification queued",
		zap.String("booking_id", booking.ID.String()),
		zap.String("kind", string(booking.Kind)),
		zap.String("payment_id", payment.ID.String()),
	)
}
