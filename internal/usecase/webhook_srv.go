package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hospital-booking/internal/data/entity"
	"hospital-booking/internal/data/repository"
	"hospital-booking/internal/dto/response"
	"hospital-booking/internal/gateway"
	"hospital-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WebhookService interface {
	// Process reconciles one inbound gateway delivery. A bad signature is
	// the only rejection; everything after that point is acknowledged so
	// the provider stops retrying, with anomalies recorded on the event row.
	Process(ctx context.Context, rawBody []byte, headers map[string]string) (*response.WebhookAckResponse, error)
}

type webhookService struct {
	repo     *repository.Repository
	gw       gateway.Gateway
	cfg      utils.GatewayConfig
	notifier Notifier
	log      *zap.Logger
}

func NewWebhookService(repo *repository.Repository, gw gateway.Gateway, cfg utils.GatewayConfig, notifier Notifier, log *zap.Logger) WebhookService {
	return &webhookService{
		repo:     repo,
		gw:       gw,
		cfg:      cfg,
		notifier: notifier,
		log:      log.With(zap.String("service", "webhook")),
	}
}

var ackOK = &response.WebhookAckResponse{Status: "ok"}
var ackError = &response.WebhookAckResponse{Status: "error"}

func (s *webhookService) Process(ctx context.Context, rawBody []byte, headers map[string]string) (*response.WebhookAckResponse, error) {
	sigHeader, _ := s.gw.SignatureHeader()
	signature := headerValue(headers, sigHeader)

	if !s.gw.VerifyWebhookSignature(rawBody, signature, headers) {
		s.log.Warn("Webhook signature verification failed",
			zap.String("gateway", s.gw.Name()),
			zap.Int("body_bytes", len(rawBody)),
		)
		return nil, ErrInvalidSignature
	}

	event, err := s.gw.ParseWebhookEvent(rawBody)
	if err != nil {
		s.log.Warn("Discarding malformed webhook body", zap.Error(err))
		return ackError, nil
	}

	if event.Type == gateway.EventUnknown {
		s.log.Info("Ignoring webhook event type",
			zap.String("event_id", event.EventID),
			zap.String("raw_type", event.RawType),
		)
		return ackOK, nil
	}

	record := &entity.WebhookEvent{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		EventID:           event.EventID,
		EventType:         string(event.Type),
		Gateway:           s.gw.Name(),
		SignatureVerified: true,
	}
	if event.OrderID != "" {
		orderID := event.OrderID
		record.GatewayOrderID = &orderID
	}
	if event.PaymentID != "" {
		paymentID := event.PaymentID
		record.GatewayPaymentID = &paymentID
	}

	stored, err := s.repo.WebhookEvent.Insert(ctx, record)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateWebhookID) {
			if stored != nil && stored.Processed {
				s.log.Info("Replayed webhook already processed",
					zap.String("event_id", event.EventID),
				)
				return ackOK, nil
			}
			// Redelivery of an event whose first attempt did not finish;
			// fall through and process it now.
			s.log.Info("Reprocessing unfinished webhook event",
				zap.String("event_id", event.EventID),
			)
		} else {
			return nil, fmt.Errorf("record webhook event: %w", err)
		}
	}

	payment, err := s.repo.Payment.FindByOrderID(ctx, event.OrderID)
	if err != nil {
		return nil, fmt.Errorf("look up payment for order: %w", err)
	}
	if payment == nil {
		s.markAnomaly(ctx, event.EventID, nil, fmt.Sprintf("no payment for order %s", event.OrderID))
		s.log.Error("Webhook references unknown order",
			zap.String("event_id", event.EventID),
			zap.String("gateway_order_id", event.OrderID),
		)
		return ackError, nil
	}

	if event.Type == gateway.EventPaymentCaptured {
		ack, done, err := s.crossVerify(ctx, event, payment)
		if done || err != nil {
			return ack, err
		}
	}

	payment, err = s.applyTransition(ctx, event, payment)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			s.markAnomaly(ctx, event.EventID, nil, fmt.Sprintf("payment vanished for order %s", event.OrderID))
			return ackError, nil
		}
		return nil, err
	}

	if event.Type == gateway.EventPaymentCaptured {
		s.settleBooking(ctx, event, payment)
	}

	if err := s.repo.WebhookEvent.MarkProcessed(ctx, event.EventID, &payment.ID, nil); err != nil {
		// The transitions above are conditional updates, so a redelivery
		// that retries this event converges to the same state.
		s.log.Error("Failed to mark webhook event processed",
			zap.Error(err),
			zap.String("event_id", event.EventID),
		)
	}

	s.log.Info("Webhook processed",
		zap.String("event_id", event.EventID),
		zap.String("event_type", string(event.Type)),
		zap.String("payment_id", payment.ID.String()),
		zap.String("payment_status", string(payment.Status)),
	)

	return ackOK, nil
}

// crossVerify checks the webhook's claim against the provider's own record
// before trusting a capture. done reports that processing finished here.
func (s *webhookService) crossVerify(ctx context.Context, event *gateway.WebhookEvent, payment *entity.Payment) (*response.WebhookAckResponse, bool, error) {
	if event.PaymentID == "" {
		s.markAnomaly(ctx, event.EventID, &payment.ID, "capture event carries no payment id")
		return ackError, true, nil
	}

	details, err := s.gw.GetPaymentDetails(ctx, event.PaymentID)
	if err != nil {
		if errors.Is(err, gateway.ErrPaymentNotFound) {
			s.markAnomaly(ctx, event.EventID, &payment.ID, fmt.Sprintf("gateway has no payment %s", event.PaymentID))
			return ackError, true, nil
		}
		// Transient lookup failure: leave the event unprocessed so the
		// provider's retry takes another pass.
		s.log.Warn("Cross-verification lookup failed, deferring to redelivery",
			zap.Error(err),
			zap.String("event_id", event.EventID),
		)
		return ackError, true, nil
	}

	if details.OrderID != "" && details.OrderID != event.OrderID {
		s.markAnomaly(ctx, event.EventID, &payment.ID,
			fmt.Sprintf("order mismatch: webhook %s, gateway %s", event.OrderID, details.OrderID))
		return ackError, true, nil
	}

	expectedMinor := toMinor(payment.Amount)
	if details.AmountMinor != 0 && details.AmountMinor != expectedMinor {
		s.markAnomaly(ctx, event.EventID, &payment.ID,
			fmt.Sprintf("amount mismatch: expected %d, gateway %d", expectedMinor, details.AmountMinor))
		s.log.Error("Webhook amount mismatch",
			zap.String("event_id", event.EventID),
			zap.Int64("expected_minor", expectedMinor),
			zap.Int64("gateway_minor", details.AmountMinor),
		)
		return ackError, true, nil
	}

	return nil, false, nil
}

func (s *webhookService) applyTransition(ctx context.Context, event *gateway.WebhookEvent, payment *entity.Payment) (*entity.Payment, error) {
	var to entity.PaymentStatus
	var gatewayPaymentID, failureReason *string

	switch event.Type {
	case gateway.EventPaymentCaptured:
		to = entity.PaymentStatusCompleted
		if event.PaymentID != "" {
			id := event.PaymentID
			gatewayPaymentID = &id
		}
	case gateway.EventPaymentFailed:
		to = entity.PaymentStatusFailed
		if event.PaymentID != "" {
			id := event.PaymentID
			gatewayPaymentID = &id
		}
		if event.Reason != "" {
			reason := event.Reason
			failureReason = &reason
		}
	}

	updated, err := s.repo.Payment.TransitionByOrderID(ctx, event.OrderID, to, gatewayPaymentID, failureReason)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyTerminal) {
			s.log.Info("Payment already terminal, webhook is a no-op",
				zap.String("event_id", event.EventID),
				zap.String("payment_id", payment.ID.String()),
				zap.String("status", string(updated.Status)),
			)
			return updated, nil
		}
		return nil, err
	}

	return updated, nil
}

// settleBooking confirms the paid booking, notifies, and splits the payout.
// None of these steps can undo the completed payment.
func (s *webhookService) settleBooking(ctx context.Context, event *gateway.WebhookEvent, payment *entity.Payment) {
	if payment.BookingKind == nil || payment.BookingID == nil {
		s.payOut(ctx, event, payment, nil)
		return
	}

	booking, err := s.repo.Booking.TransitionStatus(ctx, *payment.BookingKind, *payment.BookingID,
		entity.BookingStatusPending, entity.BookingStatusConfirmed)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			s.log.Info("Booking not pending, skipping confirmation",
				zap.String("booking_id", payment.BookingID.String()),
			)
			booking, err = s.repo.Booking.FindByID(ctx, *payment.BookingKind, *payment.BookingID)
		}
		if err != nil {
			s.log.Error("Failed to confirm booking after capture",
				zap.Error(err),
				zap.String("booking_id", payment.BookingID.String()),
			)
			s.payOut(ctx, event, payment, nil)
			return
		}
	} else {
		s.notifier.BookingConfirmed(ctx, booking, payment)
	}

	s.payOut(ctx, event, payment, booking)
}

// payOut transfers the hospital's share of a captured payment to its linked
// sub-account. Failures are logged, never propagated: the platform settles
// manually rather than unwinding a real capture.
func (s *webhookService) payOut(ctx context.Context, event *gateway.WebhookEvent, payment *entity.Payment, booking *entity.Booking) {
	if booking == nil {
		return
	}

	hospital, err := s.repo.Hospital.FindByID(ctx, booking.HospitalID)
	if err != nil {
		s.log.Error("Failed to load hospital for payout",
			zap.Error(err),
			zap.String("hospital_id", booking.HospitalID.String()),
		)
		return
	}
	if hospital.LinkedAccountID == nil || *hospital.LinkedAccountID == "" {
		s.log.Warn("Hospital has no linked account, skipping payout",
			zap.String("hospital_id", hospital.ID.String()),
		)
		return
	}

	totalMinor := toMinor(payment.Amount)
	payoutMinor := int64(float64(totalMinor)*(1-s.cfg.CommissionRate) + 0.5)

	transfer, err := s.gw.CreateTransfer(ctx, event.PaymentID, *hospital.LinkedAccountID, payoutMinor, map[string]string{
		"booking_id":  booking.ID.String(),
		"hospital_id": hospital.ID.String(),
	})
	if err != nil {
		if errors.Is(err, gateway.ErrTransferUnsupported) {
			s.log.Info("Gateway settles splits itself, skipping transfer",
				zap.String("gateway", s.gw.Name()),
			)
			return
		}
		s.log.Error("Payout transfer failed, manual settlement required",
			zap.Error(err),
			zap.String("payment_id", payment.ID.String()),
			zap.String("hospital_id", hospital.ID.String()),
			zap.Int64("payout_minor", payoutMinor),
		)
		return
	}

	s.log.Info("Payout transfer created",
		zap.String("transfer_id", transfer.TransferID),
		zap.String("hospital_id", hospital.ID.String()),
		zap.Int64("payout_minor", payoutMinor),
		zap.Int64("platform_minor", totalMinor-payoutMinor),
	)
}

func (s *webhookService) markAnomaly(ctx context.Context, eventID string, paymentID *uuid.UUID, msg string) {
	if err := s.repo.WebhookEvent.MarkProcessed(ctx, eventID, paymentID, &msg); err != nil {
		s.log.Error("Failed to record webhook anomaly",
			zap.Error(err),
			zap.String("event_id", eventID),
		)
	}
}

func toMinor(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
