package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"hospital-booking/internal/data/entity"
	"hospital-booking/internal/gateway"
	"hospital-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (f *fixture) webhookService() WebhookService {
	cfg := utils.GatewayConfig{
		Provider:          "mockpay",
		CommissionRate:    0.10,
		IdempotencyWindow: 120 * time.Second,
	}
	return NewWebhookService(f.repo, f.gw, cfg, f.notifier, zap.NewNop())
}

// seedPaidFlow stores a pending booking plus its pending payment and wires
// the mock gateway to deliver a matching capture event.
func (f *fixture) seedPaidFlow(amount float64) (bookingID uuid.UUID, orderID string) {
	bookingID = f.seedPendingBooking(entity.BookingKindAppointment, "10:00")
	orderID = "order_test_1"

	kind := entity.BookingKindAppointment
	bid := bookingID
	uid := f.patientID
	paymentID := uuid.New()
	f.payments.Payments[paymentID] = &entity.Payment{
		Base:           entity.Base{ID: paymentID},
		UserID:         &uid,
		BookingKind:    &kind,
		BookingID:      &bid,
		Amount:         amount,
		Currency:       "INR",
		Gateway:        "mockpay",
		IdempotencyKey: "key_" + paymentID.String(),
		GatewayOrderID: orderID,
		Status:         entity.PaymentStatusPending,
	}

	f.gw.ParsedEvent = &gateway.WebhookEvent{
		EventID:     "evt_1",
		Type:        gateway.EventPaymentCaptured,
		RawType:     "payment.captured",
		OrderID:     orderID,
		PaymentID:   "pay_1",
		AmountMinor: int64(amount * 100),
		Currency:    "INR",
	}
	f.gw.DetailsFunc = func(ctx context.Context, pid string) (*gateway.PaymentDetails, error) {
		return &gateway.PaymentDetails{
			PaymentID:   pid,
			OrderID:     orderID,
			AmountMinor: int64(amount * 100),
			Currency:    "INR",
			Status:      "captured",
			Captured:    true,
		}, nil
	}
	return bookingID, orderID
}

func TestWebhookService_Capture(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"event":"payment.captured"}`)

	t.Run("Given a valid capture Then payment completes and booking confirms", func(t *testing.T) {
		f := newFixture()
		bookingID, orderID := f.seedPaidFlow(500.00)
		svc := f.webhookService()

		ack, err := svc.Process(ctx, body, nil)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if ack.Status != "ok" {
			t.Errorf("expected ok ack, got %s", ack.Status)
		}

		payment, _ := f.payments.FindByOrderID(ctx, orderID)
		if payment.Status != entity.PaymentStatusCompleted {
			t.Errorf("expected completed payment, got %s", payment.Status)
		}
		if payment.GatewayPaymentID == nil || *payment.GatewayPaymentID != "pay_1" {
			t.Error("gateway payment id not recorded")
		}

		booking := f.bookings.Bookings[bookingID]
		if booking.Status != entity.BookingStatusConfirmed {
			t.Errorf("expected confirmed booking, got %s", booking.Status)
		}

		event, _ := f.webhooks.FindByEventID(ctx, "evt_1")
		if event == nil || !event.Processed {
			t.Error("event not marked processed")
		}
		if f.notifier.Calls != 1 {
			t.Errorf("expected 1 notification, got %d", f.notifier.Calls)
		}
	})

	t.Run("Given a captured payment Then the hospital share is transferred", func(t *testing.T) {
		f := newFixture()
		f.seedPaidFlow(500.00)
		svc := f.webhookService()

		if _, err := svc.Process(ctx, body, nil); err != nil {
			t.Fatalf("Process failed: %v", err)
		}

		if f.gw.TransferCalls != 1 {
			t.Fatalf("expected 1 transfer, got %d", f.gw.TransferCalls)
		}
		// 500.00 INR captured, 10% commission: hospital gets 45000 paise.
		if f.gw.LastTransferMinor != 45000 {
			t.Errorf("expected 45000 minor units, got %d", f.gw.LastTransferMinor)
		}
	})

	t.Run("Given the transfer fails Then the capture still stands", func(t *testing.T) {
		f := newFixture()
		bookingID, orderID := f.seedPaidFlow(500.00)
		f.gw.TransferFunc = func(ctx context.Context, pid, acc string, minor int64) (*gateway.Transfer, error) {
			return nil, ErrMockGateway
		}
		svc := f.webhookService()

		ack, err := svc.Process(ctx, body, nil)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if ack.Status != "ok" {
			t.Errorf("expected ok ack, got %s", ack.Status)
		}

		payment, _ := f.payments.FindByOrderID(ctx, orderID)
		if payment.Status != entity.PaymentStatusCompleted {
			t.Errorf("transfer failure must not unwind the payment, got %s", payment.Status)
		}
		if f.bookings.Bookings[bookingID].Status != entity.BookingStatusConfirmed {
			t.Error("transfer failure must not unwind the booking")
		}
	})

	t.Run("Given the gateway cannot split Then the transfer is skipped", func(t *testing.T) {
		f := newFixture()
		_, orderID := f.seedPaidFlow(500.00)
		f.gw.TransferFunc = func(ctx context.Context, pid, acc string, minor int64) (*gateway.Transfer, error) {
			return nil, gateway.ErrTransferUnsupported
		}
		svc := f.webhookService()

		ack, err := svc.Process(ctx, body, nil)
		if err != nil || ack.Status != "ok" {
			t.Fatalf("Process failed: %v, ack %v", err, ack)
		}

		payment, _ := f.payments.FindByOrderID(ctx, orderID)
		if payment.Status != entity.PaymentStatusCompleted {
			t.Errorf("expected completed payment, got %s", payment.Status)
		}
	})

	t.Run("Given no linked account Then no transfer is attempted", func(t *testing.T) {
		f := newFixture()
		f.seedPaidFlow(500.00)
		f.hospitals.Hospitals[f.hospitalID].LinkedAccountID = nil
		svc := f.webhookService()

		if _, err := svc.Process(ctx, body, nil); err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if f.gw.TransferCalls != 0 {
			t.Errorf("expected no transfers, got %d", f.gw.TransferCalls)
		}
	})
}

func TestWebhookService_Replay(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"event":"payment.captured"}`)

	t.Run("Given a replayed event Then state changes exactly once", func(t *testing.T) {
		f := newFixture()
		f.seedPaidFlow(500.00)
		svc := f.webhookService()

		if _, err := svc.Process(ctx, body, nil); err != nil {
			t.Fatalf("first delivery failed: %v", err)
		}
		transitionsAfterFirst := f.payments.TransitionCalls

		ack, err := svc.Process(ctx, body, nil)
		if err != nil {
			t.Fatalf("replay failed: %v", err)
		}
		if ack.Status != "ok" {
			t.Errorf("replay should ack ok, got %s", ack.Status)
		}
		if f.payments.TransitionCalls != transitionsAfterFirst {
			t.Error("replay must not touch the payment again")
		}
		if f.gw.TransferCalls != 1 {
			t.Errorf("replay must not repeat the payout, got %d transfers", f.gw.TransferCalls)
		}
		if f.notifier.Calls != 1 {
			t.Errorf("replay must not re-notify, got %d", f.notifier.Calls)
		}
	})

	t.Run("Given a failed event after capture Then the terminal status stands", func(t *testing.T) {
		f := newFixture()
		_, orderID := f.seedPaidFlow(500.00)
		svc := f.webhookService()

		if _, err := svc.Process(ctx, body, nil); err != nil {
			t.Fatalf("capture delivery failed: %v", err)
		}

		f.gw.ParsedEvent = &gateway.WebhookEvent{
			EventID: "evt_2",
			Type:    gateway.EventPaymentFailed,
			RawType: "payment.failed",
			OrderID: orderID,
			Reason:  "late failure",
		}

		ack, err := svc.Process(ctx, []byte(`{"event":"payment.failed"}`), nil)
		if err != nil {
			t.Fatalf("late failure delivery errored: %v", err)
		}
		if ack.Status != "ok" {
			t.Errorf("expected ok ack, got %s", ack.Status)
		}

		payment, _ := f.payments.FindByOrderID(ctx, orderID)
		if payment.Status != entity.PaymentStatusCompleted {
			t.Errorf("completed payment must not regress, got %s", payment.Status)
		}
	})
}

func TestWebhookService_Rejections(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"event":"payment.captured"}`)

	t.Run("Given a tampered signature Then nothing changes", func(t *testing.T) {
		f := newFixture()
		bookingID, orderID := f.seedPaidFlow(500.00)
		f.gw.VerifyResult = false
		svc := f.webhookService()

		_, err := svc.Process(ctx, body, nil)
		if !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("expected ErrInvalidSignature, got %v", err)
		}

		payment, _ := f.payments.FindByOrderID(ctx, orderID)
		if payment.Status != entity.PaymentStatusPending {
			t.Errorf("rejected webhook must not touch the payment, got %s", payment.Status)
		}
		if f.bookings.Bookings[bookingID].Status != entity.BookingStatusPending {
			t.Error("rejected webhook must not touch the booking")
		}
		if len(f.webhooks.Events) != 0 {
			t.Error("rejected webhook must not be recorded")
		}
	})

	t.Run("Given an unknown order Then the anomaly is recorded and acked", func(t *testing.T) {
		f := newFixture()
		f.gw.ParsedEvent = &gateway.WebhookEvent{
			EventID:   "evt_orphan",
			Type:      gateway.EventPaymentCaptured,
			RawType:   "payment.captured",
			OrderID:   "order_unknown",
			PaymentID: "pay_x",
		}
		svc := f.webhookService()

		ack, err := svc.Process(ctx, body, nil)
		if err != nil {
			t.Fatalf("Process errored: %v", err)
		}
		if ack.Status != "error" {
			t.Errorf("expected error ack, got %s", ack.Status)
		}

		event, _ := f.webhooks.FindByEventID(ctx, "evt_orphan")
		if event == nil || !event.Processed || event.ProcessingError == nil {
			t.Error("anomaly not recorded on the event row")
		}
	})

	t.Run("Given a gateway amount mismatch Then the capture is not applied", func(t *testing.T) {
		f := newFixture()
		bookingID, orderID := f.seedPaidFlow(500.00)
		f.gw.DetailsFunc = func(ctx context.Context, pid string) (*gateway.PaymentDetails, error) {
			return &gateway.PaymentDetails{
				PaymentID:   pid,
				OrderID:     orderID,
				AmountMinor: 1,
				Captured:    true,
			}, nil
		}
		svc := f.webhookService()

		ack, err := svc.Process(ctx, body, nil)
		if err != nil {
			t.Fatalf("Process errored: %v", err)
		}
		if ack.Status != "error" {
			t.Errorf("expected error ack, got %s", ack.Status)
		}

		payment, _ := f.payments.FindByOrderID(ctx, orderID)
		if payment.Status != entity.PaymentStatusPending {
			t.Errorf("mismatched capture must not complete the payment, got %s", payment.Status)
		}
		if f.bookings.Bookings[bookingID].Status != entity.BookingStatusPending {
			t.Error("mismatched capture must not confirm the booking")
		}
	})

	t.Run("Given an unknown event type Then it is acked and ignored", func(t *testing.T) {
		f := newFixture()
		f.gw.ParsedEvent = &gateway.WebhookEvent{
			EventID: "evt_other",
			Type:    gateway.EventUnknown,
			RawType: "order.paid",
		}
		svc := f.webhookService()

		ack, err := svc.Process(ctx, body, nil)
		if err != nil {
			t.Fatalf("Process errored: %v", err)
		}
		if ack.Status != "ok" {
			t.Errorf("expected ok ack, got %s", ack.Status)
		}
		if len(f.webhooks.Events) != 0 {
			t.Error("ignored event types should not be recorded")
		}
	})

	t.Run("Given a malformed body after a valid signature Then it is acked as error", func(t *testing.T) {
		f := newFixture()
		f.gw.ParseErr = gateway.ErrMalformedWebhook
		svc := f.webhookService()

		ack, err := svc.Process(ctx, []byte(`not json`), nil)
		if err != nil {
			t.Fatalf("Process errored: %v", err)
		}
		if ack.Status != "error" {
			t.Errorf("expected error ack, got %s", ack.Status)
		}
	})
}
