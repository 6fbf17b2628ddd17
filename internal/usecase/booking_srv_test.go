package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"hospital-booking/internal/data/entity"
	"hospital-booking/internal/data/repository"
	"hospital-booking/internal/dto/request"
	"hospital-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fixture struct {
	bookings  *MockBookingRepo
	payments  *MockPaymentRepo
	webhooks  *MockWebhookRepo
	hospitals *MockHospitalRepo
	doctors   *MockDoctorRepo
	users     *MockUserRepo
	gw        *MockGateway
	slots     *MockSlotCache
	notifier  *MockNotifier
	repo      *repository.Repository

	hospitalID uuid.UUID
	doctorID   uuid.UUID
	patientID  uuid.UUID
	docUserID  uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		bookings:  NewMockBookingRepo(),
		payments:  NewMockPaymentRepo(),
		webhooks:  NewMockWebhookRepo(),
		hospitals: NewMockHospitalRepo(),
		doctors:   NewMockDoctorRepo(),
		users:     NewMockUserRepo(),
		gw:        NewMockGateway(),
		slots:     NewMockSlotCache(),
		notifier:  &MockNotifier{},
	}
	f.repo = &repository.Repository{
		User:         f.users,
		Session:      &MockSessionRepo{},
		Hospital:     f.hospitals,
		Doctor:       f.doctors,
		Booking:      f.bookings,
		Payment:      f.payments,
		WebhookEvent: f.webhooks,
	}

	f.hospitalID = uuid.New()
	account := "acc_hosp_1"
	f.hospitals.Hospitals[f.hospitalID] = &entity.Hospital{
		Base:            entity.Base{ID: f.hospitalID},
		Name:            "City Care",
		City:            "Pune",
		Status:          entity.HospitalStatusApproved,
		LinkedAccountID: &account,
	}

	f.doctorID = uuid.New()
	f.docUserID = uuid.New()
	docUser := f.docUserID
	f.doctors.Doctors[f.doctorID] = &entity.Doctor{
		Base:       entity.Base{ID: f.doctorID},
		Name:       "Dr. Rao",
		UserID:     &docUser,
		HospitalID: f.hospitalID,
		IsActive:   true,
	}
	f.users.Users[f.docUserID] = &entity.User{
		Base:     entity.Base{ID: f.docUserID},
		Name:     "Dr. Rao",
		Mobile:   "9000000001",
		Role:     entity.RoleDoctor,
		IsActive: true,
	}

	f.patientID = uuid.New()
	f.users.Users[f.patientID] = &entity.User{
		Base:     entity.Base{ID: f.patientID},
		Name:     "Asha",
		Mobile:   "9000000002",
		Role:     entity.RolePatient,
		IsActive: true,
	}

	return f
}

func (f *fixture) bookingService() BookingService {
	return NewBookingService(f.repo, f.slots, zap.NewNop())
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestBookingService_CreateAppointment(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a free slot When booked Then a pending appointment is created", func(t *testing.T) {
		f := newFixture()
		svc := f.bookingService()

		resp, err := svc.CreateAppointment(ctx, f.patientID.String(), &request.CreateAppointmentRequest{
			DoctorID: f.doctorID.String(),
			Date:     futureDate(3),
			TimeSlot: "10:00",
		})
		if err != nil {
			t.Fatalf("CreateAppointment failed: %v", err)
		}
		if resp.Status != string(entity.BookingStatusPending) {
			t.Errorf("expected pending status, got %s", resp.Status)
		}
		if resp.HospitalName != "City Care" {
			t.Errorf("expected hospital name, got %q", resp.HospitalName)
		}
		if f.slots.InvalidateCalls != 1 {
			t.Errorf("expected 1 cache invalidation, got %d", f.slots.InvalidateCalls)
		}
	})

	t.Run("Given a taken slot When booked again Then conflict is returned", func(t *testing.T) {
		f := newFixture()
		svc := f.bookingService()
		date := futureDate(3)

		req := &request.CreateAppointmentRequest{
			DoctorID: f.doctorID.String(),
			Date:     date,
			TimeSlot: "10:00",
		}
		if _, err := svc.CreateAppointment(ctx, f.patientID.String(), req); err != nil {
			t.Fatalf("first booking failed: %v", err)
		}

		otherPatient := uuid.New()
		_, err := svc.CreateAppointment(ctx, otherPatient.String(), req)
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		if len(f.bookings.Bookings) != 1 {
			t.Errorf("expected 1 stored booking, got %d", len(f.bookings.Bookings))
		}
	})

	t.Run("Given a cancelled booking When the slot is rebooked Then it succeeds", func(t *testing.T) {
		f := newFixture()
		svc := f.bookingService()
		date := futureDate(3)

		req := &request.CreateAppointmentRequest{
			DoctorID: f.doctorID.String(),
			Date:     date,
			TimeSlot: "11:30",
		}
		first, err := svc.CreateAppointment(ctx, f.patientID.String(), req)
		if err != nil {
			t.Fatalf("first booking failed: %v", err)
		}

		_, err = svc.UpdateStatus(ctx, f.patientID.String(), string(entity.RolePatient),
			entity.BookingKindAppointment, first.ID, "cancel")
		if err != nil {
			t.Fatalf("cancel failed: %v", err)
		}

		if _, err := svc.CreateAppointment(ctx, f.patientID.String(), req); err != nil {
			t.Fatalf("rebooking a cancelled slot failed: %v", err)
		}
	})

	t.Run("Given an invalid time slot Then validation fails", func(t *testing.T) {
		f := newFixture()
		svc := f.bookingService()

		_, err := svc.CreateAppointment(ctx, f.patientID.String(), &request.CreateAppointmentRequest{
			DoctorID: f.doctorID.String(),
			Date:     futureDate(3),
			TimeSlot: "16:00",
		})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("Given a past date Then validation fails", func(t *testing.T) {
		f := newFixture()
		svc := f.bookingService()

		_, err := svc.CreateAppointment(ctx, f.patientID.String(), &request.CreateAppointmentRequest{
			DoctorID: f.doctorID.String(),
			Date:     time.Now().AddDate(0, 0, -2).Format("2006-01-02"),
			TimeSlot: "10:00",
		})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("Given an unapproved hospital Then booking is rejected", func(t *testing.T) {
		f := newFixture()
		f.hospitals.Hospitals[f.hospitalID].Status = entity.HospitalStatusPending
		svc := f.bookingService()

		_, err := svc.CreateAppointment(ctx, f.patientID.String(), &request.CreateAppointmentRequest{
			DoctorID: f.doctorID.String(),
			Date:     futureDate(3),
			TimeSlot: "10:00",
		})
		if !errors.Is(err, ErrHospitalNotApproved) {
			t.Fatalf("expected ErrHospitalNotApproved, got %v", err)
		}
	})

	t.Run("Given an inactive doctor Then booking is not found", func(t *testing.T) {
		f := newFixture()
		f.doctors.Doctors[f.doctorID].IsActive = false
		svc := f.bookingService()

		_, err := svc.CreateAppointment(ctx, f.patientID.String(), &request.CreateAppointmentRequest{
			DoctorID: f.doctorID.String(),
			Date:     futureDate(3),
			TimeSlot: "10:00",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestBookingService_CreateOperation(t *testing.T) {
	ctx := context.Background()

	t.Run("Given two operations on one day for the same doctor Then the second conflicts", func(t *testing.T) {
		f := newFixture()
		svc := f.bookingService()
		date := futureDate(5)

		req := &request.CreateOperationRequest{
			DoctorID:  f.doctorID.String(),
			Date:      date,
			Specialty: "ortho",
		}
		if _, err := svc.CreateOperation(ctx, f.patientID.String(), req); err != nil {
			t.Fatalf("first operation failed: %v", err)
		}

		_, err := svc.CreateOperation(ctx, uuid.New().String(), req)
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("Given an operation and an appointment on one day Then both are allowed", func(t *testing.T) {
		f := newFixture()
		svc := f.bookingService()
		date := futureDate(5)

		if _, err := svc.CreateOperation(ctx, f.patientID.String(), &request.CreateOperationRequest{
			DoctorID:  f.doctorID.String(),
			Date:      date,
			Specialty: "cardio",
		}); err != nil {
			t.Fatalf("operation failed: %v", err)
		}

		if _, err := svc.CreateAppointment(ctx, f.patientID.String(), &request.CreateAppointmentRequest{
			DoctorID: f.doctorID.String(),
			Date:     date,
			TimeSlot: "09:30",
		}); err != nil {
			t.Fatalf("appointment alongside operation failed: %v", err)
		}
	})
}

func TestBookingService_CreateGuestAppointment(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a new guest Then an inactive patient account is created", func(t *testing.T) {
		f := newFixture()
		svc := f.bookingService()

		resp, err := svc.CreateGuestAppointment(ctx, &request.GuestAppointmentRequest{
			CreateAppointmentRequest: request.CreateAppointmentRequest{
				DoctorID: f.doctorID.String(),
				Date:     futureDate(2),
				TimeSlot: "12:00",
			},
			PatientName:  "Walk In",
			PatientPhone: "9111111111",
		})
		if err != nil {
			t.Fatalf("guest booking failed: %v", err)
		}
		if f.users.CreateCalls != 1 {
			t.Fatalf("expected 1 user created, got %d", f.users.CreateCalls)
		}

		guest, err := f.users.FindByMobile(ctx, "9111111111", entity.RolePatient)
		if err != nil || guest == nil {
			t.Fatalf("guest user not stored: %v", err)
		}
		if guest.IsActive {
			t.Error("guest account should be inactive")
		}
		if guest.PasswordHash == "" {
			t.Error("guest account should carry a hashed credential")
		}
		if resp.UserID != guest.ID.String() {
			t.Errorf("booking owner mismatch: %s vs %s", resp.UserID, guest.ID)
		}
	})

	t.Run("Given a returning guest phone Then the existing account is reused", func(t *testing.T) {
		f := newFixture()
		svc := f.bookingService()

		first, err := svc.CreateGuestAppointment(ctx, &request.GuestAppointmentRequest{
			CreateAppointmentRequest: request.CreateAppointmentRequest{
				DoctorID: f.doctorID.String(),
				Date:     futureDate(2),
				TimeSlot: "12:00",
			},
			PatientName:  "Walk In",
			PatientPhone: "9111111111",
		})
		if err != nil {
			t.Fatalf("first guest booking failed: %v", err)
		}

		second, err := svc.CreateGuestAppointment(ctx, &request.GuestAppointmentRequest{
			CreateAppointmentRequest: request.CreateAppointmentRequest{
				DoctorID: f.doctorID.String(),
				Date:     futureDate(2),
				TimeSlot: "12:30",
			},
			PatientName:  "Walk In",
			PatientPhone: "9111111111",
		})
		if err != nil {
			t.Fatalf("second guest booking failed: %v", err)
		}

		if f.users.CreateCalls != 1 {
			t.Errorf("expected 1 user created, got %d", f.users.CreateCalls)
		}
		if first.UserID != second.UserID {
			t.Errorf("expected same owner, got %s and %s", first.UserID, second.UserID)
		}
	})
}

func TestBookingService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	seed := func(f *fixture, status entity.BookingStatus) uuid.UUID {
		id := uuid.New()
		f.bookings.Bookings[id] = &entity.Booking{
			Base:       entity.Base{ID: id},
			Kind:       entity.BookingKindAppointment,
			UserID:     f.patientID,
			DoctorID:   f.doctorID,
			HospitalID: f.hospitalID,
			Date:       time.Now().AddDate(0, 0, 4),
			TimeSlot:   "10:00",
			Status:     status,
		}
		return id
	}

	t.Run("Given a pending booking When the doctor confirms Then status is confirmed", func(t *testing.T) {
		f := newFixture()
		id := seed(f, entity.BookingStatusPending)
		svc := f.bookingService()

		resp, err := svc.UpdateStatus(ctx, f.docUserID.String(), string(entity.RoleDoctor),
			entity.BookingKindAppointment, id.String(), "confirm")
		if err != nil {
			t.Fatalf("confirm failed: %v", err)
		}
		if resp.Status != string(entity.BookingStatusConfirmed) {
			t.Errorf("expected confirmed, got %s", resp.Status)
		}
	})

	t.Run("Given a pending booking When the patient confirms Then forbidden", func(t *testing.T) {
		f := newFixture()
		id := seed(f, entity.BookingStatusPending)
		svc := f.bookingService()

		_, err := svc.UpdateStatus(ctx, f.patientID.String(), string(entity.RolePatient),
			entity.BookingKindAppointment, id.String(), "confirm")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("Given another user's booking When cancelled Then forbidden", func(t *testing.T) {
		f := newFixture()
		id := seed(f, entity.BookingStatusPending)
		svc := f.bookingService()

		_, err := svc.UpdateStatus(ctx, uuid.New().String(), string(entity.RolePatient),
			entity.BookingKindAppointment, id.String(), "cancel")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("Given a completed booking When cancelled Then conflict", func(t *testing.T) {
		f := newFixture()
		id := seed(f, entity.BookingStatusCompleted)
		svc := f.bookingService()

		_, err := svc.UpdateStatus(ctx, f.patientID.String(), string(entity.RolePatient),
			entity.BookingKindAppointment, id.String(), "cancel")
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("Given a pending booking When the doctor completes Then conflict", func(t *testing.T) {
		f := newFixture()
		id := seed(f, entity.BookingStatusPending)
		svc := f.bookingService()

		_, err := svc.UpdateStatus(ctx, f.docUserID.String(), string(entity.RoleDoctor),
			entity.BookingKindAppointment, id.String(), "complete")
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})
}

func TestBookingService_GetAvailableSlots(t *testing.T) {
	ctx := context.Background()

	t.Run("Given one booked slot Then it is excluded from availability", func(t *testing.T) {
		f := newFixture()
		svc := f.bookingService()
		date := futureDate(3)

		if _, err := svc.CreateAppointment(ctx, f.patientID.String(), &request.CreateAppointmentRequest{
			DoctorID: f.doctorID.String(),
			Date:     date,
			TimeSlot: "10:00",
		}); err != nil {
			t.Fatalf("booking failed: %v", err)
		}

		resp, err := svc.GetAvailableSlots(ctx, f.doctorID.String(), date)
		if err != nil {
			t.Fatalf("GetAvailableSlots failed: %v", err)
		}
		for _, slot := range resp.AvailableSlots {
			if slot == "10:00" {
				t.Error("booked slot listed as available")
			}
		}
		if len(resp.BookedSlots) != 1 || resp.BookedSlots[0] != "10:00" {
			t.Errorf("unexpected booked slots: %v", resp.BookedSlots)
		}
	})

	t.Run("Given a cached view Then the store is not consulted", func(t *testing.T) {
		f := newFixture()
		svc := f.bookingService()
		date := futureDate(3)

		f.slots.Set(ctx, f.doctorID, date, []string{"09:30", "10:00"})

		resp, err := svc.GetAvailableSlots(ctx, f.doctorID.String(), date)
		if err != nil {
			t.Fatalf("GetAvailableSlots failed: %v", err)
		}
		if len(resp.BookedSlots) != 2 {
			t.Errorf("expected cached booked slots, got %v", resp.BookedSlots)
		}
	})
}

func TestGenerateIdempotencyKey_Buckets(t *testing.T) {
	user := uuid.New()
	booking := uuid.New()
	window := 120 * time.Second
	base := time.Unix(1_700_000_000, 0)

	k1 := utils.GenerateIdempotencyKey(user, "appointment", booking, base, window)
	k2 := utils.GenerateIdempotencyKey(user, "appointment", booking, base.Add(30*time.Second), window)
	k3 := utils.GenerateIdempotencyKey(user, "appointment", booking, base.Add(10*time.Minute), window)

	if k1 != k2 {
		t.Errorf("keys inside the same window differ: %s vs %s", k1, k2)
	}
	if k1 == k3 {
		t.Error("keys across windows should differ")
	}

	other := utils.GenerateIdempotencyKey(uuid.New(), "appointment", booking, base, window)
	if k1 == other {
		t.Error("keys for different users should differ")
	}
}
