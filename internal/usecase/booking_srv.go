package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hospital-booking/internal/data/entity"
	"hospital-booking/internal/data/repository"
	"hospital-booking/internal/dto/request"
	"hospital-booking/internal/dto/response"
	"hospital-booking/pkg/cache"
	"hospital-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// appointmentSlots are the bookable time units for appointments; operations
// are booked per day and carry no slot.
var appointmentSlots = []string{
	"09:30", "10:00", "10:30", "11:00", "11:30", "12:00",
	"12:30", "13:00", "13:30", "14:00", "14:30", "15:00", "15:30",
	"18:00", "18:30", "19:00", "19:30", "20:00", "20:30",
}

func isValidTimeSlot(slot string) bool {
	for _, s := range appointmentSlots {
		if s == slot {
			return true
		}
	}
	return false
}

type BookingService interface {
	CreateAppointment(ctx context.Context, userID string, req *request.CreateAppointmentRequest) (*response.BookingResponse, error)
	CreateGuestAppointment(ctx context.Context, req *request.GuestAppointmentRequest) (*response.BookingResponse, error)
	CreateOperation(ctx context.Context, userID string, req *request.CreateOperationRequest) (*response.BookingResponse, error)

	// UpdateStatus drives the booking state machine: confirm and complete
	// are doctor-only, cancel is open to the owning patient as well.
	UpdateStatus(ctx context.Context, actorID, actorRole string, kind entity.BookingKind, bookingID, action string) (*response.BookingResponse, error)

	GetUserBookings(ctx context.Context, userID string, kind entity.BookingKind, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetAvailableSlots(ctx context.Context, doctorID, date string) (*response.AvailableSlotsResponse, error)
}

type bookingService struct {
	repo  *repository.Repository
	slots cache.SlotCache
	log   *zap.Logger
}

func NewBookingService(repo *repository.Repository, slots cache.SlotCache, log *zap.Logger) BookingService {
	return &bookingService{
		repo:  repo,
		slots: slots,
		log:   log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateAppointment(ctx context.Context, userID string, req *request.CreateAppointmentRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create appointment validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	if !isValidTimeSlot(req.TimeSlot) {
		return nil, fmt.Errorf("%w: invalid time slot %s", ErrValidation, req.TimeSlot)
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", ErrValidation, userID)
	}

	return s.createBooking(ctx, entity.BookingKindAppointment, userUUID, req.DoctorID, req.Date, req.TimeSlot, nil, req.Reason)
}

func (s *bookingService) CreateGuestAppointment(ctx context.Context, req *request.GuestAppointmentRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Guest appointment validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	if !isValidTimeSlot(req.TimeSlot) {
		return nil, fmt.Errorf("%w: invalid time slot %s", ErrValidation, req.TimeSlot)
	}

	userID, err := s.resolveGuestPatient(ctx, req.PatientName, req.PatientPhone)
	if err != nil {
		return nil, err
	}

	return s.createBooking(ctx, entity.BookingKindAppointment, userID, req.DoctorID, req.Date, req.TimeSlot, nil, req.Reason)
}

func (s *bookingService) CreateOperation(ctx context.Context, userID string, req *request.CreateOperationRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create operation validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", ErrValidation, userID)
	}

	var specialty *string
	if req.Specialty != "" {
		specialty = &req.Specialty
	}

	return s.createBooking(ctx, entity.BookingKindOperation, userUUID, req.DoctorID, req.Date, "", specialty, req.Reason)
}

// createBooking runs the shared validation chain and delegates the conflict
// check to the store's atomic insert. There is deliberately no pre-read of
// existing bookings: the unique index is the arbiter under concurrency.
func (s *bookingService) createBooking(ctx context.Context, kind entity.BookingKind, userID uuid.UUID, doctorIDStr, dateStr, timeSlot string, specialty *string, reason string) (*response.BookingResponse, error) {
	doctorID, err := uuid.Parse(doctorIDStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid doctor ID %s", ErrValidation, doctorIDStr)
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %s", ErrValidation, dateStr)
	}

	today := time.Now().Truncate(24 * time.Hour)
	if date.Before(today) {
		return nil, fmt.Errorf("%w: cannot book for past dates", ErrValidation)
	}

	doctor, err := s.repo.Doctor.FindActiveByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrDoctorNotFound) {
			return nil, fmt.Errorf("%w: doctor %s", ErrNotFound, doctorIDStr)
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if doctor.HospitalID == uuid.Nil {
		return nil, ErrDoctorNotAffiliated
	}

	hospital, err := s.repo.Hospital.FindByID(ctx, doctor.HospitalID)
	if err != nil {
		if errors.Is(err, repository.ErrHospitalNotFound) {
			return nil, ErrDoctorNotAffiliated
		}
		return nil, fmt.Errorf("load hospital: %w", err)
	}
	if hospital.Status != entity.HospitalStatusApproved {
		return nil, ErrHospitalNotApproved
	}

	now := time.Now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Kind:       kind,
		UserID:     userID,
		DoctorID:   doctorID,
		HospitalID: hospital.ID,
		Date:       date,
		TimeSlot:   timeSlot,
		Specialty:  specialty,
		Status:     entity.BookingStatusPending,
	}
	if reason != "" {
		booking.Reason = &reason
	}

	if err := s.repo.Booking.CheckAndInsert(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSlotConflict) {
			s.log.Info("Slot conflict on booking attempt",
				zap.String("doctor_id", doctorID.String()),
				zap.String("date", dateStr),
				zap.String("time_slot", timeSlot),
			)
			return nil, fmt.Errorf("%w: slot already booked", ErrConflict)
		}
		s.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
		)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if s.slots != nil && kind == entity.BookingKindAppointment {
		s.slots.Invalidate(ctx, doctorID, dateStr)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("doctor_id", doctorID.String()),
		zap.String("date", dateStr),
		zap.String("time_slot", timeSlot),
	)

	resp := response.BookingToResponse(booking)
	resp.DoctorName = doctor.Name
	resp.HospitalName = hospital.Name
	return &resp, nil
}

// resolveGuestPatient reuses an existing patient record by mobile number or
// creates an inactive one with a throwaway credential.
func (s *bookingService) resolveGuestPatient(ctx context.Context, name, phone string) (uuid.UUID, error) {
	existing, err := s.repo.User.FindByMobile(ctx, phone, entity.RolePatient)
	if err != nil {
		return uuid.Nil, fmt.Errorf("look up guest patient: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash guest credential: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         name,
		PasswordHash: string(hash),
		Mobile:       phone,
		Role:         entity.RolePatient,
		IsActive:     false,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		return uuid.Nil, fmt.Errorf("create guest patient: %w", err)
	}

	s.log.Info("Guest patient created", zap.String("user_id", user.ID.String()))
	return user.ID, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, actorID, actorRole string, kind entity.BookingKind, bookingID, action string) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID %s", ErrValidation, bookingID)
	}

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid actor ID %s", ErrValidation, actorID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	isAdmin := actorRole == string(entity.RoleAdmin)
	isOwner := booking.UserID == actorUUID
	isDoctor := false
	if actorRole == string(entity.RoleDoctor) {
		doctor, err := s.repo.Doctor.FindByID(ctx, booking.DoctorID)
		if err != nil && !errors.Is(err, repository.ErrDoctorNotFound) {
			return nil, fmt.Errorf("load doctor for booking: %w", err)
		}
		isDoctor = doctor != nil && doctor.UserID != nil && *doctor.UserID == actorUUID
	}

	var from, to entity.BookingStatus
	switch action {
	case "confirm":
		if !isDoctor && !isAdmin {
			return nil, fmt.Errorf("%w: only the assigned doctor may confirm", ErrForbidden)
		}
		from, to = entity.BookingStatusPending, entity.BookingStatusConfirmed
	case "cancel":
		if !isOwner && !isDoctor && !isAdmin {
			return nil, fmt.Errorf("%w: not authorized to cancel this booking", ErrForbidden)
		}
		if booking.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: booking is already %s", ErrConflict, booking.Status)
		}
		from, to = booking.Status, entity.BookingStatusCancelled
	case "complete":
		if !isDoctor && !isAdmin {
			return nil, fmt.Errorf("%w: only the assigned doctor may complete", ErrForbidden)
		}
		from, to = entity.BookingStatusConfirmed, entity.BookingStatusCompleted
	default:
		return nil, fmt.Errorf("%w: invalid action %s", ErrValidation, action)
	}

	updated, err := s.repo.Booking.TransitionStatus(ctx, kind, id, from, to)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w: booking is no longer %s", ErrConflict, from)
		}
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		return nil, fmt.Errorf("transition booking: %w", err)
	}

	if s.slots != nil && kind == entity.BookingKindAppointment && to == entity.BookingStatusCancelled {
		s.slots.Invalidate(ctx, booking.DoctorID, booking.Date.Format("2006-01-02"))
	}

	s.log.Info("Booking status updated",
		zap.String("booking_id", bookingID),
		zap.String("action", action),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	resp := response.BookingToResponse(updated)
	return &resp, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID string, kind entity.BookingKind, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID %s", ErrValidation, userID)
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, userUUID, kind, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userUUID, kind)
	if err != nil {
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	items := make([]response.BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = response.BookingToResponse(b)
	}

	return response.NewPaginatedResponse(items, req.Page, req.PerPage, total), nil
}

func (s *bookingService) GetAvailableSlots(ctx context.Context, doctorID, date string) (*response.AvailableSlotsResponse, error) {
	doctorUUID, err := uuid.Parse(doctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid doctor ID %s", ErrValidation, doctorID)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: invalid date %s", ErrValidation, date)
	}

	doctor, err := s.repo.Doctor.FindActiveByID(ctx, doctorUUID)
	if err != nil {
		if errors.Is(err, repository.ErrDoctorNotFound) {
			return nil, fmt.Errorf("%w: doctor %s", ErrNotFound, doctorID)
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	var booked []string
	cached := false
	if s.slots != nil {
		booked, cached = s.slots.Get(ctx, doctorUUID, date)
	}

	if !cached {
		booked, err = s.repo.Booking.FindBookedSlots(ctx, doctorUUID, date)
		if err != nil {
			return nil, fmt.Errorf("load booked slots: %w", err)
		}
		if s.slots != nil {
			s.slots.Set(ctx, doctorUUID, date, booked)
		}
	}

	bookedSet := make(map[string]bool, len(booked))
	for _, slot := range booked {
		bookedSet[slot] = true
	}

	available := make([]string, 0, len(appointmentSlots))
	for _, slot := range appointmentSlots {
		if !bookedSet[slot] {
			available = append(available, slot)
		}
	}

	return &response.AvailableSlotsResponse{
		DoctorID:       doctorID,
		DoctorName:     doctor.Name,
		Date:           date,
		AvailableSlots: available,
		BookedSlots:    booked,
	}, nil
}
