package usecase

import (
	"context"
	"errors"
	"fmt"

	"hospital-booking/internal/data/entity"
	"hospital-booking/internal/data/repository"
	"hospital-booking/internal/dto/request"
	"hospital-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HospitalService interface {
	// UpdateStatus approves or rejects a pending hospital (admin only;
	// enforced at the route level).
	UpdateStatus(ctx context.Context, hospitalID, action string) (*response.HospitalResponse, error)

	// LinkAccount stores the gateway sub-account used as the payout
	// destination for the hospital's split transfers.
	LinkAccount(ctx context.Context, hospitalID, accountID string) (*response.HospitalResponse, error)

	ListByCity(ctx context.Context, city string, req *request.PaginatedRequest) ([]response.HospitalResponse, error)
	ListDoctors(ctx context.Context, hospitalID string, req *request.PaginatedRequest) ([]response.DoctorResponse, error)
}

type hospitalService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewHospitalService(repo *repository.Repository, log *zap.Logger) HospitalService {
	return &hospitalService{
		repo: repo,
		log:  log.With(zap.String("service", "hospital")),
	}
}

func (s *hospitalService) UpdateStatus(ctx context.Context, hospitalID, action string) (*response.HospitalResponse, error) {
	id, err := uuid.Parse(hospitalID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hospital ID %s", ErrValidation, hospitalID)
	}

	var status entity.HospitalStatus
	switch action {
	case "approve":
		status = entity.HospitalStatusApproved
	case "reject":
		status = entity.HospitalStatusRejected
	default:
		return nil, fmt.Errorf("%w: invalid action %s", ErrValidation, action)
	}

	hospital, err := s.loadHospital(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Hospital.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update hospital status: %w", err)
	}
	hospital.Status = status

	s.log.Info("Hospital status updated",
		zap.String("hospital_id", hospitalID),
		zap.String("status", string(status)),
	)

	resp := response.HospitalToResponse(hospital)
	return &resp, nil
}

func (s *hospitalService) LinkAccount(ctx context.Context, hospitalID, accountID string) (*response.HospitalResponse, error) {
	id, err := uuid.Parse(hospitalID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hospital ID %s", ErrValidation, hospitalID)
	}

	hospital, err := s.loadHospital(ctx, id)
	if err != nil {
		return nil, err
	}
	if hospital.Status != entity.HospitalStatusApproved {
		return nil, ErrHospitalNotApproved
	}

	if err := s.repo.Hospital.SetLinkedAccount(ctx, id, accountID); err != nil {
		return nil, fmt.Errorf("link hospital account: %w", err)
	}
	hospital.LinkedAccountID = &accountID

	s.log.Info("Hospital payout account linked", zap.String("hospital_id", hospitalID))

	resp := response.HospitalToResponse(hospital)
	return &resp, nil
}

func (s *hospitalService) ListByCity(ctx context.Context, city string, req *request.PaginatedRequest) ([]response.HospitalResponse, error) {
	hospitals, err := s.repo.Hospital.FindApprovedByCity(ctx, city, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}

	items := make([]response.HospitalResponse, len(hospitals))
	for i, h := range hospitals {
		items[i] = response.HospitalToResponse(h)
	}
	return items, nil
}

func (s *hospitalService) ListDoctors(ctx context.Context, hospitalID string, req *request.PaginatedRequest) ([]response.DoctorResponse, error) {
	id, err := uuid.Parse(hospitalID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hospital ID %s", ErrValidation, hospitalID)
	}

	if _, err := s.loadHospital(ctx, id); err != nil {
		return nil, err
	}

	doctors, err := s.repo.Doctor.FindByHospitalID(ctx, id, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list hospital doctors: %w", err)
	}

	items := make([]response.DoctorResponse, len(doctors))
	for i, d := range doctors {
		items[i] = response.DoctorToResponse(d)
	}
	return items, nil
}

func (s *hospitalService) loadHospital(ctx context.Context, id uuid.UUID) (*entity.Hospital, error) {
	hospital, err := s.repo.Hospital.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHospitalNotFound) {
			return nil, fmt.Errorf("%w: hospital %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("load hospital: %w", err)
	}
	return hospital, nil
}
