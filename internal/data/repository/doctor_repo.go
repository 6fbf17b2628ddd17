package repository

import (
	"context"
	"errors"
	"fmt"

	"hospital-booking/internal/data/entity"
	"hospital-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const doctorColumns = `id, name, user_id, hospital_id, specialty, phone, is_active, created_at, updated_at`

type DoctorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error)
	FindByHospitalID(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*entity.Doctor, error)
}

type doctorRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewDoctorRepository(db database.PgxIface, log *zap.Logger) DoctorRepository {
	return &doctorRepository{
		db:  db,
		log: log.With(zap.String("repository", "doctor")),
	}
}

func scanDoctor(row pgx.Row) (*entity.Doctor, error) {
	var d entity.Doctor
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.UserID,
		&d.HospitalID,
		&d.Specialty,
		&d.Phone,
		&d.IsActive,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	doctor, err := scanDoctor(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		r.log.Error("Failed to find doctor by ID",
			zap.Error(err),
			zap.String("doctor_id", id.String()),
		)
		return nil, fmt.Errorf("find doctor by ID %s: %w", id.String(), err)
	}

	return doctor, nil
}

func (r *doctorRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1 AND is_active = true`

	doctor, err := scanDoctor(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		r.log.Error("Failed to find active doctor by ID",
			zap.Error(err),
			zap.String("doctor_id", id.String()),
		)
		return nil, fmt.Errorf("find active doctor by ID %s: %w", id.String(), err)
	}

	return doctor, nil
}

func (r *doctorRepository) FindByHospitalID(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*entity.Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctors
		WHERE hospital_id = $1 AND is_active = true
		ORDER BY name
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, hospitalID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find doctors by hospital ID",
			zap.Error(err),
			zap.String("hospital_id", hospitalID.String()),
		)
		return nil, fmt.Errorf("find doctors by hospital ID %s: %w", hospitalID.String(), err)
	}
	defer rows.Close()

	var doctors []*entity.Doctor
	for rows.Next() {
		doctor, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan doctor row: %w", err)
		}
		doctors = append(doctors, doctor)
	}

	return doctors, rows.Err()
}
