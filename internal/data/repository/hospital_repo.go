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

const hospitalColumns = `id, name, city, address, phone, status, linked_account_id, created_at, updated_at`

type HospitalRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Hospital, error)
	FindApprovedByCity(ctx context.Context, city string, limit, offset int) ([]*entity.Hospital, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.HospitalStatus) error
	SetLinkedAccount(ctx context.Context, id uuid.UUID, accountID string) error
}

type hospitalRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewHospitalRepository(db database.PgxIface, log *zap.Logger) HospitalRepository {
	return &hospitalRepository{
		db:  db,
		log: log.With(zap.String("repository", "hospital")),
	}
}

func scanHospital(row pgx.Row) (*entity.Hospital, error) {
	var h entity.Hospital
	err := row.Scan(
		&h.ID,
		&h.Name,
		&h.City,
		&h.Address,
		&h.Phone,
		&h.Status,
		&h.LinkedAccountID,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *hospitalRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Hospital, error) {
	query := `SELECT ` + hospitalColumns + ` FROM hospitals WHERE id = $1`

	hospital, err := scanHospital(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrHospitalNotFound
	}
	if err != nil {
		r.log.Error("Failed to find hospital by ID",
			zap.Error(err),
			zap.String("hospital_id", id.String()),
		)
		return nil, fmt.Errorf("find hospital by ID %s: %w", id.String(), err)
	}

	return hospital, nil
}

func (r *hospitalRepository) FindApprovedByCity(ctx context.Context, city string, limit, offset int) ([]*entity.Hospital, error) {
	query := `
		SELECT ` + hospitalColumns + `
		FROM hospitals
		WHERE city = $1 AND status = 'approved'
		ORDER BY name
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, city, limit, offset)
	if err != nil {
		r.log.Error("Failed to find approved hospitals by city",
			zap.Error(err),
			zap.String("city", city),
		)
		return nil, fmt.Errorf("find approved hospitals in %s: %w", city, err)
	}
	defer rows.Close()

	var hospitals []*entity.Hospital
	for rows.Next() {
		hospital, err := scanHospital(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hospital row: %w", err)
		}
		hospitals = append(hospitals, hospital)
	}

	return hospitals, rows.Err()
}

func (r *hospitalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.HospitalStatus) error {
	query := `UPDATE hospitals SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.Error("Failed to update hospital status",
			zap.Error(err),
			zap.String("hospital_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update hospital %s status to %s: %w", id.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return ErrHospitalNotFound
	}

	return nil
}

func (r *hospitalRepository) SetLinkedAccount(ctx context.Context, id uuid.UUID, accountID string) error {
	query := `UPDATE hospitals SET linked_account_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, accountID)
	if err != nil {
		r.log.Error("Failed to set hospital linked account",
			zap.Error(err),
			zap.String("hospital_id", id.String()),
		)
		return fmt.Errorf("set linked account for hospital %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return ErrHospitalNotFound
	}

	return nil
}
