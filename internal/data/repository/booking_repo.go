package repository

import (
	"context"
	"errors"
	"fmt"

	"hospital-booking/internal/data/entity"
	"hospital-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const bookingColumns = `id, kind, user_id, doctor_id, hospital_id, date, time_slot, specialty, reason, status, created_at, updated_at`

type BookingRepository interface {
	// CheckAndInsert persists a pending booking. The conflict check and the
	// insert are a single statement backed by a partial unique index over
	// (doctor_id, date, time_slot, kind) excluding cancelled rows, so a
	// losing concurrent insert gets ErrSlotConflict instead of a duplicate.
	CheckAndInsert(ctx context.Context, booking *entity.Booking) error

	FindByID(ctx context.Context, kind entity.BookingKind, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, kind entity.BookingKind, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID, kind entity.BookingKind) (int64, error)
	FindByDoctorID(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	FindBookedSlots(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)

	// TransitionStatus applies from -> to as one conditional update. It
	// returns ErrInvalidTransition when the row exists but is no longer in
	// the expected source status, so concurrent transitions cannot both win.
	TransitionStatus(ctx context.Context, kind entity.BookingKind, id uuid.UUID, from, to entity.BookingStatus) (*entity.Booking, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.Kind,
		&b.UserID,
		&b.DoctorID,
		&b.HospitalID,
		&b.Date,
		&b.TimeSlot,
		&b.Specialty,
		&b.Reason,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) CheckAndInsert(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, kind, user_id, doctor_id, hospital_id, date, time_slot, specialty, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.Kind,
		booking.UserID,
		booking.DoctorID,
		booking.HospitalID,
		booking.Date,
		booking.TimeSlot,
		booking.Specialty,
		booking.Reason,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotConflict
		}
		r.log.Error("Failed to insert booking",
			zap.Error(err),
			zap.String("doctor_id", booking.DoctorID.String()),
			zap.String("kind", string(booking.Kind)),
		)
		return fmt.Errorf("insert booking for doctor %s: %w", booking.DoctorID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, kind entity.BookingKind, id uuid.UUID) (*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1 AND kind = $2
	`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id, kind))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, kind entity.BookingKind, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND kind = $2
		ORDER BY date DESC, time_slot DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, userID, kind, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID, kind entity.BookingKind) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = $1 AND kind = $2`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID, kind).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) FindByDoctorID(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE doctor_id = $1
		ORDER BY date, time_slot
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, doctorID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by doctor ID",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
		)
		return nil, fmt.Errorf("find bookings by doctor ID %s: %w", doctorID.String(), err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) FindBookedSlots(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	query := `
		SELECT time_slot
		FROM bookings
		WHERE doctor_id = $1 AND date = $2 AND kind = 'appointment' AND status <> 'cancelled'
	`

	rows, err := r.db.Query(ctx, query, doctorID, date)
	if err != nil {
		r.log.Error("Failed to find booked slots",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
			zap.String("date", date),
		)
		return nil, fmt.Errorf("find booked slots for doctor %s: %w", doctorID.String(), err)
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("scan booked slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

func (r *bookingRepository) TransitionStatus(ctx context.Context, kind entity.BookingKind, id uuid.UUID, from, to entity.BookingStatus) (*entity.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND kind = $2 AND status = $4
		RETURNING ` + bookingColumns + `
	`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id, kind, to, from))
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing row from one that already moved on.
		if _, ferr := r.FindByID(ctx, kind, id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrInvalidTransition
	}
	if err != nil {
		r.log.Error("Failed to transition booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return nil, fmt.Errorf("transition booking %s to %s: %w", id.String(), string(to), err)
	}

	return booking, nil
}

func collectBookings(rows pgx.Rows) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}
