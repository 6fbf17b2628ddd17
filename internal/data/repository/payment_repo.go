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

const paymentColumns = `id, user_id, booking_kind, booking_id, amount, currency, gateway, idempotency_key, gateway_order_id, gateway_payment_id, status, failure_reason, metadata, created_at, updated_at`

type PaymentRepository interface {
	// Insert persists a new pending payment. On an idempotency-key collision
	// it returns the stored row: with a nil error when that row already has
	// a gateway order id (the retry can reuse it), or ErrDuplicateIdemKey
	// when a sibling request is still in flight.
	Insert(ctx context.Context, payment *entity.Payment) (*entity.Payment, error)

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error)
	FindByOrderID(ctx context.Context, orderID string) (*entity.Payment, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payment, error)

	// TransitionByOrderID moves the pending payment for orderID into a
	// terminal status with a single conditional update. Two concurrent
	// webhook deliveries cannot both apply it: the loser gets
	// ErrAlreadyTerminal.
	TransitionByOrderID(ctx context.Context, orderID string, to entity.PaymentStatus, gatewayPaymentID *string, failureReason *string) (*entity.Payment, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.BookingKind,
		&p.BookingID,
		&p.Amount,
		&p.Currency,
		&p.Gateway,
		&p.IdempotencyKey,
		&p.GatewayOrderID,
		&p.GatewayPaymentID,
		&p.Status,
		&p.FailureReason,
		&p.Metadata,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) Insert(ctx context.Context, payment *entity.Payment) (*entity.Payment, error) {
	query := `
		INSERT INTO payments (id, user_id, booking_kind, booking_id, amount, currency, gateway, idempotency_key, gateway_order_id, gateway_payment_id, status, failure_reason, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.UserID,
		payment.BookingKind,
		payment.BookingID,
		payment.Amount,
		payment.Currency,
		payment.Gateway,
		payment.IdempotencyKey,
		payment.GatewayOrderID,
		payment.GatewayPaymentID,
		payment.Status,
		payment.FailureReason,
		payment.Metadata,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			existing, ferr := r.FindByIdempotencyKey(ctx, payment.IdempotencyKey)
			if ferr != nil {
				return nil, ferr
			}
			if existing != nil && existing.GatewayOrderID != "" {
				return existing, nil
			}
			return existing, ErrDuplicateIdemKey
		}
		r.log.Error("Failed to insert payment",
			zap.Error(err),
			zap.String("idempotency_key", payment.IdempotencyKey),
			zap.String("gateway_order_id", payment.GatewayOrderID),
		)
		return nil, fmt.Errorf("insert payment %s: %w", payment.IdempotencyKey, err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by ID",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("find payment by ID %s: %w", id.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by idempotency key",
			zap.Error(err),
			zap.String("idempotency_key", key),
		)
		return nil, fmt.Errorf("find payment by idempotency key %s: %w", key, err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByOrderID(ctx context.Context, orderID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_order_id = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by order ID",
			zap.Error(err),
			zap.String("gateway_order_id", orderID),
		)
		return nil, fmt.Errorf("find payment by order ID %s: %w", orderID, err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find payments by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find payments by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

func (r *paymentRepository) TransitionByOrderID(ctx context.Context, orderID string, to entity.PaymentStatus, gatewayPaymentID *string, failureReason *string) (*entity.Payment, error) {
	query := `
		UPDATE payments
		SET status = $2,
		    gateway_payment_id = COALESCE($3, gateway_payment_id),
		    failure_reason = $4,
		    updated_at = NOW()
		WHERE gateway_order_id = $1 AND status = 'pending'
		RETURNING ` + paymentColumns + `
	`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, orderID, to, gatewayPaymentID, failureReason))
	if errors.Is(err, pgx.ErrNoRows) {
		existing, ferr := r.FindByOrderID(ctx, orderID)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, ErrPaymentNotFound
		}
		return existing, ErrAlreadyTerminal
	}
	if err != nil {
		r.log.Error("Failed to transition payment status",
			zap.Error(err),
			zap.String("gateway_order_id", orderID),
			zap.String("to", string(to)),
		)
		return nil, fmt.Errorf("transition payment %s to %s: %w", orderID, string(to), err)
	}

	return payment, nil
}
