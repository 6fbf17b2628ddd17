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

const webhookColumns = `id, event_id, event_type, gateway, gateway_order_id, gateway_payment_id, payment_id, signature_verified, processed, processed_at, processing_error, created_at`

type WebhookEventRepository interface {
	// Insert records the first sight of a provider event ID. A duplicate
	// event ID returns the stored row together with ErrDuplicateWebhookID,
	// which is the idempotency boundary for at-least-once delivery.
	Insert(ctx context.Context, event *entity.WebhookEvent) (*entity.WebhookEvent, error)

	FindByEventID(ctx context.Context, eventID string) (*entity.WebhookEvent, error)

	// MarkProcessed flips the processed flag. procErr, when non-nil, records
	// a terminal anomaly (e.g. webhook for an unknown order).
	MarkProcessed(ctx context.Context, eventID string, paymentID *uuid.UUID, procErr *string) error
}

type webhookEventRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewWebhookEventRepository(db database.PgxIface, log *zap.Logger) WebhookEventRepository {
	return &webhookEventRepository{
		db:  db,
		log: log.With(zap.String("repository", "webhook_event")),
	}
}

func scanWebhookEvent(row pgx.Row) (*entity.WebhookEvent, error) {
	var e entity.WebhookEvent
	err := row.Scan(
		&e.ID,
		&e.EventID,
		&e.EventType,
		&e.Gateway,
		&e.GatewayOrderID,
		&e.GatewayPaymentID,
		&e.PaymentID,
		&e.SignatureVerified,
		&e.Processed,
		&e.ProcessedAt,
		&e.ProcessingError,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *webhookEventRepository) Insert(ctx context.Context, event *entity.WebhookEvent) (*entity.WebhookEvent, error) {
	query := `
		INSERT INTO webhook_events (id, event_id, event_type, gateway, gateway_order_id, gateway_payment_id, payment_id, signature_verified, processed, processed_at, processing_error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.EventID,
		event.EventType,
		event.Gateway,
		event.GatewayOrderID,
		event.GatewayPaymentID,
		event.PaymentID,
		event.SignatureVerified,
		event.Processed,
		event.ProcessedAt,
		event.ProcessingError,
		event.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			existing, ferr := r.FindByEventID(ctx, event.EventID)
			if ferr != nil {
				return nil, ferr
			}
			return existing, ErrDuplicateWebhookID
		}
		r.log.Error("Failed to insert webhook event",
			zap.Error(err),
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
		)
		return nil, fmt.Errorf("insert webhook event %s: %w", event.EventID, err)
	}

	return event, nil
}

func (r *webhookEventRepository) FindByEventID(ctx context.Context, eventID string) (*entity.WebhookEvent, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhook_events WHERE event_id = $1`

	event, err := scanWebhookEvent(r.db.QueryRow(ctx, query, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find webhook event",
			zap.Error(err),
			zap.String("event_id", eventID),
		)
		return nil, fmt.Errorf("find webhook event %s: %w", eventID, err)
	}

	return event, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, eventID string, paymentID *uuid.UUID, procErr *string) error {
	query := `
		UPDATE webhook_events
		SET processed = true,
		    processed_at = NOW(),
		    payment_id = COALESCE($2, payment_id),
		    processing_error = $3
		WHERE event_id = $1
	`

	result, err := r.db.Exec(ctx, query, eventID, paymentID, procErr)
	if err != nil {
		r.log.Error("Failed to mark webhook event processed",
			zap.Error(err),
			zap.String("event_id", eventID),
		)
		return fmt.Errorf("mark webhook event %s processed: %w", eventID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrWebhookEventMissing
	}

	return nil
}
