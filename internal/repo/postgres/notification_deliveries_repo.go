package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/delivery"
	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationDeliveriesRepo makes offer notifications at-most-once per
// (kind, offer, recipient) even when the job that sends them is retried.
type NotificationDeliveriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewNotificationDeliveriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *NotificationDeliveriesRepo {
	return &NotificationDeliveriesRepo{pool: pool, prom: prom}
}

func (r *NotificationDeliveriesRepo) observe(op string, fn func() error) error {
	return observeDB(r.prom, op, fn)
}

// TryStart claims the delivery for jobID. It returns delivery.ErrAlreadySent
// or delivery.ErrInProgress when another attempt owns the row.
func (r *NotificationDeliveriesRepo) TryStart(ctx context.Context, jobID, kind, offerID, recipientID string) error {
	err := r.observe("notification_deliveries.insert", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO notification_deliveries (kind, offer_id, recipient_id, job_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'sending', NOW(), NOW())
		`, kind, offerID, recipientID, jobID)
		return err
	})
	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return err
	}

	// Only one worker can flip failed -> sending.
	var claimed int64
	err = r.observe("notification_deliveries.reclaim", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'sending',
			    job_id = $4,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE kind = $1 AND offer_id = $2 AND recipient_id = $3 AND status = 'failed'
		`, kind, offerID, recipientID, jobID)
		if err != nil {
			return err
		}
		claimed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	if claimed == 1 {
		return nil
	}

	var status string
	var sentAt *time.Time

	err = r.observe("notification_deliveries.status", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT status, sent_at
			FROM notification_deliveries
			WHERE kind = $1 AND offer_id = $2 AND recipient_id = $3
		`, kind, offerID, recipientID).Scan(&status, &sentAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	if sentAt != nil || status == "sent" {
		return delivery.ErrAlreadySent
	}
	return delivery.ErrInProgress
}

func (r *NotificationDeliveriesRepo) MarkSent(ctx context.Context, kind, offerID, recipientID string, providerMessageID *string) error {
	return r.observe("notification_deliveries.mark_sent", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'sent',
			    sent_at = NOW(),
			    provider_message_id = $4,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE kind = $1 AND offer_id = $2 AND recipient_id = $3
		`, kind, offerID, recipientID, providerMessageID)
		return err
	})
}

func (r *NotificationDeliveriesRepo) MarkFailed(ctx context.Context, kind, offerID, recipientID, errMsg string) error {
	return r.observe("notification_deliveries.mark_failed", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'failed',
			    last_error = $4,
			    updated_at = NOW()
			WHERE kind = $1 AND offer_id = $2 AND recipient_id = $3
		`, kind, offerID, recipientID, errMsg)
		return err
	})
}
