package emaillog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/randopony/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create upserts the log row for a notification in queued status and fills
// in its id. There is one row per (event, rider, email_type); delivery
// retries and admin resends re-queue that row instead of stacking new ones.
func (r *Repository) Create(ctx context.Context, el *models.EmailLog) error {
	const q = `INSERT INTO email_logs (event_id, rider_id, email_type, recipient_email, subject, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id, rider_id, email_type) DO UPDATE
			SET recipient_email = EXCLUDED.recipient_email,
			    subject = EXCLUDED.subject,
			    status = EXCLUDED.status,
			    error_message = NULL
		RETURNING id, created_at`
	if el.Status == "" {
		el.Status = models.EmailLogStatusQueued
	}
	return r.pool.QueryRow(ctx, q, el.EventID, el.RiderID, el.EmailType,
		el.RecipientEmail, el.Subject, el.Status).Scan(&el.ID, &el.CreatedAt)
}

// MarkSent records a successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE email_logs SET status = 'sent', sent_at = NOW(), error_message = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// MarkFailed records a failed delivery with its error.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	const q = `UPDATE email_logs SET status = 'failed', error_message = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, errMsg)
	return err
}

// ListByEvent returns email logs for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EmailLog, error) {
	const q = `SELECT id, event_id, rider_id, email_type, recipient_email,
			COALESCE(subject, ''), status, sent_at, COALESCE(error_message, ''), created_at
		FROM email_logs WHERE event_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		if err := rows.Scan(&el.ID, &el.EventID, &el.RiderID, &el.EmailType, &el.RecipientEmail,
			&el.Subject, &el.Status, &el.SentAt, &el.ErrorMessage, &el.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, el)
	}
	return list, rows.Err()
}
