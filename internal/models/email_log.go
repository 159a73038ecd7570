package models

import (
	"time"

	"github.com/google/uuid"
)

// Email types recorded in the log.
const (
	EmailTypeRiderConfirmation     = "rider_confirmation"
	EmailTypeOrganizerNotification = "organizer_notification"
)

// Email log delivery statuses.
const (
	EmailLogStatusQueued = "queued"
	EmailLogStatusSent   = "sent"
	EmailLogStatusFailed = "failed"
)

// EmailLog records the outcome of each notification email send attempt.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	EventID        uuid.UUID  `json:"event_id"`
	RiderID        uuid.UUID  `json:"rider_id"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
