package models

import (
	"time"

	"github.com/google/uuid"
)

// Rider is a person who has pre-registered for one event. Rows are never
// mutated after creation.
type Rider struct {
	ID         uuid.UUID `json:"id"`
	EventID    uuid.UUID `json:"event_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Distance   int       `json:"distance,omitempty"` // km; 0 when the event has a single distance
	InfoAnswer string    `json:"info_answer,omitempty"`
	ClubMember bool      `json:"club_member"` // brevets only
	CreatedAt  time.Time `json:"created_at"`
}

// FullName returns the rider's full name.
func (r *Rider) FullName() string {
	return r.FirstName + " " + r.LastName
}
