package models

import "time"

// Well-known link keys.
const (
	LinkEventWaiver    = "event_waiver_url"
	LinkMembershipForm = "membership_form_url"
)

// Well-known email address keys.
const (
	EmailAddressFrom = "from_randopony"
)

// Link is a site-level URL stored in the database instead of in config, so
// admins can update it without a deploy.
type Link struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmailAddress is a site-level email address stored in the database,
// e.g. the fixed system sender used in the Sender header.
type EmailAddress struct {
	Key       string    `json:"key"`
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updated_at"`
}
