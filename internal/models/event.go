package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType distinguishes the two kinds of timed rides the club runs.
type EventType string

const (
	EventTypeBrevet    EventType = "brevet"
	EventTypePopulaire EventType = "populaire"
)

// Regions maps brevet region codes to display names. Populaires carry no
// region; their URL key is the bare short name.
var Regions = map[string]string{
	"LM": "Lower Mainland",
	"PR": "Peace Region",
	"SI": "Southern Interior",
	"SW": "Super Week",
	"VI": "Vancouver Island",
}

// Event is a ride open for pre-registration. Brevets carry a region and a
// fixed distance code (200..1000); populaires carry a short name and may
// offer several distances. The natural key is (region+code, date).
type Event struct {
	ID                 uuid.UUID  `json:"id"`
	Type               EventType  `json:"event_type"`
	Region             string     `json:"region,omitempty"` // empty for populaires
	EventCode          string     `json:"event_code"`       // "300" for a brevet, "VicPop" for a populaire
	RouteName          string     `json:"route_name,omitempty"`
	Date               time.Time  `json:"date"` // date only
	StartTime          string     `json:"start_time"` // HH:MM, event-local
	AltStartTime       string     `json:"alt_start_time,omitempty"`
	Location           string     `json:"location"`
	OrganizerEmail     string     `json:"organizer_email"` // comma-separated list
	RegistrationCloses *time.Time `json:"registration_closes,omitempty"` // populaires only
	InfoQuestion       string     `json:"info_question,omitempty"`
	Distances          string     `json:"distances,omitempty"` // comma-separated km values, populaires only
	EntryFormURL       string     `json:"entry_form_url,omitempty"`
	EntryFormURLLabel  string     `json:"entry_form_url_label,omitempty"`
	GoogleDocID        string     `json:"google_doc_id,omitempty"` // rider-list spreadsheet, assigned lazily
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// DateLayout is the date segment of event URLs, e.g. 01May2010.
const DateLayout = "02Jan2006"

// URLKey returns the event segment of the URL, e.g. "LM300" or "VicPop".
func (e *Event) URLKey() string {
	if e.Region == "" {
		return e.EventCode
	}
	return e.Region + e.EventCode
}

// Path returns the site-relative page path for the event.
func (e *Event) Path() string {
	return fmt.Sprintf("/events/%s/%s", e.URLKey(), e.Date.Format(DateLayout))
}

// UUID returns the URL-namespace uuid for the event, used as the
// unguessable token on the rider-emails endpoint.
func (e *Event) UUID() uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(e.Path()))
}

// String renders the event the way it appears in email subjects,
// e.g. "LM300 01-May-2010".
func (e *Event) String() string {
	return fmt.Sprintf("%s %s", e.URLKey(), e.Date.Format("02-Jan-2006"))
}

// OrganizerAddresses splits the comma-separated organizer email list,
// tolerating spaces after the commas.
func (e *Event) OrganizerAddresses() []string {
	var out []string
	for _, addr := range strings.Split(e.OrganizerEmail, ",") {
		if a := strings.TrimSpace(addr); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// DistanceChoices returns the offered distances in km. Brevets have exactly
// one, taken from the event code.
func (e *Event) DistanceChoices() []int {
	if e.Type == EventTypeBrevet {
		if km, err := strconv.Atoi(e.EventCode); err == nil {
			return []int{km}
		}
		return nil
	}
	var out []int
	for _, d := range strings.Split(e.Distances, ",") {
		d = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(d), "km"))
		if km, err := strconv.Atoi(strings.TrimSpace(d)); err == nil {
			out = append(out, km)
		}
	}
	return out
}

// MultiDistance reports whether the registration form needs a distance choice.
func (e *Event) MultiDistance() bool {
	return len(e.DistanceChoices()) > 1
}

// StartDateTime combines the event date and HH:MM start time.
func (e *Event) StartDateTime() time.Time {
	hh, mm := 0, 0
	if parts := strings.SplitN(e.StartTime, ":", 2); len(parts) == 2 {
		hh, _ = strconv.Atoi(parts[0])
		mm, _ = strconv.Atoi(parts[1])
	}
	d := e.Date
	return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, d.Location())
}
