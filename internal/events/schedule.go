package events

import (
	"fmt"
	"time"

	"github.com/randopony/backend/config"
	"github.com/randopony/backend/internal/models"
)

// Rules computes event visibility states from an explicit reference time.
// The three predicates are independent; archived takes precedence in
// rendering decisions but callers combine them as they need.
type Rules struct {
	// TZOffset is the fixed offset between the server clock and the
	// events' local clock (server ahead = positive).
	TZOffset time.Duration
	// Grace is the window after a brevet's official start during which the
	// "registration closed" message is suppressed.
	Grace time.Duration
	// ArchiveAfter is how long after the event date the page switches to a
	// results pointer.
	ArchiveAfter time.Duration
	// ResultsHost hosts the club's year-end results pages.
	ResultsHost string
}

// NewRules builds Rules from registration config.
func NewRules(cfg config.RegistrationConfig) Rules {
	return Rules{
		TZOffset:     time.Duration(cfg.TZOffsetHours) * time.Hour,
		Grace:        time.Duration(cfg.GraceHours) * time.Hour,
		ArchiveAfter: time.Duration(cfg.ArchiveDays) * 24 * time.Hour,
		ResultsHost:  cfg.ResultsHost,
	}
}

// CloseTime returns the instant registration closes, in server time.
// Brevets close at noon the calendar day before the event; populaires close
// at their stored timestamp. Both are adjusted by the server TZ offset.
func (r Rules) CloseTime(ev *models.Event) time.Time {
	if ev.Type == models.EventTypePopulaire && ev.RegistrationCloses != nil {
		return ev.RegistrationCloses.Add(r.TZOffset)
	}
	d := ev.Date.AddDate(0, 0, -1)
	noon := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, d.Location())
	return noon.Add(r.TZOffset)
}

// RegistrationClosed reports whether registration has closed as of now.
func (r Rules) RegistrationClosed(ev *models.Event, now time.Time) bool {
	return !now.Before(r.CloseTime(ev))
}

// Started reports whether the ride is under way as of now. Used only to
// suppress the "registration closed" message once riders are on the road.
func (r Rules) Started(ev *models.Event, now time.Time) bool {
	grace := time.Duration(0)
	if ev.Type == models.EventTypeBrevet {
		grace = r.Grace
	}
	return !now.Before(ev.StartDateTime().Add(grace).Add(r.TZOffset))
}

// Archived reports whether the event date is beyond the archive window.
// Archived events stop showing registration UI and point at the results page.
// The comparison is between calendar dates: both sides are normalized to
// UTC midnight so a non-UTC server clock cannot shift the boundary.
func (r Rules) Archived(ev *models.Event, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	evDay := time.Date(ev.Date.Year(), ev.Date.Month(), ev.Date.Day(), 0, 0, 0, 0, time.UTC)
	return evDay.Before(today.Add(-r.ArchiveAfter))
}

// ResultsURL returns the year-end results page for an archived event.
func (r Rules) ResultsURL(ev *models.Event) string {
	yy := ev.Date.Year() % 100
	return fmt.Sprintf("https://%s/results/%02d_times/%02d_times.html", r.ResultsHost, yy, yy)
}
