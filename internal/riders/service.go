package riders

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/randopony/backend/internal/models"
	"github.com/randopony/backend/pkg/queue"
)

// ErrRegistrationClosed is returned when the event's registration window has
// passed (or the event is archived). Surfaced as not-found to the caller:
// the form should not have been reachable.
var ErrRegistrationClosed = errors.New("registration closed")

// Store is the rider persistence the workflow needs.
type Store interface {
	FindDuplicate(ctx context.Context, eventID uuid.UUID, firstName, lastName, email string) (*models.Rider, error)
	Create(ctx context.Context, rider *models.Rider) error
}

// Notifier enqueues the post-registration notification jobs.
type Notifier interface {
	EnqueueRiderEmail(ctx context.Context, payload queue.NotificationPayload) error
	EnqueueOrganizerEmail(ctx context.Context, payload queue.NotificationPayload) error
	EnqueueSpreadsheetSync(ctx context.Context, payload queue.NotificationPayload) error
}

// Schedule answers whether an event is open for registration at a given time.
type Schedule interface {
	RegistrationClosed(ev *models.Event, now time.Time) bool
	Archived(ev *models.Event, now time.Time) bool
}

// Form carries a registration form submission.
type Form struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Distance   int    `json:"distance,omitempty"`
	InfoAnswer string `json:"info_answer,omitempty"`
	ClubMember bool   `json:"club_member"`
	Captcha    *int   `json:"captcha"`
}

// Outcome is the result of a registration that was not rejected: either a
// new rider, or the pre-existing rider for a duplicate submission.
type Outcome struct {
	Rider     *models.Rider
	Duplicate bool
}

// Service runs the registration workflow: closed check, validation,
// duplicate detection, the single persistence write, and notification
// enqueueing. Persistence strictly precedes enqueueing so a crash between
// the two leaves an already-registered rider, never a lost signup.
type Service struct {
	store         Store
	notifier      Notifier
	schedule      Schedule
	captchaAnswer int
	logger        *zap.Logger
}

// NewService creates a registration workflow service.
func NewService(store Store, notifier Notifier, schedule Schedule, captchaAnswer int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:         store,
		notifier:      notifier,
		schedule:      schedule,
		captchaAnswer: captchaAnswer,
		logger:        logger,
	}
}

// Register processes a submission for an event as of the given time.
// Returns ErrRegistrationClosed when the window has passed, a non-empty
// field-error map when validation fails, or an Outcome.
func (s *Service) Register(ctx context.Context, ev *models.Event, form Form, now time.Time) (*Outcome, map[string]string, error) {
	if s.schedule.Archived(ev, now) || s.schedule.RegistrationClosed(ev, now) {
		return nil, nil, ErrRegistrationClosed
	}

	form.FirstName = strings.TrimSpace(form.FirstName)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Email = strings.TrimSpace(form.Email)
	form.InfoAnswer = strings.TrimSpace(form.InfoAnswer)

	if errs := s.validate(ev, form); len(errs) > 0 {
		return nil, errs, nil
	}

	dup, err := s.store.FindDuplicate(ctx, ev.ID, form.FirstName, form.LastName, form.Email)
	if err != nil {
		return nil, nil, err
	}
	if dup != nil {
		return &Outcome{Rider: dup, Duplicate: true}, nil, nil
	}

	rider := &models.Rider{
		EventID:    ev.ID,
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		Email:      form.Email,
		InfoAnswer: form.InfoAnswer,
		ClubMember: ev.Type == models.EventTypeBrevet && form.ClubMember,
	}
	if ev.MultiDistance() {
		rider.Distance = form.Distance
	} else if choices := ev.DistanceChoices(); len(choices) == 1 {
		rider.Distance = choices[0]
	}
	if err := s.store.Create(ctx, rider); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// lost the check-then-insert race to a concurrent submit
			dup, findErr := s.store.FindDuplicate(ctx, ev.ID, form.FirstName, form.LastName, form.Email)
			if findErr != nil || dup == nil {
				return nil, nil, err
			}
			return &Outcome{Rider: dup, Duplicate: true}, nil, nil
		}
		return nil, nil, err
	}

	s.enqueueNotifications(ctx, ev, rider)
	return &Outcome{Rider: rider}, nil, nil
}

func (s *Service) validate(ev *models.Event, form Form) map[string]string {
	errs := make(map[string]string)
	if form.FirstName == "" {
		errs["first_name"] = "This field is required."
	}
	if form.LastName == "" {
		errs["last_name"] = "This field is required."
	}
	if form.Email == "" {
		errs["email"] = "This field is required."
	} else if _, err := mail.ParseAddress(form.Email); err != nil {
		errs["email"] = "Enter a valid email address."
	}
	if ev.InfoQuestion != "" && form.InfoAnswer == "" {
		errs["info_answer"] = "This field is required."
	}
	if ev.MultiDistance() && !validDistance(ev, form.Distance) {
		errs["distance"] = "Choose one of the event distances."
	}
	if form.Captcha == nil {
		errs["captcha"] = "This field is required."
	} else if *form.Captcha != s.captchaAnswer {
		errs["captcha"] = "Wrong! See hint."
	}
	return errs
}

func validDistance(ev *models.Event, km int) bool {
	for _, choice := range ev.DistanceChoices() {
		if km == choice {
			return true
		}
	}
	return false
}

// enqueueNotifications fires the three best-effort notification jobs. The
// rider is already durably stored; an enqueue failure is logged and left to
// the admin email log, never surfaced to the rider.
func (s *Service) enqueueNotifications(ctx context.Context, ev *models.Event, rider *models.Rider) {
	payload := queue.NotificationPayload{EventID: ev.ID, RiderID: rider.ID}
	if err := s.notifier.EnqueueRiderEmail(ctx, payload); err != nil {
		s.logger.Error("enqueue rider email failed", zap.Error(err), zap.String("rider_id", rider.ID.String()))
	}
	if err := s.notifier.EnqueueOrganizerEmail(ctx, payload); err != nil {
		s.logger.Error("enqueue organizer email failed", zap.Error(err), zap.String("rider_id", rider.ID.String()))
	}
	if err := s.notifier.EnqueueSpreadsheetSync(ctx, queue.NotificationPayload{EventID: ev.ID}); err != nil {
		s.logger.Error("enqueue spreadsheet sync failed", zap.Error(err), zap.String("event_id", ev.ID.String()))
	}
}
