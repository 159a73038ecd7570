package riders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/randopony/backend/internal/models"
	"github.com/randopony/backend/pkg/queue"
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	riders    []*models.Rider
	createErr error
}

func (f *fakeStore) FindDuplicate(_ context.Context, eventID uuid.UUID, first, last, email string) (*models.Rider, error) {
	for _, r := range f.riders {
		if r.EventID == eventID && r.FirstName == first && r.LastName == last && r.Email == email {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Create(_ context.Context, rider *models.Rider) error {
	if f.createErr != nil {
		return f.createErr
	}
	rider.ID = uuid.New()
	rider.CreatedAt = time.Now()
	f.riders = append(f.riders, rider)
	return nil
}

// fakeNotifier records enqueued jobs.
type fakeNotifier struct {
	riderEmails     []queue.NotificationPayload
	organizerEmails []queue.NotificationPayload
	sheetSyncs      []queue.NotificationPayload
}

func (f *fakeNotifier) EnqueueRiderEmail(_ context.Context, p queue.NotificationPayload) error {
	f.riderEmails = append(f.riderEmails, p)
	return nil
}

func (f *fakeNotifier) EnqueueOrganizerEmail(_ context.Context, p queue.NotificationPayload) error {
	f.organizerEmails = append(f.organizerEmails, p)
	return nil
}

func (f *fakeNotifier) EnqueueSpreadsheetSync(_ context.Context, p queue.NotificationPayload) error {
	f.sheetSyncs = append(f.sheetSyncs, p)
	return nil
}

// fixedSchedule reports a fixed open/closed state.
type fixedSchedule struct {
	closed   bool
	archived bool
}

func (s fixedSchedule) RegistrationClosed(*models.Event, time.Time) bool { return s.closed }
func (s fixedSchedule) Archived(*models.Event, time.Time) bool           { return s.archived }

func testEvent() *models.Event {
	return &models.Event{
		ID:             uuid.New(),
		Type:           models.EventTypeBrevet,
		Region:         "LM",
		EventCode:      "300",
		Date:           time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC),
		StartTime:      "10:00",
		OrganizerEmail: "organizer@example.com",
	}
}

func intPtr(n int) *int { return &n }

func dougForm() Form {
	return Form{
		FirstName:  "Doug",
		LastName:   "Latornell",
		Email:      "djl@example.com",
		ClubMember: true,
		Captcha:    intPtr(400),
	}
}

func newTestService(store Store, notifier *fakeNotifier, sched Schedule) *Service {
	return NewService(store, notifier, sched, 400, nil)
}

func TestRegisterSuccess(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, fixedSchedule{})
	ev := testEvent()

	outcome, fieldErrs, err := svc.Register(context.Background(), ev, dougForm(), time.Now())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if fieldErrs != nil {
		t.Fatalf("unexpected validation errors: %v", fieldErrs)
	}
	if outcome.Duplicate {
		t.Fatal("new registration flagged as duplicate")
	}
	if len(store.riders) != 1 {
		t.Fatalf("persisted %d riders, want 1", len(store.riders))
	}
	if !store.riders[0].ClubMember {
		t.Error("club_member flag lost")
	}
	if len(notifier.riderEmails) != 1 || len(notifier.organizerEmails) != 1 || len(notifier.sheetSyncs) != 1 {
		t.Errorf("enqueued %d/%d/%d notifications, want 1/1/1",
			len(notifier.riderEmails), len(notifier.organizerEmails), len(notifier.sheetSyncs))
	}
	if notifier.riderEmails[0].RiderID != outcome.Rider.ID {
		t.Error("rider email payload does not reference the new rider")
	}
}

func TestRegisterDuplicateDoesNotInsertOrNotify(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, fixedSchedule{})
	ev := testEvent()

	first, _, err := svc.Register(context.Background(), ev, dougForm(), time.Now())
	if err != nil {
		t.Fatalf("first Register: %v", err)
	}

	second, fieldErrs, err := svc.Register(context.Background(), ev, dougForm(), time.Now())
	if err != nil || fieldErrs != nil {
		t.Fatalf("second Register: err=%v fieldErrs=%v", err, fieldErrs)
	}
	if !second.Duplicate {
		t.Fatal("second submission not flagged as duplicate")
	}
	if second.Rider.ID != first.Rider.ID {
		t.Error("duplicate outcome does not reference the original rider")
	}
	if len(store.riders) != 1 {
		t.Fatalf("persisted %d riders, want 1", len(store.riders))
	}
	if len(notifier.riderEmails) != 1 || len(notifier.organizerEmails) != 1 || len(notifier.sheetSyncs) != 1 {
		t.Error("duplicate submission enqueued notifications")
	}
}

// racingStore simulates losing the check-then-insert race: the duplicate
// pre-check sees nothing, the insert hits the unique index, and the re-check
// finds the concurrent winner's row.
type racingStore struct {
	winner *models.Rider
	checks int
}

func (s *racingStore) FindDuplicate(context.Context, uuid.UUID, string, string, string) (*models.Rider, error) {
	s.checks++
	if s.checks == 1 {
		return nil, nil
	}
	return s.winner, nil
}

func (s *racingStore) Create(context.Context, *models.Rider) error { return ErrDuplicate }

func TestRegisterInsertRaceMapsToDuplicate(t *testing.T) {
	ev := testEvent()
	winner := &models.Rider{
		ID: uuid.New(), EventID: ev.ID,
		FirstName: "Doug", LastName: "Latornell", Email: "djl@example.com",
	}
	notifier := &fakeNotifier{}
	svc := newTestService(&racingStore{winner: winner}, notifier, fixedSchedule{})

	outcome, fieldErrs, err := svc.Register(context.Background(), ev, dougForm(), time.Now())
	if err != nil || fieldErrs != nil {
		t.Fatalf("Register: err=%v fieldErrs=%v", err, fieldErrs)
	}
	if !outcome.Duplicate || outcome.Rider.ID != winner.ID {
		t.Error("race loser not mapped to duplicate outcome")
	}
	if len(notifier.riderEmails) != 0 {
		t.Error("race loser enqueued notifications")
	}
}

func TestRegisterClosedEvent(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeNotifier{}, fixedSchedule{closed: true})

	_, _, err := svc.Register(context.Background(), testEvent(), dougForm(), time.Now())
	if err != ErrRegistrationClosed {
		t.Fatalf("err = %v, want ErrRegistrationClosed", err)
	}
}

func TestRegisterArchivedEvent(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeNotifier{}, fixedSchedule{archived: true})

	_, _, err := svc.Register(context.Background(), testEvent(), dougForm(), time.Now())
	if err != ErrRegistrationClosed {
		t.Fatalf("err = %v, want ErrRegistrationClosed", err)
	}
}

func TestRegisterWrongCaptcha(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeNotifier{}, fixedSchedule{})
	form := dougForm()
	form.Captcha = intPtr(200)

	_, fieldErrs, err := svc.Register(context.Background(), testEvent(), form, time.Now())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if fieldErrs["captcha"] != "Wrong! See hint." {
		t.Errorf("captcha error = %q, want %q", fieldErrs["captcha"], "Wrong! See hint.")
	}
	if len(store.riders) != 0 {
		t.Error("rider persisted despite wrong captcha")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeNotifier{}, fixedSchedule{})

	t.Run("missing required fields", func(t *testing.T) {
		_, fieldErrs, err := svc.Register(context.Background(), testEvent(), Form{}, time.Now())
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		for _, field := range []string{"first_name", "last_name", "email", "captcha"} {
			if fieldErrs[field] == "" {
				t.Errorf("no error for missing %s", field)
			}
		}
	})

	t.Run("malformed email", func(t *testing.T) {
		form := dougForm()
		form.Email = "not-an-address"
		_, fieldErrs, _ := svc.Register(context.Background(), testEvent(), form, time.Now())
		if fieldErrs["email"] == "" {
			t.Error("no error for malformed email")
		}
	})

	t.Run("info answer required only with a question", func(t *testing.T) {
		ev := testEvent()
		ev.InfoQuestion = "What was your last 300 km ride?"
		_, fieldErrs, _ := svc.Register(context.Background(), ev, dougForm(), time.Now())
		if fieldErrs["info_answer"] == "" {
			t.Error("no error for missing qualifying answer")
		}

		_, fieldErrs, _ = svc.Register(context.Background(), testEvent(), dougForm(), time.Now())
		if fieldErrs != nil {
			t.Errorf("qualifying answer demanded without a question: %v", fieldErrs)
		}
	})

	t.Run("distance required only for multi-distance events", func(t *testing.T) {
		ev := testEvent()
		ev.Type = models.EventTypePopulaire
		ev.Region = ""
		ev.EventCode = "VicPop"
		ev.Distances = "50 km, 100 km"

		form := dougForm()
		_, fieldErrs, _ := svc.Register(context.Background(), ev, form, time.Now())
		if fieldErrs["distance"] == "" {
			t.Error("no error for missing distance choice")
		}

		form.Distance = 100
		outcome, fieldErrs, err := svc.Register(context.Background(), ev, form, time.Now())
		if err != nil || fieldErrs != nil {
			t.Fatalf("Register: err=%v fieldErrs=%v", err, fieldErrs)
		}
		if outcome.Rider.Distance != 100 {
			t.Errorf("distance = %d, want 100", outcome.Rider.Distance)
		}
	})
}
