package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/randopony/backend/internal/models"
	"github.com/randopony/backend/internal/notify"
	"github.com/randopony/backend/internal/siteinfo"
	"github.com/randopony/backend/pkg/queue"
)

type fakeEvents struct {
	ev *models.Event
}

func (f *fakeEvents) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	if f.ev != nil && f.ev.ID == id {
		return f.ev, nil
	}
	return nil, errors.New("no such event")
}

type fakeRiders struct {
	rider *models.Rider
}

func (f *fakeRiders) GetByID(_ context.Context, id uuid.UUID) (*models.Rider, error) {
	if f.rider != nil && f.rider.ID == id {
		return f.rider, nil
	}
	return nil, errors.New("no such rider")
}

func (f *fakeRiders) ListByEvent(context.Context, uuid.UUID) ([]models.Rider, error) {
	if f.rider == nil {
		return nil, nil
	}
	return []models.Rider{*f.rider}, nil
}

type fakeLinks struct{}

func (fakeLinks) LoadSiteLinks(context.Context) (siteinfo.SiteLinks, error) {
	return siteinfo.SiteLinks{FromAddress: "pony@example.com"}, nil
}

// upsertLogStore mirrors the one-row-per-notification storage contract.
type upsertLogStore struct {
	rows map[string]*models.EmailLog
}

func newUpsertLogStore() *upsertLogStore {
	return &upsertLogStore{rows: make(map[string]*models.EmailLog)}
}

func logKey(el *models.EmailLog) string {
	return el.EventID.String() + "/" + el.RiderID.String() + "/" + el.EmailType
}

func (s *upsertLogStore) Create(_ context.Context, el *models.EmailLog) error {
	if existing, ok := s.rows[logKey(el)]; ok {
		existing.Status = models.EmailLogStatusQueued
		existing.ErrorMessage = ""
		el.ID = existing.ID
		return nil
	}
	el.ID = uuid.New()
	el.Status = models.EmailLogStatusQueued
	copied := *el
	s.rows[logKey(el)] = &copied
	return nil
}

func (s *upsertLogStore) find(id uuid.UUID) *models.EmailLog {
	for _, el := range s.rows {
		if el.ID == id {
			return el
		}
	}
	return nil
}

func (s *upsertLogStore) MarkSent(_ context.Context, id uuid.UUID) error {
	if el := s.find(id); el != nil {
		el.Status = models.EmailLogStatusSent
	}
	return nil
}

func (s *upsertLogStore) MarkFailed(_ context.Context, id uuid.UUID, msg string) error {
	if el := s.find(id); el != nil {
		el.Status = models.EmailLogStatusFailed
		el.ErrorMessage = msg
	}
	return nil
}

// flakyMailer fails the first n sends.
type flakyMailer struct {
	failures int
	sent     []notify.Message
}

func (m *flakyMailer) Send(msg notify.Message) error {
	if m.failures > 0 {
		m.failures--
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

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

func riderEmailJob(t *testing.T, ev *models.Event, rider *models.Rider) *queue.Job {
	t.Helper()
	payload, err := json.Marshal(queue.NotificationPayload{EventID: ev.ID, RiderID: rider.ID})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &queue.Job{ID: uuid.New().String(), Type: queue.JobTypeRiderEmail, Payload: payload}
}

func newTestProcessor(ev *models.Event, rider *models.Rider, mailer notify.Mailer, logs EmailLogStore, sheets RiderListSync) *NotificationProcessor {
	return NewNotificationProcessor(&fakeEvents{ev: ev}, &fakeRiders{rider: rider},
		fakeLinks{}, logs, mailer, sheets, nil,
		"https://randopony.example.com", "admin@example.com", nil)
}

func TestProcessRetriesReuseOneLogRow(t *testing.T) {
	ev := testEvent()
	rider := &models.Rider{ID: uuid.New(), EventID: ev.ID, FirstName: "Doug", LastName: "Latornell", Email: "djl@example.com"}
	mailer := &flakyMailer{failures: 2}
	logs := newUpsertLogStore()
	p := newTestProcessor(ev, rider, mailer, logs, nil)
	job := riderEmailJob(t, ev, rider)

	for attempt := 0; attempt < 2; attempt++ {
		if err := p.Process(context.Background(), job); err == nil {
			t.Fatalf("attempt %d: expected a delivery error", attempt+1)
		}
	}
	if len(logs.rows) != 1 {
		t.Fatalf("failed retries left %d log rows, want 1", len(logs.rows))
	}
	for _, el := range logs.rows {
		if el.Status != models.EmailLogStatusFailed {
			t.Errorf("status after failures = %q, want failed", el.Status)
		}
	}

	if err := p.Process(context.Background(), job); err != nil {
		t.Fatalf("final attempt: %v", err)
	}
	if len(logs.rows) != 1 {
		t.Fatalf("successful retry left %d log rows, want 1", len(logs.rows))
	}
	for _, el := range logs.rows {
		if el.Status != models.EmailLogStatusSent {
			t.Errorf("status after success = %q, want sent", el.Status)
		}
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(mailer.sent))
	}
	if got := mailer.sent[0].To; len(got) != 1 || got[0] != "djl@example.com" {
		t.Errorf("To = %v, want the rider", got)
	}
}

// fakeSheetSync records sync calls.
type fakeSheetSync struct {
	calls int
}

func (f *fakeSheetSync) SyncRiderList(*models.Event, []models.Rider) error {
	f.calls++
	return nil
}

func TestProcessSpreadsheetSyncWithoutDocIsDropped(t *testing.T) {
	ev := testEvent() // no GoogleDocID assigned yet
	rider := &models.Rider{ID: uuid.New(), EventID: ev.ID}
	sync := &fakeSheetSync{}
	p := newTestProcessor(ev, rider, &flakyMailer{}, newUpsertLogStore(), sync)

	payload, _ := json.Marshal(queue.NotificationPayload{EventID: ev.ID})
	job := &queue.Job{ID: "sync", Type: queue.JobTypeSpreadsheetSync, Payload: payload}
	if err := p.Process(context.Background(), job); err != nil {
		t.Fatalf("sync without a doc should be dropped, not retried: %v", err)
	}
	if sync.calls != 0 {
		t.Errorf("sync called %d times for an event with no spreadsheet", sync.calls)
	}

	ev.GoogleDocID = "doc-123"
	if err := p.Process(context.Background(), job); err != nil {
		t.Fatalf("sync with a doc: %v", err)
	}
	if sync.calls != 1 {
		t.Errorf("sync called %d times, want 1", sync.calls)
	}
}
