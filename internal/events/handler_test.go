package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/randopony/backend/internal/models"
)

// fakeEventStore is an in-memory EventStore.
type fakeEventStore struct {
	events []models.Event
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func (f *fakeEventStore) Create(_ context.Context, ev *models.Event) error {
	ev.ID = uuid.New()
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeEventStore) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			return &f.events[i], nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeEventStore) GetByKey(_ context.Context, key string, date time.Time) (*models.Event, error) {
	for i := range f.events {
		if f.events[i].URLKey() == key && sameDay(f.events[i].Date, date) {
			return &f.events[i], nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeEventStore) ListUpcoming(context.Context, time.Time) ([]models.Event, error) {
	return f.events, nil
}

func (f *fakeEventStore) List(context.Context) ([]models.Event, error) { return f.events, nil }

func (f *fakeEventStore) Update(context.Context, *models.Event) error { return nil }

func (f *fakeEventStore) SetGoogleDocID(context.Context, uuid.UUID, string) error { return nil }

// fakeRiderStore is an in-memory RiderStore.
type fakeRiderStore struct {
	riders []models.Rider
}

func (f *fakeRiderStore) GetByID(_ context.Context, id uuid.UUID) (*models.Rider, error) {
	for i := range f.riders {
		if f.riders[i].ID == id {
			return &f.riders[i], nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRiderStore) ListByEvent(_ context.Context, eventID uuid.UUID) ([]models.Rider, error) {
	var out []models.Rider
	for _, r := range f.riders {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestRouter(store *fakeEventStore, riderStore *fakeRiderStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, riderStore, testRules(), "admin@example.com", "question?", nil)
	r := gin.New()
	r.GET("/events", h.List)
	r.GET("/events/:key/:date", h.Detail)
	r.GET("/events/:key/:date/rider-emails/:token", h.RiderEmails)
	return r
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRiderEmailsWrongTokenIsNotFound(t *testing.T) {
	ev := *brevetLM300(time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC))
	ev.ID = uuid.New()
	store := &fakeEventStore{events: []models.Event{ev}}
	riderStore := &fakeRiderStore{riders: []models.Rider{
		{ID: uuid.New(), EventID: ev.ID, Email: "djl@example.com"},
	}}
	router := newTestRouter(store, riderStore)

	w := get(t, router, "/events/LM300/01May2010/rider-emails/"+uuid.New().String())
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for a wrong token", w.Code)
	}
}

func TestRiderEmailsEmptyListIsNotFound(t *testing.T) {
	ev := *brevetLM300(time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC))
	ev.ID = uuid.New()
	store := &fakeEventStore{events: []models.Event{ev}}
	router := newTestRouter(store, &fakeRiderStore{})

	w := get(t, router, "/events/LM300/01May2010/rider-emails/"+ev.UUID().String())
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for an event with no riders", w.Code)
	}
}

func TestRiderEmailsReturnsAddressList(t *testing.T) {
	ev := *brevetLM300(time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC))
	ev.ID = uuid.New()
	store := &fakeEventStore{events: []models.Event{ev}}
	riderStore := &fakeRiderStore{riders: []models.Rider{
		{ID: uuid.New(), EventID: ev.ID, Email: "a@example.com"},
		{ID: uuid.New(), EventID: ev.ID, Email: "b@example.com"},
	}}
	router := newTestRouter(store, riderStore)

	w := get(t, router, "/events/LM300/01May2010/rider-emails/"+ev.UUID().String())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != "a@example.com, b@example.com" {
		t.Errorf("body = %q, want the comma-separated address list", got)
	}
}

func TestListGroupsPopulairesUnderOwnHeading(t *testing.T) {
	brevet := *brevetLM300(time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC))
	brevet.ID = uuid.New()
	pop := models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypePopulaire,
		EventCode: "VicPop",
		Date:      time.Date(2010, 3, 27, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
	}
	store := &fakeEventStore{events: []models.Event{brevet, pop}}
	router := newTestRouter(store, &fakeRiderStore{})

	w := get(t, router, "/events")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Data struct {
			Regions []struct {
				Abbrev   string `json:"abbrev"`
				LongName string `json:"long_name"`
			} `json:"regions"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	names := make([]string, 0, len(body.Data.Regions))
	for _, g := range body.Data.Regions {
		names = append(names, g.LongName)
	}
	joined := strings.Join(names, "|")
	if !strings.Contains(joined, "Lower Mainland") || !strings.Contains(joined, "Populaires") {
		t.Errorf("groups = %v, want Lower Mainland and Populaires headings", names)
	}
}
