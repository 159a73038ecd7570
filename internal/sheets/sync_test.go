package sheets

import (
	"reflect"
	"testing"
	"time"

	"github.com/randopony/backend/internal/models"
)

// fakeRows records spreadsheet operations against an in-memory sheet.
type fakeRows struct {
	rows    [][]interface{}
	updates []int
	appends int
}

func (f *fakeRows) Rows(string) ([][]interface{}, error) { return f.rows, nil }

func (f *fakeRows) UpdateRow(_ string, rowNum int, row []interface{}) error {
	f.updates = append(f.updates, rowNum)
	f.rows[rowNum-1] = row
	return nil
}

func (f *fakeRows) AppendRow(_ string, row []interface{}) error {
	f.appends++
	f.rows = append(f.rows, row)
	return nil
}

var header = []interface{}{"Rider#", "Last Name", "First Name", "Member", "Info"}

func sheetEvent() *models.Event {
	return &models.Event{
		Type:        models.EventTypeBrevet,
		Region:      "LM",
		EventCode:   "300",
		Date:        time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC),
		GoogleDocID: "doc-123",
	}
}

func rider(first, last string, member bool) models.Rider {
	return models.Rider{FirstName: first, LastName: last, ClubMember: member}
}

func TestSyncAppendsNewRiders(t *testing.T) {
	store := &fakeRows{rows: [][]interface{}{header}}
	sync := NewSync(store)

	riderList := []models.Rider{
		rider("Alice", "Anderson", true),
		rider("Bob", "Brown", false),
	}
	if err := sync.SyncRiderList(sheetEvent(), riderList); err != nil {
		t.Fatalf("SyncRiderList: %v", err)
	}
	if store.appends != 2 || len(store.updates) != 0 {
		t.Fatalf("appends=%d updates=%v, want 2 appends", store.appends, store.updates)
	}
	want := []interface{}{"2", "Brown", "Bob", "N", ""}
	if !reflect.DeepEqual(store.rows[2], want) {
		t.Errorf("row 3 = %v, want %v", store.rows[2], want)
	}
}

func TestSyncRewritesExistingRowsInPlace(t *testing.T) {
	// A rider whose last name sorts earlier arrived after the first sync;
	// existing row positions are rewritten and only the overflow appends.
	store := &fakeRows{rows: [][]interface{}{
		header,
		{"1", "Brown", "Bob", "N", ""},
	}}
	sync := NewSync(store)

	riderList := []models.Rider{
		rider("Alice", "Anderson", true),
		rider("Bob", "Brown", false),
	}
	if err := sync.SyncRiderList(sheetEvent(), riderList); err != nil {
		t.Fatalf("SyncRiderList: %v", err)
	}
	if !reflect.DeepEqual(store.updates, []int{2}) {
		t.Errorf("updates = %v, want [2]", store.updates)
	}
	if store.appends != 1 {
		t.Errorf("appends = %d, want 1", store.appends)
	}
	if store.rows[1][1] != "Anderson" || store.rows[2][1] != "Brown" {
		t.Error("sheet not in last-name order after sync")
	}
}

func TestSyncPopulaireRowsCarryDistance(t *testing.T) {
	store := &fakeRows{rows: [][]interface{}{{"Rider#", "Last", "First", "Distance"}}}
	sync := NewSync(store)

	ev := sheetEvent()
	ev.Type = models.EventTypePopulaire
	ev.Region = ""
	ev.EventCode = "VicPop"
	r := rider("Alice", "Anderson", false)
	r.Distance = 100

	if err := sync.SyncRiderList(ev, []models.Rider{r}); err != nil {
		t.Fatalf("SyncRiderList: %v", err)
	}
	want := []interface{}{"1", "Anderson", "Alice", "100"}
	if !reflect.DeepEqual(store.rows[1], want) {
		t.Errorf("row 2 = %v, want %v", store.rows[1], want)
	}
}

func TestSyncWithoutDocIDFails(t *testing.T) {
	sync := NewSync(&fakeRows{})
	ev := sheetEvent()
	ev.GoogleDocID = ""
	if err := sync.SyncRiderList(ev, nil); err == nil {
		t.Fatal("expected an error for a missing google_doc_id")
	}
}
