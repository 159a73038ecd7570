package sheets

import (
	"fmt"
	"strconv"

	"github.com/randopony/backend/internal/models"
)

// RowStore is the spreadsheet surface the sync needs; *Client is the real
// implementation.
type RowStore interface {
	Rows(docID string) ([][]interface{}, error)
	UpdateRow(docID string, rowNum int, row []interface{}) error
	AppendRow(docID string, row []interface{}) error
}

// Sync mirrors an event's rider list to its spreadsheet, rewriting rows
// already present and appending the rest. The caller passes the list in
// last-name order, so the sheet stays sorted and a retry converges to the
// same result.
type Sync struct {
	store RowStore
}

// NewSync creates a rider-list sync.
func NewSync(store RowStore) *Sync {
	return &Sync{store: store}
}

// SyncRiderList updates the spreadsheet identified by the event's
// google_doc_id. Row 1 is the header; data rows start at 2.
func (s *Sync) SyncRiderList(ev *models.Event, riderList []models.Rider) error {
	if ev.GoogleDocID == "" {
		return fmt.Errorf("event %s has no rider-list spreadsheet", ev)
	}
	rows, err := s.store.Rows(ev.GoogleDocID)
	if err != nil {
		return fmt.Errorf("read rider list: %w", err)
	}
	existing := len(rows) - 1
	if existing < 0 {
		existing = 0
	}

	for i, rider := range riderList {
		row := riderRow(ev, i+1, &rider)
		if i < existing {
			if err := s.store.UpdateRow(ev.GoogleDocID, i+2, row); err != nil {
				return fmt.Errorf("update row %d: %w", i+2, err)
			}
			continue
		}
		if err := s.store.AppendRow(ev.GoogleDocID, row); err != nil {
			return fmt.Errorf("append row %d: %w", i+2, err)
		}
	}
	return nil
}

func riderRow(ev *models.Event, riderNumber int, rider *models.Rider) []interface{} {
	row := []interface{}{
		strconv.Itoa(riderNumber),
		rider.LastName,
		rider.FirstName,
	}
	if ev.Type == models.EventTypeBrevet {
		member := "N"
		if rider.ClubMember {
			member = "Y"
		}
		row = append(row, member, rider.InfoAnswer)
	} else {
		row = append(row, strconv.Itoa(rider.Distance))
	}
	return row
}
