package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/randopony/backend/internal/models"
)

// ErrNotFound is returned when no event matches a lookup.
var ErrNotFound = errors.New("event not found")

const eventColumns = `id, event_type, region, event_code, route_name, date, start_time,
	alt_start_time, location, organizer_email, registration_closes, info_question,
	distances, entry_form_url, entry_form_url_label, google_doc_id, created_at, updated_at`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var ev models.Event
	err := row.Scan(&ev.ID, &ev.Type, &ev.Region, &ev.EventCode, &ev.RouteName, &ev.Date,
		&ev.StartTime, &ev.AltStartTime, &ev.Location, &ev.OrganizerEmail,
		&ev.RegistrationCloses, &ev.InfoQuestion, &ev.Distances, &ev.EntryFormURL,
		&ev.EntryFormURLLabel, &ev.GoogleDocID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// Create inserts a new event.
func (r *Repository) Create(ctx context.Context, ev *models.Event) error {
	const q = `INSERT INTO events (event_type, region, event_code, route_name, date, start_time,
			alt_start_time, location, organizer_email, registration_closes, info_question,
			distances, entry_form_url, entry_form_url_label, google_doc_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, ev.Type, ev.Region, ev.EventCode, ev.RouteName, ev.Date,
		ev.StartTime, ev.AltStartTime, ev.Location, ev.OrganizerEmail, ev.RegistrationCloses,
		ev.InfoQuestion, ev.Distances, ev.EntryFormURL, ev.EntryFormURLLabel, ev.GoogleDocID).
		Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// GetByKey returns an event by its natural key: the URL segment
// (region+code for brevets, short name for populaires) and the date.
func (r *Repository) GetByKey(ctx context.Context, key string, date time.Time) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events
		WHERE date = $2
		  AND ((event_type = 'brevet' AND region || event_code = $1)
		    OR (event_type = 'populaire' AND event_code = $1))`
	return scanEvent(r.pool.QueryRow(ctx, q, key, date))
}

// ListUpcoming returns events whose date is on or after the cutoff,
// ordered by date.
func (r *Repository) ListUpcoming(ctx context.Context, cutoff time.Time) ([]models.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events WHERE date >= $1 ORDER BY date, region, event_code`, cutoff)
}

// List returns all events, newest first (admin).
func (r *Repository) List(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date DESC, region, event_code`)
}

func (r *Repository) list(ctx context.Context, q string, args ...interface{}) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ev)
	}
	return list, rows.Err()
}

// Update rewrites an event's mutable fields (admin only).
func (r *Repository) Update(ctx context.Context, ev *models.Event) error {
	const q = `UPDATE events SET route_name = $1, date = $2, start_time = $3, alt_start_time = $4,
			location = $5, organizer_email = $6, registration_closes = $7, info_question = $8,
			distances = $9, entry_form_url = $10, entry_form_url_label = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, ev.RouteName, ev.Date, ev.StartTime, ev.AltStartTime,
		ev.Location, ev.OrganizerEmail, ev.RegistrationCloses, ev.InfoQuestion, ev.Distances,
		ev.EntryFormURL, ev.EntryFormURLLabel, ev.ID).Scan(&ev.UpdatedAt)
}

// SetGoogleDocID records the rider-list spreadsheet id once an administrator
// has created the document.
func (r *Repository) SetGoogleDocID(ctx context.Context, id uuid.UUID, docID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE events SET google_doc_id = $1, updated_at = NOW() WHERE id = $2`, docID, id)
	return err
}
