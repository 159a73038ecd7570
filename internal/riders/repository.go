package riders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/randopony/backend/internal/models"
)

// ErrDuplicate is returned by Create when the (event, first, last, email)
// triple already exists. The unique index makes concurrent double submits
// hit this instead of producing two rows.
var ErrDuplicate = errors.New("rider already registered")

const riderColumns = `id, event_id, first_name, last_name, email, distance, info_answer, club_member, created_at`

// Repository handles rider persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a riders repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRider(row pgx.Row) (*models.Rider, error) {
	var r models.Rider
	err := row.Scan(&r.ID, &r.EventID, &r.FirstName, &r.LastName, &r.Email,
		&r.Distance, &r.InfoAnswer, &r.ClubMember, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a rider pre-registration.
func (r *Repository) Create(ctx context.Context, rider *models.Rider) error {
	const q = `INSERT INTO riders (event_id, first_name, last_name, email, distance, info_answer, club_member)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, rider.EventID, rider.FirstName, rider.LastName,
		rider.Email, rider.Distance, rider.InfoAnswer, rider.ClubMember).
		Scan(&rider.ID, &rider.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// FindDuplicate returns an existing rider for the same event whose
// (first_name, last_name, email) triple matches exactly, or nil.
// Matching is case-sensitive, same as the storage unique index.
func (r *Repository) FindDuplicate(ctx context.Context, eventID uuid.UUID, firstName, lastName, email string) (*models.Rider, error) {
	const q = `SELECT ` + riderColumns + ` FROM riders
		WHERE event_id = $1 AND first_name = $2 AND last_name = $3 AND email = $4`
	rider, err := scanRider(r.pool.QueryRow(ctx, q, eventID, firstName, lastName, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rider, nil
}

// GetByID returns a rider by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Rider, error) {
	return scanRider(r.pool.QueryRow(ctx, `SELECT `+riderColumns+` FROM riders WHERE id = $1`, id))
}

// ListByEvent returns the riders registered for an event in last-name order,
// the order the spreadsheet mirrors.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Rider, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+riderColumns+` FROM riders WHERE event_id = $1 ORDER BY last_name, first_name`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Rider
	for rows.Next() {
		rider, err := scanRider(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rider)
	}
	return list, rows.Err()
}
