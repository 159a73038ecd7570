package siteinfo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/randopony/backend/internal/models"
)

// Repository handles the site-level links and email addresses that live in
// the database so admins can change them without a deploy.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a site info repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LinkURL returns the URL stored under a key, or "" when unset.
func (r *Repository) LinkURL(ctx context.Context, key string) (string, error) {
	var url string
	err := r.pool.QueryRow(ctx, `SELECT url FROM links WHERE key = $1`, key).Scan(&url)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return url, err
}

// SetLink upserts a link.
func (r *Repository) SetLink(ctx context.Context, key, url string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO links (key, url) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET url = EXCLUDED.url, updated_at = NOW()`, key, url)
	return err
}

// EmailAddress returns the email stored under a key, or "" when unset.
func (r *Repository) EmailAddress(ctx context.Context, key string) (string, error) {
	var email string
	err := r.pool.QueryRow(ctx, `SELECT email FROM email_addresses WHERE key = $1`, key).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return email, err
}

// SetEmailAddress upserts an email address.
func (r *Repository) SetEmailAddress(ctx context.Context, key, email string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO email_addresses (key, email) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET email = EXCLUDED.email, updated_at = NOW()`, key, email)
	return err
}

// SiteLinks loads the link set the notification emails reference.
type SiteLinks struct {
	EventWaiverURL    string
	MembershipFormURL string
	FromAddress       string
}

// LoadSiteLinks fetches the waiver URL, membership form URL, and system
// sender address in one call for the worker.
func (r *Repository) LoadSiteLinks(ctx context.Context) (SiteLinks, error) {
	var links SiteLinks
	var err error
	if links.EventWaiverURL, err = r.LinkURL(ctx, models.LinkEventWaiver); err != nil {
		return links, err
	}
	if links.MembershipFormURL, err = r.LinkURL(ctx, models.LinkMembershipForm); err != nil {
		return links, err
	}
	if links.FromAddress, err = r.EmailAddress(ctx, models.EmailAddressFrom); err != nil {
		return links, err
	}
	return links, nil
}
