package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"web-analytics-service/internal/ingest/domain"
)

// SiteRepository stores tracked sites keyed by their unique domain.
type SiteRepository struct {
	db *sql.DB
}

// NewSiteRepository creates a new SQLite-backed site repository.
func NewSiteRepository(db *sql.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// GetByDomain returns the site registered for domain, or domain.ErrSiteNotFound.
func (r *SiteRepository) GetByDomain(ctx context.Context, siteDomain string) (*domain.Site, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, domain, created_at FROM sites WHERE domain = ?`, siteDomain)

	var site domain.Site
	var createdAt int64
	if err := row.Scan(&site.ID, &site.Domain, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSiteNotFound
		}
		return nil, err
	}
	site.CreatedAt = time.Unix(createdAt, 0)
	return &site, nil
}

// Create registers a new site. Returns domain.ErrSiteExists when the domain is
// already registered.
func (r *SiteRepository) Create(ctx context.Context, siteDomain string, now time.Time) (*domain.Site, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sites (domain, created_at) VALUES (?, ?) ON CONFLICT(domain) DO NOTHING`,
		siteDomain, now.Unix())
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrSiteExists
	}

	return r.GetByDomain(ctx, siteDomain)
}
