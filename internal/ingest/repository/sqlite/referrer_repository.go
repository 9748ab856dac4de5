package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"web-analytics-service/internal/ingest/domain"
	"web-analytics-service/internal/ingest/referrer"
)

// ReferrerRepository stores scraped referrer metadata keyed by unique origin.
type ReferrerRepository struct {
	db *sql.DB
}

// NewReferrerRepository creates a new SQLite-backed referrer repository.
func NewReferrerRepository(db *sql.DB) *ReferrerRepository {
	return &ReferrerRepository{db: db}
}

var _ referrer.Repository = (*ReferrerRepository)(nil)

// GetByOrigin returns the cached row for an origin, or domain.ErrReferrerNotFound.
func (r *ReferrerRepository) GetByOrigin(ctx context.Context, origin string) (*domain.Referrer, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, origin, title, icon, updated_at FROM referrers WHERE origin = ?`, origin))
}

// CreateOrFetch inserts a row for a first-seen origin. Concurrent first-sights
// of the same origin race on the uniqueness constraint; the loser re-reads the
// winner's row instead of failing.
func (r *ReferrerRepository) CreateOrFetch(ctx context.Context, origin, title, icon string, now time.Time) (*domain.Referrer, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO referrers (origin, title, icon, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(origin) DO NOTHING`,
		origin, title, nullable(icon), now.Unix())
	if err != nil {
		return nil, err
	}

	return r.GetByOrigin(ctx, origin)
}

// UpdateMetadata refreshes title, icon, and the staleness timestamp in place.
func (r *ReferrerRepository) UpdateMetadata(ctx context.Context, id int64, title, icon string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE referrers SET title = ?, icon = ?, updated_at = ? WHERE id = ?`,
		title, nullable(icon), now.Unix(), id)
	return err
}

func (r *ReferrerRepository) scanOne(row *sql.Row) (*domain.Referrer, error) {
	var ref domain.Referrer
	var icon sql.NullString
	var updatedAt int64
	if err := row.Scan(&ref.ID, &ref.Origin, &ref.Title, &icon, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReferrerNotFound
		}
		return nil, err
	}
	ref.Icon = icon.String
	ref.UpdatedAt = time.Unix(updatedAt, 0)
	return &ref, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
