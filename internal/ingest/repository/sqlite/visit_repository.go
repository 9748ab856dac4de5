package sqlite

import (
	"context"
	"database/sql"

	"web-analytics-service/internal/ingest/domain"
	"web-analytics-service/internal/ingest/usecase"
)

// VisitRepository appends visit facts and serves reporting aggregates.
type VisitRepository struct {
	db *sql.DB
}

// NewVisitRepository creates a new SQLite-backed visit repository.
func NewVisitRepository(db *sql.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

var _ usecase.VisitRepository = (*VisitRepository)(nil)

// Create appends a visit row. Visits are immutable facts; there is no update
// or delete path.
func (r *VisitRepository) Create(ctx context.Context, visit *domain.Visit) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO visits (site_id, referrer_id, url, path, origin, os, browser, city, country, ip, visitor_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		visit.SiteID, visit.ReferrerID, visit.URL, visit.Path, visit.Origin,
		nullable(visit.OS), nullable(visit.Browser), nullable(visit.City), nullable(visit.Country),
		visit.IP, visit.VisitorID, visit.CreatedAt.Unix())
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	visit.ID = id
	return nil
}

// CountInRange returns total visits for a site within [from, to].
func (r *VisitRepository) CountInRange(ctx context.Context, siteID int64, from, to int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM visits WHERE site_id = ? AND created_at BETWEEN ? AND ?`,
		siteID, from, to).Scan(&count)
	return count, err
}

// CountUniqueVisitorsInRange returns the number of distinct visitor
// identifiers seen for a site within [from, to].
func (r *VisitRepository) CountUniqueVisitorsInRange(ctx context.Context, siteID int64, from, to int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE site_id = ? AND created_at BETWEEN ? AND ?`,
		siteID, from, to).Scan(&count)
	return count, err
}

// CountByCountryInRange returns visit counts grouped by country.
func (r *VisitRepository) CountByCountryInRange(ctx context.Context, siteID int64, from, to int64) ([]usecase.GroupCount, error) {
	return r.groupCounts(ctx,
		`SELECT COALESCE(country, ''), COUNT(*) AS count FROM visits
		 WHERE site_id = ? AND created_at BETWEEN ? AND ?
		 GROUP BY country ORDER BY count DESC`,
		siteID, from, to)
}

// CountByBrowserInRange returns visit counts grouped by browser family.
func (r *VisitRepository) CountByBrowserInRange(ctx context.Context, siteID int64, from, to int64) ([]usecase.GroupCount, error) {
	return r.groupCounts(ctx,
		`SELECT COALESCE(browser, ''), COUNT(*) AS count FROM visits
		 WHERE site_id = ? AND created_at BETWEEN ? AND ?
		 GROUP BY browser ORDER BY count DESC`,
		siteID, from, to)
}

// CountByReferrerInRange returns visit counts grouped by referrer origin.
// Direct visits have no referrer row and group under the empty value.
func (r *VisitRepository) CountByReferrerInRange(ctx context.Context, siteID int64, from, to int64) ([]usecase.GroupCount, error) {
	return r.groupCounts(ctx,
		`SELECT COALESCE(r.origin, ''), COUNT(*) AS count FROM visits v
		 LEFT JOIN referrers r ON r.id = v.referrer_id
		 WHERE v.site_id = ? AND v.created_at BETWEEN ? AND ?
		 GROUP BY r.origin ORDER BY count DESC`,
		siteID, from, to)
}

// CountByPathInRange returns visit counts grouped by page path.
func (r *VisitRepository) CountByPathInRange(ctx context.Context, siteID int64, from, to int64) ([]usecase.GroupCount, error) {
	return r.groupCounts(ctx,
		`SELECT path, COUNT(*) AS count FROM visits
		 WHERE site_id = ? AND created_at BETWEEN ? AND ?
		 GROUP BY path ORDER BY count DESC`,
		siteID, from, to)
}

func (r *VisitRepository) groupCounts(ctx context.Context, query string, args ...any) ([]usecase.GroupCount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []usecase.GroupCount
	for rows.Next() {
		var gc usecase.GroupCount
		if err := rows.Scan(&gc.Value, &gc.Count); err != nil {
			return nil, err
		}
		result = append(result, gc)
	}
	return result, rows.Err()
}
