package usecase

import (
	"context"
	"time"

	"web-analytics-service/internal/ingest/domain"
)

// GroupCount is a count for a single breakdown value (country, browser, ...).
type GroupCount struct {
	Value string
	Count int64
}

// SiteRepository looks up and registers tracked sites. The ingestion path only
// ever looks up; creation happens through the admin surface.
type SiteRepository interface {
	// GetByDomain returns the site for a domain, or domain.ErrSiteNotFound.
	GetByDomain(ctx context.Context, siteDomain string) (*domain.Site, error)
	// Create registers a site, or returns domain.ErrSiteExists.
	Create(ctx context.Context, siteDomain string, now time.Time) (*domain.Site, error)
}

// VisitRepository appends visit facts and serves the reporting aggregates.
type VisitRepository interface {
	// Create appends a visit and fills in its assigned ID.
	Create(ctx context.Context, visit *domain.Visit) error
	// CountInRange returns total visits for a site within [from, to].
	CountInRange(ctx context.Context, siteID int64, from, to int64) (int64, error)
	// CountUniqueVisitorsInRange returns distinct visitor identifiers in range.
	CountUniqueVisitorsInRange(ctx context.Context, siteID int64, from, to int64) (int64, error)
	// CountByCountryInRange returns visit counts grouped by country.
	CountByCountryInRange(ctx context.Context, siteID int64, from, to int64) ([]GroupCount, error)
	// CountByBrowserInRange returns visit counts grouped by browser family.
	CountByBrowserInRange(ctx context.Context, siteID int64, from, to int64) ([]GroupCount, error)
	// CountByReferrerInRange returns visit counts grouped by referrer origin.
	// Visits without a referrer are grouped under the empty value.
	CountByReferrerInRange(ctx context.Context, siteID int64, from, to int64) ([]GroupCount, error)
	// CountByPathInRange returns visit counts grouped by page path.
	CountByPathInRange(ctx context.Context, siteID int64, from, to int64) ([]GroupCount, error)
}
