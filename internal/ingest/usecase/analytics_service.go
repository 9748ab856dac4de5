package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"web-analytics-service/internal/ingest/domain"
	"web-analytics-service/internal/ingest/enrichment"

	"go.uber.org/zap"
)

// GeoResolver resolves a client address to a location, nil when unresolvable.
type GeoResolver interface {
	Resolve(ip string) *enrichment.Location
}

// DeviceParser derives browser/OS families from a User-Agent string.
type DeviceParser interface {
	Parse(ua string) enrichment.Device
}

// ReferrerResolver resolves a referring URL to a cached metadata row, nil when
// nothing could be resolved.
type ReferrerResolver interface {
	Resolve(ctx context.Context, refURL string) *domain.Referrer
}

// TrackResult is the outcome of one beacon. Tracked=false with a message is
// the soft-fail for unregistered sites; it is not an error.
type TrackResult struct {
	Tracked bool
	Msg     string
}

// SummaryResult holds per-site aggregates for a reporting window.
type SummaryResult struct {
	Domain         string
	TotalVisits    int64
	UniqueVisitors int64
	Countries      []GroupCount
	Browsers       []GroupCount
	Referrers      []GroupCount
	Pages          []GroupCount
}

// AnalyticsService composes the ingestion pipeline: validation happens at the
// boundary, enrichment is best-effort, and only page views persist a visit.
type AnalyticsService struct {
	sites     SiteRepository
	visits    VisitRepository
	geo       GeoResolver
	device    DeviceParser
	referrers ReferrerResolver
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(
	sites SiteRepository,
	visits VisitRepository,
	geo GeoResolver,
	device DeviceParser,
	referrers ReferrerResolver,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		sites:     sites,
		visits:    visits,
		geo:       geo,
		device:    device,
		referrers: referrers,
		logger:    logger,
		now:       time.Now,
	}
}

// Track ingests one validated beacon. Enrichment failures degrade to absent
// fields; only an unknown site (soft-fail) or a storage error stops the flow.
func (s *AnalyticsService) Track(ctx context.Context, ev *domain.TrackingEvent, sig enrichment.Signals) (*TrackResult, error) {
	loc := s.geo.Resolve(sig.IP)
	dev := s.device.Parse(sig.UserAgent)

	site, err := s.sites.GetByDomain(ctx, ev.Domain)
	if err != nil {
		if errors.Is(err, domain.ErrSiteNotFound) {
			return &TrackResult{Tracked: false, Msg: "website not tracked"}, nil
		}
		return nil, fmt.Errorf("site lookup: %w", err)
	}

	var referrerID *int64
	if ev.Referrer != "" {
		if ref := s.referrers.Resolve(ctx, ev.Referrer); ref != nil {
			referrerID = &ref.ID
		}
	}

	visitorID := enrichment.Fingerprint(sig)

	// Non-pageView kinds are accepted but not stored.
	if ev.Event != domain.EventPageView {
		s.logger.Debug("event accepted without storage",
			zap.String("event", ev.Event), zap.String("domain", ev.Domain))
		return &TrackResult{Tracked: true}, nil
	}

	pageURL, err := url.Parse(ev.URL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	path := pageURL.Path
	if path == "" {
		path = "/"
	}

	visit := &domain.Visit{
		SiteID:     site.ID,
		ReferrerID: referrerID,
		URL:        ev.URL,
		Path:       path,
		Origin:     pageURL.Scheme + "://" + pageURL.Host,
		IP:         sig.IP,
		VisitorID:  visitorID,
		CreatedAt:  s.now(),
	}
	if loc != nil {
		visit.City = loc.City
		visit.Country = loc.Country
	}
	visit.Browser = dev.Browser
	visit.OS = dev.OS

	if err := s.visits.Create(ctx, visit); err != nil {
		return nil, fmt.Errorf("store visit: %w", err)
	}

	return &TrackResult{Tracked: true}, nil
}

// RegisterSite registers a new tracked site. Returns domain.ErrSiteExists when
// the domain is taken.
func (s *AnalyticsService) RegisterSite(ctx context.Context, siteDomain string) (*domain.Site, error) {
	return s.sites.Create(ctx, siteDomain, s.now())
}

// GetSummary returns visit aggregates for a site within [from, to]. Returns
// domain.ErrSiteNotFound for unknown domains.
func (s *AnalyticsService) GetSummary(ctx context.Context, siteDomain string, from, to int64) (*SummaryResult, error) {
	site, err := s.sites.GetByDomain(ctx, siteDomain)
	if err != nil {
		return nil, err
	}

	total, err := s.visits.CountInRange(ctx, site.ID, from, to)
	if err != nil {
		return nil, err
	}
	unique, err := s.visits.CountUniqueVisitorsInRange(ctx, site.ID, from, to)
	if err != nil {
		return nil, err
	}
	countries, err := s.visits.CountByCountryInRange(ctx, site.ID, from, to)
	if err != nil {
		return nil, err
	}
	browsers, err := s.visits.CountByBrowserInRange(ctx, site.ID, from, to)
	if err != nil {
		return nil, err
	}
	referrers, err := s.visits.CountByReferrerInRange(ctx, site.ID, from, to)
	if err != nil {
		return nil, err
	}
	pages, err := s.visits.CountByPathInRange(ctx, site.ID, from, to)
	if err != nil {
		return nil, err
	}

	return &SummaryResult{
		Domain:         site.Domain,
		TotalVisits:    total,
		UniqueVisitors: unique,
		Countries:      countries,
		Browsers:       browsers,
		Referrers:      referrers,
		Pages:          pages,
	}, nil
}
