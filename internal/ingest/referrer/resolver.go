package referrer

import (
	"context"
	"errors"
	"net/url"
	"time"

	"web-analytics-service/internal/ingest/domain"

	"go.uber.org/zap"
)

// staleAfter is how long a cached referrer row is served without refetching.
const staleAfter = 10 * time.Minute

// Repository is the storage the resolver caches metadata in.
type Repository interface {
	// GetByOrigin returns the row for an origin, or domain.ErrReferrerNotFound.
	GetByOrigin(ctx context.Context, origin string) (*domain.Referrer, error)
	// CreateOrFetch inserts a new row, or returns the existing one when a
	// concurrent request won the insert race for the same origin.
	CreateOrFetch(ctx context.Context, origin, title, icon string, now time.Time) (*domain.Referrer, error)
	// UpdateMetadata refreshes title/icon/updated_at in place.
	UpdateMetadata(ctx context.Context, id int64, title, icon string, now time.Time) error
}

// Fetcher scrapes live metadata for an origin.
type Fetcher interface {
	Fetch(ctx context.Context, origin string) (*Metadata, error)
}

// Resolver resolves a referring URL to a cached Referrer row, scraping and
// refreshing metadata as needed. Every failure path degrades: a stale row is
// served unchanged when the refresh fails, and a missing row stays missing
// when the first fetch fails. Resolution never fails the calling request.
type Resolver struct {
	repo    Repository
	fetcher Fetcher
	now     func() time.Time
	logger  *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(repo Repository, fetcher Fetcher, logger *zap.Logger) *Resolver {
	return &Resolver{
		repo:    repo,
		fetcher: fetcher,
		now:     time.Now,
		logger:  logger,
	}
}

// Resolve returns the Referrer row for refURL's origin, or nil when the URL is
// invalid or no metadata could be obtained.
func (r *Resolver) Resolve(ctx context.Context, refURL string) *domain.Referrer {
	origin, ok := originOf(refURL)
	if !ok {
		return nil
	}

	ref, err := r.repo.GetByOrigin(ctx, origin)
	switch {
	case err == nil:
		if r.now().Sub(ref.UpdatedAt) <= staleAfter {
			return ref
		}
		return r.refresh(ctx, ref)

	case errors.Is(err, domain.ErrReferrerNotFound):
		return r.create(ctx, origin)

	default:
		r.logger.Warn("referrer lookup failed", zap.String("origin", origin), zap.Error(err))
		return nil
	}
}

// refresh refetches metadata for a stale row. The stale row is served
// unchanged when the fetch or the update fails.
func (r *Resolver) refresh(ctx context.Context, ref *domain.Referrer) *domain.Referrer {
	meta, err := r.fetcher.Fetch(ctx, ref.Origin)
	if err != nil {
		r.logger.Debug("referrer refresh failed, serving stale",
			zap.String("origin", ref.Origin), zap.Error(err))
		return ref
	}

	now := r.now()
	if err := r.repo.UpdateMetadata(ctx, ref.ID, meta.Title, meta.Icon, now); err != nil {
		r.logger.Warn("referrer update failed", zap.String("origin", ref.Origin), zap.Error(err))
		return ref
	}

	ref.Title = meta.Title
	ref.Icon = meta.Icon
	ref.UpdatedAt = now
	return ref
}

func (r *Resolver) create(ctx context.Context, origin string) *domain.Referrer {
	meta, err := r.fetcher.Fetch(ctx, origin)
	if err != nil {
		r.logger.Debug("referrer fetch failed, no row created",
			zap.String("origin", origin), zap.Error(err))
		return nil
	}

	ref, err := r.repo.CreateOrFetch(ctx, origin, meta.Title, meta.Icon, r.now())
	if err != nil {
		r.logger.Warn("referrer create failed", zap.String("origin", origin), zap.Error(err))
		return nil
	}
	return ref
}

// originOf reduces a referring URL to its scheme+host origin, dropping path,
// query, and fragment.
func originOf(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}
