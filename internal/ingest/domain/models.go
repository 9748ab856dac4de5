package domain

import "time"

// Site is a tracked website, identified by its unique domain.
type Site struct {
	ID        int64     `json:"id"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
}

// Referrer is cached metadata for a referring origin (scheme+host, no path).
// Rows are created on first sight of an origin and refreshed in place when
// stale; they are never deleted by the ingestion path.
type Referrer struct {
	ID        int64     `json:"id"`
	Origin    string    `json:"origin"`
	Title     string    `json:"title"`
	Icon      string    `json:"icon,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Visit is an append-only page-view fact. Enrichment fields are empty when
// the corresponding lookup failed.
type Visit struct {
	ID         int64     `json:"id"`
	SiteID     int64     `json:"site_id"`
	ReferrerID *int64    `json:"referrer_id,omitempty"`
	URL        string    `json:"url"`
	Path       string    `json:"path"`
	Origin     string    `json:"origin"`
	OS         string    `json:"os,omitempty"`
	Browser    string    `json:"browser,omitempty"`
	City       string    `json:"city,omitempty"`
	Country    string    `json:"country,omitempty"`
	IP         string    `json:"ip"`
	VisitorID  string    `json:"visitor_id"`
	CreatedAt  time.Time `json:"created_at"`
}
