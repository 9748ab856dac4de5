package referrer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// maxPageBody caps how much of a referrer page is read. Title and icon tags
// live in the head; a hostile server streaming gigabytes gets cut off here.
const maxPageBody = 2 << 20

// iconSelectors is a priority list: the first selector with a match wins.
// Order matters, from canonical favicons down to social-card fallbacks.
var iconSelectors = []string{
	"link[rel='icon'][href]",
	"link[rel='shortcut icon'][href]",
	"link[rel='apple-touch-icon'][href]",
	"link[rel='apple-touch-icon-precomposed'][href]",
	"link[rel='apple-touch-startup-image'][href]",
	"link[rel='mask-icon'][href]",
	"link[rel='fluid-icon'][href]",
	"meta[name='msapplication-TileImage'][content]",
	"meta[name='twitter:image'][content]",
	"meta[property='og:image'][content]",
}

// Metadata is what a successful scrape of a referring site yields.
type Metadata struct {
	Title string
	Icon  string
}

// Scraper fetches referrer page metadata over HTTP. The fetched content is
// attacker-influenced: it is only parsed for a title and icon URL, never
// executed or stored raw.
type Scraper struct {
	client *http.Client
	logger *zap.Logger
}

// NewScraper creates a Scraper with a bounded request timeout. A timeout is
// treated as fetch failure like any other error.
func NewScraper(timeout time.Duration, logger *zap.Logger) *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch issues a GET against the origin and extracts the page title and the
// highest-priority icon URL.
func (s *Scraper) Fetch(ctx context.Context, origin string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin, nil)
	if err != nil {
		return nil, fmt.Errorf("build referrer request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch referrer page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch referrer page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBody))
	if err != nil {
		return nil, fmt.Errorf("parse referrer page: %w", err)
	}

	meta := &Metadata{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Icon:  firstIcon(doc),
	}
	s.logger.Debug("referrer metadata fetched",
		zap.String("origin", origin),
		zap.String("title", meta.Title),
		zap.String("icon", meta.Icon),
	)
	return meta, nil
}

func firstIcon(doc *goquery.Document) string {
	for _, selector := range iconSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if href, ok := sel.Attr("href"); ok && href != "" {
			return href
		}
		if content, ok := sel.Attr("content"); ok && content != "" {
			return content
		}
	}
	return ""
}
