package enrichment_test

import (
	"testing"

	"web-analytics-service/internal/ingest/enrichment"

	"github.com/stretchr/testify/assert"
)

func TestGeoResolver_MissingDatabaseDegradesToUnknown(t *testing.T) {
	resolver := enrichment.NewGeoResolver("testdata/does-not-exist.mmdb")

	assert.Nil(t, resolver.Resolve("203.0.113.7"))
	// Subsequent lookups reuse the failed-open state without retrying.
	assert.Nil(t, resolver.Resolve("198.51.100.1"))
}

func TestGeoResolver_MalformedAddress(t *testing.T) {
	resolver := enrichment.NewGeoResolver("testdata/does-not-exist.mmdb")

	assert.Nil(t, resolver.Resolve("not-an-address"))
	assert.Nil(t, resolver.Resolve(""))
}
