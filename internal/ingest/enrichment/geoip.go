package enrichment

import (
	"net"
	"sync"

	geoip2 "github.com/oschwald/geoip2-golang"
)

// Location is a resolved city/country pair in English names. Either field may
// be empty when the database has no name for the record.
type Location struct {
	City    string
	Country string
}

// GeoResolver resolves client addresses to locations using a GeoIP2 city
// database. The database handle is process-lifetime: opened lazily on first
// use, shared by all requests, never closed. Concurrent reads on the open
// handle are safe.
type GeoResolver struct {
	path string

	once sync.Once
	db   *geoip2.Reader
	err  error
}

// NewGeoResolver creates a resolver for the database at path. The file is not
// touched until the first lookup.
func NewGeoResolver(path string) *GeoResolver {
	return &GeoResolver{path: path}
}

// Resolve returns the location for the given address, or nil for private
// ranges, malformed addresses, lookup misses, or an unopenable database.
// It never fails the caller.
func (g *GeoResolver) Resolve(ipStr string) *Location {
	g.once.Do(func() {
		g.db, g.err = geoip2.Open(g.path)
	})
	if g.err != nil {
		return nil
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return nil
	}

	record, err := g.db.City(ip)
	if err != nil {
		return nil
	}

	loc := Location{
		City:    record.City.Names["en"],
		Country: record.Country.Names["en"],
	}
	if loc.City == "" && loc.Country == "" {
		return nil
	}
	return &loc
}
