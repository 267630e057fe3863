package services

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"country-color-map/backend/system"

	"github.com/oschwald/geoip2-golang"
)

// ErrGeoIPDisabled means no MaxMind database is loaded
var ErrGeoIPDisabled = errors.New("geoip lookup is not configured")

// VisitorCountry is the result of a visitor lookup
type VisitorCountry struct {
	Country string `json:"country"`
	ISOCode string `json:"iso_code"`
}

// GeoIPService resolves visitor IPs to country names using a MaxMind
// GeoLite2-Country database
type GeoIPService struct {
	mu     sync.RWMutex
	reader *geoip2.Reader
	dbPath string
}

// NewGeoIPService opens dbPath. An empty path gives a disabled service.
func NewGeoIPService(dbPath string) (*GeoIPService, error) {
	g := &GeoIPService{dbPath: dbPath}
	if dbPath == "" {
		return g, nil
	}

	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return g, fmt.Errorf("failed to open GeoIP database %s: %w", dbPath, err)
	}
	g.reader = reader
	system.Info("GeoIP database loaded: %s", dbPath)
	return g, nil
}

// Enabled reports whether lookups are possible
func (g *GeoIPService) Enabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reader != nil
}

// Lookup returns the English country name for ipStr
func (g *GeoIPService) Lookup(ipStr string) (VisitorCountry, error) {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return VisitorCountry{}, fmt.Errorf("invalid IP %q", ipStr)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.reader == nil {
		return VisitorCountry{}, ErrGeoIPDisabled
	}

	record, err := g.reader.Country(ip)
	if err != nil {
		return VisitorCountry{}, err
	}
	return VisitorCountry{
		Country: record.Country.Names["en"],
		ISOCode: record.Country.IsoCode,
	}, nil
}

// Close releases the database
func (g *GeoIPService) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reader == nil {
		return nil
	}
	err := g.reader.Close()
	g.reader = nil
	return err
}
