// Package geoip resolves visitor IP addresses to a coarse location.
//
// Two backends are available:
//   - ip-api.com over HTTP (IPAPIClient), the default
//   - an offline MMDB database (MMDBResolver): MaxMind GeoLite2, DB-IP Lite
//     or IP2Location LITE, optionally paired with an ASN database for ISP
//
// Both are usually wrapped in a CachedResolver.
package geoip

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"path/filepath"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// MMDBResolver provides offline IP geolocation from MMDB files.
type MMDBResolver struct {
	city                *geoip2.Reader
	asn                 *geoip2.Reader
	provider            string
	requiresAttribution bool
	attributionText     string
}

// NewMMDBResolver opens a city database and, when asnPath is set, an ASN
// database used for the ISP field.
//
// Returns nil, nil if cityPath is empty or the file doesn't exist.
func NewMMDBResolver(cityPath, asnPath string) (*MMDBResolver, error) {
	city, err := openOptional(cityPath)
	if err != nil || city == nil {
		return nil, err
	}

	asn, err := openOptional(asnPath)
	if err != nil {
		_ = city.Close()
		return nil, err
	}

	provider, requiresAttribution, attributionText := detectProvider(cityPath)

	return &MMDBResolver{
		city:                city,
		asn:                 asn,
		provider:            provider,
		requiresAttribution: requiresAttribution,
		attributionText:     attributionText,
	}, nil
}

func openOptional(path string) (*geoip2.Reader, error) {
	if path == "" {
		return nil, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return db, nil
}

// detectProvider attempts to identify the MMDB provider from filename
func detectProvider(mmdbPath string) (provider string, requiresAttribution bool, attributionText string) {
	filename := strings.ToLower(filepath.Base(mmdbPath))

	switch {
	case strings.Contains(filename, "geolite2") || strings.Contains(filename, "maxmind"):
		return "maxmind", true, "This product includes GeoLite2 data created by MaxMind, available from https://www.maxmind.com."

	case strings.Contains(filename, "dbip") || strings.Contains(filename, "db-ip"):
		return "dbip", true, "IP Geolocation by DB-IP (https://db-ip.com)"

	case strings.Contains(filename, "ip2location"):
		return "ip2location", true, "This site or product includes IP2Location LITE data available from https://lite.ip2location.com."

	default:
		return "unknown", false, ""
	}
}

// Resolve looks up ip in the loaded databases. Private and unparsable
// addresses, and addresses missing from the database, resolve to Unknown.
func (r *MMDBResolver) Resolve(_ context.Context, ipStr string) Location {
	if r == nil || r.city == nil {
		return Unknown
	}

	ip := parsePublicIP(ipStr)
	if ip == nil {
		return Unknown
	}

	record, err := r.city.City(ip)
	if err != nil {
		return Unknown
	}

	loc := Location{
		City:    record.City.Names["en"],
		Country: record.Country.Names["en"],
	}
	if r.asn != nil {
		if asn, err := r.asn.ASN(ip); err == nil {
			loc.ISP = asn.AutonomousSystemOrganization
		}
	}

	if loc.City == "" && loc.Country == "" {
		return Unknown
	}
	return loc.normalize()
}

// parsePublicIP accepts "ip" or "ip:port" and returns nil for anything
// that is not a routable public address.
func parsePublicIP(ipStr string) net.IP {
	ip := net.ParseIP(stripPort(ipStr))
	if ip == nil || isPrivateIP(ip) {
		return nil
	}
	return ip
}

// canonicalIP is the lookup key for ipStr: the parsed address without
// port or whitespace, or the trimmed input when it does not parse.
func canonicalIP(ipStr string) string {
	host := stripPort(ipStr)
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return host
}

func stripPort(ipStr string) string {
	ipStr = strings.TrimSpace(ipStr)
	if host, _, err := net.SplitHostPort(ipStr); err == nil {
		return host
	}
	return ipStr
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() || ip.IsUnspecified()
}

// Provider returns the detected provider name
func (r *MMDBResolver) Provider() string {
	if r == nil {
		return "none"
	}
	return r.provider
}

// RequiresAttribution returns whether this provider requires attribution
func (r *MMDBResolver) RequiresAttribution() bool {
	return r != nil && r.requiresAttribution
}

func (r *MMDBResolver) AttributionText() string {
	if r == nil {
		return ""
	}
	return r.attributionText
}

// Close closes the underlying databases
func (r *MMDBResolver) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.city != nil {
		errs = append(errs, r.city.Close())
	}
	if r.asn != nil {
		errs = append(errs, r.asn.Close())
	}
	return errors.Join(errs...)
}
