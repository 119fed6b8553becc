package geoip

import (
	"context"
	"fmt"
)

const unknown = "Unknown"

// Location is a best-effort geographic attribution of an IP address.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
	ISP     string `json:"isp"`
}

// Unknown is returned whenever a lookup cannot produce an answer.
var Unknown = Location{City: unknown, Country: unknown, ISP: unknown}

// IsUnknown reports whether no field was resolved.
func (l Location) IsUnknown() bool {
	return l == Unknown || l == Location{}
}

// String renders the location as "City, Country (ISP: isp)", or "Unknown".
func (l Location) String() string {
	if l.IsUnknown() {
		return unknown
	}
	return fmt.Sprintf("%s, %s (ISP: %s)", l.City, l.Country, l.ISP)
}

// normalize fills empty fields with "Unknown".
func (l Location) normalize() Location {
	if l.City == "" {
		l.City = unknown
	}
	if l.Country == "" {
		l.Country = unknown
	}
	if l.ISP == "" {
		l.ISP = unknown
	}
	return l
}

// Resolver maps an IP to a Location. Implementations never fail: anything
// that goes wrong yields Unknown.
type Resolver interface {
	Resolve(ctx context.Context, ip string) Location
}

// NoopResolver always answers Unknown. Used when GEO_PROVIDER=none.
type NoopResolver struct{}

func (NoopResolver) Resolve(context.Context, string) Location { return Unknown }
