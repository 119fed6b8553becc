// Package visitors records page visits to an append-only store. Recording
// is fire-and-forget: callers enqueue a Visit and never observe the result.
package visitors

import (
	"context"
	"time"

	"socialguard/pkg/geoip"
)

// Kind is the event kind stamped on every stored record.
const Kind = "visitor"

// Visit is the raw observation taken on the request path.
type Visit struct {
	IP        string
	UserAgent string
	Timestamp time.Time
}

// Record is a Visit after geo enrichment. Write-once.
type Record struct {
	IPAddress string
	UserAgent string
	Timestamp time.Time
	Location  geoip.Location
}

// Sink appends records to durable storage. There is no read path.
type Sink interface {
	Append(ctx context.Context, rec Record) error
	Name() string
}
