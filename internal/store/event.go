// Package store holds the append-only visitor sinks: Postgres (the
// visitor_logs table), a Kafka topic and a Redis stream.
package store

import (
	"encoding/json"
	"time"

	"socialguard/internal/visitors"
	"socialguard/pkg/geoip"
)

// visitorEvent is the wire form published to Kafka and Redis.
type visitorEvent struct {
	Kind      string    `json:"kind"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Timestamp time.Time `json:"timestamp"`
	Location  string    `json:"location"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	ISP       string    `json:"isp"`
}

func newVisitorEvent(rec visitors.Record) visitorEvent {
	loc := rec.Location
	if loc.IsUnknown() {
		loc = geoip.Unknown
	}
	return visitorEvent{
		Kind:      visitors.Kind,
		IPAddress: rec.IPAddress,
		UserAgent: rec.UserAgent,
		Timestamp: rec.Timestamp.UTC(),
		Location:  loc.String(),
		City:      loc.City,
		Country:   loc.Country,
		ISP:       loc.ISP,
	}
}

func (e visitorEvent) marshal() ([]byte, error) {
	return json.Marshal(e)
}
