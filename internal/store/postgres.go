package store

import (
	"context"
	"database/sql"
	"fmt"

	"socialguard/internal/visitors"
)

const insertVisitorSQL = `INSERT INTO visitor_logs
	(ip_address, user_agent, timestamp, location, city, country, isp)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// PostgresSink inserts one visitor_logs row per record.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Append(ctx context.Context, rec visitors.Record) error {
	ev := newVisitorEvent(rec)
	_, err := s.db.ExecContext(ctx, insertVisitorSQL,
		ev.IPAddress, ev.UserAgent, ev.Timestamp, ev.Location, ev.City, ev.Country, ev.ISP)
	if err != nil {
		return fmt.Errorf("insert visitor_logs: %w", err)
	}
	return nil
}
