// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package events

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DuckDBStore persists domain events to the same DuckDB engine the
// relational/time-series ports use.
type DuckDBStore struct {
	conn *sql.DB
}

// NewDuckDBStore wraps conn (typically persistence.Store.Conn()) as a Store.
func NewDuckDBStore(conn *sql.DB) *DuckDBStore {
	return &DuckDBStore{conn: conn}
}

// CreateTable creates the domain_events table if it does not already
// exist, following the bootstrap's "already exists is success" convention.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS domain_events (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			subject TEXT,
			message TEXT NOT NULL,
			metadata TEXT
		)
	`)
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return err
	}
	_, err = s.conn.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_domain_events_tenant ON domain_events(tenant_id, timestamp)
	`)
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return err
	}
	return nil
}

// Save persists e.
func (s *DuckDBStore) Save(ctx context.Context, e *Event) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO domain_events (id, timestamp, type, severity, tenant_id, subject, message, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Timestamp, string(e.Type), string(e.Severity), e.TenantID, e.Subject, e.Message, string(e.Metadata))
	return err
}

// Query returns events matching filter, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	query := `SELECT id, timestamp, type, severity, tenant_id, subject, message, metadata FROM domain_events WHERE tenant_id = ?`
	args := []any{filter.TenantID}

	if len(filter.Types) > 0 {
		placeholders := strings.TrimRight(strings.Repeat("?,", len(filter.Types)), ",")
		query += ` AND type IN (` + placeholders + `)`
		for _, t := range filter.Types {
			args = append(args, string(t))
		}
	}
	if filter.Since != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *filter.Since)
	}
	query += ` ORDER BY timestamp DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var typ, severity, metadata string
		var subject sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &typ, &severity, &e.TenantID, &subject, &e.Message, &metadata); err != nil {
			return nil, err
		}
		e.Type = Type(typ)
		e.Severity = Severity(severity)
		if subject.Valid {
			e.Subject = subject.String
		}
		if metadata != "" {
			e.Metadata = json.RawMessage(metadata)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes events older than olderThan, implementing the events
// table's retention policy.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM domain_events WHERE timestamp < ?`, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
