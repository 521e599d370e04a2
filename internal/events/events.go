// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

// Package events is the structured domain event logger: an
// async-buffered, at-least-once append of significant core outcomes
// (attribution.ingested, etl.health_alert, deal_pipeline.alert,
// matchmaking.match_upserted, scheduler.job_*) to an events table.
package events

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// Type categorizes a domain event.
type Type string

const (
	TypeAttributionIngested   Type = "attribution.ingested"
	TypeETLHealthAlert        Type = "etl.health_alert"
	TypeDealPipelineAlert     Type = "deal_pipeline.alert"
	TypeMatchUpserted         Type = "matchmaking.match_upserted"
	TypeSchedulerJobQueued    Type = "scheduler.job_queued"
	TypeSchedulerJobCompleted Type = "scheduler.job_completed"
	TypeSchedulerJobFailed    Type = "scheduler.job_failed"
	TypeSchedulerJobRetried   Type = "scheduler.job_retried"
	TypeMetricsDailyRefreshed Type = "metrics_daily.refreshed"
)

// Severity indicates how significant an event is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Event is one append-only row in the structured domain event log.
type Event struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      Type            `json:"type"`
	Severity  Severity        `json:"severity"`
	TenantID  string          `json:"tenant_id"`
	Subject   string          `json:"subject,omitempty"` // campaign_id, job_id, etc, whatever the event concerns
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Store defines the persistence interface for domain events. A store that cannot be reached does not
// fail the caller's operation; Logger swallows and logs write errors, since
// event logging is an observability side-channel, never load-bearing for
// the operation that raised the event.
type Store interface {
	Save(ctx context.Context, e *Event) error
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter filters Query results.
type QueryFilter struct {
	TenantID string
	Types    []Type
	Since    *time.Time
	Limit    int
}

func mustJSON(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
