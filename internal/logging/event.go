// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// EventLogger logs the lifecycle of attribution events moving through the
// ingestion edge: received, stored, published, dead-lettered. It carries
// component=ingestion on every line so edge traffic can be filtered out of
// the scheduler's and jobs' output.
type EventLogger struct {
	logger zerolog.Logger
}

// NewEventLogger returns an EventLogger writing through the global logger.
func NewEventLogger() *EventLogger {
	return &EventLogger{logger: WithComponent("ingestion")}
}

// NewEventLoggerWithLogger returns an EventLogger writing through a specific
// logger. Tests use this to capture edge output.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewEventLoggerWithLogger(logger zerolog.Logger) *EventLogger {
	return &EventLogger{logger: logger.With().Str("component", "ingestion").Logger()}
}

// ctxLogger attaches the tenant and correlation IDs from ctx.
func (e *EventLogger) ctxLogger(ctx context.Context) zerolog.Logger {
	logCtx := e.logger.With()
	if tenantID := TenantIDFromContext(ctx); tenantID != "" {
		logCtx = logCtx.Str("tenant_id", tenantID)
	}
	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}
	return logCtx.Logger()
}

// LogEventReceived records an attribution event arriving at the edge.
func (e *EventLogger) LogEventReceived(ctx context.Context, eventID, campaignID, method string) {
	logger := e.ctxLogger(ctx)
	logger.Info().
		Str("event_id", eventID).
		Str("campaign_id", campaignID).
		Str("attribution_method", method).
		Msg("event received")
}

// LogEventProcessed records an event written to the attribution store.
func (e *EventLogger) LogEventProcessed(ctx context.Context, eventID string, durationMs int64) {
	logger := e.ctxLogger(ctx)
	logger.Info().
		Str("event_id", eventID).
		Int64("duration_ms", durationMs).
		Msg("event stored")
}

// LogEventFailed records an event the store rejected.
func (e *EventLogger) LogEventFailed(ctx context.Context, eventID string, err error) {
	logger := e.ctxLogger(ctx)
	logger.Error().
		Str("event_id", eventID).
		Err(err).
		Msg("event processing failed")
}

// LogDuplicate records an event skipped because its event_id was already
// ingested.
func (e *EventLogger) LogDuplicate(ctx context.Context, eventID, reason string) {
	logger := e.ctxLogger(ctx)
	logger.Debug().
		Str("event_id", eventID).
		Str("reason", reason).
		Msg("duplicate event skipped")
}

// LogDLQEntry records an event falling back to the dead-letter queue after
// a failed publish.
func (e *EventLogger) LogDLQEntry(ctx context.Context, eventID string, err error, retryCount int) {
	logger := e.ctxLogger(ctx)
	logger.Warn().
		Str("event_id", eventID).
		Err(err).
		Int("retry_count", retryCount).
		Msg("event sent to DLQ")
}

// LogEventPublished records an event published onto the attribution stream.
func (e *EventLogger) LogEventPublished(ctx context.Context, eventID, topic string) {
	logger := e.ctxLogger(ctx)
	logger.Debug().
		Str("event_id", eventID).
		Str("topic", topic).
		Msg("event published")
}
