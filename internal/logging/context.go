// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	// tenantIDKey carries the tenant a request or job is scoped to. Every
	// core operation runs under a tenant, so every Ctx-derived log line
	// should carry it.
	tenantIDKey contextKey = "tenant_id"

	// correlationIDKey ties together the log lines of one logical
	// operation as it crosses component boundaries (ingestion edge →
	// store, scheduler → job handler).
	correlationIDKey contextKey = "correlation_id"
)

// ContextWithTenantID returns a new context carrying the given tenant ID.
//
//	ctx = logging.ContextWithTenantID(ctx, tenantID)
func ContextWithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantIDFromContext retrieves the tenant ID from ctx, or "" if absent.
func TenantIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(tenantIDKey).(string); ok {
		return id
	}
	return ""
}

// GenerateCorrelationID creates a new correlation ID. The first 8 characters
// of a UUID are enough to be unique within a log window and stay readable.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// ContextWithCorrelationID returns a new context carrying the given
// correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID returns a context carrying a freshly generated
// correlation ID. The scheduler stamps one onto each dispatched execution.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext retrieves the correlation ID from ctx, or "" if
// absent.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// CtxWith returns a logger context builder with the tenant and correlation
// IDs from ctx pre-populated. Use it when adding fields beyond the standard
// context ones.
//
//	logger := logging.CtxWith(ctx).Str("campaign_id", id).Logger()
func CtxWith(ctx context.Context) zerolog.Context {
	logCtx := Logger().With()
	if tenantID := TenantIDFromContext(ctx); tenantID != "" {
		logCtx = logCtx.Str("tenant_id", tenantID)
	}
	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}
	return logCtx
}

// Ctx returns a logger with the tenant and correlation IDs from ctx
// automatically attached. This is the recommended way to log inside core
// operations.
//
//	logging.Ctx(ctx).Info().Str("campaign_id", id).Msg("roi computed")
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := CtxWith(ctx).Logger()
	return &logger
}

// WithComponent creates a child logger carrying a component field.
//
//	schedLogger := logging.WithComponent("scheduler")
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
