// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

// Package logging provides zerolog-based structured logging for the core
// engine.
//
// Every component logs through this package: the attribution edge, the
// scheduler dispatch loop, the automation jobs, and the persistence ports.
// Output is JSON by default (console format is available for development),
// and every log line inside a core operation carries the tenant the
// operation is scoped to.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("campaign_id", id).Msg("roi computed")
//	logging.Error().Err(err).Msg("store unreachable")
//
// # Tenant-Scoped Logging
//
// Attach the tenant once and every Ctx-derived line carries it:
//
//	ctx = logging.ContextWithTenantID(ctx, tenantID)
//	logging.Ctx(ctx).Warn().Str("reason", "breaker_open").Msg("ingestion degraded")
//
// Correlation IDs work the same way; the scheduler stamps a fresh one onto
// each dispatched execution so a job's log lines can be tied together:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//
// # Component Loggers
//
// Long-lived components hold a child logger with a component field instead
// of tagging every call site:
//
//	schedLogger := logging.WithComponent("scheduler")
//	schedLogger.Info().Msg("dispatch loop started")
//
// The ingestion edge uses the specialized EventLogger, which narrates the
// lifecycle of each attribution event (received, stored, published,
// dead-lettered) under component=ingestion.
//
// # Suture Integration
//
// The supervisor tree logs through sutureslog, which requires an
// slog.Logger; NewSlogLogger adapts the global zerolog logger:
//
//	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
//
// # Discipline
//
// Always terminate log chains with .Msg() or .Send(); an unterminated chain
// is silently dropped. Prefer structured fields over Msgf formatting:
//
//	logging.Info().Str("job", name).Int("retries", n).Msg("job completed")
//
// # Testing
//
// NewTestLogger writes JSON lines to any writer; pair it with SetLogger or
// NewEventLoggerWithLogger to assert on output:
//
//	var buf bytes.Buffer
//	logging.SetLogger(logging.NewTestLogger(&buf))
package logging
