// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

/*
Package metrics provides Prometheus metrics collection and export for
observability across the sponsorscope core engine.

# Overview

The package provides metrics for:
  - DuckDB store performance and read-replica routing
  - Attribution event ingestion and deduplication
  - ROI calculation
  - Matchmaking score computation
  - Job scheduler dispatch and job execution outcomes
  - Circuit breaker state transitions
  - Cache hit/miss rates
  - Attribution ingestion dead-letter queue depth

# Metrics Endpoint

The edge layer (outside this core) is expected to expose these metrics via
promhttp.Handler() on a /metrics route; this package only registers and
updates the collectors.

# Usage

	start := time.Now()
	err := store.InsertEvent(ctx, event)
	metrics.RecordDBQuery("INSERT", "attribution_events", time.Since(start), err)

All collectors are registered at package init via promauto, in one
package-level var block.
*/
package metrics
