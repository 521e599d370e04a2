// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

// Package main is the entry point for the sponsorscope core engine: the
// podcast sponsorship attribution, ROI, and matchmaking backend.
//
// # What this binary is
//
// A background worker, not a web server. The HTTP router, authentication,
// billing, and affiliate layers are external collaborators this module
// does not build. cmd/server wires together the domain packages
// (attribution, roi, matchmaking, automation, scheduler, ingestion) behind
// a single Core handle and keeps the always-on pieces running:
//
//   - the attribution ingestion edge, writing to the DuckDB-backed
//     time-series store synchronously and best-effort publishing to NATS
//     JetStream, falling back to a dead-letter queue;
//   - the priority job scheduler;
//   - the cron-driven automation jobs it dispatches.
//
// # Configuration
//
// Configuration loads through koanf (internal/config): built-in defaults,
// an optional YAML file (CONFIG_PATH or one of config.DefaultConfigPaths),
// then environment variables, in increasing precedence. See
// internal/config/koanf.go for the recognized variables, including legacy
// POSTGRES_*/REDIS_*-shaped aliases for operators porting an edge layer
// off a Postgres/Redis deployment.
//
// # Build tags
//
//	go build ./cmd/server              ingestion edge without NATS: every
//	                                    event takes the DLQ path
//	go build -tags nats ./cmd/server    real Watermill/NATS JetStream
//	                                    publisher, optional embedded server
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the root context; the supervisor tree stops
// its children (ingestion forwarder, scheduler loop) and main waits for
// them to report back before exiting.
package main
