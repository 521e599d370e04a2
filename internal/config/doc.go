// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

/*
Package config provides centralized configuration management for the
sponsorscope core engine.

# Configuration Sources

Configuration layers in order of increasing precedence:
  - Built-in defaults (defaultConfig)
  - An optional YAML file (config.yaml, or $CONFIG_PATH)
  - Environment variables

# Configuration Structure

  - DatabaseConfig: DuckDB primary/replica paths, retention, rollup refresh
  - CacheConfig: Badger-backed TTL cache path and default TTL
  - MessagingConfig: NATS JetStream stream/subject/DLQ settings for ingestion
  - SchedulerConfig: concurrency and resource budget for the job scheduler
  - EventsConfig: structured domain event logger buffering and retention
  - ServerConfig: process listen address for the edge layer's probes
  - LoggingConfig: zerolog level/format

# Environment Variables

Env vars map to koanf paths by splitting on the first underscore
(DATABASE_PATH -> database.path, SCHEDULER_MAX_RETRIES ->
scheduler.max_retries). A small set of legacy aliases
(POSTGRES_DSN, REDIS_URL, NATS_URL, LOG_LEVEL, HTTP_PORT) are recognized for
deployments carrying over their existing variable names.

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    return fmt.Errorf("config: %w", err)
	}
*/
package config
