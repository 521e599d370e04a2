// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package persistence

import (
	"context"
	"time"
)

// schemaStatements creates the core relational and catalog tables. They are
// CREATE ... IF NOT EXISTS statements; an "already exists" failure mid
// bootstrap is treated as success, following the usual
// schema-initialization convention of idempotent CREATE IF NOT EXISTS.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS attribution_events (
		event_id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		campaign_id TEXT NOT NULL,
		podcast_id TEXT NOT NULL,
		episode_id TEXT,
		attribution_method TEXT NOT NULL,
		conversion_type TEXT,
		conversion_value DOUBLE,
		user_id TEXT,
		session_id TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_attribution_events_campaign
		ON attribution_events(tenant_id, campaign_id, timestamp);`,

	// listener_metrics is the hypertable-equivalent: a time-partitioned
	// append-only table. DuckDB has no native hypertable concept, so the
	// "partitioning" is an index on the time column.
	`CREATE TABLE IF NOT EXISTS listener_metrics (
		timestamp TIMESTAMP NOT NULL,
		podcast_id TEXT NOT NULL,
		episode_id TEXT,
		metric_type TEXT NOT NULL,
		value DOUBLE NOT NULL,
		platform TEXT,
		country TEXT,
		device TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_listener_metrics_podcast
		ON listener_metrics(podcast_id, metric_type, timestamp);`,

	// Continuous-aggregate equivalent: a materialized daily rollup,
	// refreshed on a schedule by the persistence bootstrap's caller.
	`CREATE TABLE IF NOT EXISTS listener_metrics_daily (
		day DATE NOT NULL,
		podcast_id TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		total_value DOUBLE NOT NULL,
		sample_count BIGINT NOT NULL,
		PRIMARY KEY (day, podcast_id, metric_type)
	);`,

	`CREATE TABLE IF NOT EXISTS campaigns (
		campaign_id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		podcast_id TEXT NOT NULL,
		sponsor_id TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		start_date TIMESTAMP NOT NULL,
		end_date TIMESTAMP NOT NULL,
		campaign_value DOUBLE NOT NULL DEFAULT 0,
		attribution_method TEXT NOT NULL,
		promo_code TEXT,
		pixel_url TEXT,
		utm_source TEXT,
		utm_medium TEXT,
		utm_campaign TEXT,
		custom_tracking_id TEXT,
		episode_ids TEXT,
		stage TEXT,
		stage_changed_at TIMESTAMP,
		notes TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_tenant ON campaigns(tenant_id);`,

	`CREATE TABLE IF NOT EXISTS matches (
		match_id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		advertiser_id TEXT NOT NULL,
		podcast_id TEXT NOT NULL,
		score DOUBLE NOT NULL,
		rationale TEXT NOT NULL,
		signals TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (tenant_id, advertiser_id, podcast_id)
	);`,

	// episodes backs the matchmaking scorer's inventory_fit and
	// brand_safety signals; catalog ingestion otherwise sits
	// outside this core's scope.
	`CREATE TABLE IF NOT EXISTS episodes (
		episode_id TEXT PRIMARY KEY,
		podcast_id TEXT NOT NULL,
		publish_date TIMESTAMP NOT NULL,
		ad_slots_filled INTEGER NOT NULL DEFAULT 0,
		max_ad_slots INTEGER NOT NULL DEFAULT 3,
		explicit BOOLEAN NOT NULL DEFAULT FALSE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_episodes_podcast ON episodes(podcast_id, publish_date);`,

	// Targeting/audience profiles back the geo, demographic, and topic
	// overlap signals. List columns are stored as JSON text; a missing row
	// means the scorer falls back to its neutral defaults.
	`CREATE TABLE IF NOT EXISTS advertiser_profiles (
		tenant_id TEXT NOT NULL,
		advertiser_id TEXT NOT NULL,
		target_geos TEXT,
		target_demographics TEXT,
		categories TEXT,
		PRIMARY KEY (tenant_id, advertiser_id)
	);`,
	`CREATE TABLE IF NOT EXISTS podcast_profiles (
		tenant_id TEXT NOT NULL,
		podcast_id TEXT NOT NULL,
		listener_geos TEXT,
		listener_demographics TEXT,
		categories TEXT,
		PRIMARY KEY (tenant_id, podcast_id)
	);`,

	`CREATE TABLE IF NOT EXISTS etl_imports (
		tenant_id TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_etl_imports_tenant ON etl_imports(tenant_id, started_at);`,

	// Optional scheduler checkpoint table.
	`CREATE TABLE IF NOT EXISTS scheduled_tasks (
		task_name TEXT PRIMARY KEY,
		task_type TEXT NOT NULL,
		schedule_cron TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		description TEXT,
		metadata TEXT,
		last_run TIMESTAMP,
		next_run TIMESTAMP
	);`,
}

// bootstrap runs schemaStatements against the primary connection and then
// applies the retention cutoff if configured. Statement failures that
// indicate the object already exists are swallowed: idempotent bootstrap
// counts as success.
func (s *Store) bootstrap(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.primary.ExecContext(ctx, stmt); err != nil && !isAlreadyExists(err) {
			return err
		}
	}
	return nil
}

// ApplyRetention deletes listener_metrics rows older than RetentionDays.
// A RetentionDays of 0 disables retention entirely. This stands in for a
// time-series store's native retention policy.
func (s *Store) ApplyRetention(ctx context.Context) (int64, error) {
	if s.cfg.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.RetentionDays)
	res, err := s.primary.ExecContext(ctx, `DELETE FROM listener_metrics WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RefreshDailyAggregate recomputes listener_metrics_daily from raw
// listener_metrics, standing in for a continuous aggregate's periodic
// refresh.
func (s *Store) RefreshDailyAggregate(ctx context.Context) error {
	_, err := s.primary.ExecContext(ctx, `
		INSERT INTO listener_metrics_daily (day, podcast_id, metric_type, total_value, sample_count)
		SELECT date_trunc('day', timestamp) AS day, podcast_id, metric_type,
		       SUM(value) AS total_value, COUNT(*) AS sample_count
		FROM listener_metrics
		GROUP BY 1, 2, 3
		ON CONFLICT (day, podcast_id, metric_type)
		DO UPDATE SET total_value = EXCLUDED.total_value, sample_count = EXCLUDED.sample_count
	`)
	return err
}
