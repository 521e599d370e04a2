// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - DuckDB store performance (relational + time-series ports)
// - Attribution ingestion
// - ROI calculation
// - Matchmaking scoring
// - Job scheduler and automation jobs

var (
	// Store Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBConnectionPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "duckdb_connection_pool_size",
			Help: "Current number of database connections in use",
		},
	)

	DBReadReplicaRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_read_replica_routed_total",
			Help: "Total number of queries routed to the read-replica connection",
		},
		[]string{"operation"},
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "roi", "matchmaking", "metrics"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry or invalidation)",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Dead Letter Queue Metrics (attribution ingestion)
	DLQEntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlq_entries_total",
			Help: "Current number of entries in the attribution ingestion Dead Letter Queue",
		},
	)

	DLQMessagesAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dlq_messages_added_total",
			Help: "Total number of attribution events added to the DLQ",
		},
	)

	DLQMessagesDrained = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dlq_messages_drained_total",
			Help: "Total number of attribution events successfully forwarded out of the DLQ",
		},
	)

	DLQOldestEntryAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlq_oldest_entry_age_seconds",
			Help: "Age of the oldest entry in the DLQ in seconds",
		},
	)

	// Attribution Ingestion Metrics
	AttributionEventsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attribution_events_ingested_total",
			Help: "Total number of attribution events ingested",
		},
		[]string{"tenant_id", "method"}, // method: promo_code, pixel, utm, custom, direct
	)

	AttributionEventsDeduplicatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attribution_events_deduplicated_total",
			Help: "Total number of attribution events skipped due to duplicate event_id",
		},
		[]string{"tenant_id"},
	)

	AttributionIngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "attribution_ingest_duration_seconds",
			Help:    "Duration of attribution event ingestion in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// NATS JetStream Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of messages consumed from NATS",
		},
	)

	NATSQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nats_queue_depth",
			Help: "Current depth of the NATS message queue",
		},
	)

	// ROI Calculation Metrics
	ROICalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roi_calculations_total",
			Help: "Total number of ROI calculations performed",
		},
		[]string{"tenant_id", "mode"}, // mode: simple, attributed, incremental, multi_touch
	)

	ROICalculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roi_calculation_duration_seconds",
			Help:    "Duration of ROI calculation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// Matchmaking Scoring Metrics
	MatchmakingScoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchmaking_score_duration_seconds",
			Help:    "Duration of a single advertiser-podcast match score computation",
			Buckets: prometheus.DefBuckets,
		},
	)

	MatchmakingScoresComputedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_scores_computed_total",
			Help: "Total number of advertiser-podcast match scores computed",
		},
		[]string{"tenant_id"},
	)

	MatchmakingRecalculationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchmaking_recalculation_duration_seconds",
			Help:    "Duration of a full matchmaking recalculation job in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// Scheduler Metrics
	SchedulerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_queue_depth",
			Help: "Current number of jobs waiting in the priority scheduler queue",
		},
	)

	SchedulerJobsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_jobs_dispatched_total",
			Help: "Total number of jobs dispatched by the scheduler",
		},
		[]string{"priority"},
	)

	SchedulerJobsRetriedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_jobs_retried_total",
			Help: "Total number of job retries scheduled after failure",
		},
		[]string{"job_type"},
	)

	JobExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_execution_duration_seconds",
			Help:    "Duration of a scheduled job execution in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		},
		[]string{"job_type", "status"}, // status: success, failure, timeout
	)

	// Automation job metrics
	ETLHealthStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "etl_health_status",
			Help: "ETL health classification per tenant: 0=unhealthy, 0.5=degraded, 1=healthy",
		},
		[]string{"tenant_id"},
	)

	DealPipelineAlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_pipeline_alerts_total",
			Help: "Total number of deal pipeline alert blocks emitted",
		},
		[]string{"tenant_id", "category"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAttributionIngested records a successfully ingested attribution event.
func RecordAttributionIngested(tenantID, method string, duration time.Duration) {
	AttributionEventsIngestedTotal.WithLabelValues(tenantID, method).Inc()
	AttributionIngestDuration.Observe(duration.Seconds())
}

// RecordAttributionDeduplicated records an attribution event skipped as a duplicate.
func RecordAttributionDeduplicated(tenantID string) {
	AttributionEventsDeduplicatedTotal.WithLabelValues(tenantID).Inc()
}

// RecordDLQEntry records an attribution event being added to the DLQ.
func RecordDLQEntry() {
	DLQMessagesAdded.Inc()
}

// RecordDLQDrain records an attribution event being forwarded out of the DLQ.
func RecordDLQDrain() {
	DLQMessagesDrained.Inc()
}

// UpdateDLQGauges updates DLQ gauge metrics with current stats.
func UpdateDLQGauges(totalEntries int64, oldestEntryAge float64) {
	DLQEntriesTotal.Set(float64(totalEntries))
	DLQOldestEntryAge.Set(oldestEntryAge)
}

// RecordNATSPublish records a message being published to NATS.
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records a message being consumed from NATS.
func RecordNATSConsume() {
	NATSMessagesConsumed.Inc()
}

// UpdateNATSQueueDepth updates the NATS queue depth gauge.
func UpdateNATSQueueDepth(depth int64) {
	NATSQueueDepth.Set(float64(depth))
}

// RecordROICalculation records an ROI calculation.
func RecordROICalculation(tenantID, mode string, duration time.Duration) {
	ROICalculationsTotal.WithLabelValues(tenantID, mode).Inc()
	ROICalculationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordMatchmakingScore records a single match score computation.
func RecordMatchmakingScore(tenantID string, duration time.Duration) {
	MatchmakingScoresComputedTotal.WithLabelValues(tenantID).Inc()
	MatchmakingScoreDuration.Observe(duration.Seconds())
}

// RecordMatchmakingRecalculation records a full recalculation job's duration.
func RecordMatchmakingRecalculation(duration time.Duration) {
	MatchmakingRecalculationDuration.Observe(duration.Seconds())
}

// UpdateSchedulerQueueDepth updates the scheduler queue depth gauge.
func UpdateSchedulerQueueDepth(depth int) {
	SchedulerQueueDepth.Set(float64(depth))
}

// RecordJobDispatched records a job being dispatched by the scheduler.
func RecordJobDispatched(priority string) {
	SchedulerJobsDispatchedTotal.WithLabelValues(priority).Inc()
}

// RecordJobRetried records a job being rescheduled after failure.
func RecordJobRetried(jobType string) {
	SchedulerJobsRetriedTotal.WithLabelValues(jobType).Inc()
}

// RecordJobExecution records a job execution's duration and outcome.
func RecordJobExecution(jobType, status string, duration time.Duration) {
	JobExecutionDuration.WithLabelValues(jobType, status).Observe(duration.Seconds())
}

// UpdateETLHealthStatus records the etl_health classification gauge for
// tenantID: 0=unhealthy, 0.5=degraded, 1=healthy.
func UpdateETLHealthStatus(tenantID string, value float64) {
	ETLHealthStatus.WithLabelValues(tenantID).Set(value)
}

// RecordDealPipelineAlert records one deal-pipeline alert block being
// emitted for tenantID under category.
func RecordDealPipelineAlert(tenantID, category string) {
	DealPipelineAlertsTotal.WithLabelValues(tenantID, category).Inc()
}
