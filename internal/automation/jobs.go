// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

// Package automation implements the automation jobs: four
// tenant-scoped handlers invoked by the scheduler or an API trigger, plus
// a run_all aggregate that excludes matchmaking recalculation.
package automation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tomtom215/sponsorscope/internal/events"
	"github.com/tomtom215/sponsorscope/internal/logging"
	"github.com/tomtom215/sponsorscope/internal/matchmaking"
	"github.com/tomtom215/sponsorscope/internal/metrics"
	"github.com/tomtom215/sponsorscope/internal/models"
	"github.com/tomtom215/sponsorscope/internal/persistence"
)

const (
	healthyThreshold  = 6 * time.Hour
	degradedThreshold = 24 * time.Hour

	stuckThreshold       = 7 * 24 * time.Hour
	negotiationThreshold = 14 * 24 * time.Hour
)

// HealthStatus is the etl_health classification.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// ETLHealthReport is the result of etl_health.
type ETLHealthReport struct {
	Status         HealthStatus   `json:"status"`
	CompletedCount int            `json:"completed_count"`
	FailedCount    int            `json:"failed_count"`
	LastSuccessAge *time.Duration `json:"last_success_age,omitempty"`
}

// DealAlertCategory names one of the three deal-pipeline alert categories.
type DealAlertCategory string

const (
	CategoryStuck             DealAlertCategory = "stuck"
	CategoryLongNegotiation   DealAlertCategory = "long_negotiation"
	CategoryLostWithoutReason DealAlertCategory = "lost_without_reason"
)

// DealAlertBlock groups campaigns under one alert category.
type DealAlertBlock struct {
	Category  DealAlertCategory `json:"category"`
	Campaigns []models.Campaign `json:"campaigns"`
}

// RunAllReport aggregates the three run_all sub-results.
type RunAllReport struct {
	ETLHealth    ETLHealthReport  `json:"etl_health"`
	MetricsDaily bool             `json:"metrics_daily_refreshed"`
	DealAlerts   []DealAlertBlock `json:"deal_alerts"`
}

// Jobs implements the four automation handlers over a relational port, a
// matchmaking scorer, and the domain event logger.
type Jobs struct {
	relational persistence.RelationalPort
	scorer     *matchmaking.Scorer
	events     *events.Logger

	retryBaseDelay time.Duration

	mu      sync.Mutex
	running bool
}

// New constructs Jobs. retryBaseDelay is the base of the
// 60*2^retry_count backoff automation-triggered retries apply when
// rescheduling themselves.
func New(relational persistence.RelationalPort, scorer *matchmaking.Scorer, evt *events.Logger, retryBaseDelay time.Duration) *Jobs {
	if retryBaseDelay <= 0 {
		retryBaseDelay = 60 * time.Second
	}
	return &Jobs{relational: relational, scorer: scorer, events: evt, retryBaseDelay: retryBaseDelay}
}

// BackoffDelay returns the delay before the (retryCount+1)th retry,
// 60*2^retry_count seconds scaled by retryBaseDelay/60s.
// It is driven by a cenkalti/backoff ExponentialBackOff with randomization
// disabled, the same policy grounded on nmxmxh-master-ovasabi's scheduler
// retry loop, configured to reproduce the doubling exactly rather than
// hand-rolled bit shifting.
func (j *Jobs) BackoffDelay(retryCount int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = j.retryBaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = j.retryBaseDelay * (1 << 20)
	b.MaxElapsedTime = 0 // never stop retrying due to elapsed wall time
	b.Reset()

	delay := b.InitialInterval
	for i := 0; i <= retryCount; i++ {
		delay = b.NextBackOff()
	}
	return delay
}

// ETLHealth classifies tenantID's recent ETL import activity.
func (j *Jobs) ETLHealth(ctx context.Context, tenantID string) (ETLHealthReport, error) {
	since := time.Now().UTC().Add(-24 * time.Hour)

	completed, err := j.relational.CountETLImports(ctx, tenantID, "completed", since)
	if err != nil {
		return ETLHealthReport{}, err
	}
	failed, err := j.relational.CountETLImports(ctx, tenantID, "failed", since)
	if err != nil {
		return ETLHealthReport{}, err
	}
	lastSuccess, err := j.relational.MostRecentCompletedImport(ctx, tenantID)
	if err != nil {
		return ETLHealthReport{}, err
	}

	report := ETLHealthReport{CompletedCount: completed, FailedCount: failed}
	now := time.Now().UTC()

	switch {
	case lastSuccess == nil:
		report.Status = HealthUnhealthy
	case now.Sub(*lastSuccess) < healthyThreshold:
		report.Status = HealthHealthy
	case now.Sub(*lastSuccess) < degradedThreshold:
		report.Status = HealthDegraded
	default:
		report.Status = HealthUnhealthy
	}

	if lastSuccess != nil {
		age := now.Sub(*lastSuccess)
		report.LastSuccessAge = &age
	}

	metrics.UpdateETLHealthStatus(tenantID, healthGaugeValue(report.Status))

	if report.Status == HealthUnhealthy && j.events != nil {
		j.events.Emit(tenantID, events.TypeETLHealthAlert, events.SeverityCritical, tenantID,
			"ETL pipeline unhealthy", map[string]any{
				"failed_count":    failed,
				"completed_count": completed,
			})
	}

	return report, nil
}

func healthGaugeValue(status HealthStatus) float64 {
	switch status {
	case HealthHealthy:
		return 1.0
	case HealthDegraded:
		return 0.5
	default:
		return 0.0
	}
}

// RefreshMetricsDaily invokes the daily rollup refresh. Idempotent.
func (j *Jobs) RefreshMetricsDaily(ctx context.Context, tenantID string) error {
	if err := j.relational.RefreshMetricsDaily(ctx); err != nil {
		return err
	}
	if j.events != nil {
		j.events.Emit(tenantID, events.TypeMetricsDailyRefreshed, events.SeverityInfo, tenantID,
			"daily metrics rollup refreshed", nil)
	}
	return nil
}

// DealPipelineAlerts runs the three deal-pipeline queries and returns one
// block per non-empty category.
func (j *Jobs) DealPipelineAlerts(ctx context.Context, tenantID string) ([]DealAlertBlock, error) {
	now := time.Now().UTC()

	stuck, err := j.relational.ListStuckCampaigns(ctx, tenantID, now.Add(-stuckThreshold))
	if err != nil {
		return nil, err
	}
	longNegotiation, err := j.relational.ListLongNegotiationCampaigns(ctx, tenantID, now.Add(-negotiationThreshold))
	if err != nil {
		return nil, err
	}
	lostWithoutReason, err := j.relational.ListLostWithoutReasonCampaigns(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var blocks []DealAlertBlock
	blocks = j.appendBlock(blocks, tenantID, CategoryStuck, stuck)
	blocks = j.appendBlock(blocks, tenantID, CategoryLongNegotiation, longNegotiation)
	blocks = j.appendBlock(blocks, tenantID, CategoryLostWithoutReason, lostWithoutReason)
	return blocks, nil
}

func (j *Jobs) appendBlock(blocks []DealAlertBlock, tenantID string, category DealAlertCategory, campaigns []models.Campaign) []DealAlertBlock {
	if len(campaigns) == 0 {
		return blocks
	}
	metrics.RecordDealPipelineAlert(tenantID, string(category))
	if j.events != nil {
		j.events.Emit(tenantID, events.TypeDealPipelineAlert, events.SeverityWarning, tenantID,
			fmt.Sprintf("deal pipeline alert: %s", category), map[string]any{
				"category": category,
				"count":    len(campaigns),
			})
	}
	return append(blocks, DealAlertBlock{Category: category, Campaigns: campaigns})
}

// RecalculateMatches dispatches to the matchmaking fanout modes. When
// neither advertiserID nor podcastID is supplied, allowTenantWide must be
// true (the scheduler's privilege, never a synchronous API caller).
func (j *Jobs) RecalculateMatches(ctx context.Context, advertiserID, podcastID, tenantID string, allowTenantWide bool) ([]models.Match, error) {
	return j.scorer.Recalculate(ctx, advertiserID, podcastID, tenantID, allowTenantWide)
}

// RunAll executes etl_health, refresh_metrics_daily, and
// deal_pipeline_alerts sequentially for tenantID. Matchmaking
// recalculation is excluded and must be scheduled separately.
// Concurrent invocations on the same instance short-circuit with a
// warning.
func (j *Jobs) RunAll(ctx context.Context, tenantID string) (RunAllReport, error) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		logging.Warn().Str("tenant_id", tenantID).Msg("run_all already in progress on this instance, skipping")
		return RunAllReport{}, nil
	}
	j.running = true
	j.mu.Unlock()
	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	report := RunAllReport{}

	health, err := j.ETLHealth(ctx, tenantID)
	if err != nil {
		return report, err
	}
	report.ETLHealth = health

	if err := j.RefreshMetricsDaily(ctx, tenantID); err != nil {
		return report, err
	}
	report.MetricsDaily = true

	alerts, err := j.DealPipelineAlerts(ctx, tenantID)
	if err != nil {
		return report, err
	}
	report.DealAlerts = alerts

	return report, nil
}
