// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package main

import (
	"context"

	"github.com/tomtom215/sponsorscope/internal/automation"
	"github.com/tomtom215/sponsorscope/internal/models"
	"github.com/tomtom215/sponsorscope/internal/persistence"
	"github.com/tomtom215/sponsorscope/internal/scheduler"
)

// registerAutomationJobs wires the cron-driven automation jobs into
// sched, one ScheduledJob per Jobs method, scoped to tenantID, plus the
// store's retention cutoff as a background maintenance job. A
// multi-tenant edge layer would instead call sched.Enqueue per tenant on
// its own schedule; this is the single-tenant default for the standalone
// binary.
func registerAutomationJobs(sched *scheduler.Scheduler, jobs *automation.Jobs, store *persistence.Store, tenantID string) error {
	registrations := []struct {
		job     models.ScheduledJob
		handler scheduler.JobHandler
	}{
		{
			job: models.ScheduledJob{
				JobID:      "etl_health",
				Name:       "etl_health",
				Schedule:   "hourly",
				Priority:   models.PriorityNormal,
				MaxRetries: 2,
				Enabled:    true,
			},
			handler: func(ctx context.Context, _ models.ScheduledJob, _ models.JobExecution) (any, error) {
				return jobs.ETLHealth(ctx, tenantID)
			},
		},
		{
			job: models.ScheduledJob{
				JobID:      "refresh_metrics_daily",
				Name:       "refresh_metrics_daily",
				Schedule:   "daily",
				Priority:   models.PriorityLow,
				MaxRetries: 3,
				Enabled:    true,
			},
			handler: func(ctx context.Context, _ models.ScheduledJob, _ models.JobExecution) (any, error) {
				return nil, jobs.RefreshMetricsDaily(ctx, tenantID)
			},
		},
		{
			job: models.ScheduledJob{
				JobID:      "deal_pipeline_alerts",
				Name:       "deal_pipeline_alerts",
				Schedule:   "hourly",
				Priority:   models.PriorityNormal,
				MaxRetries: 2,
				Enabled:    true,
			},
			handler: func(ctx context.Context, _ models.ScheduledJob, _ models.JobExecution) (any, error) {
				return jobs.DealPipelineAlerts(ctx, tenantID)
			},
		},
		{
			// Tenant-wide recalculation is the Cartesian fanout mode
			// that must only run from the scheduler, never synchronously
			// from a request.
			job: models.ScheduledJob{
				JobID:      "recalculate_matches",
				Name:       "recalculate_matches",
				Schedule:   "daily",
				Priority:   models.PriorityBackground,
				MaxRetries: 1,
				Enabled:    true,
			},
			handler: func(ctx context.Context, _ models.ScheduledJob, _ models.JobExecution) (any, error) {
				return jobs.RecalculateMatches(ctx, "", "", tenantID, true)
			},
		},
		{
			// Retention stands in for the time-series store's native
			// policy: raw listener metrics older than the configured
			// window are dropped after the daily rollup has them.
			job: models.ScheduledJob{
				JobID:      "metrics_retention",
				Name:       "metrics_retention",
				Schedule:   "daily",
				Priority:   models.PriorityBackground,
				DependsOn:  []string{"refresh_metrics_daily"},
				MaxRetries: 1,
				Enabled:    true,
			},
			handler: func(ctx context.Context, _ models.ScheduledJob, _ models.JobExecution) (any, error) {
				return store.ApplyRetention(ctx)
			},
		},
	}

	for _, r := range registrations {
		if err := sched.RegisterJob(r.job, r.handler); err != nil {
			return err
		}
	}
	return nil
}
