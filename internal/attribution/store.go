// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

// Package attribution implements the attribution store: ingestion of
// attribution events, time-windowed reads, and per-campaign performance
// aggregation. It is a thin business layer over persistence.TimeSeriesPort,
// adding the metrics/event-log side-channel and the campaign_performance
// composite query that spans both attribution_events and listener_metrics.
package attribution

import (
	"context"
	"strconv"
	"time"

	"github.com/tomtom215/sponsorscope/internal/apperrors"
	"github.com/tomtom215/sponsorscope/internal/events"
	"github.com/tomtom215/sponsorscope/internal/metrics"
	"github.com/tomtom215/sponsorscope/internal/models"
	"github.com/tomtom215/sponsorscope/internal/persistence"
)

// Store is the attribution event store.
type Store struct {
	ts     persistence.TimeSeriesPort
	events *events.Logger
	// LegacyDistinctListeners reproduces a long-standing reporting quirk:
	// counting distinct metric *values* rather than distinct listener
	// identifiers. Defaults to true for parity with existing reports;
	// set false to use the corrected distinct-device count.
	LegacyDistinctListeners bool
}

// New constructs a Store over ts, emitting domain events through evt (may
// be nil in tests).
func New(ts persistence.TimeSeriesPort, evt *events.Logger) *Store {
	return &Store{ts: ts, events: evt, LegacyDistinctListeners: true}
}

// Ingest upserts e, idempotent on EventID. conversion_value implies
// conversion_type, per the data model invariant.
func (s *Store) Ingest(ctx context.Context, e models.AttributionEvent) error {
	if e.ConversionValue != nil && e.ConversionType == nil {
		return apperrors.New(apperrors.KindValidation, "attribution", "Ingest", "conversion_value present without conversion_type")
	}

	start := time.Now()
	if err := s.ts.IngestAttributionEvent(ctx, e); err != nil {
		return err
	}
	metrics.RecordAttributionIngested(e.TenantID, string(e.Method), time.Since(start))

	if s.events != nil {
		s.events.Emit(e.TenantID, events.TypeAttributionIngested, events.SeverityInfo, e.CampaignID,
			"attribution event ingested", map[string]any{
				"event_id":    e.EventID,
				"podcast_id":  e.PodcastID,
				"method":      e.Method,
				"conversion":  e.IsConversion(),
			})
	}
	return nil
}

// ListEvents returns events for (tenantID, campaignID) within an optional
// [start, end] window, descending by timestamp.
func (s *Store) ListEvents(ctx context.Context, tenantID, campaignID string, start, end *time.Time) ([]models.AttributionEvent, error) {
	return s.ts.ListAttributionEvents(ctx, tenantID, campaignID, start, end)
}

// ListMetrics returns listener metrics for (podcastID, metricType) within
// an optional window, with optional platform/episode filters.
func (s *Store) ListMetrics(ctx context.Context, podcastID string, metricType models.MetricType, start, end *time.Time, platform, episodeID *string) ([]models.ListenerMetric, error) {
	return s.ts.ListListenerMetrics(ctx, podcastID, metricType, start, end, platform, episodeID)
}

// Aggregate reduces listener metrics for (podcastID, metricType) within an
// optional window using op. Empty windows return 0 for every op.
func (s *Store) Aggregate(ctx context.Context, podcastID string, metricType models.MetricType, start, end *time.Time, op models.AggregateOp) (float64, error) {
	return s.ts.AggregateListenerMetric(ctx, podcastID, metricType, start, end, op)
}

// Performance is the campaign_performance aggregate result.
type Performance struct {
	CampaignID        string  `json:"campaign_id"`
	PodcastID         string  `json:"podcast_id"`
	Downloads         float64 `json:"downloads"`
	Streams           float64 `json:"streams"`
	DistinctListeners int     `json:"distinct_listeners"`
	AttributionEvents int     `json:"attribution_events"`
	Conversions       int     `json:"conversions"`
	ConversionValue   float64 `json:"conversion_value"`
}

// CampaignPerformance aggregates downloads, streams, distinct listeners,
// attribution-event count, conversion count, and conversion-value sum for
// (campaignID, podcastID) within an optional window.
func (s *Store) CampaignPerformance(ctx context.Context, tenantID, campaignID, podcastID string, start, end *time.Time) (*Performance, error) {
	perf := &Performance{CampaignID: campaignID, PodcastID: podcastID}

	downloads, err := s.ts.AggregateListenerMetric(ctx, podcastID, models.MetricDownloads, start, end, models.AggSum)
	if err != nil {
		return nil, err
	}
	perf.Downloads = downloads

	streams, err := s.ts.AggregateListenerMetric(ctx, podcastID, models.MetricStreams, start, end, models.AggSum)
	if err != nil {
		return nil, err
	}
	perf.Streams = streams

	listenerMetrics, err := s.ts.ListListenerMetrics(ctx, podcastID, models.MetricListeners, start, end, nil, nil)
	if err != nil {
		return nil, err
	}
	perf.DistinctListeners = distinctListenerCount(listenerMetrics, s.LegacyDistinctListeners)

	events, err := s.ts.ListAttributionEvents(ctx, tenantID, campaignID, start, end)
	if err != nil {
		return nil, err
	}
	perf.AttributionEvents = len(events)
	for _, e := range events {
		if e.IsConversion() {
			perf.Conversions++
			perf.ConversionValue += e.ConversionValueOrZero()
		}
	}

	return perf, nil
}

// distinctListenerCount implements the flagged distinct-listener-count bug
// and its opt-in fix.
// Legacy: distinct *values* of the listeners metric (almost certainly a
// bug -- it was meant to count distinct listener identifiers). Fixed:
// distinct non-empty device identifiers, a real stand-in for a listener.
func distinctListenerCount(ms []models.ListenerMetric, legacy bool) int {
	seen := make(map[string]struct{}, len(ms))
	for _, m := range ms {
		var key string
		if legacy {
			key = strconv.FormatFloat(m.Value, 'g', -1, 64)
		} else if m.Device != nil && *m.Device != "" {
			key = *m.Device
		} else {
			continue
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}
