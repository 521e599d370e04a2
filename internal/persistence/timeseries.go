// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/tomtom215/sponsorscope/internal/apperrors"
	"github.com/tomtom215/sponsorscope/internal/models"
)

// TimeSeriesPort is the append-only time-series surface over attribution
// events and listener metrics. Like RelationalPort, every
// method is explicitly tenant-scoped rather than relying on session state
// -- except listener_metrics, which the schema keeps
// tenant-agnostic; podcast_id is the scoping key there.
type TimeSeriesPort interface {
	IngestAttributionEvent(ctx context.Context, e models.AttributionEvent) error
	ListAttributionEvents(ctx context.Context, tenantID, campaignID string, start, end *time.Time) ([]models.AttributionEvent, error)

	IngestListenerMetric(ctx context.Context, m models.ListenerMetric) error
	ListListenerMetrics(ctx context.Context, podcastID string, metricType models.MetricType, start, end *time.Time, platform, episodeID *string) ([]models.ListenerMetric, error)
	AggregateListenerMetric(ctx context.Context, podcastID string, metricType models.MetricType, start, end *time.Time, op models.AggregateOp) (float64, error)
}

type timeSeriesStore struct {
	store *Store
}

// TimeSeries returns the TimeSeriesPort view of s.
func (s *Store) TimeSeries() TimeSeriesPort {
	return &timeSeriesStore{store: s}
}

// IngestAttributionEvent upserts e, doing nothing on a conflicting
// event_id so ingestion is idempotent.
func (t *timeSeriesStore) IngestAttributionEvent(ctx context.Context, e models.AttributionEvent) error {
	conn := t.store.conn(false, "INSERT")
	_, err := conn.ExecContext(ctx, `
		INSERT INTO attribution_events (
			event_id, tenant_id, timestamp, campaign_id, podcast_id, episode_id,
			attribution_method, conversion_type, conversion_value, user_id, session_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id) DO NOTHING
	`,
		e.EventID, e.TenantID, e.Timestamp, e.CampaignID, e.PodcastID, e.EpisodeID,
		string(e.Method), e.ConversionType, e.ConversionValue, e.UserID, e.SessionID,
	)
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransport, "persistence", "IngestAttributionEvent", "insert attribution event", err)
	}
	return nil
}

// ListAttributionEvents returns events for (tenantID, campaignID) within
// [start, end], descending by timestamp.
func (t *timeSeriesStore) ListAttributionEvents(ctx context.Context, tenantID, campaignID string, start, end *time.Time) ([]models.AttributionEvent, error) {
	query := `
		SELECT event_id, tenant_id, timestamp, campaign_id, podcast_id, episode_id,
		       attribution_method, conversion_type, conversion_value, user_id, session_id
		FROM attribution_events WHERE tenant_id = ? AND campaign_id = ?`
	args := []any{tenantID, campaignID}
	if start != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *start)
	}
	if end != nil {
		query += ` AND timestamp <= ?`
		args = append(args, *end)
	}
	query += ` ORDER BY timestamp DESC`

	conn := t.store.conn(true, query)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "ListAttributionEvents", "query attribution events", err)
	}
	defer rows.Close()

	var out []models.AttributionEvent
	for rows.Next() {
		e, err := scanAttributionEvent(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "ListAttributionEvents", "scan attribution event", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanAttributionEvent(row rowScanner) (*models.AttributionEvent, error) {
	var e models.AttributionEvent
	var method string
	if err := row.Scan(
		&e.EventID, &e.TenantID, &e.Timestamp, &e.CampaignID, &e.PodcastID, &e.EpisodeID,
		&method, &e.ConversionType, &e.ConversionValue, &e.UserID, &e.SessionID,
	); err != nil {
		return nil, err
	}
	e.Method = models.AttributionMethod(method)
	return &e, nil
}

// IngestListenerMetric appends m to the listener_metrics hypertable
// equivalent.
func (t *timeSeriesStore) IngestListenerMetric(ctx context.Context, m models.ListenerMetric) error {
	conn := t.store.conn(false, "INSERT")
	_, err := conn.ExecContext(ctx, `
		INSERT INTO listener_metrics (timestamp, podcast_id, episode_id, metric_type, value, platform, country, device)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.Timestamp, m.PodcastID, m.EpisodeID, string(m.MetricType), m.Value, m.Platform, m.Country, m.Device)
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransport, "persistence", "IngestListenerMetric", "insert listener metric", err)
	}
	return nil
}

// ListListenerMetrics returns metrics for (podcastID, metricType) within
// [start, end], optionally filtered by platform/episode.
func (t *timeSeriesStore) ListListenerMetrics(ctx context.Context, podcastID string, metricType models.MetricType, start, end *time.Time, platform, episodeID *string) ([]models.ListenerMetric, error) {
	query := `SELECT timestamp, podcast_id, episode_id, metric_type, value, platform, country, device
		FROM listener_metrics WHERE podcast_id = ? AND metric_type = ?`
	args := []any{podcastID, string(metricType)}
	query, args = appendMetricFilters(query, args, start, end, platform, episodeID)
	query += ` ORDER BY timestamp DESC`

	conn := t.store.conn(true, query)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "ListListenerMetrics", "query listener metrics", err)
	}
	defer rows.Close()

	var out []models.ListenerMetric
	for rows.Next() {
		var m models.ListenerMetric
		var mt string
		if err := rows.Scan(&m.Timestamp, &m.PodcastID, &m.EpisodeID, &mt, &m.Value, &m.Platform, &m.Country, &m.Device); err != nil {
			return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "ListListenerMetrics", "scan listener metric", err)
		}
		m.MetricType = models.MetricType(mt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// AggregateListenerMetric reduces listener_metrics values for (podcastID,
// metricType) within [start, end] using op. An empty window returns 0 for
// every op rather than raising.
func (t *timeSeriesStore) AggregateListenerMetric(ctx context.Context, podcastID string, metricType models.MetricType, start, end *time.Time, op models.AggregateOp) (float64, error) {
	sqlFn, err := aggregateSQLFunc(op)
	if err != nil {
		return 0, err
	}

	query := `SELECT ` + sqlFn + `(value) FROM listener_metrics WHERE podcast_id = ? AND metric_type = ?`
	args := []any{podcastID, string(metricType)}
	query, args = appendMetricFilters(query, args, start, end, nil, nil)

	conn := t.store.conn(true, query)
	var result sql.NullFloat64
	if err := conn.QueryRowContext(ctx, query, args...).Scan(&result); err != nil {
		return 0, apperrors.Wrap(apperrors.KindTransport, "persistence", "AggregateListenerMetric", "aggregate listener metric", err)
	}
	if !result.Valid {
		// Empty window: sum/avg/min/max all report 0, not an error.
		return 0, nil
	}
	return result.Float64, nil
}

func aggregateSQLFunc(op models.AggregateOp) (string, error) {
	switch op {
	case models.AggSum:
		return "SUM", nil
	case models.AggAvg:
		return "AVG", nil
	case models.AggMin:
		return "MIN", nil
	case models.AggMax:
		return "MAX", nil
	default:
		return "", apperrors.New(apperrors.KindValidation, "persistence", "AggregateListenerMetric", "unknown aggregate op: "+string(op))
	}
}

func appendMetricFilters(query string, args []any, start, end *time.Time, platform, episodeID *string) (string, []any) {
	if start != nil {
		query += ` AND timestamp >= ?`
		args = append(args, *start)
	}
	if end != nil {
		query += ` AND timestamp <= ?`
		args = append(args, *end)
	}
	if platform != nil {
		query += ` AND platform = ?`
		args = append(args, *platform)
	}
	if episodeID != nil {
		query += ` AND episode_id = ?`
		args = append(args, *episodeID)
	}
	return query, args
}
