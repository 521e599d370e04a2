// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package persistence

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sponsorscope/internal/apperrors"
	"github.com/tomtom215/sponsorscope/internal/models"
)

// RelationalPort is the transactional CRUD surface over campaigns and
// matches. Every method is tenant-scoped by an explicit tenantID
// argument rather than relying on session state.
type RelationalPort interface {
	CreateCampaign(ctx context.Context, c models.Campaign) error
	GetCampaign(ctx context.Context, tenantID, campaignID string) (*models.Campaign, error)
	UpdateCampaignStage(ctx context.Context, tenantID, campaignID string, stage models.DealStage) error
	ListCampaigns(ctx context.Context, tenantID string, status *models.CampaignStatus) ([]models.Campaign, error)

	UpsertMatch(ctx context.Context, m models.Match) error
	ListMatches(ctx context.Context, tenantID, podcastID string) ([]models.Match, error)

	RecordETLImport(ctx context.Context, tenantID, status string, startedAt time.Time) error
	CountETLImports(ctx context.Context, tenantID, status string, since time.Time) (int, error)
	MostRecentCompletedImport(ctx context.Context, tenantID string) (*time.Time, error)

	ListStuckCampaigns(ctx context.Context, tenantID string, olderThan time.Time) ([]models.Campaign, error)
	ListLongNegotiationCampaigns(ctx context.Context, tenantID string, olderThan time.Time) ([]models.Campaign, error)
	ListLostWithoutReasonCampaigns(ctx context.Context, tenantID string) ([]models.Campaign, error)

	RefreshMetricsDaily(ctx context.Context) error
}

// relationalStore implements RelationalPort over the shared Store.
type relationalStore struct {
	store *Store
}

// Relational returns the RelationalPort view of s.
func (s *Store) Relational() RelationalPort {
	return &relationalStore{store: s}
}

func (r *relationalStore) CreateCampaign(ctx context.Context, c models.Campaign) error {
	conn := r.store.conn(false, "INSERT")
	_, err := conn.ExecContext(ctx, `
		INSERT INTO campaigns (
			campaign_id, tenant_id, podcast_id, sponsor_id, name, status,
			start_date, end_date, campaign_value, attribution_method,
			promo_code, pixel_url, utm_source, utm_medium, utm_campaign,
			custom_tracking_id, episode_ids, stage, stage_changed_at, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.CampaignID, c.TenantID, c.PodcastID, c.SponsorID, c.Name, string(c.Status),
		c.StartDate, c.EndDate, c.CampaignValue, string(c.AttributionConfig.Method),
		c.AttributionConfig.PromoCode, c.AttributionConfig.PixelURL, c.AttributionConfig.UTMSource,
		c.AttributionConfig.UTMMedium, c.AttributionConfig.UTMCampaign, c.AttributionConfig.CustomTrackingID,
		strings.Join(c.EpisodeIDs, ","), dealStageOrNil(c.Stage), c.StageChangedAt, c.Notes,
	)
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransport, "persistence", "CreateCampaign", "insert campaign", err)
	}
	return nil
}

func (r *relationalStore) GetCampaign(ctx context.Context, tenantID, campaignID string) (*models.Campaign, error) {
	conn := r.store.conn(true, "SELECT")
	row := conn.QueryRowContext(ctx, `
		SELECT campaign_id, tenant_id, podcast_id, sponsor_id, name, status,
		       start_date, end_date, campaign_value, attribution_method,
		       promo_code, pixel_url, utm_source, utm_medium, utm_campaign,
		       custom_tracking_id, episode_ids, stage, stage_changed_at, notes
		FROM campaigns WHERE tenant_id = ? AND campaign_id = ?
	`, tenantID, campaignID)

	c, err := scanCampaign(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.New(apperrors.KindNotFound, "persistence", "GetCampaign", "campaign not found")
		}
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "GetCampaign", "scan campaign", err)
	}
	return c, nil
}

func (r *relationalStore) UpdateCampaignStage(ctx context.Context, tenantID, campaignID string, stage models.DealStage) error {
	conn := r.store.conn(false, "UPDATE")
	res, err := conn.ExecContext(ctx, `
		UPDATE campaigns SET stage = ?, stage_changed_at = ?
		WHERE tenant_id = ? AND campaign_id = ?
	`, string(stage), time.Now().UTC(), tenantID, campaignID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransport, "persistence", "UpdateCampaignStage", "update stage", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransport, "persistence", "UpdateCampaignStage", "rows affected", err)
	}
	if n == 0 {
		return apperrors.New(apperrors.KindNotFound, "persistence", "UpdateCampaignStage", "campaign not found")
	}
	return nil
}

func (r *relationalStore) ListCampaigns(ctx context.Context, tenantID string, status *models.CampaignStatus) ([]models.Campaign, error) {
	conn := r.store.conn(true, "SELECT")
	query := `
		SELECT campaign_id, tenant_id, podcast_id, sponsor_id, name, status,
		       start_date, end_date, campaign_value, attribution_method,
		       promo_code, pixel_url, utm_source, utm_medium, utm_campaign,
		       custom_tracking_id, episode_ids, stage, stage_changed_at, notes
		FROM campaigns WHERE tenant_id = ?`
	args := []any{tenantID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY start_date DESC`

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "ListCampaigns", "query campaigns", err)
	}
	defer rows.Close()

	var out []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "ListCampaigns", "scan campaign", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *relationalStore) UpsertMatch(ctx context.Context, m models.Match) error {
	signals, err := json.Marshal(m.Signals)
	if err != nil {
		return apperrors.Wrap(apperrors.KindValidation, "persistence", "UpsertMatch", "marshal signals", err)
	}
	conn := r.store.conn(false, "INSERT")
	_, err = conn.ExecContext(ctx, `
		INSERT INTO matches (match_id, tenant_id, advertiser_id, podcast_id, score, rationale, signals, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, advertiser_id, podcast_id)
		DO UPDATE SET score = EXCLUDED.score, rationale = EXCLUDED.rationale,
		              signals = EXCLUDED.signals, updated_at = EXCLUDED.updated_at
	`, m.MatchID, m.TenantID, m.AdvertiserID, m.PodcastID, m.Score, m.Rationale, string(signals), m.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransport, "persistence", "UpsertMatch", "upsert match", err)
	}
	return nil
}

func (r *relationalStore) ListMatches(ctx context.Context, tenantID, podcastID string) ([]models.Match, error) {
	conn := r.store.conn(true, "SELECT")
	rows, err := conn.QueryContext(ctx, `
		SELECT match_id, tenant_id, advertiser_id, podcast_id, score, rationale, signals, updated_at
		FROM matches WHERE tenant_id = ? AND podcast_id = ? ORDER BY score DESC
	`, tenantID, podcastID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "ListMatches", "query matches", err)
	}
	defer rows.Close()

	var out []models.Match
	for rows.Next() {
		var m models.Match
		var signalsRaw string
		if err := rows.Scan(&m.MatchID, &m.TenantID, &m.AdvertiserID, &m.PodcastID, &m.Score, &m.Rationale, &signalsRaw, &m.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "ListMatches", "scan match", err)
		}
		if err := json.Unmarshal([]byte(signalsRaw), &m.Signals); err != nil {
			return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "ListMatches", "unmarshal signals", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *relationalStore) RecordETLImport(ctx context.Context, tenantID, status string, startedAt time.Time) error {
	conn := r.store.conn(false, "INSERT")
	_, err := conn.ExecContext(ctx, `
		INSERT INTO etl_imports (tenant_id, status, started_at) VALUES (?, ?, ?)
	`, tenantID, status, startedAt)
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransport, "persistence", "RecordETLImport", "insert etl import", err)
	}
	return nil
}

// CountETLImports counts rows in etl_imports for tenantID matching status,
// started at or after since.
func (r *relationalStore) CountETLImports(ctx context.Context, tenantID, status string, since time.Time) (int, error) {
	conn := r.store.conn(true, "SELECT")
	var count int
	err := conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM etl_imports WHERE tenant_id = ? AND status = ? AND started_at >= ?
	`, tenantID, status, since).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindTransport, "persistence", "CountETLImports", "count etl imports", err)
	}
	return count, nil
}

// MostRecentCompletedImport returns the started_at of the newest completed
// import for tenantID, or nil if none exist.
func (r *relationalStore) MostRecentCompletedImport(ctx context.Context, tenantID string) (*time.Time, error) {
	conn := r.store.conn(true, "SELECT")
	var startedAt sql.NullTime
	err := conn.QueryRowContext(ctx, `
		SELECT MAX(started_at) FROM etl_imports WHERE tenant_id = ? AND status = 'completed'
	`, tenantID).Scan(&startedAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "MostRecentCompletedImport", "query most recent completed import", err)
	}
	if !startedAt.Valid {
		return nil, nil
	}
	return &startedAt.Time, nil
}

// ListStuckCampaigns returns campaigns whose stage is neither won nor lost
// and whose stage has not changed since olderThan.
func (r *relationalStore) ListStuckCampaigns(ctx context.Context, tenantID string, olderThan time.Time) ([]models.Campaign, error) {
	return r.queryCampaigns(ctx, `
		SELECT `+campaignColumns+` FROM campaigns
		WHERE tenant_id = ? AND (stage IS NULL OR stage NOT IN (?, ?)) AND stage_changed_at < ?
	`, tenantID, string(models.StageWon), string(models.StageLost), olderThan)
}

// ListLongNegotiationCampaigns returns campaigns stuck in negotiation
// since before olderThan.
func (r *relationalStore) ListLongNegotiationCampaigns(ctx context.Context, tenantID string, olderThan time.Time) ([]models.Campaign, error) {
	return r.queryCampaigns(ctx, `
		SELECT `+campaignColumns+` FROM campaigns
		WHERE tenant_id = ? AND stage = ? AND stage_changed_at < ?
	`, tenantID, string(models.StageNegotiation), olderThan)
}

// ListLostWithoutReasonCampaigns returns lost campaigns with no recorded
// notes explaining the loss.
func (r *relationalStore) ListLostWithoutReasonCampaigns(ctx context.Context, tenantID string) ([]models.Campaign, error) {
	return r.queryCampaigns(ctx, `
		SELECT `+campaignColumns+` FROM campaigns
		WHERE tenant_id = ? AND stage = ? AND (notes IS NULL OR notes = '')
	`, tenantID, string(models.StageLost))
}

const campaignColumns = `campaign_id, tenant_id, podcast_id, sponsor_id, name, status,
	       start_date, end_date, campaign_value, attribution_method,
	       promo_code, pixel_url, utm_source, utm_medium, utm_campaign,
	       custom_tracking_id, episode_ids, stage, stage_changed_at, notes`

func (r *relationalStore) queryCampaigns(ctx context.Context, query string, args ...any) ([]models.Campaign, error) {
	conn := r.store.conn(true, query)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "queryCampaigns", "query campaigns", err)
	}
	defer rows.Close()

	var out []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "queryCampaigns", "scan campaign", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// RefreshMetricsDaily recomputes the listener_metrics_daily rollup,
// standing in for refreshing a continuous aggregate.
func (r *relationalStore) RefreshMetricsDaily(ctx context.Context) error {
	return r.store.RefreshDailyAggregate(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var c models.Campaign
	var status, method, episodeIDs string
	var stage sql.NullString
	var stageChangedAt sql.NullTime
	var notes sql.NullString

	if err := row.Scan(
		&c.CampaignID, &c.TenantID, &c.PodcastID, &c.SponsorID, &c.Name, &status,
		&c.StartDate, &c.EndDate, &c.CampaignValue, &method,
		&c.AttributionConfig.PromoCode, &c.AttributionConfig.PixelURL, &c.AttributionConfig.UTMSource,
		&c.AttributionConfig.UTMMedium, &c.AttributionConfig.UTMCampaign, &c.AttributionConfig.CustomTrackingID,
		&episodeIDs, &stage, &stageChangedAt, &notes,
	); err != nil {
		return nil, err
	}

	c.Status = models.CampaignStatus(status)
	c.AttributionConfig.Method = models.AttributionMethod(method)
	if episodeIDs != "" {
		c.EpisodeIDs = strings.Split(episodeIDs, ",")
	}
	if stage.Valid {
		s := models.DealStage(stage.String)
		c.Stage = &s
	}
	if stageChangedAt.Valid {
		c.StageChangedAt = &stageChangedAt.Time
	}
	if notes.Valid {
		c.Notes = &notes.String
	}
	return &c, nil
}

func dealStageOrNil(stage *models.DealStage) any {
	if stage == nil {
		return nil
	}
	return string(*stage)
}
