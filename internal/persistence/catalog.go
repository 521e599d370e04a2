// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sponsorscope/internal/apperrors"
	"github.com/tomtom215/sponsorscope/internal/models"
)

// CatalogPort is the read surface the matchmaking scorer uses to look up
// episode inventory, campaign history, and targeting/audience profiles.
// The set of podcasts and advertisers (sponsors) known to a tenant is
// derived from the campaigns table; there is no separate
// advertiser-directory table, only optional profile rows keyed by the same
// ids.
type CatalogPort interface {
	ListEpisodes(ctx context.Context, podcastID string) ([]models.Episode, error)
	CountCompletedCampaigns(ctx context.Context, tenantID, advertiserID, podcastID string) (int, error)
	ListDistinctPodcasts(ctx context.Context, tenantID string) ([]string, error)
	ListDistinctAdvertisers(ctx context.Context, tenantID string) ([]string, error)

	// Profile lookups return (nil, nil) when no profile row exists; the
	// scorer treats that as data-absent and uses its neutral defaults.
	GetAdvertiserProfile(ctx context.Context, tenantID, advertiserID string) (*models.AdvertiserProfile, error)
	GetPodcastProfile(ctx context.Context, tenantID, podcastID string) (*models.PodcastProfile, error)
}

type catalogStore struct {
	store *Store
}

// Catalog returns the CatalogPort view of s.
func (s *Store) Catalog() CatalogPort {
	return &catalogStore{store: s}
}

// ListEpisodes returns every episode for podcastID, most recent first.
func (c *catalogStore) ListEpisodes(ctx context.Context, podcastID string) ([]models.Episode, error) {
	conn := c.store.conn(true, "SELECT")
	rows, err := conn.QueryContext(ctx, `
		SELECT episode_id, podcast_id, publish_date, ad_slots_filled, max_ad_slots, explicit
		FROM episodes WHERE podcast_id = ? ORDER BY publish_date DESC
	`, podcastID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "ListEpisodes", "query episodes", err)
	}
	defer rows.Close()

	var out []models.Episode
	for rows.Next() {
		var e models.Episode
		if err := rows.Scan(&e.EpisodeID, &e.PodcastID, &e.PublishDate, &e.AdSlotsFilled, &e.MaxAdSlots, &e.Explicit); err != nil {
			return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "ListEpisodes", "scan episode", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountCompletedCampaigns counts completed campaigns between advertiserID
// (sponsor_id) and podcastID in tenantID, the historical_lift signal's raw
// input.
func (c *catalogStore) CountCompletedCampaigns(ctx context.Context, tenantID, advertiserID, podcastID string) (int, error) {
	conn := c.store.conn(true, "SELECT")
	var count int
	err := conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM campaigns
		WHERE tenant_id = ? AND sponsor_id = ? AND podcast_id = ? AND status = ?
	`, tenantID, advertiserID, podcastID, string(models.StatusCompleted)).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindTransport, "persistence", "CountCompletedCampaigns", "count completed campaigns", err)
	}
	return count, nil
}

// ListDistinctPodcasts returns every podcast_id with at least one campaign
// in tenantID, the podcast side of the tenant-wide recalculation fanout.
func (c *catalogStore) ListDistinctPodcasts(ctx context.Context, tenantID string) ([]string, error) {
	return c.listDistinct(ctx, "podcast_id", tenantID)
}

// ListDistinctAdvertisers returns every sponsor_id with at least one
// campaign in tenantID, the advertiser side of the tenant-wide
// recalculation fanout.
func (c *catalogStore) ListDistinctAdvertisers(ctx context.Context, tenantID string) ([]string, error) {
	return c.listDistinct(ctx, "sponsor_id", tenantID)
}

// GetAdvertiserProfile returns the targeting profile for advertiserID, or
// (nil, nil) when none has been ingested.
func (c *catalogStore) GetAdvertiserProfile(ctx context.Context, tenantID, advertiserID string) (*models.AdvertiserProfile, error) {
	conn := c.store.conn(true, "SELECT")
	row := conn.QueryRowContext(ctx, `
		SELECT target_geos, target_demographics, categories
		FROM advertiser_profiles WHERE tenant_id = ? AND advertiser_id = ?
	`, tenantID, advertiserID)

	var geos, demos, cats sql.NullString
	if err := row.Scan(&geos, &demos, &cats); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "GetAdvertiserProfile", "scan advertiser profile", err)
	}

	p := &models.AdvertiserProfile{TenantID: tenantID, AdvertiserID: advertiserID}
	var err error
	if p.TargetGeos, err = decodeStringList(geos); err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "GetAdvertiserProfile", "decode target_geos", err)
	}
	if p.TargetDemographics, err = decodeStringList(demos); err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "GetAdvertiserProfile", "decode target_demographics", err)
	}
	if p.Categories, err = decodeStringList(cats); err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "GetAdvertiserProfile", "decode categories", err)
	}
	return p, nil
}

// GetPodcastProfile returns the audience profile for podcastID, or
// (nil, nil) when none has been ingested.
func (c *catalogStore) GetPodcastProfile(ctx context.Context, tenantID, podcastID string) (*models.PodcastProfile, error) {
	conn := c.store.conn(true, "SELECT")
	row := conn.QueryRowContext(ctx, `
		SELECT listener_geos, listener_demographics, categories
		FROM podcast_profiles WHERE tenant_id = ? AND podcast_id = ?
	`, tenantID, podcastID)

	var geos, demos, cats sql.NullString
	if err := row.Scan(&geos, &demos, &cats); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "GetPodcastProfile", "scan podcast profile", err)
	}

	p := &models.PodcastProfile{TenantID: tenantID, PodcastID: podcastID}
	var err error
	if p.ListenerGeos, err = decodeStringList(geos); err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "GetPodcastProfile", "decode listener_geos", err)
	}
	if p.ListenerDemographics, err = decodeStringList(demos); err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "GetPodcastProfile", "decode listener_demographics", err)
	}
	if p.Categories, err = decodeStringList(cats); err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "GetPodcastProfile", "decode categories", err)
	}
	return p, nil
}

// decodeStringList parses a JSON-encoded list column; NULL or empty means
// no data.
func decodeStringList(col sql.NullString) ([]string, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(col.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *catalogStore) listDistinct(ctx context.Context, column, tenantID string) ([]string, error) {
	conn := c.store.conn(true, "SELECT")
	rows, err := conn.QueryContext(ctx, `SELECT DISTINCT `+column+` FROM campaigns WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "listDistinct", "query distinct "+column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "listDistinct", "scan "+column, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
