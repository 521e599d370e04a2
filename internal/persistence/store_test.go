// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/sponsorscope/internal/config"
	"github.com/tomtom215/sponsorscope/internal/models"
)

// testDBSemaphore serializes DuckDB CGO connection creation across this
// package's tests.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := &config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB"}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testCampaign(id string) models.Campaign {
	return models.Campaign{
		CampaignID:    id,
		TenantID:      "tenant-1",
		PodcastID:     "pod-1",
		SponsorID:     "sponsor-1",
		Name:          "Test Campaign",
		Status:        models.StatusActive,
		StartDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		CampaignValue: 1000,
		AttributionConfig: models.AttributionConfig{
			Method: models.MethodPromoCode,
		},
	}
}

func TestRelational_CreateAndGetCampaign(t *testing.T) {
	s := setupTestStore(t)
	rel := s.Relational()
	ctx := context.Background()

	c := testCampaign("camp-1")
	if err := rel.CreateCampaign(ctx, c); err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}

	got, err := rel.GetCampaign(ctx, "tenant-1", "camp-1")
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	if got == nil {
		t.Fatal("expected campaign, got nil")
	}
	if got.Name != "Test Campaign" || got.CampaignValue != 1000 {
		t.Errorf("campaign roundtrip mismatch: %+v", got)
	}
}

func TestRelational_GetCampaign_NotFoundReturnsNil(t *testing.T) {
	s := setupTestStore(t)
	rel := s.Relational()

	got, err := rel.GetCampaign(context.Background(), "tenant-1", "no-such-campaign")
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing campaign, got %+v", got)
	}
}

// Tenant-scoped reads return empty structures, not errors, when the
// tenant has no rows.
func TestRelational_ListCampaigns_EmptyTenantReturnsEmpty(t *testing.T) {
	s := setupTestStore(t)
	rel := s.Relational()

	got, err := rel.ListCampaigns(context.Background(), "no-such-tenant", nil)
	if err != nil {
		t.Fatalf("ListCampaigns: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no campaigns, got %d", len(got))
	}
}

func TestRelational_UpsertMatch_IsIdempotentPerKey(t *testing.T) {
	s := setupTestStore(t)
	rel := s.Relational()
	ctx := context.Background()

	m := models.Match{
		MatchID:      "match-1",
		TenantID:     "tenant-1",
		AdvertiserID: "adv-A",
		PodcastID:    "pod-P",
		Score:        50,
		Rationale:    "initial",
		Signals:      models.Signals{models.SignalGeoOverlap: 0.5},
		UpdatedAt:    time.Now().UTC(),
	}
	if err := rel.UpsertMatch(ctx, m); err != nil {
		t.Fatalf("UpsertMatch: %v", err)
	}

	m.MatchID = "match-2" // a second scoring run generates a new id
	m.Score = 75
	m.Rationale = "recomputed"
	if err := rel.UpsertMatch(ctx, m); err != nil {
		t.Fatalf("UpsertMatch (recompute): %v", err)
	}

	matches, err := rel.ListMatches(ctx, "tenant-1", "pod-P")
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly 1 row for (tenant, advertiser, podcast), got %d", len(matches))
	}
	if matches[0].Score != 75 || matches[0].Rationale != "recomputed" {
		t.Errorf("expected the upsert to overwrite in place, got %+v", matches[0])
	}
}

func TestRelational_ETLHealthCounters(t *testing.T) {
	s := setupTestStore(t)
	rel := s.Relational()
	ctx := context.Background()

	now := time.Now().UTC()
	if err := rel.RecordETLImport(ctx, "tenant-1", "completed", now.Add(-time.Hour)); err != nil {
		t.Fatalf("RecordETLImport: %v", err)
	}
	if err := rel.RecordETLImport(ctx, "tenant-1", "failed", now.Add(-30*time.Minute)); err != nil {
		t.Fatalf("RecordETLImport: %v", err)
	}
	if err := rel.RecordETLImport(ctx, "tenant-1", "failed", now.Add(-10*time.Minute)); err != nil {
		t.Fatalf("RecordETLImport: %v", err)
	}

	since := now.Add(-24 * time.Hour)
	completed, err := rel.CountETLImports(ctx, "tenant-1", "completed", since)
	if err != nil {
		t.Fatalf("CountETLImports(completed): %v", err)
	}
	if completed != 1 {
		t.Errorf("completed count = %d, want 1", completed)
	}

	failed, err := rel.CountETLImports(ctx, "tenant-1", "failed", since)
	if err != nil {
		t.Fatalf("CountETLImports(failed): %v", err)
	}
	if failed != 2 {
		t.Errorf("failed count = %d, want 2", failed)
	}

	lastSuccess, err := rel.MostRecentCompletedImport(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("MostRecentCompletedImport: %v", err)
	}
	if lastSuccess == nil {
		t.Fatal("expected a last-success timestamp")
	}
}

func TestRelational_DealPipelineQueries(t *testing.T) {
	s := setupTestStore(t)
	rel := s.Relational()
	ctx := context.Background()

	stuck := testCampaign("camp-stuck")
	negotiation := models.DealStage("negotiation")
	stuck.Stage = &negotiation
	stale := time.Now().UTC().Add(-10 * 24 * time.Hour)
	stuck.StageChangedAt = &stale
	if err := rel.CreateCampaign(ctx, stuck); err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}

	lost := testCampaign("camp-lost")
	lostStage := models.DealStage("lost")
	lost.Stage = &lostStage
	lostChanged := time.Now().UTC().Add(-2 * 24 * time.Hour)
	lost.StageChangedAt = &lostChanged
	if err := rel.CreateCampaign(ctx, lost); err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}

	stuckCampaigns, err := rel.ListStuckCampaigns(ctx, "tenant-1", time.Now().UTC().Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("ListStuckCampaigns: %v", err)
	}
	if len(stuckCampaigns) != 1 || stuckCampaigns[0].CampaignID != "camp-stuck" {
		t.Errorf("expected camp-stuck in stuck campaigns, got %+v", stuckCampaigns)
	}

	lostWithoutReason, err := rel.ListLostWithoutReasonCampaigns(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("ListLostWithoutReasonCampaigns: %v", err)
	}
	if len(lostWithoutReason) != 1 || lostWithoutReason[0].CampaignID != "camp-lost" {
		t.Errorf("expected camp-lost in lost-without-reason, got %+v", lostWithoutReason)
	}
}

func TestTimeSeries_IngestIsIdempotentOnEventID(t *testing.T) {
	s := setupTestStore(t)
	ts := s.TimeSeries()
	ctx := context.Background()

	val := 42.0
	ctype := "purchase"
	e := models.AttributionEvent{
		EventID:         "evt-dup",
		TenantID:        "tenant-1",
		CampaignID:      "camp-1",
		PodcastID:       "pod-1",
		Timestamp:       time.Now().UTC(),
		Method:          models.MethodPromoCode,
		ConversionType:  &ctype,
		ConversionValue: &val,
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ts.IngestAttributionEvent(ctx, e)
		}()
	}
	wg.Wait()

	events, err := ts.ListAttributionEvents(ctx, "tenant-1", "camp-1", nil, nil)
	if err != nil {
		t.Fatalf("ListAttributionEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 row after concurrent duplicate ingests, got %d", len(events))
	}
}

func TestTimeSeries_AggregateEmptyWindow(t *testing.T) {
	s := setupTestStore(t)
	ts := s.TimeSeries()

	v, err := ts.AggregateListenerMetric(context.Background(), "no-such-podcast", models.MetricDownloads, nil, nil, models.AggSum)
	if err != nil {
		t.Fatalf("AggregateListenerMetric: %v", err)
	}
	if v != 0 {
		t.Errorf("empty-window sum = %v, want 0", v)
	}
}

func TestTimeSeries_AggregateSum(t *testing.T) {
	s := setupTestStore(t)
	ts := s.TimeSeries()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Hour)
	for i := 0; i < 4; i++ {
		m := models.ListenerMetric{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			PodcastID:  "pod-1",
			MetricType: models.MetricDownloads,
			Value:      float64(10 * (i + 1)),
		}
		if err := ts.IngestListenerMetric(ctx, m); err != nil {
			t.Fatalf("IngestListenerMetric: %v", err)
		}
	}

	sum, err := ts.AggregateListenerMetric(ctx, "pod-1", models.MetricDownloads, nil, nil, models.AggSum)
	if err != nil {
		t.Fatalf("AggregateListenerMetric: %v", err)
	}
	if sum != 100 { // 10+20+30+40
		t.Errorf("sum = %v, want 100", sum)
	}
}

func TestCatalog_ListEpisodesAndDistinctRollups(t *testing.T) {
	s := setupTestStore(t)
	rel := s.Relational()
	catalog := s.Catalog()
	ctx := context.Background()

	completed := testCampaign("camp-completed")
	completed.Status = models.StatusCompleted
	completed.SponsorID = "adv-A"
	completed.PodcastID = "pod-P"
	if err := rel.CreateCampaign(ctx, completed); err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}

	count, err := catalog.CountCompletedCampaigns(ctx, "tenant-1", "adv-A", "pod-P")
	if err != nil {
		t.Fatalf("CountCompletedCampaigns: %v", err)
	}
	if count != 1 {
		t.Errorf("completed campaigns = %d, want 1", count)
	}

	podcasts, err := catalog.ListDistinctPodcasts(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("ListDistinctPodcasts: %v", err)
	}
	if len(podcasts) != 1 || podcasts[0] != "pod-P" {
		t.Errorf("distinct podcasts = %v, want [pod-P]", podcasts)
	}

	advertisers, err := catalog.ListDistinctAdvertisers(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("ListDistinctAdvertisers: %v", err)
	}
	if len(advertisers) != 1 || advertisers[0] != "adv-A" {
		t.Errorf("distinct advertisers = %v, want [adv-A]", advertisers)
	}
}

func TestCatalog_ProfileLookups(t *testing.T) {
	s := setupTestStore(t)
	catalog := s.Catalog()
	ctx := context.Background()

	// No rows ingested: both lookups report data-absent, not an error.
	ap, err := catalog.GetAdvertiserProfile(ctx, "tenant-1", "adv-A")
	if err != nil {
		t.Fatalf("GetAdvertiserProfile: %v", err)
	}
	if ap != nil {
		t.Errorf("expected nil profile before ingestion, got %+v", ap)
	}

	_, err = s.Conn().ExecContext(ctx, `
		INSERT INTO advertiser_profiles (tenant_id, advertiser_id, target_geos, target_demographics, categories)
		VALUES (?, ?, ?, ?, ?)
	`, "tenant-1", "adv-A", `["US","CA"]`, `["25-34"]`, `["fitness"]`)
	if err != nil {
		t.Fatalf("insert advertiser profile: %v", err)
	}
	_, err = s.Conn().ExecContext(ctx, `
		INSERT INTO podcast_profiles (tenant_id, podcast_id, listener_geos, listener_demographics, categories)
		VALUES (?, ?, ?, ?, ?)
	`, "tenant-1", "pod-P", `["US"]`, nil, `["fitness","comedy"]`)
	if err != nil {
		t.Fatalf("insert podcast profile: %v", err)
	}

	ap, err = catalog.GetAdvertiserProfile(ctx, "tenant-1", "adv-A")
	if err != nil {
		t.Fatalf("GetAdvertiserProfile: %v", err)
	}
	if ap == nil || len(ap.TargetGeos) != 2 || ap.TargetGeos[0] != "US" {
		t.Errorf("advertiser profile = %+v, want 2 target geos starting US", ap)
	}

	pp, err := catalog.GetPodcastProfile(ctx, "tenant-1", "pod-P")
	if err != nil {
		t.Fatalf("GetPodcastProfile: %v", err)
	}
	if pp == nil || len(pp.Categories) != 2 {
		t.Errorf("podcast profile = %+v, want 2 categories", pp)
	}
	if pp != nil && pp.ListenerDemographics != nil {
		t.Errorf("NULL demographics should decode to nil, got %v", pp.ListenerDemographics)
	}

	// Other tenants never see this tenant's profiles.
	other, err := catalog.GetAdvertiserProfile(ctx, "tenant-2", "adv-A")
	if err != nil {
		t.Fatalf("GetAdvertiserProfile: %v", err)
	}
	if other != nil {
		t.Errorf("cross-tenant profile leak: %+v", other)
	}
}
