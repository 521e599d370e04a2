// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

// Package matchmaking implements the matchmaking scorer: six
// weighted signals composed into a 0-100 advertiser/podcast match score,
// persisted by upsert, plus the recalculation fanout orchestrator.
package matchmaking

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/sponsorscope/internal/cache"
	"github.com/tomtom215/sponsorscope/internal/events"
	"github.com/tomtom215/sponsorscope/internal/metrics"
	"github.com/tomtom215/sponsorscope/internal/models"
	"github.com/tomtom215/sponsorscope/internal/persistence"
)

// episodeCacheTTL bounds how long a podcast's episode inventory is reused
// across scoring calls during a tenant-wide fanout, where the same podcast
// is read once per advertiser it's paired against.
const episodeCacheTTL = 5 * time.Minute

const (
	weightGeo          = 0.15
	weightDemographic  = 0.20
	weightTopic        = 0.25
	weightLift         = 0.20
	weightInventory    = 0.15
	weightBrandSafety  = 0.05

	defaultOverlap    = 0.5
	liftWithHistory   = 0.7
	liftNoHistory     = 0.3
	inventoryNoData   = 0.2
	brandSafetyNoData = 1.0

	inventoryWindow = 30 * 24 * time.Hour
)

// Scorer computes and persists matches.
type Scorer struct {
	catalog    persistence.CatalogPort
	relational persistence.RelationalPort
	events     *events.Logger
	cache      cache.Cacher
}

// New constructs a Scorer over the given ports, emitting domain events
// through evt (may be nil in tests).
func New(catalog persistence.CatalogPort, relational persistence.RelationalPort, evt *events.Logger) *Scorer {
	return &Scorer{catalog: catalog, relational: relational, events: evt}
}

// WithCache attaches a cache for podcast episode inventory lookups, which
// tenant-wide recalculation fanout re-reads once per advertiser paired
// against the same podcast. Returns s for chaining.
func (s *Scorer) WithCache(c cache.Cacher) *Scorer {
	s.cache = c
	return s
}

func (s *Scorer) advertiserProfile(ctx context.Context, tenantID, advertiserID string) (*models.AdvertiserProfile, error) {
	if s.cache == nil {
		return s.catalog.GetAdvertiserProfile(ctx, tenantID, advertiserID)
	}
	key := "advertiser_profile:" + tenantID + ":" + advertiserID
	if v, ok := s.cache.Get(key); ok {
		if p, ok := v.(*models.AdvertiserProfile); ok {
			return p, nil
		}
	}
	p, err := s.catalog.GetAdvertiserProfile(ctx, tenantID, advertiserID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		s.cache.SetWithTTL(key, p, episodeCacheTTL)
	}
	return p, nil
}

func (s *Scorer) podcastProfile(ctx context.Context, tenantID, podcastID string) (*models.PodcastProfile, error) {
	if s.cache == nil {
		return s.catalog.GetPodcastProfile(ctx, tenantID, podcastID)
	}
	key := "podcast_profile:" + tenantID + ":" + podcastID
	if v, ok := s.cache.Get(key); ok {
		if p, ok := v.(*models.PodcastProfile); ok {
			return p, nil
		}
	}
	p, err := s.catalog.GetPodcastProfile(ctx, tenantID, podcastID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		s.cache.SetWithTTL(key, p, episodeCacheTTL)
	}
	return p, nil
}

func (s *Scorer) episodes(ctx context.Context, tenantID, podcastID string) ([]models.Episode, error) {
	if s.cache == nil {
		return s.catalog.ListEpisodes(ctx, podcastID)
	}
	key := "episodes:" + tenantID + ":" + podcastID
	if v, ok := s.cache.Get(key); ok {
		if episodes, ok := v.([]models.Episode); ok {
			return episodes, nil
		}
	}
	episodes, err := s.catalog.ListEpisodes(ctx, podcastID)
	if err != nil {
		return nil, err
	}
	s.cache.SetWithTTL(key, episodes, episodeCacheTTL)
	return episodes, nil
}

// Score computes the match score for (advertiserID, podcastID) in
// tenantID. It does not persist; callers combine it with Upsert.
func (s *Scorer) Score(ctx context.Context, advertiserID, podcastID, tenantID string) (models.Match, error) {
	start := time.Now()
	defer func() { metrics.RecordMatchmakingScore(tenantID, time.Since(start)) }()

	episodes, err := s.episodes(ctx, tenantID, podcastID)
	if err != nil {
		return models.Match{}, err
	}
	completedCampaigns, err := s.catalog.CountCompletedCampaigns(ctx, tenantID, advertiserID, podcastID)
	if err != nil {
		return models.Match{}, err
	}
	advertiser, err := s.advertiserProfile(ctx, tenantID, advertiserID)
	if err != nil {
		return models.Match{}, err
	}
	podcast, err := s.podcastProfile(ctx, tenantID, podcastID)
	if err != nil {
		return models.Match{}, err
	}

	geo, hasGeo := overlapSignal(advertiserGeos(advertiser), podcastGeos(podcast))
	demo, hasDemo := overlapSignal(advertiserDemos(advertiser), podcastDemos(podcast))
	topic, hasTopic := overlapSignal(advertiserCategories(advertiser), podcastCategories(podcast))
	lift := historicalLift(completedCampaigns)
	inventory := inventoryFit(episodes)
	safety := brandSafety(episodes)

	signals := models.Signals{
		models.SignalGeoOverlap:         geo,
		models.SignalDemographicOverlap: demo,
		models.SignalTopicOverlap:       topic,
		models.SignalHistoricalLift:     lift,
		models.SignalInventoryFit:       inventory,
		models.SignalBrandSafety:        safety,
	}

	score, rationale := compose(signals, composeInputs{
		hasGeo:      hasGeo,
		hasDemo:     hasDemo,
		hasTopic:    hasTopic,
		hasHistory:  completedCampaigns > 0,
		hasEpisodes: len(episodes) > 0,
	})

	return models.Match{
		MatchID:      uuid.NewString(),
		TenantID:     tenantID,
		AdvertiserID: advertiserID,
		PodcastID:    podcastID,
		Score:        score,
		Rationale:    rationale,
		Signals:      signals,
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

// ScoreAndUpsert computes a match and persists it, returning the (possibly
// freshly generated) match_id.
func (s *Scorer) ScoreAndUpsert(ctx context.Context, advertiserID, podcastID, tenantID string) (models.Match, error) {
	m, err := s.Score(ctx, advertiserID, podcastID, tenantID)
	if err != nil {
		return models.Match{}, err
	}
	if err := s.relational.UpsertMatch(ctx, m); err != nil {
		return models.Match{}, err
	}
	if s.events != nil {
		s.events.Emit(tenantID, events.TypeMatchUpserted, events.SeverityInfo, m.MatchID,
			"match upserted", map[string]any{
				"advertiser_id": advertiserID,
				"podcast_id":    podcastID,
				"score":         m.Score,
			})
	}
	return m, nil
}

// Accessors tolerate a nil profile so the overlap helpers read naturally
// at the call site.

func advertiserGeos(p *models.AdvertiserProfile) []string {
	if p == nil {
		return nil
	}
	return p.TargetGeos
}

func advertiserDemos(p *models.AdvertiserProfile) []string {
	if p == nil {
		return nil
	}
	return p.TargetDemographics
}

func advertiserCategories(p *models.AdvertiserProfile) []string {
	if p == nil {
		return nil
	}
	return p.Categories
}

func podcastGeos(p *models.PodcastProfile) []string {
	if p == nil {
		return nil
	}
	return p.ListenerGeos
}

func podcastDemos(p *models.PodcastProfile) []string {
	if p == nil {
		return nil
	}
	return p.ListenerDemographics
}

func podcastCategories(p *models.PodcastProfile) []string {
	if p == nil {
		return nil
	}
	return p.Categories
}

// overlapSignal scores how much of the advertiser's targeting the podcast's
// audience covers: |target ∩ audience| / |target|, case-insensitive. Either
// side missing means no data, so the neutral 0.5 default applies and the
// second return is false.
func overlapSignal(target, audience []string) (float64, bool) {
	if len(target) == 0 || len(audience) == 0 {
		return defaultOverlap, false
	}
	have := make(map[string]struct{}, len(audience))
	for _, a := range audience {
		have[strings.ToLower(a)] = struct{}{}
	}
	seen := make(map[string]struct{}, len(target))
	var covered int
	for _, t := range target {
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := have[key]; ok {
			covered++
		}
	}
	return float64(covered) / float64(len(seen)), true
}

// historicalLift scores any completed pair 0.7, none
// scores 0.3. The underlying average-conversions figure is a documented
// placeholder for a future calibration curve; it is
// not computed here since nothing consumes it yet.
func historicalLift(completedCampaigns int) float64 {
	if completedCampaigns > 0 {
		return liftWithHistory
	}
	return liftNoHistory
}

// inventoryFit computes min(1.0, episodes_with_free_slots / 10)
// over episodes published within the last 30 days, with a no-data default
// of 0.2 when the podcast has no episode rows at all.
func inventoryFit(episodes []models.Episode) float64 {
	if len(episodes) == 0 {
		return inventoryNoData
	}
	cutoff := time.Now().UTC().Add(-inventoryWindow)
	var withFreeSlots int
	for _, e := range episodes {
		if e.PublishDate.After(cutoff) && e.HasFreeSlot() {
			withFreeSlots++
		}
	}
	return math.Min(1.0, float64(withFreeSlots)/10.0)
}

// brandSafety computes 1 - 0.5*(explicit/total), with a no-data
// default of 1.0 when the podcast has no episode rows at all.
func brandSafety(episodes []models.Episode) float64 {
	if len(episodes) == 0 {
		return brandSafetyNoData
	}
	var explicitCount int
	for _, e := range episodes {
		if e.Explicit {
			explicitCount++
		}
	}
	ratio := float64(explicitCount) / float64(len(episodes))
	return math.Max(0.0, 1.0-ratio*0.5)
}

// composeInputs records which signals were genuinely computed versus
// defaulted, so the rationale only describes signals backed by data and the
// "Insufficient data for scoring" fallback fires exactly when everything
// defaulted.
type composeInputs struct {
	hasGeo      bool
	hasDemo     bool
	hasTopic    bool
	hasHistory  bool
	hasEpisodes bool
}

// compose applies the weighted sum, brand-safety multiplier, clamp, and
// rationale construction.
func compose(signals models.Signals, in composeInputs) (float64, string) {
	geo := signals[models.SignalGeoOverlap]
	demo := signals[models.SignalDemographicOverlap]
	topic := signals[models.SignalTopicOverlap]
	lift := signals[models.SignalHistoricalLift]
	inventory := signals[models.SignalInventoryFit]
	safety := signals[models.SignalBrandSafety]

	weighted := (geo*weightGeo + demo*weightDemographic + topic*weightTopic +
		lift*weightLift + inventory*weightInventory + safety*weightBrandSafety) * 100

	if safety < 1.0 {
		weighted *= safety
	}

	final := math.Max(0, math.Min(100, weighted))
	final = math.Round(final*100) / 100

	var parts []string
	if in.hasGeo {
		parts = append(parts, fmt.Sprintf("Geo overlap: %.0f%%", geo*100))
	}
	if in.hasDemo {
		parts = append(parts, fmt.Sprintf("Demographic overlap: %.0f%%", demo*100))
	}
	if in.hasTopic {
		parts = append(parts, fmt.Sprintf("Topic overlap: %.0f%%", topic*100))
	}
	if in.hasHistory {
		parts = append(parts, fmt.Sprintf("Historical lift: %.0f%%", lift*100))
	}
	if in.hasEpisodes {
		parts = append(parts, fmt.Sprintf("Inventory fit: %.0f%%", inventory*100))
	}
	if safety < 1.0 {
		parts = append(parts, fmt.Sprintf("Brand safety: %.0f%%", safety*100))
	}

	if len(parts) == 0 {
		return final, "Insufficient data for scoring"
	}
	return final, strings.Join(parts, "; ")
}
