// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package models

import "time"

// SignalName identifies one of the six matchmaking signals.
type SignalName string

const (
	SignalGeoOverlap          SignalName = "geo_overlap"
	SignalDemographicOverlap  SignalName = "demographic_overlap"
	SignalTopicOverlap        SignalName = "topic_overlap"
	SignalHistoricalLift      SignalName = "historical_lift"
	SignalInventoryFit        SignalName = "inventory_fit"
	SignalBrandSafety         SignalName = "brand_safety"
)

// Signals holds each signal's raw value in [0,1], keyed by SignalName.
type Signals map[SignalName]float64

// Match is the upserted scoring result for one (tenant, advertiser,
// podcast) pair. No deletion; recomputation overwrites.
type Match struct {
	MatchID     string    `json:"match_id"`
	TenantID    string    `json:"tenant_id"`
	AdvertiserID string   `json:"advertiser_id"`
	PodcastID   string    `json:"podcast_id"`
	Score       float64   `json:"score"`
	Rationale   string    `json:"rationale"`
	Signals     Signals   `json:"signals"`
	UpdatedAt   time.Time `json:"updated_at"`
}
