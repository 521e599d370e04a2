// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package models

import "time"

// CampaignStatus is the lifecycle state of a Campaign.
type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusScheduled CampaignStatus = "scheduled"
	StatusActive    CampaignStatus = "active"
	StatusPaused    CampaignStatus = "paused"
	StatusCompleted CampaignStatus = "completed"
	StatusCancelled CampaignStatus = "cancelled"
)

// DealStage is the deal-pipeline stage of a Campaign.
type DealStage string

const (
	StageNegotiation DealStage = "negotiation"
	StageWon         DealStage = "won"
	StageLost        DealStage = "lost"
)

// AttributionConfig describes how a campaign's attribution events are
// recognized and matched.
type AttributionConfig struct {
	Method           AttributionMethod `json:"method"`
	PromoCode        *string           `json:"promo_code,omitempty"`
	PixelURL         *string           `json:"pixel_url,omitempty"`
	UTMSource        *string           `json:"utm_source,omitempty"`
	UTMMedium        *string           `json:"utm_medium,omitempty"`
	UTMCampaign      *string           `json:"utm_campaign,omitempty"`
	CustomTrackingID *string           `json:"custom_tracking_id,omitempty"`
}

// Campaign is a sponsorship campaign. Invariant: StartDate <= EndDate.
type Campaign struct {
	CampaignID        string            `json:"campaign_id"`
	TenantID          string            `json:"tenant_id"`
	PodcastID         string            `json:"podcast_id"`
	SponsorID         string            `json:"sponsor_id"`
	Name              string            `json:"name"`
	Status            CampaignStatus    `json:"status"`
	StartDate         time.Time         `json:"start_date"`
	EndDate           time.Time         `json:"end_date"`
	CampaignValue     float64           `json:"campaign_value"`
	AttributionConfig AttributionConfig `json:"attribution_config"`
	EpisodeIDs        []string          `json:"episode_ids,omitempty"`
	Stage             *DealStage        `json:"stage,omitempty"`
	StageChangedAt    *time.Time        `json:"stage_changed_at,omitempty"`
	Notes             *string           `json:"notes,omitempty"`
}

// DurationDays returns the campaign's length in days, used as the
// denominator of the default daily conversion rate.
func (c Campaign) DurationDays() float64 {
	return c.EndDate.Sub(c.StartDate).Hours() / 24
}
