// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package models

import "time"

// AttributionMethod identifies how a listener action was linked to a
// campaign.
type AttributionMethod string

const (
	MethodPromoCode AttributionMethod = "promo_code"
	MethodPixel     AttributionMethod = "pixel"
	MethodUTM       AttributionMethod = "utm"
	MethodCustom    AttributionMethod = "custom"
	MethodDirect    AttributionMethod = "direct"
)

// AttributionEvent records a single listener action linked to a campaign.
// Identity is EventID; ingestion upserts on conflict so ingesting the same
// EventID N times produces exactly one row.
type AttributionEvent struct {
	EventID         string            `json:"event_id"`
	TenantID        string            `json:"tenant_id"`
	Timestamp       time.Time         `json:"timestamp"`
	CampaignID      string            `json:"campaign_id"`
	PodcastID       string            `json:"podcast_id"`
	EpisodeID       *string           `json:"episode_id,omitempty"`
	Method          AttributionMethod `json:"method"`
	ConversionType  *string           `json:"conversion_type,omitempty"`
	ConversionValue *float64          `json:"conversion_value,omitempty"`
	UserID          *string           `json:"user_id,omitempty"`
	SessionID       *string           `json:"session_id,omitempty"`
}

// IsConversion reports whether e represents a conversion (a non-null
// ConversionType).
func (e AttributionEvent) IsConversion() bool {
	return e.ConversionType != nil
}

// ConversionValueOrZero returns ConversionValue, or 0 when it is nil.
func (e AttributionEvent) ConversionValueOrZero() float64 {
	if e.ConversionValue == nil {
		return 0
	}
	return *e.ConversionValue
}

// PathKey groups an event into its multi-touch attribution path: UserID if
// present, else SessionID, else the literal "unknown".
func (e AttributionEvent) PathKey() string {
	if e.UserID != nil && *e.UserID != "" {
		return *e.UserID
	}
	if e.SessionID != nil && *e.SessionID != "" {
		return *e.SessionID
	}
	return "unknown"
}
