// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package models

// AdvertiserProfile is the targeting side of the overlap signals: where an
// advertiser wants to reach, whom, and in what categories. Populated by the
// catalog ingestion pipeline; absence of a row means the overlap signals
// fall back to their neutral defaults.
type AdvertiserProfile struct {
	AdvertiserID       string   `json:"advertiser_id"`
	TenantID           string   `json:"tenant_id"`
	TargetGeos         []string `json:"target_geos"`
	TargetDemographics []string `json:"target_demographics"`
	Categories         []string `json:"categories"`
}

// PodcastProfile is the audience side of the overlap signals: where a
// podcast's listeners are, who they are, and what the show covers.
type PodcastProfile struct {
	PodcastID            string   `json:"podcast_id"`
	TenantID             string   `json:"tenant_id"`
	ListenerGeos         []string `json:"listener_geos"`
	ListenerDemographics []string `json:"listener_demographics"`
	Categories           []string `json:"categories"`
}
