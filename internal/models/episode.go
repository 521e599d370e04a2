// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package models

import "time"

// Episode is the inventory unit the matchmaking scorer's inventory_fit and
// brand_safety signals read from. It is intentionally minimal: the
// catalog ingestion pipeline that populates it is out of scope, but the
// scorer needs somewhere to read ad-slot and explicit-content data from.
type Episode struct {
	EpisodeID     string    `json:"episode_id"`
	PodcastID     string    `json:"podcast_id"`
	PublishDate   time.Time `json:"publish_date"`
	AdSlotsFilled int       `json:"ad_slots_filled"`
	MaxAdSlots    int       `json:"max_ad_slots"`
	Explicit      bool      `json:"explicit"`
}

// HasFreeSlot reports whether e has room for another sponsorship slot.
func (e Episode) HasFreeSlot() bool {
	return e.AdSlotsFilled < e.MaxAdSlots
}
