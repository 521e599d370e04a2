// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package matchmaking

import (
	"context"
	"time"

	"github.com/tomtom215/sponsorscope/internal/apperrors"
	"github.com/tomtom215/sponsorscope/internal/metrics"
	"github.com/tomtom215/sponsorscope/internal/models"
)

// Recalculate dispatches to one of the four fanout modes, selected by
// which of advertiserID/podcastID are non-empty.
// allowTenantWide must be true for the Cartesian-product mode (neither id
// supplied); only the scheduler sets it, never a synchronous API caller.
func (s *Scorer) Recalculate(ctx context.Context, advertiserID, podcastID, tenantID string, allowTenantWide bool) ([]models.Match, error) {
	switch {
	case advertiserID != "" && podcastID != "":
		m, err := s.ScoreAndUpsert(ctx, advertiserID, podcastID, tenantID)
		if err != nil {
			return nil, err
		}
		return []models.Match{m}, nil

	case advertiserID != "":
		podcasts, err := s.catalog.ListDistinctPodcasts(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return s.scoreAll(ctx, tenantID, pairsAdvertiser(advertiserID, podcasts))

	case podcastID != "":
		advertisers, err := s.catalog.ListDistinctAdvertisers(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return s.scoreAll(ctx, tenantID, pairsPodcast(podcastID, advertisers))

	default:
		if !allowTenantWide {
			return nil, apperrors.New(apperrors.KindValidation, "matchmaking", "Recalculate",
				"tenant-wide recalculation must be invoked from the scheduler")
		}
		return s.recalculateTenantWide(ctx, tenantID)
	}
}

func (s *Scorer) recalculateTenantWide(ctx context.Context, tenantID string) ([]models.Match, error) {
	start := time.Now()
	defer func() { metrics.RecordMatchmakingRecalculation(time.Since(start)) }()

	advertisers, err := s.catalog.ListDistinctAdvertisers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	podcasts, err := s.catalog.ListDistinctPodcasts(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var pairs [][2]string
	for _, a := range advertisers {
		for _, p := range podcasts {
			pairs = append(pairs, [2]string{a, p})
		}
	}
	return s.scoreAll(ctx, tenantID, pairs)
}

func pairsAdvertiser(advertiserID string, podcasts []string) [][2]string {
	pairs := make([][2]string, 0, len(podcasts))
	for _, p := range podcasts {
		pairs = append(pairs, [2]string{advertiserID, p})
	}
	return pairs
}

func pairsPodcast(podcastID string, advertisers []string) [][2]string {
	pairs := make([][2]string, 0, len(advertisers))
	for _, a := range advertisers {
		pairs = append(pairs, [2]string{a, podcastID})
	}
	return pairs
}

func (s *Scorer) scoreAll(ctx context.Context, tenantID string, pairs [][2]string) ([]models.Match, error) {
	out := make([]models.Match, 0, len(pairs))
	for _, pair := range pairs {
		m, err := s.ScoreAndUpsert(ctx, pair[0], pair[1], tenantID)
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}
