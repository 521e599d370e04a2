// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package models

import "time"

// MetricType identifies the kind of value recorded in a ListenerMetric.
type MetricType string

const (
	MetricDownloads      MetricType = "downloads"
	MetricStreams        MetricType = "streams"
	MetricCompletionRate MetricType = "completion_rate"
	MetricListeners      MetricType = "listeners"
)

// AggregateOp is a numeric reduction over a ListenerMetric window.
type AggregateOp string

const (
	AggSum AggregateOp = "sum"
	AggAvg AggregateOp = "avg"
	AggMin AggregateOp = "min"
	AggMax AggregateOp = "max"
)

// ListenerMetric is an append-only time-series tuple.
type ListenerMetric struct {
	Timestamp time.Time  `json:"timestamp"`
	PodcastID string     `json:"podcast_id"`
	EpisodeID *string    `json:"episode_id,omitempty"`
	MetricType MetricType `json:"metric_type"`
	Value     float64    `json:"value"`
	Platform  *string    `json:"platform,omitempty"`
	Country   *string    `json:"country,omitempty"`
	Device    *string    `json:"device,omitempty"`
}
