// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package models

// ROIMethod selects the revenue-attribution rule used by the ROI
// calculator.
type ROIMethod string

const (
	ROISimple      ROIMethod = "simple"
	ROIAttributed  ROIMethod = "attributed"
	ROIIncremental ROIMethod = "incremental"
	ROIMultiTouch  ROIMethod = "multi_touch"
)

// ROIMetrics is derived, never persisted.
type ROIMetrics struct {
	CampaignID          string    `json:"campaign_id"`
	CampaignCost        float64   `json:"campaign_cost"`
	ConversionValue     float64   `json:"conversion_value"`
	ROI                 float64   `json:"roi"`
	ROAS                float64   `json:"roas"`
	NetProfit           float64   `json:"net_profit"`
	ConversionCount     int       `json:"conversion_count"`
	AverageOrderValue   *float64  `json:"average_order_value,omitempty"`
	CostPerConversion   *float64  `json:"cost_per_conversion,omitempty"`
	PaybackPeriodDays   *int      `json:"payback_period_days,omitempty"`
	Method              ROIMethod `json:"method"`
	Degraded            bool      `json:"degraded,omitempty"`
	DegradedReason      string    `json:"degraded_reason,omitempty"`
}

// ROIByMethod is the by-method breakdown convenience result.
type ROIByMethod struct {
	PromoCode *ROIMetrics `json:"promo_code,omitempty"`
	Pixel     *ROIMetrics `json:"pixel,omitempty"`
	UTM       *ROIMetrics `json:"utm,omitempty"`
	Direct    *ROIMetrics `json:"direct,omitempty"`
	Overall   ROIMetrics  `json:"overall"`
}
