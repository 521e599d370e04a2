// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

// Package roi implements the ROI calculator: four attribution methods
// over a campaign's events, and the derived ROI/ROAS/payback numerics.
// Calculate never raises for arithmetic corners -- zero cost yields zero
// ROI/ROAS, never a divide-by-zero panic or error.
package roi

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/sponsorscope/internal/apperrors"
	"github.com/tomtom215/sponsorscope/internal/metrics"
	"github.com/tomtom215/sponsorscope/internal/models"
)

// Calculator computes ROIMetrics under four attribution methods: simple,
// attributed, multi-touch, and by-method breakdown.
type Calculator struct{}

// New constructs a Calculator. It carries no state: every Calculate call is
// a pure function of its arguments.
func New() *Calculator {
	return &Calculator{}
}

// Calculate computes ROIMetrics for campaign over events under method.
// baselineRate is only consulted for ROIIncremental.
func (c *Calculator) Calculate(campaign models.Campaign, allEvents []models.AttributionEvent, baselineRate *float64, method models.ROIMethod) (models.ROIMetrics, error) {
	switch method {
	case models.ROISimple:
		return c.simple(campaign, allEvents), nil
	case models.ROIAttributed:
		return c.attributed(campaign, allEvents), nil
	case models.ROIIncremental:
		return c.incremental(campaign, allEvents, baselineRate), nil
	case models.ROIMultiTouch:
		return c.multiTouch(campaign, allEvents), nil
	default:
		return models.ROIMetrics{}, apperrors.New(apperrors.KindValidation, "roi", "Calculate", "unknown ROI method: "+string(method))
	}
}

// simple sums conversion_value across every passed event, ignoring
// attribution filtering entirely.
func (c *Calculator) simple(campaign models.Campaign, events []models.AttributionEvent) models.ROIMetrics {
	defer recordMetric(campaign.TenantID, models.ROISimple)()
	return compute(campaign, events, models.ROISimple)
}

// attributed sums conversion_value only over events matching the
// campaign's attribution method and campaign id -- the default method.
func (c *Calculator) attributed(campaign models.Campaign, events []models.AttributionEvent) models.ROIMetrics {
	defer recordMetric(campaign.TenantID, models.ROIAttributed)()
	return compute(campaign, filterAttributed(campaign, events), models.ROIAttributed)
}

// incremental requires baselineRate; if missing, it falls back to
// attributed and flags the result Degraded.
func (c *Calculator) incremental(campaign models.Campaign, events []models.AttributionEvent, baselineRate *float64) models.ROIMetrics {
	defer recordMetric(campaign.TenantID, models.ROIIncremental)()

	if baselineRate == nil {
		m := compute(campaign, filterAttributed(campaign, events), models.ROIIncremental)
		m.Degraded = true
		m.DegradedReason = "baseline_rate missing, fell back to attributed method"
		return m
	}

	filtered := filterAttributed(campaign, events)
	m := compute(campaign, filtered, models.ROIIncremental)
	// The baseline represents the conversion value that would have
	// happened anyway; incremental revenue nets it out, floored at zero.
	baselineValue := *baselineRate * campaign.DurationDays()
	incrementalRevenue := m.ConversionValue - baselineValue
	if incrementalRevenue < 0 {
		incrementalRevenue = 0
	}
	return recompute(campaign, incrementalRevenue, m.ConversionCount, models.ROIIncremental)
}

// multiTouch groups events into per-user paths, sorts each by timestamp,
// and credits the last conversion in each path.
func (c *Calculator) multiTouch(campaign models.Campaign, events []models.AttributionEvent) models.ROIMetrics {
	defer recordMetric(campaign.TenantID, models.ROIMultiTouch)()

	paths := make(map[string][]models.AttributionEvent)
	for _, e := range events {
		key := e.PathKey()
		paths[key] = append(paths[key], e)
	}

	var credited []models.AttributionEvent
	for _, path := range paths {
		sort.Slice(path, func(i, j int) bool { return path[i].Timestamp.Before(path[j].Timestamp) })
		for i := len(path) - 1; i >= 0; i-- {
			if path[i].IsConversion() {
				credited = append(credited, path[i])
				break
			}
		}
	}

	return compute(campaign, credited, models.ROIMultiTouch)
}

// ByMethodBreakdown groups events by attribution method and computes
// attributed ROI per method plus overall.
func (c *Calculator) ByMethodBreakdown(campaign models.Campaign, allEvents []models.AttributionEvent) models.ROIByMethod {
	byMethod := make(map[models.AttributionMethod][]models.AttributionEvent)
	for _, e := range allEvents {
		byMethod[e.Method] = append(byMethod[e.Method], e)
	}

	breakdown := models.ROIByMethod{
		Overall: compute(campaign, filterAttributed(campaign, allEvents), models.ROIAttributed),
	}
	if es, ok := byMethod[models.MethodPromoCode]; ok {
		m := compute(campaign, es, models.ROIAttributed)
		breakdown.PromoCode = &m
	}
	if es, ok := byMethod[models.MethodPixel]; ok {
		m := compute(campaign, es, models.ROIAttributed)
		breakdown.Pixel = &m
	}
	if es, ok := byMethod[models.MethodUTM]; ok {
		m := compute(campaign, es, models.ROIAttributed)
		breakdown.UTM = &m
	}
	if es, ok := byMethod[models.MethodDirect]; ok {
		m := compute(campaign, es, models.ROIAttributed)
		breakdown.Direct = &m
	}
	return breakdown
}

// filterAttributed keeps events matching the campaign's configured
// attribution method and campaign id.
func filterAttributed(campaign models.Campaign, events []models.AttributionEvent) []models.AttributionEvent {
	var out []models.AttributionEvent
	for _, e := range events {
		if e.CampaignID == campaign.CampaignID && e.Method == campaign.AttributionConfig.Method {
			out = append(out, e)
		}
	}
	return out
}

// compute sums revenue and conversion count over events and derives the
// remaining ROIMetrics fields.
func compute(campaign models.Campaign, events []models.AttributionEvent, method models.ROIMethod) models.ROIMetrics {
	var revenue float64
	var conversionCount int
	for _, e := range events {
		revenue += e.ConversionValueOrZero()
		if e.IsConversion() {
			conversionCount++
		}
	}
	return recompute(campaign, revenue, conversionCount, method)
}

// recompute derives roi/roas/net_profit/averages/payback from a revenue
// and conversion-count pair already attributed under method.
func recompute(campaign models.Campaign, revenue float64, conversionCount int, method models.ROIMethod) models.ROIMetrics {
	cost := campaign.CampaignValue
	m := models.ROIMetrics{
		CampaignID:      campaign.CampaignID,
		CampaignCost:    cost,
		ConversionValue: revenue,
		NetProfit:       revenue - cost,
		ConversionCount: conversionCount,
		Method:          method,
	}

	if cost > 0 {
		m.ROI = (revenue - cost) / cost
		m.ROAS = revenue / cost
	}
	// cost == 0: ROI and ROAS stay 0, net_profit (== revenue) disambiguates.

	if conversionCount > 0 {
		aov := revenue / float64(conversionCount)
		m.AverageOrderValue = &aov
		cpc := cost / float64(conversionCount)
		m.CostPerConversion = &cpc
	}

	m.PaybackPeriodDays = paybackPeriodDays(campaign, cost, revenue, conversionCount)
	return m
}

// paybackPeriodDays computes floor(cost / daily_conversion_rate), where
// the rate defaults to revenue / campaign_duration_days when positive and
// conversions exist. Returns nil when net profit <= 0 or the rate is
// non-positive.
func paybackPeriodDays(campaign models.Campaign, cost, revenue float64, conversionCount int) *int {
	if conversionCount == 0 || revenue-cost <= 0 {
		return nil
	}
	durationDays := campaign.DurationDays()
	if durationDays <= 0 {
		return nil
	}
	dailyRate := revenue / durationDays
	if dailyRate <= 0 {
		return nil
	}
	days := int(math.Floor(cost / dailyRate))
	return &days
}

func recordMetric(tenantID string, method models.ROIMethod) func() {
	start := time.Now()
	return func() {
		metrics.RecordROICalculation(tenantID, string(method), time.Since(start))
	}
}
