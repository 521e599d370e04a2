// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package roi

import (
	"testing"
	"time"

	"github.com/tomtom215/sponsorscope/internal/models"
)

func ptrStr(s string) *string    { return &s }
func ptrF64(f float64) *float64  { return &f }

func conversionEvent(campaignID string, method models.AttributionMethod, value float64, ts time.Time) models.AttributionEvent {
	return models.AttributionEvent{
		EventID:         "evt-" + ts.String(),
		CampaignID:      campaignID,
		Method:          method,
		Timestamp:       ts,
		ConversionType:  ptrStr("purchase"),
		ConversionValue: ptrF64(value),
	}
}

func clickEvent(campaignID string, method models.AttributionMethod, ts time.Time) models.AttributionEvent {
	return models.AttributionEvent{
		EventID:    "click-" + ts.String(),
		CampaignID: campaignID,
		Method:     method,
		Timestamp:  ts,
	}
}

func baseCampaign() models.Campaign {
	return models.Campaign{
		CampaignID:    "C",
		CampaignValue: 1000,
		StartDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		AttributionConfig: models.AttributionConfig{
			Method: models.MethodPromoCode,
		},
	}
}

// Scenario 1: ingest -> ROI simple.
func TestSimple_ScenarioOne(t *testing.T) {
	campaign := baseCampaign()
	now := time.Now()
	events := []models.AttributionEvent{
		conversionEvent("C", models.MethodPromoCode, 100, now),
		conversionEvent("C", models.MethodPromoCode, 200, now.Add(time.Minute)),
		clickEvent("C", models.MethodPromoCode, now.Add(2*time.Minute)),
		conversionEvent("C-other", models.MethodPromoCode, 500, now.Add(3*time.Minute)),
	}

	c := New()
	m, err := c.Calculate(campaign, events, nil, models.ROISimple)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if m.ConversionValue != 800 {
		t.Errorf("simple revenue: got %v want 800 (simple ignores campaign filtering)", m.ConversionValue)
	}
}

// Restricted to the three completed-conversion events, matching the worked example.
func TestSimple_RestrictedToCampaignEvents(t *testing.T) {
	campaign := baseCampaign()
	now := time.Now()
	events := []models.AttributionEvent{
		conversionEvent("C", models.MethodPromoCode, 100, now),
		conversionEvent("C", models.MethodPromoCode, 200, now.Add(time.Minute)),
		clickEvent("C", models.MethodPromoCode, now.Add(2*time.Minute)),
	}

	c := New()
	m, err := c.Calculate(campaign, events, nil, models.ROISimple)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.ConversionValue != 300 {
		t.Errorf("revenue = %v, want 300", m.ConversionValue)
	}
	if m.ConversionCount != 2 {
		t.Errorf("conversion_count = %v, want 2", m.ConversionCount)
	}
	wantROI := (300.0 - 1000.0) / 1000.0
	if m.ROI != wantROI {
		t.Errorf("roi = %v, want %v", m.ROI, wantROI)
	}
	if m.ROAS != 0.3 {
		t.Errorf("roas = %v, want 0.3", m.ROAS)
	}
	if m.NetProfit != -700 {
		t.Errorf("net_profit = %v, want -700", m.NetProfit)
	}
}

// Attributed vs simple ROI on the same data.
func TestAttributedVsSimple(t *testing.T) {
	campaign := baseCampaign() // method = promo_code
	now := time.Now()
	events := []models.AttributionEvent{
		conversionEvent("C", models.MethodPromoCode, 200, now),
		conversionEvent("C", models.MethodPixel, 300, now.Add(time.Minute)),
	}

	c := New()
	simple, err := c.Calculate(campaign, events, nil, models.ROISimple)
	if err != nil {
		t.Fatalf("simple: %v", err)
	}
	if simple.ConversionValue != 500 {
		t.Errorf("simple = %v, want 500", simple.ConversionValue)
	}

	attributed, err := c.Calculate(campaign, events, nil, models.ROIAttributed)
	if err != nil {
		t.Fatalf("attributed: %v", err)
	}
	if attributed.ConversionValue != 200 {
		t.Errorf("attributed = %v, want 200", attributed.ConversionValue)
	}
}

// Multi-touch last-touch crediting.
func TestMultiTouchLastTouch(t *testing.T) {
	campaign := baseCampaign()
	t1 := time.Now()
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	u1 := "u1"
	u2 := "u2"
	events := []models.AttributionEvent{
		{EventID: "e1", CampaignID: "C", Method: models.MethodPromoCode, Timestamp: t1, UserID: &u1},
		{EventID: "e2", CampaignID: "C", Method: models.MethodPromoCode, Timestamp: t2, UserID: &u1,
			ConversionType: ptrStr("purchase"), ConversionValue: ptrF64(400)},
		{EventID: "e3", CampaignID: "C", Method: models.MethodPromoCode, Timestamp: t3, UserID: &u2,
			ConversionType: ptrStr("purchase"), ConversionValue: ptrF64(100)},
	}

	c := New()
	m, err := c.Calculate(campaign, events, nil, models.ROIMultiTouch)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.ConversionValue != 500 {
		t.Errorf("revenue = %v, want 500", m.ConversionValue)
	}
	if m.ConversionCount != 2 {
		t.Errorf("conversion_count = %v, want 2", m.ConversionCount)
	}
}

func TestZeroCostCampaign(t *testing.T) {
	campaign := baseCampaign()
	campaign.CampaignValue = 0
	now := time.Now()
	events := []models.AttributionEvent{
		conversionEvent("C", models.MethodPromoCode, 150, now),
	}

	c := New()
	m, err := c.Calculate(campaign, events, nil, models.ROISimple)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.ROI != 0 {
		t.Errorf("roi = %v, want 0", m.ROI)
	}
	if m.ROAS != 0 {
		t.Errorf("roas = %v, want 0", m.ROAS)
	}
	if m.NetProfit != 150 {
		t.Errorf("net_profit = %v, want 150 (== revenue)", m.NetProfit)
	}
}

func TestEmptyEventSet(t *testing.T) {
	campaign := baseCampaign()
	c := New()
	m, err := c.Calculate(campaign, nil, nil, models.ROISimple)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.ROI != -1 { // (0-1000)/1000
		t.Errorf("roi = %v, want -1", m.ROI)
	}
	if m.ConversionCount != 0 {
		t.Errorf("conversion_count = %v, want 0", m.ConversionCount)
	}
	if m.AverageOrderValue != nil {
		t.Errorf("average_order_value should be nil on zero conversions")
	}

	breakdown := c.ByMethodBreakdown(campaign, nil)
	if breakdown.PromoCode != nil || breakdown.Pixel != nil || breakdown.UTM != nil || breakdown.Direct != nil {
		t.Errorf("expected nil per-method breakdowns for empty event set")
	}
}

func TestIncrementalFallsBackWhenBaselineMissing(t *testing.T) {
	campaign := baseCampaign()
	now := time.Now()
	events := []models.AttributionEvent{
		conversionEvent("C", models.MethodPromoCode, 200, now),
	}

	c := New()
	m, err := c.Calculate(campaign, events, nil, models.ROIIncremental)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if !m.Degraded {
		t.Error("expected Degraded=true when baseline_rate is missing")
	}
	if m.ConversionValue != 200 {
		t.Errorf("expected fallback to attributed revenue 200, got %v", m.ConversionValue)
	}
}

func TestIncrementalWithBaseline(t *testing.T) {
	campaign := baseCampaign() // 30-day duration
	now := campaign.StartDate
	events := []models.AttributionEvent{
		conversionEvent("C", models.MethodPromoCode, 1000, now),
	}

	c := New()
	baseline := 10.0 // per day
	m, err := c.Calculate(campaign, events, &baseline, models.ROIIncremental)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	// baseline value = 10 * 30 = 300; incremental revenue = 1000-300 = 700
	if m.ConversionValue != 700 {
		t.Errorf("incremental revenue = %v, want 700", m.ConversionValue)
	}
	if m.Degraded {
		t.Error("should not be degraded when baseline supplied")
	}
}

func TestUnknownMethodIsValidationError(t *testing.T) {
	campaign := baseCampaign()
	c := New()
	_, err := c.Calculate(campaign, nil, nil, models.ROIMethod("bogus"))
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestPaybackPeriod(t *testing.T) {
	campaign := baseCampaign()
	campaign.CampaignValue = 300
	now := campaign.StartDate
	events := []models.AttributionEvent{
		conversionEvent("C", models.MethodPromoCode, 3000, now),
	}
	c := New()
	m, err := c.Calculate(campaign, events, nil, models.ROISimple)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	// daily rate = 3000/30 = 100; payback = floor(300/100) = 3
	if m.PaybackPeriodDays == nil || *m.PaybackPeriodDays != 3 {
		t.Errorf("payback_period_days = %v, want 3", m.PaybackPeriodDays)
	}
}

func TestPaybackPeriodNilWhenNoProfit(t *testing.T) {
	campaign := baseCampaign()
	now := campaign.StartDate
	events := []models.AttributionEvent{
		conversionEvent("C", models.MethodPromoCode, 10, now),
	}
	c := New()
	m, err := c.Calculate(campaign, events, nil, models.ROISimple)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if m.PaybackPeriodDays != nil {
		t.Errorf("expected nil payback period on a loss, got %v", *m.PaybackPeriodDays)
	}
}

func TestByMethodBreakdown(t *testing.T) {
	campaign := baseCampaign()
	now := time.Now()
	events := []models.AttributionEvent{
		conversionEvent("C", models.MethodPromoCode, 200, now),
		conversionEvent("C", models.MethodPixel, 50, now.Add(time.Minute)),
		conversionEvent("C", models.MethodUTM, 30, now.Add(2*time.Minute)),
	}
	c := New()
	breakdown := c.ByMethodBreakdown(campaign, events)
	if breakdown.PromoCode == nil || breakdown.PromoCode.ConversionValue != 200 {
		t.Errorf("promo_code breakdown wrong: %+v", breakdown.PromoCode)
	}
	if breakdown.Pixel == nil || breakdown.Pixel.ConversionValue != 50 {
		t.Errorf("pixel breakdown wrong: %+v", breakdown.Pixel)
	}
	if breakdown.Direct != nil {
		t.Error("expected nil direct breakdown, no direct events present")
	}
}
