// Package pipeline aggregates scored deals into velocity, bottleneck and
// forecast intelligence. It owns no persistent state: every analysis is
// rebuilt from the deal collection it is handed, so aggregates can never go
// stale.
package pipeline

import (
	"time"

	"dealintel/pkg/core/scoring"
	"dealintel/pkg/models"
)

// DealRecord pairs a deal with its latest score. The score is optional;
// unscored deals still contribute to velocity and bottleneck statistics.
type DealRecord struct {
	Deal  models.Deal        `json:"deal"`
	Score *scoring.DealScore `json:"score,omitempty"`
}

// Config holds the detection and severity thresholds.
type Config struct {
	// MedianMultiple flags a stage whose median dwell exceeds this multiple
	// of the cross-stage median.
	MedianMultiple float64 `json:"median_multiple"`
	// StalledAfter is the absolute dwell beyond which a deal counts as stalled.
	StalledAfter time.Duration `json:"stalled_after"`
	// StalledFraction flags a stage when stalled deals exceed this share.
	StalledFraction float64 `json:"stalled_fraction"`

	// Severity tiers on revenue-at-risk relative to total pipeline value.
	HighRiskShare   float64 `json:"high_risk_share"`
	MediumRiskShare float64 `json:"medium_risk_share"`
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		MedianMultiple:  1.5,
		StalledAfter:    30 * 24 * time.Hour,
		StalledFraction: 0.20,
		HighRiskShare:   0.25,
		MediumRiskShare: 0.10,
	}
}

// StageStats summarizes dwell time for one stage across all deals that are
// currently in it or have historically passed through it.
type StageStats struct {
	Stage        models.DealStage `json:"stage"`
	Observations int              `json:"observations"` // dwell samples (current + historical)
	ActiveDeals  int              `json:"active_deals"`
	MedianDays   float64          `json:"median_days"`
	StalledDeals int              `json:"stalled_deals"`
}

// Severity tiers a bottleneck by its revenue at risk.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Bottleneck is one flagged stage.
type Bottleneck struct {
	Stage         models.DealStage `json:"stage"`
	MedianDays    float64          `json:"median_days"`
	StalledDeals  int              `json:"stalled_deals"`
	RevenueAtRisk float64          `json:"revenue_at_risk"`
	Severity      Severity         `json:"severity"`
	Reason        string           `json:"reason"`
}

// DealForecast is the per-deal contribution to the closing forecast.
type DealForecast struct {
	DealID         string           `json:"deal_id"`
	Stage          models.DealStage `json:"stage"`
	Probability    float64          `json:"probability"`
	ExpectedValue  float64          `json:"expected_value"`
	ProjectedClose time.Time        `json:"projected_close"`
}

// Forecast is the expected-closings projection over the horizon.
type Forecast struct {
	HorizonDays      int            `json:"horizon_days"`
	ExpectedClosings float64        `json:"expected_closings"`
	ExpectedRevenue  float64        `json:"expected_revenue"`
	Deals            []DealForecast `json:"deals"`
}

// Analysis is the full point-in-time pipeline snapshot analysis.
type Analysis struct {
	GeneratedAt        time.Time                    `json:"generated_at"`
	ActiveDeals        int                          `json:"active_deals"`
	TotalPipelineValue float64                      `json:"total_pipeline_value"`
	Stages             []StageStats                 `json:"stages"`
	Bottlenecks        []Bottleneck                 `json:"bottlenecks"`
	Conversion         map[models.DealStage]float64 `json:"conversion"` // historical stage-to-close rates
	Forecast           Forecast                     `json:"forecast"`
	Warnings           []string                     `json:"warnings,omitempty"`
}
