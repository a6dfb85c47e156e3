package pipeline

import (
	"fmt"

	"dealintel/pkg/models"
)

// detectBottlenecks flags stages on either trigger: median dwell beyond the
// configured multiple of the cross-stage median, or the stalled share of the
// stage's active deals beyond the configured fraction.
func (e *Engine) detectBottlenecks(an *Analysis, stalled map[models.DealStage][]DealRecord, crossMedian float64) []Bottleneck {
	var out []Bottleneck

	for _, stats := range an.Stages {
		var reason string

		if crossMedian > 0 && stats.Observations > 0 && stats.MedianDays > e.cfg.MedianMultiple*crossMedian {
			reason = fmt.Sprintf("median dwell %.1fd exceeds %.1fx cross-stage median (%.1fd)",
				stats.MedianDays, e.cfg.MedianMultiple, crossMedian)
		} else if stats.ActiveDeals > 0 {
			frac := float64(stats.StalledDeals) / float64(stats.ActiveDeals)
			if frac > e.cfg.StalledFraction {
				reason = fmt.Sprintf("%d of %d deals stalled beyond %.0fd",
					stats.StalledDeals, stats.ActiveDeals, e.cfg.StalledAfter.Hours()/24)
			}
		}
		if reason == "" {
			continue
		}

		var atRisk float64
		for _, rec := range stalled[stats.Stage] {
			atRisk += rec.Deal.Value
		}

		out = append(out, Bottleneck{
			Stage:         stats.Stage,
			MedianDays:    stats.MedianDays,
			StalledDeals:  stats.StalledDeals,
			RevenueAtRisk: atRisk,
			Severity:      e.severity(atRisk, an.TotalPipelineValue),
			Reason:        reason,
		})
	}
	return out
}

// severity tiers revenue-at-risk against total pipeline value.
func (e *Engine) severity(atRisk, total float64) Severity {
	if total <= 0 {
		return SeverityLow
	}
	share := atRisk / total
	switch {
	case share >= e.cfg.HighRiskShare:
		return SeverityHigh
	case share >= e.cfg.MediumRiskShare:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
