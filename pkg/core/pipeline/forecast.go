package pipeline

import (
	"time"

	"dealintel/pkg/models"
)

// Forecast policy bounds.
const (
	// Score multiplier range on the base close probability.
	minScoreMultiplier = 0.5
	maxScoreMultiplier = 1.5
	// fallbackStageDays stands in when a stage has no dwell history at all.
	fallbackStageDays = 30.0
)

// computeConversion derives stage-to-close conversion rates from completed
// deal lifecycles: of the deals that passed through a stage and reached a
// terminal state, the fraction that completed. Never hardcoded; stages with
// no terminal history fall back to the global completion rate.
func (e *Engine) computeConversion(deals []DealRecord, an *Analysis) {
	passed := map[models.DealStage]int{}
	won := map[models.DealStage]int{}
	var terminalTotal, wonTotal int

	for _, rec := range deals {
		d := rec.Deal
		if !d.Stage.Terminal() {
			continue
		}
		terminalTotal++
		completed := d.Stage == models.StageCompleted
		if completed {
			wonTotal++
		}
		seen := map[models.DealStage]bool{}
		for _, ev := range d.StageHistory {
			if ev.Stage.Terminal() || seen[ev.Stage] {
				continue
			}
			seen[ev.Stage] = true
			passed[ev.Stage]++
			if completed {
				won[ev.Stage]++
			}
		}
	}

	if terminalTotal == 0 {
		an.Warnings = append(an.Warnings, "no completed deal history: forecast probabilities unavailable")
		return
	}
	global := float64(wonTotal) / float64(terminalTotal)

	for _, stage := range models.ActiveStages {
		if passed[stage] > 0 {
			an.Conversion[stage] = float64(won[stage]) / float64(passed[stage])
		} else {
			an.Conversion[stage] = global
		}
	}
}

// forecast sums probability-weighted deal values over active deals whose
// projected close lands within the horizon.
func (e *Engine) forecast(active map[models.DealStage][]DealRecord, an *Analysis, horizonDays int, crossMedian float64, now time.Time) Forecast {
	fc := Forecast{HorizonDays: horizonDays}
	if len(an.Conversion) == 0 {
		return fc
	}
	deadline := now.Add(time.Duration(horizonDays) * 24 * time.Hour)

	medianByStage := map[models.DealStage]float64{}
	for _, s := range an.Stages {
		medianByStage[s.Stage] = s.MedianDays
	}

	for idx, stage := range models.ActiveStages {
		for _, rec := range active[stage] {
			base := an.Conversion[stage]

			p := base * scoreMultiplier(rec)
			if p > 1 {
				p = 1
			}

			// Project the close as the remaining stages' median dwell.
			days := 0.0
			for _, later := range models.ActiveStages[idx:] {
				md := medianByStage[later]
				if md <= 0 {
					md = crossMedian
				}
				if md <= 0 {
					md = fallbackStageDays
				}
				days += md
			}
			projected := now.Add(time.Duration(days * 24 * float64(time.Hour)))
			if projected.After(deadline) {
				continue
			}

			fc.ExpectedClosings += p
			fc.ExpectedRevenue += p * rec.Deal.Value
			fc.Deals = append(fc.Deals, DealForecast{
				DealID:         rec.Deal.ID,
				Stage:          stage,
				Probability:    p,
				ExpectedValue:  p * rec.Deal.Value,
				ProjectedClose: projected,
			})
		}
	}
	return fc
}

// scoreMultiplier maps the deal's overall score onto [0.5, 1.5]: 50 is
// neutral, higher scores raise the effective close probability. Unscored
// deals stay neutral.
func scoreMultiplier(rec DealRecord) float64 {
	if rec.Score == nil {
		return 1.0
	}
	m := minScoreMultiplier + rec.Score.Overall/100
	if m < minScoreMultiplier {
		m = minScoreMultiplier
	}
	if m > maxScoreMultiplier {
		m = maxScoreMultiplier
	}
	return m
}
