package pipeline

import (
	"fmt"
	"sort"
	"time"

	"dealintel/pkg/models"
)

// Engine computes pipeline analyses under one threshold policy. The clock is
// injectable so dwell-time math is reproducible in tests.
type Engine struct {
	cfg Config
	now func() time.Time
}

func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MedianMultiple <= 0 {
		cfg.MedianMultiple = def.MedianMultiple
	}
	if cfg.StalledAfter <= 0 {
		cfg.StalledAfter = def.StalledAfter
	}
	if cfg.StalledFraction <= 0 {
		cfg.StalledFraction = def.StalledFraction
	}
	if cfg.HighRiskShare <= 0 {
		cfg.HighRiskShare = def.HighRiskShare
	}
	if cfg.MediumRiskShare <= 0 {
		cfg.MediumRiskShare = def.MediumRiskShare
	}
	return &Engine{cfg: cfg, now: time.Now}
}

// SetClock overrides the analysis clock, for reproducible tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Analyze rebuilds the full pipeline picture from the given deal collection:
// per-stage dwell distributions, bottlenecks, historical conversion rates and
// the closing forecast over the horizon.
func (e *Engine) Analyze(deals []DealRecord, horizonDays int) (*Analysis, error) {
	if len(deals) == 0 {
		return nil, fmt.Errorf("pipeline analysis requires at least one deal")
	}
	if horizonDays <= 0 {
		horizonDays = 90
	}
	now := e.now()

	an := &Analysis{
		GeneratedAt: now,
		Conversion:  map[models.DealStage]float64{},
	}

	// 1. Dwell-time samples per stage, from stage history plus the open
	// dwell of each active deal's current stage.
	dwell := map[models.DealStage][]float64{}
	active := map[models.DealStage][]DealRecord{}
	stalled := map[models.DealStage][]DealRecord{}

	for _, rec := range deals {
		d := rec.Deal
		for i, ev := range d.StageHistory {
			if ev.Stage.Terminal() {
				continue
			}
			var until time.Time
			if i+1 < len(d.StageHistory) {
				until = d.StageHistory[i+1].EnteredAt
			} else if !d.Stage.Terminal() {
				until = now
			} else {
				continue
			}
			dwell[ev.Stage] = append(dwell[ev.Stage], until.Sub(ev.EnteredAt).Hours()/24)
		}

		if d.Stage.Terminal() {
			continue
		}
		an.ActiveDeals++
		an.TotalPipelineValue += d.Value
		active[d.Stage] = append(active[d.Stage], rec)
		if now.Sub(d.EnteredCurrentStage()) > e.cfg.StalledAfter {
			stalled[d.Stage] = append(stalled[d.Stage], rec)
		}
	}

	// 2. Per-stage stats and the cross-stage median.
	var stageMedians []float64
	for _, stage := range models.ActiveStages {
		samples := dwell[stage]
		stats := StageStats{
			Stage:        stage,
			Observations: len(samples),
			ActiveDeals:  len(active[stage]),
			StalledDeals: len(stalled[stage]),
		}
		if len(samples) > 0 {
			stats.MedianDays = medianOf(samples)
			stageMedians = append(stageMedians, stats.MedianDays)
		}
		an.Stages = append(an.Stages, stats)
	}
	crossMedian := medianOf(stageMedians)

	// 3. Bottleneck detection.
	an.Bottlenecks = e.detectBottlenecks(an, stalled, crossMedian)

	// 4. Historical conversion rates and the forecast.
	e.computeConversion(deals, an)
	an.Forecast = e.forecast(active, an, horizonDays, crossMedian, now)

	return an, nil
}

func medianOf(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
