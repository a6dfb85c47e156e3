package valuation

import (
	"context"
	"math/rand"
	"sort"
	"sync"
)

// Monte Carlo defaults.
const (
	DefaultTrials         = 1000
	DefaultBatchSize      = 100
	DefaultGrowthStdDev   = 0.02
	DefaultDiscountStdDev = 0.01
)

// batchSeedStride separates per-batch RNG streams.
const batchSeedStride = 0x9E3779B9

// MonteCarloConfig controls the DCF uncertainty overlay. Given the same Seed
// and inputs, the low/median/high triplet is bit-identical regardless of
// Workers: every batch owns an RNG derived from (Seed, batch index) and
// writes to its own slice region.
type MonteCarloConfig struct {
	Trials         int     `json:"trials,omitempty"`
	Seed           int64   `json:"seed,omitempty"`
	BatchSize      int     `json:"batch_size,omitempty"`
	Workers        int     `json:"workers,omitempty"`
	GrowthStdDev   float64 `json:"growth_std_dev,omitempty"`
	DiscountStdDev float64 `json:"discount_std_dev,omitempty"`
}

func (c MonteCarloConfig) withDefaults() MonteCarloConfig {
	if c.Trials <= 0 {
		c.Trials = DefaultTrials
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.GrowthStdDev <= 0 {
		c.GrowthStdDev = DefaultGrowthStdDev
	}
	if c.DiscountStdDev <= 0 {
		c.DiscountStdDev = DefaultDiscountStdDev
	}
	return c
}

// MonteCarloResult reports the 10th/50th/90th percentile of the trial
// distribution. Percentiles, not min/max, to avoid outlier sensitivity.
type MonteCarloResult struct {
	Trials int     `json:"trials"`
	Low    float64 `json:"low"`    // p10
	Median float64 `json:"median"` // p50
	High   float64 `json:"high"`   // p90
}

// runMonteCarlo perturbs growth and discount rates with bounded normal noise
// and re-runs the DCF per trial. Cancellation stops at the next batch
// boundary and discards all partial results: a percentile over a partial
// sample would be statistically invalid.
func runMonteCarlo(ctx context.Context, baseFCF float64, p dcfParams, cfg MonteCarloConfig) (MonteCarloResult, error) {
	cfg = cfg.withDefaults()

	values := make([]float64, cfg.Trials)
	nBatches := (cfg.Trials + cfg.BatchSize - 1) / cfg.BatchSize

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				runBatch(baseFCF, p, cfg, b, values)
			}
		}()
	}

	cancelled := false
dispatch:
	for b := 0; b < nBatches; b++ {
		select {
		case <-ctx.Done():
			cancelled = true
			break dispatch
		case jobs <- b:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled {
		return MonteCarloResult{}, ctx.Err()
	}

	sort.Float64s(values)
	return MonteCarloResult{
		Trials: cfg.Trials,
		Low:    percentile(values, 0.10),
		Median: percentile(values, 0.50),
		High:   percentile(values, 0.90),
	}, nil
}

// runBatch fills values[start:end) for one batch. The batch RNG depends only
// on (Seed, batch), so the output is independent of worker scheduling.
func runBatch(baseFCF float64, p dcfParams, cfg MonteCarloConfig, batch int, values []float64) {
	rng := rand.New(rand.NewSource(cfg.Seed + int64(batch)*batchSeedStride))

	start := batch * cfg.BatchSize
	end := start + cfg.BatchSize
	if end > len(values) {
		end = len(values)
	}

	for i := start; i < end; i++ {
		// Draw order is fixed: growth first, then discount.
		g := p.growth + rng.NormFloat64()*cfg.GrowthStdDev
		d := p.discount + rng.NormFloat64()*cfg.DiscountStdDev

		// Bound samples to plausible, convergent ranges.
		d = clamp(d, maxFloat(0.01, p.terminal+0.005), p.discount+4*cfg.DiscountStdDev)
		g = clamp(g, -0.50, d-0.005)

		trial := p
		trial.growth = g
		trial.discount = d
		values[i] = projectDCF(baseFCF, trial)
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
