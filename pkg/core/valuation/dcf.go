package valuation

import (
	"dealintel/pkg/core/normalize"
)

// Default DCF parameters applied when the caller leaves a field unset.
const (
	DefaultHorizon        = 5
	DefaultDiscountRate   = 0.12 // industry-default WACC proxy
	DefaultTerminalGrowth = 0.025
)

// DCFAssumptions are caller-supplied inputs for the DCF methodology. Nil
// fields fall back to defaults; a nil GrowthRate falls back to the
// historically derived free-cash-flow growth rate.
type DCFAssumptions struct {
	GrowthRate     *float64 `json:"growth_rate,omitempty"`
	DiscountRate   *float64 `json:"discount_rate,omitempty"`
	TerminalGrowth *float64 `json:"terminal_growth,omitempty"`
	Horizon        int      `json:"horizon,omitempty"`
}

// dcfParams are fully resolved, validated DCF inputs.
type dcfParams struct {
	growth   float64
	discount float64
	terminal float64
	horizon  int
}

// resolve fills defaults and validates. Caller-supplied values that make the
// model diverge are rejected with InvalidAssumptionError before any
// simulation starts; an uncomputable historically-derived growth rate instead
// excludes the methodology via InsufficientDataError.
func (a DCFAssumptions) resolve(historicalGrowth normalize.Ratio) (dcfParams, error) {
	p := dcfParams{
		discount: DefaultDiscountRate,
		terminal: DefaultTerminalGrowth,
		horizon:  a.Horizon,
	}
	if p.horizon <= 0 {
		p.horizon = DefaultHorizon
	}

	if a.DiscountRate != nil {
		if *a.DiscountRate <= 0 {
			return p, &InvalidAssumptionError{Field: "discount_rate", Value: *a.DiscountRate, Reason: "must be positive"}
		}
		p.discount = *a.DiscountRate
	}
	if a.TerminalGrowth != nil {
		if *a.TerminalGrowth >= p.discount {
			return p, &InvalidAssumptionError{Field: "terminal_growth", Value: *a.TerminalGrowth, Reason: "must be below the discount rate (divergent perpetuity)"}
		}
		p.terminal = *a.TerminalGrowth
	} else if p.terminal >= p.discount {
		// Default terminal growth can still collide with a very low discount rate.
		p.terminal = p.discount / 2
	}

	switch {
	case a.GrowthRate != nil:
		if *a.GrowthRate >= p.discount {
			return p, &InvalidAssumptionError{Field: "growth_rate", Value: *a.GrowthRate, Reason: "must be below the discount rate (divergent perpetuity)"}
		}
		p.growth = *a.GrowthRate
	case historicalGrowth.Defined:
		if historicalGrowth.Value >= p.discount {
			return p, &InsufficientDataError{Method: MethodDCF, Reason: "derived historical growth exceeds the discount rate; supply an explicit growth assumption"}
		}
		p.growth = historicalGrowth.Value
	default:
		return p, &InsufficientDataError{Method: MethodDCF, Reason: "no growth assumption supplied and fewer than two periods to derive one"}
	}

	return p, nil
}

// projectDCF runs a deterministic two-stage DCF: explicit horizon projection
// plus a Gordon-growth terminal value, both discounted with a cumulative
// discount factor. Returns the present enterprise value.
func projectDCF(baseFCF float64, p dcfParams) float64 {
	var pvFCF float64
	cumDiscountFactor := 1.0
	fcf := baseFCF

	for i := 0; i < p.horizon; i++ {
		fcf *= 1 + p.growth
		cumDiscountFactor /= 1 + p.discount
		pvFCF += fcf * cumDiscountFactor
	}

	// Terminal value: TV = FCF_n * (1+g_t) / (r - g_t)
	terminalFCF := fcf * (1 + p.terminal)
	tv := 0.0
	if p.discount > p.terminal {
		tv = terminalFCF / (p.discount - p.terminal)
	}

	return pvFCF + tv*cumDiscountFactor
}

// SensitivityGrid computes a growth x discount DCF matrix around the given
// base rates, for scenario display. steps is the number of offsets on each
// side of the base value; delta is the per-step rate offset. Divergent cells
// (discount <= growth) hold zero and are not valuations.
func SensitivityGrid(baseFCF float64, growth, discount float64, horizon, steps int, delta float64) [][]float64 {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	size := steps*2 + 1
	grid := make([][]float64, size)
	for i := 0; i < size; i++ {
		grid[i] = make([]float64, size)
		g := growth + float64(i-steps)*delta
		for j := 0; j < size; j++ {
			d := discount + float64(j-steps)*delta
			if d <= g || d <= 0 {
				continue
			}
			terminal := DefaultTerminalGrowth
			if terminal >= d {
				terminal = d / 2
			}
			grid[i][j] = projectDCF(baseFCF, dcfParams{growth: g, discount: d, terminal: terminal, horizon: horizon})
		}
	}
	return grid
}
