// Package normalize derives standardized financial ratios from raw statement
// data. It is stateless and deterministic: identical input always produces an
// identical RatioSet, and recomputation is idempotent.
package normalize

import (
	"fmt"
	"math"

	"dealintel/pkg/models"
)

// Ratio is a safe-division result. An undefined ratio (zero or absent
// denominator, or insufficient history) is excluded from downstream weighted
// calculations; it never counts as zero.
type Ratio struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// Defined wraps a computed value.
func Defined(v float64) Ratio { return Ratio{Value: v, Defined: true} }

// Undefined is the sentinel for ratios that could not be computed.
func Undefined() Ratio { return Ratio{} }

func safeRatio(numerator, denominator float64) Ratio {
	if denominator == 0 {
		return Undefined()
	}
	return Defined(numerator / denominator)
}

// growthRatio computes period-over-period growth relative to |prior|.
func growthRatio(current, prior float64) Ratio {
	if prior == 0 {
		return Undefined()
	}
	return Defined((current - prior) / math.Abs(prior))
}

// RatioSet is the normalized ratio schema consumed by the valuation and
// scoring engines. Derived on demand, never persisted as ground truth.
type RatioSet struct {
	// Profitability
	GrossMargin    Ratio `json:"gross_margin"`
	EBITDAMargin   Ratio `json:"ebitda_margin"`
	NetMargin      Ratio `json:"net_margin"`
	ReturnOnAssets Ratio `json:"return_on_assets"`

	// Liquidity
	CurrentRatio       Ratio `json:"current_ratio"`
	QuickRatio         Ratio `json:"quick_ratio"`
	WorkingCapToAssets Ratio `json:"working_capital_to_assets"`
	OperatingCashRatio Ratio `json:"operating_cash_ratio"`

	// Leverage
	DebtToAssets Ratio `json:"debt_to_assets"`
	DebtToEquity Ratio `json:"debt_to_equity"`

	// Efficiency
	AssetTurnover Ratio `json:"asset_turnover"`
	OpexRatio     Ratio `json:"opex_ratio"`

	// Cash flow
	FCFMargin      Ratio `json:"fcf_margin"`
	CapexIntensity Ratio `json:"capex_intensity"`

	// Growth (require >= 2 chronologically ordered periods)
	RevenueGrowth   Ratio `json:"revenue_growth"`
	EBITDAGrowth    Ratio `json:"ebitda_growth"`
	NetIncomeGrowth Ratio `json:"net_income_growth"`
}

// Compute derives a RatioSet from the given statement. At least one period is
// required; growth ratios stay undefined when fewer than two periods exist.
func Compute(fs *models.FinancialStatement) (RatioSet, error) {
	if fs == nil || fs.Len() == 0 {
		return RatioSet{}, fmt.Errorf("at least one financial period is required")
	}

	periods := fs.Periods()
	latest := periods[len(periods)-1]

	rs := RatioSet{}

	// 1. Point-in-time ratios from the latest period.
	// COGS/OpEx/CapEx are carried as negative values (outflow convention).
	grossProfit := latest.Revenue + latest.COGS
	equity := latest.TotalAssets - latest.TotalLiabilities

	rs.GrossMargin = safeRatio(grossProfit, latest.Revenue)
	rs.EBITDAMargin = safeRatio(latest.EBITDA, latest.Revenue)
	rs.NetMargin = safeRatio(latest.NetIncome, latest.Revenue)
	rs.ReturnOnAssets = safeRatio(latest.NetIncome, latest.TotalAssets)

	rs.CurrentRatio = safeRatio(latest.CurrentAssets, latest.CurrentLiabilities)
	rs.QuickRatio = safeRatio(latest.CurrentAssets-latest.Inventory, latest.CurrentLiabilities)
	rs.WorkingCapToAssets = safeRatio(latest.CurrentAssets-latest.CurrentLiabilities, latest.TotalAssets)
	rs.OperatingCashRatio = safeRatio(latest.CashFromOperations, latest.CurrentLiabilities)

	rs.DebtToAssets = safeRatio(latest.TotalLiabilities, latest.TotalAssets)
	rs.DebtToEquity = safeRatio(latest.TotalLiabilities, equity)

	rs.AssetTurnover = safeRatio(latest.Revenue, latest.TotalAssets)
	rs.OpexRatio = safeRatio(math.Abs(latest.OperatingExpenses), latest.Revenue)

	rs.FCFMargin = safeRatio(latest.FreeCashFlow(), latest.Revenue)
	rs.CapexIntensity = safeRatio(math.Abs(latest.CapEx), latest.Revenue)

	// 2. Growth ratios vs the immediately prior period.
	if len(periods) >= 2 {
		prior := periods[len(periods)-2]
		rs.RevenueGrowth = growthRatio(latest.Revenue, prior.Revenue)
		rs.EBITDAGrowth = growthRatio(latest.EBITDA, prior.EBITDA)
		rs.NetIncomeGrowth = growthRatio(latest.NetIncome, prior.NetIncome)
	}

	return rs, nil
}

// HistoricalFCFGrowth estimates an average free-cash-flow growth rate across
// all recorded periods. Used by the valuation engine when the caller supplies
// no explicit growth assumption. Undefined with fewer than two periods or
// when no consecutive pair yields a defined growth rate.
func HistoricalFCFGrowth(fs *models.FinancialStatement) Ratio {
	if fs == nil || fs.Len() < 2 {
		return Undefined()
	}
	periods := fs.Periods()
	var sum float64
	var n int
	for i := 1; i < len(periods); i++ {
		g := growthRatio(periods[i].FreeCashFlow(), periods[i-1].FreeCashFlow())
		if g.Defined {
			sum += g.Value
			n++
		}
	}
	if n == 0 {
		return Undefined()
	}
	return Defined(sum / float64(n))
}
