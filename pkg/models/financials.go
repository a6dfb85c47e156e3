package models

import (
	"fmt"
	"time"
)

// PeriodFinancials holds the fixed line-item schema for one reporting period.
// Outflows (COGS, operating expenses, capex) are stored as negative values so
// the calculation layer can simply sum: EBITDA = Revenue + COGS + OpEx.
type PeriodFinancials struct {
	Period  string    `json:"period"` // e.g. "FY2023"
	EndDate time.Time `json:"end_date"`

	Revenue           float64 `json:"revenue"`
	COGS              float64 `json:"cogs"`               // negative
	OperatingExpenses float64 `json:"operating_expenses"` // negative
	EBITDA            float64 `json:"ebitda"`
	NetIncome         float64 `json:"net_income"`

	TotalAssets        float64 `json:"total_assets"`
	TotalLiabilities   float64 `json:"total_liabilities"`
	CurrentAssets      float64 `json:"current_assets"`
	CurrentLiabilities float64 `json:"current_liabilities"`
	Inventory          float64 `json:"inventory,omitempty"`

	CashFromOperations float64 `json:"cash_from_operations"`
	CapEx              float64 `json:"capex"` // negative
}

// FreeCashFlow returns CFO + CapEx (capex carried negative).
func (p PeriodFinancials) FreeCashFlow() float64 {
	return p.CashFromOperations + p.CapEx
}

// FinancialStatement is an append-only, chronologically ordered collection of
// periods. A recorded period is never mutated; corrections land as new periods.
type FinancialStatement struct {
	periods []PeriodFinancials
}

// NewFinancialStatement builds a statement from already-ordered periods.
func NewFinancialStatement(periods ...PeriodFinancials) (*FinancialStatement, error) {
	fs := &FinancialStatement{}
	for _, p := range periods {
		if err := fs.AddPeriod(p); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// AddPeriod appends a new period. It rejects periods that are not strictly
// after the latest recorded period.
func (fs *FinancialStatement) AddPeriod(p PeriodFinancials) error {
	if p.Period == "" {
		return fmt.Errorf("period identifier is required")
	}
	if n := len(fs.periods); n > 0 {
		last := fs.periods[n-1]
		if !p.EndDate.After(last.EndDate) {
			return fmt.Errorf("period %s (%s) is not after latest period %s (%s)",
				p.Period, p.EndDate.Format("2006-01-02"), last.Period, last.EndDate.Format("2006-01-02"))
		}
	}
	fs.periods = append(fs.periods, p)
	return nil
}

// Periods returns a copy of the recorded periods, oldest first.
func (fs *FinancialStatement) Periods() []PeriodFinancials {
	out := make([]PeriodFinancials, len(fs.periods))
	copy(out, fs.periods)
	return out
}

// Latest returns the most recent period, or false when none is recorded.
func (fs *FinancialStatement) Latest() (PeriodFinancials, bool) {
	if len(fs.periods) == 0 {
		return PeriodFinancials{}, false
	}
	return fs.periods[len(fs.periods)-1], true
}

// Len reports the number of recorded periods.
func (fs *FinancialStatement) Len() int {
	return len(fs.periods)
}
