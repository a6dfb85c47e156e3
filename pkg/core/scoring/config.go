// Package scoring combines normalized financials with qualitative deal
// attributes into a weighted multi-dimensional score and a discrete
// recommendation. Stateless per call; all policy lives in an injectable
// Config so alternate weightings are reproducible in tests.
package scoring

import (
	"fmt"
	"math"
	"os"

	hjson "github.com/hjson/hjson-go/v4"
)

// Weights are the sub-score weights used for the overall score. They must sum
// to 1.0; when a sub-score is unavailable the remaining weights are
// renormalized at scoring time.
type Weights struct {
	Financial float64 `json:"financial"`
	Strategic float64 `json:"strategic"`
	Risk      float64 `json:"risk"`
	Market    float64 `json:"market"`
	Team      float64 `json:"team"`
}

func (w Weights) sum() float64 {
	return w.Financial + w.Strategic + w.Risk + w.Market + w.Team
}

// Breakpoints anchor the piecewise-linear maps from raw ratios and attributes
// onto the 0-100 scale. Each *Full value is the point at which the component
// saturates at 100.
type Breakpoints struct {
	EBITDAMarginFull   float64 `json:"ebitda_margin_full"`   // default 0.25
	NetMarginFull      float64 `json:"net_margin_full"`      // default 0.15
	RevenueGrowthFull  float64 `json:"revenue_growth_full"`  // default 0.30
	RevenueGrowthFloor float64 `json:"revenue_growth_floor"` // default -0.25 -> 0
	DebtToEquityZero   float64 `json:"debt_to_equity_zero"`  // default 3.0 -> 0
	CurrentRatioFull   float64 `json:"current_ratio_full"`   // default 2.0
	MarketSizeFull     float64 `json:"market_size_full"`     // default 1e9
	MarketGrowthFull   float64 `json:"market_growth_full"`   // default 0.20
	TeamTenureFull     float64 `json:"team_tenure_full"`     // default 8 years
	ExitsForFull       int     `json:"exits_for_full"`       // default 4 prior exits
}

// Deductions is the fixed point-deduction table for the inverse-scored risk
// dimension.
type Deductions struct {
	ConcentrationModerate float64 `json:"concentration_moderate"` // top customer > 15% of revenue
	ConcentrationHigh     float64 `json:"concentration_high"`     // > 30%
	ConcentrationSevere   float64 `json:"concentration_severe"`   // > 50%
	RegulatoryExposure    float64 `json:"regulatory_exposure"`
	LitigationPending     float64 `json:"litigation_pending"`
	KeyPersonDependency   float64 `json:"key_person_dependency"`
}

// Config is the full scoring policy.
type Config struct {
	Weights     Weights     `json:"weights"`
	Breakpoints Breakpoints `json:"breakpoints"`
	Deductions  Deductions  `json:"deductions"`

	// Risk-level thresholds on the risk sub-score.
	RiskLevelLow    float64 `json:"risk_level_low"`    // >= 75 -> low
	RiskLevelMedium float64 `json:"risk_level_medium"` // >= 50 -> medium
	RiskLevelHigh   float64 `json:"risk_level_high"`   // >= 25 -> high, else critical

	// Recommendation thresholds on the overall score.
	RecommendProceed     float64 `json:"recommend_proceed"`     // >= 80 and low risk
	RecommendCaution     float64 `json:"recommend_caution"`     // >= 65 and not critical
	RecommendInvestigate float64 `json:"recommend_investigate"` // >= 50
	RecommendNegotiate   float64 `json:"recommend_negotiate"`   // >= 35
}

// DefaultConfig returns the documented default policy.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Financial: 0.30,
			Strategic: 0.25,
			Risk:      0.20,
			Market:    0.15,
			Team:      0.10,
		},
		Breakpoints: Breakpoints{
			EBITDAMarginFull:   0.25,
			NetMarginFull:      0.15,
			RevenueGrowthFull:  0.30,
			RevenueGrowthFloor: -0.25,
			DebtToEquityZero:   3.0,
			CurrentRatioFull:   2.0,
			MarketSizeFull:     1e9,
			MarketGrowthFull:   0.20,
			TeamTenureFull:     8,
			ExitsForFull:       4,
		},
		Deductions: Deductions{
			ConcentrationModerate: 10,
			ConcentrationHigh:     20,
			ConcentrationSevere:   30,
			RegulatoryExposure:    20,
			LitigationPending:     25,
			KeyPersonDependency:   15,
		},
		RiskLevelLow:         75,
		RiskLevelMedium:      50,
		RiskLevelHigh:        25,
		RecommendProceed:     80,
		RecommendCaution:     65,
		RecommendInvestigate: 50,
		RecommendNegotiate:   35,
	}
}

// Validate enforces the construction invariants.
func (c Config) Validate() error {
	if math.Abs(c.Weights.sum()-1.0) > 1e-9 {
		return fmt.Errorf("sub-score weights must sum to 1.0, got %g", c.Weights.sum())
	}
	if !(c.RiskLevelLow > c.RiskLevelMedium && c.RiskLevelMedium > c.RiskLevelHigh && c.RiskLevelHigh > 0) {
		return fmt.Errorf("risk level thresholds must be strictly descending and positive")
	}
	if !(c.RecommendProceed > c.RecommendCaution && c.RecommendCaution > c.RecommendInvestigate && c.RecommendInvestigate > c.RecommendNegotiate) {
		return fmt.Errorf("recommendation thresholds must be strictly descending")
	}
	return nil
}

// LoadConfig reads a scoring policy from an HJSON file (comments and unquoted
// keys allowed, so scenario files can document themselves). Unset sections
// are not defaulted; scenario files should start from DefaultConfig output.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read scoring config: %w", err)
	}
	var cfg Config
	if err := hjson.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse scoring config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
