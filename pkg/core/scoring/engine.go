package scoring

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"dealintel/pkg/core/normalize"
	"dealintel/pkg/core/valuation"
	"dealintel/pkg/models"
)

// RiskLevel is derived from the risk sub-score via fixed thresholds.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Recommendation is the discrete outcome of overall score x risk level.
type Recommendation string

const (
	RecommendationProceed     Recommendation = "proceed"
	RecommendationCaution     Recommendation = "proceed_with_caution"
	RecommendationInvestigate Recommendation = "investigate_further"
	RecommendationNegotiate   Recommendation = "negotiate_terms"
	RecommendationDecline     Recommendation = "decline"
)

// SubScore is one scored dimension. Unavailable sub-scores are excluded from
// the overall calculation (with weight renormalization); incomplete ones
// count against confidence only.
type SubScore struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
	Complete  bool    `json:"complete"`
}

// DealScore is an immutable scoring outcome. Prior scores are retained as
// history by the store; a re-score appends, never overwrites.
type DealScore struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Financial SubScore `json:"financial"`
	Strategic SubScore `json:"strategic"`
	Risk      SubScore `json:"risk"`
	Market    SubScore `json:"market"`
	Team      SubScore `json:"team"`

	Overall        float64        `json:"overall"`
	RiskLevel      RiskLevel      `json:"risk_level"`
	Recommendation Recommendation `json:"recommendation"`

	// Confidence is the fraction of sub-scores backed by complete input data.
	Confidence float64  `json:"confidence"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Input groups the per-dimension attribute bags. The optional valuation
// result may inform the financial dimension; the reverse dependency never
// exists.
type Input struct {
	Statements  []models.PeriodFinancials `json:"financial_statements"`
	Strategic   *StrategicAttributes      `json:"strategic_attributes,omitempty"`
	Risk        *RiskFactors              `json:"risk_factors,omitempty"`
	Market      *MarketAttributes         `json:"market_attributes,omitempty"`
	Team        *TeamAttributes           `json:"team_attributes,omitempty"`
	Valuation   *valuation.Result         `json:"valuation,omitempty"`
	AskingPrice *float64                  `json:"asking_price,omitempty"`
}

// Engine scores deals under one policy. Stateless per call.
type Engine struct {
	cfg Config
}

// NewEngine validates the policy at construction so invariant breaks fail
// fast, not mid-scoring.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// ScoreDeal computes the five sub-scores, the renormalized overall score, the
// risk level and the recommendation. Per-dimension degradation is recovered
// locally; only a fully unscorable deal is an error.
func (e *Engine) ScoreDeal(in Input) (*DealScore, error) {
	score := &DealScore{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	score.Financial = e.financialScore(in, &score.Warnings)
	score.Strategic = e.strategicScore(in.Strategic, &score.Warnings)
	score.Risk = e.riskScore(in.Risk, &score.Warnings)
	score.Market = e.marketScore(in.Market, &score.Warnings)
	score.Team = e.teamScore(in.Team, &score.Warnings)

	subs := []SubScore{score.Financial, score.Strategic, score.Risk, score.Market, score.Team}
	weights := []float64{e.cfg.Weights.Financial, e.cfg.Weights.Strategic, e.cfg.Weights.Risk, e.cfg.Weights.Market, e.cfg.Weights.Team}

	// Overall = sum(weight_i * subscore_i) over available sub-scores, with
	// weights renormalized to sum to 1.0 over the available subset.
	var totalW, weighted float64
	var complete int
	for i, s := range subs {
		if s.Complete {
			complete++
		}
		if !s.Available {
			continue
		}
		totalW += weights[i]
		weighted += weights[i] * s.Value
	}
	if totalW == 0 {
		return nil, fmt.Errorf("no scorable inputs: every dimension is unavailable")
	}
	score.Overall = weighted / totalW
	score.Confidence = float64(complete) / float64(len(subs))

	score.RiskLevel = e.riskLevel(score.Risk, &score.Warnings)
	score.Recommendation = e.recommend(score.Overall, score.RiskLevel)

	return score, nil
}

// riskLevel maps the risk sub-score onto the discrete levels. An unavailable
// risk dimension is treated as medium, flagged, so the recommendation policy
// still has a defined input.
func (e *Engine) riskLevel(risk SubScore, warnings *[]string) RiskLevel {
	if !risk.Available {
		*warnings = append(*warnings, "degraded: risk factors missing, assuming medium risk level")
		return RiskMedium
	}
	switch {
	case risk.Value >= e.cfg.RiskLevelLow:
		return RiskLow
	case risk.Value >= e.cfg.RiskLevelMedium:
		return RiskMedium
	case risk.Value >= e.cfg.RiskLevelHigh:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// recommend is a pure function of (overall, risk level).
func (e *Engine) recommend(overall float64, rl RiskLevel) Recommendation {
	switch {
	case overall >= e.cfg.RecommendProceed && rl == RiskLow:
		return RecommendationProceed
	case overall >= e.cfg.RecommendCaution && rl != RiskCritical:
		return RecommendationCaution
	case overall >= e.cfg.RecommendInvestigate:
		return RecommendationInvestigate
	case overall >= e.cfg.RecommendNegotiate:
		return RecommendationNegotiate
	default:
		return RecommendationDecline
	}
}

// financialScore averages the defined ratio components, each mapped onto
// 0-100 via the configured breakpoints. An optional valuation-vs-asking-price
// spread joins as one more component when both inputs are present.
func (e *Engine) financialScore(in Input, warnings *[]string) SubScore {
	fs, err := models.NewFinancialStatement(in.Statements...)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("degraded: financial statements rejected: %v", err))
		return SubScore{}
	}
	rs, err := normalize.Compute(fs)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("degraded: financial dimension unavailable: %v", err))
		return SubScore{}
	}

	bp := e.cfg.Breakpoints
	var sum float64
	var n, defined int

	add := func(r normalize.Ratio, mapTo func(float64) float64) {
		n++
		if !r.Defined {
			return
		}
		defined++
		sum += mapTo(r.Value)
	}

	add(rs.EBITDAMargin, func(v float64) float64 { return saturate(v, 0, bp.EBITDAMarginFull) })
	add(rs.NetMargin, func(v float64) float64 { return saturate(v, 0, bp.NetMarginFull) })
	add(rs.RevenueGrowth, func(v float64) float64 { return saturate(v, bp.RevenueGrowthFloor, bp.RevenueGrowthFull) })
	add(rs.DebtToEquity, func(v float64) float64 {
		if v < 0 {
			return 0 // negative equity
		}
		return saturate(bp.DebtToEquityZero-v, 0, bp.DebtToEquityZero)
	})
	add(rs.CurrentRatio, func(v float64) float64 { return saturate(v, 0, bp.CurrentRatioFull) })

	if defined == 0 {
		*warnings = append(*warnings, "degraded: no financial ratio could be computed")
		return SubScore{}
	}

	score := sum / float64(defined)

	// Valuation upside: a blended estimate above the asking price improves
	// the financial picture, below it drags. 50 = priced at fair value.
	if in.Valuation != nil && in.AskingPrice != nil && *in.AskingPrice > 0 {
		upside := (in.Valuation.Point - *in.AskingPrice) / *in.AskingPrice
		score = (score*float64(defined) + saturate(upside, -0.5, 0.5)) / float64(defined+1)
	}

	return SubScore{Value: score, Available: true, Complete: defined == n}
}

func (e *Engine) strategicScore(a *StrategicAttributes, warnings *[]string) SubScore {
	if a == nil {
		*warnings = append(*warnings, "degraded: strategic attributes missing")
		return SubScore{}
	}
	var sum float64
	var present int
	total := 3
	for _, v := range []*float64{a.SynergyScore, a.MarketFit, a.ProductOverlap} {
		if v == nil {
			continue
		}
		present++
		sum += clampScore(*v)
	}
	if present == 0 {
		*warnings = append(*warnings, "degraded: strategic attributes empty")
		return SubScore{}
	}
	return SubScore{Value: sum / float64(present), Available: true, Complete: present == total}
}

// riskScore is inverse-scored: detected risk factors deduct fixed points
// from 100, floored at 0.
func (e *Engine) riskScore(r *RiskFactors, warnings *[]string) SubScore {
	if r == nil {
		return SubScore{}
	}
	d := e.cfg.Deductions
	score := 100.0
	present := 0
	total := 4

	if r.CustomerConcentration != nil {
		present++
		switch c := *r.CustomerConcentration; {
		case c > 0.50:
			score -= d.ConcentrationSevere
		case c > 0.30:
			score -= d.ConcentrationHigh
		case c > 0.15:
			score -= d.ConcentrationModerate
		}
	}
	if r.RegulatoryExposure != nil {
		present++
		if *r.RegulatoryExposure {
			score -= d.RegulatoryExposure
		}
	}
	if r.LitigationPending != nil {
		present++
		if *r.LitigationPending {
			score -= d.LitigationPending
		}
	}
	if r.KeyPersonDependency != nil {
		present++
		if *r.KeyPersonDependency {
			score -= d.KeyPersonDependency
		}
	}

	if present == 0 {
		return SubScore{}
	}
	if present < total {
		*warnings = append(*warnings, "degraded: partial risk factor coverage")
	}
	if score < 0 {
		score = 0
	}
	return SubScore{Value: score, Available: true, Complete: present == total}
}

func (e *Engine) marketScore(m *MarketAttributes, warnings *[]string) SubScore {
	if m == nil {
		*warnings = append(*warnings, "degraded: market attributes missing")
		return SubScore{}
	}
	bp := e.cfg.Breakpoints
	var sum float64
	var present int
	total := 3

	if m.MarketSizeUSD != nil {
		present++
		sum += saturate(*m.MarketSizeUSD, 0, bp.MarketSizeFull)
	}
	if m.MarketGrowthRate != nil {
		present++
		sum += saturate(*m.MarketGrowthRate, 0, bp.MarketGrowthFull)
	}
	if m.CompetitiveIntensity != nil {
		present++
		sum += 100 - clampScore(*m.CompetitiveIntensity)
	}

	if present == 0 {
		*warnings = append(*warnings, "degraded: market attributes empty")
		return SubScore{}
	}
	return SubScore{Value: sum / float64(present), Available: true, Complete: present == total}
}

func (e *Engine) teamScore(tm *TeamAttributes, warnings *[]string) SubScore {
	if tm == nil {
		*warnings = append(*warnings, "degraded: team attributes missing")
		return SubScore{}
	}
	bp := e.cfg.Breakpoints
	var sum float64
	var present int
	total := 3

	if tm.AvgTenureYears != nil {
		present++
		sum += saturate(*tm.AvgTenureYears, 0, bp.TeamTenureFull)
	}
	if tm.PriorExits != nil {
		present++
		sum += saturate(float64(*tm.PriorExits), 0, float64(bp.ExitsForFull))
	}
	if tm.ManagementDepth != nil {
		present++
		sum += clampScore(*tm.ManagementDepth)
	}

	if present == 0 {
		*warnings = append(*warnings, "degraded: team attributes empty")
		return SubScore{}
	}
	return SubScore{Value: sum / float64(present), Available: true, Complete: present == total}
}

// saturate maps v linearly from [floor, full] onto [0, 100].
func saturate(v, floor, full float64) float64 {
	if full == floor {
		return 0
	}
	score := (v - floor) / (full - floor) * 100
	return clampScore(score)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
