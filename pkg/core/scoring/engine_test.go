package scoring

import (
	"math"
	"testing"
	"time"

	"dealintel/pkg/core/valuation"
	"dealintel/pkg/models"
)

func fp(v float64) *float64 { return &v }
func bp(v bool) *bool       { return &v }
func ip(v int) *int         { return &v }

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func strongFinancials() []models.PeriodFinancials {
	mk := func(year int, revenue, ebitda, ni float64) models.PeriodFinancials {
		return models.PeriodFinancials{
			Period:             "FY" + time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006"),
			EndDate:            time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
			Revenue:            revenue,
			COGS:               -revenue * 0.4,
			OperatingExpenses:  -revenue * 0.3,
			EBITDA:             ebitda,
			NetIncome:          ni,
			TotalAssets:        revenue * 2,
			TotalLiabilities:   revenue * 0.5,
			CurrentAssets:      revenue * 0.6,
			CurrentLiabilities: revenue * 0.3,
			CashFromOperations: ebitda * 0.8,
			CapEx:              -revenue * 0.03,
		}
	}
	return []models.PeriodFinancials{
		mk(2022, 8_000_000, 2_400_000, 1_300_000),
		mk(2023, 11_000_000, 3_300_000, 1_800_000),
	}
}

func TestNewEngineRejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Financial = 0.5 // sum now 1.2
	if _, err := NewEngine(cfg); err == nil {
		t.Error("weights not summing to 1.0 must be rejected at construction")
	}
}

func TestRecommendationBoundaries(t *testing.T) {
	e := mustEngine(t)
	cases := []struct {
		overall float64
		risk    RiskLevel
		want    Recommendation
	}{
		{80, RiskLow, RecommendationProceed},
		{79.9, RiskLow, RecommendationCaution},
		{80, RiskMedium, RecommendationCaution},
		{65, RiskHigh, RecommendationCaution},
		{64.9, RiskMedium, RecommendationInvestigate},
		{90, RiskCritical, RecommendationInvestigate},
		{50, RiskCritical, RecommendationInvestigate},
		{49.9, RiskLow, RecommendationNegotiate},
		{35, RiskCritical, RecommendationNegotiate},
		{34.9, RiskLow, RecommendationDecline},
	}
	for _, tc := range cases {
		got := e.recommend(tc.overall, tc.risk)
		if got != tc.want {
			t.Errorf("recommend(%.1f, %s): expected %s, got %s", tc.overall, tc.risk, tc.want, got)
		}
	}
}

func TestRiskLevelThresholds(t *testing.T) {
	e := mustEngine(t)
	cases := []struct {
		score float64
		want  RiskLevel
	}{
		{100, RiskLow},
		{75, RiskLow},
		{74.9, RiskMedium},
		{50, RiskMedium},
		{49.9, RiskHigh},
		{25, RiskHigh},
		{24.9, RiskCritical},
		{0, RiskCritical},
	}
	for _, tc := range cases {
		var w []string
		got := e.riskLevel(SubScore{Value: tc.score, Available: true}, &w)
		if got != tc.want {
			t.Errorf("riskLevel(%.1f): expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestScoreDealFullInputs(t *testing.T) {
	e := mustEngine(t)
	in := Input{
		Statements: strongFinancials(),
		Strategic:  &StrategicAttributes{SynergyScore: fp(85), MarketFit: fp(90), ProductOverlap: fp(75)},
		Risk: &RiskFactors{
			CustomerConcentration: fp(0.10),
			RegulatoryExposure:    bp(false),
			LitigationPending:     bp(false),
			KeyPersonDependency:   bp(false),
		},
		Market: &MarketAttributes{MarketSizeUSD: fp(2e9), MarketGrowthRate: fp(0.25), CompetitiveIntensity: fp(30)},
		Team:   &TeamAttributes{AvgTenureYears: fp(10), PriorExits: ip(2), ManagementDepth: fp(80)},
	}

	score, err := e.ScoreDeal(in)
	if err != nil {
		t.Fatal(err)
	}

	if score.Overall < 0 || score.Overall > 100 {
		t.Errorf("overall out of range: %f", score.Overall)
	}
	// No deductions -> risk sub-score 100 -> low risk.
	if score.Risk.Value != 100 || score.RiskLevel != RiskLow {
		t.Errorf("expected clean risk profile, got %f / %s", score.Risk.Value, score.RiskLevel)
	}
	// Every dimension complete -> confidence 1.0.
	if score.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %f (warnings: %v)", score.Confidence, score.Warnings)
	}
	if score.ID == "" || score.CreatedAt.IsZero() {
		t.Error("score must carry an id and timestamp for trend history")
	}
}

func TestScoreDealWeightRenormalization(t *testing.T) {
	e := mustEngine(t)

	// Only strategic and team available: weights 0.25 and 0.10 renormalize
	// to 5/7 and 2/7. Overall = (0.25*80 + 0.10*60) / 0.35.
	in := Input{
		Strategic: &StrategicAttributes{SynergyScore: fp(80), MarketFit: fp(80), ProductOverlap: fp(80)},
		Team:      &TeamAttributes{ManagementDepth: fp(60), AvgTenureYears: nil, PriorExits: nil},
	}

	score, err := e.ScoreDeal(in)
	if err != nil {
		t.Fatal(err)
	}
	want := (0.25*80 + 0.10*60) / 0.35
	if math.Abs(score.Overall-want) > 0.0001 {
		t.Errorf("renormalized overall: expected %f, got %f", want, score.Overall)
	}
	// Missing optional data reduces confidence, never zeroes the deal.
	// Complete groups: strategic only -> 1/5.
	if math.Abs(score.Confidence-0.2) > 0.0001 {
		t.Errorf("expected confidence 0.2, got %f", score.Confidence)
	}
	if len(score.Warnings) == 0 {
		t.Error("degraded dimensions must be flagged in warnings")
	}
}

func TestRiskDeductions(t *testing.T) {
	e := mustEngine(t)
	var w []string
	s := e.riskScore(&RiskFactors{
		CustomerConcentration: fp(0.60), // severe -30
		RegulatoryExposure:    bp(true), // -20
		LitigationPending:     bp(true), // -25
		KeyPersonDependency:   bp(true), // -15
	}, &w)

	// 100 - 30 - 20 - 25 - 15 = 10 -> critical territory
	if s.Value != 10 {
		t.Errorf("expected risk sub-score 10, got %f", s.Value)
	}
	if !s.Complete {
		t.Error("all four factors supplied, sub-score should be complete")
	}
}

func TestRiskScoreFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deductions.ConcentrationSevere = 60
	cfg.Deductions.LitigationPending = 60
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatal(err)
	}
	var w []string
	s := e.riskScore(&RiskFactors{
		CustomerConcentration: fp(0.9),
		LitigationPending:     bp(true),
	}, &w)
	if s.Value != 0 {
		t.Errorf("risk sub-score must floor at 0, got %f", s.Value)
	}
}

func TestScoreDealNoInputs(t *testing.T) {
	e := mustEngine(t)
	if _, err := e.ScoreDeal(Input{}); err == nil {
		t.Error("a fully unscorable deal must be an error, not a fabricated score")
	}
}

func TestValuationUpsideInformsFinancialScore(t *testing.T) {
	e := mustEngine(t)
	base := Input{Statements: strongFinancials()}

	withoutVal, err := e.ScoreDeal(base)
	if err != nil {
		t.Fatal(err)
	}

	underpriced := base
	underpriced.AskingPrice = fp(10_000_000)
	underpriced.Valuation = &valuation.Result{Point: 18_000_000}

	withVal, err := e.ScoreDeal(underpriced)
	if err != nil {
		t.Fatal(err)
	}
	if withVal.Financial.Value <= withoutVal.Financial.Value {
		t.Errorf("a valuation well above asking should lift the financial sub-score: %f vs %f",
			withVal.Financial.Value, withoutVal.Financial.Value)
	}
}
