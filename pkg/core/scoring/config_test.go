package scoring

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigHJSON(t *testing.T) {
	// Scenario files are HJSON so analysts can annotate them.
	src := `{
  # conservative scenario: risk weighted up, team down
  weights: {
    financial: 0.30
    strategic: 0.20
    risk: 0.30
    market: 0.15
    team: 0.05
  }
  breakpoints: {
    ebitda_margin_full: 0.25
    net_margin_full: 0.15
    revenue_growth_full: 0.30
    revenue_growth_floor: -0.25
    debt_to_equity_zero: 3.0
    current_ratio_full: 2.0
    market_size_full: 1e9
    market_growth_full: 0.20
    team_tenure_full: 8
    exits_for_full: 4
  }
  deductions: {
    concentration_moderate: 10
    concentration_high: 20
    concentration_severe: 30
    regulatory_exposure: 20
    litigation_pending: 25
    key_person_dependency: 15
  }
  risk_level_low: 75
  risk_level_medium: 50
  risk_level_high: 25
  recommend_proceed: 80
  recommend_caution: 65
  recommend_investigate: 50
  recommend_negotiate: 35
}`
	path := filepath.Join(t.TempDir(), "scenario.hjson")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Weights.Risk != 0.30 || cfg.Weights.Team != 0.05 {
		t.Errorf("scenario weights not applied: %+v", cfg.Weights)
	}
	if _, err := NewEngine(cfg); err != nil {
		t.Errorf("loaded scenario should construct an engine: %v", err)
	}
}

func TestLoadConfigRejectsBrokenWeights(t *testing.T) {
	src := `{
  weights: { financial: 0.9, strategic: 0.25, risk: 0.20, market: 0.15, team: 0.10 }
  risk_level_low: 75
  risk_level_medium: 50
  risk_level_high: 25
  recommend_proceed: 80
  recommend_caution: 65
  recommend_investigate: 50
  recommend_negotiate: 35
}`
	path := filepath.Join(t.TempDir(), "broken.hjson")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("weights summing to 1.6 must be rejected")
	}
}
