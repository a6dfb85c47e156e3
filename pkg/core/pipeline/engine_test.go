package pipeline

import (
	"fmt"
	"math"
	"testing"
	"time"

	"dealintel/pkg/core/scoring"
	"dealintel/pkg/models"
)

var analysisClock = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return analysisClock.Add(-time.Duration(d * 24 * float64(time.Hour)))
}

func testEngine() *Engine {
	e := NewEngine(DefaultConfig())
	e.SetClock(func() time.Time { return analysisClock })
	return e
}

func activeDeal(id string, value float64, stage models.DealStage, history ...models.StageEvent) DealRecord {
	return DealRecord{Deal: models.Deal{
		ID:           id,
		Name:         id,
		Value:        value,
		Stage:        stage,
		StageHistory: history,
		CreatedAt:    history[0].EnteredAt,
	}}
}

func ev(stage models.DealStage, enteredDaysAgo float64) models.StageEvent {
	return models.StageEvent{Stage: stage, EnteredAt: daysAgo(enteredDaysAgo)}
}

func TestBottleneckDetectionFlagsSlowStage(t *testing.T) {
	e := testEngine()

	// Half the book has sat in due diligence for 60 days; the rest moves
	// briskly through earlier stages.
	var deals []DealRecord
	for i := 0; i < 4; i++ {
		deals = append(deals, activeDeal(
			fmt.Sprintf("slow-%d", i), 1_000_000, models.StageDueDiligence,
			ev(models.StageSourcing, 70), ev(models.StageDueDiligence, 60)))
	}
	for i := 0; i < 4; i++ {
		deals = append(deals, activeDeal(
			fmt.Sprintf("fast-%d", i), 1_000_000, models.StageScreening,
			ev(models.StageSourcing, 10), ev(models.StageScreening, 5)))
	}

	an, err := e.Analyze(deals, 90)
	if err != nil {
		t.Fatal(err)
	}

	if len(an.Bottlenecks) != 1 {
		t.Fatalf("expected exactly one bottleneck, got %d: %+v", len(an.Bottlenecks), an.Bottlenecks)
	}
	b := an.Bottlenecks[0]
	if b.Stage != models.StageDueDiligence {
		t.Errorf("expected due_diligence flagged, got %s", b.Stage)
	}
	if b.StalledDeals != 4 {
		t.Errorf("expected 4 stalled deals, got %d", b.StalledDeals)
	}
	if b.RevenueAtRisk != 4_000_000 {
		t.Errorf("expected 4M revenue at risk, got %f", b.RevenueAtRisk)
	}
	// 4M of an 8M pipeline is high severity under the default tiers.
	if b.Severity != SeverityHigh {
		t.Errorf("expected high severity, got %s", b.Severity)
	}
}

func TestEvenPipelineHasNoBottlenecks(t *testing.T) {
	e := testEngine()

	var deals []DealRecord
	stages := []models.DealStage{models.StageScreening, models.StageDueDiligence, models.StageNegotiation}
	for i, stage := range stages {
		deals = append(deals, activeDeal(
			fmt.Sprintf("even-%d", i), 500_000, stage,
			ev(models.StageSourcing, 20), ev(stage, 10)))
	}

	an, err := e.Analyze(deals, 90)
	if err != nil {
		t.Fatal(err)
	}
	if len(an.Bottlenecks) != 0 {
		t.Errorf("evenly distributed pipeline must yield zero bottlenecks, got %+v", an.Bottlenecks)
	}
}

func TestConversionRatesFromHistory(t *testing.T) {
	e := testEngine()

	completed := func(id string) DealRecord {
		return activeDeal(id, 1_000_000, models.StageCompleted,
			ev(models.StageSourcing, 200), ev(models.StageScreening, 180),
			ev(models.StageDueDiligence, 150), ev(models.StageNegotiation, 120),
			ev(models.StageClosing, 100), ev(models.StageCompleted, 90))
	}
	abandoned := activeDeal("dead-1", 1_000_000, models.StageAbandoned,
		ev(models.StageSourcing, 200), ev(models.StageScreening, 170),
		ev(models.StageAbandoned, 140))
	open := activeDeal("open-1", 2_000_000, models.StageClosing,
		ev(models.StageSourcing, 40), ev(models.StageClosing, 8))

	an, err := e.Analyze([]DealRecord{completed("won-1"), completed("won-2"), abandoned, open}, 90)
	if err != nil {
		t.Fatal(err)
	}

	// 2 of 3 terminal deals passed screening and completed.
	if got := an.Conversion[models.StageScreening]; math.Abs(got-2.0/3.0) > 0.0001 {
		t.Errorf("screening conversion: expected 2/3, got %f", got)
	}
	// All terminal deals that reached closing completed.
	if got := an.Conversion[models.StageClosing]; got != 1.0 {
		t.Errorf("closing conversion: expected 1.0, got %f", got)
	}
}

func TestForecastScoreMultiplier(t *testing.T) {
	e := testEngine()

	completedHistory := []models.StageEvent{
		ev(models.StageSourcing, 200), ev(models.StageScreening, 180),
		ev(models.StageDueDiligence, 150), ev(models.StageNegotiation, 120),
		ev(models.StageClosing, 100), ev(models.StageCompleted, 90),
	}
	won := DealRecord{Deal: models.Deal{
		ID: "won-1", Value: 1_000_000, Stage: models.StageCompleted,
		StageHistory: completedHistory, CreatedAt: daysAgo(200),
	}}
	lost := activeDeal("lost-1", 1_000_000, models.StageAbandoned,
		ev(models.StageClosing, 60), ev(models.StageAbandoned, 40))

	open := activeDeal("open-1", 2_000_000, models.StageClosing,
		ev(models.StageSourcing, 30), ev(models.StageClosing, 5))
	open.Score = &scoring.DealScore{Overall: 80}

	an, err := e.Analyze([]DealRecord{won, lost, open}, 365)
	if err != nil {
		t.Fatal(err)
	}

	if len(an.Forecast.Deals) != 1 {
		t.Fatalf("expected one forecast deal, got %d", len(an.Forecast.Deals))
	}
	df := an.Forecast.Deals[0]

	// Base closing conversion = 1/2; multiplier = 0.5 + 80/100 = 1.3.
	want := 0.5 * 1.3
	if math.Abs(df.Probability-want) > 0.0001 {
		t.Errorf("expected probability %f, got %f", want, df.Probability)
	}
	if math.Abs(an.Forecast.ExpectedRevenue-want*2_000_000) > 1 {
		t.Errorf("expected revenue %f, got %f", want*2_000_000, an.Forecast.ExpectedRevenue)
	}
}

func TestScoreMultiplierBounds(t *testing.T) {
	if m := scoreMultiplier(DealRecord{Score: &scoring.DealScore{Overall: 0}}); m != 0.5 {
		t.Errorf("score 0 should floor the multiplier at 0.5, got %f", m)
	}
	if m := scoreMultiplier(DealRecord{Score: &scoring.DealScore{Overall: 100}}); m != 1.5 {
		t.Errorf("score 100 should cap the multiplier at 1.5, got %f", m)
	}
	if m := scoreMultiplier(DealRecord{}); m != 1.0 {
		t.Errorf("unscored deals stay neutral, got %f", m)
	}
}

func TestForecastWithoutHistoryWarns(t *testing.T) {
	e := testEngine()
	open := activeDeal("open-1", 2_000_000, models.StageClosing,
		ev(models.StageSourcing, 30), ev(models.StageClosing, 5))

	an, err := e.Analyze([]DealRecord{open}, 90)
	if err != nil {
		t.Fatal(err)
	}
	if an.Forecast.ExpectedRevenue != 0 || len(an.Forecast.Deals) != 0 {
		t.Error("no completed history must mean no fabricated forecast")
	}
	if len(an.Warnings) == 0 {
		t.Error("missing history must be flagged as a warning")
	}
}

func TestAnalyzeRequiresDeals(t *testing.T) {
	if _, err := testEngine().Analyze(nil, 90); err == nil {
		t.Error("expected an error for an empty deal collection")
	}
}
