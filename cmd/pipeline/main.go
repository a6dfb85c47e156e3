package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"dealintel/pkg/core/narrative"
	"dealintel/pkg/core/pipeline"
	"dealintel/pkg/core/store"

	"github.com/joho/godotenv"
)

// Batch pipeline review: loads the deal book from Postgres, runs the
// bottleneck and forecast analysis, and prints a report to stdout.
func main() {
	horizon := flag.Int("horizon", 90, "forecast horizon in days")
	annotate := flag.Bool("annotate", false, "append an LLM-written advisory note")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Println("[PIPELINE] No .env file, assuming environment variables are set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.InitDB(ctx); err != nil {
		fmt.Printf("[FATAL] Database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	deals, err := store.NewDealRepo().LoadDealBook(ctx)
	if err != nil {
		fmt.Printf("[FATAL] Loading deal book: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[PIPELINE] Loaded %d deals\n", len(deals))

	engine := pipeline.NewEngine(pipeline.Config{})
	analysis, err := engine.Analyze(deals, *horizon)
	if err != nil {
		fmt.Printf("[FATAL] Analysis: %v\n", err)
		os.Exit(1)
	}

	printReport(analysis)

	if err := store.NewHistoryRepo().SaveAnalysis(ctx, analysis); err != nil {
		fmt.Printf("[WARNING] Analysis not persisted: %v\n", err)
	} else {
		fmt.Println("[PIPELINE] Analysis snapshot persisted")
	}

	if *annotate {
		annotator := narrative.NewAnnotator(&narrative.GeminiProvider{}, narrative.DefaultTimeout)
		if ann, ok := annotator.Annotate(ctx, "pipeline review", analysis); ok {
			fmt.Println("\n=== Advisory Note ===")
			fmt.Println(ann.Summary)
			for _, c := range ann.Considerations {
				fmt.Printf("  - %s\n", c)
			}
		}
	}
}

func printReport(a *pipeline.Analysis) {
	fmt.Printf("\n=== Pipeline Review (%s) ===\n", a.GeneratedAt.Format("2006-01-02"))
	fmt.Printf("Active deals: %d  Total value: %.0f\n", a.ActiveDeals, a.TotalPipelineValue)

	fmt.Println("\nStages:")
	for _, s := range a.Stages {
		fmt.Printf("  %-16s active=%d median_dwell=%.1fd stalled=%d\n",
			s.Stage, s.ActiveDeals, s.MedianDays, s.StalledDeals)
	}

	if len(a.Bottlenecks) == 0 {
		fmt.Println("\nNo bottlenecks detected.")
	} else {
		fmt.Println("\nBottlenecks:")
		for _, b := range a.Bottlenecks {
			fmt.Printf("  %-16s severity=%s revenue_at_risk=%.0f (%s)\n",
				b.Stage, b.Severity, b.RevenueAtRisk, b.Reason)
		}
	}

	fmt.Println("\nConversion rates:")
	for stage, rate := range a.Conversion {
		fmt.Printf("  %-16s %.0f%%\n", stage, rate*100)
	}

	fmt.Printf("\nForecast (%dd): %.1f expected closings, expected revenue %.0f\n",
		a.Forecast.HorizonDays, a.Forecast.ExpectedClosings, a.Forecast.ExpectedRevenue)

	for _, w := range a.Warnings {
		fmt.Printf("[WARNING] %s\n", w)
	}
}
