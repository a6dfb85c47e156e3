package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	apiPipeline "dealintel/pkg/api/pipeline"
	apiScoring "dealintel/pkg/api/scoring"
	apiValuation "dealintel/pkg/api/valuation"
	"dealintel/pkg/core/narrative"
	corePipeline "dealintel/pkg/core/pipeline"
	coreScoring "dealintel/pkg/core/scoring"
	coreValuation "dealintel/pkg/core/valuation"
	"dealintel/pkg/core/store"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// ServiceConfig is read from config/service.yaml. All fields are optional.
type ServiceConfig struct {
	Port            int    `yaml:"port"`
	ScoringScenario string `yaml:"scoring_scenario"` // HJSON policy file, empty = defaults
	Narrative       struct {
		Enabled bool   `yaml:"enabled"`
		Model   string `yaml:"model"`
	} `yaml:"narrative"`
}

func loadServiceConfig() ServiceConfig {
	var cfg ServiceConfig
	data, err := os.ReadFile("config/service.yaml")
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fmt.Printf("[WARNING] Bad service config, using defaults: %v\n", err)
		}
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	return cfg
}

func main() {
	// Load environment variables
	godotenv.Load()

	cfg := loadServiceConfig()

	// Scoring policy: scenario file overrides the built-in defaults
	scoringCfg := coreScoring.DefaultConfig()
	if cfg.ScoringScenario != "" {
		loaded, err := coreScoring.LoadConfig(cfg.ScoringScenario)
		if err != nil {
			fmt.Printf("[FATAL] Scoring scenario %s: %v\n", cfg.ScoringScenario, err)
			os.Exit(1)
		}
		scoringCfg = loaded
		fmt.Printf("[CONFIG] Loaded scoring scenario from %s\n", cfg.ScoringScenario)
	}
	scoringEngine, err := coreScoring.NewEngine(scoringCfg)
	if err != nil {
		fmt.Printf("[FATAL] Scoring config invalid: %v\n", err)
		os.Exit(1)
	}

	// Narrative annotation is optional and requires GEMINI_API_KEY
	var annotator *narrative.Annotator
	if cfg.Narrative.Enabled && os.Getenv("GEMINI_API_KEY") != "" {
		provider := &narrative.GeminiProvider{Model: cfg.Narrative.Model}
		annotator = narrative.NewAnnotator(provider, narrative.DefaultTimeout)
		fmt.Println("[NARRATIVE] Annotations enabled")
	} else {
		fmt.Println("[NARRATIVE] Annotations disabled")
	}

	// Database is optional; without it, score history is skipped
	var historyRepo *store.HistoryRepo
	if os.Getenv("DATABASE_URL") != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("[WARNING] Database unavailable, score history disabled: %v\n", err)
		} else {
			historyRepo = store.NewHistoryRepo()
			defer store.Close()
		}
		cancel()
	}

	// Valuation endpoints
	apiValuation.InitHandler(coreValuation.NewEngine(), annotator, historyRepo)
	http.HandleFunc("/api/valuation/run", apiValuation.HandleValuate)

	// Scoring endpoints
	apiScoring.InitHandler(scoringEngine, historyRepo)
	http.HandleFunc("/api/scoring/run", apiScoring.HandleScoreDeal)

	// Pipeline endpoints
	apiPipeline.InitHandler(corePipeline.NewEngine(corePipeline.Config{}), annotator)
	http.HandleFunc("/api/pipeline/analyze", apiPipeline.HandleAnalyze)

	fmt.Printf("API server starting on :%d...\n", cfg.Port)
	fmt.Println("  - POST /api/valuation/run")
	fmt.Println("  - POST /api/scoring/run")
	fmt.Println("  - POST /api/pipeline/analyze")

	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
