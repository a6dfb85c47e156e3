package pipeline

import (
	"encoding/json"
	"fmt"
	"net/http"

	"dealintel/pkg/core/narrative"
	corepipe "dealintel/pkg/core/pipeline"
	"dealintel/pkg/core/utils"
)

var engine *corepipe.Engine
var annotator *narrative.Annotator

func InitHandler(eng *corepipe.Engine, ann *narrative.Annotator) {
	engine = eng
	annotator = ann
}

type AnalyzeRequest struct {
	Deals       []corepipe.DealRecord `json:"deals"`
	HorizonDays int                   `json:"horizon_days"`
}

type AnalyzeResponse struct {
	Analysis   *corepipe.Analysis    `json:"analysis"`
	Annotation *narrative.Annotation `json:"annotation,omitempty"`
	// SummaryHTML is the annotation summary rendered for dashboards.
	SummaryHTML string `json:"summary_html,omitempty"`
}

func HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.HorizonDays <= 0 {
		req.HorizonDays = 90
	}
	fmt.Printf("[PIPELINE] Request: %d deals, horizon=%dd\n", len(req.Deals), req.HorizonDays)

	analysis, err := engine.Analyze(req.Deals, req.HorizonDays)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	fmt.Printf("[PIPELINE] %d active, %d bottlenecks, expected revenue %.0f\n",
		analysis.ActiveDeals, len(analysis.Bottlenecks), analysis.Forecast.ExpectedRevenue)

	resp := AnalyzeResponse{Analysis: analysis}
	if annotator != nil {
		if ann, ok := annotator.Annotate(r.Context(), "pipeline review", analysis); ok {
			resp.Annotation = ann
			resp.SummaryHTML = utils.RenderMarkdown(ann.Summary)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
