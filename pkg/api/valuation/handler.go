package valuation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"dealintel/pkg/core/ingest"
	"dealintel/pkg/core/narrative"
	"dealintel/pkg/core/store"
	coreval "dealintel/pkg/core/valuation"
	"dealintel/pkg/models"
)

var engine *coreval.Engine
var annotator *narrative.Annotator
var history *store.HistoryRepo

// InitHandler wires the valuation engine, an optional narrative annotator and
// an optional result-history repo. Pass nil to disable either extra.
func InitHandler(eng *coreval.Engine, ann *narrative.Annotator, hist *store.HistoryRepo) {
	engine = eng
	annotator = ann
	history = hist
}

type ValuationRequest struct {
	// DealID keys the result in the valuation history. Optional; anonymous
	// requests are valued but not retained.
	DealID      string                     `json:"deal_id,omitempty"`
	DealName    string                     `json:"deal_name"`
	Periods     []models.PeriodFinancials  `json:"periods"`
	Peers       []coreval.PeerMultiple     `json:"peers,omitempty"`
	Precedents  []coreval.PeerMultiple     `json:"precedents,omitempty"`
	Assumptions *coreval.DCFAssumptions    `json:"assumptions,omitempty"`
	MonteCarlo  *coreval.MonteCarloConfig  `json:"monte_carlo,omitempty"`
	// CompSheetHTML is an optional pasted HTML comp table. Parsed peers are
	// appended to the Peers list.
	CompSheetHTML string `json:"comp_sheet_html,omitempty"`
	// IncludeSensitivity adds a growth x discount DCF matrix to the response.
	IncludeSensitivity bool `json:"include_sensitivity,omitempty"`
}

type ValuationResponse struct {
	Result     *coreval.Result       `json:"result"`
	Annotation *narrative.Annotation `json:"annotation,omitempty"`
	// Sensitivity is a DCF matrix over growth (rows) x discount (columns)
	// offsets of +/- 2% around the request's base rates.
	Sensitivity [][]float64 `json:"sensitivity,omitempty"`
}

func HandleValuate(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req ValuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fmt.Printf("[VALUATION] Request: %s (%d periods, %d peers, %d precedents)\n",
		req.DealName, len(req.Periods), len(req.Peers), len(req.Precedents))

	peers := req.Peers
	if req.CompSheetHTML != "" {
		parsed, err := ingest.ParseMultiplesHTML(req.CompSheetHTML)
		if err != nil {
			http.Error(w, fmt.Sprintf("comp sheet: %v", err), http.StatusBadRequest)
			return
		}
		fmt.Printf("[VALUATION] Parsed %d peers from comp sheet\n", len(parsed))
		peers = append(peers, parsed...)
	}

	input := coreval.Input{
		Statements: req.Periods,
		Peers:      peers,
		Precedents: req.Precedents,
		DCF:        req.Assumptions,
		MonteCarlo: req.MonteCarlo,
	}

	result, err := engine.Valuate(r.Context(), input)
	if err != nil {
		var invalid *coreval.InvalidAssumptionError
		if errors.As(err, &invalid) {
			http.Error(w, invalid.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	fmt.Printf("[VALUATION] %s: point=%.0f conf=%.2f methods=%d\n",
		req.DealName, result.Point, result.Confidence, len(result.Methods))

	if history != nil && req.DealID != "" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		if err := history.SaveValuation(ctx, req.DealID, result); err != nil {
			fmt.Printf("[VALUATION] History save failed: %v\n", err)
		}
		cancel()
	}

	resp := ValuationResponse{Result: result}
	if req.IncludeSensitivity && len(req.Periods) > 0 {
		latest := req.Periods[len(req.Periods)-1]
		if fcf := latest.FreeCashFlow(); fcf > 0 {
			growth := 0.05
			discount := coreval.DefaultDiscountRate
			horizon := coreval.DefaultHorizon
			if req.Assumptions != nil {
				if req.Assumptions.GrowthRate != nil {
					growth = *req.Assumptions.GrowthRate
				}
				if req.Assumptions.DiscountRate != nil {
					discount = *req.Assumptions.DiscountRate
				}
				if req.Assumptions.Horizon > 0 {
					horizon = req.Assumptions.Horizon
				}
			}
			resp.Sensitivity = coreval.SensitivityGrid(fcf, growth, discount, horizon, 2, 0.01)
		}
	}
	if annotator != nil {
		if ann, ok := annotator.Annotate(r.Context(), "valuation", result); ok {
			resp.Annotation = ann
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
