package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	corescore "dealintel/pkg/core/scoring"
	"dealintel/pkg/core/store"
)

var engine *corescore.Engine
var history *store.HistoryRepo

// InitHandler wires the scoring engine. The history repo may be nil when no
// database is configured; scores are then returned but not persisted.
func InitHandler(eng *corescore.Engine, hist *store.HistoryRepo) {
	engine = eng
	history = hist
}

type ScoreRequest struct {
	DealID string          `json:"deal_id"`
	Input  corescore.Input `json:"input"`
}

type ScoreResponse struct {
	Score   *corescore.DealScore  `json:"score"`
	History []corescore.DealScore `json:"history,omitempty"`
}

func HandleScoreDeal(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fmt.Printf("[SCORING] Request: deal=%s\n", req.DealID)

	score, err := engine.ScoreDeal(req.Input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	fmt.Printf("[SCORING] deal=%s overall=%.1f risk=%s rec=%s conf=%.2f\n",
		req.DealID, score.Overall, score.RiskLevel, score.Recommendation, score.Confidence)

	resp := ScoreResponse{Score: score}
	if history != nil && req.DealID != "" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := history.SaveScore(ctx, req.DealID, score); err != nil {
			fmt.Printf("[SCORING] History save failed: %v\n", err)
		} else if prior, err := history.ScoreHistory(ctx, req.DealID); err == nil {
			resp.History = prior
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
