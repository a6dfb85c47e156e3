package store

import (
	"context"
	"encoding/json"
	"fmt"

	"dealintel/pkg/core/pipeline"
	"dealintel/pkg/core/scoring"
	"dealintel/pkg/models"
)

// DealRepo reads the deal book. The engines never write deals.
type DealRepo struct{}

func NewDealRepo() *DealRepo {
	return &DealRepo{}
}

// Schema assumption (managed by the surrounding platform's migrations):
//
//	CREATE TABLE deals (
//	  id TEXT PRIMARY KEY,
//	  name TEXT NOT NULL,
//	  sector TEXT,
//	  value DOUBLE PRECISION NOT NULL,
//	  stage TEXT NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE deal_stage_events (
//	  deal_id TEXT REFERENCES deals(id),
//	  stage TEXT NOT NULL,
//	  entered_at TIMESTAMPTZ NOT NULL
//	);

// LoadDealBook returns every deal with its stage history and latest score,
// ready for pipeline analysis.
func (r *DealRepo) LoadDealBook(ctx context.Context) ([]pipeline.DealRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := pool.Query(ctx, `
		SELECT id, name, COALESCE(sector, ''), value, stage, created_at
		FROM deals
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	byID := map[string]*pipeline.DealRecord{}
	var order []string
	for rows.Next() {
		var d models.Deal
		if err := rows.Scan(&d.ID, &d.Name, &d.Sector, &d.Value, &d.Stage, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		byID[d.ID] = &pipeline.DealRecord{Deal: d}
		order = append(order, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachStageHistory(ctx, byID); err != nil {
		return nil, err
	}
	if err := r.attachLatestScores(ctx, byID); err != nil {
		return nil, err
	}

	out := make([]pipeline.DealRecord, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

func (r *DealRepo) attachStageHistory(ctx context.Context, byID map[string]*pipeline.DealRecord) error {
	rows, err := GetPool().Query(ctx, `
		SELECT deal_id, stage, entered_at
		FROM deal_stage_events
		ORDER BY entered_at`)
	if err != nil {
		return fmt.Errorf("query stage events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dealID string
		var ev models.StageEvent
		if err := rows.Scan(&dealID, &ev.Stage, &ev.EnteredAt); err != nil {
			return fmt.Errorf("scan stage event: %w", err)
		}
		if rec, ok := byID[dealID]; ok {
			rec.Deal.StageHistory = append(rec.Deal.StageHistory, ev)
		}
	}
	return rows.Err()
}

func (r *DealRepo) attachLatestScores(ctx context.Context, byID map[string]*pipeline.DealRecord) error {
	rows, err := GetPool().Query(ctx, `
		SELECT DISTINCT ON (deal_id) deal_id, score_json
		FROM deal_scores
		ORDER BY deal_id, created_at DESC`)
	if err != nil {
		return fmt.Errorf("query latest scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dealID string
		var raw []byte
		if err := rows.Scan(&dealID, &raw); err != nil {
			return fmt.Errorf("scan score: %w", err)
		}
		rec, ok := byID[dealID]
		if !ok {
			continue
		}
		var score scoring.DealScore
		if err := json.Unmarshal(raw, &score); err != nil {
			return fmt.Errorf("decode score for deal %s: %w", dealID, err)
		}
		rec.Score = &score
	}
	return rows.Err()
}
