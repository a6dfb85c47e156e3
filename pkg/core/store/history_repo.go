package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dealintel/pkg/core/pipeline"
	"dealintel/pkg/core/scoring"
	"dealintel/pkg/core/valuation"
)

// HistoryRepo appends valuation results and deal scores. Results are
// immutable; re-runs append rather than overwrite so trend analysis and
// audits see the full sequence.
type HistoryRepo struct{}

func NewHistoryRepo() *HistoryRepo {
	return &HistoryRepo{}
}

// Schema assumption:
//
//	CREATE TABLE valuations (
//	  id UUID PRIMARY KEY,
//	  deal_id TEXT,
//	  result_json JSONB NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE deal_scores (
//	  id UUID PRIMARY KEY,
//	  deal_id TEXT NOT NULL,
//	  score_json JSONB NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE pipeline_analyses (
//	  id UUID PRIMARY KEY,
//	  analysis_json JSONB NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL
//	);

// SaveValuation appends one valuation result.
func (r *HistoryRepo) SaveValuation(ctx context.Context, dealID string, res *valuation.Result) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal valuation: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO valuations (id, deal_id, result_json, created_at)
		VALUES ($1, $2, $3, $4)`,
		res.ID, dealID, raw, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert valuation: %w", err)
	}
	return nil
}

// SaveScore appends one deal score.
func (r *HistoryRepo) SaveScore(ctx context.Context, dealID string, score *scoring.DealScore) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	raw, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO deal_scores (id, deal_id, score_json, created_at)
		VALUES ($1, $2, $3, $4)`,
		score.ID, dealID, raw, score.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

// SaveAnalysis appends one pipeline analysis snapshot.
func (r *HistoryRepo) SaveAnalysis(ctx context.Context, an *pipeline.Analysis) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	raw, err := json.Marshal(an)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO pipeline_analyses (id, analysis_json, created_at)
		VALUES ($1, $2, $3)`,
		uuid.NewString(), raw, an.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// ScoreHistory returns a deal's scores oldest first, for trend analysis.
func (r *HistoryRepo) ScoreHistory(ctx context.Context, dealID string) ([]scoring.DealScore, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := pool.Query(ctx, `
		SELECT score_json, created_at
		FROM deal_scores
		WHERE deal_id = $1
		ORDER BY created_at`, dealID)
	if err != nil {
		return nil, fmt.Errorf("query score history: %w", err)
	}
	defer rows.Close()

	var out []scoring.DealScore
	for rows.Next() {
		var raw []byte
		var createdAt time.Time
		if err := rows.Scan(&raw, &createdAt); err != nil {
			return nil, fmt.Errorf("scan score history: %w", err)
		}
		var s scoring.DealScore
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode score: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
