package models

import (
	"time"
)

// DealStage is a discrete lifecycle stage for an acquisition opportunity.
type DealStage string

const (
	StageSourcing     DealStage = "sourcing"
	StageScreening    DealStage = "screening"
	StageDueDiligence DealStage = "due_diligence"
	StageNegotiation  DealStage = "negotiation"
	StageClosing      DealStage = "closing"
	StageCompleted    DealStage = "completed"
	StageAbandoned    DealStage = "abandoned"
)

// ActiveStages lists the in-flight stages in pipeline order. Completed and
// abandoned are terminal and excluded.
var ActiveStages = []DealStage{
	StageSourcing,
	StageScreening,
	StageDueDiligence,
	StageNegotiation,
	StageClosing,
}

// Terminal reports whether the stage ends a deal's life in the pipeline.
func (s DealStage) Terminal() bool {
	return s == StageCompleted || s == StageAbandoned
}

// StageEvent records when a deal entered a stage.
type StageEvent struct {
	Stage     DealStage `json:"stage"`
	EnteredAt time.Time `json:"entered_at"`
}

// Deal is a persisted acquisition opportunity. The intelligence engines read
// deals; they never own or mutate them.
type Deal struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Sector       string       `json:"sector"`
	Value        float64      `json:"value"` // pipeline value (expected deal size)
	Stage        DealStage    `json:"stage"`
	StageHistory []StageEvent `json:"stage_history"` // chronological, first entry = first stage
	CreatedAt    time.Time    `json:"created_at"`
}

// EnteredCurrentStage returns when the deal entered its current stage,
// falling back to CreatedAt when history is missing.
func (d Deal) EnteredCurrentStage() time.Time {
	for i := len(d.StageHistory) - 1; i >= 0; i-- {
		if d.StageHistory[i].Stage == d.Stage {
			return d.StageHistory[i].EnteredAt
		}
	}
	return d.CreatedAt
}
