package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"dealintel/pkg/core/utils"
)

// DefaultTimeout bounds a single annotation call. Past it, the deterministic
// result is returned unannotated.
const DefaultTimeout = 10 * time.Second

// Annotation is the advisory text attached to a result. It never carries
// numbers the engines did not compute.
type Annotation struct {
	Summary        string   `json:"summary"`
	Considerations []string `json:"considerations,omitempty"`
}

// Annotator is the timeout-bounded decorator around a Provider.
type Annotator struct {
	provider Provider
	timeout  time.Duration
}

// NewAnnotator wraps a provider. A nil provider yields a no-op annotator.
func NewAnnotator(p Provider, timeout time.Duration) *Annotator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Annotator{provider: p, timeout: timeout}
}

const annotationSystemPrompt = `You are an M&A analyst writing a short advisory note.
You are given a finalized JSON result from a deterministic valuation/scoring engine.
Do not recompute, contradict, or invent any numbers.
Respond with JSON only: {"summary": "...", "considerations": ["...", ...]}`

// Annotate produces advisory text for a finalized result. subject names the
// result kind ("valuation", "deal score", "pipeline analysis"). Failures and
// timeouts log and return (nil, false); they are never fatal.
func (a *Annotator) Annotate(ctx context.Context, subject string, result interface{}) (*Annotation, bool) {
	if a == nil || a.provider == nil {
		return nil, false
	}

	payload, err := json.Marshal(result)
	if err != nil {
		log.Printf("[NARRATIVE] marshal %s result: %v", subject, err)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Write an advisory note for this %s result:\n%s", subject, payload)
	raw, err := a.provider.GenerateResponse(ctx, prompt, annotationSystemPrompt,
		map[string]interface{}{"response_format": "json"})
	if err != nil {
		log.Printf("[NARRATIVE] %s annotation skipped: %v", subject, err)
		return nil, false
	}

	// Model output is untrusted: strip fences and repair before decoding.
	var ann Annotation
	if _, err := utils.SmartParse(utils.CleanMarkdown(raw), &ann); err != nil {
		log.Printf("[NARRATIVE] %s annotation unparseable: %v", subject, err)
		return nil, false
	}
	if ann.Summary == "" {
		return nil, false
	}
	return &ann, true
}
