// Package narrative decorates deterministic engine results with advisory
// explanation text. The annotator is strictly optional and timeout-bounded:
// the numeric result is finalized before annotation starts and is returned
// unchanged (unannotated) when the provider fails or times out.
package narrative

import (
	"context"
)

// Provider is the interface for all annotation backends. Implementations
// must never influence numeric output; they only produce advisory text.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}

// StaticProvider returns a fixed response. Useful in tests and as an offline
// fallback.
type StaticProvider struct {
	Response string
	Err      error
}

func (p *StaticProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	if p.Err != nil {
		return "", p.Err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return p.Response, nil
}
