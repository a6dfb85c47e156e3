package utils

import (
	"testing"
)

type annotationShape struct {
	Summary        string   `json:"summary"`
	Considerations []string `json:"considerations"`
}

func TestSmartParseStrictJSON(t *testing.T) {
	var out annotationShape
	if _, err := SmartParse(`{"summary":"ok","considerations":["a"]}`, &out); err != nil {
		t.Fatal(err)
	}
	if out.Summary != "ok" {
		t.Errorf("expected summary 'ok', got %q", out.Summary)
	}
}

func TestSmartParseRepairsModelOutput(t *testing.T) {
	// Single quotes, trailing comma: typical LLM JSON.
	var out annotationShape
	if _, err := SmartParse(`{'summary': 'ok', 'considerations': ['a', 'b'],}`, &out); err != nil {
		t.Fatalf("repair path failed: %v", err)
	}
	if len(out.Considerations) != 2 {
		t.Errorf("expected 2 considerations, got %d", len(out.Considerations))
	}
}

func TestCleanMarkdownStripsFences(t *testing.T) {
	in := "```json\n{\"summary\":\"ok\"}\n```"
	if got := CleanMarkdown(in); got != `{"summary":"ok"}` {
		t.Errorf("unexpected clean result: %q", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	html := RenderMarkdown("# Valuation\n\nRange looks *defensible*.")
	if html == "" || html == "# Valuation" {
		t.Errorf("expected rendered HTML, got %q", html)
	}
}
