package valuation

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dealintel/pkg/core/narrative"
	"dealintel/pkg/core/store"
	coreval "dealintel/pkg/core/valuation"
	"dealintel/pkg/models"
)

// recordingProvider captures the prompt so tests can assert on its framing.
type recordingProvider struct {
	prompt   string
	response string
}

func (p *recordingProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	p.prompt = prompt
	return p.response, nil
}

func postValuate(t *testing.T, req ValuationRequest) (*httptest.ResponseRecorder, ValuationResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	HandleValuate(rec, httptest.NewRequest(http.MethodPost, "/api/valuation/run", bytes.NewReader(body)))

	var resp ValuationResponse
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return rec, resp
}

func compsRequest() ValuationRequest {
	return ValuationRequest{
		DealID:   "deal-7",
		DealName: "Project Kestrel",
		Periods: []models.PeriodFinancials{{
			Period:             "FY2023",
			EndDate:            time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
			Revenue:            10_000_000,
			EBITDA:             2_000_000,
			CashFromOperations: 1_500_000,
			CapEx:              -300_000,
		}},
		Peers: []coreval.PeerMultiple{
			{Name: "Alpha", EVEBITDA: 8},
			{Name: "Beta", EVEBITDA: 9},
			{Name: "Gamma", EVEBITDA: 10},
		},
	}
}

func TestHandleValuateSavesHistoryAndAnnotates(t *testing.T) {
	provider := &recordingProvider{response: `{"summary":"Comparable set is tight."}`}
	// History repo present but no pool initialized: the save must fail
	// gracefully without failing the request.
	InitHandler(coreval.NewEngine(), narrative.NewAnnotator(provider, time.Second), store.NewHistoryRepo())
	defer InitHandler(coreval.NewEngine(), nil, nil)

	rec, resp := postValuate(t, compsRequest())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Result == nil || math.Abs(resp.Result.Point-18_000_000) > 1 {
		t.Fatalf("unexpected result: %+v", resp.Result)
	}
	if resp.Annotation == nil || resp.Annotation.Summary == "" {
		t.Error("expected an annotation from the provider")
	}
	// The prompt names the result kind, not the deal.
	if !strings.Contains(provider.prompt, "valuation result") {
		t.Errorf("prompt should frame the payload as a valuation result, got %q", provider.prompt)
	}
	if strings.Contains(provider.prompt, "this Project Kestrel result") {
		t.Error("deal name must not replace the result kind in the prompt")
	}
}

func TestHandleValuateWithoutHistoryRepo(t *testing.T) {
	InitHandler(coreval.NewEngine(), nil, nil)

	rec, resp := postValuate(t, compsRequest())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Result == nil || resp.Result.ID == "" {
		t.Fatalf("expected a result with an id, got %+v", resp.Result)
	}
}

func TestHandleValuateInsufficientInputs(t *testing.T) {
	InitHandler(coreval.NewEngine(), nil, nil)

	req := compsRequest()
	req.Peers = nil
	rec, _ := postValuate(t, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for an unvaluable request, got %d", rec.Code)
	}
}
