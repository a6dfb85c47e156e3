package narrative

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAnnotateParsesFencedJSON(t *testing.T) {
	p := &StaticProvider{Response: "```json\n{\"summary\":\"Range looks defensible.\",\"considerations\":[\"thin peer set\"]}\n```"}
	a := NewAnnotator(p, time.Second)

	ann, ok := a.Annotate(context.Background(), "valuation", map[string]float64{"point": 18e6})
	if !ok {
		t.Fatal("expected an annotation")
	}
	if ann.Summary != "Range looks defensible." || len(ann.Considerations) != 1 {
		t.Errorf("unexpected annotation: %+v", ann)
	}
}

func TestAnnotateProviderFailureIsNotFatal(t *testing.T) {
	a := NewAnnotator(&StaticProvider{Err: errors.New("quota exceeded")}, time.Second)
	if ann, ok := a.Annotate(context.Background(), "deal score", struct{}{}); ok || ann != nil {
		t.Error("provider failure must yield no annotation, never an error")
	}
}

func TestAnnotateGarbageOutputIsDropped(t *testing.T) {
	a := NewAnnotator(&StaticProvider{Response: "I cannot comply with that request."}, time.Second)
	if _, ok := a.Annotate(context.Background(), "valuation", struct{}{}); ok {
		t.Error("unparseable output must be dropped")
	}
}

func TestNilAnnotatorIsNoop(t *testing.T) {
	var a *Annotator
	if _, ok := a.Annotate(context.Background(), "valuation", struct{}{}); ok {
		t.Error("nil annotator must be a no-op")
	}
}
