package answer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode_NestedAnswerWins(t *testing.T) {
	p, err := Decode([]byte(`{
		"answer": {
			"answerText": "nested",
			"relatedQuestions": ["How do I log in?"],
			"references": [
				{"chunkInfo": {"documentMetadata": {"uri": "https://docs/a", "title": "A"}}},
				{"chunkInfo": {"documentMetadata": {"uri": "https://docs/a", "title": "A again"}}},
				{"chunkInfo": {"documentMetadata": {"title": "no uri"}}},
				{"unstructuredDocumentInfo": {"uri": "https://docs/b", "title": "B"}}
			]
		},
		"answerText": "top",
		"relatedQuestions": ["ignored"]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, ok := p.AnswerText()
	if !ok || text != "nested" {
		t.Errorf("expected nested answer text, got %q (ok=%v)", text, ok)
	}
	if diff := cmp.Diff([]string{"How do I log in?"}, p.RelatedQuestions()); diff != "" {
		t.Errorf("related questions mismatch (-want +got):\n%s", diff)
	}
	want := []Source{{URI: "https://docs/a", Title: "A"}, {URI: "https://docs/b", Title: "B"}}
	if diff := cmp.Diff(want, p.Sources()); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if p.ReferenceCount() != 4 {
		t.Errorf("expected 4 raw references, got %d", p.ReferenceCount())
	}
}

func TestDecode_FallsBackToTopLevel(t *testing.T) {
	p, err := Decode([]byte(`{"answer": {"state": "SUCCEEDED"}, "relatedQuestions": ["Q1", 7, "Q2"]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.AnswerText(); ok {
		t.Error("expected no answer text")
	}
	if diff := cmp.Diff([]string{"Q1", "Q2"}, p.RelatedQuestions()); diff != "" {
		t.Errorf("related questions mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_NullNodeFieldFallsThrough(t *testing.T) {
	p, err := Decode([]byte(`{"answer": {"answerText": null}, "answerText": "top"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text, _ := p.AnswerText(); text != "top" {
		t.Errorf("expected top-level text, got %q", text)
	}
}

func TestUnanswered(t *testing.T) {
	p, err := Decode([]byte(`{"answerSkippedReasons": ["OUT_OF_DOMAIN_QUERY_IGNORED", "OTHER"]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unanswered, reason := p.Unanswered()
	if !unanswered || reason != "OUT_OF_DOMAIN_QUERY_IGNORED" {
		t.Errorf("expected unanswered with first reason, got %v %q", unanswered, reason)
	}

	p, _ = Decode([]byte(`{"answerSkippedReasons": []}`))
	if unanswered, _ := p.Unanswered(); unanswered {
		t.Error("empty reasons should not mark the answer unanswered")
	}
}

func TestDecode_RejectsNonObjects(t *testing.T) {
	for _, in := range []string{`[]`, `"text"`, `null`, `{"broken":`} {
		if _, err := Decode([]byte(in)); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}

func TestSourceSet(t *testing.T) {
	var set SourceSet
	if !set.Add(Source{URI: "u1", Title: "first"}) {
		t.Fatal("expected first add to succeed")
	}
	if set.Add(Source{URI: "u1", Title: "second"}) {
		t.Error("duplicate uri should be rejected")
	}
	if set.Add(Source{Title: "no uri"}) {
		t.Error("empty uri should be rejected")
	}
	set.Merge([]Source{{URI: "u2"}, {URI: "u1"}})

	want := []Source{{URI: "u1", Title: "first"}, {URI: "u2"}}
	if diff := cmp.Diff(want, set.List()); diff != "" {
		t.Errorf("set mismatch (-want +got):\n%s", diff)
	}
	if set.Len() != 2 {
		t.Errorf("expected len 2, got %d", set.Len())
	}
}
