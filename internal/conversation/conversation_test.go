package conversation

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/aladrach/chatbot/internal/answer"
)

func fixedClock(r *Reconciler) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r.now = func() time.Time { return at }
}

func streamingCount(turns []Turn) int {
	n := 0
	for _, t := range turns {
		if t.Streaming {
			n++
		}
	}
	return n
}

func TestReconciler_StreamThenFinalize(t *testing.T) {
	r := NewReconciler()
	if _, err := r.AddUser("What is Incorta?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, text := range []string{"Inc", "Incorta is", "Incorta is a platform."} {
		if _, err := r.Apply(Progress{Text: text}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := streamingCount(r.Turns()); n != 1 {
			t.Fatalf("expected exactly one streaming turn, got %d", n)
		}
	}

	sources := []answer.Source{{URI: "https://docs/a", Title: "A"}}
	err := r.Finalize(Outcome{
		Text:             "Incorta is a platform.  \n",
		Sources:          sources,
		RelatedQuestions: []string{"What is a schema?"},
		Raw:              "{}",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	turns := r.Turns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	got := turns[1]
	if got.Streaming {
		t.Error("turn should no longer be streaming")
	}
	if got.Text != "Incorta is a platform." {
		t.Errorf("unexpected text %q", got.Text)
	}
	if diff := cmp.Diff(sources, got.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"What is a schema?"}, got.RelatedQuestions); diff != "" {
		t.Errorf("related questions mismatch (-want +got):\n%s", diff)
	}
	if !turns[0].ID.Before(turns[1].ID) {
		t.Error("turn ids should increase")
	}
}

func TestReconciler_EmptyProgressCreatesNothing(t *testing.T) {
	r := NewReconciler()
	changed, err := r.Apply(Progress{})
	if err != nil || changed {
		t.Fatalf("expected no change, got changed=%v err=%v", changed, err)
	}
	if len(r.Turns()) != 0 {
		t.Error("no turn should be created before text arrives")
	}
}

func TestReconciler_FollowUpsReplaceStreamedQuestions(t *testing.T) {
	r := NewReconciler()
	text := "Incorta is a platform.\n\nProposed follow-up questions:\n- What is X?\n- How do I Y?"

	if _, err := r.Apply(Progress{Text: text, RelatedQuestions: []string{"from api"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	live, ok := r.Streaming()
	if !ok {
		t.Fatal("expected a streaming turn")
	}
	if live.Text != "Incorta is a platform.\n" {
		t.Errorf("unexpected live text %q", live.Text)
	}
	want := []string{"What is X?", "How do I Y?"}
	if diff := cmp.Diff(want, live.RelatedQuestions); diff != "" {
		t.Errorf("related questions mismatch (-want +got):\n%s", diff)
	}

	if err := r.Finalize(Outcome{Text: text, RelatedQuestions: []string{"from api"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	final := r.Turns()[0]
	if final.Text != "Incorta is a platform." {
		t.Errorf("unexpected final text %q", final.Text)
	}
	if diff := cmp.Diff(want, final.RelatedQuestions); diff != "" {
		t.Errorf("related questions mismatch (-want +got):\n%s", diff)
	}
}

func TestReconciler_FinalizeWithoutStream(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		text    string
	}{
		{name: "no content", outcome: Outcome{}, text: EmptyAnswerText},
		{name: "unanswered", outcome: Outcome{Unanswered: true}, text: UnansweredText},
		{name: "whole answer at once", outcome: Outcome{Text: "Done.\n"}, text: "Done."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReconciler()
			if err := r.Finalize(tt.outcome); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			turns := r.Turns()
			if len(turns) != 1 {
				t.Fatalf("expected 1 turn, got %d", len(turns))
			}
			if turns[0].Text != tt.text {
				t.Errorf("text = %q, want %q", turns[0].Text, tt.text)
			}
			if turns[0].Unanswered != tt.outcome.Unanswered {
				t.Errorf("unanswered = %v", turns[0].Unanswered)
			}
		})
	}
}

func TestReconciler_FailMidStream(t *testing.T) {
	r := NewReconciler()
	r.AddUser("q")
	r.Apply(Progress{Text: "partial answer"})

	if err := r.Fail("Error: connection reset"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	turns := r.Turns()
	if len(turns) != 3 {
		t.Fatalf("expected user, partial and error turns, got %d", len(turns))
	}
	if turns[1].Text != "partial answer" || turns[1].Streaming {
		t.Errorf("partial turn should be kept and settled, got %+v", turns[1])
	}
	if !turns[2].Failed || turns[2].Text != "Error: connection reset" {
		t.Errorf("unexpected error turn %+v", turns[2])
	}
	if streamingCount(turns) != 0 {
		t.Error("no turn should be streaming after a failure")
	}
}

func TestReconciler_Closed(t *testing.T) {
	r := NewReconciler()
	r.AddUser("q")
	r.Close()

	if _, err := r.Apply(Progress{Text: "late"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Apply: expected ErrClosed, got %v", err)
	}
	if err := r.Finalize(Outcome{Text: "late"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Finalize: expected ErrClosed, got %v", err)
	}
	if err := r.Fail("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("Fail: expected ErrClosed, got %v", err)
	}
	if _, err := r.AddUser("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("AddUser: expected ErrClosed, got %v", err)
	}
	if len(r.Turns()) != 1 {
		t.Errorf("transcript changed after close: %d turns", len(r.Turns()))
	}
}

func TestReconciler_IDsStrictlyIncrease(t *testing.T) {
	r := NewReconciler()
	fixedClock(r)

	a, _ := r.AddUser("one")
	b, _ := r.AddUser("two")
	if !b.ID.After(a.ID) {
		t.Errorf("expected %v after %v", b.ID, a.ID)
	}
}
