// Package conversation holds the chat transcript and reconciles streamed
// answer text into it.
package conversation

import (
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/aladrach/chatbot/internal/answer"
	"github.com/aladrach/chatbot/internal/followup"
)

// Placeholder texts for replies that carry no answer text.
const (
	EmptyAnswerText = "(No streamed content received)"
	UnansweredText  = "I couldn't find an answer to that in the documentation. Try rephrasing your question."
)

// ErrClosed is returned once the transcript's owner has been torn down.
var ErrClosed = errors.New("conversation closed")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript entry. IDs are creation timestamps and strictly
// increase within a transcript.
type Turn struct {
	ID               time.Time       `json:"id"`
	Role             Role            `json:"role"`
	Text             string          `json:"text"`
	Streaming        bool            `json:"streaming,omitempty"`
	Sources          []answer.Source `json:"sources,omitempty"`
	RelatedQuestions []string        `json:"relatedQuestions,omitempty"`
	Unanswered       bool            `json:"unanswered,omitempty"`
	Failed           bool            `json:"failed,omitempty"`
	Raw              string          `json:"-"`
}

// Progress is a snapshot of an answer stream that is still arriving.
type Progress struct {
	Text             string
	Sources          []answer.Source
	RelatedQuestions []string
}

// Outcome is the result of a completed answer stream.
type Outcome struct {
	Text             string
	Sources          []answer.Source
	RelatedQuestions []string
	Unanswered       bool
	Raw              string
}

// Reconciler owns the transcript. At most one assistant turn is streaming
// at any time.
type Reconciler struct {
	mu     sync.Mutex
	turns  []Turn
	live   int
	last   time.Time
	closed bool
	now    func() time.Time
}

func NewReconciler() *Reconciler {
	return &Reconciler{live: -1, now: time.Now}
}

func (r *Reconciler) nextID() time.Time {
	id := r.now()
	if !id.After(r.last) {
		id = r.last.Add(time.Nanosecond)
	}
	r.last = id
	return id
}

// AddUser appends a user turn.
func (r *Reconciler) AddUser(text string) (Turn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Turn{}, ErrClosed
	}
	t := Turn{ID: r.nextID(), Role: RoleUser, Text: text}
	r.turns = append(r.turns, t)
	return t, nil
}

// Apply updates the streaming assistant turn, creating it on the first
// non-empty text. It reports whether the transcript changed.
func (r *Reconciler) Apply(p Progress) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, ErrClosed
	}
	if p.Text == "" {
		return false, nil
	}

	if r.live < 0 {
		r.turns = append(r.turns, Turn{ID: r.nextID(), Role: RoleAssistant, Streaming: true})
		r.live = len(r.turns) - 1
	}
	t := &r.turns[r.live]

	cleaned, followUps := followup.Extract(p.Text)
	t.Text = cleaned
	switch {
	case len(followUps) > 0:
		t.RelatedQuestions = followUps
	case len(p.RelatedQuestions) > 0:
		t.RelatedQuestions = p.RelatedQuestions
	}
	if len(p.Sources) > 0 {
		t.Sources = p.Sources
	}
	return true, nil
}

// Finalize settles the streaming turn with the outcome, or appends a
// finalized turn when nothing was streamed.
func (r *Reconciler) Finalize(o Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	cleaned, followUps := followup.Extract(o.Text)
	cleaned = strings.TrimRightFunc(cleaned, unicode.IsSpace)
	related := o.RelatedQuestions
	if len(followUps) > 0 {
		related = followUps
	}

	if r.live >= 0 {
		t := &r.turns[r.live]
		if cleaned != "" {
			t.Text = cleaned
		}
		t.Streaming = false
		t.Sources = o.Sources
		t.RelatedQuestions = related
		t.Unanswered = o.Unanswered
		t.Raw = o.Raw
		r.live = -1
		return nil
	}

	if cleaned == "" {
		cleaned = EmptyAnswerText
		if o.Unanswered {
			cleaned = UnansweredText
		}
	}
	r.turns = append(r.turns, Turn{
		ID:               r.nextID(),
		Role:             RoleAssistant,
		Text:             cleaned,
		Sources:          o.Sources,
		RelatedQuestions: related,
		Unanswered:       o.Unanswered,
		Raw:              o.Raw,
	})
	return nil
}

// Fail finalizes any partial turn as-is and appends one turn carrying message.
func (r *Reconciler) Fail(message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.live >= 0 {
		r.turns[r.live].Streaming = false
		r.live = -1
	}
	r.turns = append(r.turns, Turn{
		ID:     r.nextID(),
		Role:   RoleAssistant,
		Text:   message,
		Failed: true,
	})
	return nil
}

// Close stops all further mutation.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Turns returns a copy of the transcript.
func (r *Reconciler) Turns() []Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Turn, len(r.turns))
	for i, t := range r.turns {
		t.Sources = append([]answer.Source(nil), t.Sources...)
		t.RelatedQuestions = append([]string(nil), t.RelatedQuestions...)
		out[i] = t
	}
	return out
}

// Streaming returns the in-flight assistant turn, if any.
func (r *Reconciler) Streaming() (Turn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live < 0 {
		return Turn{}, false
	}
	return r.turns[r.live], true
}
