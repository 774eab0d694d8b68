// Package analytics models the interaction log and the reports built on it.
package analytics

import (
	"time"

	"github.com/aladrach/chatbot/internal/answer"
)

// InteractionRecord is one append-only row of the interaction log. Optional
// columns are pointers so they round-trip as NULL.
type InteractionRecord struct {
	ID                    int64           `json:"id,omitempty"`
	SessionID             string          `json:"sessionId"`
	Question              string          `json:"question"`
	Answer                *string         `json:"answer"`
	Timestamp             time.Time       `json:"timestamp"`
	ResponseTimeMs        *int64          `json:"responseTime"`
	HasError              bool            `json:"hasError"`
	IsUnanswered          bool            `json:"isUnanswered"`
	SkipReason            *string         `json:"skipReason"`
	SourcesCount          int             `json:"sourcesCount"`
	RelatedQuestionsCount int             `json:"relatedQuestionsCount"`
	Sources               []answer.Source `json:"sources,omitempty"`
	RelatedQuestions      []string        `json:"relatedQuestions,omitempty"`
	UserAgent             string          `json:"userAgent,omitempty"`
	Referrer              string          `json:"referrer,omitempty"`
}

// BotLoad is one widget page view.
type BotLoad struct {
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
	UserAgent string    `json:"userAgent,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
	PageURL   string    `json:"pageUrl,omitempty"`
}

// Window bounds a report. It applies only when both ends are set.
type Window struct {
	Start *time.Time
	End   *time.Time
}

func (w Window) Bounded() bool { return w.Start != nil && w.End != nil }
