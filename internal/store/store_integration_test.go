//go:build integration

package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aladrach/chatbot/internal/analytics"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	s, err := New(dbURL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to configure store: %v", err)
	}
	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_InteractionRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	question := "integration question " + uuid.New().String()[:8]
	answer := "An answer."
	rt := int64(420)

	for i := 0; i < 3; i++ {
		err := s.InsertInteraction(ctx, analytics.InteractionRecord{
			SessionID:      "integration-" + uuid.New().String()[:8],
			Question:       question,
			Answer:         &answer,
			Timestamp:      time.Now().Add(time.Duration(i) * time.Second),
			ResponseTimeMs: &rt,
			SourcesCount:   1,
			UserAgent:      "go-test",
		})
		if err != nil {
			t.Fatalf("InsertInteraction failed: %v", err)
		}
	}

	rows, err := s.QuestionInstances(ctx, question, 20)
	if err != nil {
		t.Fatalf("QuestionInstances failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(rows))
	}
	if !rows[0].Timestamp.After(rows[2].Timestamp) {
		t.Error("expected newest first")
	}
	if rows[0].ResponseTimeMs == nil || *rows[0].ResponseTimeMs != rt {
		t.Errorf("unexpected response time %v", rows[0].ResponseTimeMs)
	}

	variants := analytics.SummarizeVariants(rows)
	if len(variants) != 1 || variants[0].Count != 3 {
		t.Errorf("expected one variant of 3, got %+v", variants)
	}
}

func TestIntegration_Summary(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	session := "summary-" + uuid.New().String()[:8]

	if err := s.InsertBotLoad(ctx, analytics.BotLoad{SessionID: session, Timestamp: time.Now()}); err != nil {
		t.Fatalf("InsertBotLoad failed: %v", err)
	}
	skip := "OUT_OF_DOMAIN_QUERY_IGNORED"
	err := s.InsertInteraction(ctx, analytics.InteractionRecord{
		SessionID:    session,
		Question:     "unanswered " + session,
		Timestamp:    time.Now(),
		IsUnanswered: true,
		SkipReason:   &skip,
	})
	if err != nil {
		t.Fatalf("InsertInteraction failed: %v", err)
	}

	sum, err := s.Summary(ctx, analytics.Window{})
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.TotalInteractions < 1 || sum.TotalBotLoads < 1 {
		t.Errorf("expected counts to include the inserted rows, got %+v", sum)
	}
	if len(sum.DailyEngagement) == 0 {
		t.Error("expected daily engagement rows")
	}

	found := false
	for _, q := range sum.UnansweredQuestions {
		if q.Question == "unanswered "+session {
			found = true
		}
	}
	if !found && len(sum.UnansweredQuestions) < 20 {
		t.Error("expected the unanswered question in the summary")
	}

	counts, err := s.QuestionCounts(ctx, analytics.Window{})
	if err != nil {
		t.Fatalf("QuestionCounts failed: %v", err)
	}
	if len(analytics.TopicHistogram(counts)) == 0 {
		t.Error("expected at least one topic")
	}
}
