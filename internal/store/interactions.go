package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aladrach/chatbot/internal/analytics"
)

// InsertInteraction appends one record to chat_analytics.
func (s *Store) InsertInteraction(ctx context.Context, rec analytics.InteractionRecord) error {
	sources, err := jsonColumn(rec.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	related, err := jsonColumn(rec.RelatedQuestions)
	if err != nil {
		return fmt.Errorf("marshal related questions: %w", err)
	}

	return s.do(ctx, func(pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, `
			INSERT INTO chat_analytics (
				session_id, question, answer, timestamp, response_time, has_error,
				is_unanswered, skip_reason, sources_count, related_questions_count,
				sources, related_questions, user_agent, referrer
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			rec.SessionID, rec.Question, rec.Answer, rec.Timestamp, rec.ResponseTimeMs, rec.HasError,
			rec.IsUnanswered, rec.SkipReason, rec.SourcesCount, rec.RelatedQuestionsCount,
			sources, related, nullString(rec.UserAgent), nullString(rec.Referrer),
		)
		if err != nil {
			return fmt.Errorf("insert interaction: %w", err)
		}
		return nil
	})
}

// QuestionInstances returns the latest records for an exact question, newest
// first.
func (s *Store) QuestionInstances(ctx context.Context, question string, limit int) ([]analytics.InteractionRecord, error) {
	var out []analytics.InteractionRecord
	err := s.do(ctx, func(pool *pgxpool.Pool) error {
		rows, err := pool.Query(ctx, `
			SELECT id, session_id, question, answer, timestamp, response_time, has_error,
				is_unanswered, skip_reason, sources_count, related_questions_count,
				sources, related_questions, COALESCE(user_agent, ''), COALESCE(referrer, '')
			FROM chat_analytics
			WHERE question = $1
			ORDER BY timestamp DESC
			LIMIT $2`,
			question, limit,
		)
		if err != nil {
			return fmt.Errorf("query question instances: %w", err)
		}
		out, err = pgx.CollectRows(rows, scanInteraction)
		if err != nil {
			return fmt.Errorf("scan question instances: %w", err)
		}
		return nil
	})
	return out, err
}

func scanInteraction(row pgx.CollectableRow) (analytics.InteractionRecord, error) {
	var (
		rec              analytics.InteractionRecord
		responseTime     *int32
		sources, related []byte
	)
	err := row.Scan(
		&rec.ID, &rec.SessionID, &rec.Question, &rec.Answer, &rec.Timestamp, &responseTime, &rec.HasError,
		&rec.IsUnanswered, &rec.SkipReason, &rec.SourcesCount, &rec.RelatedQuestionsCount,
		&sources, &related, &rec.UserAgent, &rec.Referrer,
	)
	if err != nil {
		return rec, err
	}
	if responseTime != nil {
		ms := int64(*responseTime)
		rec.ResponseTimeMs = &ms
	}
	// Unreadable JSON columns are treated as absent.
	if len(sources) > 0 {
		_ = json.Unmarshal(sources, &rec.Sources)
	}
	if len(related) > 0 {
		_ = json.Unmarshal(related, &rec.RelatedQuestions)
	}
	return rec, nil
}

func jsonColumn[T any](v []T) ([]byte, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
