package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_analytics (
	id                      BIGSERIAL PRIMARY KEY,
	session_id              TEXT NOT NULL,
	question                TEXT NOT NULL,
	answer                  TEXT,
	timestamp               TIMESTAMPTZ NOT NULL DEFAULT now(),
	response_time           INTEGER,
	has_error               BOOLEAN NOT NULL DEFAULT false,
	is_unanswered           BOOLEAN NOT NULL DEFAULT false,
	skip_reason             TEXT,
	sources_count           INTEGER NOT NULL DEFAULT 0,
	related_questions_count INTEGER NOT NULL DEFAULT 0,
	sources                 JSONB,
	related_questions       JSONB,
	user_agent              TEXT,
	referrer                TEXT
);
CREATE INDEX IF NOT EXISTS chat_analytics_timestamp_idx ON chat_analytics (timestamp DESC);
CREATE INDEX IF NOT EXISTS chat_analytics_question_idx ON chat_analytics (question);

CREATE TABLE IF NOT EXISTS bot_loads (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL DEFAULT now(),
	user_agent TEXT,
	referrer   TEXT,
	page_url   TEXT
);
CREATE INDEX IF NOT EXISTS bot_loads_timestamp_idx ON bot_loads (timestamp DESC);
`

// Migrate creates the analytics tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	return s.do(ctx, func(pool *pgxpool.Pool) error {
		if _, err := pool.Exec(ctx, schema); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		return nil
	})
}
