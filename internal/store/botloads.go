package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aladrach/chatbot/internal/analytics"
)

func (s *Store) InsertBotLoad(ctx context.Context, load analytics.BotLoad) error {
	return s.do(ctx, func(pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, `
			INSERT INTO bot_loads (session_id, timestamp, user_agent, referrer, page_url)
			VALUES ($1, $2, $3, $4, $5)`,
			load.SessionID, load.Timestamp, nullString(load.UserAgent), nullString(load.Referrer), nullString(load.PageURL),
		)
		if err != nil {
			return fmt.Errorf("insert bot load: %w", err)
		}
		return nil
	})
}
