package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/aladrach/chatbot/internal/analytics"
)

const (
	topQuestionsLimit        = 10
	unansweredQuestionsLimit = 20
	engagementDays           = 30
)

// window renders w as SQL conditions over the timestamp column.
func window(w analytics.Window) ([]string, []any) {
	if !w.Bounded() {
		return nil, nil
	}
	return []string{"timestamp >= $1", "timestamp <= $2"}, []any{*w.Start, *w.End}
}

func where(conds ...string) string {
	var kept []string
	for _, c := range conds {
		if c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(kept, " AND ")
}

// Summary runs the dashboard's aggregate queries concurrently.
func (s *Store) Summary(ctx context.Context, w analytics.Window) (*analytics.Summary, error) {
	var sum analytics.Summary
	conds, args := window(w)
	scoped := func(extra ...string) string { return where(append(extra, conds...)...) }

	err := s.do(ctx, func(pool *pgxpool.Pool) error {
		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return scalar(ctx, pool, &sum.TotalInteractions, "count interactions",
				`SELECT COUNT(*) FROM chat_analytics `+scoped(), args...)
		})
		g.Go(func() error {
			return scalar(ctx, pool, &sum.AvgResponseTimeMs, "average response time",
				`SELECT COALESCE(AVG(response_time), 0)::float8 FROM chat_analytics `+scoped("response_time IS NOT NULL"), args...)
		})
		g.Go(func() error {
			var failed, total int
			err := pool.QueryRow(ctx, `
				SELECT COUNT(*) FILTER (WHERE has_error), COUNT(*)
				FROM chat_analytics `+scoped(), args...).Scan(&failed, &total)
			if err != nil {
				return fmt.Errorf("error rate: %w", err)
			}
			sum.ErrorRate = analytics.Percent(failed, total)
			return nil
		})
		g.Go(func() error {
			rows, err := pool.Query(ctx, `
				SELECT question, COUNT(*) AS count
				FROM chat_analytics `+scoped("is_unanswered = false")+`
				GROUP BY question
				ORDER BY count DESC
				LIMIT `+fmt.Sprint(topQuestionsLimit), args...)
			if err != nil {
				return fmt.Errorf("top questions: %w", err)
			}
			sum.TopQuestions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.QuestionCount, error) {
				var q analytics.QuestionCount
				err := row.Scan(&q.Question, &q.Count)
				return q, err
			})
			return err
		})
		g.Go(func() error {
			rows, err := pool.Query(ctx, `
				SELECT question, COUNT(*) AS count, MAX(timestamp) AS last_asked
				FROM chat_analytics `+scoped("is_unanswered = true")+`
				GROUP BY question
				ORDER BY count DESC, last_asked DESC
				LIMIT `+fmt.Sprint(unansweredQuestionsLimit), args...)
			if err != nil {
				return fmt.Errorf("unanswered questions: %w", err)
			}
			sum.UnansweredQuestions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.QuestionCount, error) {
				var q analytics.QuestionCount
				err := row.Scan(&q.Question, &q.Count, &q.LastAsked)
				return q, err
			})
			return err
		})
		g.Go(func() error {
			rows, err := pool.Query(ctx, `
				SELECT to_char(DATE(timestamp), 'YYYY-MM-DD'), COUNT(*), COUNT(DISTINCT session_id)
				FROM chat_analytics `+scoped()+`
				GROUP BY DATE(timestamp)
				ORDER BY DATE(timestamp) DESC
				LIMIT `+fmt.Sprint(engagementDays), args...)
			if err != nil {
				return fmt.Errorf("daily engagement: %w", err)
			}
			sum.DailyEngagement, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.DailyEngagement, error) {
				var d analytics.DailyEngagement
				err := row.Scan(&d.Date, &d.Interactions, &d.UniqueSessions)
				return d, err
			})
			return err
		})
		g.Go(func() error {
			return scalar(ctx, pool, &sum.AvgSourcesPerResponse, "average sources",
				`SELECT COALESCE(AVG(sources_count), 0)::float8 FROM chat_analytics `+scoped(), args...)
		})
		g.Go(func() error {
			return scalar(ctx, pool, &sum.TotalBotLoads, "count bot loads",
				`SELECT COUNT(*) FROM bot_loads `+scoped(), args...)
		})
		g.Go(func() error {
			return scalar(ctx, pool, &sum.UniqueInteractingSessions, "count sessions",
				`SELECT COUNT(DISTINCT session_id) FROM chat_analytics `+scoped(), args...)
		})

		return g.Wait()
	})
	if err != nil {
		return nil, err
	}
	sum.InteractionRate = analytics.Percent(sum.UniqueInteractingSessions, sum.TotalBotLoads)
	return &sum, nil
}

// QuestionCounts returns every distinct question with its count.
func (s *Store) QuestionCounts(ctx context.Context, w analytics.Window) ([]analytics.QuestionCount, error) {
	conds, args := window(w)
	var out []analytics.QuestionCount
	err := s.do(ctx, func(pool *pgxpool.Pool) error {
		rows, err := pool.Query(ctx, `
			SELECT question, COUNT(*) AS count
			FROM chat_analytics `+where(conds...)+`
			GROUP BY question
			ORDER BY count DESC`, args...)
		if err != nil {
			return fmt.Errorf("question counts: %w", err)
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.QuestionCount, error) {
			var q analytics.QuestionCount
			err := row.Scan(&q.Question, &q.Count)
			return q, err
		})
		return err
	})
	return out, err
}

func scalar[T any](ctx context.Context, pool *pgxpool.Pool, dst *T, what, sql string, args ...any) error {
	if err := pool.QueryRow(ctx, sql, args...).Scan(dst); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
