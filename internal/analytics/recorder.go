package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aladrach/chatbot/internal/hermes"
)

const writeTimeout = 10 * time.Second

// Writer persists log entries.
type Writer interface {
	InsertInteraction(ctx context.Context, rec InteractionRecord) error
	InsertBotLoad(ctx context.Context, load BotLoad) error
}

// Publisher fans recorded entries out to subscribers.
type Publisher interface {
	Publish(subject string, data any) error
}

// Recorder writes log entries in the background. Failures are logged and
// never reach the caller. Either dependency may be nil.
type Recorder struct {
	writer    Writer
	publisher Publisher
	logger    *slog.Logger
	wg        sync.WaitGroup
}

func NewRecorder(writer Writer, publisher Publisher, logger *slog.Logger) *Recorder {
	return &Recorder{writer: writer, publisher: publisher, logger: logger}
}

// Track records one interaction without blocking.
func (r *Recorder) Track(rec InteractionRecord) {
	r.run(func(ctx context.Context) error {
		if r.writer == nil {
			return nil
		}
		return r.writer.InsertInteraction(ctx, rec)
	}, hermes.SubjectInteraction, rec, "session_id", rec.SessionID)
}

// TrackLoad records one widget load without blocking.
func (r *Recorder) TrackLoad(load BotLoad) {
	r.run(func(ctx context.Context) error {
		if r.writer == nil {
			return nil
		}
		return r.writer.InsertBotLoad(ctx, load)
	}, hermes.SubjectBotLoad, load, "session_id", load.SessionID)
}

func (r *Recorder) run(write func(context.Context) error, subject string, event any, attrs ...any) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := write(ctx); err != nil {
			r.logger.Error("failed to record analytics", append(attrs, "subject", subject, "error", err)...)
			return
		}
		if r.publisher == nil {
			return
		}
		if err := r.publisher.Publish(subject, event); err != nil {
			r.logger.Warn("failed to publish analytics event", append(attrs, "subject", subject, "error", err)...)
		}
	}()
}

// Wait blocks until every pending write has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
