package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aladrach/chatbot/internal/analytics"
	"github.com/aladrach/chatbot/internal/upstream"
)

// Answerer asks the answer service a question.
type Answerer interface {
	Answer(ctx context.Context, query string) (*upstream.Result, error)
	Stream(ctx context.Context, query string) (io.ReadCloser, error)
}

// Tracker records interactions without blocking the caller.
type Tracker interface {
	Track(rec analytics.InteractionRecord)
	TrackLoad(load analytics.BotLoad)
}

// Reports serves the dashboard queries.
type Reports interface {
	Summary(ctx context.Context, w analytics.Window) (*analytics.Summary, error)
	QuestionCounts(ctx context.Context, w analytics.Window) ([]analytics.QuestionCount, error)
	QuestionInstances(ctx context.Context, question string, limit int) ([]analytics.InteractionRecord, error)
}

// Deps wires the server. Reports may be nil when no database is configured.
type Deps struct {
	Answers           Answerer
	Tracker           Tracker
	Reports           Reports
	StreamUpstream    bool
	AnalyticsUsername string
	AnalyticsPassword string
	Logger            *slog.Logger
}

type Server struct {
	router  *chi.Mux
	port    int
	http    *http.Server
	deps    Deps
	logger  *slog.Logger
	now     func() time.Time
	newUUID func() string
}

func NewServer(port int, deps Deps) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		deps:    deps,
		logger:  deps.Logger,
		now:     time.Now,
		newUUID: newSessionID,
	}

	router.Get("/health", s.health)
	router.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.chat)
		r.Post("/chat/stream", s.chatStream)
		r.Post("/analytics/track", s.track)
		r.Post("/analytics/load", s.trackLoad)
		r.Group(func(r chi.Router) {
			r.Use(dashboardAuth(deps.AnalyticsUsername, deps.AnalyticsPassword))
			r.Get("/analytics/data", s.analyticsData)
			r.Get("/analytics/question", s.analyticsQuestion)
		})
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
