package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/aladrach/chatbot/internal/analytics"
	"github.com/aladrach/chatbot/internal/api"
	"github.com/aladrach/chatbot/internal/config"
	"github.com/aladrach/chatbot/internal/hermes"
	"github.com/aladrach/chatbot/internal/store"
	"github.com/aladrach/chatbot/internal/upstream"
)

func serveCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the chat proxy and analytics API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the HTTP server",
				Value:   cfg.Port,
			},
			&cli.BoolFlag{
				Name:  "stream",
				Usage: "Relay the upstream answer as it streams",
				Value: cfg.UpstreamStream,
			},
		},
		Action: func(c *cli.Context) error {
			cfg.Port = c.Int("port")
			cfg.UpstreamStream = c.Bool("stream")
			setupLogging(cfg.LogLevel, os.Stdout)
			return serve(c.Context, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	slog.Info("docsbot starting", "port", cfg.Port, "stream", cfg.UpstreamStream)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.UpstreamURL == "" {
		return errors.New("UPSTREAM_URL is required")
	}
	answers := upstream.NewClient(cfg.UpstreamURL, cfg.UpstreamTimeout)

	// Database (optional: without it interactions are not persisted)
	var (
		writer  analytics.Writer
		reports api.Reports
	)
	if cfg.DatabaseURL != "" {
		db, err := store.New(cfg.DatabaseURL, slog.Default())
		if err != nil {
			return err
		}
		defer db.Close()

		startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		if err := db.Ping(startCtx); err != nil {
			slog.Warn("database unreachable, will retry on first write", "error", err)
		} else if err := db.Migrate(startCtx); err != nil {
			slog.Warn("database migration failed, continuing", "error", err)
		} else {
			slog.Info("database ready")
		}
		cancel()
		writer, reports = db, db
	} else {
		slog.Warn("DATABASE_URL not set, analytics will not be persisted")
	}

	// NATS/Hermes (optional)
	var publisher analytics.Publisher
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			return err
		}
		defer hermesClient.Close()
		publisher = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	recorder := analytics.NewRecorder(writer, publisher, slog.Default())

	srv := api.NewServer(cfg.Port, api.Deps{
		Answers:           answers,
		Tracker:           recorder,
		Reports:           reports,
		StreamUpstream:    cfg.UpstreamStream,
		AnalyticsUsername: cfg.AnalyticsUsername,
		AnalyticsPassword: cfg.AnalyticsPassword,
		Logger:            slog.Default(),
	})
	if cfg.AnalyticsPassword == "" {
		slog.Warn("ANALYTICS_PASSWORD not set, dashboard endpoints will refuse every request")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	slog.Info("docsbot ready", "port", cfg.Port)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown error", "error", err)
	}
	recorder.Wait()
	slog.Info("docsbot stopped")
	return nil
}
