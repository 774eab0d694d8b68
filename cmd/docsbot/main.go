package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/aladrach/chatbot/internal/config"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()

	app := &cli.App{
		Name:    "docsbot",
		Usage:   "Documentation chat assistant: proxy server, terminal client and analytics",
		Version: version,
		Before: func(c *cli.Context) error {
			setupLogging(cfg.LogLevel, os.Stderr)
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(cfg),
			askCommand(cfg),
			statsCommand(cfg),
			watchCommand(cfg),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func setupLogging(level string, w io.Writer) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
