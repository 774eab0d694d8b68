package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/aladrach/chatbot/internal/config"
	"github.com/aladrach/chatbot/internal/hermes"
)

func watchCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Tail analytics events published on NATS",
		Action: func(c *cli.Context) error {
			if cfg.NatsURL == "" {
				return errors.New("NATS_URL is required")
			}
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
			if err != nil {
				return err
			}
			defer client.Close()

			err = client.Subscribe(hermes.SubjectAllAnalytics, func(subject string, data []byte) {
				fmt.Fprintf(c.App.Writer, "%s %s\n", subject, data)
			})
			if err != nil {
				return err
			}

			<-ctx.Done()
			return nil
		},
	}
}
