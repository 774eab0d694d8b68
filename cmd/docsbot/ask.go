package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/aladrach/chatbot/internal/chat"
	"github.com/aladrach/chatbot/internal/config"
	"github.com/aladrach/chatbot/internal/conversation"
)

func askCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a question through a running docsbot server",
		ArgsUsage: "QUESTION",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "Base URL of the docsbot server",
				Value: cfg.PublicURL,
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "Session id to report (default: a new one)",
			},
		},
		Action: func(c *cli.Context) error {
			question := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(question) == "" {
				return errors.New("a question is required")
			}
			session := c.String("session")
			if session == "" {
				session = uuid.NewString()
			}

			engine := chat.NewEngine(chat.NewHTTPTransport(c.String("url"), session), nil, slog.Default())
			defer engine.Close()

			p := &turnPrinter{out: c.App.Writer}
			engine.OnUpdate(p.update)

			sendErr := engine.Send(c.Context, question)
			if turns := engine.Transcript(); len(turns) > 0 {
				p.finish(turns[len(turns)-1])
			}
			return sendErr
		},
	}
}

// turnPrinter writes a streaming turn as it grows. Once the text stops
// growing by appends (a follow-up section was lifted out) it waits for the
// final turn.
type turnPrinter struct {
	out     io.Writer
	printed string
	stalled bool
}

func (p *turnPrinter) update(turn conversation.Turn) {
	if p.stalled {
		return
	}
	if !strings.HasPrefix(turn.Text, p.printed) {
		p.stalled = true
		return
	}
	fmt.Fprint(p.out, turn.Text[len(p.printed):])
	p.printed = turn.Text
}

func (p *turnPrinter) finish(turn conversation.Turn) {
	switch {
	case turn.Role != conversation.RoleAssistant:
	case turn.Failed:
		if p.printed != "" {
			fmt.Fprintln(p.out)
		}
		fmt.Fprintln(p.out, turn.Text)
	case strings.HasPrefix(turn.Text, p.printed):
		fmt.Fprintln(p.out, turn.Text[len(p.printed):])
	case strings.HasPrefix(p.printed, turn.Text):
		fmt.Fprintln(p.out)
	default:
		if p.printed != "" {
			fmt.Fprintln(p.out)
		}
		fmt.Fprintln(p.out, turn.Text)
	}

	if len(turn.Sources) > 0 {
		fmt.Fprintln(p.out, "\nSources:")
		for _, src := range turn.Sources {
			title := src.Title
			if title == "" {
				title = src.URI
			}
			fmt.Fprintf(p.out, "  - %s <%s>\n", title, src.URI)
		}
	}
	if len(turn.RelatedQuestions) > 0 {
		fmt.Fprintln(p.out, "\nFollow-up questions:")
		for _, q := range turn.RelatedQuestions {
			fmt.Fprintf(p.out, "  - %s\n", q)
		}
	}
}
