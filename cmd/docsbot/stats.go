package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/aladrach/chatbot/internal/api"
	"github.com/aladrach/chatbot/internal/config"
	"github.com/aladrach/chatbot/internal/dashboard"
)

func statsCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show the analytics dashboard in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "Base URL of the docsbot server", Value: cfg.PublicURL},
			&cli.StringFlag{Name: "user", Usage: "Dashboard username", Value: cfg.AnalyticsUsername},
			&cli.StringFlag{Name: "password", Usage: "Dashboard password (cached for 7 days on success)", EnvVars: []string{"ANALYTICS_PASSWORD"}},
			&cli.StringFlag{Name: "range", Usage: "Reporting window: 7d, 30d or all", Value: string(dashboard.Last7Days)},
			&cli.StringFlag{Name: "question", Usage: "Drill into one exact question"},
			&cli.BoolFlag{Name: "json", Usage: "Print the raw JSON response"},
		},
		Action: func(c *cli.Context) error {
			path, err := dashboard.DefaultCachePath()
			if err != nil {
				return err
			}
			client := dashboard.NewClient(c.String("url"), dashboard.NewFileCache(path))
			if pw := c.String("password"); pw != "" {
				client.Login(c.String("user"), pw)
			}

			var out any
			if q := c.String("question"); q != "" {
				out, err = client.Question(c.Context, q)
			} else {
				out, err = client.Data(c.Context, dashboard.Range(c.String("range")))
			}
			if errors.Is(err, dashboard.ErrNoCredentials) || errors.Is(err, dashboard.ErrUnauthorized) {
				return fmt.Errorf("%w: pass --password or set ANALYTICS_PASSWORD", err)
			}
			if err != nil {
				return err
			}

			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			switch v := out.(type) {
			case *api.DataResponse:
				printData(c.App.Writer, v)
			case *api.QuestionResponse:
				printQuestion(c.App.Writer, v)
			}
			return nil
		},
	}
}

func printData(w io.Writer, d *api.DataResponse) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	s := d.Summary
	fmt.Fprintf(tw, "Interactions\t%d\n", s.TotalInteractions)
	fmt.Fprintf(tw, "Bot loads\t%d\n", s.TotalBotLoads)
	fmt.Fprintf(tw, "Interacting sessions\t%d (%.2f%%)\n", s.UniqueInteractingSessions, s.InteractionRate)
	fmt.Fprintf(tw, "Avg response time\t%.0f ms\n", s.AvgResponseTimeMs)
	fmt.Fprintf(tw, "Error rate\t%.2f%%\n", s.ErrorRate)
	fmt.Fprintf(tw, "Avg sources per answer\t%.2f\n", s.AvgSourcesPerResponse)

	fmt.Fprintln(tw, "\nTop questions\tCount")
	for _, q := range s.TopQuestions {
		fmt.Fprintf(tw, "%s\t%d\n", q.Question, q.Count)
	}
	fmt.Fprintln(tw, "\nUnanswered\tCount")
	for _, q := range s.UnansweredQuestions {
		fmt.Fprintf(tw, "%s\t%d\n", q.Question, q.Count)
	}
	fmt.Fprintln(tw, "\nTopic\tCount")
	for _, t := range d.Topics {
		fmt.Fprintf(tw, "%s\t%d\n", t.Topic, t.Count)
	}
	fmt.Fprintln(tw, "\nDay\tInteractions\tSessions")
	for _, day := range s.DailyEngagement {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", day.Date, day.Interactions, day.UniqueSessions)
	}
}

func printQuestion(w io.Writer, q *api.QuestionResponse) {
	fmt.Fprintf(w, "%q asked %d times\n", q.Question, q.TotalCount)
	for i, v := range q.Variants {
		outcome := "answered"
		switch {
		case v.HasError:
			outcome = "error"
		case v.IsUnanswered:
			outcome = "unanswered"
		}
		fmt.Fprintf(w, "\n#%d  %s  x%d  last %s", i+1, outcome, v.Count, v.LastSeen.Format("2006-01-02 15:04"))
		if v.AvgResponseTimeMs != nil {
			fmt.Fprintf(w, "  avg %d ms", *v.AvgResponseTimeMs)
		}
		fmt.Fprintln(w)
		if v.Answer != nil {
			fmt.Fprintln(w, *v.Answer)
		}
	}
}
