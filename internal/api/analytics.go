package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aladrach/chatbot/internal/analytics"
)

const questionInstanceLimit = 20

type trackRequest struct {
	SessionID             string     `json:"sessionId"`
	Question              string     `json:"question"`
	Answer                *string    `json:"answer"`
	Timestamp             *time.Time `json:"timestamp"`
	ResponseTime          *int64     `json:"responseTime"`
	HasError              bool       `json:"hasError"`
	IsUnanswered          bool       `json:"isUnanswered"`
	SkipReason            *string    `json:"skipReason"`
	SourcesCount          int        `json:"sourcesCount"`
	RelatedQuestionsCount int        `json:"relatedQuestionsCount"`
}

// track accepts an interaction recorded by the widget itself.
func (s *Server) track(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "Missing 'question' in request body")
		return
	}

	rec := analytics.InteractionRecord{
		SessionID:             req.SessionID,
		Question:              req.Question,
		Answer:                req.Answer,
		Timestamp:             s.now(),
		ResponseTimeMs:        req.ResponseTime,
		HasError:              req.HasError,
		IsUnanswered:          req.IsUnanswered,
		SkipReason:            req.SkipReason,
		SourcesCount:          req.SourcesCount,
		RelatedQuestionsCount: req.RelatedQuestionsCount,
		UserAgent:             r.UserAgent(),
		Referrer:              r.Referer(),
	}
	if req.Timestamp != nil {
		rec.Timestamp = *req.Timestamp
	}
	if rec.SessionID == "" {
		rec.SessionID = s.newUUID()
	}
	s.deps.Tracker.Track(rec)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type loadRequest struct {
	SessionID string     `json:"sessionId"`
	Timestamp *time.Time `json:"timestamp"`
	PageURL   string     `json:"pageUrl"`
}

// trackLoad records that the widget was shown on a page.
func (s *Server) trackLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	load := analytics.BotLoad{
		SessionID: req.SessionID,
		Timestamp: s.now(),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
		PageURL:   req.PageURL,
	}
	if req.Timestamp != nil {
		load.Timestamp = *req.Timestamp
	}
	if load.SessionID == "" {
		load.SessionID = s.newUUID()
	}
	s.deps.Tracker.TrackLoad(load)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DataResponse is the body of GET /api/analytics/data.
type DataResponse struct {
	Summary *analytics.Summary     `json:"summary"`
	Topics  []analytics.TopicCount `json:"topics"`
}

// QuestionResponse is the body of GET /api/analytics/question.
type QuestionResponse struct {
	Question   string                        `json:"question"`
	Instances  []analytics.InteractionRecord `json:"instances"`
	Variants   []analytics.ResponseVariant   `json:"variants"`
	TotalCount int                           `json:"totalCount"`
}

func (s *Server) analyticsData(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reports == nil {
		writeError(w, http.StatusServiceUnavailable, "Analytics storage not configured")
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp DataResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		resp.Summary, err = s.deps.Reports.Summary(ctx, window)
		return err
	})
	g.Go(func() error {
		counts, err := s.deps.Reports.QuestionCounts(ctx, window)
		resp.Topics = analytics.TopicHistogram(counts)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load analytics", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch analytics data")
		return
	}
	if resp.Topics == nil {
		resp.Topics = []analytics.TopicCount{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) analyticsQuestion(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reports == nil {
		writeError(w, http.StatusServiceUnavailable, "Analytics storage not configured")
		return
	}
	question := r.URL.Query().Get("question")
	if question == "" {
		writeError(w, http.StatusBadRequest, "Missing 'question' parameter")
		return
	}

	instances, err := s.deps.Reports.QuestionInstances(r.Context(), question, questionInstanceLimit)
	if err != nil {
		s.logger.Error("failed to load question instances", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch question details")
		return
	}
	if instances == nil {
		instances = []analytics.InteractionRecord{}
	}
	writeJSON(w, http.StatusOK, QuestionResponse{
		Question:   question,
		Instances:  instances,
		Variants:   analytics.SummarizeVariants(instances),
		TotalCount: len(instances),
	})
}

// parseWindow reads startDate and endDate as RFC 3339 timestamps or plain
// dates. A plain end date covers the whole day.
func parseWindow(r *http.Request) (analytics.Window, error) {
	var w analytics.Window
	q := r.URL.Query()
	if v := q.Get("startDate"); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			return w, errors.New("invalid 'startDate'")
		}
		w.Start = &t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			return w, errors.New("invalid 'endDate'")
		}
		w.End = &t
	}
	return w, nil
}

func parseDate(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return t, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
