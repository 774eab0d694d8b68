package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aladrach/chatbot/internal/analytics"
	"github.com/aladrach/chatbot/internal/answer"
	"github.com/aladrach/chatbot/internal/stream"
	"github.com/aladrach/chatbot/internal/upstream"
)

type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
}

func newSessionID() string { return uuid.NewString() }

// readChat decodes the request body and writes a 400 when it has no query.
func (s *Server) readChat(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return req, false
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Missing 'query' in request body")
		return req, false
	}
	return req, true
}

// baseRecord starts the interaction record for a request. The session id
// comes from the body, then the X-Session-Id header, then a fresh one.
func (s *Server) baseRecord(r *http.Request, req chatRequest) analytics.InteractionRecord {
	session := req.SessionID
	if session == "" {
		session = r.Header.Get("X-Session-Id")
	}
	if session == "" {
		session = s.newUUID()
	}
	return analytics.InteractionRecord{
		SessionID: session,
		Question:  req.Query,
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}
}

func (s *Server) finish(rec analytics.InteractionRecord, started time.Time) {
	rec.Timestamp = s.now()
	ms := rec.Timestamp.Sub(started).Milliseconds()
	rec.ResponseTimeMs = &ms
	s.deps.Tracker.Track(rec)
}

func applyPayload(rec *analytics.InteractionRecord, p *answer.Payload) {
	if text, ok := p.AnswerText(); ok {
		rec.Answer = &text
	}
	if unanswered, reason := p.Unanswered(); unanswered {
		rec.IsUnanswered = true
		rec.SkipReason = &reason
	}
	rec.Sources = p.Sources()
	rec.SourcesCount = p.ReferenceCount()
	rec.RelatedQuestions = p.RelatedQuestions()
	rec.RelatedQuestionsCount = len(rec.RelatedQuestions)
}

func applyFields(rec *analytics.InteractionRecord, text string, f stream.Fields) {
	if text != "" {
		rec.Answer = &text
	}
	if len(f.SkippedReasons) > 0 {
		rec.IsUnanswered = true
		rec.SkipReason = &f.SkippedReasons[0]
	}
	rec.Sources = f.Sources
	rec.SourcesCount = f.ReferenceCount
	rec.RelatedQuestions = f.RelatedQuestions
	rec.RelatedQuestionsCount = len(f.RelatedQuestions)
}

func (s *Server) upstreamFailed(w http.ResponseWriter, rec analytics.InteractionRecord, started time.Time, err error) {
	rec.HasError = true
	s.finish(rec, started)
	s.logger.Warn("upstream request failed", "session_id", rec.SessionID, "error", err)

	var statusErr *upstream.StatusError
	switch {
	case errors.As(err, &statusErr):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   "Upstream request failed",
			"status":  statusErr.StatusCode,
			"details": statusErr.Body,
		})
	case errors.Is(err, upstream.ErrInvalidJSON):
		writeError(w, http.StatusBadGateway, "Invalid upstream JSON")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// chat answers in one piece, wrapped as {"data": payload}.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	started := s.now()
	req, ok := s.readChat(w, r)
	if !ok {
		return
	}
	rec := s.baseRecord(r, req)

	res, err := s.deps.Answers.Answer(r.Context(), req.Query)
	if err != nil {
		s.upstreamFailed(w, rec, started, err)
		return
	}
	applyPayload(&rec, res.Payload)
	s.finish(rec, started)

	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"data": res.Body})
}

// chatStream relays the answer body to the widget. In buffered mode the
// upstream JSON is returned as received.
func (s *Server) chatStream(w http.ResponseWriter, r *http.Request) {
	started := s.now()
	req, ok := s.readChat(w, r)
	if !ok {
		return
	}
	rec := s.baseRecord(r, req)

	if s.deps.StreamUpstream {
		s.relay(w, r, req, rec, started)
		return
	}

	res, err := s.deps.Answers.Answer(r.Context(), req.Query)
	if err != nil {
		s.upstreamFailed(w, rec, started, err)
		return
	}
	applyPayload(&rec, res.Payload)
	s.finish(rec, started)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, no-transform")
	w.WriteHeader(http.StatusOK)
	w.Write(res.Body)
}

func (s *Server) relay(w http.ResponseWriter, r *http.Request, req chatRequest, rec analytics.InteractionRecord, started time.Time) {
	body, err := s.deps.Answers.Stream(r.Context(), req.Query)
	if err != nil {
		s.upstreamFailed(w, rec, started, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, no-transform")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	sess := stream.NewSession()
	buf := make([]byte, 16*1024)
	var relayErr error
	for {
		n, err := body.Read(buf)
		if n > 0 {
			sess.Write(buf[:n])
			if _, werr := w.Write(buf[:n]); werr != nil {
				relayErr = werr
				break
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			relayErr = err
			break
		}
	}

	fields := sess.Close()
	if relayErr != nil {
		s.logger.Warn("stream relay interrupted", "session_id", rec.SessionID, "error", relayErr)
		rec.HasError = true
	} else {
		applyFields(&rec, sess.Answer(), fields)
	}
	s.finish(rec, started)
}
