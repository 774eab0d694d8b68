// Package chat drives one conversation: it gates sends, reads the answer
// stream and keeps the transcript and viewport in step.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/aladrach/chatbot/internal/conversation"
	"github.com/aladrach/chatbot/internal/scroll"
	"github.com/aladrach/chatbot/internal/stream"
	"github.com/aladrach/chatbot/internal/upstream"
)

var (
	ErrBusy         = errors.New("a message is already in flight")
	ErrEmptyMessage = errors.New("message is empty")
)

// Transport opens the answer stream for one question.
type Transport interface {
	Open(ctx context.Context, query string) (io.ReadCloser, error)
}

type Engine struct {
	transport  Transport
	transcript *conversation.Reconciler
	scroll     *scroll.Controller
	logger     *slog.Logger
	onUpdate   func(conversation.Turn)

	mu      sync.Mutex
	loading bool
	closed  bool
}

func NewEngine(transport Transport, view scroll.Viewport, logger *slog.Logger) *Engine {
	return &Engine{
		transport:  transport,
		transcript: conversation.NewReconciler(),
		scroll:     scroll.NewController(view),
		logger:     logger,
	}
}

// OnUpdate registers fn to receive the streaming turn after every change.
// It must be set before the first Send.
func (e *Engine) OnUpdate(fn func(conversation.Turn)) {
	e.onUpdate = fn
}

func (e *Engine) Transcript() []conversation.Turn { return e.transcript.Turns() }

// Scroll exposes the viewport controller so the host can forward gestures.
func (e *Engine) Scroll() *scroll.Controller { return e.scroll }

func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Close tears the engine down. An in-flight Send stops touching the
// transcript and returns conversation.ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.transcript.Close()
}

func (e *Engine) alive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed
}

// Send submits one message and blocks until its answer has been reconciled
// into the transcript. Failures are also recorded in the transcript.
func (e *Engine) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return conversation.ErrClosed
	case e.loading:
		e.mu.Unlock()
		return ErrBusy
	}
	e.loading = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.loading = false
		e.mu.Unlock()
	}()

	user, err := e.transcript.AddUser(text)
	if err != nil {
		return err
	}
	e.scroll.MessageSent(user.ID)

	body, err := e.transport.Open(ctx, text)
	if err != nil {
		return e.fail(err)
	}
	defer body.Close()

	sess := stream.NewSession()
	buf := make([]byte, 32*1024)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if !e.alive() {
				return conversation.ErrClosed
			}
			if deltas := sess.Write(buf[:n]); len(deltas) > 0 {
				if err := e.progress(sess); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return e.fail(readErr)
		}
	}

	fields := sess.Close()
	err = e.transcript.Finalize(conversation.Outcome{
		Text:             sess.Answer(),
		Sources:          fields.Sources,
		RelatedQuestions: fields.RelatedQuestions,
		Unanswered:       len(fields.SkippedReasons) > 0,
		Raw:              sess.Raw(),
	})
	if err != nil {
		return err
	}
	e.scroll.StreamCompleted()
	return nil
}

func (e *Engine) progress(sess *stream.Session) error {
	fields := sess.Fields()
	changed, err := e.transcript.Apply(conversation.Progress{
		Text:             sess.Answer(),
		Sources:          fields.Sources,
		RelatedQuestions: fields.RelatedQuestions,
	})
	if err != nil || !changed {
		return err
	}
	e.scroll.TranscriptChanged()
	if e.onUpdate != nil {
		if turn, ok := e.transcript.Streaming(); ok {
			e.onUpdate(turn)
		}
	}
	return nil
}

func (e *Engine) fail(cause error) error {
	e.logger.Warn("chat request failed", "error", cause)
	if err := e.transcript.Fail(FailureText(cause)); err != nil {
		return err
	}
	e.scroll.StreamCompleted()
	return cause
}

// FailureText is the transcript text shown for a failed request.
func FailureText(err error) string {
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("Streaming failed (%d).", statusErr.StatusCode)
	}
	return "Error: " + err.Error()
}
