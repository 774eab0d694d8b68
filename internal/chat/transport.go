package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aladrach/chatbot/internal/upstream"
)

// HTTPTransport posts questions to the proxy's stream endpoint.
type HTTPTransport struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewHTTPTransport(baseURL, sessionID string) *HTTPTransport {
	return &HTTPTransport{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessionID: sessionID,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

type streamRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId,omitempty"`
}

func (t *HTTPTransport) Open(ctx context.Context, query string) (io.ReadCloser, error) {
	body, err := json.Marshal(streamRequest{Query: query, SessionID: t.sessionID})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/api/chat/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.sessionID != "" {
		req.Header.Set("X-Session-Id", t.sessionID)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, upstream.ReadStatusError(resp)
	}
	return resp.Body, nil
}
