// Package upstream talks to the external answer service.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aladrach/chatbot/internal/answer"
)

// ErrInvalidJSON is returned when the service answers 2xx with a body that is
// not a JSON object.
var ErrInvalidJSON = errors.New("invalid upstream JSON")

// StatusError is a non-2xx reply.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type request struct {
	Query  string `json:"query"`
	Stream bool   `json:"stream"`
}

// Result is a complete answer: the body as received and its decoded view.
type Result struct {
	Body    []byte
	Payload *answer.Payload
}

// Answer asks the service for a complete, non-streamed answer.
func (c *Client) Answer(ctx context.Context, query string) (*Result, error) {
	resp, err := c.post(ctx, request{Query: query, Stream: false})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	payload, err := answer.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return &Result{Body: body, Payload: payload}, nil
}

// Stream asks for a streamed answer. The caller must close the body.
func (c *Client) Stream(ctx context.Context, query string) (io.ReadCloser, error) {
	resp, err := c.post(ctx, request{Query: query, Stream: true})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) post(ctx context.Context, reqBody request) (*http.Response, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream call: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, ReadStatusError(resp)
	}
	return resp, nil
}

// ReadStatusError drains a failed response into a StatusError.
func ReadStatusError(resp *http.Response) *StatusError {
	details, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(details)}
}
