package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aladrach/chatbot/internal/upstream"
)

func TestHTTPTransport_Open(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/stream" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Session-Id") != "session-1" {
			t.Errorf("expected session header, got %q", r.Header.Get("X-Session-Id"))
		}
		var req streamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Query != "hello" || req.SessionID != "session-1" {
			t.Errorf("unexpected request %+v", req)
		}
		w.Write([]byte(`{"answerText":"hi"}`))
	}))
	defer server.Close()

	body, err := NewHTTPTransport(server.URL+"/", "session-1").Open(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()
	got, _ := io.ReadAll(body)
	if string(got) != `{"answerText":"hi"}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestHTTPTransport_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewHTTPTransport(server.URL, "").Open(context.Background(), "hello")
	var statusErr *upstream.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 StatusError, got %v", err)
	}
}
