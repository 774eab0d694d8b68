package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aladrach/chatbot/internal/analytics"
	"github.com/aladrach/chatbot/internal/api"
)

func dashboardServer(t *testing.T, user, pass string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/analytics/data":
			if r.URL.Query().Get("startDate") == "" {
				t.Error("expected a bounded range")
			}
			json.NewEncoder(w).Encode(api.DataResponse{
				Summary: &analytics.Summary{TotalInteractions: 9},
				Topics:  []analytics.TopicCount{{Topic: "General", Count: 9}},
			})
		case "/api/analytics/question":
			json.NewEncoder(w).Encode(api.QuestionResponse{Question: r.URL.Query().Get("question"), TotalCount: 1})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestClient_LoginCachesCredential(t *testing.T) {
	server := dashboardServer(t, "admin", "secret")
	defer server.Close()
	cache := NewFileCache(filepath.Join(t.TempDir(), "creds.json"))

	c := NewClient(server.URL, cache)
	c.Login("admin", "secret")
	data, err := c.Data(context.Background(), Last7Days)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Summary.TotalInteractions != 9 {
		t.Errorf("unexpected summary %+v", data.Summary)
	}

	// A new client reuses the cached credential.
	again := NewClient(server.URL, cache)
	q, err := again.Question(context.Background(), "What is Incorta?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Question != "What is Incorta?" {
		t.Errorf("unexpected question %q", q.Question)
	}
}

func TestClient_UnauthorizedClearsCache(t *testing.T) {
	server := dashboardServer(t, "admin", "secret")
	defer server.Close()
	cache := NewFileCache(filepath.Join(t.TempDir(), "creds.json"))
	if err := cache.Save("c3RhbGU6c3RhbGU="); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	c := NewClient(server.URL, cache)
	_, err := c.Data(context.Background(), Last30Days)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, ok := cache.Load(); ok {
		t.Error("rejected credential should be cleared")
	}

	_, err = c.Data(context.Background(), Last30Days)
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials after clear, got %v", err)
	}
}

func TestFileCache_Expiry(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "nested", "creds.json"))
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if err := cache.Save("token"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if got, ok := cache.Load(); !ok || got != "token" {
		t.Fatalf("expected cached token, got %q %v", got, ok)
	}

	now = now.Add(CredentialTTL)
	if _, ok := cache.Load(); ok {
		t.Error("credential should expire after the TTL")
	}
	if err := cache.Clear(); err != nil {
		t.Errorf("clear failed: %v", err)
	}
	if err := cache.Clear(); err != nil {
		t.Errorf("clearing twice should be a no-op, got %v", err)
	}
}

func TestRangeBounds(t *testing.T) {
	now := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
	start, end, ok, err := Last7Days.Bounds(now)
	if err != nil || !ok || !end.Equal(now) || !start.Equal(now.AddDate(0, 0, -7)) {
		t.Errorf("unexpected 7d bounds %v %v %v %v", start, end, ok, err)
	}
	if _, _, ok, _ := AllTime.Bounds(now); ok {
		t.Error("all time should be unbounded")
	}
	if _, _, _, err := Range("1y").Bounds(now); err == nil {
		t.Error("expected error for unknown range")
	}
}
