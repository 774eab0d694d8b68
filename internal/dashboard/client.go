// Package dashboard is a client for the protected analytics endpoints.
package dashboard

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aladrach/chatbot/internal/api"
)

// ErrUnauthorized means the server rejected the credential. Any cached
// credential has been cleared.
var ErrUnauthorized = errors.New("dashboard credentials rejected")

// ErrNoCredentials means neither a login nor a cached credential is available.
var ErrNoCredentials = errors.New("no dashboard credentials")

type Client struct {
	baseURL    string
	cache      CredentialCache
	credential string
	client     *http.Client
}

// NewClient builds a client. cache may be nil.
func NewClient(baseURL string, cache CredentialCache) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Login sets the credential used by the next request. It is cached only
// after the server accepts it.
func (c *Client) Login(username, password string) {
	c.credential = base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

func (c *Client) currentCredential() (string, bool) {
	if c.credential != "" {
		return c.credential, true
	}
	if c.cache != nil {
		return c.cache.Load()
	}
	return "", false
}

// Range is a preset reporting window.
type Range string

const (
	Last7Days  Range = "7d"
	Last30Days Range = "30d"
	AllTime    Range = "all"
)

// Bounds resolves the range relative to now. AllTime has no bounds.
func (r Range) Bounds(now time.Time) (start, end time.Time, ok bool, err error) {
	switch r {
	case Last7Days:
		return now.AddDate(0, 0, -7), now, true, nil
	case Last30Days:
		return now.AddDate(0, 0, -30), now, true, nil
	case AllTime, "":
		return time.Time{}, time.Time{}, false, nil
	default:
		return time.Time{}, time.Time{}, false, fmt.Errorf("unknown range %q", r)
	}
}

// Data fetches the summary and topic breakdown for the range.
func (c *Client) Data(ctx context.Context, r Range) (*api.DataResponse, error) {
	q := url.Values{}
	start, end, ok, err := r.Bounds(time.Now())
	if err != nil {
		return nil, err
	}
	if ok {
		q.Set("startDate", start.UTC().Format(time.RFC3339))
		q.Set("endDate", end.UTC().Format(time.RFC3339))
	}

	var resp api.DataResponse
	if err := c.get(ctx, "/api/analytics/data", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Question fetches the drill-down for one exact question.
func (c *Client) Question(ctx context.Context, question string) (*api.QuestionResponse, error) {
	var resp api.QuestionResponse
	if err := c.get(ctx, "/api/analytics/question", url.Values{"question": {question}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	fresh := c.credential != ""
	credential, ok := c.currentCredential()
	if !ok {
		return ErrNoCredentials
	}

	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+credential)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("dashboard call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.credential = ""
		if c.cache != nil {
			if err := c.cache.Clear(); err != nil {
				return errors.Join(ErrUnauthorized, err)
			}
		}
		return ErrUnauthorized
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dashboard error %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if fresh && c.cache != nil {
		if err := c.cache.Save(credential); err != nil {
			return err
		}
	}
	return nil
}
