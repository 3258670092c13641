package profilestats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultGitHubBaseURL     = "https://api.github.com"
	DefaultLeetCodeBaseURL   = "https://leetcode-stats-api.herokuapp.com"
	DefaultCodeforcesBaseURL = "https://codeforces.com"

	// maxBodyBytes guards against an upstream streaming an unbounded body.
	maxBodyBytes = 4 << 20
)

var (
	// ErrUpstreamStatus wraps non-2xx responses.
	ErrUpstreamStatus = errors.New("upstream returned non-success status")
	// ErrMalformedPayload covers bodies that decode but lack required fields.
	ErrMalformedPayload = errors.New("malformed upstream payload")

	errEmptyStatistics = errors.New("fetcher returned no statistics")
)

type panicError struct{ value any }

func (e *panicError) Error() string { return fmt.Sprintf("fetcher panicked: %v", e.value) }

// HTTPConfig configures the live fetchers built by NewDefault.
type HTTPConfig struct {
	Client            *http.Client
	Timeout           time.Duration
	GitHubBaseURL     string
	GitHubToken       string
	LeetCodeBaseURL   string
	CodeforcesBaseURL string
}

func (c HTTPConfig) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// getJSON issues a GET and decodes a 2xx JSON body into v.
func getJSON(ctx context.Context, client *http.Client, url string, header http.Header, v any) error {
	return fetchJSON(ctx, client, url, header, v, false)
}

// getEnvelope decodes the body into v whatever the status, for APIs that
// report failures as a JSON envelope on a 4xx. A non-2xx body that does not
// decode is still ErrUpstreamStatus.
func getEnvelope(ctx context.Context, client *http.Client, url string, v any) error {
	return fetchJSON(ctx, client, url, nil, v, true)
}

func fetchJSON(ctx context.Context, client *http.Client, url string, header http.Header, v any, anyStatus bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "portfolio-profile-stats")
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if !ok && !anyStatus {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("get %s: %w: %d", url, ErrUpstreamStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(v); err != nil {
		if !ok {
			return fmt.Errorf("get %s: %w: %d", url, ErrUpstreamStatus, resp.StatusCode)
		}
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
