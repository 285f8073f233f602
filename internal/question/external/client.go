package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	userAgent      = "superover-questions/1.0"
	defaultTimeout = 5 * time.Second
	// maxBatch is the largest page either provider serves in one request.
	maxBatch = 50
)

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether retrying later might succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// upstream holds what both provider clients share.
type upstream struct {
	provider   string
	baseURL    string
	httpClient *http.Client
	header     http.Header
}

func newUpstream(provider, baseURL, fallbackURL string, httpClient *http.Client) upstream {
	if baseURL == "" {
		baseURL = fallbackURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return upstream{
		provider:   provider,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		header:     http.Header{},
	}
}

// getJSON issues GET baseURL+path?query and decodes the body into out.
func (u upstream) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := u.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", u.provider, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range u.header {
		req.Header[k] = v
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", u.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &StatusError{Provider: u.provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", u.provider, err)
	}
	return nil
}

func clampBatch(amount int) int {
	switch {
	case amount < 1:
		return 1
	case amount > maxBatch:
		return maxBatch
	default:
		return amount
	}
}
