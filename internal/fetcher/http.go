package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultTimeout bounds a single fallback download.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBytes caps the body read by the fallback.
	DefaultMaxBytes = 20 << 20
	userAgent       = "resume-ingest/1.0"
)

// HTTPError describes a failed direct download.
type HTTPError struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *HTTPError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Cause
}

// HTTPClient implements NetworkFetcher with net/http.
type HTTPClient struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPClient builds a fallback fetcher. Zero values select defaults.
func NewHTTPClient(timeout time.Duration, maxBytes int64) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPClient{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// GetBytes downloads rawURL and returns the body.
func (c *HTTPClient) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	// Signed query strings are kept out of error messages.
	display := redactQuery(rawURL)
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &HTTPError{URL: display, Message: "invalid URL", Cause: redactCause(err, display)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &HTTPError{URL: display, Message: "failed to create request", Cause: redactCause(err, display)}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &HTTPError{URL: display, Message: "HTTP request failed", Cause: redactCause(err, display)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{
			URL:        display,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, &HTTPError{URL: display, Message: "failed to read response body", Cause: err}
	}
	if int64(len(body)) > c.maxBytes {
		return nil, &HTTPError{URL: display, Message: fmt.Sprintf("response exceeds %d bytes", c.maxBytes)}
	}
	return body, nil
}

// redactCause swaps the URL inside a *url.Error for its redacted form. The
// transport error text otherwise repeats the signed query string.
func redactCause(err error, display string) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{Op: urlErr.Op, URL: display, Err: urlErr.Err}
}

var _ NetworkFetcher = (*HTTPClient)(nil)
