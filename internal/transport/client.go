// Package transport checks for and retrieves remote catalog resources over
// HTTP. Every request is wrapped in a bounded retry loop that absorbs
// connection failures; once the attempts run out the call fails for good and
// is not retried at a higher level.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

// ErrAttemptsExhausted is returned when every attempt of a request failed.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// StatusError reports a response with an unexpected status code.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP status %d", e.URL, e.StatusCode)
}

// Client talks to the catalog's web server.
type Client struct {
	http        *http.Client
	maxAttempts int
	delay       time.Duration
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for retry messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client configured from cfg.Retry and cfg.HTTP.
func New(cfg types.Config, opts ...Option) *Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.HTTP.InsecureSkipVerify {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for hosts with broken certificate chains
	}
	c := &Client{
		http:        &http.Client{Timeout: cfg.HTTP.Timeout, Transport: tr},
		maxAttempts: cfg.Retry.MaxAttempts,
		delay:       cfg.Retry.Delay,
		logger:      slog.Default(),
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 1
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Exists reports whether url answers a HEAD request with 200 OK. When every
// attempt fails with a transport error it reports false, so persistent
// network failure is indistinguishable from absence.
func (c *Client) Exists(ctx context.Context, url string) bool {
	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		c.logger.DebugContext(ctx, "existence check failed", "url", url, "error", err)
		return false
	}
	drain(resp)
	return resp.StatusCode == http.StatusOK
}

// Fetch returns the body of url.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := c.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}

// Open starts a GET of url and returns the body for streaming. The caller
// must close it.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

// do sends one request, retrying transport errors and 5xx responses up to
// maxAttempts times with a fixed delay between attempts.
func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, fmt.Errorf("building request for %s: %w", url, err)
		}
		resp, err := c.http.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode >= 500:
			drain(resp)
			lastErr = &StatusError{URL: url, StatusCode: resp.StatusCode}
		default:
			return resp, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.DebugContext(ctx, "request failed, retrying",
			"method", method, "url", url, "attempt", attempt, "error", lastErr)
		if attempt < c.maxAttempts && c.delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.delay):
			}
		}
	}
	return nil, fmt.Errorf("%s %s: %w after %d attempts: %w", method, url, ErrAttemptsExhausted, c.maxAttempts, lastErr)
}

// drain reads and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
