// Package client builds and sends outbound requests whose URLs come from the
// resolver, so callers name a path and a target instead of a full URL.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/prefixd/internal/domain/resolver"
	"github.com/okian/prefixd/internal/domain/target"
	"github.com/okian/prefixd/pkg/metrics"
)

const (
	defaultTimeout  = 30 * time.Second
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 4 << 10
)

// Resolver maps a path and target to a URL.
type Resolver interface {
	Resolve(path string, t target.Target) string
}

// Client wraps http.Client with target-aware URL resolution.
type Client struct {
	http      *http.Client
	resolver  Resolver
	baseURL   *url.URL
	userAgent string
	timeout   time.Duration
}

// New creates a Client. Without options it uses the compiled-in resolver
// rules, no base URL and a 30s timeout.
func New(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		resolver: resolver.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// ResolveURL returns the absolute URL a request for path under t goes to.
func (c *Client) ResolveURL(path string, t target.Target) (string, error) {
	resolved := c.resolver.Resolve(path, t)
	u, err := url.Parse(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidURL, resolved, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if c.baseURL == nil {
		return "", fmt.Errorf("%w: %q", ErrRelativeURL, resolved)
	}
	return c.baseURL.ResolveReference(u).String(), nil
}

// NewRequest builds a request for path under t. A request id is attached.
func (c *Client) NewRequest(ctx context.Context, method, path string, t target.Target, body io.Reader) (*http.Request, error) {
	u, err := c.ResolveURL(path, t)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// Do sends a request for path under t. Any response, including non-2xx, is
// returned to the caller, who must close its body.
func (c *Client) Do(ctx context.Context, method, path string, t target.Target, body io.Reader) (*http.Response, error) {
	req, err := c.NewRequest(ctx, method, path, t, body)
	if err != nil {
		return nil, err
	}
	return c.send(req, t)
}

// GetJSON fetches path under t and decodes a 2xx JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, t target.Target, out any) error {
	req, err := c.NewRequest(ctx, http.MethodGet, path, t, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, t, out)
}

// PostJSON encodes in as the body of a POST to path under t and decodes a
// 2xx JSON response into out. out may be nil.
func (c *Client) PostJSON(ctx context.Context, path string, t target.Target, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode body: %w", ErrRequest, err)
	}
	req, err := c.NewRequest(ctx, http.MethodPost, path, t, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, t, out)
}

func (c *Client) doJSON(req *http.Request, t target.Target, out any) error {
	resp, err := c.send(req, t)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, URL: req.URL.String(), Body: string(b)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func (c *Client) send(req *http.Request, t target.Target) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordClientRequest(t.String(), "error", latency)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequest, req.Method, req.URL, err)
	}
	metrics.RecordClientRequest(t.String(), strconv.Itoa(resp.StatusCode), latency)
	return resp, nil
}
