package client

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the origin that relative resolutions (default, proxy and
// self-api without an origin) are joined onto. Invalid values are ignored.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		u, err := url.Parse(strings.TrimSpace(base))
		if err == nil && u.IsAbs() && u.Host != "" {
			c.baseURL = u
		}
	}
}

// WithResolver replaces the resolver used to build request URLs.
func WithResolver(r Resolver) Option {
	return func(c *Client) {
		if r != nil {
			c.resolver = r
		}
	}
}

// WithHTTPClient replaces the underlying http.Client. The client is never
// modified; WithTimeout applies to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request, whichever http.Client is in use.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}
