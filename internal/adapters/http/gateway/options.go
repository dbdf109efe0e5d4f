package gateway

import (
	"net/http"
	"time"

	"github.com/okian/prefixd/pkg/logger"
)

// Option applies a configuration option to the Proxy.
type Option func(*Proxy)

// WithLogger sets the logger used for upstream failures.
func WithLogger(l logger.Logger) Option {
	return func(p *Proxy) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTransport replaces the upstream round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Proxy) {
		if rt != nil {
			p.transport = rt
		}
	}
}

// WithTimeout bounds one upstream round-trip. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *Proxy) {
		p.timeout = d
	}
}
