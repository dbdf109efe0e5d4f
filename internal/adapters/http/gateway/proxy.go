// Package gateway mounts the local reverse proxy that backs the proxy target:
// requests under the proxy prefix are forwarded to the gateway origin with
// the prefix removed.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/prefixd/pkg/logger"
	"github.com/okian/prefixd/pkg/metrics"
)

// RequestIDHeader carries the correlation id forwarded upstream.
const RequestIDHeader = "X-Request-ID"

// Proxy forwards prefixed requests to the gateway origin.
type Proxy struct {
	prefix    string
	origin    *url.URL
	timeout   time.Duration
	transport http.RoundTripper
	logger    logger.Logger
	rp        *httputil.ReverseProxy
}

type startKey struct{}

// New builds a Proxy for prefix (e.g. "/proxy-api") in front of origin
// (e.g. "https://gateway.chia1104.dev").
func New(prefix, origin string, opts ...Option) (*Proxy, error) {
	prefix = strings.TrimRight(prefix, "/")
	if err := ValidatePrefix(prefix); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOrigin, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrigin, origin)
	}

	p := &Proxy{
		prefix:    prefix,
		origin:    u,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Named("gateway")
	}

	p.rp = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		Transport:      p.transport,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleError,
	}
	return p, nil
}

// Prefix returns the mount prefix.
func (p *Proxy) Prefix() string { return p.prefix }

// Register mounts the proxy on mux for the prefix and everything below it.
// It fails with ErrInvalidPrefix when mux already routes either pattern.
func (p *Proxy) Register(_ context.Context, mux *http.ServeMux) error {
	if routed(mux, p.prefix) || routed(mux, p.prefix+"/") {
		return fmt.Errorf("%w: %q is already routed", ErrInvalidPrefix, p.prefix)
	}
	mux.Handle(p.prefix+"/", p)
	mux.Handle(p.prefix, p)
	return nil
}

// ServeHTTP forwards r upstream.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithValue(r.Context(), startKey{}, time.Now())
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	p.rp.ServeHTTP(w, r.WithContext(ctx))
}

// UpstreamPath strips the proxy prefix from path. Paths outside the prefix
// are returned unchanged.
func (p *Proxy) UpstreamPath(path string) string {
	rest, ok := strings.CutPrefix(path, p.prefix)
	if !ok || (rest != "" && rest[0] != '/') {
		return path
	}
	if rest == "" {
		return "/"
	}
	return rest
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.Out.URL.Path = p.UpstreamPath(pr.In.URL.Path)
	if pr.In.URL.RawPath != "" {
		pr.Out.URL.RawPath = p.UpstreamPath(pr.In.URL.RawPath)
	} else {
		pr.Out.URL.RawPath = ""
	}
	pr.SetURL(p.origin)
	pr.SetXForwarded()

	if pr.Out.Header.Get(RequestIDHeader) == "" {
		pr.Out.Header.Set(RequestIDHeader, uuid.NewString())
	}
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	metrics.RecordProxyRequest(resp.Request.Method, strconv.Itoa(resp.StatusCode), sinceMs(resp.Request.Context()))
	if id := resp.Request.Header.Get(RequestIDHeader); id != "" && resp.Header.Get(RequestIDHeader) == "" {
		resp.Header.Set(RequestIDHeader, id)
	}
	return nil
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := http.StatusBadGateway, "upstream_unreachable"
	if errors.Is(err, context.DeadlineExceeded) {
		status, kind = http.StatusGatewayTimeout, "upstream_timeout"
	} else if errors.Is(err, context.Canceled) {
		kind = "client_canceled"
	}
	metrics.RecordProxyError(kind)

	p.logger.Warn(r.Context(), "gateway request failed",
		logger.String("method", r.Method),
		logger.String("path", r.URL.Path),
		logger.String("origin", p.origin.String()),
		logger.String("kind", kind),
		logger.Error(err),
	)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"code":%q,"message":%q}`+"\n", "bad_gateway", fmt.Errorf("%w: %s", ErrUpstream, kind).Error())
}

func sinceMs(ctx context.Context) float64 {
	start, ok := ctx.Value(startKey{}).(time.Time)
	if !ok {
		return 0
	}
	return float64(time.Since(start).Microseconds()) / 1000
}
