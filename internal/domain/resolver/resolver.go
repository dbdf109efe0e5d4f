// Package resolver turns a request path plus a routing target into the URL
// a fetch call should use.
//
// Rules by target:
//
//	default   path returned unchanged
//	proxy     proxy prefix + path, concatenated as-is
//	self-api  path returned unchanged unless a self-API origin is configured
//	external  gateway origin + "/" + path with leading slashes dropped
//
// Resolution never fails and never panics. It is not idempotent for proxy
// and external: resolving an already resolved URL prefixes it again, so
// callers resolve exactly once per request.
package resolver

import (
	"strings"

	"github.com/okian/prefixd/internal/domain/target"
)

// Compiled-in routing constants.
const (
	DefaultProxyPrefix   = "/proxy-api"
	DefaultGatewayOrigin = "https://gateway.chia1104.dev"
)

// Resolver applies the per-target rewriting rules. It is immutable once
// built and safe for concurrent use.
type Resolver struct {
	proxyPrefix   string
	gatewayOrigin string
	selfAPIOrigin string
}

var std = New()

// New builds a Resolver. Without options it uses the compiled-in prefix and
// gateway origin and leaves self-api as identity.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		proxyPrefix:   DefaultProxyPrefix,
		gatewayOrigin: DefaultGatewayOrigin,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves path for the named target using the compiled-in
// constants. Unknown target names behave like default.
func Resolve(path, targetName string) string {
	return std.Resolve(path, target.Parse(targetName))
}

// Resolve returns the URL for path under t.
func (r *Resolver) Resolve(path string, t target.Target) string {
	switch t {
	case target.Proxy:
		return r.proxyPrefix + path
	case target.External:
		return joinOrigin(r.gatewayOrigin, path)
	case target.SelfAPI:
		if r.selfAPIOrigin == "" {
			return path
		}
		return joinOrigin(r.selfAPIOrigin, path)
	default:
		return path
	}
}

// ResolveName is Resolve with a target name instead of a parsed Target.
func (r *Resolver) ResolveName(path, targetName string) string {
	return r.Resolve(path, target.Parse(targetName))
}

// ProxyPrefix returns the configured proxy prefix.
func (r *Resolver) ProxyPrefix() string { return r.proxyPrefix }

// GatewayOrigin returns the configured gateway origin.
func (r *Resolver) GatewayOrigin() string { return r.gatewayOrigin }

// SelfAPIOrigin returns the configured self-API origin, empty when self-api
// is identity.
func (r *Resolver) SelfAPIOrigin() string { return r.selfAPIOrigin }

// joinOrigin joins origin and path with exactly one slash between them.
// origin never ends with a slash (options trim it).
func joinOrigin(origin, path string) string {
	return origin + "/" + strings.TrimLeft(path, "/")
}
