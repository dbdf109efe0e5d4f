package resolver

import "strings"

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithProxyPrefix sets the segment prepended for the proxy target.
// Trailing slashes are dropped so the prefix concatenates with rooted paths.
func WithProxyPrefix(prefix string) Option {
	return func(r *Resolver) {
		if p := strings.TrimRight(strings.TrimSpace(prefix), "/"); p != "" {
			r.proxyPrefix = p
		}
	}
}

// WithGatewayOrigin sets the origin used for the external target.
func WithGatewayOrigin(origin string) Option {
	return func(r *Resolver) {
		if o := trimOrigin(origin); o != "" {
			r.gatewayOrigin = o
		}
	}
}

// WithSelfAPIOrigin makes self-api resolve against origin. An empty origin
// keeps self-api identical to default.
func WithSelfAPIOrigin(origin string) Option {
	return func(r *Resolver) {
		r.selfAPIOrigin = trimOrigin(origin)
	}
}

func trimOrigin(origin string) string {
	return strings.TrimRight(strings.TrimSpace(origin), "/")
}
