package gateway

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"unicode"
)

// ReservedRoutes are the paths the server mounts beside the proxy. A prefix
// equal to one of them would shadow it.
var ReservedRoutes = []string{
	"/resolve",
	"/stats",
	"/metrics",
	"/healthz",
	"/api-docs",
	"/openapi.yaml",
}

// ValidatePrefix reports whether prefix can be mounted on an http.ServeMux.
// It must start with "/", must not be "/" or end with "/", must not contain
// whitespace, control characters or wildcard braces, and must not be a
// reserved route.
func ValidatePrefix(prefix string) error {
	if !strings.HasPrefix(prefix, "/") || prefix == "/" || strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("%w: must start with / and not end with /: %q", ErrInvalidPrefix, prefix)
	}
	if i := strings.IndexFunc(prefix, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r) || r == '{' || r == '}'
	}); i >= 0 {
		return fmt.Errorf("%w: invalid character %q in %q", ErrInvalidPrefix, prefix[i], prefix)
	}
	if slices.Contains(ReservedRoutes, prefix) {
		return fmt.Errorf("%w: %q is a reserved route", ErrInvalidPrefix, prefix)
	}
	return nil
}

// routed reports whether mux already has a pattern for exactly path.
func routed(mux *http.ServeMux, path string) bool {
	_, pattern := mux.Handler(&http.Request{Method: http.MethodGet, URL: &url.URL{Path: path}})
	if _, rest, ok := strings.Cut(pattern, " "); ok {
		pattern = rest
	}
	return pattern == path
}
