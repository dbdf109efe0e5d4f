// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and PREFIXD_* env vars.
// - External errors must be wrapped via this package's sentinel errors.
package config

import (
	"time"

	"github.com/okian/prefixd/internal/domain/resolver"
	"github.com/okian/prefixd/pkg/metrics"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ProxyPrefix is the segment prepended for the proxy target and the
	// mount point of the local reverse proxy.
	ProxyPrefix string `koanf:"proxy_prefix"`

	// GatewayOrigin is the external gateway used for the external target
	// and as the reverse proxy upstream.
	GatewayOrigin string `koanf:"gateway_origin"`

	// SelfAPIOrigin, when set, makes self-api resolve to an absolute URL.
	SelfAPIOrigin string `koanf:"self_api_origin"`

	// EnableProxy mounts the reverse proxy under ProxyPrefix.
	EnableProxy bool `koanf:"enable_proxy"`

	// UpstreamTimeoutMS bounds one round-trip to the gateway.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// MaxBatchSize caps POST /resolve request lists.
	MaxBatchSize int `koanf:"max_batch_size"`

	// MetricsEnabled turns metric recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace prefixes every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsRefreshMS is how often runtime gauges are sampled.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`

	// MetricsLabels are constant labels for every metric, as "k=v,k=v".
	MetricsLabels string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		ProxyPrefix:       resolver.DefaultProxyPrefix,
		GatewayOrigin:     resolver.DefaultGatewayOrigin,
		SelfAPIOrigin:     "",
		EnableProxy:       true,
		UpstreamTimeoutMS: 15_000,
		MaxBatchSize:      100,
		MetricsEnabled:    true,
		MetricsNamespace:  metrics.DefaultNamespace,
		MetricsRefreshMS:  10_000,
		MetricsLabels:     "",
	}
}

// UpstreamTimeout returns UpstreamTimeoutMS as a duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// ResolverOptions returns the resolver options this config describes.
func (c *Config) ResolverOptions() []resolver.Option {
	return []resolver.Option{
		resolver.WithProxyPrefix(c.ProxyPrefix),
		resolver.WithGatewayOrigin(c.GatewayOrigin),
		resolver.WithSelfAPIOrigin(c.SelfAPIOrigin),
	}
}

// MetricsOptions returns the metrics manager options this config describes.
// Call it on a validated Config; malformed labels are skipped.
func (c *Config) MetricsOptions() []metrics.Option {
	labels, _ := parseLabels(c.MetricsLabels)
	return []metrics.Option{
		metrics.WithEnabled(c.MetricsEnabled),
		metrics.WithNamespace(c.MetricsNamespace),
		metrics.WithRefreshInterval(time.Duration(c.MetricsRefreshMS) * time.Millisecond),
		metrics.WithConstLabels(labels),
	}
}
