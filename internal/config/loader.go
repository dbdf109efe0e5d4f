package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/prefixd/internal/adapters/http/gateway"
)

// Environment variable names.
const (
	EnvPrefix     = "PREFIXD_"
	EnvConfigFile = "PREFIXD_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PREFIXD_CONFIG is set
//  3. env (prefix PREFIXD_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PREFIXD_GATEWAY_ORIGIN -> gateway_origin (flat keys, underscores kept).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values that would otherwise fail at serve time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if err := gateway.ValidatePrefix(c.ProxyPrefix); err != nil {
		return fmt.Errorf("%w: proxy_prefix: %w", ErrInvalidConfig, err)
	}
	if err := validateOrigin("gateway_origin", c.GatewayOrigin); err != nil {
		return err
	}
	if c.SelfAPIOrigin != "" {
		if err := validateOrigin("self_api_origin", c.SelfAPIOrigin); err != nil {
			return err
		}
	}
	if c.UpstreamTimeoutMS <= 0 {
		return fmt.Errorf("%w: upstream_timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("%w: max_batch_size must be positive", ErrInvalidConfig)
	}
	if !metricNameRE.MatchString(c.MetricsNamespace) {
		return fmt.Errorf("%w: metrics_namespace must match %s: %q", ErrInvalidConfig, metricNameRE, c.MetricsNamespace)
	}
	if c.MetricsRefreshMS <= 0 {
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	}
	if _, err := parseLabels(c.MetricsLabels); err != nil {
		return fmt.Errorf("%w: metrics_labels: %w", ErrInvalidConfig, err)
	}
	return nil
}

// metricNameRE is the Prometheus name grammar without colons, which are
// reserved for recording rules.
var metricNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// parseLabels splits "k=v,k=v" into a map. Blank entries are ignored; keys
// must be valid label names and must not repeat.
func parseLabels(raw string) (map[string]string, error) {
	labels := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || !metricNameRE.MatchString(k) || strings.HasPrefix(k, "__") {
			return nil, fmt.Errorf("bad label %q", pair)
		}
		if _, dup := labels[k]; dup {
			return nil, fmt.Errorf("duplicate label %q", k)
		}
		labels[k] = strings.TrimSpace(v)
	}
	return labels, nil
}

// validateOrigin accepts scheme://host[:port] with an optional trailing slash.
func validateOrigin(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %s must use http or https: %q", ErrInvalidConfig, key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %s must include a host: %q", ErrInvalidConfig, key, raw)
	}
	if strings.Trim(u.Path, "/") != "" || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("%w: %s must be an origin without path or query: %q", ErrInvalidConfig, key, raw)
	}
	return nil
}
