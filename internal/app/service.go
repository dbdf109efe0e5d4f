// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/prefixd/internal/domain/resolver"
	"github.com/okian/prefixd/internal/domain/target"
	"github.com/okian/prefixd/internal/domain/types"
	"github.com/okian/prefixd/pkg/logger"
	"github.com/okian/prefixd/pkg/metrics"
)

// Service implements the API dependencies for path resolution.
type Service struct {
	mu sync.RWMutex

	// Core components
	resolver *resolver.Resolver

	// Configuration
	resolverOpts []resolver.Option

	// State
	started bool
	counts  [len(targetNames)]atomic.Int64

	// Logging
	logger logger.Logger
}

// targetNames indexes the per-target counters.
var targetNames = [...]string{
	target.Default:  target.NameDefault,
	target.Proxy:    target.NameProxy,
	target.SelfAPI:  target.NameSelfAPI,
	target.External: target.NameExternal,
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResolverOptions configures the resolver built at Start.
func WithResolverOptions(opts ...resolver.Option) Option {
	return func(s *Service) {
		s.resolverOpts = append(s.resolverOpts, opts...)
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the resolver. Calling Start on a started service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.resolver = resolver.New(s.resolverOpts...)
	s.started = true

	s.logger.Info(ctx, "resolver service started",
		logger.String("proxyPrefix", s.resolver.ProxyPrefix()),
		logger.String("gatewayOrigin", s.resolver.GatewayOrigin()),
		logger.String("selfAPIOrigin", s.resolver.SelfAPIOrigin()),
	)

	return nil
}

// Stop marks the service stopped. Resolve keeps answering with the last
// resolver so in-flight requests drain cleanly.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "resolver service stopped")
}

// Resolver returns the active resolver, or the compiled-in one before Start.
func (s *Service) Resolver() *resolver.Resolver {
	s.mu.RLock()
	r := s.resolver
	s.mu.RUnlock()

	if r == nil {
		return resolver.New(s.resolverOpts...)
	}
	return r
}

// Resolve resolves path for the named target. Unknown names resolve like
// default and are reported as such.
func (s *Service) Resolve(ctx context.Context, path, targetName string) types.Resolution {
	s.mu.RLock()
	lg := s.logger
	s.mu.RUnlock()

	t := target.Parse(targetName)
	url := s.Resolver().Resolve(path, t)

	s.counts[t].Add(1)
	metrics.RecordResolution(t.String())

	if lg != nil {
		lg.Debug(ctx, "resolved path",
			logger.String("path", path),
			logger.String("target", t.String()),
			logger.String("url", url),
		)
	}

	return types.Resolution{Path: path, Target: t.String(), URL: url}
}

// ResolveBatch resolves every request in order.
func (s *Service) ResolveBatch(ctx context.Context, reqs []types.ResolveRequest) []types.Resolution {
	out := make([]types.Resolution, len(reqs))
	for i, req := range reqs {
		out[i] = s.Resolve(ctx, req.Path, req.Target)
	}
	metrics.RecordBatchSize(len(reqs))
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	r := s.Resolver()
	resolutions := make(map[string]int64, len(targetNames))
	var total int64
	for i, name := range targetNames {
		n := s.counts[i].Load()
		resolutions[name] = n
		total += n
	}

	return map[string]interface{}{
		"started":          started,
		"proxyPrefix":      r.ProxyPrefix(),
		"gatewayOrigin":    r.GatewayOrigin(),
		"selfAPIOrigin":    r.SelfAPIOrigin(),
		"resolutions":      resolutions,
		"resolutionsTotal": total,
	}
}
