package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/prefixd/internal/adapters/http/api"
	"github.com/okian/prefixd/internal/adapters/http/gateway"
	"github.com/okian/prefixd/internal/adapters/http/swagger"
	app "github.com/okian/prefixd/internal/app"
	"github.com/okian/prefixd/internal/config"
	"github.com/okian/prefixd/pkg/logger"
	"github.com/okian/prefixd/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	writeTimeoutSlack         = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := setupLogging(ctx, cfg); err != nil {
		os.Stderr.WriteString("failed to configure logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	loggerInstance := logger.Get()

	metrics.Init(cfg.MetricsOptions()...)

	svc := app.New(
		app.WithLogger(logger.Named("service")),
		app.WithResolverOptions(cfg.ResolverOptions()...),
	)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx, metrics.RefreshInterval())

	mux, err := buildMux(ctx, cfg, svc)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build routes", logger.Error(err))
		os.Exit(1)
	}

	srv := newHTTPServer(cfg, mux)

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Bool("proxy", cfg.EnableProxy),
			logger.String("gateway", cfg.GatewayOrigin))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// setupLogging applies the configured format and level to the global logger.
// An invalid level falls back to info.
func setupLogging(ctx context.Context, cfg *config.Config) error {
	if err := logger.InitWithOptions(logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// buildMux registers docs, the resolve API and, when enabled, the gateway
// proxy on a fresh mux.
func buildMux(ctx context.Context, cfg *config.Config, svc *app.Service) (*http.ServeMux, error) {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.MaxBatchSize).Register(ctx, mux)

	if cfg.EnableProxy {
		proxy, err := gateway.New(cfg.ProxyPrefix, cfg.GatewayOrigin,
			gateway.WithTimeout(cfg.UpstreamTimeout()),
			gateway.WithLogger(logger.Named("gateway")),
		)
		if err != nil {
			return nil, err
		}
		if err := proxy.Register(ctx, mux); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

// newHTTPServer returns the server for cfg. The write timeout leaves room for
// a full upstream round-trip through the proxy.
func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.UpstreamTimeout() + writeTimeoutSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater refreshes system metrics every interval until ctx
// is done.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Average pause across all collections so far
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
