package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/prefixd/internal/adapters/http/client"
	"github.com/okian/prefixd/internal/domain/resolver"
	"github.com/okian/prefixd/internal/domain/target"
	"github.com/okian/prefixd/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	reportPermission    = 0600
)

// Run executes a complete probe against config.BaseURL.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting resolve probe",
		logger.String("baseURL", config.BaseURL),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	c := client.New(
		client.WithBaseURL(config.BaseURL),
		client.WithTimeout(config.Timeout),
		client.WithUserAgent("resolve-probe"),
	)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, c); err != nil {
		return stats, err
	}

	// Step 2: Build cases from the locally configured rules
	ref := resolver.New(
		resolver.WithProxyPrefix(config.ProxyPrefix),
		resolver.WithGatewayOrigin(config.GatewayOrigin),
		resolver.WithSelfAPIOrigin(config.SelfAPIOrigin),
	)
	cases := BuildCases(ref, config.Paths)
	stats.CasesGenerated = len(cases)

	// Step 3: Submit concurrently
	outcomes := submitCases(ctx, config, c, cases, stats)

	// Step 4: Save report
	if config.OutputFile != "" {
		if err := saveReport(ctx, config.OutputFile, outcomes); err != nil {
			logger.Get().Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	// Step 5: Verify
	err := verifyResults(ctx, outcomes, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	return stats, err
}

// checkServiceHealth verifies the service is answering.
func checkServiceHealth(ctx context.Context, c *client.Client) error {
	resp, err := c.Do(ctx, http.MethodGet, "/healthz", target.SelfAPI, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// The service answers health checks with its metrics exposition.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check status %d", ErrUnreachable, resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveReport writes every outcome as a JSON array.
func saveReport(ctx context.Context, filename string, outcomes []Outcome) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), reportPermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Get().Info(ctx, "report saved", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var casesPerSecond float64
	if stats.Duration > 0 {
		casesPerSecond = float64(stats.CasesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("casesGenerated", stats.CasesGenerated),
		logger.Int("casesSubmitted", stats.CasesSubmitted),
		logger.Int("matched", stats.Matched),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("casesPerSecond", casesPerSecond))
}
