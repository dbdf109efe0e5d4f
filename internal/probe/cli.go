package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/prefixd/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging initializes the global logger on stdout, and additionally on
// logFile when it is non-empty.
func SetupLogging(logFile string, verbose bool) error {
	var w io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
	}

	if err := logger.InitWithOptions(logger.WithWriter(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`prefixd resolve probe
=====================

Checks a running prefixd service against the local resolution rules.

Usage:
  go run ./cmd/resolve-probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -proxy-prefix string
        Proxy prefix the service runs with (default "/proxy-api")
  -gateway string
        Gateway origin the service runs with (default "https://gateway.chia1104.dev")
  -self-origin string
        Self-API origin the service runs with (default "")
  -path value
        Sample path probed in addition to the built-in set; repeatable
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -output string
        Write every outcome to this JSON file
  -log string
        Also write logs to this file
  -verbose
        Log every case
  -help
        Show this help message

Exit status is 1 when any case mismatches or fails.
`)
}
