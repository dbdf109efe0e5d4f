package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/okian/prefixd/internal/domain/resolver"
	"github.com/okian/prefixd/internal/probe"
)

// Default configuration constants.
const (
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 10 * time.Second
	defaultProbeTimeout = 2 * time.Minute
)

// pathList collects repeated -path flags.
type pathList []string

func (p *pathList) String() string     { return strings.Join(*p, ",") }
func (p *pathList) Set(v string) error { *p = append(*p, v); return nil }

func main() {
	var paths pathList
	var (
		baseURL       = flag.String("url", "http://localhost:9080", "Base URL of the service")
		proxyPrefix   = flag.String("proxy-prefix", resolver.DefaultProxyPrefix, "Proxy prefix the service runs with")
		gatewayOrigin = flag.String("gateway", resolver.DefaultGatewayOrigin, "Gateway origin the service runs with")
		selfOrigin    = flag.String("self-origin", "", "Self-API origin the service runs with")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout       = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile    = flag.String("output", "", "Write every outcome to this JSON file")
		logFile       = flag.String("log", "", "Also write logs to this file")
		verbose       = flag.Bool("verbose", false, "Log every case")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Var(&paths, "path", "Sample path probed in addition to the built-in set; repeatable")
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	if err := probe.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
	defer cancel()

	config := &probe.Config{
		BaseURL:       *baseURL,
		ProxyPrefix:   *proxyPrefix,
		GatewayOrigin: *gatewayOrigin,
		SelfAPIOrigin: *selfOrigin,
		Paths:         paths,
		Workers:       *workers,
		Timeout:       *timeout,
		OutputFile:    *outputFile,
		Verbose:       *verbose,
	}

	if _, err := probe.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
