// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/prefixd/internal/domain/types"
	"github.com/okian/prefixd/pkg/metrics"
)

// Default request limits.
const (
	defaultMaxBatchSize = 100
	maxBodyBytes        = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Resolve resolves one path for a target name. It never fails.
	Resolve(ctx context.Context, path, target string) types.Resolution

	// ResolveBatch resolves each request in order.
	ResolveBatch(ctx context.Context, reqs []types.ResolveRequest) []types.Resolution
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	resolveHandler *ResolveHandler
}

// NewServer creates a new API server with all handlers. maxBatch <= 0
// selects the default batch limit.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxBatch int) *Server {
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatchSize
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		resolveHandler: NewResolveHandler(deps, maxBatch),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/resolve", MetricsMiddleware(s.resolveHandler.HandleResolve, "resolve"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
