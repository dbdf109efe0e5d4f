package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/prefixd/internal/domain/types"
	"github.com/okian/prefixd/pkg/metrics"
)

// ResolveHandler serves GET and POST /resolve.
type ResolveHandler struct {
	deps     Dependencies
	maxBatch int
}

// NewResolveHandler creates a new resolve handler.
func NewResolveHandler(deps Dependencies, maxBatch int) *ResolveHandler {
	return &ResolveHandler{deps: deps, maxBatch: maxBatch}
}

type batchRequest struct {
	Requests []types.ResolveRequest `json:"requests"`
}

type batchResponse struct {
	Results []types.Resolution `json:"results"`
}

// HandleResolve dispatches on method.
//
//	GET  /resolve?path=/api/v1/login_nonce&target=proxy
//	POST /resolve {"requests":[{"path":"...","target":"..."}]}
//
// Missing query parameters are treated as empty strings; resolution itself
// never fails.
func (h *ResolveHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		writeJSON(w, http.StatusOK, h.deps.Resolve(r.Context(), q.Get("path"), q.Get("target")))
	case http.MethodPost:
		h.handleBatch(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *ResolveHandler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if len(req.Requests) > h.maxBatch {
		metrics.RecordBatchRejected()
		writeError(w, http.StatusBadRequest, "batch_too_large",
			fmt.Errorf("%w: %d requests, limit %d", ErrBatchTooLarge, len(req.Requests), h.maxBatch))
		return
	}
	if req.Requests == nil {
		req.Requests = []types.ResolveRequest{}
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: h.deps.ResolveBatch(r.Context(), req.Requests)})
}
