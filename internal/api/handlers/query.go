package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/meridian-labs/claimpilot/internal/api"
	"github.com/meridian-labs/claimpilot/internal/domain"
	"github.com/meridian-labs/claimpilot/internal/service"
)

type QueryService interface {
	ProcessQuery(ctx context.Context, query string, topK int) (domain.QueryResult, bool, error)
}

type BatchService interface {
	Process(ctx context.Context, queries []string, topK int) (service.BatchResult, error)
}

type QueryHandler struct {
	queries QueryService
	batches BatchService
}

func NewQueryHandler(queries QueryService, batches BatchService) *QueryHandler {
	return &QueryHandler{queries: queries, batches: batches}
}

type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type QueryResponse struct {
	domain.QueryResult
	CacheHit bool `json:"cache_hit"`
}

type BatchRequest struct {
	Queries []string `json:"queries"`
	TopK    int      `json:"top_k"`
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, hit, err := h.queries.ProcessQuery(r.Context(), req.Query, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, QueryResponse{QueryResult: result, CacheHit: hit})
}

func (h *QueryHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Queries) == 0 {
		api.Error(w, http.StatusBadRequest, "queries is required")
		return
	}

	result, err := h.batches.Process(r.Context(), req.Queries, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}
