package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/meridian-labs/claimpilot/internal/api"
	"github.com/meridian-labs/claimpilot/internal/domain"
	"github.com/meridian-labs/claimpilot/internal/service"
)

type IngestService interface {
	Ingest(ctx context.Context, text string) (service.IngestResult, error)
}

type IngestHandler struct {
	svc IngestService
}

func NewIngestHandler(svc IngestService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type IngestRequest struct {
	Document string `json:"document"`
	Type     string `json:"type"`
}

type IngestResponse struct {
	service.IngestResult
	IsSetup bool `json:"is_setup"`
}

func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Document == "" {
		api.Error(w, http.StatusBadRequest, "document is required")
		return
	}
	if !isSupportedDocType(req.Type) {
		api.HandleError(w, domain.ErrUnsupportedDocType)
		return
	}

	result, err := h.svc.Ingest(r.Context(), req.Document)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, IngestResponse{IngestResult: result, IsSetup: true})
}

func isSupportedDocType(docType string) bool {
	switch strings.ToLower(docType) {
	case "", "txt", "text", "md":
		return true
	default:
		return false
	}
}
