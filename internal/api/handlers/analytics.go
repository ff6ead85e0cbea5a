package handlers

import (
	"net/http"
	"strconv"

	"github.com/meridian-labs/claimpilot/internal/api"
	"github.com/meridian-labs/claimpilot/internal/domain"
	"github.com/meridian-labs/claimpilot/internal/service"
)

type StatusService interface {
	Status() service.PipelineStatus
	Analytics() domain.AnalyticsSnapshot
	History(limit int) []service.HistoryEntry
	ResetAnalytics()
}

type AnalyticsHandler struct {
	svc StatusService
}

func NewAnalyticsHandler(svc StatusService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

type StatusResponse struct {
	IsSetup bool `json:"is_setup"`
	service.PipelineStatus
}

func (h *AnalyticsHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.svc.Status()
	api.Success(w, http.StatusOK, StatusResponse{
		IsSetup:        status.Generation != "",
		PipelineStatus: status,
	})
}

func (h *AnalyticsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.svc.Analytics())
}

type HistoryResponse struct {
	Total int                    `json:"total"`
	Items []service.HistoryEntry `json:"items"`
}

func (h *AnalyticsHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			api.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	items := h.svc.History(limit)
	api.Success(w, http.StatusOK, HistoryResponse{Total: len(items), Items: items})
}

func (h *AnalyticsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.svc.ResetAnalytics()
	api.Success(w, http.StatusOK, map[string]string{"status": "reset"})
}
