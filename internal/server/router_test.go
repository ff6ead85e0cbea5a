package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meridian-labs/claimpilot/internal/api/handlers"
	"github.com/meridian-labs/claimpilot/internal/domain"
	"github.com/meridian-labs/claimpilot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Ingest(ctx context.Context, text string) (service.IngestResult, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(service.IngestResult), args.Error(1)
}

type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) ProcessQuery(ctx context.Context, query string, topK int) (domain.QueryResult, bool, error) {
	args := m.Called(ctx, query, topK)
	return args.Get(0).(domain.QueryResult), args.Bool(1), args.Error(2)
}

type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) Process(ctx context.Context, queries []string, topK int) (service.BatchResult, error) {
	args := m.Called(ctx, queries, topK)
	return args.Get(0).(service.BatchResult), args.Error(1)
}

type MockStatusService struct {
	mock.Mock
}

func (m *MockStatusService) Status() service.PipelineStatus {
	args := m.Called()
	return args.Get(0).(service.PipelineStatus)
}

func (m *MockStatusService) Analytics() domain.AnalyticsSnapshot {
	args := m.Called()
	return args.Get(0).(domain.AnalyticsSnapshot)
}

func (m *MockStatusService) History(limit int) []service.HistoryEntry {
	args := m.Called(limit)
	return args.Get(0).([]service.HistoryEntry)
}

func (m *MockStatusService) ResetAnalytics() {
	m.Called()
}

func newTestRouter(ingest *MockIngestService, query *MockQueryService, batch *MockBatchService, status *MockStatusService) http.Handler {
	return NewRouter(RouterConfig{
		IngestHandler:    handlers.NewIngestHandler(ingest),
		QueryHandler:     handlers.NewQueryHandler(query, batch),
		AnalyticsHandler: handlers.NewAnalyticsHandler(status),
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(new(MockIngestService), new(MockQueryService), new(MockBatchService), new(MockStatusService))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRouter_Ingest(t *testing.T) {
	ingest := new(MockIngestService)
	ingest.On("Ingest", mock.Anything, "SECTION 1: COVERAGE\nKnee surgery is covered.").Return(service.IngestResult{
		Generation:  "gen-1",
		TotalChunks: 1,
		FileSizeKB:  0.04,
	}, nil)

	router := newTestRouter(ingest, new(MockQueryService), new(MockBatchService), new(MockStatusService))

	body, _ := json.Marshal(map[string]string{
		"document": "SECTION 1: COVERAGE\nKnee surgery is covered.",
		"type":     "txt",
	})
	req := httptest.NewRequest("POST", "/ingest", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gen-1")
	ingest.AssertExpectations(t)
}

func TestRouter_Ingest_UnsupportedType(t *testing.T) {
	router := newTestRouter(new(MockIngestService), new(MockQueryService), new(MockBatchService), new(MockStatusService))

	body, _ := json.Marshal(map[string]string{"document": "text", "type": "exe"})
	req := httptest.NewRequest("POST", "/ingest", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Query(t *testing.T) {
	query := new(MockQueryService)
	query.On("ProcessQuery", mock.Anything, "knee surgery in Pune", 3).Return(domain.QueryResult{
		Query: "knee surgery in Pune",
		Decision: domain.Decision{
			Approved:    true,
			Reasoning:   "covered under surgical benefits",
			Confidence:  domain.ConfidenceHigh,
			RiskFactors: []string{},
		},
	}, false, nil)

	router := newTestRouter(new(MockIngestService), query, new(MockBatchService), new(MockStatusService))

	body, _ := json.Marshal(map[string]interface{}{"query": "knee surgery in Pune", "top_k": 3})
	req := httptest.NewRequest("POST", "/query", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "covered under surgical benefits")
	query.AssertExpectations(t)
}

func TestRouter_Query_NotReady(t *testing.T) {
	query := new(MockQueryService)
	query.On("ProcessQuery", mock.Anything, "knee surgery in Pune", 0).
		Return(domain.QueryResult{}, false, domain.ErrPipelineNotReady)

	router := newTestRouter(new(MockIngestService), query, new(MockBatchService), new(MockStatusService))

	body, _ := json.Marshal(map[string]string{"query": "knee surgery in Pune"})
	req := httptest.NewRequest("POST", "/query", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_Batch(t *testing.T) {
	batch := new(MockBatchService)
	batch.On("Process", mock.Anything, []string{"knee surgery", "heart surgery"}, 0).Return(service.BatchResult{
		Total: 2,
		Results: []service.BatchItemResult{
			{Query: "knee surgery"},
			{Query: "heart surgery"},
		},
	}, nil)

	router := newTestRouter(new(MockIngestService), new(MockQueryService), batch, new(MockStatusService))

	body, _ := json.Marshal(map[string]interface{}{"queries": []string{"knee surgery", "heart surgery"}})
	req := httptest.NewRequest("POST", "/query/batch", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	batch.AssertExpectations(t)
}

func TestRouter_Batch_EmptyQueries(t *testing.T) {
	router := newTestRouter(new(MockIngestService), new(MockQueryService), new(MockBatchService), new(MockStatusService))

	body, _ := json.Marshal(map[string]interface{}{"queries": []string{}})
	req := httptest.NewRequest("POST", "/query/batch", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Status(t *testing.T) {
	status := new(MockStatusService)
	status.On("Status").Return(service.PipelineStatus{
		State:         service.StateReady,
		Generation:    "gen-1",
		IndexedChunks: 12,
	})

	router := newTestRouter(new(MockIngestService), new(MockQueryService), new(MockBatchService), status)

	req := httptest.NewRequest("GET", "/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_setup":true`)
	status.AssertExpectations(t)
}

func TestRouter_Analytics(t *testing.T) {
	status := new(MockStatusService)
	status.On("Analytics").Return(domain.AnalyticsSnapshot{
		TotalQueries:  7,
		ApprovedCount: 4,
		RejectedCount: 3,
	})

	router := newTestRouter(new(MockIngestService), new(MockQueryService), new(MockBatchService), status)

	req := httptest.NewRequest("GET", "/analytics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_queries":7`)
	status.AssertExpectations(t)
}

func TestRouter_History(t *testing.T) {
	status := new(MockStatusService)
	status.On("History", 2).Return([]service.HistoryEntry{
		{Query: "is dental covered", Approved: false, Confidence: domain.ConfidenceHigh},
		{Query: "knee surgery claim", Approved: true, Confidence: domain.ConfidenceMedium},
	})

	router := newTestRouter(new(MockIngestService), new(MockQueryService), new(MockBatchService), status)

	req := httptest.NewRequest("GET", "/history?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
	assert.Contains(t, w.Body.String(), "is dental covered")
	status.AssertExpectations(t)
}

func TestRouter_History_InvalidLimit(t *testing.T) {
	router := newTestRouter(new(MockIngestService), new(MockQueryService), new(MockBatchService), new(MockStatusService))

	req := httptest.NewRequest("GET", "/history?limit=zero", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_AnalyticsReset(t *testing.T) {
	status := new(MockStatusService)
	status.On("ResetAnalytics").Return()

	router := newTestRouter(new(MockIngestService), new(MockQueryService), new(MockBatchService), status)

	req := httptest.NewRequest("POST", "/analytics/reset", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	status.AssertExpectations(t)
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router := newTestRouter(new(MockIngestService), new(MockQueryService), new(MockBatchService), new(MockStatusService))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
