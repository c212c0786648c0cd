package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MyButtermilk/Scriber-sub000/internal/api/server"
	appapi "github.com/MyButtermilk/Scriber-sub000/internal/app/api"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/provider"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/repository/sqlite"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/resilience"
	"github.com/MyButtermilk/Scriber-sub000/internal/app/worker"
)

type staticConfig struct{}

func (staticConfig) DefaultProvider() string     { return "soniox" }
func (staticConfig) FallbackProviders() []string { return []string{"mistral_async"} }

type testAPI struct {
	handler http.Handler
	ledger  *sqlite.JobStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlite.NewJobStore(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig())
	router := provider.NewRouter(staticConfig{}, breaker, nil)
	orchestrator := worker.NewOrchestrator(store, router, appapi.NewRegistry(), zap.NewNop(), worker.Config{})

	srv := server.NewServer(server.Config{}, orchestrator, store, router, nil, zap.NewNop())
	return &testAPI{handler: srv.Handler(), ledger: store}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Code int                    `json:"code"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestCreateAndGetJob(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"transcript_id": "tr-1",
		"type":          "file",
		"payload":       gin.H{"file_path": "/tmp/a.wav"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeData(t, rec)
	jobID, _ := created["id"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, "queued", created["status"])
	assert.Equal(t, "tr-1", created["transcript_id"])

	rec = api.do(t, http.MethodGet, "/api/v1/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeData(t, rec)
	assert.Equal(t, jobID, got["id"])
}

func TestCreateJob_MissingFieldsRejected(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/jobs", gin.H{"type": "file"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "transcript_id")
}

func TestCreateJob_FileWithoutPathRejected(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"transcript_id": "tr-2",
		"type":          "file",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file_path")
}

func TestCreateJob_UnknownTypeRejected(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"transcript_id": "tr-3",
		"type":          "podcast",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJob_NotFound(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/jobs/no-such-job", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelJob(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"transcript_id": "tr-4",
		"type":          "youtube",
		"payload":       gin.H{"url": "https://youtube.example/watch?v=abc"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	jobID := decodeData(t, rec)["id"].(string)

	rec = api.do(t, http.MethodDelete, "/api/v1/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "canceled", decodeData(t, rec)["status"])

	// Canceled is final.
	rec = api.do(t, http.MethodDelete, "/api/v1/jobs/"+jobID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetJobByTranscript(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
		"transcript_id": "tr-5",
		"type":          "file",
		"payload":       gin.H{"file_path": "/tmp/b.wav"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/transcripts/tr-5/job", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tr-5", decodeData(t, rec)["transcript_id"])
}

func TestListPendingJobs(t *testing.T) {
	api := newTestAPI(t)

	for _, tr := range []string{"tr-a", "tr-b"} {
		rec := api.do(t, http.MethodPost, "/api/v1/jobs", gin.H{
			"transcript_id": tr,
			"type":          "file",
			"payload":       gin.H{"file_path": "/tmp/c.wav"},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := api.do(t, http.MethodGet, "/api/v1/jobs?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)

	rec = api.do(t, http.MethodGet, "/api/v1/jobs?limit=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProviderEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "soniox")
	assert.Contains(t, rec.Body.String(), "mistral_async")

	rec = api.do(t, http.MethodGet, "/api/v1/providers/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
