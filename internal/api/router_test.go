// Package api_test tests the HTTP surface against in-memory backends.
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise-voice/tts-service/internal/api"
	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
	"github.com/enterprise-voice/tts-service/internal/queue/memqueue"
	"github.com/enterprise-voice/tts-service/internal/status"
	"github.com/enterprise-voice/tts-service/internal/store/memstore"
	"github.com/enterprise-voice/tts-service/internal/submit"
)

type fixture struct {
	store  *memstore.Store
	queue  *memqueue.Queue
	router *gin.Engine
}

func createTestRouter(t *testing.T) *fixture {
	t.Helper()

	gin.SetMode(gin.TestMode)

	store := memstore.New(time.Hour)
	workQueue := memqueue.New(64)

	testLogger, err := logger.New(t.TempDir(), "test-log.log")
	require.NoError(t, err)

	submitService := submit.NewService(store, workQueue, testLogger)
	statusService := status.NewService(store, "/output")
	server := api.NewServer(submitService, statusService, store, testLogger)

	return &fixture{
		store:  store,
		queue:  workQueue,
		router: server.Router(t.TempDir()),
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))

	return recorder, decoded
}

func TestSpeech_QueuesJob(t *testing.T) {
	t.Parallel()

	fx := createTestRouter(t)

	recorder, body := doJSON(t, fx.router, http.MethodPost, "/api/v1/speech", gin.H{
		"voice_id": "en-US-GuyNeural",
		"text":     "Hello from the API",
	})

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "processing", body["status"])
	assert.NotEmpty(t, body["job_id"])

	jobID, ok := body["job_id"].(string)
	require.True(t, ok)

	stored, err := fx.store.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusPending, stored.Status)

	queued, err := fx.queue.Pop(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, jobID, queued.ID)
}

func TestSpeech_InvalidVoiceListsChoices(t *testing.T) {
	t.Parallel()

	fx := createTestRouter(t)

	recorder, body := doJSON(t, fx.router, http.MethodPost, "/api/v1/speech", gin.H{
		"voice_id": "no-such-voice",
		"text":     "Hello",
	})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, body["error"], "invalid voice_id")

	choices, ok := body["available_voices"].([]any)
	require.True(t, ok)
	assert.Len(t, choices, 10)
}

func TestSpeech_MalformedBodyRejected(t *testing.T) {
	t.Parallel()

	fx := createTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/speech", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	fx.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestPDFConvert_QueuesJob(t *testing.T) {
	t.Parallel()

	fx := createTestRouter(t)

	recorder, body := doJSON(t, fx.router, http.MethodPost, "/api/v1/pdf/convert", gin.H{
		"input_file": "upload-123.pdf",
	})

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["job_id"])
}

func TestBatchConvert_QueuesAllItems(t *testing.T) {
	t.Parallel()

	fx := createTestRouter(t)

	recorder, body := doJSON(t, fx.router, http.MethodPost, "/api/v1/batch/convert", gin.H{
		"voice_id": "en-US-JennyNeural",
		"items": []gin.H{
			{"text": "first"},
			{"text": "second"},
			{"text": "third", "voice_id": "en-GB-RyanNeural"},
		},
	})

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["batch_id"])
	assert.InDelta(t, 3, body["total_items"], 0)

	jobIDs, ok := body["job_ids"].([]any)
	require.True(t, ok)
	assert.Len(t, jobIDs, 3)
}

func TestJobStatus_ReportsLifecycle(t *testing.T) {
	t.Parallel()

	fx := createTestRouter(t)
	ctx := context.Background()

	completed := job.NewText("en-US-GuyNeural", "done", 0, "")
	completed.MarkProcessing(10, time.Now().Add(time.Minute).UTC())
	completed.MarkCompleted(1.25, 2048, time.Now().UTC())
	require.NoError(t, fx.store.Create(ctx, completed))

	recorder, body := doJSON(t, fx.router, http.MethodGet, "/api/v1/jobs/"+completed.ID, nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, string(job.StatusCompleted), body["status"])
	assert.InDelta(t, 100, body["progress"], 0)

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/output/"+completed.OutputFilename, result["audio_url"])
	assert.InDelta(t, 1.25, result["duration"], 0.001)
}

func TestJobStatus_UnknownJobIs404(t *testing.T) {
	t.Parallel()

	fx := createTestRouter(t)

	recorder, body := doJSON(t, fx.router, http.MethodGet, "/api/v1/jobs/does-not-exist", nil)

	require.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "Job not found", body["error"])
}

func TestVoices_ListsCatalog(t *testing.T) {
	t.Parallel()

	fx := createTestRouter(t)

	recorder, body := doJSON(t, fx.router, http.MethodGet, "/api/v1/voices", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.InDelta(t, 10, body["count"], 0)

	voices, ok := body["voices"].([]any)
	require.True(t, ok)
	assert.Len(t, voices, 10)
}

func TestAnalytics_ReportsStoredCounters(t *testing.T) {
	t.Parallel()

	fx := createTestRouter(t)
	ctx := context.Background()

	require.NoError(t, fx.store.IncrCounter(ctx, core.CounterTotalJobs))
	require.NoError(t, fx.store.IncrCounter(ctx, core.CounterTotalJobs))
	require.NoError(t, fx.store.IncrCounter(ctx, core.CounterCompletedJobs))

	recorder, body := doJSON(t, fx.router, http.MethodGet, "/api/v1/analytics", nil)

	require.Equal(t, http.StatusOK, recorder.Code)

	stats, ok := body["stats"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 2, stats[core.CounterTotalJobs], 0)
	assert.InDelta(t, 1, stats[core.CounterCompletedJobs], 0)
	assert.InDelta(t, 0, stats[core.CounterFailedJobs], 0)
}

func TestHealth_ReportsHealthy(t *testing.T) {
	t.Parallel()

	fx := createTestRouter(t)

	recorder, body := doJSON(t, fx.router, http.MethodGet, "/api/v1/health", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["store"])
}
