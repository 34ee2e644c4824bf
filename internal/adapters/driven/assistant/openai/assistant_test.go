package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// fakeAPI is an in-memory stand-in for the Assistants v2 endpoints.
type fakeAPI struct {
	t *testing.T

	mu           sync.Mutex
	uploads      map[string]string
	indexPolls   int
	runStatuses  []string
	runPolls     int
	runLastError string
	answer       string
	requests     []string
	deleted      []string
	created      map[string]any
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Assistant) {
	t.Helper()
	api := &fakeAPI{
		t:           t,
		uploads:     make(map[string]string),
		runStatuses: []string{"queued", "in_progress", "completed"},
		answer:      "The budget is $10.",
		indexPolls:  1,
	}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)

	asst, err := New(Config{
		APIKey:       "sk-test",
		BaseURL:      srv.URL + "/",
		PollInterval: time.Millisecond,
		Timeout:      5 * time.Second,
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)
	return api, asst
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, r.Method+" "+r.URL.Path)

	if r.Header.Get("Authorization") != "Bearer sk-test" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
		return
	}
	assert.Equal(a.t, "assistants=v2", r.Header.Get("OpenAI-Beta"))

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/files":
		assert.Equal(a.t, "assistants", r.FormValue("purpose"))
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(a.t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		id := "file-" + hdr.Filename
		a.uploads[id] = string(data)
		a.writeJSON(w, map[string]any{"id": id, "object": "file"})

	case r.Method == http.MethodPost && r.URL.Path == "/vector_stores":
		a.created = a.decode(r)
		a.writeJSON(w, a.vectorStore())

	case r.Method == http.MethodGet && r.URL.Path == "/vector_stores/vs_1":
		a.indexPolls--
		a.writeJSON(w, a.vectorStore())

	case r.Method == http.MethodPost && r.URL.Path == "/assistants":
		body := a.decode(r)
		assert.Equal(a.t, domain.DefaultAssistantModel, body["model"])
		resources := body["tool_resources"].(map[string]any)["file_search"].(map[string]any)
		assert.Equal(a.t, []any{"vs_1"}, resources["vector_store_ids"])
		a.writeJSON(w, map[string]any{"id": "asst_1"})

	case r.Method == http.MethodPost && r.URL.Path == "/threads/runs":
		body := a.decode(r)
		assert.Equal(a.t, "asst_1", body["assistant_id"])
		a.writeJSON(w, a.run())

	case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/runs/run_1":
		a.runPolls++
		a.writeJSON(w, a.run())

	case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/runs/run_1/cancel":
		a.writeJSON(w, a.run())

	case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/messages":
		assert.Equal(a.t, "desc", r.URL.Query().Get("order"))
		a.writeJSON(w, map[string]any{"data": []any{
			map[string]any{"role": "assistant", "content": []any{
				map[string]any{"type": "text", "text": map[string]any{"value": a.answer}},
			}},
			map[string]any{"role": "user", "content": []any{
				map[string]any{"type": "text", "text": map[string]any{"value": "question"}},
			}},
		}})

	case r.Method == http.MethodGet && r.URL.Path == "/assistants/asst_1":
		a.writeJSON(w, map[string]any{"id": "asst_1", "tool_resources": map[string]any{
			"file_search": map[string]any{"vector_store_ids": []string{"vs_1"}},
		}})

	case r.Method == http.MethodDelete:
		a.deleted = append(a.deleted, r.URL.Path)
		a.writeJSON(w, map[string]any{"deleted": true})

	case r.Method == http.MethodGet && r.URL.Path == "/models":
		a.writeJSON(w, map[string]any{"data": []any{}})

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"No such object","type":"invalid_request_error"}}`))
	}
}

func (a *fakeAPI) vectorStore() map[string]any {
	inProgress, status := 0, "completed"
	if a.indexPolls > 0 {
		inProgress, status = 2, "in_progress"
	}
	return map[string]any{
		"id":     "vs_1",
		"status": status,
		"file_counts": map[string]any{
			"in_progress": inProgress,
			"completed":   2 - inProgress,
			"total":       2,
		},
	}
}

func (a *fakeAPI) run() map[string]any {
	i := a.runPolls
	if i >= len(a.runStatuses) {
		i = len(a.runStatuses) - 1
	}
	out := map[string]any{"id": "run_1", "thread_id": "thread_1", "status": a.runStatuses[i]}
	if a.runLastError != "" {
		out["last_error"] = map[string]any{"code": "server_error", "message": a.runLastError}
	}
	return out
}

func (a *fakeAPI) decode(r *http.Request) map[string]any {
	var body map[string]any
	assert.NoError(a.t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func (a *fakeAPI) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, domain.ErrAssistantUnavailable)
}

func TestConfigFromSettings(t *testing.T) {
	s := domain.DefaultAppSettings().Assistant
	s.APIKey = "k"
	cfg := ConfigFromSettings(s)

	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, s.Model, cfg.Model)
	assert.Equal(t, s.PollInterval, cfg.PollInterval)
	assert.Equal(t, s.Timeout, cfg.Timeout)
}

func TestAssistant_EndToEnd(t *testing.T) {
	api, asst := newFakeAPI(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 report"), 0o600))

	fileID, err := asst.UploadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "file-report.pdf", fileID)
	assert.Equal(t, "%PDF-1.4 report", api.uploads[fileID])

	assistantID, err := asst.CreateAssistant(ctx, "Run", []string{fileID, "file-other"})
	require.NoError(t, err)
	assert.Equal(t, "asst_1", assistantID)
	assert.Equal(t, []any{"file-report.pdf", "file-other"}, api.created["file_ids"])
	assert.Contains(t, api.requests, "GET /vector_stores/vs_1")

	answer, err := asst.Ask(ctx, assistantID, "What is the budget?")
	require.NoError(t, err)
	assert.Equal(t, "The budget is $10.", answer)
	assert.Equal(t, 2, api.runPolls)

	require.NoError(t, asst.DeleteAssistant(ctx, assistantID))
	assert.Equal(t, []string{"/assistants/asst_1", "/vector_stores/vs_1"}, api.deleted)
}

func TestAssistant_Ask_TerminalFailures(t *testing.T) {
	for _, status := range []string{"failed", "cancelled", "expired", "incomplete", "requires_action"} {
		t.Run(status, func(t *testing.T) {
			api, asst := newFakeAPI(t)
			api.runStatuses = []string{"queued", status}
			if status == "failed" {
				api.runLastError = "model overloaded"
			}

			_, err := asst.Ask(context.Background(), "asst_1", "q")

			require.ErrorIs(t, err, domain.ErrAssistantRun)
			assert.Contains(t, err.Error(), status)
			if status == "failed" {
				assert.Contains(t, err.Error(), "model overloaded")
			}
		})
	}
}

func TestAssistant_Ask_Timeout(t *testing.T) {
	api, asst := newFakeAPI(t)
	api.runStatuses = []string{"in_progress"}
	asst.timeout = 30 * time.Millisecond
	asst.pollInterval = 5 * time.Millisecond

	_, err := asst.Ask(context.Background(), "asst_1", "q")

	require.ErrorIs(t, err, domain.ErrAssistantRun)
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Contains(t, api.requests, "POST /threads/thread_1/runs/run_1/cancel")
}

func TestAssistant_CreateAssistant_RequiresFiles(t *testing.T) {
	_, asst := newFakeAPI(t)

	_, err := asst.CreateAssistant(context.Background(), "Run", nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssistant_APIErrors(t *testing.T) {
	_, asst := newFakeAPI(t)
	asst.apiKey = "sk-wrong"

	err := asst.Ping(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid_api_key", apiErr.Code)
	assert.True(t, strings.Contains(apiErr.Error(), "Incorrect API key"))
}

func TestAssistant_DeleteMissingAssistant(t *testing.T) {
	_, asst := newFakeAPI(t)

	err := asst.DeleteAssistant(context.Background(), "asst_gone")

	assert.NoError(t, err)
}

func TestAssistant_UploadMissingFile(t *testing.T) {
	_, asst := newFakeAPI(t)

	_, err := asst.UploadFile(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))

	assert.Error(t, err)
}

func TestDecodeAPIError_PlainBody(t *testing.T) {
	err := decodeAPIError(http.StatusBadGateway, []byte("upstream down\n"))

	assert.Equal(t, "upstream down", err.Message)
	assert.False(t, IsNotFound(err))
	assert.True(t, IsNotFound(decodeAPIError(http.StatusNotFound, nil)))
}
