package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// Ensure Assistant implements the interface.
var _ driven.DocumentAssistant = (*Assistant)(nil)

// Config holds configuration for the OpenAI assistant.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the assistant model (default: gpt-4o-mini).
	Model string

	// Instructions is the assistant system prompt.
	Instructions string

	// PollInterval is the delay between status checks (default: 2s).
	PollInterval time.Duration

	// Timeout bounds vector store indexing and a single Ask (default: 10m).
	Timeout time.Duration

	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client
}

// ConfigFromSettings builds a Config from assistant settings.
func ConfigFromSettings(s domain.AssistantSettings) Config {
	return Config{
		APIKey:       s.APIKey,
		BaseURL:      s.BaseURL,
		Model:        s.Model,
		Instructions: s.Instructions,
		PollInterval: s.PollInterval,
		Timeout:      s.Timeout,
	}
}

// Assistant answers questions over uploaded PDFs.
type Assistant struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	model        string
	instructions string
	pollInterval time.Duration
	timeout      time.Duration
}

// New creates a new OpenAI assistant adapter.
func New(cfg Config) (*Assistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required", domain.ErrAssistantUnavailable)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = domain.DefaultAssistantModel
	}
	if cfg.Instructions == "" {
		cfg.Instructions = domain.DefaultAssistantInstructions
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = domain.DefaultAssistantPoll
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = domain.DefaultAssistantTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultRequestTimeout}
	}

	return &Assistant{
		client:       cfg.HTTPClient,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		instructions: cfg.Instructions,
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
	}, nil
}

type fileObject struct {
	ID string `json:"id"`
}

// UploadFile uploads a local file with purpose "assistants".
func (s *Assistant) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("write purpose: %w", err)
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/files", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out fileObject
	if err := s.send(req, &out); err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	logger.Debug("Uploaded %s as %s", filepath.Base(path), out.ID)
	return out.ID, nil
}

type vectorStore struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	FileCounts struct {
		InProgress int `json:"in_progress"`
		Completed  int `json:"completed"`
		Failed     int `json:"failed"`
		Cancelled  int `json:"cancelled"`
		Total      int `json:"total"`
	} `json:"file_counts"`
}

type assistantObject struct {
	ID            string `json:"id"`
	ToolResources struct {
		FileSearch struct {
			VectorStoreIDs []string `json:"vector_store_ids"`
		} `json:"file_search"`
	} `json:"tool_resources"`
}

// CreateAssistant indexes fileIDs into a new vector store and creates a
// file_search assistant bound to it.
func (s *Assistant) CreateAssistant(ctx context.Context, name string, fileIDs []string) (string, error) {
	if len(fileIDs) == 0 {
		return "", fmt.Errorf("%w: no files to index", domain.ErrInvalidInput)
	}

	var store vectorStore
	err := s.do(ctx, http.MethodPost, "/vector_stores", map[string]any{
		"name":     name,
		"file_ids": fileIDs,
	}, &store)
	if err != nil {
		return "", fmt.Errorf("create vector store: %w", err)
	}

	if err := s.waitForIndexing(ctx, &store); err != nil {
		s.deleteVectorStore(context.WithoutCancel(ctx), store.ID)
		return "", err
	}
	if store.FileCounts.Failed > 0 {
		logger.Warn("Vector store %s: %d of %d files failed to index",
			store.ID, store.FileCounts.Failed, store.FileCounts.Total)
	}

	var asst assistantObject
	err = s.do(ctx, http.MethodPost, "/assistants", map[string]any{
		"name":         name,
		"model":        s.model,
		"instructions": s.instructions,
		"tools":        []map[string]string{{"type": "file_search"}},
		"tool_resources": map[string]any{
			"file_search": map[string]any{"vector_store_ids": []string{store.ID}},
		},
	}, &asst)
	if err != nil {
		s.deleteVectorStore(context.WithoutCancel(ctx), store.ID)
		return "", fmt.Errorf("create assistant: %w", err)
	}
	logger.Info("Created assistant %s with vector store %s (%d files)", asst.ID, store.ID, len(fileIDs))
	return asst.ID, nil
}

func (s *Assistant) waitForIndexing(ctx context.Context, store *vectorStore) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for store.FileCounts.InProgress > 0 || store.Status == "in_progress" {
		if err := s.sleep(ctx); err != nil {
			return fmt.Errorf("index vector store %s: %w", store.ID, err)
		}
		if err := s.do(ctx, http.MethodGet, "/vector_stores/"+store.ID, nil, store); err != nil {
			return fmt.Errorf("poll vector store: %w", err)
		}
		logger.Debug("Vector store %s: %d/%d indexed", store.ID, store.FileCounts.Completed, store.FileCounts.Total)
	}
	if store.Status == "expired" {
		return fmt.Errorf("%w: vector store %s expired", domain.ErrAssistantRun, store.ID)
	}
	return nil
}

type run struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
	IncompleteDetails *struct {
		Reason string `json:"reason"`
	} `json:"incomplete_details"`
}

// Run statuses that end polling without an answer.
var failedStatuses = map[string]bool{
	"failed":          true,
	"cancelled":       true,
	"expired":         true,
	"incomplete":      true,
	"requires_action": true,
}

type messageList struct {
	Data []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// Ask runs the question on a new thread and returns the assistant's reply.
func (s *Assistant) Ask(ctx context.Context, assistantID, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var r run
	err := s.do(ctx, http.MethodPost, "/threads/runs", map[string]any{
		"assistant_id": assistantID,
		"thread": map[string]any{
			"messages": []map[string]string{{"role": "user", "content": question}},
		},
	}, &r)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	for r.Status != "completed" {
		if failedStatuses[r.Status] {
			return "", runError(&r)
		}
		err := s.sleep(ctx)
		if err == nil {
			err = s.do(ctx, http.MethodGet, "/threads/"+r.ThreadID+"/runs/"+r.ID, nil, &r)
		}
		if err != nil {
			if ctx.Err() != nil {
				s.cancelRun(context.WithoutCancel(ctx), &r)
				return "", fmt.Errorf("wait for run %s: %w", r.ID, s.doneError(ctx))
			}
			return "", fmt.Errorf("poll run: %w", err)
		}
		logger.Debug("Run %s: %s", r.ID, r.Status)
	}

	q := url.Values{"order": {"desc"}, "run_id": {r.ID}}
	var msgs messageList
	if err := s.do(ctx, http.MethodGet, "/threads/"+r.ThreadID+"/messages?"+q.Encode(), nil, &msgs); err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}
	for _, m := range msgs.Data {
		if m.Role != "assistant" {
			continue
		}
		var parts []string
		for _, c := range m.Content {
			if c.Type == "text" {
				parts = append(parts, c.Text.Value)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n"), nil
		}
	}
	return "", fmt.Errorf("%w: run %s returned no assistant text", domain.ErrAssistantRun, r.ID)
}

func runError(r *run) error {
	switch {
	case r.LastError != nil:
		return fmt.Errorf("%w: run %s %s: %s", domain.ErrAssistantRun, r.ID, r.Status, r.LastError.Message)
	case r.IncompleteDetails != nil:
		return fmt.Errorf("%w: run %s %s: %s", domain.ErrAssistantRun, r.ID, r.Status, r.IncompleteDetails.Reason)
	default:
		return fmt.Errorf("%w: run %s %s", domain.ErrAssistantRun, r.ID, r.Status)
	}
}

func (s *Assistant) cancelRun(ctx context.Context, r *run) {
	path := "/threads/" + r.ThreadID + "/runs/" + r.ID + "/cancel"
	if err := s.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		logger.Warn("Failed to cancel run %s: %v", r.ID, err)
	}
}

// DeleteAssistant deletes the assistant and the vector stores it owns.
func (s *Assistant) DeleteAssistant(ctx context.Context, assistantID string) error {
	var asst assistantObject
	if err := s.do(ctx, http.MethodGet, "/assistants/"+assistantID, nil, &asst); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("get assistant: %w", err)
	}
	if err := s.do(ctx, http.MethodDelete, "/assistants/"+assistantID, nil, nil); err != nil && !IsNotFound(err) {
		return fmt.Errorf("delete assistant: %w", err)
	}
	for _, id := range asst.ToolResources.FileSearch.VectorStoreIDs {
		s.deleteVectorStore(ctx, id)
	}
	logger.Debug("Deleted assistant %s", assistantID)
	return nil
}

func (s *Assistant) deleteVectorStore(ctx context.Context, id string) {
	if err := s.do(ctx, http.MethodDelete, "/vector_stores/"+id, nil, nil); err != nil && !IsNotFound(err) {
		logger.Warn("Failed to delete vector store %s: %v", id, err)
	}
}

// Ping validates the API key against the /models endpoint.
func (s *Assistant) Ping(ctx context.Context) error {
	if err := s.do(ctx, http.MethodGet, "/models", nil, nil); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

func (s *Assistant) sleep(ctx context.Context) error {
	t := time.NewTimer(s.pollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return s.doneError(ctx)
	case <-t.C:
		return nil
	}
}

// doneError maps an ended context to the error callers see. Deadlines
// become ErrAssistantRun; cancellation is returned as is.
func (s *Assistant) doneError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: timed out after %s", domain.ErrAssistantRun, s.timeout)
	}
	return ctx.Err()
}
