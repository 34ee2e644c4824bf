package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// Ensure QueryService implements the interfaces.
var (
	_ driving.QueryService = (*QueryService)(nil)
	_ driving.RunHistory   = (*QueryService)(nil)
)

// QueryConfig tunes the pipeline.
type QueryConfig struct {
	// DownloadDir receives downloaded files.
	DownloadDir string
	// Concurrency bounds parallel downloads and uploads.
	Concurrency int
	// AssistantName names assistants created for a run.
	AssistantName string
	// DocTitle is used when a request has no title.
	DocTitle string
}

// QueryConfigFromSettings derives pipeline configuration from app settings.
func QueryConfigFromSettings(s *domain.AppSettings) QueryConfig {
	return QueryConfig{
		DownloadDir:   s.DownloadDir,
		Concurrency:   s.Drive.Concurrency,
		AssistantName: domain.DefaultAssistantName,
		DocTitle:      s.Docs.Title,
	}
}

// QueryService runs the collect, download, upload, ask, write pipeline.
type QueryService struct {
	collector  driving.CollectService
	downloader driven.FileDownloader
	assistant  driven.DocumentAssistant
	writer     driven.DocumentWriter
	uploads    driven.UploadStore
	runs       driven.RunStore
	cfg        QueryConfig

	now   func() time.Time
	newID func() string
}

// NewQueryService creates the pipeline.
// The assistant, writer, uploads and runs are optional. Without an assistant
// only Collect and Download work; without a writer answers are not written
// to a document; without uploads every file is uploaded; without runs no
// history is kept.
func NewQueryService(
	collector driving.CollectService,
	downloader driven.FileDownloader,
	assistant driven.DocumentAssistant,
	writer driven.DocumentWriter,
	uploads driven.UploadStore,
	runs driven.RunStore,
	cfg QueryConfig,
) *QueryService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = domain.DefaultCollectConcurrency
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = domain.DefaultDownloadDir
	}
	if cfg.AssistantName == "" {
		cfg.AssistantName = domain.DefaultAssistantName
	}
	if cfg.DocTitle == "" {
		cfg.DocTitle = domain.DefaultDocTitle
	}
	return &QueryService{
		collector:  collector,
		downloader: downloader,
		assistant:  assistant,
		writer:     writer,
		uploads:    uploads,
		runs:       runs,
		cfg:        cfg,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Collect resolves a folder link and walks its tree.
func (s *QueryService) Collect(ctx context.Context, folderLink string) (*domain.Collection, error) {
	folderID, err := ExtractFolderID(folderLink)
	if err != nil {
		return nil, err
	}
	return s.collector.Collect(ctx, folderID)
}

// Download collects a folder link and writes every file into dir.
// An empty dir uses the configured download directory.
func (s *QueryService) Download(
	ctx context.Context,
	folderLink, dir string,
	progress driving.ProgressFunc,
) ([]domain.LocalFile, error) {
	report := safeProgress(progress)

	report(domain.ProgressEvent{Stage: domain.StageResolve, Message: folderLink})
	folderID, err := ExtractFolderID(folderLink)
	if err != nil {
		return nil, err
	}

	collection, err := s.collect(ctx, folderID, report)
	if err != nil {
		return nil, err
	}

	if dir == "" {
		dir = s.cfg.DownloadDir
	}
	files, err := s.download(ctx, collection.Files, dir, report)
	if err != nil {
		return nil, err
	}
	report(domain.ProgressEvent{Stage: domain.StageDone, Done: len(files), Total: len(files)})
	return files, nil
}

// Run executes the full pipeline for a request and records the run.
// The returned run is populated even when an error is returned.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *QueryService) Run(
	ctx context.Context,
	req domain.QueryRequest,
	progress driving.ProgressFunc,
) (run *domain.Run, err error) {
	report := safeProgress(progress)
	run = &domain.Run{
		ID:        s.newID(),
		Question:  strings.TrimSpace(req.Question),
		Status:    domain.RunStatusRunning,
		StartedAt: s.now(),
	}
	logger.Section("Query " + run.ID)

	defer func() {
		s.finish(ctx, run, err)
	}()

	// 1. Validate
	if run.Question == "" {
		return run, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if s.assistant == nil {
		return run, domain.ErrAssistantUnavailable
	}

	// 2. Resolve link
	report(domain.ProgressEvent{Stage: domain.StageResolve, Message: req.FolderLink})
	folderID, err := ExtractFolderID(req.FolderLink)
	if err != nil {
		return run, err
	}
	run.FolderID = folderID

	// 3. Collect
	collection, err := s.collect(ctx, folderID, report)
	if err != nil {
		return run, err
	}
	run.FileCount = collection.Len()

	// 4. Download
	local, err := s.download(ctx, collection.Files, s.cfg.DownloadDir, report)
	if err != nil {
		return run, err
	}

	// 5. Upload (reusing cached uploads)
	fileIDs, err := s.upload(ctx, local, report)
	if err != nil {
		return run, err
	}

	// 6. Index
	report(domain.ProgressEvent{Stage: domain.StageIndex, Total: len(fileIDs), Message: "indexing files"})
	assistantID, err := s.assistant.CreateAssistant(ctx, s.cfg.AssistantName, fileIDs)
	if err != nil {
		return run, fmt.Errorf("create assistant: %w", err)
	}
	run.AssistantID = assistantID
	if !req.KeepAssistant {
		defer s.deleteAssistant(ctx, assistantID)
	}

	// 7. Ask
	report(domain.ProgressEvent{Stage: domain.StageAsk, Message: run.Question})
	answer, err := s.assistant.Ask(ctx, assistantID, run.Question)
	if err != nil {
		return run, fmt.Errorf("ask assistant: %w", err)
	}
	run.Answer = answer

	// 8. Write
	if !req.SkipDoc {
		if s.writer == nil {
			logger.Warn("No document writer configured; answer not written")
		} else {
			title := strings.TrimSpace(req.Title)
			if title == "" {
				title = s.cfg.DocTitle
			}
			report(domain.ProgressEvent{Stage: domain.StageWrite, Message: title})
			doc, err := s.writer.Write(ctx, title, answer)
			if err != nil {
				return run, fmt.Errorf("write answer: %w", err)
			}
			run.DocURL = doc.URL
		}
	}

	report(domain.ProgressEvent{Stage: domain.StageDone, Done: run.FileCount, Total: run.FileCount})
	return run, nil
}

// NewRunHistory exposes recorded runs without wiring the pipeline.
func NewRunHistory(runs driven.RunStore) driving.RunHistory {
	return &QueryService{runs: runs}
}

// List returns the most recent runs, newest first.
func (s *QueryService) List(ctx context.Context, limit int) ([]domain.Run, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.List(ctx, limit)
}

// Get returns a single run.
func (s *QueryService) Get(ctx context.Context, id string) (*domain.Run, error) {
	if s.runs == nil {
		return nil, domain.ErrNotFound
	}
	return s.runs.Get(ctx, id)
}

func (s *QueryService) collect(
	ctx context.Context,
	folderID string,
	report driving.ProgressFunc,
) (*domain.Collection, error) {
	report(domain.ProgressEvent{Stage: domain.StageCollect, Message: folderID})
	defer logger.Timed("collect %s", folderID)()

	collection, err := s.collector.Collect(ctx, folderID)
	if err != nil {
		return collection, fmt.Errorf("collect folder %s: %w", folderID, err)
	}
	if collection.Len() == 0 {
		return collection, domain.ErrNoFiles
	}
	for _, failure := range collection.Skipped {
		logger.Warn("Skipped folder %s at depth %d: %s", failure.FolderID, failure.Depth, failure.Reason)
	}
	report(domain.ProgressEvent{
		Stage:   domain.StageCollect,
		Done:    collection.Len(),
		Total:   collection.Len(),
		Message: fmt.Sprintf("%d files in %d folders", collection.Len(), collection.FoldersVisited),
	})
	return collection, nil
}

// download writes files concurrently, keeping the result in input order.
func (s *QueryService) download(
	ctx context.Context,
	files []domain.FileDescriptor,
	dir string,
	report driving.ProgressFunc,
) ([]domain.LocalFile, error) {
	defer logger.Timed("download %d files", len(files))()
	total := len(files)
	results := make([]domain.LocalFile, total)
	var done atomic.Int64

	report(domain.ProgressEvent{Stage: domain.StageDownload, Total: total})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, file := range files {
		g.Go(func() error {
			local, err := s.downloader.Download(gctx, file, dir)
			if err != nil {
				return fmt.Errorf("download %s (%s): %w", file.Name, file.ID, err)
			}
			results[i] = *local
			n := done.Add(1)
			report(domain.ProgressEvent{Stage: domain.StageDownload, Done: int(n), Total: total, Message: file.Name})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// upload sends files to the assistant, reusing earlier uploads of the
// same Drive file. The returned ids follow the input order.
func (s *QueryService) upload(
	ctx context.Context,
	files []domain.LocalFile,
	report driving.ProgressFunc,
) ([]string, error) {
	defer logger.Timed("upload %d files", len(files))()
	total := len(files)
	ids := make([]string, total)
	var done atomic.Int64

	report(domain.ProgressEvent{Stage: domain.StageUpload, Total: total})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, file := range files {
		g.Go(func() error {
			id, err := s.uploadOne(gctx, file)
			if err != nil {
				return err
			}
			ids[i] = id
			n := done.Add(1)
			report(domain.ProgressEvent{Stage: domain.StageUpload, Done: int(n), Total: total, Message: file.File.Name})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *QueryService) uploadOne(ctx context.Context, file domain.LocalFile) (string, error) {
	if s.uploads != nil {
		record, err := s.uploads.Get(ctx, file.File.ID)
		switch {
		case err == nil:
			logger.Debug("Reusing upload %s for %s", record.AssistantFileID, file.File.Name)
			return record.AssistantFileID, nil
		case !errors.Is(err, domain.ErrNotFound):
			logger.Warn("Upload cache lookup for %s failed: %v", file.File.ID, err)
		}
	}

	id, err := s.assistant.UploadFile(ctx, file.Path)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", file.File.Name, err)
	}

	if s.uploads != nil {
		record := domain.UploadRecord{
			DriveFileID:     file.File.ID,
			AssistantFileID: id,
			Name:            file.File.Name,
			UploadedAt:      s.now(),
		}
		if err := s.uploads.Save(ctx, record); err != nil {
			logger.Warn("Failed to cache upload of %s: %v", file.File.ID, err)
		}
	}
	return id, nil
}

// deleteAssistant removes a run's assistant even if the run was cancelled.
func (s *QueryService) deleteAssistant(ctx context.Context, assistantID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := s.assistant.DeleteAssistant(ctx, assistantID); err != nil {
		logger.Warn("Failed to delete assistant %s: %v", assistantID, err)
		return
	}
	logger.Debug("Deleted assistant %s", assistantID)
}

// finish stamps the run outcome and records it.
func (s *QueryService) finish(ctx context.Context, run *domain.Run, err error) {
	run.FinishedAt = s.now()
	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
		logger.Warn("Run %s failed: %v", run.ID, err)
	} else {
		run.Status = domain.RunStatusCompleted
		logger.Info("Run %s completed in %s", run.ID, run.Duration())
	}

	if s.runs == nil {
		return
	}
	if saveErr := s.runs.Save(context.WithoutCancel(ctx), *run); saveErr != nil {
		logger.Warn("Failed to record run %s: %v", run.ID, saveErr)
	}
}

// safeProgress returns a non-nil progress callback.
func safeProgress(progress driving.ProgressFunc) driving.ProgressFunc {
	if progress == nil {
		return func(domain.ProgressEvent) {}
	}
	return progress
}
