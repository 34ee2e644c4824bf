package driving

import (
	"context"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// ProgressFunc receives pipeline progress events.
// It may be called from several goroutines at once and must not block for long.
type ProgressFunc func(domain.ProgressEvent)

// QueryService runs the collect, download, upload, ask, write pipeline.
type QueryService interface {
	// Run executes the full pipeline for a request and records the run.
	Run(ctx context.Context, req domain.QueryRequest, progress ProgressFunc) (*domain.Run, error)

	// Download collects a folder link and writes every file into dir.
	Download(ctx context.Context, folderLink, dir string, progress ProgressFunc) ([]domain.LocalFile, error)

	// Collect resolves a folder link and walks its tree.
	Collect(ctx context.Context, folderLink string) (*domain.Collection, error)
}

// RunHistory exposes recorded runs.
type RunHistory interface {
	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]domain.Run, error)

	// Get returns a single run.
	Get(ctx context.Context, id string) (*domain.Run, error)
}
