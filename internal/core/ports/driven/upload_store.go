package driven

import (
	"context"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// UploadStore caches which Drive files have already been uploaded to the assistant.
type UploadStore interface {
	// Save records an upload, replacing any previous record for the Drive file.
	Save(ctx context.Context, record domain.UploadRecord) error

	// Get returns the upload record for a Drive file.
	// Returns domain.ErrNotFound if the file was never uploaded.
	Get(ctx context.Context, driveFileID string) (*domain.UploadRecord, error)

	// Delete forgets an upload.
	Delete(ctx context.Context, driveFileID string) error
}
