package driven

import (
	"context"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// FileDownloader writes remote files to local storage.
// Exportable files are converted to their export target first.
type FileDownloader interface {
	// Download writes file into destDir and returns where it was written.
	Download(ctx context.Context, file domain.FileDescriptor, destDir string) (*domain.LocalFile, error)
}
