package driving

import (
	"context"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// CollectService walks remote folder trees.
type CollectService interface {
	// Collect returns every downloadable or exportable file under rootFolderID.
	// On error the returned collection holds the folders that completed.
	Collect(ctx context.Context, rootFolderID string) (*domain.Collection, error)
}
