package driven

import (
	"context"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// FolderLister lists the direct children of a remote folder, one page at a time.
//
// Implementations own authentication, rate limiting and page sizing. They
// must include items from every storage location the user can access
// (shared drives included) and must never modify remote items.
type FolderLister interface {
	// ListPage returns the page of folderID's children addressed by pageToken.
	// An empty pageToken requests the first page. The returned page's
	// NextPageToken is empty on the last page.
	//
	// Failures worth retrying are reported as *domain.TransientListError.
	ListPage(ctx context.Context, folderID, pageToken string) (*domain.Page, error)
}

// FolderListerFunc adapts a function to FolderLister.
type FolderListerFunc func(ctx context.Context, folderID, pageToken string) (*domain.Page, error)

// ListPage calls f.
func (f FolderListerFunc) ListPage(ctx context.Context, folderID, pageToken string) (*domain.Page, error) {
	return f(ctx, folderID, pageToken)
}
