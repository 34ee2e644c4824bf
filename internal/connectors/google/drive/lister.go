package drive

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/drivequery/internal/connectors/google"
	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// Ensure Lister implements the interface.
var _ driven.FolderLister = (*Lister)(nil)

// Lister lists folder children through the Drive v3 files.list endpoint.
// It is safe for concurrent use.
type Lister struct {
	svc     *drive.Service
	limiter *google.RateLimiter
	cfg     Config
}

// NewLister creates a lister. A nil limiter uses the Drive defaults.
func NewLister(svc *drive.Service, limiter *google.RateLimiter, cfg Config) *Lister {
	if limiter == nil {
		limiter = google.NewRateLimiter(google.ServiceDrive)
	}
	return &Lister{
		svc:     svc,
		limiter: limiter,
		cfg:     cfg.normalised(),
	}
}

// ListPage returns one page of folderID's non-trashed children.
func (l *Lister) ListPage(ctx context.Context, folderID, pageToken string) (*domain.Page, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	call := l.svc.Files.List().
		Q(ChildrenQuery(folderID)).
		Fields(listFields).
		PageSize(l.cfg.PageSize).
		Context(ctx)
	if l.cfg.AllDrives {
		call = call.SupportsAllDrives(true).IncludeItemsFromAllDrives(true).Corpora("allDrives")
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, l.classify(ctx, folderID, pageToken, err)
	}

	page := &domain.Page{
		Items:         make([]domain.FileDescriptor, 0, len(resp.Files)),
		NextPageToken: resp.NextPageToken,
	}
	for _, f := range resp.Files {
		page.Items = append(page.Items, domain.FileDescriptor{
			ID:       f.Id,
			Name:     f.Name,
			MIMEType: f.MimeType,
		})
	}
	logger.Debug("Listed %d items in folder %s (more: %t)", len(page.Items), folderID, page.NextPageToken != "")
	return page, nil
}

func (l *Lister) classify(ctx context.Context, folderID, pageToken string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if google.IsRateLimited(err) {
		l.limiter.RecordRateLimitError(google.RetryAfter(err))
	}
	if google.IsTransient(err) {
		return &domain.TransientListError{FolderID: folderID, PageToken: pageToken, Err: err}
	}
	return google.WrapError(err)
}

// ChildrenQuery builds the files.list query selecting a folder's
// non-trashed direct children of a collectable type.
func ChildrenQuery(folderID string) string {
	escaped := strings.ReplaceAll(folderID, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)

	types := domain.CollectableMimeTypes()
	clauses := make([]string, 0, len(types))
	for _, m := range types {
		clauses = append(clauses, fmt.Sprintf("mimeType = '%s'", m))
	}
	return fmt.Sprintf("'%s' in parents and trashed = false and (%s)", escaped, strings.Join(clauses, " or "))
}
