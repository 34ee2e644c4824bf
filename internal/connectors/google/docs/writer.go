// Package docs writes answers into new Google Docs.
package docs

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf16"

	docsapi "google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/drivequery/internal/connectors/google"
	gdrive "github.com/custodia-labs/drivequery/internal/connectors/google/drive"
	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// Ensure Writer implements the interface.
var _ driven.DocumentWriter = (*Writer)(nil)

// titleStyle is the named paragraph style applied to the first line.
const titleStyle = "HEADING_1"

// Writer creates one Google Doc per answer.
type Writer struct {
	docs     *docsapi.Service
	drive    *drive.Service
	folderID string
	limiter  *google.RateLimiter
}

// NewWriter creates a writer. When folderID is set, new documents are
// moved into that Drive folder, which needs driveSvc. A nil limiter uses
// the Docs defaults.
func NewWriter(docsSvc *docsapi.Service, driveSvc *drive.Service, folderID string, limiter *google.RateLimiter) *Writer {
	if limiter == nil {
		limiter = google.NewRateLimiter(google.ServiceDocs)
	}
	return &Writer{
		docs:     docsSvc,
		drive:    driveSvc,
		folderID: folderID,
		limiter:  limiter,
	}
}

// Write creates a document titled title whose content is a heading
// followed by body.
func (w *Writer) Write(ctx context.Context, title, body string) (*domain.WrittenDoc, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: document title is required", domain.ErrInvalidInput)
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	doc, err := w.docs.Documents.Create(&docsapi.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create document: %w", google.WrapError(err))
	}
	logger.Debug("Created document %s", doc.DocumentId)

	if err := w.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	_, err = w.docs.Documents.BatchUpdate(doc.DocumentId, &docsapi.BatchUpdateDocumentRequest{
		Requests: BuildRequests(title, body),
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("write document %s: %w", doc.DocumentId, google.WrapError(err))
	}

	if w.folderID != "" {
		if err := w.move(ctx, doc.DocumentId); err != nil {
			return nil, err
		}
	}

	return &domain.WrittenDoc{ID: doc.DocumentId, URL: gdrive.DocURL(doc.DocumentId)}, nil
}

// move reparents a created document into the configured folder.
func (w *Writer) move(ctx context.Context, docID string) error {
	if w.drive == nil {
		return fmt.Errorf("move document %s: drive service not configured", docID)
	}
	file, err := w.drive.Files.Get(docID).Fields("parents").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get document parents: %w", google.WrapError(err))
	}

	call := w.drive.Files.Update(docID, &drive.File{}).
		AddParents(w.folderID).
		SupportsAllDrives(true).
		Context(ctx)
	if len(file.Parents) > 0 {
		call = call.RemoveParents(strings.Join(file.Parents, ","))
	}
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("move document %s: %w", docID, google.WrapError(err))
	}
	logger.Debug("Moved document %s into folder %s", docID, w.folderID)
	return nil
}

// BuildRequests returns the batch update that writes a heading line and
// the body into an empty document. Indexes count UTF-16 code units and
// start at 1, the beginning of the body segment.
func BuildRequests(title, body string) []*docsapi.Request {
	heading := title + "\n"
	headingEnd := 1 + utf16Len(heading)

	reqs := []*docsapi.Request{
		{
			InsertText: &docsapi.InsertTextRequest{
				Location: &docsapi.Location{Index: 1},
				Text:     heading,
			},
		},
		{
			UpdateParagraphStyle: &docsapi.UpdateParagraphStyleRequest{
				Range: &docsapi.Range{
					StartIndex: 1,
					EndIndex:   headingEnd,
				},
				ParagraphStyle: &docsapi.ParagraphStyle{NamedStyleType: titleStyle},
				Fields:         "namedStyleType",
			},
		},
	}

	body = strings.TrimRight(body, "\n")
	if body != "" {
		reqs = append(reqs, &docsapi.Request{
			InsertText: &docsapi.InsertTextRequest{
				Location: &docsapi.Location{Index: headingEnd},
				Text:     body + "\n",
			},
		})
	}
	return reqs
}

func utf16Len(s string) int64 {
	return int64(len(utf16.Encode([]rune(s))))
}
