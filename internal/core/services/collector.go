package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// Ensure Collector implements the interface.
var _ driving.CollectService = (*Collector)(nil)

// Collector walks a remote folder tree and flattens it into the files worth
// downloading. The walk is breadth-first over an explicit frontier; folders
// of one level are listed concurrently, each into its own slot, and merged
// in frontier order so the result does not depend on scheduling.
type Collector struct {
	lister driven.FolderLister
	opts   domain.CollectOptions
}

// NewCollector creates a collector over the given listing capability.
func NewCollector(lister driven.FolderLister, opts domain.CollectOptions) *Collector {
	return &Collector{
		lister: lister,
		opts:   opts.Normalised(),
	}
}

// Options returns the effective walk options.
func (c *Collector) Options() domain.CollectOptions {
	return c.opts
}

// folderTask is a folder waiting to be listed.
type folderTask struct {
	id    string
	depth int
}

// folderListing is the complete, classified listing of one folder.
type folderListing struct {
	files      []domain.FileDescriptor
	subfolders []string
	err        error
	done       bool
}

// Collect returns every downloadable or exportable file under rootID.
//
// A folder contributes its files only if every page of its listing
// succeeded. When the walk aborts, the returned collection holds the
// folders that completed before the error.
func (c *Collector) Collect(ctx context.Context, rootID string) (*domain.Collection, error) {
	if rootID == "" {
		return nil, fmt.Errorf("%w: empty root folder id", domain.ErrInvalidInput)
	}
	if c.lister == nil {
		return nil, errors.New("collect: folder lister not configured")
	}

	result := &domain.Collection{
		RootID: rootID,
		Files:  []domain.FileDescriptor{},
	}

	var seen map[string]struct{}
	if c.opts.Dedupe {
		seen = make(map[string]struct{})
	}

	logger.Debug("Collecting folder %s (max depth %d, concurrency %d)", rootID, c.opts.MaxDepth, c.opts.Concurrency)

	frontier := []folderTask{{id: rootID}}
	for len(frontier) > 0 {
		listings, levelErr := c.listLevel(ctx, frontier)

		var next []folderTask
		for i, task := range frontier {
			listing := listings[i]
			if !listing.done {
				continue
			}
			if listing.err != nil {
				result.Skipped = append(result.Skipped, domain.FolderFailure{
					FolderID: task.id,
					Depth:    task.depth,
					Reason:   listing.err.Error(),
					Err:      listing.err,
				})
				logger.Warn("Skipping folder %s: %v", task.id, listing.err)
				continue
			}

			result.FoldersVisited++
			for _, file := range listing.files {
				if seen != nil {
					if _, dup := seen[file.ID]; dup {
						continue
					}
					seen[file.ID] = struct{}{}
				}
				result.Files = append(result.Files, file)
			}

			childDepth := task.depth + 1
			for _, id := range listing.subfolders {
				if childDepth > c.opts.MaxDepth {
					return result, &domain.MaxDepthExceededError{
						FolderID: id,
						Depth:    childDepth,
						MaxDepth: c.opts.MaxDepth,
					}
				}
				next = append(next, folderTask{id: id, depth: childDepth})
			}
		}

		if levelErr != nil {
			return result, levelErr
		}
		frontier = next
	}

	logger.Info("Collected %d files from %d folders under %s", len(result.Files), result.FoldersVisited, rootID)
	return result, nil
}

// listLevel lists every folder of one frontier level with bounded concurrency.
// Each goroutine writes only its own slot.
func (c *Collector) listLevel(ctx context.Context, tasks []folderTask) ([]folderListing, error) {
	listings := make([]folderListing, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for i, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			files, subfolders, err := c.listFolder(gctx, task.id)
			if err != nil {
				if c.opts.SkipFailedFolders && isSkippable(err) {
					listings[i] = folderListing{err: err, done: true}
					return nil
				}
				return err
			}

			listings[i] = folderListing{files: files, subfolders: subfolders, done: true}
			return nil
		})
	}

	return listings, g.Wait()
}

// listFolder pages through one folder and classifies its children.
func (c *Collector) listFolder(ctx context.Context, folderID string) ([]domain.FileDescriptor, []string, error) {
	var files []domain.FileDescriptor
	var subfolders []string

	token := ""
	seenTokens := make(map[string]struct{})
	pages := 0

	for {
		page, err := c.lister.ListPage(ctx, folderID, token)
		if err != nil {
			return nil, nil, fmt.Errorf("list folder %s: %w", folderID, err)
		}
		pages++

		if page != nil {
			for _, item := range page.Items {
				switch item.Kind() {
				case domain.KindFolder:
					subfolders = append(subfolders, item.ID)
				case domain.KindDownloadable, domain.KindExportable:
					files = append(files, item)
				case domain.KindIgnored:
				}
			}
		}

		if page == nil || page.NextPageToken == "" {
			break
		}

		next := page.NextPageToken
		if _, dup := seenTokens[next]; dup {
			return nil, nil, &domain.PaginationError{FolderID: folderID, PageToken: next}
		}
		seenTokens[next] = struct{}{}
		token = next
	}

	logger.Debug("Listed folder %s: %d pages, %d files, %d subfolders", folderID, pages, len(files), len(subfolders))
	return files, subfolders, nil
}

// isSkippable reports whether a folder failure may be skipped under
// SkipFailedFolders. Only transient and pagination failures qualify.
func isSkippable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return domain.IsTransient(err) || errors.Is(err, domain.ErrPagination)
}
