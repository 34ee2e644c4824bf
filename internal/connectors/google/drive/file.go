package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/drivequery/internal/connectors/google"
	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// Ensure Downloader implements the interface.
var _ driven.FileDownloader = (*Downloader)(nil)

// Downloader writes Drive files to local storage. Binary files are
// downloaded as-is; Google Workspace files are exported first.
// It is safe for concurrent use.
type Downloader struct {
	svc     *drive.Service
	limiter *google.RateLimiter

	mu     sync.Mutex
	claims map[string]string // local path -> Drive file ID
}

// NewDownloader creates a downloader. A nil limiter uses the Drive defaults.
func NewDownloader(svc *drive.Service, limiter *google.RateLimiter) *Downloader {
	if limiter == nil {
		limiter = google.NewRateLimiter(google.ServiceDrive)
	}
	return &Downloader{
		svc:     svc,
		limiter: limiter,
		claims:  make(map[string]string),
	}
}

// Download writes file into destDir and returns where it was written.
func (d *Downloader) Download(ctx context.Context, file domain.FileDescriptor, destDir string) (*domain.LocalFile, error) {
	if file.ID == "" {
		return nil, fmt.Errorf("%w: file has no id", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := d.fetch(ctx, file)
	if err != nil {
		if google.IsRateLimited(err) {
			d.limiter.RecordRateLimitError(google.RetryAfter(err))
		}
		return nil, fmt.Errorf("fetch %s: %w", file.ID, google.WrapError(err))
	}
	defer resp.Body.Close()

	path := d.claim(destDir, file)
	if err := writeAtomic(path, resp.Body); err != nil {
		return nil, err
	}

	logger.Debug("Downloaded %s to %s", file.Name, path)
	return &domain.LocalFile{File: file, Path: path}, nil
}

// fetch opens the content stream for a file.
func (d *Downloader) fetch(ctx context.Context, file domain.FileDescriptor) (*http.Response, error) {
	switch file.Kind() {
	case domain.KindDownloadable:
		return d.svc.Files.Get(file.ID).SupportsAllDrives(true).Context(ctx).Download()
	case domain.KindExportable:
		target, _, _ := domain.ExportTarget(file.MIMEType)
		return exportGoogleFile(ctx, d.svc, file.ID, target)
	default:
		return nil, fmt.Errorf("%w: %s is not downloadable (%s)", domain.ErrInvalidInput, file.ID, file.MIMEType)
	}
}

// exportGoogleFile exports a Google Workspace file to the specified format.
func exportGoogleFile(ctx context.Context, svc *drive.Service, fileID, exportMime string) (*http.Response, error) {
	return svc.Files.Export(fileID, exportMime).Context(ctx).Download()
}

// claim picks the local path for file. A name already claimed by a
// different file gets the file ID appended before the extension.
func (d *Downloader) claim(destDir string, file domain.FileDescriptor) string {
	name := SanitizeName(file.LocalName())
	if name == "" {
		name = SanitizeName(file.ID)
	}
	path := filepath.Join(destDir, name)

	d.mu.Lock()
	defer d.mu.Unlock()
	if owner, taken := d.claims[path]; taken && owner != file.ID {
		ext := filepath.Ext(name)
		path = filepath.Join(destDir, strings.TrimSuffix(name, ext)+"-"+SanitizeName(file.ID)+ext)
	}
	d.claims[path] = file.ID
	return path
}

// writeAtomic streams r into path through a temp file in the same directory.
func writeAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SanitizeName makes a Drive file name safe to use as a local file name.
func SanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		default:
			return r
		}
	}, name)
	return strings.Trim(strings.TrimSpace(name), ".")
}
