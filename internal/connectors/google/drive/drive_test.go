package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/drivequery/internal/connectors/google"
	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// fakeDrive serves the subset of the Drive v3 API the connector uses.
type fakeDrive struct {
	mu sync.Mutex
	// pages holds each folder's listing pages in order.
	pages map[string][]listResponse
	// content is served for alt=media downloads, exports for PDF exports.
	content map[string]string
	exports map[string]string
	// status forces an error status on list calls.
	status   int
	header   http.Header
	requests []*http.Request
}

type listResponse struct {
	NextPageToken string        `json:"nextPageToken,omitempty"`
	Files         []*drive.File `json:"files"`
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		pages:   make(map[string][]listResponse),
		content: make(map[string]string),
		exports: make(map[string]string),
	}
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case path == "files":
		f.serveList(w, r)
	case strings.HasSuffix(path, "/export"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "files/"), "/export")
		body, ok := f.exports[id]
		if !ok || r.URL.Query().Get("mimeType") != domain.MimeTypePDF {
			writeError(w, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	case strings.HasPrefix(path, "files/"):
		id := strings.TrimPrefix(path, "files/")
		body, ok := f.content[id]
		if !ok || r.URL.Query().Get("alt") != "media" {
			writeError(w, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	default:
		writeError(w, http.StatusNotFound)
	}
}

func (f *fakeDrive) serveList(w http.ResponseWriter, r *http.Request) {
	if f.status != 0 {
		for k, v := range f.header {
			w.Header()[k] = v
		}
		writeError(w, f.status)
		return
	}

	q := r.URL.Query().Get("q")
	var folderID string
	if _, err := fmt.Sscanf(q, "'%s", &folderID); err != nil {
		writeError(w, http.StatusBadRequest)
		return
	}
	folderID = strings.TrimSuffix(folderID, "'")

	pages := f.pages[folderID]
	idx := 0
	if tok := r.URL.Query().Get("pageToken"); tok != "" {
		if _, err := fmt.Sscanf(tok, "p%d", &idx); err != nil {
			writeError(w, http.StatusBadRequest)
			return
		}
	}
	if idx >= len(pages) {
		_ = json.NewEncoder(w).Encode(listResponse{Files: []*drive.File{}})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(pages[idx])
}

func writeError(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	reason := "backendError"
	if code == http.StatusNotFound {
		reason = "notFound"
	}
	_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"%s","errors":[{"reason":"%s"}]}}`,
		code, http.StatusText(code), reason)
}

func newTestService(t *testing.T, handler http.Handler) *drive.Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := drive.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return svc
}

const collectableClause = " and (mimeType = 'application/vnd.google-apps.folder'" +
	" or mimeType = 'application/pdf'" +
	" or mimeType = 'application/vnd.google-apps.document'" +
	" or mimeType = 'application/vnd.google-apps.spreadsheet'" +
	" or mimeType = 'application/vnd.google-apps.presentation')"

func TestChildrenQuery(t *testing.T) {
	assert.Equal(t, "'abc' in parents and trashed = false"+collectableClause, ChildrenQuery("abc"))
	assert.Equal(t, `'a\'b' in parents and trashed = false`+collectableClause, ChildrenQuery("a'b"))
}

func TestChildrenQuery_CoversCollectableTypes(t *testing.T) {
	q := ChildrenQuery("abc")
	for _, m := range domain.CollectableMimeTypes() {
		assert.Contains(t, q, "mimeType = '"+m+"'")
	}
}

func TestLister_ListPage(t *testing.T) {
	fake := newFakeDrive()
	fake.pages["root"] = []listResponse{
		{NextPageToken: "p1", Files: []*drive.File{
			{Id: "a", Name: "a.pdf", MimeType: domain.MimeTypePDF},
			{Id: "sub", Name: "Sub", MimeType: domain.MimeTypeFolder},
		}},
		{Files: []*drive.File{
			{Id: "d", Name: "Notes", MimeType: domain.MimeTypeGoogleDoc},
		}},
	}
	lister := NewLister(newTestService(t, fake), google.Unlimited(), Config{PageSize: 2, AllDrives: true})

	first, err := lister.ListPage(context.Background(), "root", "")
	require.NoError(t, err)
	assert.Equal(t, "p1", first.NextPageToken)
	require.Len(t, first.Items, 2)
	assert.Equal(t, domain.FileDescriptor{ID: "a", Name: "a.pdf", MIMEType: domain.MimeTypePDF}, first.Items[0])

	second, err := lister.ListPage(context.Background(), "root", "p1")
	require.NoError(t, err)
	assert.Empty(t, second.NextPageToken)
	assert.Equal(t, "Notes", second.Items[0].Name)

	req := fake.requests[0]
	query := req.URL.Query()
	assert.Equal(t, "'root' in parents and trashed = false"+collectableClause, query.Get("q"))
	assert.Equal(t, "2", query.Get("pageSize"))
	assert.Equal(t, "true", query.Get("supportsAllDrives"))
	assert.Equal(t, "true", query.Get("includeItemsFromAllDrives"))
	assert.Equal(t, "allDrives", query.Get("corpora"))
	assert.Equal(t, listFields, query.Get("fields"))
	assert.Equal(t, "p1", fake.requests[1].URL.Query().Get("pageToken"))
}

func TestLister_PageSizeClamped(t *testing.T) {
	fake := newFakeDrive()
	lister := NewLister(newTestService(t, fake), google.Unlimited(), Config{PageSize: 5000})

	_, err := lister.ListPage(context.Background(), "root", "")
	require.NoError(t, err)
	assert.Equal(t, "1000", fake.requests[0].URL.Query().Get("pageSize"))
	assert.Empty(t, fake.requests[0].URL.Query().Get("corpora"))
}

func TestLister_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
		sentinel  error
	}{
		{name: "server error", status: http.StatusServiceUnavailable, transient: true, sentinel: domain.ErrTransientList},
		{name: "rate limited", status: http.StatusTooManyRequests, transient: true, sentinel: domain.ErrTransientList},
		{name: "not found", status: http.StatusNotFound, sentinel: domain.ErrNotFound},
		{name: "unauthorised", status: http.StatusUnauthorized, sentinel: domain.ErrAuthExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeDrive()
			fake.status = tt.status
			lister := NewLister(newTestService(t, fake), google.Unlimited(), DefaultConfig())

			_, err := lister.ListPage(context.Background(), "root", "tok")

			require.ErrorIs(t, err, tt.sentinel)
			assert.NotContains(t, err.Error(), "list folder")
			assert.Equal(t, tt.transient, domain.IsTransient(err))
			if tt.transient {
				var te *domain.TransientListError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, "root", te.FolderID)
				assert.Equal(t, "tok", te.PageToken)
			}
		})
	}
}

func TestLister_RateLimitSetsBackoff(t *testing.T) {
	fake := newFakeDrive()
	fake.status = http.StatusTooManyRequests
	fake.header = http.Header{"Retry-After": []string{"30"}}
	limiter := google.Unlimited()
	lister := NewLister(newTestService(t, fake), limiter, DefaultConfig())

	_, err := lister.ListPage(context.Background(), "root", "")

	require.Error(t, err)
	assert.False(t, limiter.Allow())
}

func TestLister_CancelledContext(t *testing.T) {
	fake := newFakeDrive()
	lister := NewLister(newTestService(t, fake), google.Unlimited(), DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lister.ListPage(ctx, "root", "")

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, domain.IsTransient(err))
}

func TestDownloader_Download(t *testing.T) {
	fake := newFakeDrive()
	fake.content["a"] = "%PDF-a"
	fake.exports["d"] = "%PDF-d"
	downloader := NewDownloader(newTestService(t, fake), google.Unlimited())
	dir := filepath.Join(t.TempDir(), "out")

	pdfFile, err := downloader.Download(context.Background(),
		domain.FileDescriptor{ID: "a", Name: "report.pdf", MIMEType: domain.MimeTypePDF}, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.pdf"), pdfFile.Path)
	data, err := os.ReadFile(pdfFile.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-a", string(data))

	doc, err := downloader.Download(context.Background(),
		domain.FileDescriptor{ID: "d", Name: "Meeting: notes", MIMEType: domain.MimeTypeGoogleDoc}, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Meeting_ notes.pdf"), doc.Path)
	data, err = os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-d", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not be left behind")
}

func TestDownloader_NameCollision(t *testing.T) {
	fake := newFakeDrive()
	fake.content["a1"] = "one"
	fake.content["a2"] = "two"
	downloader := NewDownloader(newTestService(t, fake), google.Unlimited())
	dir := t.TempDir()

	first, err := downloader.Download(context.Background(),
		domain.FileDescriptor{ID: "a1", Name: "same.pdf", MIMEType: domain.MimeTypePDF}, dir)
	require.NoError(t, err)
	second, err := downloader.Download(context.Background(),
		domain.FileDescriptor{ID: "a2", Name: "same.pdf", MIMEType: domain.MimeTypePDF}, dir)
	require.NoError(t, err)
	again, err := downloader.Download(context.Background(),
		domain.FileDescriptor{ID: "a1", Name: "same.pdf", MIMEType: domain.MimeTypePDF}, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "same.pdf"), first.Path)
	assert.Equal(t, filepath.Join(dir, "same-a2.pdf"), second.Path)
	assert.Equal(t, first.Path, again.Path)
}

func TestDownloader_Errors(t *testing.T) {
	fake := newFakeDrive()
	downloader := NewDownloader(newTestService(t, fake), google.Unlimited())
	dir := t.TempDir()

	_, err := downloader.Download(context.Background(),
		domain.FileDescriptor{ID: "missing", Name: "x.pdf", MIMEType: domain.MimeTypePDF}, dir)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = downloader.Download(context.Background(),
		domain.FileDescriptor{ID: "f", Name: "dir", MIMEType: domain.MimeTypeFolder}, dir)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = downloader.Download(context.Background(), domain.FileDescriptor{Name: "x.pdf"}, dir)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":       "report.pdf",
		"a/b\\c.pdf":       "a_b_c.pdf",
		"  spaced.pdf  ":   "spaced.pdf",
		"..hidden":         "hidden",
		"what?*.pdf":       "what__.pdf",
		"tab\there.pdf":    "tabhere.pdf",
		"unicode ✓ ok.pdf": "unicode ✓ ok.pdf",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeName(in), in)
	}
}

func TestConfigFromSettings(t *testing.T) {
	assert.Equal(t, int64(250), ConfigFromSettings(domain.DriveSettings{PageSize: 250}).PageSize)
	assert.Equal(t, int64(1000), ConfigFromSettings(domain.DriveSettings{PageSize: 0}).PageSize)
	assert.True(t, ConfigFromSettings(domain.DriveSettings{}).AllDrives)
}
