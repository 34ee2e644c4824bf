package domain

// Default collector limits.
const (
	// DefaultMaxDepth bounds how far below the root a folder may be.
	DefaultMaxDepth = 64
	// DefaultCollectConcurrency bounds concurrent folder listings.
	DefaultCollectConcurrency = 4
	// MaxPageSize is the largest page the Drive listing API returns.
	MaxPageSize = 1000
)

// Page is one page of a folder listing.
type Page struct {
	// Items are the children returned on this page.
	Items []FileDescriptor
	// NextPageToken continues the listing. Empty means this was the last page.
	NextPageToken string
}

// CollectOptions tunes a folder tree walk.
type CollectOptions struct {
	// MaxDepth is the deepest folder level allowed below the root (root = 0).
	MaxDepth int
	// Concurrency bounds in-flight folder listings. 1 lists sequentially.
	Concurrency int
	// Dedupe drops repeated file IDs (files linked under several parents),
	// keeping the first occurrence.
	Dedupe bool
	// SkipFailedFolders records folders whose listing fails and keeps walking
	// instead of aborting. Depth violations and cancellation still abort.
	SkipFailedFolders bool
}

// DefaultCollectOptions returns the default walk options.
func DefaultCollectOptions() CollectOptions {
	return CollectOptions{
		MaxDepth:    DefaultMaxDepth,
		Concurrency: DefaultCollectConcurrency,
	}
}

// Normalised fills zero values with defaults.
func (o CollectOptions) Normalised() CollectOptions {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultCollectConcurrency
	}
	return o
}

// FolderFailure records a folder that was skipped during a walk.
type FolderFailure struct {
	FolderID string `json:"folder_id"`
	Depth    int    `json:"depth"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

// Collection is the flattened result of a folder tree walk.
type Collection struct {
	// RootID is the folder the walk started from.
	RootID string `json:"root_id"`
	// Files are the downloadable and exportable files found, in walk order.
	Files []FileDescriptor `json:"files"`
	// FoldersVisited counts folders whose listing completed.
	FoldersVisited int `json:"folders_visited"`
	// Skipped lists folders abandoned under SkipFailedFolders.
	Skipped []FolderFailure `json:"skipped,omitempty"`
}

// Len returns the number of collected files.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Files)
}
