package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Collector Errors.

	// ErrInvalidLink indicates a shareable link has no /folders/<id> segment.
	ErrInvalidLink = errors.New("invalid folder link")

	// ErrPagination indicates a listing returned an inconsistent page token.
	ErrPagination = errors.New("pagination error")

	// ErrMaxDepthExceeded indicates the folder tree is deeper than allowed.
	ErrMaxDepthExceeded = errors.New("max depth exceeded")

	// ErrTransientList indicates a single page fetch failed and may succeed on retry.
	ErrTransientList = errors.New("transient list error")

	// Pipeline Errors.

	// ErrNoFiles indicates the folder tree held nothing to upload.
	ErrNoFiles = errors.New("no files found")

	// ErrAssistantRun indicates the assistant run ended without an answer.
	ErrAssistantRun = errors.New("assistant run did not complete")

	// ErrAssistantUnavailable indicates no assistant API key is configured.
	ErrAssistantUnavailable = errors.New("assistant service unavailable")

	// Authentication Errors.

	// ErrAuthRequired indicates no Google credentials have been stored yet.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthExpired indicates the authentication has expired and refresh failed.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// PaginationError reports a page token that was already seen for a folder.
type PaginationError struct {
	FolderID  string
	PageToken string
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("%s: folder %s repeated page token %q", ErrPagination, e.FolderID, e.PageToken)
}

func (e *PaginationError) Unwrap() error {
	return ErrPagination
}

// MaxDepthExceededError reports a folder below the configured depth bound.
type MaxDepthExceededError struct {
	FolderID string
	Depth    int
	MaxDepth int
}

func (e *MaxDepthExceededError) Error() string {
	return fmt.Sprintf("%s: folder %s at depth %d (max %d)", ErrMaxDepthExceeded, e.FolderID, e.Depth, e.MaxDepth)
}

func (e *MaxDepthExceededError) Unwrap() error {
	return ErrMaxDepthExceeded
}

// TransientListError wraps a failed page fetch that is worth retrying.
type TransientListError struct {
	FolderID  string
	PageToken string
	Err       error
}

func (e *TransientListError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: folder %s", ErrTransientList, e.FolderID)
	}
	return fmt.Sprintf("%s: folder %s: %v", ErrTransientList, e.FolderID, e.Err)
}

func (e *TransientListError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransientList}
	}
	return []error{ErrTransientList, e.Err}
}

// IsTransient returns true if err is worth retrying at the page level.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientList)
}
