package services

import (
	"context"
	"time"

	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// Ensure RetryingLister implements the interface.
var _ driven.FolderLister = (*RetryingLister)(nil)

// DefaultRetryBackoff is the delay before the first retry of a page.
const DefaultRetryBackoff = 500 * time.Millisecond

// RetryingLister retries pages that fail with a transient error.
// Non-transient errors are returned immediately. The delay doubles after
// each failed attempt.
type RetryingLister struct {
	next     driven.FolderLister
	attempts int
	backoff  time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRetryingLister wraps next. attempts < 1 is treated as a single attempt.
func NewRetryingLister(next driven.FolderLister, attempts int, backoff time.Duration) *RetryingLister {
	if attempts < 1 {
		attempts = 1
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &RetryingLister{
		next:     next,
		attempts: attempts,
		backoff:  backoff,
		sleep:    sleepContext,
	}
}

// ListPage lists one page, retrying transient failures.
func (r *RetryingLister) ListPage(ctx context.Context, folderID, pageToken string) (*domain.Page, error) {
	delay := r.backoff
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		page, err := r.next.ListPage(ctx, folderID, pageToken)
		if err == nil {
			return page, nil
		}
		if !domain.IsTransient(err) {
			return nil, err
		}
		lastErr = err

		if attempt == r.attempts {
			break
		}
		logger.Warn("Listing folder %s failed (attempt %d/%d), retrying in %s: %v",
			folderID, attempt, r.attempts, delay, err)
		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}

	return nil, lastErr
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
