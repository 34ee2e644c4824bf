package driven

import (
	"context"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// RunStore persists query run history.
type RunStore interface {
	// Save stores or updates a run.
	Save(ctx context.Context, run domain.Run) error

	// Get retrieves a run by ID.
	Get(ctx context.Context, id string) (*domain.Run, error)

	// List returns the most recent runs, newest first.
	// limit <= 0 returns all runs.
	List(ctx context.Context, limit int) ([]domain.Run, error)
}
