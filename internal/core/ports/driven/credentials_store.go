package driven

import (
	"context"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// CredentialsStore persists the user's Google OAuth credentials.
type CredentialsStore interface {
	// Save stores credentials. Creates if new, updates if exists.
	Save(ctx context.Context, creds domain.Credentials) error

	// Get retrieves credentials by ID.
	// Returns domain.ErrNotFound if none are stored.
	Get(ctx context.Context, id string) (*domain.Credentials, error)

	// Delete removes credentials by ID.
	Delete(ctx context.Context, id string) error
}
