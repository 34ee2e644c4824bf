package driving

import (
	"context"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// AuthService manages the Google account used for Drive and Docs.
type AuthService interface {
	// Login runs the browser OAuth flow and stores the resulting credentials.
	// openURL is called with the consent URL the user must visit.
	Login(ctx context.Context, openURL func(url string) error) (*domain.Credentials, error)

	// Status returns the stored credentials or domain.ErrAuthRequired.
	Status(ctx context.Context) (*domain.Credentials, error)

	// Logout removes stored credentials.
	Logout(ctx context.Context) error
}
