package driven

import (
	"context"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// OAuthAuthorizer runs an interactive OAuth authorisation.
type OAuthAuthorizer interface {
	// Authorize obtains tokens from the user. openURL is called with the
	// consent page URL; the call blocks until the provider redirects back,
	// the context ends or the flow times out.
	Authorize(ctx context.Context, openURL func(url string) error) (*domain.OAuthCredentials, error)

	// AccountEmail returns the address of the account the tokens belong to.
	AccountEmail(ctx context.Context, creds *domain.OAuthCredentials) (string, error)
}
