package google

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
)

// providerSource serves Drive and Docs clients from the stored account.
type providerSource struct {
	ctx      context.Context
	provider driven.TokenProvider
}

// NewTokenSource exposes a TokenProvider as an oauth2.TokenSource for
// option.WithTokenSource. Refresh and persistence stay with the provider.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	return &providerSource{ctx: ctx, provider: provider}
}

func (s *providerSource) Token() (*oauth2.Token, error) {
	access, err := s.provider.GetToken(s.ctx)
	switch {
	case errors.Is(err, domain.ErrAuthRequired), errors.Is(err, domain.ErrAuthExpired):
		return nil, fmt.Errorf("%w: run 'drivequery auth login'", err)
	case err != nil:
		return nil, err
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}
