package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// Ensure AuthService implements the interface.
var _ driving.AuthService = (*AuthService)(nil)

// AuthService manages the single Google account drivequery acts as.
type AuthService struct {
	authorizer driven.OAuthAuthorizer
	store      driven.CredentialsStore
	now        func() time.Time
}

// NewAuthService creates an auth service. The authorizer may be nil when
// no client secrets are configured; Login then fails with ErrAuthRequired.
func NewAuthService(authorizer driven.OAuthAuthorizer, store driven.CredentialsStore) *AuthService {
	return &AuthService{
		authorizer: authorizer,
		store:      store,
		now:        time.Now,
	}
}

// Login runs the browser flow and stores the resulting credentials,
// replacing any previous account.
func (s *AuthService) Login(ctx context.Context, openURL func(url string) error) (*domain.Credentials, error) {
	if s.authorizer == nil {
		return nil, fmt.Errorf("%w: google client credentials not configured", domain.ErrAuthRequired)
	}

	tokens, err := s.authorizer.Authorize(ctx, openURL)
	if err != nil {
		return nil, fmt.Errorf("authorise: %w", err)
	}

	email, err := s.authorizer.AccountEmail(ctx, tokens)
	if err != nil {
		// Tokens are still usable without the address.
		logger.Warn("Could not fetch account email: %v", err)
	}

	now := s.now()
	creds := domain.Credentials{
		ID:                domain.GoogleCredentialsID,
		AccountIdentifier: email,
		OAuth:             tokens,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if existing, err := s.store.Get(ctx, domain.GoogleCredentialsID); err == nil && existing.AccountIdentifier == email {
		creds.CreatedAt = existing.CreatedAt
	}

	if err := s.store.Save(ctx, creds); err != nil {
		return nil, fmt.Errorf("save credentials: %w", err)
	}
	logger.Info("Signed in as %s", email)
	return &creds, nil
}

// Status returns the stored credentials.
func (s *AuthService) Status(ctx context.Context) (*domain.Credentials, error) {
	creds, err := s.store.Get(ctx, domain.GoogleCredentialsID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrAuthRequired
	}
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	if !creds.IsAuthenticated() {
		return nil, domain.ErrAuthRequired
	}
	return creds, nil
}

// Logout removes stored credentials.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, domain.GoogleCredentialsID); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}
