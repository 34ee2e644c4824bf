package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// Ensure TokenProvider implements the interface.
var _ driven.TokenProvider = (*TokenProvider)(nil)

// DefaultRefreshBuffer refreshes tokens this long before they expire.
const DefaultRefreshBuffer = 5 * time.Minute

// TokenProvider hands out access tokens from stored credentials,
// refreshing through the OAuth config and persisting the new tokens.
type TokenProvider struct {
	config        *oauth2.Config
	store         driven.CredentialsStore
	credentialsID string
	httpClient    *http.Client
	refreshBuffer time.Duration

	mu         sync.Mutex
	source     oauth2.TokenSource
	last       string
	canRefresh bool
}

// NewTokenProvider creates a token provider for the stored Google account.
// A nil httpClient uses http.DefaultClient for refreshes.
func NewTokenProvider(config *oauth2.Config, store driven.CredentialsStore, httpClient *http.Client) *TokenProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenProvider{
		config:        config,
		store:         store,
		credentialsID: domain.GoogleCredentialsID,
		httpClient:    httpClient,
		refreshBuffer: DefaultRefreshBuffer,
	}
}

// GetToken returns a valid access token, refreshing if necessary.
func (p *TokenProvider) GetToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source == nil {
		if err := p.load(ctx); err != nil {
			return "", err
		}
	}

	tok, err := p.source.Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) || !p.canRefresh {
			p.source = nil
			return "", fmt.Errorf("%w: %w", domain.ErrAuthExpired, err)
		}
		return "", fmt.Errorf("refresh token: %w", err)
	}

	if tok.AccessToken != p.last {
		if err := p.persist(ctx, tok); err != nil {
			return "", err
		}
		p.last = tok.AccessToken
	}
	return tok.AccessToken, nil
}

// IsAuthenticated returns true if usable credentials are stored.
func (p *TokenProvider) IsAuthenticated() bool {
	creds, err := p.store.Get(context.Background(), p.credentialsID)
	if err != nil {
		return false
	}
	return creds.IsAuthenticated()
}

// InvalidateCache forgets the cached token source so the next call
// reloads credentials from the store.
func (p *TokenProvider) InvalidateCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = nil
	p.last = ""
}

// load builds the token source from stored credentials. The inner source
// only holds the refresh token so that every call on it performs a refresh;
// the outer source reuses the stored access token until refreshBuffer
// before expiry.
func (p *TokenProvider) load(ctx context.Context) error {
	creds, err := p.store.Get(ctx, p.credentialsID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrAuthRequired
	}
	if err != nil {
		return fmt.Errorf("get credentials: %w", err)
	}
	if !creds.IsAuthenticated() {
		return domain.ErrAuthRequired
	}

	current := toToken(creds.OAuth)
	refreshCtx := context.WithValue(context.Background(), oauth2.HTTPClient, p.httpClient)
	refresher := p.config.TokenSource(refreshCtx, &oauth2.Token{RefreshToken: current.RefreshToken})
	p.source = oauth2.ReuseTokenSourceWithExpiry(current, refresher, p.refreshBuffer)
	p.last = current.AccessToken
	p.canRefresh = current.RefreshToken != ""
	return nil
}

func (p *TokenProvider) persist(ctx context.Context, tok *oauth2.Token) error {
	creds, err := p.store.Get(ctx, p.credentialsID)
	if err != nil {
		return fmt.Errorf("get credentials: %w", err)
	}
	refreshed := fromToken(tok)
	if refreshed.RefreshToken == "" && creds.OAuth != nil {
		refreshed.RefreshToken = creds.OAuth.RefreshToken
	}
	creds.OAuth = refreshed
	creds.UpdatedAt = time.Now()
	if err := p.store.Save(ctx, *creds); err != nil {
		return fmt.Errorf("save refreshed credentials: %w", err)
	}
	logger.Debug("Refreshed Google access token (expires %s)", tok.Expiry.Format(time.RFC3339))
	return nil
}
