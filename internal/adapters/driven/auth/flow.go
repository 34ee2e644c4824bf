package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/custodia-labs/drivequery/internal/connectors/google"
	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
	"github.com/custodia-labs/drivequery/internal/logger"
)

// Ensure OAuthFlow implements the interface.
var _ driven.OAuthAuthorizer = (*OAuthFlow)(nil)

// Defaults for the loopback redirect.
const (
	DefaultCallbackPortStart = 8085
	DefaultCallbackPortEnd   = 8099
	DefaultLoginTimeout      = 5 * time.Minute
)

// LoadConfig reads a client secrets JSON file downloaded from the Google
// Cloud console and returns an OAuth config with drivequery's scopes.
func LoadConfig(credentialsFile string) (*oauth2.Config, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("%w: google credentials file not configured "+
			"(set google.credentials_file or DRIVEQUERY_GOOGLE_CREDENTIALS)", domain.ErrAuthRequired)
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}
	cfg, err := googleoauth.ConfigFromJSON(data, google.Scopes()...)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	return cfg, nil
}

// OAuthFlow runs the installed-app authorisation code flow against a
// loopback callback server.
type OAuthFlow struct {
	config      *oauth2.Config
	httpClient  *http.Client
	userInfoURL string
	portStart   int
	portEnd     int
	timeout     time.Duration
}

// FlowOption customises an OAuthFlow.
type FlowOption func(*OAuthFlow)

// WithHTTPClient sets the client used for token exchange and user info.
func WithHTTPClient(c *http.Client) FlowOption {
	return func(f *OAuthFlow) { f.httpClient = c }
}

// WithUserInfoURL overrides the user info endpoint.
func WithUserInfoURL(u string) FlowOption {
	return func(f *OAuthFlow) { f.userInfoURL = u }
}

// WithPortRange sets the callback port search range.
func WithPortRange(start, end int) FlowOption {
	return func(f *OAuthFlow) { f.portStart, f.portEnd = start, end }
}

// WithTimeout bounds how long Authorize waits for the browser.
func WithTimeout(d time.Duration) FlowOption {
	return func(f *OAuthFlow) { f.timeout = d }
}

// NewOAuthFlow creates a flow for the given client config.
func NewOAuthFlow(config *oauth2.Config, opts ...FlowOption) *OAuthFlow {
	f := &OAuthFlow{
		config:      config,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		userInfoURL: google.UserInfoURL,
		portStart:   DefaultCallbackPortStart,
		portEnd:     DefaultCallbackPortEnd,
		timeout:     DefaultLoginTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Authorize sends the user to Google's consent page and exchanges the
// returned code for tokens.
func (f *OAuthFlow) Authorize(ctx context.Context, openURL func(url string) error) (*domain.OAuthCredentials, error) {
	verifier, err := GenerateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("generate code verifier: %w", err)
	}
	state, err := GenerateState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	port, err := FindAvailablePort(f.portStart, f.portEnd)
	if err != nil {
		return nil, err
	}
	server := NewCallbackServer(port, state)
	if err := server.Start(); err != nil {
		return nil, err
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Warn("Failed to stop callback server: %v", err)
		}
	}()

	cfg := *f.config
	cfg.RedirectURL = server.RedirectURI()
	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("code_challenge", GenerateCodeChallenge(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	logger.Debug("Waiting for OAuth callback on %s", cfg.RedirectURL)
	if err := openURL(authURL); err != nil {
		logger.Warn("Could not open browser: %v", err)
	}

	code, err := server.WaitForCode(ctx, f.timeout)
	if err != nil {
		return nil, err
	}

	tok, err := cfg.Exchange(f.clientContext(ctx), code, oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return fromToken(tok), nil
}

// AccountEmail returns the email of the account that granted creds.
func (f *OAuthFlow) AccountEmail(ctx context.Context, creds *domain.OAuthCredentials) (string, error) {
	info, err := google.GetUserInfo(ctx, f.httpClient, f.userInfoURL, creds.AccessToken)
	if err != nil {
		return "", err
	}
	return info.Email, nil
}

func (f *OAuthFlow) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
}

func fromToken(tok *oauth2.Token) *domain.OAuthCredentials {
	return &domain.OAuthCredentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Expiry:       tok.Expiry,
	}
}

func toToken(creds *domain.OAuthCredentials) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    creds.TokenType,
		Expiry:       creds.Expiry,
	}
}
