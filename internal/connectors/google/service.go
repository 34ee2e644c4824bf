package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// OAuth scopes requested at login.
const (
	ScopeUserInfoEmail = "https://www.googleapis.com/auth/userinfo.email"
	ScopeDriveReadonly = drive.DriveReadonlyScope
	ScopeDriveFile     = drive.DriveFileScope
	ScopeDocuments     = docs.DocumentsScope
)

// Scopes returns every scope drivequery needs.
func Scopes() []string {
	return []string{ScopeUserInfoEmail, ScopeDriveReadonly, ScopeDriveFile, ScopeDocuments}
}

// UserInfoURL is the endpoint that identifies the signed-in account.
const UserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// UserInfo contains the user's basic profile information from Google.
type UserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// NewDriveService creates a Google Drive API service using the provided TokenSource.
// Extra options are appended, which lets tests point the client at a local server.
func NewDriveService(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*drive.Service, error) {
	return drive.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}

// NewDocsService creates a Google Docs API service using the provided TokenSource.
func NewDocsService(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*docs.Service, error) {
	return docs.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}

// GetUserInfo fetches the user's profile information using an access token.
// An empty endpoint uses UserInfoURL.
func GetUserInfo(ctx context.Context, client *http.Client, endpoint, accessToken string) (*UserInfo, error) {
	if endpoint == "" {
		endpoint = UserInfoURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}

	var userInfo UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}

	return &userInfo, nil
}
