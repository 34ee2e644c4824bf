// Package auth implements Google sign-in for drivequery: the installed-app
// OAuth flow with a loopback redirect and PKCE, and a token provider that
// refreshes and persists stored credentials.
package auth
