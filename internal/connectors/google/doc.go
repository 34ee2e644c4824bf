// Package google provides shared infrastructure for the Drive and Docs
// connectors:
//   - TokenSource adapter to bridge the TokenProvider port to oauth2.TokenSource
//   - Service factories for Drive and Docs clients
//   - Error classification for Google API errors (401, 403, 404, 429, 5xx)
//   - Rate limiting to respect Google API quotas
//
// # Usage
//
//	ts := google.NewTokenSource(ctx, tokenProvider)
//	svc, err := google.NewDriveService(ctx, ts)
//
// # OAuth2 Scopes
//
// drivequery requests:
//   - https://www.googleapis.com/auth/userinfo.email (non-sensitive)
//   - https://www.googleapis.com/auth/drive.readonly (restricted)
//   - https://www.googleapis.com/auth/drive.file (non-sensitive)
//   - https://www.googleapis.com/auth/documents (sensitive)
//
// drive.file only covers files the app creates, which is how answer
// documents are moved into a destination folder without write access to
// the collected tree.
package google
