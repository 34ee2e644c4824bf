// Package sqlite provides the SQLite-backed implementation of drivequery's
// persistent stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database connection serves:
//
//   - CredentialsStore: the Google account's OAuth tokens
//   - UploadStore: Drive file to assistant file mappings
//   - RunStore: query run history
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each .up.sql file records its own version in
// schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.drivequery/data/drivequery.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. The database runs in WAL mode
// with a busy timeout.
package sqlite
