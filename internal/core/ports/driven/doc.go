// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - FolderLister: Lists one page of a remote folder's children
//   - FileDownloader: Writes a remote file to local storage
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - DocumentAssistant: Uploads files and answers questions. Without it only
//     collection and download are available.
//   - DocumentWriter: Writes answers into Google Docs. Without it answers are
//     only printed.
//   - UploadStore: Caches uploaded file IDs. Without it every run re-uploads.
//   - RunStore: Records run history.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
