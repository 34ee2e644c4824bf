// Package domain defines the core entities for drivequery.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FileDescriptor: A remote file found under a Drive folder tree
//   - Page: One page of a paginated folder listing
//   - Collection: The flattened result of walking a folder tree
//   - Run: One question asked against a collected folder
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
