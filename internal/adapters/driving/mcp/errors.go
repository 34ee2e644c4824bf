// Package mcp provides an MCP (Model Context Protocol) server adapter for
// drivequery. It lets AI assistants collect Drive folders and ask questions
// about their contents.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
