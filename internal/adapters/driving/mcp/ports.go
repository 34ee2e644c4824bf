package mcp

import (
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Query collects folders and runs questions.
	Query driving.QueryService

	// History exposes recorded runs. Optional.
	History driving.RunHistory
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
