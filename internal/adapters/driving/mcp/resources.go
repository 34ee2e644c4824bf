package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for drivequery resources.
	uriScheme = "drivequery://"

	// recentRunsLimit caps the runs resource.
	recentRunsLimit = 50
)

// registerResources registers resource handlers when run history is available.
func (s *Server) registerResources() {
	if s.ports.History == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Recent question runs, newest first",
		MIMEType:    "application/json",
	}, s.handleRunsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}",
		Name:        "run",
		Description: "A single question run with its answer",
		MIMEType:    "application/json",
	}, s.handleRunResource)
}

// handleRunsResource lists recent runs.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runs, err := s.ports.History.List(ctx, recentRunsLimit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	type runInfo struct {
		ID       string `json:"id"`
		Question string `json:"question"`
		Status   string `json:"status"`
		DocURL   string `json:"doc_url,omitempty"`
		URI      string `json:"uri"`
	}
	infos := make([]runInfo, len(runs))
	for i, r := range runs {
		infos[i] = runInfo{
			ID:       r.ID,
			Question: r.Question,
			Status:   string(r.Status),
			DocURL:   r.DocURL,
			URI:      uriScheme + "runs/" + r.ID,
		}
	}

	return jsonResource(req.Params.URI, infos)
}

// handleRunResource returns one run.
func (s *Server) handleRunResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := strings.TrimPrefix(req.Params.URI, uriScheme+"runs/")
	if id == "" || id == req.Params.URI {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	run, err := s.ports.History.Get(ctx, id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, run)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
