package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// CollectInput is the input schema for the collect_folder tool.
type CollectInput struct {
	Link string `json:"link" jsonschema:"shareable Google Drive folder link"`
}

// CollectOutput is the output schema for the collect_folder tool.
type CollectOutput struct {
	RootID         string       `json:"root_id"`
	Files          []FileOutput `json:"files"`
	Count          int          `json:"count"`
	FoldersVisited int          `json:"folders_visited"`
	SkippedFolders []string     `json:"skipped_folders,omitempty"`
}

// FileOutput is one collected file.
type FileOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Export   bool   `json:"export"`
}

// AskInput is the input schema for the ask_folder tool.
type AskInput struct {
	Link     string `json:"link" jsonschema:"shareable Google Drive folder link"`
	Question string `json:"question" jsonschema:"question to answer from the folder's files"`
	Title    string `json:"title,omitempty" jsonschema:"title of the Google Doc the answer is written to"`
	NoDoc    bool   `json:"no_doc,omitempty" jsonschema:"skip writing the answer to a Google Doc"`
}

// AskOutput is the output schema for the ask_folder tool.
type AskOutput struct {
	RunID     string `json:"run_id"`
	Answer    string `json:"answer"`
	DocURL    string `json:"doc_url,omitempty"`
	FileCount int    `json:"file_count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "collect_folder",
		Description: "List every PDF and Google Workspace file under a Google Drive folder, recursively",
	}, s.handleCollect)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask_folder",
		Description: "Answer a question from the files under a Google Drive folder. " +
			"Files are uploaded to a retrieval assistant and the answer is written to a Google Doc.",
	}, s.handleAsk)
}

// handleCollect handles the collect_folder tool invocation.
func (s *Server) handleCollect(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CollectInput,
) (*mcp.CallToolResult, CollectOutput, error) {
	collection, err := s.ports.Query.Collect(ctx, input.Link)
	if err != nil {
		return nil, CollectOutput{}, err
	}

	output := CollectOutput{
		RootID:         collection.RootID,
		Files:          make([]FileOutput, len(collection.Files)),
		Count:          collection.Len(),
		FoldersVisited: collection.FoldersVisited,
	}
	for i, f := range collection.Files {
		output.Files[i] = FileOutput{
			ID:       f.ID,
			Name:     f.Name,
			MIMEType: f.MIMEType,
			Export:   f.IsExportable(),
		}
	}
	for _, failure := range collection.Skipped {
		output.SkippedFolders = append(output.SkippedFolders, failure.FolderID)
	}

	return nil, output, nil
}

// handleAsk handles the ask_folder tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	run, err := s.ports.Query.Run(ctx, domain.QueryRequest{
		FolderLink: input.Link,
		Question:   input.Question,
		Title:      input.Title,
		SkipDoc:    input.NoDoc,
	}, nil)
	if err != nil {
		if run != nil {
			return nil, AskOutput{}, fmt.Errorf("run %s: %w", run.ID, err)
		}
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		RunID:     run.ID,
		Answer:    run.Answer,
		DocURL:    run.DocURL,
		FileCount: run.FileCount,
	}, nil
}
