package driven

import "context"

// DocumentAssistant is a retrieval-augmented question answering service.
type DocumentAssistant interface {
	// UploadFile uploads a local file and returns its remote file ID.
	UploadFile(ctx context.Context, path string) (string, error)

	// CreateAssistant builds an assistant that can search the given files.
	// It returns once the files are indexed.
	CreateAssistant(ctx context.Context, name string, fileIDs []string) (string, error)

	// Ask poses a question to the assistant and returns its answer text.
	Ask(ctx context.Context, assistantID, question string) (string, error)

	// DeleteAssistant removes an assistant created by CreateAssistant.
	DeleteAssistant(ctx context.Context, assistantID string) error
}
