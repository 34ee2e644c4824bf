package driven

import (
	"context"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// DocumentWriter creates documents holding answer text.
type DocumentWriter interface {
	// Write creates a new document with the given title and body.
	Write(ctx context.Context, title, body string) (*domain.WrittenDoc, error)
}
