// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// Progress carries a pipeline progress event into the model.
type Progress struct {
	Event domain.ProgressEvent
}

// Finished is sent once the pipeline returns.
type Finished struct {
	Run *domain.Run
	Err error
}
