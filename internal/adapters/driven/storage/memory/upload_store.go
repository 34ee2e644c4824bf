package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
)

// Ensure UploadStore implements the interface.
var _ driven.UploadStore = (*UploadStore)(nil)

// UploadStore is an in-memory implementation of driven.UploadStore.
type UploadStore struct {
	mu      sync.RWMutex
	records map[string]domain.UploadRecord
}

// NewUploadStore creates a new in-memory upload store.
func NewUploadStore() *UploadStore {
	return &UploadStore{
		records: make(map[string]domain.UploadRecord),
	}
}

// Save records an upload.
func (s *UploadStore) Save(_ context.Context, record domain.UploadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.DriveFileID] = record
	return nil
}

// Get returns the upload record for a Drive file.
func (s *UploadStore) Get(_ context.Context, driveFileID string) (*domain.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[driveFileID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// Delete forgets an upload.
func (s *UploadStore) Delete(_ context.Context, driveFileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, driveFileID)
	return nil
}
