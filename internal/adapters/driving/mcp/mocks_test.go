package mcp

import (
	"context"

	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	collection *domain.Collection
	run        *domain.Run
	err        error
	lastReq    domain.QueryRequest
	lastLink   string
}

func (m *mockQueryService) Run(
	_ context.Context,
	req domain.QueryRequest,
	_ driving.ProgressFunc,
) (*domain.Run, error) {
	m.lastReq = req
	return m.run, m.err
}

func (m *mockQueryService) Download(
	_ context.Context,
	_, _ string,
	_ driving.ProgressFunc,
) ([]domain.LocalFile, error) {
	return nil, m.err
}

func (m *mockQueryService) Collect(_ context.Context, link string) (*domain.Collection, error) {
	m.lastLink = link
	return m.collection, m.err
}

// mockRunHistory is a mock implementation of driving.RunHistory.
type mockRunHistory struct {
	runs []domain.Run
	err  error
}

func (m *mockRunHistory) List(_ context.Context, limit int) ([]domain.Run, error) {
	if limit > 0 && len(m.runs) > limit {
		return m.runs[:limit], m.err
	}
	return m.runs, m.err
}

func (m *mockRunHistory) Get(_ context.Context, id string) (*domain.Run, error) {
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}
