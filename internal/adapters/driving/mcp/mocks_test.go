package mcp

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	response domain.Response
	queries  []domain.Query
	err      error

	lastRequest driving.QueryRequest
}

func (m *mockQueryService) Answer(_ context.Context, req driving.QueryRequest) (domain.Response, error) {
	m.lastRequest = req
	return m.response, m.err
}

func (m *mockQueryService) History(_ context.Context, _, _ string, _ int) ([]domain.Query, error) {
	return m.queries, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	err       error
}

func (m *mockDocumentService) Add(_ context.Context, _, _, _ string, _ map[string]any) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _, _ string) error {
	return m.err
}
