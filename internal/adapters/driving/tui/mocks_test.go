package tui

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// MockQueryService is a mock implementation of driving.QueryService.
type MockQueryService struct {
	Response domain.Response
	Queries  []domain.Query
	Err      error
}

func (m *MockQueryService) Answer(_ context.Context, _ driving.QueryRequest) (domain.Response, error) {
	return m.Response, m.Err
}

func (m *MockQueryService) History(_ context.Context, _, _ string, _ int) ([]domain.Query, error) {
	return m.Queries, m.Err
}

// MockDocumentService is a mock implementation of driving.DocumentService.
type MockDocumentService struct {
	Documents []domain.Document
	Document  *domain.Document
	Err       error
}

func (m *MockDocumentService) Add(_ context.Context, _, _, _ string, _ map[string]any) (*domain.Document, error) {
	return m.Document, m.Err
}

func (m *MockDocumentService) List(_ context.Context, _ string) ([]domain.Document, error) {
	return m.Documents, m.Err
}

func (m *MockDocumentService) Delete(_ context.Context, _, _ string) error {
	return m.Err
}
