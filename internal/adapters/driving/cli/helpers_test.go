package cli

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// setupTestServices installs mock services and returns a cleanup function
// that restores the previous ones.
func setupTestServices() func() {
	oldQuery := queryService
	oldDocument := documentService
	oldSettings := settingsService
	oldLLM := llmProvider
	oldEmbedding := embeddingService

	queryService = &mockQueryService{}
	documentService = &mockDocumentService{}
	settingsService = &mockCLISettingsService{}
	llmProvider = &mockHealthLLM{}
	embeddingService = &mockHealthEmbedding{}

	return func() {
		queryService = oldQuery
		documentService = oldDocument
		settingsService = oldSettings
		llmProvider = oldLLM
		embeddingService = oldEmbedding
	}
}

// --- Mock implementations ---

type mockQueryService struct {
	answerErr  error
	historyErr error
}

func (m *mockQueryService) Answer(_ context.Context, req driving.QueryRequest) (domain.Response, error) {
	if m.answerErr != nil {
		return domain.Response{}, m.answerErr
	}
	return domain.Response{
		Answer:     "Paris is the capital of France.",
		Confidence: 0.92,
		Strategy:   domain.StrategySingleHop,
		QueryID:    "query-1",
		Sources: []domain.RetrievedChunk{
			{ChunkID: "chunk-1", DocumentID: "doc-1", Text: "Paris is the capital of France.", Score: 0.88},
		},
		ProcessingTime: 120 * time.Millisecond,
	}, nil
}

func (m *mockQueryService) History(_ context.Context, tenantID, userID string, limit int) ([]domain.Query, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return []domain.Query{
		{
			ID:             "query-1",
			TenantID:       tenantID,
			Question:       "What is the capital of France?",
			Answer:         "Paris is the capital of France.",
			Confidence:     0.92,
			HopCount:       1,
			Status:         domain.QueryStatusCompleted,
			ProcessingTime: 120 * time.Millisecond,
			CreatedAt:      time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		},
	}, nil
}

type mockQueryServiceError struct{}

func (m *mockQueryServiceError) Answer(context.Context, driving.QueryRequest) (domain.Response, error) {
	return domain.Response{}, errors.New("mock answer failure")
}

func (m *mockQueryServiceError) History(context.Context, string, string, int) ([]domain.Query, error) {
	return nil, errors.New("mock history failure")
}

type mockDocumentService struct {
	deleteErr error
}

func (m *mockDocumentService) Add(_ context.Context, tenantID, path, docType string, _ map[string]any) (*domain.Document, error) {
	if docType == "" {
		docType = "text"
	}
	return &domain.Document{
		ID:           "doc-1",
		TenantID:     tenantID,
		OriginalPath: path,
		DocType:      docType,
		FileSize:     1024,
		Processed:    true,
		UploadedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}, nil
}

func (m *mockDocumentService) List(_ context.Context, tenantID string) ([]domain.Document, error) {
	return []domain.Document{
		{
			ID:           "doc-1",
			TenantID:     tenantID,
			OriginalPath: "/tmp/notes.md",
			DocType:      "markdown",
			Processed:    true,
			UploadedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		},
	}, nil
}

func (m *mockDocumentService) Delete(context.Context, string, string) error {
	return m.deleteErr
}

type mockCLISettingsService struct {
	llmErr   error
	embedErr error
}

func (m *mockCLISettingsService) Get() (domain.AppSettings, error) {
	return domain.DefaultAppSettings(), nil
}

func (m *mockCLISettingsService) Save(domain.AppSettings) error { return nil }

func (m *mockCLISettingsService) SetLLMProvider(domain.AIProvider, string, string) error {
	return nil
}

func (m *mockCLISettingsService) SetEmbeddingProvider(domain.AIProvider, string, string) error {
	return nil
}

func (m *mockCLISettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockCLISettingsService) ValidateLLMConfig() error { return m.llmErr }

func (m *mockCLISettingsService) ValidateEmbeddingConfig() error { return m.embedErr }

type mockHealthLLM struct {
	healthErr error
}

func (m *mockHealthLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	return "", nil
}

func (m *mockHealthLLM) GenerateWithReasoning(context.Context, string, driven.GenerateOptions) (driven.Reasoned, error) {
	return driven.Reasoned{}, nil
}

func (m *mockHealthLLM) ModelName() string { return "mock-llm" }

func (m *mockHealthLLM) HealthCheck(context.Context) error { return m.healthErr }

func (m *mockHealthLLM) Close() error { return nil }

type mockHealthEmbedding struct {
	healthErr error
}

func (m *mockHealthEmbedding) Embed(context.Context, string) ([]float32, error) {
	return make([]float32, 4), nil
}

func (m *mockHealthEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, 4)
	}
	return out, nil
}

func (m *mockHealthEmbedding) Dimensions() int { return 4 }

func (m *mockHealthEmbedding) ModelName() string { return "mock-embed" }

func (m *mockHealthEmbedding) HealthCheck(context.Context) error { return m.healthErr }

func (m *mockHealthEmbedding) Close() error { return nil }
