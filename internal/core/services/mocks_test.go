package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	embedding []float32
	embedErr  error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.embedding != nil {
		return m.embedding, nil
	}
	return make([]float32, 4), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = make([]float32, 4)
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int { return 4 }

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) HealthCheck(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

// mockIndex implements driven.VectorIndex for testing. failures sets how
// many Search calls error before one succeeds.
type mockIndex struct {
	mu       sync.Mutex
	hits     []driven.VectorHit
	failures int
	searches int
	failErr  error
}

func (m *mockIndex) Add(_ context.Context, _, _ string, _ []float32) error { return nil }

func (m *mockIndex) Delete(_ context.Context, _, _ string) error { return nil }

func (m *mockIndex) Search(_ context.Context, _ string, _ []float32, k int) ([]driven.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches++
	if m.failures > 0 {
		m.failures--
		return nil, m.failErr
	}
	if k > 0 && k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockIndex) Close() error { return nil }

// mockLLM implements driven.LLMProvider for testing. answers cycles per
// call; failures sets how many calls error before succeeding.
type mockLLM struct {
	mu       sync.Mutex
	answers  []string
	calls    int
	failures int
	failErr  error
	prompts  []string
}

func (m *mockLLM) next(prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.failures > 0 {
		m.failures--
		return "", m.failErr
	}
	answer := "mock answer"
	if len(m.answers) > 0 {
		answer = m.answers[m.calls%len(m.answers)]
	}
	m.calls++
	return answer, nil
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return m.next(prompt)
}

func (m *mockLLM) GenerateWithReasoning(_ context.Context, prompt string, _ driven.GenerateOptions) (driven.Reasoned, error) {
	text, err := m.next(prompt)
	if err != nil {
		return driven.Reasoned{}, err
	}
	return driven.Reasoned{
		Text:      text,
		Reasoning: "because the sources say so",
		Steps:     []string{"read the sources", "conclude"},
	}, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) HealthCheck(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Test helpers ---

func testSettings() domain.AppSettings {
	s := domain.DefaultAppSettings()
	s.RequestTimeout = 10 * time.Second
	return s
}

// seedChunks stores chunks for one tenant and returns matching hits.
func seedChunks(t *testing.T, store *memory.DocumentStore, tenantID string, texts []string, scores []float64) []driven.VectorHit {
	t.Helper()
	ctx := context.Background()
	doc := &domain.Document{ID: "doc-" + tenantID, TenantID: tenantID, Processed: true}
	require.NoError(t, store.SaveDocument(ctx, doc))

	chunks := make([]domain.Chunk, len(texts))
	hits := make([]driven.VectorHit, len(texts))
	for i, text := range texts {
		id := "chunk-" + tenantID + "-" + string(rune('a'+i))
		chunks[i] = domain.Chunk{
			ID:         id,
			DocumentID: doc.ID,
			TenantID:   tenantID,
			Text:       text,
		}
		hits[i] = driven.VectorHit{ChunkID: id, Similarity: scores[i]}
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))
	return hits
}
