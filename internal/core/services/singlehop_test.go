package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

func newSingleHopFixture(t *testing.T, llm *mockLLM, hits []driven.VectorHit, store *memory.DocumentStore) *SingleHopExecutor {
	t.Helper()
	if store == nil {
		store = memory.NewDocumentStore()
	}
	settings := testSettings()
	retriever := NewRetriever(&mockEmbedder{}, &mockIndex{hits: hits}, store, settings.Retrieval)
	return NewSingleHopExecutor(retriever, llm, settings)
}

func TestSingleHop_AnswerWithSources(t *testing.T) {
	store := memory.NewDocumentStore()
	hits := seedChunks(t, store, "tenant-a",
		[]string{"the capital of france is paris", "france is in europe"},
		[]float64{0.9, 0.8},
	)
	llm := &mockLLM{answers: []string{"The capital of France is Paris."}}
	e := newSingleHopFixture(t, llm, hits, store)

	resp, err := e.Execute(context.Background(), "What is the capital of France?", "tenant-a", domain.QueryOptions{})

	require.NoError(t, err)
	assert.Equal(t, "The capital of France is Paris.", resp.Answer)
	assert.Equal(t, domain.StrategySingleHop, resp.Strategy)
	assert.Equal(t, 1, resp.HopCount)
	assert.NotEmpty(t, resp.Sources)
	require.Len(t, resp.ReasoningTraces, 1)
	assert.InDelta(t, 1.0, resp.ReasoningTraces[0].VoteScore, 1e-9)
	assert.Equal(t, 1, llm.callCount())
}

func TestSingleHop_NoContextCapsConfidence(t *testing.T) {
	llm := &mockLLM{answers: []string{"I cannot find this in the provided documents. The answer is likely Paris."}}
	e := newSingleHopFixture(t, llm, nil, nil)

	resp, err := e.Execute(context.Background(), "What is the capital of France?", "tenant-a", domain.QueryOptions{})

	require.NoError(t, err)
	assert.Empty(t, resp.Sources)
	assert.LessOrEqual(t, resp.Confidence, noContextConfidenceCap)
	// The prompt tells the model there is no retrieved context.
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, strings.ToLower(llm.prompts[0]), "no relevant")
}

func TestSingleHop_RetriesOnceThenSucceeds(t *testing.T) {
	llm := &mockLLM{
		answers:  []string{"forty-two"},
		failures: 1,
		failErr:  errors.New("model overloaded"),
	}
	e := newSingleHopFixture(t, llm, nil, nil)

	resp, err := e.Execute(context.Background(), "What is the answer?", "tenant-a", domain.QueryOptions{})

	require.NoError(t, err)
	assert.Equal(t, "forty-two", resp.Answer)
	assert.Equal(t, 1, llm.callCount())
	assert.Len(t, llm.prompts, 2)
}

func TestSingleHop_GenerationExhausted(t *testing.T) {
	llm := &mockLLM{
		failures: 2,
		failErr:  errors.New("model offline"),
	}
	e := newSingleHopFixture(t, llm, nil, nil)

	_, err := e.Execute(context.Background(), "What is the answer?", "tenant-a", domain.QueryOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestSingleHop_CoTProducesReasoningSteps(t *testing.T) {
	store := memory.NewDocumentStore()
	hits := seedChunks(t, store, "tenant-a",
		[]string{"the capital of france is paris"},
		[]float64{0.9},
	)
	llm := &mockLLM{answers: []string{"Paris"}}
	e := newSingleHopFixture(t, llm, hits, store)

	resp, err := e.Execute(context.Background(), "What is the capital?", "tenant-a", domain.QueryOptions{UseCoT: true})

	require.NoError(t, err)
	require.Len(t, resp.ReasoningTraces, 1)
	assert.NotEmpty(t, resp.ReasoningTraces[0].Steps)
	assert.NotEmpty(t, resp.ReasoningTraces[0].Reasoning)
}

func TestGenerateWithRetry_NilProvider(t *testing.T) {
	_, err := generateWithRetry(context.Background(), nil, "prompt", driven.GenerateOptions{}, false)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestGenerateWithRetry_CancelledContextStopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	llm := &mockLLM{failures: 1, failErr: errors.New("model overloaded")}

	_, err := generateWithRetry(ctx, llm, "prompt", driven.GenerateOptions{}, false)

	assert.ErrorIs(t, err, context.Canceled)
}
