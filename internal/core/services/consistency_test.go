package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ansa/internal/core/domain"
)

func newConsistencyFixture(t *testing.T, llm *mockLLM, maxParallel int) *ConsistencyExecutor {
	t.Helper()
	store := memory.NewDocumentStore()
	hits := seedChunks(t, store, "tenant-a",
		[]string{"the capital of france is paris", "france is in europe"},
		[]float64{0.9, 0.8},
	)
	index := &mockIndex{hits: hits}
	settings := testSettings()
	settings.Consistency.MaxParallel = maxParallel
	retriever := NewRetriever(&mockEmbedder{}, index, store, settings.Retrieval)
	return NewConsistencyExecutor(retriever, llm, settings)
}

func TestConsistency_MajorityWins(t *testing.T) {
	// Five samples: three agree, two form a dissenting cluster.
	llm := &mockLLM{answers: []string{
		"The capital of France is Paris",
		"The capital of France is Paris",
		"The capital of France is Paris",
		"Berlin",
		"Berlin",
	}}
	e := newConsistencyFixture(t, llm, 0)
	plan := domain.ExecutionPlan{Strategy: domain.StrategySelfConsistency, SampleCount: 5}

	resp, err := e.Execute(context.Background(), "What is the capital of France?", "tenant-a", plan, domain.QueryOptions{})

	require.NoError(t, err)
	assert.Equal(t, "The capital of France is Paris", resp.Answer)
	assert.InDelta(t, 0.6, resp.AgreementScore, 1e-9)
	assert.InDelta(t, 0.6, resp.Confidence, 1e-9)
	assert.Len(t, resp.ReasoningTraces, 5)
	assert.False(t, resp.Degraded)
	assert.Equal(t, 5, llm.callCount())

	// Every trace carries its cluster's vote share.
	for _, trace := range resp.ReasoningTraces {
		if trace.Answer == "Berlin" {
			assert.InDelta(t, 0.4, trace.VoteScore, 1e-9)
		} else {
			assert.InDelta(t, 0.6, trace.VoteScore, 1e-9)
		}
	}
}

func TestConsistency_PartialFailureIsDegraded(t *testing.T) {
	// One trace fails (initial call plus its retry), the rest settle.
	llm := &mockLLM{
		answers:  []string{"The answer is forty-two"},
		failures: 2,
		failErr:  errors.New("model overloaded"),
	}
	e := newConsistencyFixture(t, llm, 1)
	plan := domain.ExecutionPlan{Strategy: domain.StrategySelfConsistency, SampleCount: 3}

	resp, err := e.Execute(context.Background(), "What is the answer?", "tenant-a", plan, domain.QueryOptions{})

	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Len(t, resp.ReasoningTraces, 2)
	// Both surviving traces agree: 2/2.
	assert.InDelta(t, 1.0, resp.AgreementScore, 1e-9)
}

func TestConsistency_AllTracesFail(t *testing.T) {
	llm := &mockLLM{
		failures: 100,
		failErr:  errors.New("model offline"),
	}
	e := newConsistencyFixture(t, llm, 0)
	plan := domain.ExecutionPlan{Strategy: domain.StrategySelfConsistency, SampleCount: 3}

	_, err := e.Execute(context.Background(), "What is the answer?", "tenant-a", plan, domain.QueryOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestConsistency_SingletonWinnerIsCapped(t *testing.T) {
	// Three mutually dissimilar answers: the winner is a cluster of one.
	llm := &mockLLM{answers: []string{
		"alpha one two three",
		"bravo four five six",
		"charlie seven eight nine",
	}}
	e := newConsistencyFixture(t, llm, 0)
	plan := domain.ExecutionPlan{Strategy: domain.StrategySelfConsistency, SampleCount: 3}

	resp, err := e.Execute(context.Background(), "What is it?", "tenant-a", plan, domain.QueryOptions{})

	require.NoError(t, err)
	assert.LessOrEqual(t, resp.Confidence, singletonConfidenceCap)
}

func TestAggregateConsensus_Deterministic(t *testing.T) {
	build := func() []domain.ReasoningTrace {
		return []domain.ReasoningTrace{
			{TraceID: "t1", Answer: "the capital of france is paris", Confidence: 0.6},
			{TraceID: "t2", Answer: "berlin is a city in germany", Confidence: 0.9},
			{TraceID: "t3", Answer: "The capital of France is Paris", Confidence: 0.8},
			{TraceID: "t4", Answer: "the capital of france is paris", Confidence: 0.8},
			{TraceID: "t5", Answer: "berlin is a city in germany", Confidence: 0.7},
		}
	}

	first := aggregateConsensus(build())
	second := aggregateConsensus(build())

	assert.Equal(t, first, second)
	assert.Equal(t, 3, first.size)
	assert.InDelta(t, 0.6, first.agreement, 1e-9)
	// Representative: highest confidence in the winning cluster, ties
	// broken toward the smallest trace ID, here t3 over t4.
	assert.Equal(t, "The capital of France is Paris", first.answer)
}

func TestAggregateConsensus_Empty(t *testing.T) {
	result := aggregateConsensus(nil)
	assert.Zero(t, result.size)
	assert.Empty(t, result.answer)
}

func TestAnswerSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, answerSimilarity("paris is nice", "paris is nice"))
	assert.Equal(t, 0.0, answerSimilarity("alpha bravo", "charlie delta"))

	// {a,b,c} vs {a,b,d}: 2 shared of 4 distinct.
	sim := answerSimilarity("alpha bravo charlie", "alpha bravo delta")
	assert.InDelta(t, 0.5, sim, 1e-9)
}

func TestTraceConfidence_HedgingPenalty(t *testing.T) {
	confident := traceConfidence("The capital is Paris, stated plainly in the source documents here.", "Long reasoning about the source material and what it establishes.")
	hedged := traceConfidence("Maybe the capital is Paris, but it is unclear from the documents here.", "Long reasoning about the source material and what it establishes.")

	assert.Greater(t, confident, hedged)
}
