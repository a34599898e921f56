package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/logger"
)

// generationRetryBackoff is the pause before the single generation retry.
const generationRetryBackoff = 300 * time.Millisecond

// noContextConfidenceCap bounds confidence when retrieval found nothing.
const noContextConfidenceCap = 0.3

// SingleHopExecutor is the baseline retrieve-then-generate path for
// simple questions.
type SingleHopExecutor struct {
	retriever *Retriever
	llm       driven.LLMProvider
	settings  domain.AppSettings
}

// NewSingleHopExecutor creates a single-hop executor.
func NewSingleHopExecutor(retriever *Retriever, llm driven.LLMProvider, settings domain.AppSettings) *SingleHopExecutor {
	return &SingleHopExecutor{retriever: retriever, llm: llm, settings: settings}
}

// Execute retrieves top-K chunks, reranks to top-N, generates once and
// assembles a response with hop_count = 1. Zero retrieved chunks still
// generates, with an explicit no-context notice, and confidence is
// capped at 0.3 so the answer is never presented as well-grounded.
func (e *SingleHopExecutor) Execute(
	ctx context.Context, question, tenantID string, opts domain.QueryOptions,
) (domain.Response, error) {
	logger.Section("Single-Hop Execution")

	candidates, err := e.retriever.Search(
		ctx, tenantID, question,
		e.settings.Retrieval.TopK, e.settings.Retrieval.SimilarityThreshold,
	)
	if err != nil {
		return domain.Response{}, fmt.Errorf("single hop retrieval: %w", err)
	}

	sources := e.retriever.Rerank(question, candidates, e.settings.Retrieval.TopN)
	logger.Debug("Single hop: %d candidates, %d after rerank", len(candidates), len(sources))

	prompt := buildPrompt(question, sources, opts.UseCoT)
	genOpts := driven.GenerateOptions{
		MaxTokens:   e.settings.LLM.MaxTokens,
		Temperature: e.settings.Consistency.BaseTemperature,
	}

	reasoned, err := generateWithRetry(ctx, e.llm, prompt, genOpts, opts.UseCoT)
	if err != nil {
		return domain.Response{}, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	confidence := generationConfidence(reasoned.Text, sources)
	if len(sources) == 0 && confidence > noContextConfidenceCap {
		confidence = noContextConfidenceCap
	}

	trace := domain.ReasoningTrace{
		TraceID:    newTraceID(),
		Steps:      reasoned.Steps,
		Reasoning:  reasoned.Reasoning,
		Answer:     reasoned.Text,
		Confidence: confidence,
		VoteScore:  1.0,
	}

	return domain.Response{
		Answer:          reasoned.Text,
		Sources:         sources,
		Confidence:      confidence,
		ReasoningTraces: []domain.ReasoningTrace{trace},
		HopCount:        1,
		Strategy:        domain.StrategySingleHop,
	}, nil
}

// generateWithRetry calls the provider once, retrying a single time with
// backoff. CoT requests go through GenerateWithReasoning so the steps
// come back parsed.
func generateWithRetry(
	ctx context.Context, llm driven.LLMProvider, prompt string, opts driven.GenerateOptions, withReasoning bool,
) (driven.Reasoned, error) {
	if llm == nil {
		return driven.Reasoned{}, domain.ErrLLMUnavailable
	}

	result, err := generateOnce(ctx, llm, prompt, opts, withReasoning)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return driven.Reasoned{}, ctx.Err()
	}

	logger.Warn("Generation failed (%v), retrying once", err)
	select {
	case <-ctx.Done():
		return driven.Reasoned{}, ctx.Err()
	case <-time.After(generationRetryBackoff):
	}

	return generateOnce(ctx, llm, prompt, opts, withReasoning)
}

func generateOnce(
	ctx context.Context, llm driven.LLMProvider, prompt string, opts driven.GenerateOptions, withReasoning bool,
) (driven.Reasoned, error) {
	if withReasoning {
		return llm.GenerateWithReasoning(ctx, prompt, opts)
	}
	text, err := llm.Generate(ctx, prompt, opts)
	if err != nil {
		return driven.Reasoned{}, err
	}
	return driven.Reasoned{Text: text}, nil
}
