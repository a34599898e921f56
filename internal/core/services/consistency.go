package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/logger"
)

// clusterSimilarity is the minimum normalized-token Jaccard for two
// answers to share a consensus cluster.
const clusterSimilarity = 0.6

// singletonConfidenceCap bounds confidence when the winning cluster has
// a single member: one vote is not agreement.
const singletonConfidenceCap = 0.5

// uncertaintyWords each shave 20% off a trace's own confidence.
var uncertaintyWords = []string{
	"maybe", "perhaps", "might", "could", "possibly",
	"unclear", "uncertain", "not sure", "don't know",
}

// ConsistencyExecutor improves reliability by sampling several
// independent reasoning traces over the same retrieved context and
// reconciling them by consensus.
type ConsistencyExecutor struct {
	retriever *Retriever
	llm       driven.LLMProvider
	settings  domain.AppSettings
}

// NewConsistencyExecutor creates a self-consistency executor.
func NewConsistencyExecutor(retriever *Retriever, llm driven.LLMProvider, settings domain.AppSettings) *ConsistencyExecutor {
	return &ConsistencyExecutor{retriever: retriever, llm: llm, settings: settings}
}

// Execute retrieves once, fans out sampleCount generation calls with
// varied temperature/seed, joins them all, and aggregates by consensus.
// Individual trace failures are tolerated; the operation fails only if
// every trace fails.
func (e *ConsistencyExecutor) Execute(
	ctx context.Context, question, tenantID string, plan domain.ExecutionPlan, opts domain.QueryOptions,
) (domain.Response, error) {
	logger.Section("Self-Consistency Execution")

	candidates, err := e.retriever.Search(
		ctx, tenantID, question,
		e.settings.Retrieval.TopK, e.settings.Retrieval.SimilarityThreshold,
	)
	if err != nil {
		return domain.Response{}, fmt.Errorf("self-consistency retrieval: %w", err)
	}
	sources := e.retriever.Rerank(question, candidates, e.settings.Retrieval.TopN)

	samples := plan.SampleCount
	if samples < 1 {
		samples = 1
	}
	traces, err := e.sampleTraces(ctx, question, sources, samples, opts)
	if err != nil {
		return domain.Response{}, err
	}

	winner := aggregateConsensus(traces)
	logger.Info("Self-consistency: %d/%d traces valid, agreement=%.2f",
		len(traces), samples, winner.agreement)

	confidence := winner.agreement
	if winner.size == 1 && confidence > singletonConfidenceCap {
		confidence = singletonConfidenceCap
	}
	if len(sources) == 0 && confidence > noContextConfidenceCap {
		confidence = noContextConfidenceCap
	}

	return domain.Response{
		Answer:          winner.answer,
		Sources:         sources,
		Confidence:      confidence,
		ReasoningTraces: traces,
		HopCount:        1,
		Strategy:        domain.StrategySelfConsistency,
		AgreementScore:  winner.agreement,
		Degraded:        len(traces) < samples,
	}, nil
}

// sampleTraces runs the fan-out/fan-in barrier: sampleCount concurrent
// generation calls, bounded by MaxParallel, joined before aggregation
// starts. Failed samples are dropped; only a total failure aborts.
func (e *ConsistencyExecutor) sampleTraces(
	ctx context.Context, question string, sources []domain.RetrievedChunk, samples int, opts domain.QueryOptions,
) ([]domain.ReasoningTrace, error) {
	prompt := buildPrompt(question, sources, true)

	results := make([]*domain.ReasoningTrace, samples)
	errs := make([]error, samples)

	var g errgroup.Group
	limit := e.settings.Consistency.MaxParallel
	if limit <= 0 || limit > samples {
		limit = samples
	}
	g.SetLimit(limit)

	for i := 0; i < samples; i++ {
		g.Go(func() error {
			genOpts := driven.GenerateOptions{
				MaxTokens:   e.settings.LLM.MaxTokens,
				Temperature: e.settings.Consistency.BaseTemperature + float64(i)*e.settings.Consistency.TemperatureStep,
				Seed:        i + 1,
			}

			reasoned, err := generateWithRetry(ctx, e.llm, prompt, genOpts, true)
			if err != nil {
				logger.Warn("Self-consistency: trace %d failed: %v", i, err)
				errs[i] = err // partial failure is tolerated
				return nil
			}

			results[i] = &domain.ReasoningTrace{
				TraceID:    newTraceID(),
				Steps:      reasoned.Steps,
				Reasoning:  reasoned.Reasoning,
				Answer:     reasoned.Text,
				Confidence: traceConfidence(reasoned.Text, reasoned.Reasoning),
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; the barrier is the point

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	traces := make([]domain.ReasoningTrace, 0, samples)
	var firstErr error
	for i, t := range results {
		if t != nil {
			traces = append(traces, *t)
		} else if firstErr == nil {
			firstErr = errs[i]
		}
	}
	if len(traces) == 0 {
		return nil, fmt.Errorf("%w: all %d traces failed: %w", domain.ErrGenerationUnavailable, samples, firstErr)
	}
	return traces, nil
}

// consensusResult is the winning cluster's summary.
type consensusResult struct {
	answer    string
	agreement float64
	size      int
}

// aggregateConsensus clusters traces by normalized answer similarity and
// elects the heaviest cluster. The whole aggregation is deterministic
// for identical inputs: traces are processed in ascending trace-ID
// order, and ties break toward the lexically smallest representative.
// It also fills in each trace's VoteScore in place.
func aggregateConsensus(traces []domain.ReasoningTrace) consensusResult {
	if len(traces) == 0 {
		return consensusResult{}
	}

	order := make([]int, len(traces))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return traces[order[a]].TraceID < traces[order[b]].TraceID
	})

	// Greedy clustering: each trace joins the first cluster whose seed
	// answer is close enough, else starts a new one.
	type cluster struct {
		seed    string // normalized seed answer
		members []int
	}
	var clusters []*cluster
	for _, idx := range order {
		normalized := normaliseAnswer(traces[idx].Answer)
		joined := false
		for _, c := range clusters {
			if answerSimilarity(normalized, c.seed) >= clusterSimilarity {
				c.members = append(c.members, idx)
				joined = true
				break
			}
		}
		if !joined {
			clusters = append(clusters, &cluster{seed: normalized, members: []int{idx}})
		}
	}

	// Elect the heaviest cluster; earlier formation wins ties because
	// formation order follows trace-ID order.
	best := clusters[0]
	for _, c := range clusters[1:] {
		if len(c.members) > len(best.members) {
			best = c
		}
	}

	// Failed traces were excluded before aggregation, so the effective
	// sample count is the number of traces that settled successfully.
	effective := len(traces)
	for _, c := range clusters {
		vote := float64(len(c.members)) / float64(effective)
		for _, idx := range c.members {
			traces[idx].VoteScore = vote
		}
	}

	// Representative: highest own confidence, ties to the smallest
	// trace ID for reproducibility.
	rep := best.members[0]
	for _, idx := range best.members[1:] {
		if traces[idx].Confidence > traces[rep].Confidence ||
			(traces[idx].Confidence == traces[rep].Confidence && traces[idx].TraceID < traces[rep].TraceID) {
			rep = idx
		}
	}

	return consensusResult{
		answer:    traces[rep].Answer,
		agreement: float64(len(best.members)) / float64(effective),
		size:      len(best.members),
	}
}

// traceConfidence estimates a single trace's confidence from answer and
// reasoning length, penalised for hedging language.
func traceConfidence(answer, reasoning string) float64 {
	answerPart := float64(len(answer)) / 100
	if answerPart > 1 {
		answerPart = 1
	}
	reasoningPart := float64(len(reasoning)) / 500
	if reasoningPart > 1 {
		reasoningPart = 1
	}

	penalty := 1.0
	lower := strings.ToLower(answer + " " + reasoning)
	for _, word := range uncertaintyWords {
		if strings.Contains(lower, word) {
			penalty *= 0.8
		}
	}

	confidence := (answerPart + reasoningPart) / 2 * penalty
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// normaliseAnswer lowercases and collapses whitespace for comparison.
func normaliseAnswer(answer string) string {
	return strings.Join(strings.Fields(strings.ToLower(answer)), " ")
}

// answerSimilarity is the token Jaccard of two normalized answers.
func answerSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	setA := make(map[string]bool)
	for _, t := range strings.Fields(a) {
		setA[t] = true
	}
	setB := make(map[string]bool)
	for _, t := range strings.Fields(b) {
		setB[t] = true
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
