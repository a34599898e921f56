package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/logger"
)

// failedHopPenalty scales the blended confidence once per failed hop.
const failedHopPenalty = 0.85

// maxDependencyChars bounds how much of a dependency's answer is
// threaded into the next sub-query.
const maxDependencyChars = 300

// hopState tracks one hop through its lifecycle.
type hopState string

// Hop states. Terminal states are done and failed.
const (
	hopPending    hopState = "pending"
	hopRetrieving hopState = "retrieving"
	hopGenerating hopState = "generating"
	hopDone       hopState = "done"
	hopFailed     hopState = "failed"
)

// hopOutcome is the result of executing one hop.
type hopOutcome struct {
	spec       domain.HopSpec
	state      hopState
	answer     string
	sources    []domain.RetrievedChunk
	confidence float64
	err        error
}

// MultiHopExecutor runs an execution plan's ordered hops, threading
// context forward along dependency edges. A failed hop contributes an
// empty-context notice and the plan continues; the terminal response
// reports degraded=true and the failed hop indices.
type MultiHopExecutor struct {
	retriever *Retriever
	llm       driven.LLMProvider
	settings  domain.AppSettings
}

// NewMultiHopExecutor creates a multi-hop executor.
func NewMultiHopExecutor(retriever *Retriever, llm driven.LLMProvider, settings domain.AppSettings) *MultiHopExecutor {
	return &MultiHopExecutor{retriever: retriever, llm: llm, settings: settings}
}

// Execute runs every hop to a terminal state, then synthesises the final
// answer from the ordered (sub-question, hop answer) pairs. Hops run
// sequentially in dependency order; a hop starts only after all of its
// dependencies are terminal. If the request deadline expires mid-plan,
// the executor returns the best-available partial synthesis rather than
// hanging.
func (e *MultiHopExecutor) Execute(
	ctx context.Context, question, tenantID string, plan domain.ExecutionPlan, opts domain.QueryOptions,
) (domain.Response, error) {
	logger.Section("Multi-Hop Execution")
	logger.Info("Multi-hop: executing %d hops", len(plan.Hops))

	outcomes := make([]hopOutcome, len(plan.Hops))
	deadlineHit := false

	for i, spec := range plan.Hops {
		if deadlineHit || ctx.Err() != nil {
			deadlineHit = true
			outcomes[i] = hopOutcome{spec: spec, state: hopFailed, err: ctx.Err()}
			continue
		}
		outcomes[i] = e.executeHop(ctx, tenantID, spec, outcomes[:i])
		if outcomes[i].err != nil && ctx.Err() != nil {
			deadlineHit = true
		}
	}

	var failed []int
	var total float64
	for i := range outcomes {
		if outcomes[i].state == hopFailed {
			failed = append(failed, i)
			continue // failed hops contribute 0
		}
		total += outcomes[i].confidence
	}

	answer, synthErr := e.synthesise(ctx, question, outcomes)
	if synthErr != nil && !deadlineHit {
		return domain.Response{}, fmt.Errorf("%w: synthesis: %w", domain.ErrGenerationUnavailable, synthErr)
	}

	confidence := total / float64(len(outcomes))
	for range failed {
		confidence *= failedHopPenalty
	}

	return domain.Response{
		Answer:     answer,
		Sources:    collectSources(outcomes),
		Confidence: confidence,
		HopCount:   len(outcomes),
		Strategy:   domain.StrategyMultiHop,
		Degraded:   len(failed) > 0 || deadlineHit,
		FailedHops: failed,
	}, nil
}

// executeHop walks one hop through the state machine:
// pending -> retrieving -> generating -> done, with either middle state
// able to fall to failed.
func (e *MultiHopExecutor) executeHop(
	ctx context.Context, tenantID string, spec domain.HopSpec, prior []hopOutcome,
) hopOutcome {
	outcome := hopOutcome{spec: spec, state: hopPending}
	logger.Debug("Hop %q (%s): %s", spec.SubQuestion, spec.Type, outcome.state)

	// Dependency outputs thread into the sub-query. A failed dependency
	// degrades the hop with a note instead of blocking it.
	subQuery, depNote := e.threadContext(spec, prior)

	outcome.state = hopRetrieving
	sources, err := e.retrieveForHop(ctx, tenantID, subQuery)
	if err != nil {
		logger.Warn("Hop retrieval failed: %v", err)
		outcome.state = hopFailed
		outcome.err = err
		return outcome
	}
	outcome.sources = sources

	outcome.state = hopGenerating
	prompt := buildPrompt(subQuery, sources, false)
	if depNote != "" {
		prompt = depNote + "\n\n" + prompt
	}
	genOpts := driven.GenerateOptions{
		MaxTokens:   e.settings.LLM.MaxTokens,
		Temperature: e.settings.Consistency.BaseTemperature,
	}
	reasoned, err := generateWithRetry(ctx, e.llm, prompt, genOpts, false)
	if err != nil {
		logger.Warn("Hop generation failed: %v", err)
		outcome.state = hopFailed
		outcome.err = err
		return outcome
	}

	outcome.answer = reasoned.Text
	outcome.confidence = generationConfidence(reasoned.Text, sources)
	outcome.state = hopDone
	logger.Debug("Hop done: confidence=%.2f sources=%d", outcome.confidence, len(sources))
	return outcome
}

// retrieveForHop retrieves with tighter limits than the single-hop path;
// sub-queries are narrower than whole questions.
func (e *MultiHopExecutor) retrieveForHop(ctx context.Context, tenantID, subQuery string) ([]domain.RetrievedChunk, error) {
	topK := e.settings.Retrieval.TopK / 2
	if topK < 1 {
		topK = 1
	}
	topN := e.settings.Retrieval.TopN / 2
	if topN < 1 {
		topN = 1
	}

	candidates, err := e.retriever.Search(ctx, tenantID, subQuery, topK, e.settings.Retrieval.SimilarityThreshold)
	if err != nil {
		return nil, err
	}
	return e.retriever.Rerank(subQuery, candidates, topN), nil
}

// threadContext appends dependency answers to the sub-query and builds
// a degradation note for failed dependencies. Compare and extract hops
// need their dependencies; when one failed they run in degraded mode
// with the note standing in for the missing output.
func (e *MultiHopExecutor) threadContext(spec domain.HopSpec, prior []hopOutcome) (string, string) {
	if len(spec.DependsOn) == 0 {
		if spec.Type.RequiresDependencies() {
			return spec.SubQuestion, fmt.Sprintf("Note: this %s step has no earlier findings to work from. "+
				"Answer from retrieval alone and flag the gap.", spec.Type)
		}
		return spec.SubQuestion, ""
	}

	var findings []string
	var missing []int
	for _, dep := range spec.DependsOn {
		if dep < 0 || dep >= len(prior) {
			continue
		}
		if prior[dep].state != hopDone || prior[dep].answer == "" {
			missing = append(missing, dep)
			continue
		}
		findings = append(findings, fmt.Sprintf("- %s", clipText(prior[dep].answer, maxDependencyChars)))
	}

	subQuery := spec.SubQuestion
	if len(findings) > 0 {
		subQuery = spec.SubQuestion + "\n\nPrevious findings:\n" + strings.Join(findings, "\n")
	}

	var note string
	if len(missing) > 0 {
		note = fmt.Sprintf("Note: %d earlier step(s) failed; their findings are unavailable. "+
			"Answer from what remains and flag the gap.", len(missing))
		logger.Warn("Hop %q missing %d dependency outputs", spec.SubQuestion, len(missing))
	}
	return subQuery, note
}

// synthesise produces the final answer from the ordered hop outcomes.
// When the deadline already expired the hop answers are joined textually
// instead of spending a generation call we no longer have time for.
func (e *MultiHopExecutor) synthesise(ctx context.Context, question string, outcomes []hopOutcome) (string, error) {
	if ctx.Err() == nil {
		prompt := buildSynthesisPrompt(question, outcomes)
		genOpts := driven.GenerateOptions{
			MaxTokens:   e.settings.LLM.MaxTokens,
			Temperature: e.settings.Consistency.BaseTemperature,
		}
		reasoned, err := generateWithRetry(ctx, e.llm, prompt, genOpts, false)
		if err == nil {
			return reasoned.Text, nil
		}
		if ctx.Err() == nil {
			return "", err
		}
	}

	// Best-available partial synthesis.
	var parts []string
	for _, o := range outcomes {
		if o.state == hopDone && o.answer != "" {
			parts = append(parts, o.answer)
		}
	}
	if len(parts) == 0 {
		return "The question could not be answered before the deadline.", nil
	}
	return strings.Join(parts, " "), nil
}

// collectSources deduplicates the union of all hop sources, preserving
// hop order then score order within a hop.
func collectSources(outcomes []hopOutcome) []domain.RetrievedChunk {
	var all []domain.RetrievedChunk
	seen := make(map[string]bool)
	for _, o := range outcomes {
		for _, src := range o.sources {
			if seen[src.ChunkID] {
				continue
			}
			seen[src.ChunkID] = true
			all = append(all, src)
		}
	}
	return all
}
