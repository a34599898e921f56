// Package mock provides a deterministic LLM provider for development and
// offline use. Completions are derived from the prompt itself, so the
// whole pipeline runs without any model server.
package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.LLMProvider = (*Provider)(nil)

// Provider is a deterministic offline LLM.
type Provider struct{}

// New creates a mock LLM provider.
func New() *Provider {
	return &Provider{}
}

// Generate echoes a deterministic completion built from the prompt's
// question and context lines. The same prompt always yields the same
// text; the seed varies wording slightly so self-consistency sampling
// still produces distinguishable traces.
func (p *Provider) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	question := lastQuestion(prompt)
	facts := contextLines(prompt, 2)

	var b strings.Builder
	if len(facts) == 0 {
		b.WriteString("I could not find supporting information in the knowledge base. ")
		b.WriteString("Based on general knowledge only: ")
		b.WriteString(question)
	} else {
		fmt.Fprintf(&b, "Based on the provided sources: %s", strings.Join(facts, " "))
	}
	if opts.Seed > 1 {
		fmt.Fprintf(&b, " (restated, variant %d)", opts.Seed)
	}
	return b.String(), nil
}

// GenerateWithReasoning returns the same deterministic answer with a
// synthetic two-step reasoning trail.
func (p *Provider) GenerateWithReasoning(ctx context.Context, prompt string, opts driven.GenerateOptions) (driven.Reasoned, error) {
	text, err := p.Generate(ctx, prompt, opts)
	if err != nil {
		return driven.Reasoned{}, err
	}
	steps := []string{
		"Collected the relevant statements from the provided context.",
		"Composed an answer restricted to what the context supports.",
	}
	return driven.Reasoned{
		Text:      text,
		Reasoning: strings.Join(steps, " "),
		Steps:     steps,
	}, nil
}

// ModelName returns the mock model identifier.
func (p *Provider) ModelName() string {
	return "mock"
}

// HealthCheck always succeeds.
func (p *Provider) HealthCheck(_ context.Context) error {
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}

// lastQuestion extracts the final "Question:" line from a prompt.
func lastQuestion(prompt string) string {
	lines := strings.Split(prompt, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(lines[i]), "Question:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return "the question"
}

// contextLines extracts up to n numbered context entries from a prompt.
func contextLines(prompt string, n int) []string {
	var facts []string
	for _, line := range strings.Split(prompt, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 3 && trimmed[0] >= '1' && trimmed[0] <= '9' && trimmed[1] == '.' {
			facts = append(facts, strings.TrimSpace(trimmed[2:]))
			if len(facts) == n {
				break
			}
		}
	}
	return facts
}
