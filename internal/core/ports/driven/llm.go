package driven

import "context"

// LLMProvider provides text generation for answer synthesis.
// Provider swap (local vs cloud) must not change core behaviour beyond
// latency and quality; implementations are selected once at process
// start and never mixed mid-request.
//
// Implementations include:
//   - Ollama (local models)
//   - OpenAI (cloud)
//   - vLLM (local inference server, OpenAI-compatible)
//   - Mock (deterministic, for development and tests)
type LLMProvider interface {
	// Generate produces a text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// GenerateWithReasoning produces a completion plus parsed reasoning
	// steps. Providers without native reasoning output derive steps from
	// a chain-of-thought prompt format.
	GenerateWithReasoning(ctx context.Context, prompt string, opts GenerateOptions) (Reasoned, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// HealthCheck validates the provider is reachable with a lightweight
	// request. Used at startup before committing to a provider.
	HealthCheck(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// Seed varies sampling for otherwise identical prompts, where the
	// provider supports it.
	Seed int

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// Reasoned is a completion with its reasoning broken out.
type Reasoned struct {
	// Text is the final answer text.
	Text string

	// Reasoning is the raw reasoning text preceding the answer.
	Reasoning string

	// Steps are the individual reasoning steps, in order.
	Steps []string
}
