package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderVLLM is a vLLM inference server (OpenAI-compatible).
	AIProviderVLLM AIProvider = "vllm"

	// AIProviderMock is the deterministic mock provider for development
	// and tests.
	AIProviderMock AIProvider = "mock"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderVLLM, AIProviderMock:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderVLLM || p == AIProviderMock
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderVLLM:
		return "vLLM (local inference server)"
	case AIProviderMock:
		return "Mock (development)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama/vLLM).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// MaxTokens caps generation length.
	MaxTokens int

	// RequestsPerSecond bounds provider load. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the embedding vector size.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// PlannerSettings holds complexity analysis and decomposition knobs.
type PlannerSettings struct {
	// MaxQuestionLength rejects questions longer than this many runes.
	MaxQuestionLength int

	// MediumThreshold is the minimum complexity score classified medium.
	MediumThreshold int

	// ComplexThreshold is the minimum complexity score classified complex.
	ComplexThreshold int

	// MaxHops caps multi-hop decomposition length. Longer decompositions
	// are truncated with a warning, never rejected.
	MaxHops int
}

// RetrievalSettings holds retriever adapter knobs.
type RetrievalSettings struct {
	// TopK is how many candidates the vector search returns.
	TopK int

	// TopN is how many candidates survive reranking.
	TopN int

	// SimilarityThreshold drops candidates scoring below it.
	SimilarityThreshold float64
}

// ConsistencySettings holds self-consistency executor knobs.
type ConsistencySettings struct {
	// Samples is the number of independent reasoning traces.
	Samples int

	// MaxSamples is the hard cap on Samples to bound cost.
	MaxSamples int

	// MaxParallel bounds concurrent generation calls. Zero means Samples.
	MaxParallel int

	// BaseTemperature is the sampling temperature of the first trace;
	// each further trace adds TemperatureStep for diversity.
	BaseTemperature float64
	TemperatureStep float64
}

// VerificationSettings holds verification pass knobs.
type VerificationSettings struct {
	// OverlapThreshold is the minimum claim/source term overlap ratio for
	// a claim to count as supported.
	OverlapThreshold float64

	// AppendCaveat appends a caveat line when unsupported claims remain.
	AppendCaveat bool
}

// AppSettings holds all application settings. It is immutable once built
// and threaded explicitly through the planner and executors, never read
// from ambient global state.
type AppSettings struct {
	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Planner holds complexity and decomposition settings.
	Planner PlannerSettings

	// Retrieval holds retriever settings.
	Retrieval RetrievalSettings

	// Consistency holds self-consistency settings.
	Consistency ConsistencySettings

	// Verification holds verification settings.
	Verification VerificationSettings

	// RequestTimeout bounds one whole query (planner + executor +
	// verification). Zero means no deadline.
	RequestTimeout time.Duration
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers default to mock so a fresh install is usable offline;
// users configure real providers via the settings wizard.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider:  AIProviderMock,
			MaxTokens: 1000,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderMock,
			Dimensions: 384,
		},
		Planner: PlannerSettings{
			MaxQuestionLength: 2000,
			MediumThreshold:   1,
			ComplexThreshold:  3,
			MaxHops:           3,
		},
		Retrieval: RetrievalSettings{
			TopK:                50,
			TopN:                5,
			SimilarityThreshold: 0.7,
		},
		Consistency: ConsistencySettings{
			Samples:         5,
			MaxSamples:      10,
			BaseTemperature: 0.7,
			TemperatureStep: 0.1,
		},
		Verification: VerificationSettings{
			OverlapThreshold: 0.3,
			AppendCaveat:     true,
		},
		RequestTimeout: 2 * time.Minute,
	}
}

// AllLLMProviders returns the providers that can serve completions, in
// presentation order.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderVLLM,
		AIProviderMock,
	}
}

// AllEmbeddingProviders returns the providers that can serve embeddings,
// in presentation order.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderMock,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o-mini",
		AIProviderVLLM:   "meta-llama/Llama-3.1-8B-Instruct",
		AIProviderMock:   "mock",
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderMock:   "mock",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Mock provider
		"mock": 384,
	}
}
