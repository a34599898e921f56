package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyLLMMaxTokens   = "llm.max_tokens"
	keyLLMRPS         = "llm.requests_per_second"
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyMaxQuestionLen = "planner.max_question_length"
	keyMediumThresh   = "planner.medium_threshold"
	keyComplexThresh  = "planner.complex_threshold"
	keyMaxHops        = "planner.max_hops"
	keyTopK           = "retrieval.top_k"
	keyTopN           = "retrieval.top_n"
	keySimThreshold   = "retrieval.similarity_threshold"
	keySamples        = "consistency.samples"
	keyMaxSamples     = "consistency.max_samples"
	keyMaxParallel    = "consistency.max_parallel"
	keyBaseTemp       = "consistency.base_temperature"
	keyTempStep       = "consistency.temperature_step"
	keyOverlapThresh  = "verification.overlap_threshold"
	keyAppendCaveat   = "verification.append_caveat"
	keyRequestTimeout = "request_timeout_seconds"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Unset keys fall back to
// defaults, so a fresh install works without a config file.
func (s *SettingsService) Get() (domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			MaxTokens:         s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			RequestsPerSecond: s.getFloat(keyLLMRPS, defaults.LLM.RequestsPerSecond),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDims, defaults.Embedding.Dimensions),
		},
		Planner: domain.PlannerSettings{
			MaxQuestionLength: s.getInt(keyMaxQuestionLen, defaults.Planner.MaxQuestionLength),
			MediumThreshold:   s.getInt(keyMediumThresh, defaults.Planner.MediumThreshold),
			ComplexThreshold:  s.getInt(keyComplexThresh, defaults.Planner.ComplexThreshold),
			MaxHops:           s.getInt(keyMaxHops, defaults.Planner.MaxHops),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:                s.getInt(keyTopK, defaults.Retrieval.TopK),
			TopN:                s.getInt(keyTopN, defaults.Retrieval.TopN),
			SimilarityThreshold: s.getFloat(keySimThreshold, defaults.Retrieval.SimilarityThreshold),
		},
		Consistency: domain.ConsistencySettings{
			Samples:         s.getInt(keySamples, defaults.Consistency.Samples),
			MaxSamples:      s.getInt(keyMaxSamples, defaults.Consistency.MaxSamples),
			MaxParallel:     s.getInt(keyMaxParallel, defaults.Consistency.MaxParallel),
			BaseTemperature: s.getFloat(keyBaseTemp, defaults.Consistency.BaseTemperature),
			TemperatureStep: s.getFloat(keyTempStep, defaults.Consistency.TemperatureStep),
		},
		Verification: domain.VerificationSettings{
			OverlapThreshold: s.getFloat(keyOverlapThresh, defaults.Verification.OverlapThreshold),
			AppendCaveat:     s.getBoolDefault(keyAppendCaveat, defaults.Verification.AppendCaveat),
		},
		RequestTimeout: s.getDuration(keyRequestTimeout, defaults.RequestTimeout),
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings domain.AppSettings) error {
	values := map[string]any{
		keyLLMProvider:    settings.LLM.Provider.String(),
		keyLLMModel:       settings.LLM.Model,
		keyLLMBaseURL:     settings.LLM.BaseURL,
		keyLLMMaxTokens:   settings.LLM.MaxTokens,
		keyLLMRPS:         settings.LLM.RequestsPerSecond,
		keyEmbedProvider:  settings.Embedding.Provider.String(),
		keyEmbedModel:     settings.Embedding.Model,
		keyEmbedBaseURL:   settings.Embedding.BaseURL,
		keyEmbedDims:      settings.Embedding.Dimensions,
		keyMaxQuestionLen: settings.Planner.MaxQuestionLength,
		keyMediumThresh:   settings.Planner.MediumThreshold,
		keyComplexThresh:  settings.Planner.ComplexThreshold,
		keyMaxHops:        settings.Planner.MaxHops,
		keyTopK:           settings.Retrieval.TopK,
		keyTopN:           settings.Retrieval.TopN,
		keySimThreshold:   settings.Retrieval.SimilarityThreshold,
		keySamples:        settings.Consistency.Samples,
		keyMaxSamples:     settings.Consistency.MaxSamples,
		keyMaxParallel:    settings.Consistency.MaxParallel,
		keyBaseTemp:       settings.Consistency.BaseTemperature,
		keyTempStep:       settings.Consistency.TemperatureStep,
		keyOverlapThresh:  settings.Verification.OverlapThreshold,
		keyAppendCaveat:   settings.Verification.AppendCaveat,
		keyRequestTimeout: int(settings.RequestTimeout / time.Second),
	}

	for key, value := range values {
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	// API keys are written only when present so a wizard rerun without
	// credentials does not wipe the stored ones.
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrValidation, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrValidation, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	// Cloud providers use their fixed endpoint
	if !provider.IsLocal() {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrValidation, provider)
	}
	if provider == domain.AIProviderVLLM {
		return fmt.Errorf("%w: vllm does not serve embeddings", domain.ErrValidation)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrValidation, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if !provider.IsLocal() {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Keep the index dimensions in sync with the model
	if dims, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = dims
	}

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(settings.LLM)
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(settings.Embedding)
}

// getString returns the stored value or the default when unset.
func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

// getInt returns the stored value or the default when unset.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

// getFloat returns the stored value or the default when unset.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetFloat(key)
	}
	return defaultVal
}

// getBoolDefault returns the stored value or the default when unset.
func (s *SettingsService) getBoolDefault(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}

// getProvider returns the stored provider or the default when unset or invalid.
func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

// getDuration returns the stored value in seconds or the default when unset.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if _, ok := s.configStore.Get(key); ok {
		return time.Duration(s.configStore.GetInt(key)) * time.Second
	}
	return defaultVal
}
