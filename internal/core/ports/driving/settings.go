package driving

import "github.com/custodia-labs/ansa/internal/core/domain"

// SettingsService reads and mutates application settings. Provider
// changes take effect for newly constructed adapters; a running process
// picks them up through the config watcher.
type SettingsService interface {
	// Get returns current settings, merged over defaults.
	Get() (domain.AppSettings, error)

	// Save persists the full settings document.
	Save(settings domain.AppSettings) error

	// SetLLMProvider switches the LLM provider, filling the default
	// model when model is empty.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetEmbeddingProvider switches the embedding provider, filling
	// default model and dimensions when model is empty.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// GetDefaults returns the built-in defaults.
	GetDefaults() domain.AppSettings

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error
}
