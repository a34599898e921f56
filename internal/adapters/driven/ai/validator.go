package ai

import (
	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks candidate provider settings by constructing a
// throwaway adapter and probing it, so the settings service never needs
// to import concrete providers.
type ConfigValidator struct{}

// NewConfigValidator creates the validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateLLM probes the LLM provider described by config.
func (v *ConfigValidator) ValidateLLM(config domain.LLMSettings) error {
	return ValidateLLMConfig(config)
}

// ValidateEmbedding probes the embedding provider described by config.
func (v *ConfigValidator) ValidateEmbedding(config domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(config)
}
