// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	mockembed "github.com/custodia-labs/ansa/internal/adapters/driven/embedding/mock"
	ollamaembed "github.com/custodia-labs/ansa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ansa/internal/adapters/driven/embedding/openai"
	mockllm "github.com/custodia-labs/ansa/internal/adapters/driven/llm/mock"
	ollamallm "github.com/custodia-labs/ansa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ansa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ansa/internal/adapters/driven/llm/ratelimit"
	vllmllm "github.com/custodia-labs/ansa/internal/adapters/driven/llm/vllm"
	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// ValidateLLMConfig validates an LLM configuration by creating a provider and
// pinging it. Intended for the settings wizard.
func ValidateLLMConfig(settings domain.LLMSettings) error {
	provider, err := CreateLLMProvider(settings)
	if err != nil {
		return err
	}
	defer provider.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return provider.HealthCheck(ctx)
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a
// service and pinging it. Intended for the settings wizard.
func ValidateEmbeddingConfig(settings domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.HealthCheck(ctx)
}

// CreateLLMProvider creates the appropriate LLM provider based on settings.
// The provider is wrapped with a rate limiter when RequestsPerSecond is set.
func CreateLLMProvider(settings domain.LLMSettings) (driven.LLMProvider, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("LLM provider not configured")
	}

	provider, err := createLLMProvider(settings)
	if err != nil {
		return nil, err
	}

	return ratelimit.Wrap(provider, settings.RequestsPerSecond), nil
}

func createLLMProvider(settings domain.LLMSettings) (driven.LLMProvider, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.New(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.New(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderVLLM:
		return vllmllm.New(vllmllm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderMock:
		return mockllm.New(), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("embedding provider not configured")
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.New(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.New(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderVLLM:
		return nil, fmt.Errorf("vllm does not serve embeddings, use ollama, openai or mock")

	case domain.AIProviderMock:
		return mockembed.New(settings.Dimensions), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}
