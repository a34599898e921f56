// Package openai generates completions through the OpenAI chat API or
// any compatible endpoint.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ansa/internal/adapters/driven/llm/chatapi"
	"github.com/custodia-labs/ansa/internal/adapters/driven/llm/reasoning"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

var _ driven.LLMProvider = (*Provider)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// Config holds connection settings. BaseURL may point at Azure OpenAI
// or another compatible server.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Provider calls the OpenAI chat completions API.
type Provider struct {
	api *chatapi.Client
}

// New creates an OpenAI provider. The API key is required.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Provider{
		api: chatapi.New("openai", cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout),
	}, nil
}

// Generate runs one completion and returns the response text.
func (p *Provider) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return p.api.Complete(ctx, prompt, opts)
}

// GenerateWithReasoning runs one completion and parses chain-of-thought
// structure out of the text.
func (p *Provider) GenerateWithReasoning(ctx context.Context, prompt string, opts driven.GenerateOptions) (driven.Reasoned, error) {
	text, err := p.api.Complete(ctx, prompt, opts)
	if err != nil {
		return driven.Reasoned{}, err
	}
	return reasoning.Parse(text), nil
}

// ModelName returns the model in use.
func (p *Provider) ModelName() string {
	return p.api.Model()
}

// HealthCheck validates the key with a lightweight /models request.
func (p *Provider) HealthCheck(ctx context.Context) error {
	return p.api.HealthCheck(ctx)
}

// Close releases idle connections.
func (p *Provider) Close() error {
	return p.api.Close()
}
