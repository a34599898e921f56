// Package vllm generates completions through a vLLM inference server.
// vLLM exposes an OpenAI-compatible chat API and needs no API key.
package vllm

import (
	"context"
	"time"

	"github.com/custodia-labs/ansa/internal/adapters/driven/llm/chatapi"
	"github.com/custodia-labs/ansa/internal/adapters/driven/llm/reasoning"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

var _ driven.LLMProvider = (*Provider)(nil)

const (
	DefaultBaseURL = "http://localhost:8000/v1"
	DefaultModel   = "meta-llama/Llama-3.1-8B-Instruct"
	DefaultTimeout = 120 * time.Second
)

// Config holds connection settings for the vLLM server.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Provider calls a vLLM server's chat completions endpoint.
type Provider struct {
	api *chatapi.Client
}

// New creates a vLLM provider, filling unset config fields with
// defaults.
func New(cfg Config) *Provider {
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
		api: chatapi.New("vllm", cfg.BaseURL, "", cfg.Model, cfg.Timeout),
	}
}

// Generate runs one completion and returns the response text.
func (p *Provider) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	return p.api.Complete(ctx, prompt, opts)
}

// GenerateWithReasoning runs one completion and parses chain-of-thought
// structure out of the text; vLLM has no native reasoning channel.
func (p *Provider) GenerateWithReasoning(ctx context.Context, prompt string, opts driven.GenerateOptions) (driven.Reasoned, error) {
	text, err := p.api.Complete(ctx, prompt, opts)
	if err != nil {
		return driven.Reasoned{}, err
	}
	return reasoning.Parse(text), nil
}

// ModelName returns the served model name.
func (p *Provider) ModelName() string {
	return p.api.Model()
}

// HealthCheck probes the server via /models.
func (p *Provider) HealthCheck(ctx context.Context) error {
	return p.api.HealthCheck(ctx)
}

// Close releases idle connections.
func (p *Provider) Close() error {
	return p.api.Close()
}
