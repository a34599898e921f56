// Package ollama generates completions through a local Ollama instance.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/ansa/internal/adapters/driven/llm/reasoning"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

var _ driven.LLMProvider = (*Provider)(nil)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config holds connection settings for the Ollama generate endpoint.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Provider calls Ollama's /api/generate endpoint with streaming off.
type Provider struct {
	client  *http.Client
	baseURL string
	model   string
}

// New creates an Ollama provider, filling unset config fields with
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
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// samplingOptions is the options object Ollama accepts inline in a
// generate request. Zero-valued fields are omitted from the wire.
type samplingOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Seed        int      `json:"seed,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// Generate runs one completion and returns the full response text.
func (p *Provider) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	payload := struct {
		Model   string           `json:"model"`
		Prompt  string           `json:"prompt"`
		Stream  bool             `json:"stream"`
		Options *samplingOptions `json:"options,omitempty"`
	}{Model: p.model, Prompt: prompt}

	if opts.MaxTokens > 0 || opts.Temperature > 0 || opts.Seed > 0 || len(opts.StopWords) > 0 {
		payload.Options = &samplingOptions{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			Seed:        opts.Seed,
			Stop:        opts.StopWords,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama generate: status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return parsed.Response, nil
}

// GenerateWithReasoning runs one completion and parses chain-of-thought
// structure out of the text; Ollama has no native reasoning channel.
func (p *Provider) GenerateWithReasoning(ctx context.Context, prompt string, opts driven.GenerateOptions) (driven.Reasoned, error) {
	text, err := p.Generate(ctx, prompt, opts)
	if err != nil {
		return driven.Reasoned{}, err
	}
	return reasoning.Parse(text), nil
}

// ModelName returns the model in use.
func (p *Provider) ModelName() string {
	return p.model
}

// HealthCheck probes /api/tags, which answers without running inference.
func (p *Provider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: create health request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ollama: status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}

// Close releases idle connections.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
