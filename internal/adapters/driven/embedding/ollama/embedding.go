// Package ollama embeds text through a local Ollama instance.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "nomic-embed-text"
	DefaultTimeout = 30 * time.Second

	// DefaultDimensions matches nomic-embed-text output.
	DefaultDimensions = 768
)

// Config holds connection settings for the Ollama embedding endpoint.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Dimensions == 0 {
		c.Dimensions = DefaultDimensions
	}
}

// EmbeddingService calls Ollama's /api/embeddings endpoint.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
}

// New creates an Ollama embedding service, filling unset config fields
// with defaults.
func New(cfg Config) *EmbeddingService {
	cfg.applyDefaults()
	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed returns the embedding vector for one text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]string{
		"model":  s.model,
		"prompt": text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama embeddings: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	vec := make([]float32, len(parsed.Embedding))
	for i, v := range parsed.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// EmbedBatch embeds texts one at a time; Ollama's embeddings endpoint
// takes a single prompt per call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// Dimensions returns the configured embedding vector size.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns the embedding model in use.
func (s *EmbeddingService) ModelName() string { return s.model }

// HealthCheck probes the instance via /api/tags.
func (s *EmbeddingService) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: create health request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: status %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (s *EmbeddingService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
