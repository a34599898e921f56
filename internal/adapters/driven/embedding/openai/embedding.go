// Package openai embeds text through the OpenAI embeddings API or any
// compatible endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	fallbackDimensions = 1536
)

// modelDimensions maps known embedding models to their native vector size.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds connection settings for the embeddings endpoint. BaseURL
// may point at Azure OpenAI or another compatible server.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions overrides the native size; only text-embedding-3-*
	// models accept the override on the wire.
	Dimensions int
}

// EmbeddingService calls the OpenAI embeddings API.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

// New creates an OpenAI embedding service. The API key is required.
func New(cfg Config) (*EmbeddingService, error) {
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

	dims := cfg.Dimensions
	if dims == 0 {
		if known, ok := modelDimensions[cfg.Model]; ok {
			dims = known
		} else {
			dims = fallbackDimensions
		}
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dims,
	}, nil
}

// supportsDimensionOverride reports whether the model accepts an explicit
// dimensions field in the request.
func (s *EmbeddingService) supportsDimensionOverride() bool {
	return strings.HasPrefix(s.model, "text-embedding-3-")
}

// Embed returns the embedding vector for one text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("openai: no embedding returned")
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts in a single API call, returning vectors in
// input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload := struct {
		Model      string   `json:"model"`
		Input      []string `json:"input"`
		Dimensions int      `json:"dimensions,omitempty"`
	}{Model: s.model, Input: texts}
	if s.supportsDimensionOverride() && s.dimensions > 0 {
		payload.Dimensions = s.dimensions
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openai: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai: status %d: %s", resp.StatusCode, string(raw))
	}

	// The API may return data out of order; place by index.
	vecs := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		if item.Index >= 0 && item.Index < len(vecs) {
			vecs[item.Index] = vec
		}
	}
	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns the embedding model in use.
func (s *EmbeddingService) ModelName() string { return s.model }

// HealthCheck validates the key with a lightweight /models request.
func (s *EmbeddingService) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: create health request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai: status %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (s *EmbeddingService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
