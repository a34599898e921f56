// Package mock provides a deterministic embedding service for
// development and offline use. Vectors are derived from token hashes,
// so similar texts land near each other and the same text always maps
// to the same vector.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions matches the small local models the settings default to.
const DefaultDimensions = 384

// EmbeddingService generates hashed bag-of-words vectors.
type EmbeddingService struct {
	dimensions int
}

// New creates a mock embedding service.
func New(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed maps each token onto a hashed dimension and L2-normalises the
// result, giving cosine similarity proportional to token overlap.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, s.dimensions)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%s.dimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the mock model identifier.
func (s *EmbeddingService) ModelName() string {
	return "mock"
}

// HealthCheck always succeeds.
func (s *EmbeddingService) HealthCheck(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
