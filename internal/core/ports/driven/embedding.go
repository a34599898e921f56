package driven

import "context"

// EmbeddingService turns text into vectors. It only produces embeddings;
// storage and similarity search belong to VectorIndex. The two must
// agree on Dimensions or index lookups return garbage.
type EmbeddingService interface {
	// Embed returns the embedding vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds many texts at once, in input order. Providers
	// with a batch API do this in a single round trip.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the model's vector size.
	Dimensions() int

	// ModelName returns the embedding model in use.
	ModelName() string

	// HealthCheck probes the provider with a lightweight request.
	HealthCheck(ctx context.Context) error

	// Close releases resources.
	Close() error
}
