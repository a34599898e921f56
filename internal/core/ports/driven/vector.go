package driven

import "context"

// VectorIndex provides tenant-partitioned similarity search.
// The concrete index (FAISS/Milvus-equivalent) is an external
// collaborator; this contract is what the core depends on.
//
// Tenant isolation is a hard invariant: a search scoped to tenant A must
// never return chunks owned by any other tenant, regardless of the
// index implementation.
type VectorIndex interface {
	// Add inserts a vector for the given chunk, scoped to its tenant.
	Add(ctx context.Context, tenantID, chunkID string, embedding []float32) error

	// Delete removes a chunk's vector from the tenant's partition.
	Delete(ctx context.Context, tenantID, chunkID string) error

	// Search finds the k nearest neighbours to the query vector within
	// the tenant's partition, descending by similarity.
	Search(ctx context.Context, tenantID string, query []float32, k int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
