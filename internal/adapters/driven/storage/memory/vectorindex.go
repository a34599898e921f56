package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory, tenant-partitioned cosine-similarity
// index. Partitions are physically separate maps; a search touches only
// its own tenant's partition.
type VectorIndex struct {
	mu         sync.RWMutex
	partitions map[string]map[string][]float32
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{partitions: make(map[string]map[string][]float32)}
}

// Add inserts a vector for the given chunk, scoped to its tenant.
func (x *VectorIndex) Add(_ context.Context, tenantID, chunkID string, embedding []float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.partitions[tenantID] == nil {
		x.partitions[tenantID] = make(map[string][]float32)
	}
	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	x.partitions[tenantID][chunkID] = vec
	return nil
}

// Delete removes a chunk's vector from the tenant's partition.
func (x *VectorIndex) Delete(_ context.Context, tenantID, chunkID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.partitions[tenantID], chunkID)
	return nil
}

// Search finds the k nearest neighbours within the tenant's partition,
// descending by similarity.
func (x *VectorIndex) Search(_ context.Context, tenantID string, query []float32, k int) ([]driven.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(x.partitions[tenantID]))
	for chunkID, vec := range x.partitions[tenantID] {
		hits = append(hits, driven.VectorHit{
			ChunkID:    chunkID,
			Similarity: cosineSimilarity(query, vec),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases resources.
func (x *VectorIndex) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
