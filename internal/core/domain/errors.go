package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates malformed or missing input (empty question,
	// missing tenant). Never retried; surfaced immediately to the caller.
	ErrValidation = errors.New("invalid input")

	// ErrRetrievalUnavailable indicates the vector index is unreachable or
	// the tenant has no index. The retriever retries once with backoff
	// before surfacing this.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationUnavailable indicates the LLM provider is unreachable or
	// every self-consistency sample failed.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrPlanning indicates decomposition produced zero valid hops for a
	// complex query. Callers fall back to single-hop rather than failing.
	ErrPlanning = errors.New("query planning failed")

	// ErrLLMUnavailable indicates the LLM provider is not configured.
	ErrLLMUnavailable = errors.New("LLM provider unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Retrieval is impossible without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)
