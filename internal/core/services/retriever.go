package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/logger"
)

// retryBackoff is the pause before the single retrieval retry.
const retryBackoff = 200 * time.Millisecond

// snippetLength is the maximum snippet size in runes.
const snippetLength = 200

// Retriever provides uniform read-only access to a tenant's vector index
// plus reranking, hiding the concrete index implementation. It never
// mutates chunks, only ranks and filters them.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	docStore driven.DocumentStore
	settings domain.RetrievalSettings
}

// NewRetriever creates a retriever adapter.
func NewRetriever(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	docStore driven.DocumentStore,
	settings domain.RetrievalSettings,
) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		docStore: docStore,
		settings: settings,
	}
}

// Search embeds the query and returns the tenant's matching chunks,
// descending by score, deduplicated by chunk ID and filtered to
// score >= similarityThreshold. Zero results is a valid outcome, not an
// error. Index failures are retried once with backoff before surfacing
// as ErrRetrievalUnavailable.
func (r *Retriever) Search(
	ctx context.Context, tenantID, queryText string, topK int, similarityThreshold float64,
) ([]domain.RetrievedChunk, error) {
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if r.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if topK <= 0 {
		topK = r.settings.TopK
	}

	logger.Debug("Retriever: search tenant=%s top_k=%d threshold=%.2f", tenantID, topK, similarityThreshold)

	embedding, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingUnavailable, err)
	}

	hits, err := r.searchWithRetry(ctx, tenantID, embedding, topK)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RetrievedChunk, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	readiness := make(map[string]bool)
	for _, hit := range hits {
		if seen[hit.ChunkID] {
			continue
		}
		seen[hit.ChunkID] = true

		if hit.Similarity < similarityThreshold {
			continue
		}

		chunk, err := r.docStore.GetChunk(ctx, tenantID, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Chunk was deleted since indexing, skip it.
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}

		// Hard isolation invariant, enforced regardless of the index
		// implementation behind the port.
		if chunk.TenantID != tenantID {
			logger.Warn("Retriever: index returned foreign chunk %s, dropping", hit.ChunkID)
			continue
		}

		ready, err := r.documentReady(ctx, tenantID, chunk.DocumentID, readiness)
		if err != nil {
			return nil, err
		}
		if !ready {
			logger.Debug("Retriever: chunk %s belongs to unprocessed document %s, skipping", hit.ChunkID, chunk.DocumentID)
			continue
		}

		results = append(results, domain.RetrievedChunk{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Text:       chunk.Text,
			Score:      hit.Similarity,
			Snippet:    makeSnippet(chunk.Text, queryText),
			Heading:    chunk.Heading,
			Metadata: map[string]any{
				"entities":  chunk.Entities,
				"language":  chunk.Language,
				"start_pos": chunk.StartPos,
				"end_pos":   chunk.EndPos,
			},
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	logger.Debug("Retriever: %d hits, %d above threshold", len(hits), len(results))
	return results, nil
}

// documentReady reports whether a chunk's document finished ingestion.
// Chunks stay invisible until the processed flag flips, so a query never
// sees a half-indexed document. The cache bounds lookups to one per
// document per search.
func (r *Retriever) documentReady(ctx context.Context, tenantID, documentID string, cache map[string]bool) (bool, error) {
	if ready, ok := cache[documentID]; ok {
		return ready, nil
	}
	doc, err := r.docStore.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			cache[documentID] = false
			return false, nil
		}
		return false, fmt.Errorf("get document %s: %w", documentID, err)
	}
	cache[documentID] = doc.Processed
	return doc.Processed, nil
}

// searchWithRetry performs the index search with one backoff retry.
func (r *Retriever) searchWithRetry(
	ctx context.Context, tenantID string, embedding []float32, topK int,
) ([]driven.VectorHit, error) {
	hits, err := r.index.Search(ctx, tenantID, embedding, topK)
	if err == nil {
		return hits, nil
	}

	logger.Warn("Retriever: index search failed (%v), retrying once", err)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(retryBackoff):
	}

	hits, err = r.index.Search(ctx, tenantID, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}
	return hits, nil
}

// Rerank re-scores candidates against the query text and truncates to
// topN. The operation is stable: ties keep the original retrieval order.
func (r *Retriever) Rerank(queryText string, candidates []domain.RetrievedChunk, topN int) []domain.RetrievedChunk {
	if topN <= 0 {
		topN = r.settings.TopN
	}
	if len(candidates) == 0 {
		return nil
	}

	logger.Debug("Retriever: reranking %d candidates to top %d", len(candidates), topN)

	reranked := make([]domain.RetrievedChunk, len(candidates))
	copy(reranked, candidates)
	for i := range reranked {
		lexical := lexicalSimilarity(queryText, reranked[i].Text)
		// Blend the original similarity with the cross-scoring signal.
		reranked[i].Score = 0.5*reranked[i].Score + 0.5*lexical
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	if len(reranked) > topN {
		reranked = reranked[:topN]
	}
	return reranked
}

// lexicalSimilarity is the term-overlap ratio between query and text:
// |query terms present in text| / |query terms|.
func lexicalSimilarity(query, text string) float64 {
	queryTerms := tokenise(query)
	if len(queryTerms) == 0 {
		return 0
	}
	textTerms := make(map[string]bool)
	for _, t := range tokenise(text) {
		textTerms[t] = true
	}

	matched := 0
	seen := make(map[string]bool, len(queryTerms))
	total := 0
	for _, t := range queryTerms {
		if seen[t] {
			continue
		}
		seen[t] = true
		total++
		if textTerms[t] {
			matched++
		}
	}
	return float64(matched) / float64(total)
}

// makeSnippet returns the text window with the most query-term matches.
// Windows slide over runes, so a snippet never starts or ends inside a
// multi-byte character.
func makeSnippet(text, query string) string {
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}

	queryTerms := tokenise(query)

	bestPos, bestMatches := 0, -1
	step := snippetLength / 2
	for pos := 0; pos+snippetLength <= len(runes); pos += step {
		window := strings.ToLower(string(runes[pos : pos+snippetLength]))
		matches := 0
		for _, term := range queryTerms {
			if strings.Contains(window, term) {
				matches++
			}
		}
		if matches > bestMatches {
			bestMatches = matches
			bestPos = pos
		}
	}

	snippet := string(runes[bestPos : bestPos+snippetLength])
	if bestPos > 0 {
		snippet = "..." + snippet
	}
	if bestPos+snippetLength < len(runes) {
		snippet += "..."
	}
	return snippet
}

// tokenise lowercases and splits on non-letter/digit runes.
func tokenise(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 0x80)
	})
}
