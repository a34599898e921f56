package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
	"github.com/custodia-labs/ansa/internal/logger"
)

// Chunking bounds. A chunk closes at the first sentence boundary past
// the target size.
const (
	chunkTargetChars = 1200
	chunkMinChars    = 200
	embedBatchSize   = 32
)

// DocumentService ingests and manages a tenant's documents: read, chunk,
// embed, index, and only then mark processed. A document is never
// retrievable half-indexed.
type DocumentService struct {
	store    driven.DocumentStore
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

var _ driving.DocumentService = (*DocumentService)(nil)

// NewDocumentService creates a document service.
func NewDocumentService(store driven.DocumentStore, embedder driven.EmbeddingService, index driven.VectorIndex) *DocumentService {
	return &DocumentService{store: store, embedder: embedder, index: index}
}

// Add ingests one file for a tenant. The processed flag flips only after
// every chunk is stored and indexed, so concurrent queries either see the
// whole document or none of it.
func (s *DocumentService) Add(ctx context.Context, tenantID, path, docType string, metadata map[string]any) (*domain.Document, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant ID is required", domain.ErrValidation)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document is empty", domain.ErrValidation)
	}

	if docType == "" {
		docType = strings.TrimPrefix(filepath.Ext(path), ".")
		if docType == "" {
			docType = "text"
		}
	}

	doc := &domain.Document{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		OriginalPath: path,
		DocType:      docType,
		UploadedAt:   time.Now(),
		FileSize:     int64(len(data)),
		Metadata:     metadata,
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	chunks := chunkText(doc, text)
	logger.Info("Document %s: %d chunks", doc.ID, len(chunks))

	if err := s.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}
	if err := s.store.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("saving chunks: %w", err)
	}
	for _, c := range chunks {
		if err := s.index.Add(ctx, tenantID, c.ID, c.Embedding); err != nil {
			return nil, fmt.Errorf("%w: indexing chunks: %w", domain.ErrVectorIndexUnavailable, err)
		}
	}
	if err := s.store.MarkProcessed(ctx, tenantID, doc.ID); err != nil {
		return nil, fmt.Errorf("marking processed: %w", err)
	}

	doc.Processed = true
	return doc, nil
}

// embedChunks fills in chunk embeddings in batches.
func (s *DocumentService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: embedding chunks: %w", domain.ErrEmbeddingUnavailable, err)
		}
		for i := range vectors {
			chunks[start+i].Embedding = vectors[i]
		}
	}
	return nil
}

// List returns a tenant's documents.
func (s *DocumentService) List(ctx context.Context, tenantID string) ([]domain.Document, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant ID is required", domain.ErrValidation)
	}
	return s.store.ListDocuments(ctx, tenantID)
}

// Delete removes a document, its chunks, and its vectors.
func (s *DocumentService) Delete(ctx context.Context, tenantID, documentID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenant ID is required", domain.ErrValidation)
	}
	chunks, err := s.store.GetChunks(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	for _, c := range chunks {
		if err := s.index.Delete(ctx, tenantID, c.ID); err != nil {
			return fmt.Errorf("%w: removing vectors: %w", domain.ErrVectorIndexUnavailable, err)
		}
	}
	return s.store.DeleteDocument(ctx, tenantID, documentID)
}

// chunkText splits text into sentence-aligned chunks around the target
// size, recording character offsets.
func chunkText(doc *domain.Document, text string) []domain.Chunk {
	sentences := splitSentences(text)
	var chunks []domain.Chunk
	var buf strings.Builder
	start := 0
	pos := 0

	flush := func(end int) {
		content := strings.TrimSpace(buf.String())
		if content == "" {
			return
		}
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			TenantID:   doc.TenantID,
			Text:       content,
			StartPos:   start,
			EndPos:     end,
		})
		buf.Reset()
	}

	for _, sentence := range sentences {
		if buf.Len() == 0 {
			start = pos
		} else {
			buf.WriteByte(' ')
		}
		buf.WriteString(sentence)
		pos += len(sentence) + 1
		if buf.Len() >= chunkTargetChars {
			flush(pos)
		}
	}

	// A trailing fragment merges into the previous chunk rather than
	// standing alone undersized.
	if buf.Len() > 0 {
		if buf.Len() < chunkMinChars && len(chunks) > 0 {
			last := &chunks[len(chunks)-1]
			last.Text = last.Text + " " + strings.TrimSpace(buf.String())
			last.EndPos = pos
		} else {
			flush(pos)
		}
	}
	return chunks
}
