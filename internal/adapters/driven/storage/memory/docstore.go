package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// All maps are keyed by tenant first, so one tenant's data is never
// reachable from another tenant's calls.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]map[string]domain.Document
	chunks    map[string]map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]map[string]domain.Document),
		chunks:    make(map[string]map[string][]domain.Chunk),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.documents[doc.TenantID] == nil {
		s.documents[doc.TenantID] = make(map[string]domain.Document)
	}
	s.documents[doc.TenantID][doc.ID] = *doc
	return nil
}

// SaveChunks stores chunks for a document.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tenantID := chunks[0].TenantID
	if s.chunks[tenantID] == nil {
		s.chunks[tenantID] = make(map[string][]domain.Chunk)
	}
	s.chunks[tenantID][chunks[0].DocumentID] = chunks
	return nil
}

// MarkProcessed flips a document's processed flag.
func (s *DocumentStore) MarkProcessed(_ context.Context, tenantID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[tenantID][documentID]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Processed = true
	s.documents[tenantID][documentID] = doc
	return nil
}

// GetDocument retrieves a document by ID within a tenant.
func (s *DocumentStore) GetDocument(_ context.Context, tenantID, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[tenantID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunk retrieves a specific chunk by ID within a tenant.
func (s *DocumentStore) GetChunk(_ context.Context, tenantID, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks[tenantID] {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// GetChunks retrieves all chunks for a document within a tenant.
func (s *DocumentStore) GetChunks(_ context.Context, tenantID, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[tenantID][documentID]
	if !ok {
		return nil, nil
	}
	return chunks, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents[tenantID], id)
	delete(s.chunks[tenantID], id)
	return nil
}

// ListDocuments returns a tenant's documents.
func (s *DocumentStore) ListDocuments(_ context.Context, tenantID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Document
	for id := range s.documents[tenantID] {
		result = append(result, s.documents[tenantID][id])
	}
	return result, nil
}
