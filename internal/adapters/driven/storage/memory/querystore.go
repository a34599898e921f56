package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// Ensure QueryStore implements the interface.
var _ driven.QueryStore = (*QueryStore)(nil)

// QueryStore is an in-memory implementation of driven.QueryStore.
type QueryStore struct {
	mu      sync.RWMutex
	queries map[string]map[string]domain.Query
}

// NewQueryStore creates a new in-memory query store.
func NewQueryStore() *QueryStore {
	return &QueryStore{queries: make(map[string]map[string]domain.Query)}
}

// Create appends a new query record.
func (s *QueryStore) Create(_ context.Context, q *domain.Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queries[q.TenantID] == nil {
		s.queries[q.TenantID] = make(map[string]domain.Query)
	}
	if _, exists := s.queries[q.TenantID][q.ID]; exists {
		return domain.ErrAlreadyExists
	}
	s.queries[q.TenantID][q.ID] = *q
	return nil
}

// Finalize writes the terminal answer/status/confidence. The record is
// never rewritten after it has a status.
func (s *QueryStore) Finalize(_ context.Context, q *domain.Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.queries[q.TenantID][q.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if existing.Status != "" {
		return domain.ErrAlreadyExists
	}
	s.queries[q.TenantID][q.ID] = *q
	return nil
}

// Get retrieves a query record by ID within a tenant.
func (s *QueryStore) Get(_ context.Context, tenantID, id string) (*domain.Query, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.queries[tenantID][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &q, nil
}

// List returns a tenant's query history, newest first. An empty userID
// matches all users.
func (s *QueryStore) List(_ context.Context, tenantID, userID string, limit int) ([]domain.Query, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Query
	for id := range s.queries[tenantID] {
		q := s.queries[tenantID][id]
		if userID != "" && q.UserID != userID {
			continue
		}
		result = append(result, q)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
