package driving

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// QueryRequest is one incoming question.
type QueryRequest struct {
	// TenantID scopes the request. Required.
	TenantID string

	// UserID identifies the asking user.
	UserID string

	// Question is the user's question. Required.
	Question string

	// Options are the caller-supplied processing knobs.
	Options domain.QueryOptions
}

// QueryService answers questions over a tenant's documents.
type QueryService interface {
	// Answer processes one question end to end: plan, execute, verify,
	// assemble, persist. Unrecoverable upstream failures come back as a
	// well-formed error envelope with a nil error; only validation
	// failures return a non-nil error.
	Answer(ctx context.Context, req QueryRequest) (domain.Response, error)

	// History returns a tenant's query history, newest first.
	History(ctx context.Context, tenantID, userID string, limit int) ([]domain.Query, error)
}

// DocumentService manages a tenant's documents.
type DocumentService interface {
	// Add ingests a document: chunk, embed, index, mark processed.
	Add(ctx context.Context, tenantID, path, docType string, metadata map[string]any) (*domain.Document, error)

	// List returns a tenant's documents.
	List(ctx context.Context, tenantID string) ([]domain.Document, error)

	// Delete removes a document, its chunks and its vectors.
	Delete(ctx context.Context, tenantID, documentID string) error
}
