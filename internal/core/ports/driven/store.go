package driven

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Backed by SQLite for metadata storage. All reads and writes are
// tenant-scoped; there is no cross-tenant access path.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// MarkProcessed flips a document's processed flag. The ingestion
	// pipeline calls this only after all chunks are written.
	MarkProcessed(ctx context.Context, tenantID, documentID string) error

	// GetDocument retrieves a document by ID within a tenant.
	GetDocument(ctx context.Context, tenantID, id string) (*domain.Document, error)

	// GetChunk retrieves a specific chunk by ID within a tenant.
	GetChunk(ctx context.Context, tenantID, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document within a tenant.
	GetChunks(ctx context.Context, tenantID, documentID string) ([]domain.Chunk, error)

	// DeleteDocument removes a document and its chunks (cascading).
	DeleteDocument(ctx context.Context, tenantID, id string) error

	// ListDocuments returns a tenant's documents.
	ListDocuments(ctx context.Context, tenantID string) ([]domain.Document, error)
}

// QueryStore persists query history. History is append-only: a record is
// created once and finalized once, so no cross-request locking is needed
// beyond what the storage provides.
type QueryStore interface {
	// Create appends a new query record at the start of processing.
	Create(ctx context.Context, q *domain.Query) error

	// Finalize writes the terminal answer/status/confidence exactly once.
	Finalize(ctx context.Context, q *domain.Query) error

	// Get retrieves a query record by ID within a tenant.
	Get(ctx context.Context, tenantID, id string) (*domain.Query, error)

	// List returns a tenant's query history, newest first.
	List(ctx context.Context, tenantID, userID string, limit int) ([]domain.Query, error)
}

// ConfigStore provides persistent key-value configuration.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	GetInt(key string) int

	// GetFloat retrieves a float configuration value.
	GetFloat(key string) float64

	// GetBool retrieves a boolean configuration value.
	GetBool(key string) bool

	// Set stores a configuration value.
	Set(key string, value any) error

	// Save persists all configuration to storage.
	Save() error
}
