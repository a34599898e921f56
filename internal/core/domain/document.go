package domain

import "time"

// Document represents an uploaded document with metadata.
// Every document belongs to exactly one tenant; cross-tenant visibility
// does not exist at any layer.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// TenantID scopes the document to a tenant.
	TenantID string

	// OriginalPath is the upload location (file path, URL, etc).
	OriginalPath string

	// DocType is the document type (pdf, markdown, text, ...).
	DocType string

	// Language is the ISO language code of the content.
	Language string

	// UploadedAt is when the document was uploaded.
	UploadedAt time.Time

	// Processed reports whether the ingestion pipeline has finished.
	// A document is queryable only once this is true; the pipeline
	// guarantees all chunks are written before flipping it.
	Processed bool

	// FileSize is the original file size in bytes.
	FileSize int64

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any
}

// Chunk represents a retrievable unit within a document.
// Chunks are created by the chunking/embedding pipeline and deleted
// cascading with their document. The core never mutates chunks.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// TenantID scopes the chunk to a tenant. Always matches the parent
	// document's tenant.
	TenantID string

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation used for similarity search.
	Embedding []float32

	// StartPos and EndPos locate the chunk within the document text.
	StartPos int
	EndPos   int

	// Heading is the nearest section heading, when known.
	Heading string

	// Entities are named entities extracted during ingestion.
	Entities []string

	// Language is the ISO language code of the chunk.
	Language string
}

// RetrievedChunk is a read-only retrieval result. The core ranks and
// filters these but never writes them back.
type RetrievedChunk struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's parent document.
	DocumentID string

	// Text is the chunk content.
	Text string

	// Score is the relevance score in [0,1]. After reranking this is the
	// reranker's score, not the raw similarity.
	Score float64

	// Snippet is a short excerpt around the best query-term window.
	Snippet string

	// Heading is the chunk's section heading, when known.
	Heading string

	// Metadata carries chunk metadata useful for verification (entities,
	// language, positions).
	Metadata map[string]any
}
