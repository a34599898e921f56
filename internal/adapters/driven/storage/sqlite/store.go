package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ansa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// the metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.ansa/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ansa", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// QueryStore returns a QueryStore interface backed by this store.
func (s *Store) QueryStore() driven.QueryStore {
	return &queryStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, tenant_id, original_path, doc_type, language, uploaded_at, processed, file_size, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			original_path = excluded.original_path,
			doc_type = excluded.doc_type,
			language = excluded.language,
			processed = excluded.processed,
			file_size = excluded.file_size,
			metadata = excluded.metadata
	`, doc.ID, doc.TenantID, doc.OriginalPath, doc.DocType, doc.Language,
		doc.UploadedAt, doc.Processed, doc.FileSize, string(metadataJSON))

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks stores chunks for a document.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, tenant_id, content, embedding, start_pos, end_pos, heading, entities, language)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			document_id = excluded.document_id,
			content = excluded.content,
			embedding = excluded.embedding,
			start_pos = excluded.start_pos,
			end_pos = excluded.end_pos,
			heading = excluded.heading,
			entities = excluded.entities,
			language = excluded.language
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		entitiesJSON, err := json.Marshal(chunk.Entities)
		if err != nil {
			return fmt.Errorf("marshalling chunk entities: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.TenantID,
			chunk.Text, embeddingBlob, chunk.StartPos, chunk.EndPos,
			chunk.Heading, string(entitiesJSON), chunk.Language); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// MarkProcessed flips a document's processed flag.
func (s *documentStore) MarkProcessed(ctx context.Context, tenantID, documentID string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET processed = 1 WHERE tenant_id = ? AND id = ?
	`, tenantID, documentID)
	if err != nil {
		return fmt.Errorf("marking document processed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetDocument retrieves a document by ID within a tenant.
func (s *documentStore) GetDocument(ctx context.Context, tenantID, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, original_path, doc_type, language, uploaded_at, processed, file_size, metadata
		FROM documents WHERE tenant_id = ? AND id = ?
	`, tenantID, id)

	doc, err := scanDocument(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// GetChunk retrieves a specific chunk by ID within a tenant.
func (s *documentStore) GetChunk(ctx context.Context, tenantID, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, tenant_id, content, embedding, start_pos, end_pos, heading, entities, language
		FROM chunks WHERE tenant_id = ? AND id = ?
	`, tenantID, id)

	chunk, err := scanChunk(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return chunk, nil
}

// GetChunks retrieves all chunks for a document within a tenant.
func (s *documentStore) GetChunks(ctx context.Context, tenantID, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, tenant_id, content, embedding, start_pos, end_pos, heading, entities, language
		FROM chunks WHERE tenant_id = ? AND document_id = ?
		ORDER BY start_pos
	`, tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows.Scan)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteDocument removes a document and its chunks (cascading).
func (s *documentStore) DeleteDocument(ctx context.Context, tenantID, id string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM documents WHERE tenant_id = ? AND id = ?", tenantID, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns a tenant's documents.
func (s *documentStore) ListDocuments(ctx context.Context, tenantID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, tenant_id, original_path, doc_type, language, uploaded_at, processed, file_size, metadata
		FROM documents WHERE tenant_id = ?
		ORDER BY uploaded_at
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// AllChunks streams every stored chunk across tenants whose document
// finished ingestion. The startup path uses it to rebuild the in-memory
// vector index; tenant scoping is preserved because each chunk carries
// its tenant ID. Chunks of unprocessed documents are excluded so a crash
// between chunk writes and the processed flip never resurfaces a
// half-ingested document at restart.
func (s *Store) AllChunks(ctx context.Context, fn func(chunk domain.Chunk) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.tenant_id, c.content, c.embedding, c.start_pos, c.end_pos, c.heading, c.entities, c.language
		FROM chunks c
		JOIN documents d ON d.tenant_id = c.tenant_id AND d.id = c.document_id
		WHERE d.processed = 1
	`)
	if err != nil {
		return fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		chunk, err := scanChunk(rows.Scan)
		if err != nil {
			return err
		}
		if err := fn(*chunk); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating chunks: %w", err)
	}
	return nil
}

// ==================== Query Store ====================

// queryStore implements driven.QueryStore.
type queryStore struct {
	store *Store
}

var _ driven.QueryStore = (*queryStore)(nil)

// Create appends a new query record at the start of processing.
func (s *queryStore) Create(ctx context.Context, q *domain.Query) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO queries (id, tenant_id, user_id, question, answer, confidence, hop_count, status, processing_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, q.TenantID, q.UserID, q.Question, q.Answer, q.Confidence,
		q.HopCount, string(q.Status), q.ProcessingTime.Milliseconds(), q.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("creating query: %w", err)
	}
	return nil
}

// Finalize writes the terminal answer/status/confidence. The record is
// never rewritten after it has a status.
func (s *queryStore) Finalize(ctx context.Context, q *domain.Query) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE queries
		SET answer = ?, confidence = ?, hop_count = ?, status = ?, processing_ms = ?
		WHERE tenant_id = ? AND id = ? AND status = ''
	`, q.Answer, q.Confidence, q.HopCount, string(q.Status),
		q.ProcessingTime.Milliseconds(), q.TenantID, q.ID)
	if err != nil {
		return fmt.Errorf("finalizing query: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing record from one already finalized.
		var status string
		row := s.store.db.QueryRowContext(ctx,
			"SELECT status FROM queries WHERE tenant_id = ? AND id = ?", q.TenantID, q.ID)
		if err := row.Scan(&status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("checking query status: %w", err)
		}
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get retrieves a query record by ID within a tenant.
func (s *queryStore) Get(ctx context.Context, tenantID, id string) (*domain.Query, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, user_id, question, answer, confidence, hop_count, status, processing_ms, created_at
		FROM queries WHERE tenant_id = ? AND id = ?
	`, tenantID, id)

	q, err := scanQuery(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

// List returns a tenant's query history, newest first. An empty userID
// matches all users.
func (s *queryStore) List(ctx context.Context, tenantID, userID string, limit int) ([]domain.Query, error) {
	query := `
		SELECT id, tenant_id, user_id, question, answer, confidence, hop_count, status, processing_ms, created_at
		FROM queries WHERE tenant_id = ?`
	args := []any{tenantID}

	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var queries []domain.Query //nolint:prealloc // size unknown from query
	for rows.Next() {
		q, err := scanQuery(rows.Scan)
		if err != nil {
			return nil, err
		}
		queries = append(queries, *q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	return queries, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanDocument scans a document row via the given scan function.
func scanDocument(scan func(...any) error) (*domain.Document, error) {
	var doc domain.Document
	var uploadedAt sql.NullTime
	var metadataJSON string

	if err := scan(&doc.ID, &doc.TenantID, &doc.OriginalPath, &doc.DocType,
		&doc.Language, &uploadedAt, &doc.Processed, &doc.FileSize, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if uploadedAt.Valid {
		doc.UploadedAt = uploadedAt.Time
	}

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &doc, nil
}

// scanChunk scans a chunk row via the given scan function.
func scanChunk(scan func(...any) error) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte
	var entitiesJSON string

	if err := scan(&chunk.ID, &chunk.DocumentID, &chunk.TenantID, &chunk.Text,
		&embeddingBlob, &chunk.StartPos, &chunk.EndPos, &chunk.Heading,
		&entitiesJSON, &chunk.Language); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if entitiesJSON != "" {
		if err := json.Unmarshal([]byte(entitiesJSON), &chunk.Entities); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk entities: %w", err)
		}
	}

	return &chunk, nil
}

// scanQuery scans a query row via the given scan function.
func scanQuery(scan func(...any) error) (*domain.Query, error) {
	var q domain.Query
	var status string
	var processingMS int64
	var createdAt sql.NullTime

	if err := scan(&q.ID, &q.TenantID, &q.UserID, &q.Question, &q.Answer,
		&q.Confidence, &q.HopCount, &status, &processingMS, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning query: %w", err)
	}

	q.Status = domain.QueryStatus(status)
	q.ProcessingTime = time.Duration(processingMS) * time.Millisecond
	if createdAt.Valid {
		q.CreatedAt = createdAt.Time
	}

	return &q, nil
}

// isUniqueViolation reports whether an error is a primary key or unique
// constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
