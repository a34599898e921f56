package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

// createTestDocument saves an unprocessed document for the given tenant.
func createTestDocument(t *testing.T, store *Store, tenantID, docID string) {
	t.Helper()
	doc := &domain.Document{
		ID:           docID,
		TenantID:     tenantID,
		OriginalPath: "/data/" + docID + ".txt",
		DocType:      "txt",
		UploadedAt:   time.Now().UTC().Truncate(time.Second),
		Metadata:     map[string]any{},
	}
	require.NoError(t, store.DocumentStore().SaveDocument(context.Background(), doc))
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(tempDir, "metadata.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestMigrations_Idempotent(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening runs migrations again; already-applied versions are skipped.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

// ==================== Document Store Tests ====================

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	uploaded := time.Now().UTC().Truncate(time.Second)
	doc := &domain.Document{
		ID:           "doc-1",
		TenantID:     "tenant-a",
		OriginalPath: "/data/handbook.md",
		DocType:      "md",
		Language:     "en",
		UploadedAt:   uploaded,
		FileSize:     2048,
		Metadata:     map[string]any{"source": "upload"},
	}
	require.NoError(t, docs.SaveDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, "tenant-a", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)
	assert.Equal(t, "tenant-a", got.TenantID)
	assert.Equal(t, "/data/handbook.md", got.OriginalPath)
	assert.Equal(t, "md", got.DocType)
	assert.Equal(t, int64(2048), got.FileSize)
	assert.Equal(t, "upload", got.Metadata["source"])
	assert.False(t, got.Processed)
}

func TestDocumentStore_GetNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.DocumentStore().GetDocument(context.Background(), "tenant-a", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_SaveIsUpsert(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	createTestDocument(t, store, "tenant-a", "doc-1")

	updated := &domain.Document{
		ID:           "doc-1",
		TenantID:     "tenant-a",
		OriginalPath: "/data/renamed.txt",
		DocType:      "txt",
		UploadedAt:   time.Now().UTC(),
	}
	require.NoError(t, docs.SaveDocument(ctx, updated))

	got, err := docs.GetDocument(ctx, "tenant-a", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "/data/renamed.txt", got.OriginalPath)
}

func TestDocumentStore_MarkProcessed(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	createTestDocument(t, store, "tenant-a", "doc-1")

	require.NoError(t, docs.MarkProcessed(ctx, "tenant-a", "doc-1"))

	got, err := docs.GetDocument(ctx, "tenant-a", "doc-1")
	require.NoError(t, err)
	assert.True(t, got.Processed)

	assert.ErrorIs(t, docs.MarkProcessed(ctx, "tenant-a", "missing"), domain.ErrNotFound)
	assert.ErrorIs(t, docs.MarkProcessed(ctx, "tenant-b", "doc-1"), domain.ErrNotFound)
}

func TestDocumentStore_ChunkRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	createTestDocument(t, store, "tenant-a", "doc-1")

	chunks := []domain.Chunk{
		{
			ID:         "chunk-1",
			DocumentID: "doc-1",
			TenantID:   "tenant-a",
			Text:       "Employees accrue 25 days of annual leave.",
			Embedding:  []float32{0.1, -0.5, 0.25, 1.0},
			StartPos:   0,
			EndPos:     41,
			Heading:    "Leave policy",
			Entities:   []string{"annual leave"},
			Language:   "en",
		},
		{
			ID:         "chunk-2",
			DocumentID: "doc-1",
			TenantID:   "tenant-a",
			Text:       "Unused leave carries over up to 5 days.",
			Embedding:  []float32{0.3, 0.2, -0.1, 0.0},
			StartPos:   42,
			EndPos:     81,
		},
	}
	require.NoError(t, docs.SaveChunks(ctx, chunks))

	got, err := docs.GetChunks(ctx, "tenant-a", "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "chunk-1", got[0].ID)
	assert.Equal(t, chunks[0].Embedding, got[0].Embedding)
	assert.Equal(t, "Leave policy", got[0].Heading)
	assert.Equal(t, []string{"annual leave"}, got[0].Entities)

	single, err := docs.GetChunk(ctx, "tenant-a", "chunk-2")
	require.NoError(t, err)
	assert.Equal(t, chunks[1].Text, single.Text)
	assert.Equal(t, chunks[1].Embedding, single.Embedding)
}

func TestDocumentStore_DeleteCascadesChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	createTestDocument(t, store, "tenant-a", "doc-1")
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "chunk-1", DocumentID: "doc-1", TenantID: "tenant-a", Text: "chunk"},
	}))

	require.NoError(t, docs.DeleteDocument(ctx, "tenant-a", "doc-1"))

	_, err := docs.GetDocument(ctx, "tenant-a", "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = docs.GetChunk(ctx, "tenant-a", "chunk-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_TenantIsolation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	createTestDocument(t, store, "tenant-a", "doc-1")
	createTestDocument(t, store, "tenant-b", "doc-2")

	_, err := docs.GetDocument(ctx, "tenant-b", "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	listed, err := docs.ListDocuments(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "doc-1", listed[0].ID)
}

// ==================== Query Store Tests ====================

func TestQueryStore_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	queries := store.QueryStore()

	q := &domain.Query{
		ID:        "query-1",
		TenantID:  "tenant-a",
		UserID:    "user-1",
		Question:  "What is the leave policy?",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, queries.Create(ctx, q))

	got, err := queries.Get(ctx, "tenant-a", "query-1")
	require.NoError(t, err)
	assert.Equal(t, "What is the leave policy?", got.Question)
	assert.Empty(t, got.Status)
}

func TestQueryStore_CreateDuplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	queries := store.QueryStore()

	q := &domain.Query{ID: "query-1", TenantID: "tenant-a", Question: "first"}
	require.NoError(t, queries.Create(ctx, q))

	dup := &domain.Query{ID: "query-1", TenantID: "tenant-a", Question: "second"}
	assert.ErrorIs(t, queries.Create(ctx, dup), domain.ErrAlreadyExists)
}

func TestQueryStore_FinalizeOnce(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	queries := store.QueryStore()

	q := &domain.Query{ID: "query-1", TenantID: "tenant-a", Question: "q"}
	require.NoError(t, queries.Create(ctx, q))

	q.Answer = "the answer"
	q.Confidence = 0.8
	q.Status = domain.QueryStatusCompleted
	q.ProcessingTime = 1200 * time.Millisecond
	require.NoError(t, queries.Finalize(ctx, q))

	got, err := queries.Get(ctx, "tenant-a", "query-1")
	require.NoError(t, err)
	assert.Equal(t, "the answer", got.Answer)
	assert.Equal(t, domain.QueryStatusCompleted, got.Status)
	assert.Equal(t, 1200*time.Millisecond, got.ProcessingTime)

	// A finalized record is never rewritten.
	q.Answer = "a different answer"
	assert.ErrorIs(t, queries.Finalize(ctx, q), domain.ErrAlreadyExists)

	missing := &domain.Query{ID: "missing", TenantID: "tenant-a", Status: domain.QueryStatusFailed}
	assert.ErrorIs(t, queries.Finalize(ctx, missing), domain.ErrNotFound)
}

func TestQueryStore_List(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	queries := store.QueryStore()

	base := time.Now().UTC().Truncate(time.Second)
	for i, spec := range []struct {
		id, userID string
	}{
		{"query-1", "user-1"},
		{"query-2", "user-2"},
		{"query-3", "user-1"},
	} {
		q := &domain.Query{
			ID:        spec.id,
			TenantID:  "tenant-a",
			UserID:    spec.userID,
			Question:  "question " + spec.id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, queries.Create(ctx, q))
	}

	all, err := queries.List(ctx, "tenant-a", "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "query-3", all[0].ID) // newest first

	byUser, err := queries.List(ctx, "tenant-a", "user-1", 0)
	require.NoError(t, err)
	require.Len(t, byUser, 2)

	limited, err := queries.List(ctx, "tenant-a", "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	other, err := queries.List(ctx, "tenant-b", "", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_AllChunks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	createTestDocument(t, store, "tenant-a", "doc-1")
	createTestDocument(t, store, "tenant-b", "doc-2")
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "chunk-1", DocumentID: "doc-1", TenantID: "tenant-a", Text: "a", Embedding: []float32{1, 0}},
		{ID: "chunk-2", DocumentID: "doc-2", TenantID: "tenant-b", Text: "b", Embedding: []float32{0, 1}},
	}))
	require.NoError(t, docs.MarkProcessed(ctx, "tenant-a", "doc-1"))
	require.NoError(t, docs.MarkProcessed(ctx, "tenant-b", "doc-2"))

	byTenant := make(map[string]int)
	err := store.AllChunks(ctx, func(chunk domain.Chunk) error {
		byTenant[chunk.TenantID]++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"tenant-a": 1, "tenant-b": 1}, byTenant)
}

func TestStore_AllChunksSkipsUnprocessedDocuments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	docs := store.DocumentStore()

	// doc-1 finished ingestion, doc-2 crashed before its processed flip.
	createTestDocument(t, store, "tenant-a", "doc-1")
	createTestDocument(t, store, "tenant-a", "doc-2")
	require.NoError(t, docs.SaveChunks(ctx, []domain.Chunk{
		{ID: "chunk-1", DocumentID: "doc-1", TenantID: "tenant-a", Text: "complete", Embedding: []float32{1, 0}},
		{ID: "chunk-2", DocumentID: "doc-2", TenantID: "tenant-a", Text: "half ingested", Embedding: []float32{0, 1}},
	}))
	require.NoError(t, docs.MarkProcessed(ctx, "tenant-a", "doc-1"))

	var streamed []string
	err := store.AllChunks(ctx, func(chunk domain.Chunk) error {
		streamed = append(streamed, chunk.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk-1"}, streamed)
}

// ==================== Helper Tests ====================

func TestFloat32SliceRoundTrip(t *testing.T) {
	in := []float32{0.0, 1.5, -2.25, 3.14159}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	assert.Equal(t, in, out)

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
