package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"argus/internal/adapter/cache"
	"argus/internal/adapter/chunker"
	"argus/internal/adapter/embedding"
	"argus/internal/adapter/store"
	"argus/internal/domain"
	"argus/internal/port"
)

const testDimension = 8

type testEnv struct {
	catalog  *store.Catalog
	index    *store.BoltVectorIndex
	embedder *embedding.MockEmbedder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()

	catalog, err := store.NewCatalog(filepath.Join(dir, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { catalog.Close() })

	db, err := bbolt.Open(filepath.Join(dir, "vectors.db"), 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	index, err := store.NewBoltVectorIndex(db, testDimension)
	if err != nil {
		t.Fatal(err)
	}

	return &testEnv{
		catalog:  catalog,
		index:    index,
		embedder: embedding.NewMockEmbedder(testDimension),
	}
}

func (env *testEnv) processor() *Processor {
	return NewProcessor(env.catalog, env.embedder, env.index, chunker.NewParagraphChunker(500, 50), nil)
}

func (env *testEnv) engine() *SearchEngine {
	return NewSearchEngine(env.catalog, env.embedder, env.index, nil, 150)
}

func (env *testEnv) ingest(t *testing.T, filename, text string) domain.Document {
	t.Helper()

	doc, err := env.processor().Ingest(context.Background(), filename, text)
	if err != nil {
		t.Fatalf("ingest %s: %v", filename, err)
	}
	return doc
}

func TestSearchExactMatchRanksFirst(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t, "a.txt", "the quick brown fox jumps over the lazy dog")
	env.ingest(t, "b.txt", "completely unrelated content about databases")

	results, err := env.engine().Search(context.Background(), "the quick brown fox jumps over the lazy dog", 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].RelevanceScore != 1.0 {
		t.Errorf("expected exact match score 1.0, got %v", results[0].RelevanceScore)
	}
	if results[0].DocumentFilename != "a.txt" {
		t.Errorf("expected a.txt first, got %s", results[0].DocumentFilename)
	}
	for i := 1; i < len(results); i++ {
		if results[i].RelevanceScore > results[i-1].RelevanceScore {
			t.Errorf("scores not non-increasing at %d: %v > %v",
				i, results[i].RelevanceScore, results[i-1].RelevanceScore)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	env := newTestEnv(t)

	results, err := env.engine().Search(context.Background(), "   ", 5, nil)
	if err != nil {
		t.Fatalf("empty query should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestSearchInvalidTopK(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine().Search(context.Background(), "query", 0, nil)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestSearchDocumentFilter(t *testing.T) {
	env := newTestEnv(t)
	a := env.ingest(t, "a.txt", "shared topic text")
	env.ingest(t, "b.txt", "shared topic text")

	results, err := env.engine().Search(context.Background(), "shared topic text", 10, []int64{a.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	for _, r := range results {
		if r.DocumentID != a.ID {
			t.Errorf("filter leaked document %d", r.DocumentID)
		}
	}
}

func TestSearchSkipsStaleIndexEntries(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t, "a.txt", "real document text")

	// A vector whose document no longer exists in the catalog.
	vec, _ := env.embedder.EmbedText(context.Background(), "real document text")
	if err := env.index.Add([]port.Point{{
		ID:     "chunk_999_0",
		Vector: vec,
		Text:   "orphaned",
		Meta:   port.Metadata{DocumentID: 999, ChunkIndex: 0},
	}}); err != nil {
		t.Fatal(err)
	}

	results, err := env.engine().Search(context.Background(), "real document text", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.DocumentID == 999 {
			t.Error("stale entry surfaced in results")
		}
	}
	if len(results) == 0 {
		t.Error("expected the live document to match")
	}
}

func TestSearchUsesCache(t *testing.T) {
	env := newTestEnv(t)
	doc := env.ingest(t, "a.txt", "cached query text")

	resultCache := cache.NewSearchCache(10, time.Minute)
	engine := NewSearchEngine(env.catalog, env.embedder, env.index, resultCache, 150)

	if _, err := engine.Search(context.Background(), "cached query text", 5, nil); err != nil {
		t.Fatal(err)
	}
	if resultCache.Size() != 1 {
		t.Errorf("expected 1 cached entry, got %d", resultCache.Size())
	}

	// Second call is served from cache even if the index disappears.
	if err := env.index.Delete(nil, &port.Filter{DocumentIDs: []int64{doc.ID}}); err != nil {
		t.Fatal(err)
	}
	results, err := engine.Search(context.Background(), "cached query text", 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Error("expected cached results after index delete")
	}
}

func TestSimilarChunksExcludesOwnDocument(t *testing.T) {
	env := newTestEnv(t)
	a := env.ingest(t, "a.txt", "common subject matter")
	env.ingest(t, "b.txt", "common subject matter")
	env.ingest(t, "c.txt", "common subject matter")

	results, err := env.engine().SimilarChunks(context.Background(), a.ID, 0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected similar chunks from other documents")
	}
	for _, r := range results {
		if r.DocumentID == a.ID {
			t.Error("source document appeared in its own similar chunks")
		}
	}
}

func TestSimilarChunksMissingEmbedding(t *testing.T) {
	env := newTestEnv(t)

	doc := domain.Document{Filename: "a.txt", Status: domain.StatusCompleted}
	if err := env.catalog.CreateDocument(&doc); err != nil {
		t.Fatal(err)
	}
	if err := env.catalog.PutChunks([]domain.Chunk{
		{DocumentID: doc.ID, Index: 0, Text: "unembedded"},
	}); err != nil {
		t.Fatal(err)
	}

	_, err := env.engine().SimilarChunks(context.Background(), doc.ID, 0, 5)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError for unembedded chunk, got %v", err)
	}
}

func TestDocumentSummaryCoverage(t *testing.T) {
	env := newTestEnv(t)
	doc := env.ingest(t, "a.txt", "some text to summarize")

	summary, err := env.engine().DocumentSummary(doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalChunks == 0 {
		t.Fatal("expected chunks")
	}
	if summary.EmbeddedChunks != summary.TotalChunks {
		t.Errorf("expected full embedding coverage, got %d/%d",
			summary.EmbeddedChunks, summary.TotalChunks)
	}
	if summary.EmbeddingCoverage != 100 {
		t.Errorf("expected coverage 100, got %v", summary.EmbeddingCoverage)
	}
}

func TestDocumentSummaryNoChunks(t *testing.T) {
	env := newTestEnv(t)

	doc := domain.Document{Filename: "empty.txt", Status: domain.StatusCompleted}
	if err := env.catalog.CreateDocument(&doc); err != nil {
		t.Fatal(err)
	}

	summary, err := env.engine().DocumentSummary(doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalChunks != 0 || summary.EmbeddingCoverage != 0 {
		t.Errorf("expected zero coverage for empty document: %+v", summary)
	}
}

func TestChunkVectorID(t *testing.T) {
	if got := ChunkVectorID(42, 7); got != "chunk_42_7" {
		t.Errorf("unexpected vector id %q", got)
	}
}
