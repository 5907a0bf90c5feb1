package store

import (
	"errors"
	"path/filepath"
	"testing"

	"argus/internal/domain"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := NewCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDocumentLifecycle(t *testing.T) {
	c := openTestCatalog(t)

	doc := domain.Document{Filename: "report.md", Title: "Annual Report", Status: domain.StatusPending}
	if err := c.CreateDocument(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.ID == 0 {
		t.Fatal("expected assigned document id")
	}

	got, err := c.GetDocument(doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Filename != "report.md" || got.Title != "Annual Report" {
		t.Errorf("unexpected document: %+v", got)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("expected pending status, got %s", got.Status)
	}

	got.Status = domain.StatusCompleted
	if err := c.UpdateDocument(got); err != nil {
		t.Fatal(err)
	}

	updated, err := c.GetDocument(doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Errorf("expected completed status, got %s", updated.Status)
	}
}

func TestDocumentIDsIncrement(t *testing.T) {
	c := openTestCatalog(t)

	a := domain.Document{Filename: "a.txt"}
	b := domain.Document{Filename: "b.txt"}
	if err := c.CreateDocument(&a); err != nil {
		t.Fatal(err)
	}
	if err := c.CreateDocument(&b); err != nil {
		t.Fatal(err)
	}
	if b.ID <= a.ID {
		t.Errorf("expected increasing ids, got %d then %d", a.ID, b.ID)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	c := openTestCatalog(t)

	_, err := c.GetDocument(42)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestListDocumentsByStatus(t *testing.T) {
	c := openTestCatalog(t)

	for _, status := range []domain.ProcessingStatus{
		domain.StatusCompleted, domain.StatusFailed, domain.StatusCompleted,
	} {
		doc := domain.Document{Filename: "f.txt", Status: status}
		if err := c.CreateDocument(&doc); err != nil {
			t.Fatal(err)
		}
	}

	completed, err := c.ListDocumentsByStatus(domain.StatusCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if len(completed) != 2 {
		t.Errorf("expected 2 completed documents, got %d", len(completed))
	}
}

func TestChunkOrderingAndLookup(t *testing.T) {
	c := openTestCatalog(t)

	doc := domain.Document{Filename: "doc.txt"}
	if err := c.CreateDocument(&doc); err != nil {
		t.Fatal(err)
	}

	// Insert out of order; reads must come back in index order.
	chunks := []domain.Chunk{
		{DocumentID: doc.ID, Index: 2, Text: "third"},
		{DocumentID: doc.ID, Index: 0, Text: "first"},
		{DocumentID: doc.ID, Index: 1, Text: "second"},
	}
	if err := c.PutChunks(chunks); err != nil {
		t.Fatal(err)
	}

	got, err := c.GetChunks(doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	for i, chunk := range got {
		if chunk.Index != i {
			t.Errorf("chunk %d has index %d", i, chunk.Index)
		}
	}
	if got[0].Text != "first" || got[2].Text != "third" {
		t.Errorf("chunks out of order: %+v", got)
	}

	single, err := c.GetChunk(doc.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if single.Text != "second" {
		t.Errorf("expected second chunk, got %q", single.Text)
	}

	_, err = c.GetChunk(doc.ID, 9)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError for missing chunk, got %v", err)
	}
}

func TestChunksScopedToDocument(t *testing.T) {
	c := openTestCatalog(t)

	a := domain.Document{Filename: "a.txt"}
	b := domain.Document{Filename: "b.txt"}
	if err := c.CreateDocument(&a); err != nil {
		t.Fatal(err)
	}
	if err := c.CreateDocument(&b); err != nil {
		t.Fatal(err)
	}

	if err := c.PutChunks([]domain.Chunk{
		{DocumentID: a.ID, Index: 0, Text: "a0"},
		{DocumentID: a.ID, Index: 1, Text: "a1"},
		{DocumentID: b.ID, Index: 0, Text: "b0"},
	}); err != nil {
		t.Fatal(err)
	}

	aChunks, err := c.GetChunks(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(aChunks) != 2 {
		t.Errorf("expected 2 chunks for a, got %d", len(aChunks))
	}

	if err := c.DeleteChunks(a.ID); err != nil {
		t.Fatal(err)
	}

	aChunks, err = c.GetChunks(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(aChunks) != 0 {
		t.Errorf("expected no chunks for a after delete, got %d", len(aChunks))
	}

	bChunks, err := c.GetChunks(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(bChunks) != 1 {
		t.Errorf("expected b chunks untouched, got %d", len(bChunks))
	}
}

func TestUpdateChunkEmbeddingID(t *testing.T) {
	c := openTestCatalog(t)

	doc := domain.Document{Filename: "doc.txt"}
	if err := c.CreateDocument(&doc); err != nil {
		t.Fatal(err)
	}
	chunk := domain.Chunk{DocumentID: doc.ID, Index: 0, Text: "body"}
	if err := c.PutChunks([]domain.Chunk{chunk}); err != nil {
		t.Fatal(err)
	}

	chunk.EmbeddingID = "chunk_1_0"
	if err := c.UpdateChunk(chunk); err != nil {
		t.Fatal(err)
	}

	got, err := c.GetChunk(doc.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.EmbeddingID != "chunk_1_0" {
		t.Errorf("expected embedding id set, got %q", got.EmbeddingID)
	}
	if got.Text != "body" {
		t.Errorf("chunk text changed: %q", got.Text)
	}
}
