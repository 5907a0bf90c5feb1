package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"argus/internal/adapter/cache"
	"argus/internal/domain"
	"argus/internal/port"
)

// Processor sequences chunking, batch embedding and the vector index
// write for one document per call. An embedding or index failure leaves
// the document completed but degraded: its chunk rows survive with empty
// embedding ids, which the search and pattern layers treat as "not yet
// searchable" rather than as an error.
type Processor struct {
	catalog  port.CatalogStore
	embedder port.Embedder
	index    port.VectorIndex
	chunker  port.Chunker
	cache    *cache.SearchCache
}

// NewProcessor creates a document processor. The cache is optional and
// is invalidated on every write so stale search results never survive
// ingestion or deletion.
func NewProcessor(
	catalog port.CatalogStore,
	embedder port.Embedder,
	index port.VectorIndex,
	chunker port.Chunker,
	resultCache *cache.SearchCache,
) *Processor {
	return &Processor{
		catalog:  catalog,
		embedder: embedder,
		index:    index,
		chunker:  chunker,
		cache:    resultCache,
	}
}

// Ingest creates a document record for the given text and runs it
// through the pipeline. The returned document reflects its final state;
// a degraded ingestion (embeddings unavailable) still completes, with
// the failure recorded on the document.
func (p *Processor) Ingest(ctx context.Context, filename, text string) (domain.Document, error) {
	doc := domain.Document{
		Filename: filename,
		Title:    ExtractTitle(text),
		Status:   domain.StatusPending,
	}
	if err := p.catalog.CreateDocument(&doc); err != nil {
		return doc, fmt.Errorf("failed to create document: %w", err)
	}

	return p.process(ctx, doc, text)
}

// Reprocess re-runs the pipeline for an existing document with new
// text. Old chunks and vectors are removed first, and the deterministic
// vector id scheme means the index write replaces rather than
// duplicates.
func (p *Processor) Reprocess(ctx context.Context, documentID int64, text string) (domain.Document, error) {
	doc, err := p.catalog.GetDocument(documentID)
	if err != nil {
		return domain.Document{}, err
	}

	if err := p.index.Delete(nil, &port.Filter{DocumentIDs: []int64{documentID}}); err != nil {
		return doc, err
	}
	if err := p.catalog.DeleteChunks(documentID); err != nil {
		return doc, err
	}

	doc.Title = ExtractTitle(text)
	doc.ErrorMessage = ""
	return p.process(ctx, doc, text)
}

// Delete removes a document, its chunks and its vectors together, so no
// orphaned vectors survive.
func (p *Processor) Delete(documentID int64) error {
	if err := p.index.Delete(nil, &port.Filter{DocumentIDs: []int64{documentID}}); err != nil {
		return err
	}
	if err := p.catalog.DeleteChunks(documentID); err != nil {
		return err
	}
	if err := p.catalog.DeleteDocument(documentID); err != nil {
		return err
	}
	p.invalidate()
	return nil
}

func (p *Processor) process(ctx context.Context, doc domain.Document, text string) (domain.Document, error) {
	doc.Status = domain.StatusProcessing
	if err := p.catalog.UpdateDocument(doc); err != nil {
		return doc, err
	}

	chunks := p.buildChunks(doc.ID, text)
	if err := p.catalog.PutChunks(chunks); err != nil {
		return p.fail(doc, fmt.Errorf("failed to store chunks: %w", err))
	}

	if len(chunks) > 0 {
		if err := p.embedChunks(ctx, chunks); err != nil {
			// Embedding failure must not corrupt the chunk set: rows
			// keep empty embedding ids and the document completes
			// degraded.
			doc.ErrorMessage = fmt.Sprintf("embeddings unavailable: %v", err)
		}
	}

	doc.Status = domain.StatusCompleted
	doc.ProcessedAt = time.Now()
	if err := p.catalog.UpdateDocument(doc); err != nil {
		return doc, err
	}

	p.invalidate()
	return doc, nil
}

func (p *Processor) fail(doc domain.Document, cause error) (domain.Document, error) {
	doc.Status = domain.StatusFailed
	doc.ErrorMessage = cause.Error()
	if err := p.catalog.UpdateDocument(doc); err != nil {
		return doc, err
	}
	return doc, cause
}

func (p *Processor) buildChunks(documentID int64, text string) []domain.Chunk {
	texts := p.chunker.Chunk(text)
	chunks := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = domain.Chunk{
			DocumentID: documentID,
			Index:      i,
			Text:       t,
		}
	}
	return chunks
}

// embedChunks batch-embeds the chunk texts, writes the vectors to the
// index and records the embedding ids on the chunk rows. One batch call
// per document, never one embedding call per chunk.
func (p *Processor) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return &domain.EmbeddingError{
			Provider: p.embedder.ModelName(),
			Err:      fmt.Errorf("expected %d vectors, got %d", len(chunks), len(vectors)),
		}
	}

	points := make([]port.Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = port.Point{
			ID:     ChunkVectorID(chunk.DocumentID, chunk.Index),
			Vector: vectors[i],
			Text:   chunk.Text,
			Meta: port.Metadata{
				DocumentID: chunk.DocumentID,
				ChunkIndex: chunk.Index,
			},
		}
	}

	if err := p.index.Add(points); err != nil {
		return err
	}

	for i := range chunks {
		chunks[i].EmbeddingID = points[i].ID
	}
	return p.catalog.PutChunks(chunks)
}

func (p *Processor) invalidate() {
	if p.cache != nil {
		p.cache.Invalidate()
	}
}

// ExtractTitle pulls a display title out of raw document text: the
// first markdown heading if one exists, otherwise the first non-empty
// line, capped at 100 characters.
func ExtractTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		if line == "" {
			continue
		}
		if len(line) > 100 {
			line = line[:100]
			if i := strings.LastIndex(line, " "); i > 0 {
				line = line[:i]
			}
		}
		return line
	}
	return ""
}
