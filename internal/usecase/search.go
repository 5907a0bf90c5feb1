package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"argus/internal/adapter/cache"
	"argus/internal/domain"
	"argus/internal/port"
)

// SearchEngine turns a natural-language query into a ranked list of
// chunk hits: embeds the query, queries the vector index, resolves chunk
// metadata back to document records and extracts a context snippet.
type SearchEngine struct {
	catalog       port.CatalogStore
	embedder      port.Embedder
	index         port.VectorIndex
	cache         *cache.SearchCache
	contextLength int
}

// NewSearchEngine creates a search engine. The cache is optional; pass
// nil to disable result caching.
func NewSearchEngine(
	catalog port.CatalogStore,
	embedder port.Embedder,
	index port.VectorIndex,
	resultCache *cache.SearchCache,
	contextLength int,
) *SearchEngine {
	if contextLength <= 0 {
		contextLength = 150
	}
	return &SearchEngine{
		catalog:       catalog,
		embedder:      embedder,
		index:         index,
		cache:         resultCache,
		contextLength: contextLength,
	}
}

// Search performs semantic search across documents, optionally
// restricted to the given document ids. An empty query yields an empty
// result set. Results come back in ascending-distance order, so
// relevance scores are non-increasing.
func (e *SearchEngine) Search(ctx context.Context, query string, topK int, documentIDs []int64) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if topK <= 0 {
		return nil, &domain.ValidationError{Msg: fmt.Sprintf("top_k must be positive, got %d", topK)}
	}

	if e.cache != nil {
		if results, ok := e.cache.Get(query, topK, documentIDs); ok {
			return results, nil
		}
	}

	vector, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		var embErr *domain.EmbeddingError
		if errors.As(err, &embErr) {
			return nil, err
		}
		return nil, &domain.EmbeddingError{Provider: e.embedder.ModelName(), Err: err}
	}

	var filter *port.Filter
	if len(documentIDs) > 0 {
		filter = &port.Filter{DocumentIDs: documentIDs}
	}

	matches, err := e.index.Query(vector, topK, filter)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(matches))
	docs := make(map[int64]domain.Document)

	for _, m := range matches {
		doc, ok := docs[m.Meta.DocumentID]
		if !ok {
			var err error
			doc, err = e.catalog.GetDocument(m.Meta.DocumentID)
			if err != nil {
				var nf *domain.NotFoundError
				if errors.As(err, &nf) {
					// Stale index entry, not an error.
					continue
				}
				return nil, err
			}
			docs[m.Meta.DocumentID] = doc
		}

		results = append(results, domain.SearchResult{
			DocumentID:       m.Meta.DocumentID,
			DocumentTitle:    doc.DisplayTitle(),
			DocumentFilename: doc.Filename,
			ChunkText:        m.Text,
			Snippet:          ExtractSnippet(m.Text, query, e.contextLength),
			RelevanceScore:   relevanceScore(m.Distance),
			ChunkIndex:       m.Meta.ChunkIndex,
		})
	}

	if e.cache != nil {
		e.cache.Put(query, topK, documentIDs, results)
	}

	return results, nil
}

// SimilarChunks finds chunks similar to the given chunk, excluding the
// chunk's own document. Fails with NotFoundError when the chunk does not
// exist or has no embedding yet.
func (e *SearchEngine) SimilarChunks(ctx context.Context, documentID int64, chunkIndex, topK int) ([]domain.SearchResult, error) {
	chunk, err := e.catalog.GetChunk(documentID, chunkIndex)
	if err != nil {
		return nil, err
	}
	if chunk.EmbeddingID == "" {
		return nil, &domain.NotFoundError{
			Kind: "embedding",
			ID:   fmt.Sprintf("%d/%d", documentID, chunkIndex),
		}
	}

	// Over-fetch so filtering out the source document still leaves topK.
	results, err := e.Search(ctx, chunk.Text, topK+5, nil)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.SearchResult, 0, topK)
	for _, r := range results {
		if r.DocumentID == documentID {
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) == topK {
			break
		}
	}
	return filtered, nil
}

// DocumentSummary reports a document's embedding coverage, the health
// signal for "is this document fully searchable yet".
func (e *SearchEngine) DocumentSummary(documentID int64) (domain.DocumentSummary, error) {
	doc, err := e.catalog.GetDocument(documentID)
	if err != nil {
		return domain.DocumentSummary{}, err
	}

	chunks, err := e.catalog.GetChunks(documentID)
	if err != nil {
		return domain.DocumentSummary{}, err
	}

	embedded := 0
	for _, chunk := range chunks {
		if chunk.EmbeddingID != "" {
			embedded++
		}
	}

	coverage := 0.0
	if len(chunks) > 0 {
		coverage = roundTo(float64(embedded)/float64(len(chunks))*100, 2)
	}

	return domain.DocumentSummary{
		DocumentID:        documentID,
		Filename:          doc.Filename,
		Title:             doc.Title,
		TotalChunks:       len(chunks),
		EmbeddedChunks:    embedded,
		EmbeddingCoverage: coverage,
	}, nil
}

// relevanceScore converts a cosine distance to a score in [0,1] rounded
// to 4 decimal places.
func relevanceScore(distance float64) float64 {
	score := port.Similarity(distance)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return roundTo(score, 4)
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

// ChunkVectorID derives the vector index point id for a chunk. The
// scheme is deterministic so re-ingestion replaces instead of
// duplicating.
func ChunkVectorID(documentID int64, chunkIndex int) string {
	return "chunk_" + strconv.FormatInt(documentID, 10) + "_" + strconv.Itoa(chunkIndex)
}
