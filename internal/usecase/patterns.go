package usecase

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"argus/internal/adapter/cluster"
	"argus/internal/domain"
	"argus/internal/port"
)

// PatternDetector derives document-level relationships from chunk-level
// vector similarity: similar-document lookup, thematic clustering,
// connection suggestions and network centrality analysis.
//
// Detector operations fail soft: internal errors surface as empty
// results or as the Err field on the result payload, never as a raised
// error, so one broken document cannot take down a whole analysis.
type PatternDetector struct {
	catalog port.CatalogStore
	index   port.VectorIndex

	similarityThreshold float64
	minClusterSize      int
	maxClusters         int
}

func NewPatternDetector(catalog port.CatalogStore, index port.VectorIndex) *PatternDetector {
	return &PatternDetector{
		catalog:             catalog,
		index:               index,
		similarityThreshold: 0.7,
		minClusterSize:      2,
		maxClusters:         10,
	}
}

// SetSimilarityThreshold overrides the default 0.7 threshold.
func (d *PatternDetector) SetSimilarityThreshold(threshold float64) {
	if threshold > 0 {
		d.similarityThreshold = threshold
	}
}

// representativeVector returns the first embedded chunk's stored vector
// as a proxy for the whole document. Documents are not embedded
// holistically, only via a representative chunk.
func (d *PatternDetector) representativeVector(documentID int64) ([]float32, bool) {
	chunks, err := d.catalog.GetChunks(documentID)
	if err != nil || len(chunks) == 0 {
		return nil, false
	}

	for _, chunk := range chunks {
		if chunk.EmbeddingID == "" {
			continue
		}
		points, err := d.index.Get([]string{chunk.EmbeddingID}, nil, 1)
		if err != nil || len(points) == 0 {
			return nil, false
		}
		return points[0].Vector, true
	}
	return nil, false
}

// SimilarDocuments finds documents similar to the given document,
// ranked by their averaged above-threshold chunk similarity. The source
// document is never included in its own results.
func (d *PatternDetector) SimilarDocuments(documentID int64, topK int) []domain.SimilarDocument {
	similar := make([]domain.SimilarDocument, 0, topK)

	if _, err := d.catalog.GetDocument(documentID); err != nil {
		return similar
	}

	vector, ok := d.representativeVector(documentID)
	if !ok {
		return similar
	}

	// Over-fetch to compensate for multiple hits per document.
	matches, err := d.index.Query(vector, topK*5, nil)
	if err != nil {
		return similar
	}

	sums := make(map[int64]float64)
	counts := make(map[int64]int)
	var order []int64

	for _, m := range matches {
		otherID := m.Meta.DocumentID
		if otherID == documentID {
			continue
		}
		similarity := port.Similarity(m.Distance)
		if similarity < d.similarityThreshold {
			continue
		}
		if _, seen := counts[otherID]; !seen {
			order = append(order, otherID)
		}
		sums[otherID] += similarity
		counts[otherID]++
	}

	for _, id := range order {
		doc, err := d.catalog.GetDocument(id)
		if err != nil {
			// Stale index entry.
			continue
		}
		similar = append(similar, domain.SimilarDocument{
			DocumentID:     id,
			Filename:       doc.Filename,
			Similarity:     sums[id] / float64(counts[id]),
			MatchingChunks: counts[id],
		})
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Similarity > similar[j].Similarity
	})

	if len(similar) > topK {
		similar = similar[:topK]
	}
	return similar
}

// ClusterDocuments groups completed, embedded documents into themes
// using k-means over representative vectors. When nClusters is 0 the
// cluster count is derived as roughly three documents per cluster.
func (d *PatternDetector) ClusterDocuments(nClusters int) domain.ClusterResult {
	result := domain.ClusterResult{
		Clusters: []domain.DocumentCluster{},
		Themes:   []domain.Theme{},
	}

	docs, err := d.catalog.ListDocumentsByStatus(domain.StatusCompleted)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	if len(docs) < d.minClusterSize {
		result.TotalDocuments = len(docs)
		return result
	}

	var vectors [][]float32
	var members []domain.DocumentRef

	for _, doc := range docs {
		vector, ok := d.representativeVector(doc.ID)
		if !ok {
			continue
		}
		vectors = append(vectors, vector)
		members = append(members, domain.DocumentRef{
			ID:       doc.ID,
			Filename: doc.Filename,
			Title:    doc.DisplayTitle(),
		})
	}

	result.TotalDocuments = len(members)
	if len(members) < d.minClusterSize {
		return result
	}

	k := nClusters
	if k <= 0 {
		k = cluster.AutoK(len(members), d.maxClusters)
	}
	if k > len(members) {
		k = len(members)
	}

	res := cluster.KMeans(vectors, k)
	result.NClusters = k

	for clusterID := 0; clusterID < k; clusterID++ {
		var clusterDocs []domain.DocumentRef
		for i, assigned := range res.Assignments {
			if assigned == clusterID {
				clusterDocs = append(clusterDocs, members[i])
			}
		}
		if len(clusterDocs) == 0 {
			continue
		}

		result.Clusters = append(result.Clusters, domain.DocumentCluster{
			ClusterID: clusterID,
			Documents: clusterDocs,
			Size:      len(clusterDocs),
			Centroid:  res.Centroids[clusterID],
		})
	}

	for _, c := range result.Clusters {
		result.Themes = append(result.Themes, domain.Theme{
			ClusterID:     c.ClusterID,
			ThemeName:     themeName(c),
			DocumentCount: c.Size,
		})
	}

	return result
}

var themeStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true,
}

// themeName picks the most frequent non-stopword title token of at
// least 4 characters, capitalized. Falls back to a generic label when
// no candidate survives filtering.
func themeName(c domain.DocumentCluster) string {
	counts := make(map[string]int)
	var order []string

	for _, doc := range c.Documents {
		for _, word := range strings.Fields(strings.ToLower(doc.Title)) {
			if themeStopwords[word] || len(word) <= 3 {
				continue
			}
			if counts[word] == 0 {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	best := ""
	bestCount := 0
	for _, word := range order {
		if counts[word] > bestCount {
			best = word
			bestCount = counts[word]
		}
	}

	if best == "" {
		return fmt.Sprintf("Theme %d", c.ClusterID+1)
	}
	return capitalize(best)
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// SuggestConnections proposes document pairs whose similarity clears
// the supplied threshold (the detector default when 0), tiered by
// confidence.
func (d *PatternDetector) SuggestConnections(documentID int64, threshold float64) []domain.Connection {
	if threshold <= 0 {
		threshold = d.similarityThreshold
	}

	similar := d.SimilarDocuments(documentID, 10)

	connections := make([]domain.Connection, 0, len(similar))
	for _, doc := range similar {
		if doc.Similarity < threshold {
			continue
		}
		confidence := "medium"
		if doc.Similarity > 0.85 {
			confidence = "high"
		}
		connections = append(connections, domain.Connection{
			SourceDocumentID: documentID,
			TargetDocumentID: doc.DocumentID,
			ConnectionType:   "semantic_similarity",
			Strength:         doc.Similarity,
			Confidence:       confidence,
			Reason:           fmt.Sprintf("Semantic similarity: %.2f%%", doc.Similarity*100),
			MatchingChunks:   doc.MatchingChunks,
		})
	}
	return connections
}

// AnalyzeNetwork builds the full pairwise similarity matrix over all
// completed documents and reports central documents, isolated documents
// and network density. Cost is quadratic in the number of documents, so
// treat this as a batch operation on large corpora.
func (d *PatternDetector) AnalyzeNetwork() domain.NetworkAnalysis {
	result := domain.NetworkAnalysis{
		CentralDocuments:  []domain.CentralDocument{},
		IsolatedDocuments: []domain.IsolatedDocument{},
	}

	docs, err := d.catalog.ListDocumentsByStatus(domain.StatusCompleted)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	n := len(docs)
	result.TotalDocuments = n
	if n < 2 {
		return result
	}

	indexOf := make(map[int64]int, n)
	for i, doc := range docs {
		indexOf[doc.ID] = i
	}

	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i, doc := range docs {
		for _, sim := range d.SimilarDocuments(doc.ID, n) {
			if j, ok := indexOf[sim.DocumentID]; ok {
				matrix[i][j] = sim.Similarity
			}
		}
	}

	centrality := make([]int, n)
	for i := range matrix {
		for j := range matrix[i] {
			if matrix[i][j] > d.similarityThreshold {
				centrality[i]++
			}
		}
	}

	// Top 5 by centrality, ties broken by document order.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return centrality[order[a]] > centrality[order[b]]
	})

	for _, idx := range order {
		if len(result.CentralDocuments) == 5 {
			break
		}
		if centrality[idx] == 0 {
			continue
		}
		result.CentralDocuments = append(result.CentralDocuments, domain.CentralDocument{
			DocumentID:      docs[idx].ID,
			Filename:        docs[idx].Filename,
			Connections:     centrality[idx],
			CentralityScore: float64(centrality[idx]) / float64(n),
		})
	}

	for i, c := range centrality {
		if c == 0 {
			result.IsolatedDocuments = append(result.IsolatedDocuments, domain.IsolatedDocument{
				DocumentID: docs[i].ID,
				Filename:   docs[i].Filename,
			})
		}
	}

	totalAbove := 0
	for i := range matrix {
		for j := range matrix[i] {
			if matrix[i][j] > d.similarityThreshold {
				totalAbove++
			}
		}
	}
	result.TotalConnections = totalAbove / 2

	possible := n * (n - 1) / 2
	if possible > 0 {
		result.NetworkDensity = float64(result.TotalConnections) / float64(possible)
	}

	return result
}
