package domain

import "time"

// ProcessingStatus tracks a document through the ingestion pipeline.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Document identifies one source file in the corpus.
type Document struct {
	ID           int64
	Filename     string
	Title        string
	Author       string
	Status       ProcessingStatus
	ErrorMessage string
	CreatedAt    time.Time
	ProcessedAt  time.Time
}

// DisplayTitle returns the extracted title, falling back to the filename.
func (d Document) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Filename
}

// Chunk is an ordered slice of a document's extracted text.
// EmbeddingID is empty until the chunk's vector has been written to the
// vector index; an empty value means "not yet searchable", not an error.
type Chunk struct {
	DocumentID  int64
	Index       int
	Text        string
	EmbeddingID string
}

// SearchResult is one ranked hit from a semantic search. RelevanceScore
// is in [0,1] where 1.0 means the query and chunk vectors are identical.
type SearchResult struct {
	DocumentID       int64   `json:"document_id"`
	DocumentTitle    string  `json:"document_title"`
	DocumentFilename string  `json:"document_filename"`
	ChunkText        string  `json:"chunk_text"`
	Snippet          string  `json:"snippet"`
	RelevanceScore   float64 `json:"relevance_score"`
	ChunkIndex       int     `json:"chunk_index"`
}

// DocumentSummary reports how searchable a document currently is.
type DocumentSummary struct {
	DocumentID        int64   `json:"document_id"`
	Filename          string  `json:"filename"`
	Title             string  `json:"title"`
	TotalChunks       int     `json:"total_chunks"`
	EmbeddedChunks    int     `json:"embedded_chunks"`
	EmbeddingCoverage float64 `json:"embedding_coverage"`
}

// SimilarDocument is one document ranked by its averaged chunk-level
// similarity to a target document.
type SimilarDocument struct {
	DocumentID     int64   `json:"document_id"`
	Filename       string  `json:"filename"`
	Similarity     float64 `json:"similarity"`
	MatchingChunks int     `json:"matching_chunks"`
}

// DocumentRef is a compact member summary used inside clusters.
type DocumentRef struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Title    string `json:"title"`
}

// DocumentCluster groups thematically related documents.
type DocumentCluster struct {
	ClusterID int           `json:"cluster_id"`
	Documents []DocumentRef `json:"documents"`
	Size      int           `json:"size"`
	Centroid  []float32     `json:"centroid"`
}

// Theme labels one cluster with its most frequent title keyword.
type Theme struct {
	ClusterID     int    `json:"cluster_id"`
	ThemeName     string `json:"theme_name"`
	DocumentCount int    `json:"document_count"`
}

// ClusterResult is the full output of a clustering run. Err is set when
// the run failed internally; all other fields then hold zero defaults.
type ClusterResult struct {
	Clusters       []DocumentCluster `json:"clusters"`
	Themes         []Theme           `json:"themes"`
	TotalDocuments int               `json:"total_documents"`
	NClusters      int               `json:"n_clusters"`
	Err            string            `json:"error,omitempty"`
}

// Connection is a suggested document-to-document relationship.
type Connection struct {
	SourceDocumentID int64   `json:"source_document_id"`
	TargetDocumentID int64   `json:"target_document_id"`
	ConnectionType   string  `json:"connection_type"`
	Strength         float64 `json:"strength"`
	Confidence       string  `json:"confidence"`
	Reason           string  `json:"reason"`
	MatchingChunks   int     `json:"matching_chunks"`
}

// CentralDocument is a highly connected node in the document network.
type CentralDocument struct {
	DocumentID      int64   `json:"document_id"`
	Filename        string  `json:"filename"`
	Connections     int     `json:"connections"`
	CentralityScore float64 `json:"centrality_score"`
}

// IsolatedDocument is a document with no above-threshold connections.
type IsolatedDocument struct {
	DocumentID int64  `json:"document_id"`
	Filename   string `json:"filename"`
}

// NetworkAnalysis describes the overall document similarity graph.
// Err is set when the analysis failed internally.
type NetworkAnalysis struct {
	CentralDocuments  []CentralDocument  `json:"central_documents"`
	IsolatedDocuments []IsolatedDocument `json:"isolated_documents"`
	NetworkDensity    float64            `json:"network_density"`
	TotalConnections  int                `json:"total_connections"`
	TotalDocuments    int                `json:"total_documents"`
	Err               string             `json:"error,omitempty"`
}
