package port

// Metadata is attached to every stored vector. Downstream grouping by
// document depends on these exact fields being present.
type Metadata struct {
	DocumentID int64 `json:"document_id"`
	ChunkIndex int   `json:"chunk_index"`
}

// Point is a vector with its source text and metadata.
type Point struct {
	ID     string
	Vector []float32
	Text   string
	Meta   Metadata
}

// Match is one query result. Distance is cosine distance in [0,2];
// 0 means identical vectors.
type Match struct {
	ID       string
	Text     string
	Meta     Metadata
	Distance float64
}

// Filter restricts an operation to vectors owned by the given documents.
// A nil filter or an empty DocumentIDs set matches everything.
type Filter struct {
	DocumentIDs []int64
}

// Matches reports whether the filter admits the given document.
func (f *Filter) Matches(documentID int64) bool {
	if f == nil || len(f.DocumentIDs) == 0 {
		return true
	}
	for _, id := range f.DocumentIDs {
		if id == documentID {
			return true
		}
	}
	return false
}

// VectorIndex is a persistent nearest-neighbor store over one logical
// collection with a fixed cosine metric. Point ids follow the scheme
// "chunk_{document_id}_{chunk_index}" so re-ingestion is idempotent.
type VectorIndex interface {
	// Add upserts points. Re-adding an existing id replaces it.
	Add(points []Point) error

	// Query returns up to k matches ordered by ascending distance
	// (most similar first), optionally restricted by filter.
	Query(vector []float32, k int, filter *Filter) ([]Match, error)

	// Get retrieves stored points by id and/or filter. A limit of 0
	// means no limit.
	Get(ids []string, filter *Filter, limit int) ([]Point, error)

	// Delete removes points by id and/or filter.
	Delete(ids []string, filter *Filter) error

	// Count returns the number of stored points.
	Count() (int, error)
}

// Similarity converts a cosine distance in [0,2] to a relevance score in
// [0,1] where 1.0 means identical. This conversion is fixed system-wide.
func Similarity(distance float64) float64 {
	return 1 - distance/2
}
