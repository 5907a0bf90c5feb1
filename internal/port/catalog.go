package port

import "argus/internal/domain"

// CatalogStore persists document and chunk records. It is the relational
// side of the system; it never stores raw embedding vectors, only the
// opaque embedding id linking a chunk to the vector index.
type CatalogStore interface {
	// CreateDocument stores a new document and assigns its ID.
	CreateDocument(doc *domain.Document) error

	GetDocument(id int64) (domain.Document, error)

	UpdateDocument(doc domain.Document) error

	ListDocuments() ([]domain.Document, error)

	// ListDocumentsByStatus returns documents in the given processing
	// state, ordered by id.
	ListDocumentsByStatus(status domain.ProcessingStatus) ([]domain.Document, error)

	DeleteDocument(id int64) error

	// PutChunks stores a document's chunks in one batch.
	PutChunks(chunks []domain.Chunk) error

	// GetChunks returns a document's chunks ordered by chunk index.
	GetChunks(documentID int64) ([]domain.Chunk, error)

	GetChunk(documentID int64, index int) (domain.Chunk, error)

	// UpdateChunk rewrites a chunk record, used to set its embedding id.
	UpdateChunk(chunk domain.Chunk) error

	DeleteChunks(documentID int64) error

	Close() error
}
