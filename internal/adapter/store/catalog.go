package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"argus/internal/domain"
)

var (
	bucketDocuments = []byte("documents")
	bucketChunks    = []byte("chunks")
)

// Catalog is the bbolt-backed document and chunk store. It holds record
// metadata and chunk text only; vector payloads live in the vector index.
type Catalog struct {
	db *bbolt.DB
}

func NewCatalog(path string) (*Catalog, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocuments, bucketChunks} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

type docRecord struct {
	Filename     string `json:"filename"`
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	ProcessedAt  int64  `json:"processed_at,omitempty"`
}

type chunkRecord struct {
	Text        string `json:"text"`
	EmbeddingID string `json:"embedding_id,omitempty"`
}

func docKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

// chunkKey orders chunk records by (document id, chunk index) so a
// prefix scan yields a document's chunks in index order.
func chunkKey(documentID int64, index int) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint64(key[:8], uint64(documentID))
	binary.BigEndian.PutUint32(key[8:], uint32(index))
	return key
}

func encodeDoc(doc domain.Document) ([]byte, error) {
	rec := docRecord{
		Filename:     doc.Filename,
		Title:        doc.Title,
		Author:       doc.Author,
		Status:       string(doc.Status),
		ErrorMessage: doc.ErrorMessage,
		CreatedAt:    doc.CreatedAt.Unix(),
	}
	if !doc.ProcessedAt.IsZero() {
		rec.ProcessedAt = doc.ProcessedAt.Unix()
	}
	return json.Marshal(rec)
}

func decodeDoc(id int64, data []byte) (domain.Document, error) {
	var rec docRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Document{}, err
	}
	doc := domain.Document{
		ID:           id,
		Filename:     rec.Filename,
		Title:        rec.Title,
		Author:       rec.Author,
		Status:       domain.ProcessingStatus(rec.Status),
		ErrorMessage: rec.ErrorMessage,
		CreatedAt:    time.Unix(rec.CreatedAt, 0),
	}
	if rec.ProcessedAt != 0 {
		doc.ProcessedAt = time.Unix(rec.ProcessedAt, 0)
	}
	return doc, nil
}

// CreateDocument stores a new document and assigns its ID from the
// bucket sequence.
func (c *Catalog) CreateDocument(doc *domain.Document) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		doc.ID = int64(seq)
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = time.Now()
		}

		data, err := encodeDoc(*doc)
		if err != nil {
			return err
		}
		return b.Put(docKey(doc.ID), data)
	})
}

func (c *Catalog) GetDocument(id int64) (domain.Document, error) {
	var doc domain.Document
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocuments).Get(docKey(id))
		if data == nil {
			return &domain.NotFoundError{Kind: "document", ID: strconv.FormatInt(id, 10)}
		}
		var err error
		doc, err = decodeDoc(id, data)
		return err
	})
	return doc, err
}

func (c *Catalog) UpdateDocument(doc domain.Document) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		if b.Get(docKey(doc.ID)) == nil {
			return &domain.NotFoundError{Kind: "document", ID: strconv.FormatInt(doc.ID, 10)}
		}
		data, err := encodeDoc(doc)
		if err != nil {
			return err
		}
		return b.Put(docKey(doc.ID), data)
	})
}

func (c *Catalog) ListDocuments() ([]domain.Document, error) {
	var docs []domain.Document
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			doc, err := decodeDoc(int64(binary.BigEndian.Uint64(k)), v)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
	})
	return docs, err
}

func (c *Catalog) ListDocumentsByStatus(status domain.ProcessingStatus) ([]domain.Document, error) {
	docs, err := c.ListDocuments()
	if err != nil {
		return nil, err
	}
	filtered := docs[:0]
	for _, doc := range docs {
		if doc.Status == status {
			filtered = append(filtered, doc)
		}
	}
	return filtered, nil
}

func (c *Catalog) DeleteDocument(id int64) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).Delete(docKey(id))
	})
}

func (c *Catalog) PutChunks(chunks []domain.Chunk) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		for _, chunk := range chunks {
			data, err := json.Marshal(chunkRecord{
				Text:        chunk.Text,
				EmbeddingID: chunk.EmbeddingID,
			})
			if err != nil {
				return err
			}
			if err := b.Put(chunkKey(chunk.DocumentID, chunk.Index), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Catalog) GetChunks(documentID int64) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := c.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(bucketChunks).Cursor()
		prefix := docKey(documentID)

		for k, v := cursor.Seek(prefix); k != nil && len(k) == 12 && string(k[:8]) == string(prefix); k, v = cursor.Next() {
			var rec chunkRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			chunks = append(chunks, domain.Chunk{
				DocumentID:  documentID,
				Index:       int(binary.BigEndian.Uint32(k[8:])),
				Text:        rec.Text,
				EmbeddingID: rec.EmbeddingID,
			})
		}
		return nil
	})
	return chunks, err
}

func (c *Catalog) GetChunk(documentID int64, index int) (domain.Chunk, error) {
	var chunk domain.Chunk
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketChunks).Get(chunkKey(documentID, index))
		if data == nil {
			return &domain.NotFoundError{
				Kind: "chunk",
				ID:   fmt.Sprintf("%d/%d", documentID, index),
			}
		}
		var rec chunkRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		chunk = domain.Chunk{
			DocumentID:  documentID,
			Index:       index,
			Text:        rec.Text,
			EmbeddingID: rec.EmbeddingID,
		}
		return nil
	})
	return chunk, err
}

func (c *Catalog) UpdateChunk(chunk domain.Chunk) error {
	return c.PutChunks([]domain.Chunk{chunk})
}

func (c *Catalog) DeleteChunks(documentID int64) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(bucketChunks).Cursor()
		prefix := docKey(documentID)

		var keys [][]byte
		for k, _ := cursor.Seek(prefix); k != nil && len(k) == 12 && string(k[:8]) == string(prefix); k, _ = cursor.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := tx.Bucket(bucketChunks).Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
