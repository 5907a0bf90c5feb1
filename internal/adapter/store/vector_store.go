package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"argus/internal/domain"
	"argus/internal/port"
)

var bucketVectors = []byte("vectors")

// BoltVectorIndex implements port.VectorIndex using BoltDB for
// persistence. Uses brute-force search for simplicity; can be replaced
// with HNSW for larger collections.
type BoltVectorIndex struct {
	db        *bbolt.DB
	dimension int
	mu        sync.RWMutex
	// In-memory cache for fast search
	points map[string]vectorEntry
}

type vectorEntry struct {
	vector []float32
	text   string
	meta   port.Metadata
}

type storedVector struct {
	Vector []float32     `json:"v"`
	Text   string        `json:"t,omitempty"`
	Meta   port.Metadata `json:"m"`
}

// NewBoltVectorIndex creates a BoltDB-backed vector index. All vectors
// in the collection must have the given dimension.
func NewBoltVectorIndex(db *bbolt.DB, dimension int) (*BoltVectorIndex, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketVectors)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vectors bucket: %w", err)
	}

	idx := &BoltVectorIndex{
		db:        db,
		dimension: dimension,
		points:    make(map[string]vectorEntry),
	}

	if err := idx.loadVectors(); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}

	return idx, nil
}

// loadVectors loads all stored points into memory.
func (s *BoltVectorIndex) loadVectors() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // Skip corrupted entries
			}
			s.points[string(k)] = vectorEntry{
				vector: stored.Vector,
				text:   stored.Text,
				meta:   stored.Meta,
			}
			return nil
		})
	})
}

// Add upserts points. An existing id is cleanly replaced.
func (s *BoltVectorIndex) Add(points []port.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return fmt.Errorf("vectors bucket not found")
		}

		for _, p := range points {
			if len(p.Vector) != s.dimension {
				return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(p.Vector))
			}

			data, err := json.Marshal(storedVector{
				Vector: p.Vector,
				Text:   p.Text,
				Meta:   p.Meta,
			})
			if err != nil {
				return err
			}

			if err := b.Put([]byte(p.ID), data); err != nil {
				return err
			}

			s.points[p.ID] = vectorEntry{
				vector: p.Vector,
				text:   p.Text,
				meta:   p.Meta,
			}
		}

		return nil
	})
	if err != nil {
		return &domain.IndexError{Op: "add", Err: err}
	}
	return nil
}

// Query finds the k nearest points by cosine distance, most similar
// first, optionally restricted by filter.
func (s *BoltVectorIndex) Query(vector []float32, k int, filter *port.Filter) ([]port.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(vector) != s.dimension {
		return nil, &domain.IndexError{
			Op:  "query",
			Err: fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(vector)),
		}
	}

	matches := make([]port.Match, 0, len(s.points))
	for id, entry := range s.points {
		if !filter.Matches(entry.meta.DocumentID) {
			continue
		}
		matches = append(matches, port.Match{
			ID:       id,
			Text:     entry.text,
			Meta:     entry.meta,
			Distance: 1 - cosineSimilarity(vector, entry.vector),
		})
	}

	// Ascending distance; id tiebreak keeps ordering deterministic.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Get retrieves stored points by id and/or filter.
func (s *BoltVectorIndex) Get(ids []string, filter *port.Filter, limit int) ([]port.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []port.Point

	appendEntry := func(id string, entry vectorEntry) {
		out = append(out, port.Point{
			ID:     id,
			Vector: entry.vector,
			Text:   entry.text,
			Meta:   entry.meta,
		})
	}

	if len(ids) > 0 {
		for _, id := range ids {
			entry, ok := s.points[id]
			if !ok || !filter.Matches(entry.meta.DocumentID) {
				continue
			}
			appendEntry(id, entry)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return out, nil
	}

	// Full scan in sorted id order so limited reads are stable.
	sortedIDs := make([]string, 0, len(s.points))
	for id := range s.points {
		sortedIDs = append(sortedIDs, id)
	}
	sort.Strings(sortedIDs)

	for _, id := range sortedIDs {
		entry := s.points[id]
		if !filter.Matches(entry.meta.DocumentID) {
			continue
		}
		appendEntry(id, entry)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Delete removes points by id and/or filter.
func (s *BoltVectorIndex) Delete(ids []string, filter *port.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) == 0 {
		for id, entry := range s.points {
			if filter != nil && len(filter.DocumentIDs) > 0 && filter.Matches(entry.meta.DocumentID) {
				ids = append(ids, id)
			}
		}
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}

		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
			delete(s.points, id)
		}
		return nil
	})
	if err != nil {
		return &domain.IndexError{Op: "delete", Err: err}
	}
	return nil
}

// Count returns the number of stored points.
func (s *BoltVectorIndex) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points), nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
