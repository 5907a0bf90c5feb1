package store

import (
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"argus/internal/port"
)

func openTestIndex(t *testing.T, dimension int) *BoltVectorIndex {
	t.Helper()

	db, err := bbolt.Open(filepath.Join(t.TempDir(), "vectors.db"), 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	idx, err := NewBoltVectorIndex(db, dimension)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func testPoints() []port.Point {
	return []port.Point{
		{ID: "chunk_1_0", Vector: []float32{1, 0, 0}, Text: "alpha", Meta: port.Metadata{DocumentID: 1, ChunkIndex: 0}},
		{ID: "chunk_1_1", Vector: []float32{0.9, 0.1, 0}, Text: "beta", Meta: port.Metadata{DocumentID: 1, ChunkIndex: 1}},
		{ID: "chunk_2_0", Vector: []float32{0, 1, 0}, Text: "gamma", Meta: port.Metadata{DocumentID: 2, ChunkIndex: 0}},
		{ID: "chunk_3_0", Vector: []float32{0, 0, 1}, Text: "delta", Meta: port.Metadata{DocumentID: 3, ChunkIndex: 0}},
	}
}

func TestQueryOrderingAndDistance(t *testing.T) {
	idx := openTestIndex(t, 3)
	if err := idx.Add(testPoints()); err != nil {
		t.Fatal(err)
	}

	matches, err := idx.Query([]float32{1, 0, 0}, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 4 {
		t.Fatalf("expected 4 matches, got %d", len(matches))
	}

	// Identical vector comes first with distance 0.
	if matches[0].ID != "chunk_1_0" {
		t.Errorf("expected chunk_1_0 first, got %s", matches[0].ID)
	}
	if matches[0].Distance > 1e-9 {
		t.Errorf("expected distance 0 for identical vector, got %f", matches[0].Distance)
	}

	// Ascending distance throughout.
	for i := 1; i < len(matches); i++ {
		if matches[i].Distance < matches[i-1].Distance {
			t.Errorf("distances not ascending at %d: %f < %f", i, matches[i].Distance, matches[i-1].Distance)
		}
	}

	// Distances stay in the cosine range [0,2].
	for _, m := range matches {
		if m.Distance < 0 || m.Distance > 2 {
			t.Errorf("distance out of range: %f", m.Distance)
		}
	}
}

func TestQueryTopK(t *testing.T) {
	idx := openTestIndex(t, 3)
	if err := idx.Add(testPoints()); err != nil {
		t.Fatal(err)
	}

	matches, err := idx.Query([]float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Errorf("expected 2 matches, got %d", len(matches))
	}
}

func TestQueryFilter(t *testing.T) {
	idx := openTestIndex(t, 3)
	if err := idx.Add(testPoints()); err != nil {
		t.Fatal(err)
	}

	matches, err := idx.Query([]float32{1, 0, 0}, 10, &port.Filter{DocumentIDs: []int64{2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range matches {
		if m.Meta.DocumentID == 1 {
			t.Errorf("filter leaked document 1: %s", m.ID)
		}
	}
	if len(matches) != 2 {
		t.Errorf("expected 2 filtered matches, got %d", len(matches))
	}
}

func TestAddDimensionMismatch(t *testing.T) {
	idx := openTestIndex(t, 3)

	err := idx.Add([]port.Point{{ID: "bad", Vector: []float32{1, 0}}})
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestAddReplacesExistingID(t *testing.T) {
	idx := openTestIndex(t, 3)

	if err := idx.Add([]port.Point{{ID: "chunk_1_0", Vector: []float32{1, 0, 0}, Text: "old", Meta: port.Metadata{DocumentID: 1}}}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add([]port.Point{{ID: "chunk_1_0", Vector: []float32{0, 1, 0}, Text: "new", Meta: port.Metadata{DocumentID: 1}}}); err != nil {
		t.Fatal(err)
	}

	count, err := idx.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 point after re-add, got %d", count)
	}

	points, err := idx.Get([]string{"chunk_1_0"}, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 1 || points[0].Text != "new" {
		t.Errorf("expected replaced point, got %+v", points)
	}
}

func TestGetByFilter(t *testing.T) {
	idx := openTestIndex(t, 3)
	if err := idx.Add(testPoints()); err != nil {
		t.Fatal(err)
	}

	points, err := idx.Get(nil, &port.Filter{DocumentIDs: []int64{1}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Errorf("expected 2 points for document 1, got %d", len(points))
	}
}

func TestDeleteByFilter(t *testing.T) {
	idx := openTestIndex(t, 3)
	if err := idx.Add(testPoints()); err != nil {
		t.Fatal(err)
	}

	if err := idx.Delete(nil, &port.Filter{DocumentIDs: []int64{1}}); err != nil {
		t.Fatal(err)
	}

	count, err := idx.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 points after delete, got %d", count)
	}

	points, err := idx.Get(nil, &port.Filter{DocumentIDs: []int64{1}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 0 {
		t.Errorf("expected no surviving vectors for document 1, got %d", len(points))
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.db")

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := NewBoltVectorIndex(db, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(testPoints()); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = bbolt.Open(path, 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	reopened, err := NewBoltVectorIndex(db, 3)
	if err != nil {
		t.Fatal(err)
	}
	count, err := reopened.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Errorf("expected 4 points after reopen, got %d", count)
	}
}
