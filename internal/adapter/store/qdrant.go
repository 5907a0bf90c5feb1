package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"argus/internal/domain"
	"argus/internal/port"
)

// QdrantIndex is a minimal REST client to Qdrant implementing
// port.VectorIndex. It assumes cosine distance and creates the
// collection if missing.
type QdrantIndex struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewQdrantIndex(cfg QdrantConfig) *QdrantIndex {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "documents"
	}
	return &QdrantIndex{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection if it does not exist.
func (s *QdrantIndex) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 200 OK if the collection already exists with the
	// same schema; a real conflict propagates.
	return s.do(http.MethodPut, fmt.Sprintf("/collections/%s", s.collection), body, nil)
}

// pointID maps our chunk id scheme onto a Qdrant-accepted UUID. The
// mapping is deterministic so re-ingestion stays idempotent.
func pointID(id string) string {
	sum := sha256.Sum256([]byte(id))
	h := hex.EncodeToString(sum[:16])
	return fmt.Sprintf("%s-%s-%s-%s-%s", h[0:8], h[8:12], h[12:16], h[16:20], h[20:32])
}

type qdrantPayload struct {
	ChunkID    string `json:"chunk_id"`
	Text       string `json:"text"`
	DocumentID int64  `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
}

func filterBody(filter *port.Filter) map[string]any {
	if filter == nil || len(filter.DocumentIDs) == 0 {
		return nil
	}
	return map[string]any{
		"must": []map[string]any{
			{
				"key":   "document_id",
				"match": map[string]any{"any": filter.DocumentIDs},
			},
		},
	}
}

func (s *QdrantIndex) Add(points []port.Point) error {
	if len(points) == 0 {
		return nil
	}

	qpoints := make([]map[string]any, len(points))
	for i, p := range points {
		if s.dimension > 0 && len(p.Vector) != s.dimension {
			return &domain.IndexError{
				Op:  "add",
				Err: fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(p.Vector)),
			}
		}
		qpoints[i] = map[string]any{
			"id":     pointID(p.ID),
			"vector": p.Vector,
			"payload": qdrantPayload{
				ChunkID:    p.ID,
				Text:       p.Text,
				DocumentID: p.Meta.DocumentID,
				ChunkIndex: p.Meta.ChunkIndex,
			},
		}
	}

	body := map[string]any{"points": qpoints}
	err := s.do(http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", s.collection), body, nil)
	if err != nil {
		return &domain.IndexError{Op: "add", Err: err}
	}
	return nil
}

func (s *QdrantIndex) Query(vector []float32, k int, filter *port.Filter) ([]port.Match, error) {
	if k <= 0 {
		k = 10
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if f := filterBody(filter); f != nil {
		req["filter"] = f
	}

	var resp struct {
		Result []struct {
			Score   float64       `json:"score"`
			Payload qdrantPayload `json:"payload"`
		} `json:"result"`
	}
	err := s.do(http.MethodPost, fmt.Sprintf("/collections/%s/points/search", s.collection), req, &resp)
	if err != nil {
		return nil, &domain.IndexError{Op: "query", Err: err}
	}

	matches := make([]port.Match, len(resp.Result))
	for i, r := range resp.Result {
		// Qdrant reports cosine similarity; convert to the system-wide
		// cosine distance convention.
		matches[i] = port.Match{
			ID:       r.Payload.ChunkID,
			Text:     r.Payload.Text,
			Meta:     port.Metadata{DocumentID: r.Payload.DocumentID, ChunkIndex: r.Payload.ChunkIndex},
			Distance: 1 - r.Score,
		}
	}
	return matches, nil
}

func (s *QdrantIndex) Get(ids []string, filter *port.Filter, limit int) ([]port.Point, error) {
	type qdrantRecord struct {
		Vector  []float32     `json:"vector"`
		Payload qdrantPayload `json:"payload"`
	}

	var records []qdrantRecord

	if len(ids) > 0 {
		qids := make([]string, len(ids))
		for i, id := range ids {
			qids[i] = pointID(id)
		}
		req := map[string]any{
			"ids":          qids,
			"with_payload": true,
			"with_vector":  true,
		}
		var resp struct {
			Result []qdrantRecord `json:"result"`
		}
		err := s.do(http.MethodPost, fmt.Sprintf("/collections/%s/points", s.collection), req, &resp)
		if err != nil {
			return nil, &domain.IndexError{Op: "get", Err: err}
		}
		records = resp.Result
	} else {
		if limit <= 0 {
			limit = 10000
		}
		req := map[string]any{
			"limit":        limit,
			"with_payload": true,
			"with_vector":  true,
		}
		if f := filterBody(filter); f != nil {
			req["filter"] = f
		}
		var resp struct {
			Result struct {
				Points []qdrantRecord `json:"points"`
			} `json:"result"`
		}
		err := s.do(http.MethodPost, fmt.Sprintf("/collections/%s/points/scroll", s.collection), req, &resp)
		if err != nil {
			return nil, &domain.IndexError{Op: "get", Err: err}
		}
		records = resp.Result.Points
	}

	var out []port.Point
	for _, r := range records {
		if !filter.Matches(r.Payload.DocumentID) {
			continue
		}
		out = append(out, port.Point{
			ID:     r.Payload.ChunkID,
			Vector: r.Vector,
			Text:   r.Payload.Text,
			Meta:   port.Metadata{DocumentID: r.Payload.DocumentID, ChunkIndex: r.Payload.ChunkIndex},
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *QdrantIndex) Delete(ids []string, filter *port.Filter) error {
	var req map[string]any

	switch {
	case len(ids) > 0:
		qids := make([]string, len(ids))
		for i, id := range ids {
			qids[i] = pointID(id)
		}
		req = map[string]any{"points": qids}
	case filter != nil && len(filter.DocumentIDs) > 0:
		req = map[string]any{"filter": filterBody(filter)}
	default:
		return nil
	}

	err := s.do(http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", s.collection), req, nil)
	if err != nil {
		return &domain.IndexError{Op: "delete", Err: err}
	}
	return nil
}

func (s *QdrantIndex) Count() (int, error) {
	req := map[string]any{"exact": true}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.do(http.MethodPost, fmt.Sprintf("/collections/%s/points/count", s.collection), req, &resp)
	if err != nil {
		return 0, &domain.IndexError{Op: "count", Err: err}
	}
	return resp.Result.Count, nil
}

func (s *QdrantIndex) do(method, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(method, s.url+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("qdrant %s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}
