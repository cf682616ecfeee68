package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"ragnotes/internal/domain"
	"ragnotes/internal/vectorstore"
)

// Index keeps one document's vectors in its own Qdrant collection using
// Euclid distance. Collections are named after the configured prefix plus a
// random suffix, so building never touches the collection of a live index.
type Index struct {
	c          *client
	collection string
	dimension  int
	count      int
}

// Config locates the server. Collection is the prefix of the collections
// created per build.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

type client struct {
	url    string
	apiKey string
	http   *http.Client
}

func newClient(cfg Config) *client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &client{
		url:    strings.TrimRight(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: timeout},
	}
}

// Build uploads vectors into a new collection with point id i for vector i.
// An empty set gives an empty index without touching the server. On failure
// the new collection is dropped.
func Build(ctx context.Context, cfg Config, vectors []domain.Embedding) (*Index, error) {
	dim, err := vectorstore.CheckDimensions(vectors)
	if err != nil {
		return nil, err
	}
	c := newClient(cfg)
	if len(vectors) == 0 {
		return &Index{c: c}, nil
	}

	prefix := cfg.Collection
	if prefix == "" {
		prefix = "ragnotes"
	}
	idx := &Index{c: c, collection: prefix + "-" + uuid.NewString(), dimension: dim, count: len(vectors)}

	schema := map[string]any{
		"vectors": map[string]any{"size": dim, "distance": "Euclid"},
	}
	if _, err := c.do(ctx, http.MethodPut, idx.collectionURL(), schema); err != nil {
		return nil, err
	}
	points := make([]map[string]any, len(vectors))
	for i, v := range vectors {
		points[i] = map[string]any{"id": i, "vector": v}
	}
	if _, err := c.do(ctx, http.MethodPut, idx.collectionURL()+"/points?wait=true", map[string]any{"points": points}); err != nil {
		_ = idx.Release(context.WithoutCancel(ctx))
		return nil, err
	}
	return idx, nil
}

// Release drops the collection. Searching afterwards fails.
func (s *Index) Release(ctx context.Context) error {
	if s.collection == "" {
		return nil
	}
	_, err := s.c.do(ctx, http.MethodDelete, s.collectionURL(), nil, http.StatusNotFound)
	return err
}

// Builder adapts Build to vectorstore.Builder.
func Builder(cfg Config) vectorstore.Builder {
	return func(ctx context.Context, vectors []domain.Embedding) (vectorstore.Index, error) {
		idx, err := Build(ctx, cfg, vectors)
		if err != nil {
			return nil, err
		}
		return idx, nil
	}
}

func (s *Index) Len() int       { return s.count }
func (s *Index) Dimension() int { return s.dimension }

// Search asks Qdrant for the nearest points. Qdrant reports plain Euclid
// distance, which is squared here so all backends rank on the same scale.
func (s *Index) Search(ctx context.Context, query domain.Embedding, k int) ([]domain.Neighbor, error) {
	if err := vectorstore.CheckQuery(s.count, s.dimension, query, k); err != nil {
		return nil, err
	}
	req := map[string]any{
		"vector": query,
		"limit":  min(k, s.count),
	}
	body, err := s.c.do(ctx, http.MethodPost, s.collectionURL()+"/points/search", req)
	if err != nil {
		return nil, err
	}
	result := gjson.GetBytes(body, "result")
	if !result.IsArray() {
		return nil, fmt.Errorf("qdrant search: response has no result array")
	}
	var out []domain.Neighbor
	for _, r := range result.Array() {
		d := r.Get("score").Float()
		out = append(out, domain.Neighbor{Index: int(r.Get("id").Int()), Distance: float32(d * d)})
	}
	vectorstore.SortNeighbors(out)
	return out, nil
}

func (s *Index) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.c.url, s.collection)
}

// do sends body as JSON and returns the response body. Statuses >= 300 are
// errors unless listed in allow.
func (c *client) do(ctx context.Context, method, url string, body any, allow ...int) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		for _, code := range allow {
			if resp.StatusCode == code {
				return data, nil
			}
		}
		return nil, fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	return data, nil
}
