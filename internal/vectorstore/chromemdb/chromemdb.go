// Package chromemdb backs the vector index with an in-memory chromem-go collection.
//
// chromem ranks by cosine similarity over normalized vectors, so the distance
// reported here is the squared L2 distance between the normalized query and
// chunk vectors (2 - 2*cos). Zero vectors have no direction and are rejected.
package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"ragnotes/internal/domain"
	"ragnotes/internal/vectorstore"
)

const collectionName = "chunks"

type Index struct {
	collection *chromem.Collection
	dimension  int
	count      int
}

// precomputedOnly is installed as the collection's embedding func; every
// document and query arrives with its vector already set.
func precomputedOnly(context.Context, string) ([]float32, error) {
	return nil, errors.New("chromem index only accepts precomputed embeddings")
}

func Build(ctx context.Context, vectors []domain.Embedding) (*Index, error) {
	dim, err := vectorstore.CheckDimensions(vectors)
	if err != nil {
		return nil, err
	}
	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, precomputedOnly)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	docs := make([]chromem.Document, len(vectors))
	for i, v := range vectors {
		unit, ok := normalize(v)
		if !ok {
			return nil, domain.NewInvalidArgument(fmt.Sprintf("vector %d has zero length", i))
		}
		docs[i] = chromem.Document{ID: strconv.Itoa(i), Embedding: unit}
	}
	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("add documents: %w", err)
		}
	}
	return &Index{collection: collection, dimension: dim, count: len(docs)}, nil
}

// Builder adapts Build to vectorstore.Builder.
func Builder() vectorstore.Builder {
	return func(ctx context.Context, vectors []domain.Embedding) (vectorstore.Index, error) {
		idx, err := Build(ctx, vectors)
		if err != nil {
			return nil, err
		}
		return idx, nil
	}
}

func (s *Index) Len() int       { return s.count }
func (s *Index) Dimension() int { return s.dimension }

func (s *Index) Search(ctx context.Context, query domain.Embedding, k int) ([]domain.Neighbor, error) {
	if err := vectorstore.CheckQuery(s.count, s.dimension, query, k); err != nil {
		return nil, err
	}
	unit, ok := normalize(query)
	if !ok {
		return nil, domain.NewInvalidArgument("query vector has zero length")
	}
	results, err := s.collection.QueryEmbedding(ctx, unit, min(k, s.count), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	out := make([]domain.Neighbor, 0, len(results))
	for _, r := range results {
		i, err := strconv.Atoi(r.ID)
		if err != nil {
			return nil, fmt.Errorf("unexpected document id %q", r.ID)
		}
		out = append(out, domain.Neighbor{Index: i, Distance: float32(math.Max(0, 2-2*float64(r.Similarity)))})
	}
	vectorstore.SortNeighbors(out)
	return out, nil
}

func normalize(v domain.Embedding) ([]float32, bool) {
	norm := 0.0
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return nil, false
	}
	norm = math.Sqrt(norm)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, true
}
