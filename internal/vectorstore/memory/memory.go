package memory

import (
	"context"

	"ragnotes/internal/domain"
	"ragnotes/internal/vectorstore"
)

// Index is a flat in-memory index searched exhaustively by squared L2 distance.
type Index struct {
	dimension int
	vectors   []domain.Embedding
}

// Build stores a copy of vectors. Zero vectors give an empty index.
func Build(vectors []domain.Embedding) (*Index, error) {
	dim, err := vectorstore.CheckDimensions(vectors)
	if err != nil {
		return nil, err
	}
	stored := make([]domain.Embedding, len(vectors))
	for i, v := range vectors {
		stored[i] = append(domain.Embedding(nil), v...)
	}
	return &Index{dimension: dim, vectors: stored}, nil
}

// Builder adapts Build to vectorstore.Builder.
func Builder() vectorstore.Builder {
	return func(_ context.Context, vectors []domain.Embedding) (vectorstore.Index, error) {
		idx, err := Build(vectors)
		if err != nil {
			return nil, err
		}
		return idx, nil
	}
}

func (s *Index) Len() int       { return len(s.vectors) }
func (s *Index) Dimension() int { return s.dimension }

func (s *Index) Search(ctx context.Context, query domain.Embedding, k int) ([]domain.Neighbor, error) {
	if err := vectorstore.CheckQuery(len(s.vectors), s.dimension, query, k); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := make([]domain.Neighbor, len(s.vectors))
	for i, v := range s.vectors {
		all[i] = domain.Neighbor{Index: i, Distance: squaredL2(v, query)}
	}
	vectorstore.SortNeighbors(all)
	return all[:min(k, len(all))], nil
}

func squaredL2(a, b []float32) float32 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}
