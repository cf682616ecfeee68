package vectorstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"ragnotes/internal/domain"
)

// Index is an immutable nearest-neighbour index over one document's chunk
// vectors. Vector i belongs to chunk i.
type Index interface {
	Len() int
	Dimension() int
	// Search returns min(k, Len()) neighbours ordered by ascending squared
	// L2 distance, ties broken by lower index.
	Search(ctx context.Context, query domain.Embedding, k int) ([]domain.Neighbor, error)
}

// Releaser is implemented by indexes that hold resources outside the process.
type Releaser interface {
	Release(ctx context.Context) error
}

// Release frees idx if it is a Releaser. A nil idx is fine.
func Release(ctx context.Context, idx Index) error {
	if r, ok := idx.(Releaser); ok {
		return r.Release(ctx)
	}
	return nil
}

// Builder constructs an Index from a complete set of vectors.
type Builder func(ctx context.Context, vectors []domain.Embedding) (Index, error)

// CheckDimensions returns the dimension shared by all vectors, taken from the
// first one. It returns 0 for an empty set.
func CheckDimensions(vectors []domain.Embedding) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, domain.NewInvalidArgument("vector 0 is empty")
	}
	for i, v := range vectors[1:] {
		if len(v) != dim {
			return 0, domain.NewDimensionMismatch(dim, len(v)).WithDetail("vector", i+1)
		}
	}
	return dim, nil
}

// CheckQuery validates a search against an index of n vectors of dimension dim.
func CheckQuery(n, dim int, query domain.Embedding, k int) error {
	if k <= 0 {
		return domain.NewInvalidArgument(fmt.Sprintf("k must be positive, got %d", k))
	}
	if n == 0 {
		return domain.NewEmptyIndex("no vectors to search")
	}
	if len(query) != dim {
		return domain.NewDimensionMismatch(dim, len(query))
	}
	return nil
}

// SortNeighbors orders by distance, then by index.
func SortNeighbors(ns []domain.Neighbor) {
	slices.SortFunc(ns, func(a, b domain.Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
}
