package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragnotes/internal/domain"
)

func vectors() []domain.Embedding {
	return []domain.Embedding{
		{0, 0},
		{1, 0},
		{0, 2},
		{3, 3},
	}
}

func TestSearchOrdersByDistance(t *testing.T) {
	idx, err := Build(vectors())
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, 2, idx.Dimension())

	got, err := idx.Search(context.Background(), domain.Embedding{1, 0.1}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Index)
	assert.InDelta(t, 0.01, got[0].Distance, 1e-6)
	assert.Equal(t, 0, got[1].Index)
	assert.InDelta(t, 1.01, got[1].Distance, 1e-6)
	assert.Equal(t, 2, got[2].Index)
	assert.InDelta(t, 4.61, got[2].Distance, 1e-5)
}

func TestSearchCapsAtSize(t *testing.T) {
	idx, err := Build(vectors())
	require.NoError(t, err)

	for _, k := range []int{1, 4, 10} {
		got, err := idx.Search(context.Background(), domain.Embedding{0.5, 0.5}, k)
		require.NoError(t, err)
		assert.Len(t, got, min(k, 4))
		for i := range got {
			assert.GreaterOrEqual(t, got[i].Distance, float32(0))
			if i > 0 {
				assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
			}
		}
	}
}

func TestSearchTiesByIndex(t *testing.T) {
	idx, err := Build([]domain.Embedding{{1, 0}, {0, 1}, {-1, 0}, {0, -1}})
	require.NoError(t, err)

	got, err := idx.Search(context.Background(), domain.Embedding{0, 0}, 4)
	require.NoError(t, err)
	for i, n := range got {
		assert.Equal(t, i, n.Index)
		assert.Equal(t, float32(1), n.Distance)
	}
}

func TestBuildDimensionMismatch(t *testing.T) {
	_, err := Build([]domain.Embedding{{1, 2}, {1, 2, 3}})
	assert.True(t, domain.IsDimensionMismatch(err))
}

func TestSearchErrors(t *testing.T) {
	idx, err := Build(vectors())
	require.NoError(t, err)

	_, err = idx.Search(context.Background(), domain.Embedding{1, 2, 3}, 1)
	assert.True(t, domain.IsDimensionMismatch(err))

	_, err = idx.Search(context.Background(), domain.Embedding{1, 2}, 0)
	assert.True(t, domain.IsInvalidArgument(err))

	empty, err := Build(nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
	_, err = empty.Search(context.Background(), domain.Embedding{1}, 3)
	assert.True(t, domain.IsEmptyIndex(err))
}

func TestBuildCopiesInput(t *testing.T) {
	in := vectors()
	idx, err := Build(in)
	require.NoError(t, err)
	in[1][0] = 100

	got, err := idx.Search(context.Background(), domain.Embedding{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got[0].Index)
	assert.Zero(t, got[0].Distance)
}

func TestBuilder(t *testing.T) {
	idx, err := Builder()(context.Background(), vectors())
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())

	idx, err = Builder()(context.Background(), []domain.Embedding{{1}, {1, 1}})
	assert.Nil(t, idx)
	assert.Error(t, err)
}
