package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fit(t *testing.T, corpus ...string) *Model {
	t.Helper()
	fitted, err := New().Fit(corpus)
	require.NoError(t, err)
	m, ok := fitted.(*Model)
	require.True(t, ok)
	return m
}

func TestEncodeBeforeFit(t *testing.T) {
	_, err := New().Encode(context.Background(), []string{"hello"})
	assert.Error(t, err)
}

func TestFitRejectsEmptyCorpus(t *testing.T) {
	_, err := New().Fit(nil)
	assert.Error(t, err)
}

func TestFitKeepsNumbers(t *testing.T) {
	m := fit(t, "2024-01-15 12:30 450.00")
	assert.Equal(t, 7, m.Dimension())

	v, err := m.Encode(context.Background(), []string{"450.00", "2024"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, norm(v[0]), 1e-5)
	assert.InDelta(t, 1.0, norm(v[1]), 1e-5)
}

func TestFitWithoutTerms(t *testing.T) {
	m := fit(t, "the and of", "... !!!")
	assert.Equal(t, 1, m.Dimension())

	v, err := m.Encode(context.Background(), []string{"anything at all"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0}}, v)
}

func TestFitLeavesReceiverUnchanged(t *testing.T) {
	first := fit(t, "apple banana", "carrot daikon")
	before, err := first.Encode(context.Background(), []string{"banana"})
	require.NoError(t, err)

	second, err := first.Fit([]string{"zebra lion"})
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	after, err := first.Encode(context.Background(), []string{"banana"})
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 4, first.Dimension())
}

func TestEncode(t *testing.T) {
	corpus := []string{"Cats chase mice.", "Dogs chase cats.", "Birds sing songs."}
	m := fit(t, corpus...)
	// birds, cats, chase, dogs, mice, sing, songs
	assert.Equal(t, 7, m.Dimension())

	vectors, err := m.Encode(context.Background(), append(corpus, "unknown words only"))
	require.NoError(t, err)
	require.Len(t, vectors, 4)

	for _, v := range vectors[:3] {
		assert.Len(t, v, 7)
		assert.InDelta(t, 1.0, norm(v), 1e-5)
	}
	assert.Zero(t, norm(vectors[3]))

	again, err := m.Encode(context.Background(), corpus)
	require.NoError(t, err)
	assert.Equal(t, vectors[:3], again)
}

func TestEncodeRanksSharedTermsCloser(t *testing.T) {
	m := fit(t, "apple banana", "carrot daikon")
	v, err := m.Encode(context.Background(), []string{"apple banana", "carrot daikon", "banana"})
	require.NoError(t, err)

	assert.Less(t, sqDist(v[2], v[0]), sqDist(v[2], v[1]))
}

func norm(v []float32) float64 {
	s := 0.0
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func sqDist(a, b []float32) float64 {
	s := 0.0
	for i := range a {
		d := float64(a[i] - b[i])
		s += d * d
	}
	return s
}
