package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragnotes/internal/domain"
)

// lengthModel encodes each text as [len(text), position in batch].
type lengthModel struct {
	calls   [][]string
	err     error
	dropOne bool
}

func (m *lengthModel) Name() string { return "length" }

func (m *lengthModel) Encode(_ context.Context, texts []string) ([][]float32, error) {
	m.calls = append(m.calls, append([]string(nil), texts...))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, 0, len(texts))
	for i, t := range texts {
		out = append(out, []float32{float32(len(t)), float32(i)})
	}
	if m.dropOne {
		out = out[:len(out)-1]
	}
	return out, nil
}

// fittedModel encodes every text as [len(corpus)] of the corpus it was fitted on.
type fittedModel struct {
	lengthModel
	corpus []string
	err    error
}

func (m *fittedModel) Fit(corpus []string) (Model, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &fittedModel{corpus: corpus}, nil
}

func (m *fittedModel) Encode(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(m.corpus))}
	}
	return out, nil
}

func TestEmbedPreservesOrderAndCount(t *testing.T) {
	m := &lengthModel{}
	e := New(m)

	texts := []string{"a", "bbb", "cc"}
	vectors, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, v := range vectors {
		assert.Equal(t, float32(len(texts[i])), v[0])
	}
	assert.Len(t, m.calls, 1, "all chunks go in one call without a batch size")
}

func TestEmbedBatches(t *testing.T) {
	m := &lengthModel{}
	e := New(m, WithBatchSize(2))

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 5)
	assert.Equal(t, [][]string{{"a", "bb"}, {"ccc", "dddd"}, {"eeeee"}}, m.calls)
	for i, v := range vectors {
		assert.Equal(t, float32(i+1), v[0])
	}
}

func TestEmbedIsDeterministic(t *testing.T) {
	e := New(&lengthModel{})
	texts := []string{"x", "yy"}
	first, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmbedFailures(t *testing.T) {
	tests := []struct {
		name  string
		model *lengthModel
	}{
		{name: "model error", model: &lengthModel{err: errors.New("model unavailable")}},
		{name: "wrong count", model: &lengthModel{dropOne: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.model)
			vectors, err := e.Embed(context.Background(), []string{"a", "b"})
			assert.Nil(t, vectors)
			assert.True(t, domain.IsEmbeddingFailure(err), fmt.Sprint(err))
			assert.Len(t, tt.model.calls, 1, "failures are not retried")
		})
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	m := &lengthModel{}
	vectors, err := New(m).Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, m.calls)
}

func TestEmbedQuery(t *testing.T) {
	m := &lengthModel{}
	v, err := New(m).EmbedQuery(context.Background(), "four")
	require.NoError(t, err)
	assert.Equal(t, domain.Embedding{4, 0}, v)
	assert.Len(t, m.calls, 1)
}

func TestPrepare(t *testing.T) {
	t.Run("fits a copy", func(t *testing.T) {
		base := New(&fittedModel{}, WithBatchSize(1))
		prepared, err := base.Prepare([]string{"a", "b"})
		require.NoError(t, err)
		assert.NotSame(t, base, prepared)
		assert.Equal(t, 1, prepared.batchSize)

		v, err := prepared.EmbedQuery(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, domain.Embedding{2}, v)

		v, err = base.EmbedQuery(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, domain.Embedding{0}, v)
	})
	t.Run("failure is an embedding failure", func(t *testing.T) {
		_, err := New(&fittedModel{err: errors.New("no tokens")}).Prepare([]string{"1"})
		assert.True(t, domain.IsEmbeddingFailure(err))
	})
	t.Run("pretrained models are returned as is", func(t *testing.T) {
		base := New(&lengthModel{})
		prepared, err := base.Prepare(nil)
		require.NoError(t, err)
		assert.Same(t, base, prepared)
	})
}

func TestRateLimitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(&lengthModel{}, WithRateLimit(0.001))
	_, err := e.Embed(ctx, []string{"a"})
	assert.True(t, domain.IsEmbeddingFailure(err))
}
