package tfidf

import (
	"context"
	"errors"
	"math"
	"sort"

	"ragnotes/internal/embedding"
	"ragnotes/internal/textutil"
)

// Model is a TF-IDF vectorizer. A fitted Model is never modified; Fit returns
// a new one. Vectors are L2-normalized and a text without known terms maps to
// the zero vector.
type Model struct {
	vocabulary map[string]int
	idf        []float32
}

// New returns an unfitted model. It must be fitted before encoding.
func New() *Model { return &Model{} }

func (m *Model) Name() string { return "tfidf" }

// Fit builds a vocabulary and IDF values from corpus and returns them as a new
// model. A corpus without any terms gives a one-dimensional model whose
// vectors are all zero.
func (m *Model) Fit(corpus []string) (embedding.Model, error) {
	if len(corpus) == 0 {
		return nil, errors.New("empty corpus for TF-IDF fit")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range textutil.Terms(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	fitted := &Model{vocabulary: make(map[string]int, len(terms))}
	if len(terms) == 0 {
		fitted.idf = []float32{0}
		return fitted, nil
	}
	fitted.idf = make([]float32, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		fitted.vocabulary[term] = i
		// smoothed
		fitted.idf[i] = float32(math.Log((1+n)/(1+float64(df[term]))) + 1.0)
	}
	return fitted, nil
}

func (m *Model) Dimension() int { return len(m.idf) }

func (m *Model) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if m.vocabulary == nil {
		return nil, errors.New("tfidf model not fitted")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *Model) vector(text string) []float32 {
	vec := make([]float32, len(m.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range textutil.Terms(text) {
		if idx, ok := m.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}
	norm := 0.0
	for idx, count := range tf {
		v := float64(count) / float64(total) * float64(m.idf[idx])
		vec[idx] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for idx := range tf {
		vec[idx] = float32(float64(vec[idx]) / norm)
	}
	return vec
}
