package embedding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"ragnotes/internal/domain"
)

// Model converts a batch of texts into vectors, one per text, in input order.
type Model interface {
	Name() string
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// Fitter is implemented by models that must see the corpus before encoding.
// Fit returns a new fitted model and leaves the receiver as it was.
type Fitter interface {
	Fit(corpus []string) (Model, error)
}

// Embedder enforces the batching contract around a Model: chunks are sent in
// batches (all at once unless a batch size is set), the result count and order
// are checked, and every failure becomes an embedding failure. Nothing is retried.
type Embedder struct {
	model     Model
	batchSize int
	limiter   *rate.Limiter
	log       zerolog.Logger
}

type Option func(*Embedder)

// WithBatchSize caps how many texts go into one model call. Zero or less means one call for everything.
func WithBatchSize(n int) Option {
	return func(e *Embedder) { e.batchSize = n }
}

// WithRateLimit paces model calls to at most rps per second.
func WithRateLimit(rps float64) Option {
	return func(e *Embedder) {
		if rps > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Embedder) { e.log = log }
}

func New(model Model, opts ...Option) *Embedder {
	e := &Embedder{model: model, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Embedder) Name() string { return e.model.Name() }

// Prepare returns an Embedder for corpus. Corpus-dependent models are fitted
// into a copy with the same options; pretrained models return e itself.
func (e *Embedder) Prepare(corpus []string) (*Embedder, error) {
	f, ok := e.model.(Fitter)
	if !ok {
		return e, nil
	}
	fitted, err := f.Fit(corpus)
	if err != nil {
		return nil, domain.NewEmbeddingFailure(fmt.Sprintf("fit %s", e.model.Name()), err)
	}
	prepared := *e
	prepared.model = fitted
	return &prepared, nil
}

// Embed returns one vector per text, in the same order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	out := make([]domain.Embedding, 0, len(texts))
	if len(texts) == 0 {
		return out, nil
	}
	size := e.batchSize
	if size <= 0 || size > len(texts) {
		size = len(texts)
	}
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, domain.NewEmbeddingFailure("waiting for rate limiter", err)
			}
		}
		vectors, err := e.model.Encode(ctx, texts[start:end])
		if err != nil {
			return nil, domain.NewEmbeddingFailure(fmt.Sprintf("%s: encode texts %d-%d", e.model.Name(), start, end-1), err)
		}
		if len(vectors) != end-start {
			return nil, domain.NewEmbeddingFailure(
				fmt.Sprintf("%s returned %d vectors for %d texts", e.model.Name(), len(vectors), end-start), nil)
		}
		for i, v := range vectors {
			if len(v) == 0 {
				return nil, domain.NewEmbeddingFailure(fmt.Sprintf("%s returned an empty vector for text %d", e.model.Name(), start+i), nil)
			}
			out = append(out, domain.Embedding(v))
		}
		e.log.Debug().Str("model", e.model.Name()).Int("from", start).Int("to", end-1).Msg("encoded batch")
	}
	return out, nil
}

// EmbedQuery embeds a single query text with one model call.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) (domain.Embedding, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
