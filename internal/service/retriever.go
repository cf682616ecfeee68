package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"ragnotes/internal/domain"
	"ragnotes/internal/embedding"
	"ragnotes/internal/vectorstore"
)

// LoadResult describes the index built for a document.
type LoadResult struct {
	DocumentID string
	Chunks     int
	Dimension  int
}

// Retriever owns the chunks and index of the currently loaded document,
// together with the embedder that produced the index.
type Retriever struct {
	chunker  domain.Chunker
	embedder *embedding.Embedder
	build    vectorstore.Builder
	log      zerolog.Logger

	mu       sync.RWMutex
	chunks   []domain.Chunk
	index    vectorstore.Index
	embedded *embedding.Embedder
}

func NewRetriever(chunker domain.Chunker, embedder *embedding.Embedder, build vectorstore.Builder, log zerolog.Logger) *Retriever {
	return &Retriever{chunker: chunker, embedder: embedder, build: build, log: log}
}

// Load chunks, embeds and indexes doc, replacing the previous document.
// On error the previous document stays loaded.
func (r *Retriever) Load(ctx context.Context, doc domain.Document) (LoadResult, error) {
	chunks, err := r.chunker.Chunk(doc)
	if err != nil {
		return LoadResult{}, fmt.Errorf("chunk document: %w", err)
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	emb := r.embedder
	var vectors []domain.Embedding
	if len(texts) > 0 {
		emb, err = r.embedder.Prepare(texts)
		if err != nil {
			return LoadResult{}, err
		}
		vectors, err = emb.Embed(ctx, texts)
		if err != nil {
			return LoadResult{}, err
		}
	}
	index, err := r.build(ctx, vectors)
	if err != nil {
		return LoadResult{}, fmt.Errorf("build index: %w", err)
	}

	r.mu.Lock()
	previous := r.index
	r.chunks, r.index, r.embedded = chunks, index, emb
	r.mu.Unlock()
	if err := vectorstore.Release(ctx, previous); err != nil {
		r.log.Warn().Err(err).Msg("release previous index")
	}

	r.log.Info().
		Str("document", doc.ID).
		Int("chunks", len(chunks)).
		Int("dimension", index.Dimension()).
		Str("embedder", r.embedder.Name()).
		Msg("document indexed")
	return LoadResult{DocumentID: doc.ID, Chunks: len(chunks), Dimension: index.Dimension()}, nil
}

// Search returns the k chunks nearest to query, closest first.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]domain.Hit, error) {
	r.mu.RLock()
	chunks, index, emb := r.chunks, r.index, r.embedded
	r.mu.RUnlock()
	if index == nil {
		return nil, domain.NewEmptyIndex("no document loaded")
	}
	if index.Len() == 0 {
		return nil, domain.NewEmptyIndex("loaded document has no chunks")
	}

	q, err := emb.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	neighbors, err := index.Search(ctx, q, k)
	if err != nil {
		return nil, err
	}
	hits := make([]domain.Hit, len(neighbors))
	for i, n := range neighbors {
		hits[i] = domain.Hit{Chunk: chunks[n.Index], Distance: n.Distance}
	}
	r.log.Debug().Int("k", k).Int("hits", len(hits)).Msg("retrieved chunks")
	return hits, nil
}

// Retrieve returns the texts of the k chunks nearest to query, closest first.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	hits, err := r.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return HitTexts(hits), nil
}

// Chunks returns the chunks of the loaded document.
func (r *Retriever) Chunks() []domain.Chunk {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Chunk(nil), r.chunks...)
}

func HitTexts(hits []domain.Hit) []string {
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Chunk.Text
	}
	return texts
}
