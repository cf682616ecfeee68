package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ragnotes/internal/answer"
	"ragnotes/internal/chunker"
	"ragnotes/internal/completion"
	"ragnotes/internal/config"
	"ragnotes/internal/domain"
	"ragnotes/internal/embedding"
	"ragnotes/internal/embedding/ollama"
	"ragnotes/internal/embedding/openai"
	"ragnotes/internal/embedding/tfidf"
	"ragnotes/internal/service"
	"ragnotes/internal/session"
	"ragnotes/internal/summarizer"
	"ragnotes/internal/vectorstore"
	"ragnotes/internal/vectorstore/chromemdb"
	"ragnotes/internal/vectorstore/memory"
	"ragnotes/internal/vectorstore/qdrant"
)

func newEmbedder(cfg config.EmbedderConfig, log zerolog.Logger) (*embedding.Embedder, error) {
	var model embedding.Model
	switch cfg.Type {
	case "tfidf":
		model = tfidf.New()
	case "ollama", "":
		var oc config.OllamaEmbedderConfig
		if cfg.Ollama != nil {
			oc = *cfg.Ollama
		}
		m, err := ollama.New(ollama.Config{BaseURL: oc.BaseURL, Model: oc.Model})
		if err != nil {
			return nil, err
		}
		model = m
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		model = client
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}

	opts := []embedding.Option{embedding.WithLogger(log)}
	if cfg.BatchSize > 0 {
		opts = append(opts, embedding.WithBatchSize(cfg.BatchSize))
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, embedding.WithRateLimit(cfg.RequestsPerSecond))
	}
	return embedding.New(model, opts...), nil
}

func newChunker(cfg config.ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "fixed", "":
		return chunker.NewFixedSize(cfg.ChunkSize)
	case "sentence":
		return chunker.NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Type)
	}
}

func newIndexBuilder(cfg config.IndexConfig) (vectorstore.Builder, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.Builder(), nil
	case "chromem":
		return chromemdb.Builder(), nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.Builder(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown index: %s", cfg.Type)
	}
}

func newSummarizer(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	switch cfg.Type {
	case "frequency", "":
		return summarizer.NewFrequencySummarizer(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Type)
	}
}

// newSession assembles the whole pipeline described by cfg.
func newSession(cfg *config.AppConfig, log zerolog.Logger) (*session.Session, error) {
	emb, err := newEmbedder(cfg.Embedder, log.With().Str("component", "embedder").Logger())
	if err != nil {
		return nil, err
	}
	ch, err := newChunker(cfg.Chunker)
	if err != nil {
		return nil, err
	}
	build, err := newIndexBuilder(cfg.Index)
	if err != nil {
		return nil, err
	}
	sum, err := newSummarizer(cfg.Summarizer)
	if err != nil {
		return nil, err
	}

	llm := completion.NewClient(completion.Config{
		BaseURL: cfg.Completion.BaseURL,
		Model:   cfg.Completion.Model,
		Timeout: time.Duration(cfg.Completion.TimeoutSecs) * time.Second,
	})
	log.Debug().
		Str("embedder", emb.Name()).
		Str("index", cfg.Index.Type).
		Str("model", llm.Model()).
		Msg("pipeline assembled")

	retriever := service.NewRetriever(ch, emb, build, log.With().Str("component", "retriever").Logger())
	synth := answer.NewSynthesizer(llm, log.With().Str("component", "answer").Logger())
	return session.New(retriever, synth, session.Options{
		TopK:             cfg.Retrieval.TopK,
		Summarizer:       sum,
		SummarySentences: cfg.Summarizer.MaxSentences,
		Logger:           log.With().Str("component", "session").Logger(),
	})
}
