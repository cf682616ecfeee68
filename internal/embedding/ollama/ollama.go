package ollama

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
)

// Config selects the Ollama server and embedding model.
type Config struct {
	BaseURL string
	Model   string
}

// Model embeds texts through a local Ollama server.
type Model struct {
	llm   *ollama.LLM
	model string
}

func New(cfg Config) (*Model, error) {
	if cfg.Model == "" {
		cfg.Model = "all-minilm"
	}
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder: %w", err)
	}
	return &Model{llm: llm, model: cfg.Model}, nil
}

func (m *Model) Name() string { return "ollama:" + m.model }

func (m *Model) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	return m.llm.CreateEmbedding(ctx, texts)
}
