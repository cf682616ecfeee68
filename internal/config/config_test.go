package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvOllamaHost, "")
	t.Setenv(EnvModel, "")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.Completion.BaseURL)
	assert.Equal(t, "llama3.2:1b", cfg.Completion.Model)
	assert.Equal(t, "fixed", cfg.Chunker.Type)
	assert.Equal(t, 500, cfg.Chunker.ChunkSize)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, "ollama", cfg.Embedder.Type)
	require.NotNil(t, cfg.Embedder.Ollama)
	assert.Equal(t, "all-minilm", cfg.Embedder.Ollama.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Embedder.Ollama.BaseURL)
	assert.Equal(t, "memory", cfg.Index.Type)
	assert.Equal(t, "chat_history.json", cfg.History.ExportPath)
}

func TestLoadFileWithDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
chunker:
  chunk_size: 200
embedder:
  type: ollama
retrieval:
  top_k: 5
completion:
  base_url: http://gpu-box:11434
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Chunker.ChunkSize)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	require.NotNil(t, cfg.Embedder.Ollama)
	assert.Equal(t, "all-minilm", cfg.Embedder.Ollama.Model)
	assert.Equal(t, "http://gpu-box:11434", cfg.Embedder.Ollama.BaseURL)
	assert.Equal(t, "llama3.2:1b", cfg.Completion.Model)
}

func TestQdrantIndexDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "index:\n  type: qdrant\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Index.Qdrant)
	assert.Equal(t, "http://localhost:6333", cfg.Index.Qdrant.URL)
	assert.Equal(t, "ragnotes", cfg.Index.Qdrant.Collection)
}

func TestEnvOverridesCompletion(t *testing.T) {
	t.Setenv(EnvOllamaHost, "http://ollama.internal:11434")
	t.Setenv(EnvModel, "mistral")

	cfg, err := Load(writeConfig(t, "completion:\n  base_url: http://ignored:1\n  model: ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://ollama.internal:11434", cfg.Completion.BaseURL)
	assert.Equal(t, "mistral", cfg.Completion.Model)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "negative chunk size", body: "chunker:\n  chunk_size: -4\n", field: "Chunker.ChunkSize"},
		{name: "unknown chunker", body: "chunker:\n  type: semantic\n", field: "Chunker.Type"},
		{name: "unknown index", body: "index:\n  type: faiss\n", field: "Index.Type"},
		{name: "negative top k", body: "retrieval:\n  top_k: -1\n", field: "Retrieval.TopK"},
		{name: "bad url", body: "completion:\n  base_url: not a url\n", field: "Completion.BaseURL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "chunker: [unterminated"))
	assert.Error(t, err)
}

func TestLoadDefaultWritesUserConfig(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "ragnotes", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, 500, cfg.Chunker.ChunkSize)

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := defaultConfig()
	cfg.Retrieval.TopK = 7
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Retrieval.TopK)
}
