package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	m, err := New(Config{BaseURL: "http://127.0.0.1:11434"})
	require.NoError(t, err)
	assert.Equal(t, "ollama:all-minilm", m.Name())
}

func TestEncodeKeepsInputOrder(t *testing.T) {
	var (
		mu      sync.Mutex
		prompts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "nomic-embed-text", req.Model)
		mu.Lock()
		prompts = append(prompts, req.Prompt)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float32{float32(len(req.Prompt)), 1},
		})
	}))
	defer srv.Close()

	m, err := New(Config{BaseURL: srv.URL, Model: "nomic-embed-text"})
	require.NoError(t, err)

	texts := []string{"a", "three", "chunk two"}
	vectors, err := m.Encode(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, v := range vectors {
		assert.Equal(t, []float32{float32(len(texts[i])), 1}, v)
	}
	assert.Equal(t, texts, prompts)
}

func TestEncodeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	m, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = m.Encode(context.Background(), []string{"x"})
	assert.Error(t, err)
}
