package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragnotes/internal/domain"
)

func TestCompleteSendsSingleTurnRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tiny-model", body["model"])
		assert.Equal(t, false, body["stream"])
		assert.Equal(t, []any{map[string]any{"role": "user", "content": "hello?"}}, body["messages"])

		_, _ = w.Write([]byte(`{"model":"tiny-model","message":{"role":"assistant","content":"hi there"},"done":true}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", Model: "tiny-model"})
	got, err := c.Complete(context.Background(), "hello?")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)
}

func TestCompleteFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"model crashed"}`},
		{name: "not found", status: http.StatusNotFound, body: `{"error":"model not found"}`},
		{name: "missing content", status: http.StatusOK, body: `{"message":{"role":"assistant"}}`},
		{name: "content not a string", status: http.StatusOK, body: `{"message":{"content":42}}`},
		{name: "malformed json", status: http.StatusOK, body: `{"message":`},
		{name: "empty body", status: http.StatusOK, body: ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(Config{BaseURL: srv.URL}).Complete(context.Background(), "q")
			assert.True(t, domain.IsCompletionFailure(err), "got %v", err)
		})
	}
}

func TestCompleteStatusDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Complete(context.Background(), "q")
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusInternalServerError, derr.Details["status"])
}

func TestCompleteConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: url, Timeout: time.Second}).Complete(context.Background(), "q")
	assert.True(t, domain.IsCompletionFailure(err))
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, "http://localhost:11434/api/chat", c.endpoint)
}
