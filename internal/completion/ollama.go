// Package completion talks to an Ollama-compatible chat endpoint.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"ragnotes/internal/domain"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2:1b"

	maxResponseBytes = 8 << 20
)

// Config configures the chat client.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client sends single-turn, non-streaming chat requests to {BaseURL}/api/chat.
type Client struct {
	endpoint string
	model    string
	client   *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/api/chat",
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Complete returns message.content of the reply. Transport errors, non-2xx
// statuses and replies without a string message.content are completion failures.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	data, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", domain.NewCompletionFailure("encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", domain.NewCompletionFailure("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", domain.NewCompletionFailure(fmt.Sprintf("POST %s", c.endpoint), err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", domain.NewCompletionFailure("read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", domain.NewCompletionFailure(fmt.Sprintf("POST %s returned %s", c.endpoint, resp.Status), nil).
			WithDetail("status", resp.StatusCode).
			WithDetail("body", truncate(string(payload), 512))
	}
	if !gjson.ValidBytes(payload) {
		return "", domain.NewCompletionFailure("response is not valid JSON", nil).
			WithDetail("body", truncate(string(payload), 512))
	}
	content := gjson.GetBytes(payload, "message.content")
	if !content.Exists() || content.Type != gjson.String {
		return "", domain.NewCompletionFailure("response has no message.content", nil).
			WithDetail("body", truncate(string(payload), 512))
	}
	return content.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
