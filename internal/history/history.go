package history

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"ragnotes/internal/domain"
)

// History is the ordered log of answered questions for one session.
type History struct {
	mu      sync.Mutex
	records []domain.QueryRecord
}

func New() *History { return &History{} }

func (h *History) Append(record domain.QueryRecord) {
	record.Chunks = append([]string{}, record.Chunks...)
	h.mu.Lock()
	h.records = append(h.records, record)
	h.mu.Unlock()
}

// Clear drops every record.
func (h *History) Clear() {
	h.mu.Lock()
	h.records = nil
	h.mu.Unlock()
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// Records returns a copy of the log, oldest first.
func (h *History) Records() []domain.QueryRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.QueryRecord, len(h.records))
	for i, r := range h.records {
		r.Chunks = append([]string{}, r.Chunks...)
		out[i] = r
	}
	return out
}

// ExportJSON renders the log as an indented JSON array of
// {"question", "chunks", "response"} objects. An empty log is "[]".
func (h *History) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(h.Records(), "", "  ")
}

func (h *History) Export(w io.Writer) error {
	data, err := h.ExportJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ExportFile writes the export to path, creating parent directories.
func (h *History) ExportFile(path string) error {
	data, err := h.ExportJSON()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
