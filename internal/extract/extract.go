// Package extract turns document files into plain text. The format is chosen
// by file extension; unknown extensions are read as UTF-8 text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"ragnotes/internal/domain"
)

type extractor func(data []byte) (string, error)

var extractors = map[string]extractor{
	".pdf":      pdfText,
	".html":     htmlText,
	".htm":      htmlText,
	".md":       markdownText,
	".markdown": markdownText,
	".docx":     docxText,
	".xlsx":     xlsxText,
}

// Supported reports whether name has a dedicated extractor.
func Supported(name string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Bytes extracts the text of data, treating it as a file called name.
func Bytes(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	fn, ok := extractors[ext]
	if !ok {
		return string(data), nil
	}
	text, err := fn(data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(name), err)
	}
	return text, nil
}

// Reader extracts the text of an uploaded file.
func Reader(name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return Bytes(name, data)
}

// File extracts the text of the file at path.
func File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Bytes(path, data)
}

// Load reads path into a Document with a fresh ID.
func Load(path string) (domain.Document, error) {
	text, err := File(path)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{ID: uuid.NewString(), Path: path, Content: text}, nil
}

func newReaderAt(data []byte) (*bytes.Reader, int64) {
	return bytes.NewReader(data), int64(len(data))
}
