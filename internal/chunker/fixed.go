package chunker

import (
	"fmt"
	"unicode/utf8"

	"ragnotes/internal/domain"
)

// DefaultChunkSize is the number of characters per chunk when none is configured.
const DefaultChunkSize = 500

// FixedSize splits text into consecutive, non-overlapping runs of size characters.
// The last run may be shorter. Boundaries ignore words and sentences.
type FixedSize struct {
	size int
}

func NewFixedSize(size int) (*FixedSize, error) {
	if size <= 0 {
		return nil, domain.NewInvalidArgument(fmt.Sprintf("chunk size must be positive, got %d", size))
	}
	return &FixedSize{size: size}, nil
}

func (c *FixedSize) Size() int { return c.size }

func (c *FixedSize) Chunk(document domain.Document) ([]domain.Chunk, error) {
	parts := Split(document.Content, c.size)
	chunks := make([]domain.Chunk, len(parts))
	for i, text := range parts {
		chunks[i] = domain.Chunk{DocumentID: document.ID, Index: i, Text: text}
	}
	return chunks, nil
}

// Split cuts text every size characters (Unicode code points).
// An invalid UTF-8 byte counts as one character, so concatenating the parts
// always gives back the input.
func Split(text string, size int) []string {
	if text == "" || size <= 0 {
		return nil
	}
	parts := make([]string, 0, utf8.RuneCountInString(text)/size+1)
	start, n := 0, 0
	for i := 0; i < len(text); {
		_, w := utf8.DecodeRuneInString(text[i:])
		i += w
		n++
		if n == size {
			parts = append(parts, text[start:i])
			start, n = i, 0
		}
	}
	if start < len(text) {
		parts = append(parts, text[start:])
	}
	return parts
}
