package domain

import "context"

// Document is the raw text extracted from one source file.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a contiguous piece of a document, identified by its position in the document.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
}

// Embedding is the vector produced for one chunk or one query.
type Embedding []float32

// Neighbor is a single index hit: the position of a stored vector and its squared L2 distance to the query.
type Neighbor struct {
	Index    int
	Distance float32
}

// Hit is a retrieved chunk together with its distance to the query.
type Hit struct {
	Chunk    Chunk
	Distance float32
}

// QueryRecord is one answered question kept in the session history.
type QueryRecord struct {
	Question string   `json:"question"`
	Chunks   []string `json:"chunks"`
	Response string   `json:"response"`
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Completer sends a single-turn prompt to a generative model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
