// Package session ties one document's retrieval state, the answer synthesizer
// and the question history together. Operations on a Session run one at a time.
package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ragnotes/internal/domain"
	"ragnotes/internal/history"
	"ragnotes/internal/service"
)

// Retriever is the retrieval side of a session.
type Retriever interface {
	Load(ctx context.Context, doc domain.Document) (service.LoadResult, error)
	Search(ctx context.Context, query string, k int) ([]domain.Hit, error)
}

// Synthesizer turns a question and its context chunks into an answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, chunks []string) (string, error)
}

// Options tunes a Session. TopK is required.
type Options struct {
	TopK             int
	Summarizer       domain.Summarizer
	SummarySentences int
	Logger           zerolog.Logger
}

// Loaded describes the current document.
type Loaded struct {
	DocumentID string
	Path       string
	Chunks     int
	Summary    string
}

// Answer is the outcome of one question.
type Answer struct {
	Question string
	Response string
	Hits     []domain.Hit
}

// Chunks returns the texts of the retrieved chunks, closest first.
func (a Answer) Chunks() []string { return service.HitTexts(a.Hits) }

type Session struct {
	id          string
	retriever   Retriever
	synthesizer Synthesizer
	history     *history.History
	opts        Options
	log         zerolog.Logger

	mu     sync.Mutex
	loaded *Loaded
}

func New(retriever Retriever, synthesizer Synthesizer, opts Options) (*Session, error) {
	if opts.TopK <= 0 {
		return nil, domain.NewInvalidArgument(fmt.Sprintf("top k must be positive, got %d", opts.TopK))
	}
	if opts.SummarySentences <= 0 {
		opts.SummarySentences = 5
	}
	id := uuid.NewString()
	return &Session{
		id:          id,
		retriever:   retriever,
		synthesizer: synthesizer,
		history:     history.New(),
		opts:        opts,
		log:         opts.Logger.With().Str("session", id).Logger(),
	}, nil
}

func (s *Session) ID() string { return s.id }
func (s *Session) TopK() int  { return s.opts.TopK }

// Document returns the loaded document, if any.
func (s *Session) Document() (Loaded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded == nil {
		return Loaded{}, false
	}
	return *s.loaded, true
}

// LoadDocument indexes doc in place of the current document. The history is kept.
func (s *Session) LoadDocument(ctx context.Context, doc domain.Document) (Loaded, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	res, err := s.retriever.Load(ctx, doc)
	if err != nil {
		s.log.Error().Err(err).Str("path", doc.Path).Msg("load document failed")
		return Loaded{}, err
	}
	loaded := Loaded{DocumentID: res.DocumentID, Path: doc.Path, Chunks: res.Chunks}
	if s.opts.Summarizer != nil && res.Chunks > 0 {
		summary, err := s.opts.Summarizer.Summarize(doc.Content, s.opts.SummarySentences)
		if err != nil {
			s.log.Warn().Err(err).Msg("summarize document")
		}
		loaded.Summary = summary
	}
	s.loaded = &loaded
	return loaded, nil
}

// Ask retrieves the top-k chunks for question, asks the model and records the
// exchange. Nothing is recorded when any step fails.
func (s *Session) Ask(ctx context.Context, question string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, domain.NewInvalidArgument("question is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	hits, err := s.retriever.Search(ctx, question, s.opts.TopK)
	if err != nil {
		s.log.Error().Err(err).Msg("retrieve chunks")
		return Answer{}, err
	}
	chunks := service.HitTexts(hits)
	response, err := s.synthesizer.Synthesize(ctx, question, chunks)
	if err != nil {
		s.log.Error().Err(err).Msg("synthesize answer")
		return Answer{}, err
	}
	s.history.Append(domain.QueryRecord{Question: question, Chunks: chunks, Response: response})
	s.log.Info().Int("chunks", len(chunks)).Int("history", s.history.Len()).Msg("question answered")
	return Answer{Question: question, Response: response, Hits: hits}, nil
}

func (s *Session) History() []domain.QueryRecord { return s.history.Records() }
func (s *Session) HistoryLen() int               { return s.history.Len() }

func (s *Session) ClearHistory() {
	s.history.Clear()
	s.log.Info().Msg("history cleared")
}

func (s *Session) ExportHistory(w io.Writer) error { return s.history.Export(w) }

// ExportHistoryFile writes the history to path and returns how many records were written.
func (s *Session) ExportHistoryFile(path string) (int, error) {
	n := s.history.Len()
	if err := s.history.ExportFile(path); err != nil {
		return 0, fmt.Errorf("export history: %w", err)
	}
	s.log.Info().Str("path", path).Int("records", n).Msg("history exported")
	return n, nil
}
