package answer

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"ragnotes/internal/domain"
)

const (
	promptHeader     = "Answer the question based on the following context:\n\n"
	promptQuestion   = "\n\nQuestion: "
	contextSeparator = "\n\n"
)

// BuildContext joins chunks with a blank line, in retrieval order.
func BuildContext(chunks []string) string {
	return strings.Join(chunks, contextSeparator)
}

// BuildPrompt formats the grounded question sent to the model.
func BuildPrompt(question string, chunks []string) string {
	return promptHeader + BuildContext(chunks) + promptQuestion + question
}

// Synthesizer answers a question from retrieved chunks with one completion call.
type Synthesizer struct {
	completer domain.Completer
	log       zerolog.Logger
}

func NewSynthesizer(completer domain.Completer, log zerolog.Logger) *Synthesizer {
	return &Synthesizer{completer: completer, log: log}
}

func (s *Synthesizer) Synthesize(ctx context.Context, question string, chunks []string) (string, error) {
	prompt := BuildPrompt(question, chunks)
	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.NewCompletionFailure("complete prompt", err)
		}
		return "", err
	}
	s.log.Debug().Int("chunks", len(chunks)).Int("prompt_len", len(prompt)).Int("reply_len", len(reply)).Msg("answer synthesized")
	return reply, nil
}
