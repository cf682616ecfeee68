package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragnotes/internal/domain"
	"ragnotes/internal/session"
)

type fakeSession struct {
	loaded   []domain.Document
	records  []domain.QueryRecord
	exported []string
	askErr   error
}

func (f *fakeSession) LoadDocument(_ context.Context, doc domain.Document) (session.Loaded, error) {
	f.loaded = append(f.loaded, doc)
	return session.Loaded{DocumentID: doc.ID, Path: doc.Path, Chunks: 3, Summary: "A short summary."}, nil
}

func (f *fakeSession) Ask(_ context.Context, q string) (session.Answer, error) {
	if f.askErr != nil {
		return session.Answer{}, f.askErr
	}
	f.records = append(f.records, domain.QueryRecord{Question: q, Chunks: []string{"BBBB "}, Response: "about B"})
	return session.Answer{
		Question: q,
		Response: "about B",
		Hits:     []domain.Hit{{Chunk: domain.Chunk{Index: 1, Text: "BBBB "}, Distance: 0.5}},
	}, nil
}

func (f *fakeSession) History() []domain.QueryRecord { return f.records }
func (f *fakeSession) ClearHistory()                 { f.records = nil }

func (f *fakeSession) ExportHistoryFile(path string) (int, error) {
	f.exported = append(f.exported, path)
	return len(f.records), nil
}

func loader(path string) (domain.Document, error) {
	if strings.HasSuffix(path, ".missing") {
		return domain.Document{}, errors.New("no such file")
	}
	return domain.Document{ID: "id-" + path, Path: path, Content: "AAAA BBBB"}, nil
}

func run(t *testing.T, fs *fakeSession, input string) string {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	c := New(fs, loader, "default.json", &out, io.Discard)
	require.NoError(t, c.Run(context.Background(), strings.NewReader(input)))
	return out.String()
}

func TestRunAnswersQuestions(t *testing.T) {
	fs := &fakeSession{}
	out := run(t, fs, "what is b?\nexit\nnever asked\n")

	assert.Contains(t, out, "Assistant: about B")
	assert.Contains(t, out, "chunk #1 (distance 0.500): BBBB")
	require.Len(t, fs.records, 1)
	assert.Equal(t, "what is b?", fs.records[0].Question)
}

func TestRunCommands(t *testing.T) {
	fs := &fakeSession{}
	out := run(t, fs, "/load notes.txt\nq1\n/history\n/export\n/export other.json\n/clear\n/history\n/bogus\n")

	require.Len(t, fs.loaded, 1)
	assert.Equal(t, "notes.txt", fs.loaded[0].Path)
	assert.Contains(t, out, "Indexed notes.txt into 3 chunks")
	assert.Contains(t, out, "Summary: A short summary.")
	assert.Contains(t, out, "1. q1")
	assert.Equal(t, []string{"default.json", "other.json"}, fs.exported)
	assert.Contains(t, out, "Exported 1 records to other.json")
	assert.Contains(t, out, "History cleared")
	assert.Contains(t, out, "History is empty")
	assert.Contains(t, out, "Unknown command /bogus")
}

func TestRunReportsErrors(t *testing.T) {
	fs := &fakeSession{askErr: domain.NewEmptyIndex("no document loaded")}
	out := run(t, fs, "/load gone.missing\nanything\n")

	assert.Contains(t, out, "Error loading gone.missing: no such file")
	assert.Contains(t, out, "Error: empty_index: no document loaded")
	assert.Empty(t, fs.loaded)
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c", oneLine("a\n b\t\tc", 10))
	assert.Equal(t, "héll...", oneLine("héllo", 4))
}
