// Package cli is the line-oriented front-end: questions are read from a
// reader, answers are printed in color, and slow steps show a spinner.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"ragnotes/internal/domain"
	"ragnotes/internal/session"
)

// Session is what the chat loop needs from a session.
type Session interface {
	LoadDocument(ctx context.Context, doc domain.Document) (session.Loaded, error)
	Ask(ctx context.Context, question string) (session.Answer, error)
	History() []domain.QueryRecord
	ClearHistory()
	ExportHistoryFile(path string) (int, error)
}

// Loader reads a document from disk.
type Loader func(path string) (domain.Document, error)

type Chat struct {
	session    Session
	load       Loader
	exportPath string
	out        io.Writer
	status     io.Writer

	user      *color.Color
	assistant *color.Color
	info      *color.Color
	failure   *color.Color
}

// New creates a chat loop printing to out. Spinners go to status; pass io.Discard to hide them.
func New(s Session, load Loader, exportPath string, out, status io.Writer) *Chat {
	return &Chat{
		session:    s,
		load:       load,
		exportPath: exportPath,
		out:        out,
		status:     status,
		user:       color.New(color.FgGreen),
		assistant:  color.New(color.FgCyan),
		info:       color.New(color.FgBlue),
		failure:    color.New(color.FgRed),
	}
}

func getSpinner(w io.Writer, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// spin animates a spinner until the returned stop func is called.
func (c *Chat) spin(description string) func() {
	bar := getSpinner(c.status, description)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
		_ = bar.Clear()
	}
}

// LoadFile loads path into the session and prints what was indexed.
func (c *Chat) LoadFile(ctx context.Context, path string) error {
	stop := c.spin("Indexing " + path)
	doc, err := c.load(path)
	var loaded session.Loaded
	if err == nil {
		loaded, err = c.session.LoadDocument(ctx, doc)
	}
	stop()
	if err != nil {
		c.failure.Fprintf(c.out, "Error loading %s: %v\n", path, err)
		return err
	}
	c.info.Fprintf(c.out, "Indexed %s into %d chunks\n", path, loaded.Chunks)
	if loaded.Summary != "" {
		fmt.Fprintf(c.out, "Summary: %s\n", loaded.Summary)
	}
	return nil
}

// Run reads lines from in until EOF or "exit".
func (c *Chat) Run(ctx context.Context, in io.Reader) error {
	color.New(color.FgCyan).Fprintln(c.out, "Ask about your document (type 'exit' to quit, '/help' for commands)")
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		c.user.Fprint(c.out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		if strings.HasPrefix(line, "/") {
			c.command(ctx, line)
			continue
		}
		c.askQuestion(ctx, line)
	}
}

func (c *Chat) askQuestion(ctx context.Context, question string) {
	stop := c.spin("Thinking")
	ans, err := c.session.Ask(ctx, question)
	stop()
	if err != nil {
		c.failure.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	c.assistant.Fprint(c.out, "Assistant: ")
	fmt.Fprintln(c.out, ans.Response)
	for i, h := range ans.Hits {
		c.info.Fprintf(c.out, "  [%d] chunk #%d (distance %.3f): ", i+1, h.Chunk.Index, h.Distance)
		fmt.Fprintln(c.out, oneLine(h.Chunk.Text, 100))
	}
}

func (c *Chat) command(ctx context.Context, line string) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/load":
		if arg == "" {
			c.failure.Fprintln(c.out, "Usage: /load <path>")
			return
		}
		_ = c.LoadFile(ctx, arg)
	case "/export":
		path := c.exportPath
		if arg != "" {
			path = arg
		}
		n, err := c.session.ExportHistoryFile(path)
		if err != nil {
			c.failure.Fprintf(c.out, "Error: %v\n", err)
			return
		}
		c.info.Fprintf(c.out, "Exported %d records to %s\n", n, path)
	case "/clear":
		c.session.ClearHistory()
		c.info.Fprintln(c.out, "History cleared")
	case "/history":
		records := c.session.History()
		if len(records) == 0 {
			fmt.Fprintln(c.out, "History is empty")
			return
		}
		for i, r := range records {
			c.user.Fprintf(c.out, "%d. %s\n", i+1, r.Question)
			fmt.Fprintf(c.out, "   %s\n", oneLine(r.Response, 120))
		}
	case "/help":
		fmt.Fprintln(c.out, "/load <path>    index a new document\n/export [path]  write history as JSON\n/clear          clear history\n/history        list questions asked\nexit            quit")
	default:
		c.failure.Fprintf(c.out, "Unknown command %s\n", name)
	}
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
