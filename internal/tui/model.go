package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragnotes/internal/session"
	"ragnotes/internal/textutil"
)

// SessionPort is the TUI-facing subset of a session.
type SessionPort interface {
	Ask(ctx context.Context, question string) (session.Answer, error)
	ClearHistory()
	ExportHistoryFile(path string) (int, error)
	HistoryLen() int
}

type answerMsg struct {
	answer session.Answer
	err    error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	session    SessionPort
	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	answer     *session.Answer
	title      string
	summary    string
	status     string
	exportPath string
	cursor     int
	busy       bool
	ready      bool
}

// New creates a new TUI model instance.
func New(s SessionPort, title, summary, exportPath string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		session:    s,
		input:      ti,
		viewport:   viewport.New(0, 0),
		spinner:    sp,
		title:      title,
		summary:    summary,
		exportPath: exportPath,
		status:     "Loaded. Ask away. ctrl+e export history, ctrl+l clear history.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		ans, err := m.session.Ask(context.Background(), question)
		return answerMsg{answer: ans, err: err}
	}
}

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			ans := msg.answer
			m.answer = &ans
			m.cursor = 0
			m.status = fmt.Sprintf("Answered from %d chunks. History: %d", len(ans.Hits), m.session.HistoryLen())
		}
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.input.SetValue("")
			m.status = fmt.Sprintf("Thinking about %q", q)
			return m, tea.Batch(m.ask(q), m.spinner.Tick)
		case "ctrl+l":
			m.session.ClearHistory()
			m.status = "History cleared."
			return m, nil
		case "ctrl+e":
			n, err := m.session.ExportHistoryFile(m.exportPath)
			if err != nil {
				m.status = "Error: " + err.Error()
			} else {
				m.status = fmt.Sprintf("Exported %d records to %s", n, m.exportPath)
			}
			return m, nil
		case "down":
			if m.answer != nil && len(m.answer.Hits) > 0 {
				m.cursor = (m.cursor + 1) % len(m.answer.Hits)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if m.answer != nil && len(m.answer.Hits) > 0 {
				m.cursor = (m.cursor - 1 + len(m.answer.Hits)) % len(m.answer.Hits)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(m.title)
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	status = statusStyle.Render(status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return "No answer yet."
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render("Q: ") + m.answer.Question + "\n\n")
	b.WriteString(labelStyle.Render("A: ") + m.answer.Response + "\n\n")
	if len(m.answer.Hits) == 0 {
		return b.String()
	}
	hit := m.answer.Hits[m.cursor]
	b.WriteString(fmt.Sprintf("Chunk %d/%d  #%d  distance=%.3f  (up/down)\n\n",
		m.cursor+1, len(m.answer.Hits), hit.Chunk.Index, hit.Distance))
	b.WriteString(highlightBestSentence(hit.Chunk.Text, m.answer.Question))
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// highlightBestSentence marks the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := textutil.WordSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := overlap(qTokens, s); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sent = highlightStyle.Render(sent)
		}
		sentences[i] = sent
	}
	return strings.Join(sentences, " ")
}

func overlap(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	for t := range textutil.WordSet(sentence) {
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
