// Package tui renders the practice display in the terminal.
package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rbright/recite/internal/catalog"
	"github.com/rbright/recite/internal/fsm"
	"github.com/rbright/recite/internal/practice"
)

// Key bindings.
const (
	KeyQuit      = "q"
	KeyCtrlC     = "ctrl+c"
	KeyToggle    = " "
	KeyRecord    = "r"
	KeyStop      = "s"
	KeyNext      = "n"
	KeyRight     = "right"
	KeyPrev      = "p"
	KeyLeft      = "left"
	KeySwitch    = "tab"
	KeySentence  = "1"
	KeyParagraph = "2"
)

const refreshInterval = 250 * time.Millisecond

// Session is the practice surface the model drives.
type Session interface {
	Snapshot() practice.Display
	State() fsm.State
	Toggle(ctx context.Context) (string, error)
	Stop() error
	Next() error
	Prev() error
	SelectType(t catalog.ContentType) error
}

// DisplayMsg carries a fresh display snapshot into the program.
type DisplayMsg practice.Display

type actionDoneMsg struct{ err error }

type refreshMsg struct{}

// Model is the root bubbletea model.
type Model struct {
	ctx     context.Context
	session Session

	display practice.Display
	state   fsm.State
	err     string
	width   int
}

// New creates a model showing the session's current display.
func New(ctx context.Context, session Session) Model {
	return Model{
		ctx:     ctx,
		session: session,
		display: session.Snapshot(),
		state:   session.State(),
	}
}

// Init starts the state refresh ticker.
func (m Model) Init() tea.Cmd {
	return refreshCmd()
}

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshMsg{} })
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case DisplayMsg:
		m.display = practice.Display(msg)
		m.state = m.session.State()
		return m, nil

	case actionDoneMsg:
		m.err = ""
		if msg.err != nil {
			m.err = msg.err.Error()
		}
		m.display = m.session.Snapshot()
		m.state = m.session.State()
		return m, nil

	case refreshMsg:
		m.state = m.session.State()
		return m, refreshCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyCtrlC:
		return m, tea.Quit
	case KeyToggle, KeyRecord:
		return m, m.action(func() error {
			_, err := m.session.Toggle(m.ctx)
			return err
		})
	case KeyStop:
		return m, m.action(m.session.Stop)
	case KeyNext, KeyRight:
		return m, m.action(m.session.Next)
	case KeyPrev, KeyLeft:
		return m, m.action(m.session.Prev)
	case KeySentence:
		return m, m.action(func() error { return m.session.SelectType(catalog.Sentence) })
	case KeyParagraph:
		return m, m.action(func() error { return m.session.SelectType(catalog.Paragraph) })
	case KeySwitch:
		next := catalog.Paragraph
		if m.display.Type == catalog.Paragraph {
			next = catalog.Sentence
		}
		return m, m.action(func() error { return m.session.SelectType(next) })
	}
	return m, nil
}

// action runs fn off the event loop: session mutations notify display
// listeners, which send back into the program.
func (m Model) action(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: fn()}
	}
}

// View renders the display.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("recite"))
	b.WriteString("  ")
	b.WriteString(m.renderState())
	b.WriteString("\n\n")

	b.WriteString(headingStyle.Render(m.display.Heading))
	b.WriteString("\n")

	body := m.display.Text
	if m.display.Placeholder {
		body = placeholderStyle.Render(body)
	}
	box := textStyle
	if m.width > 8 {
		box = box.Width(m.width - 4)
	}
	b.WriteString(box.Render(body))
	b.WriteString("\n")

	if m.display.Status != "" {
		b.WriteString(statusStyle.Render(m.display.Status))
		b.WriteString("\n")
	}
	if m.display.RedirectTo != "" {
		b.WriteString(labelStyle.Render("Log in: "))
		b.WriteString(m.display.RedirectTo)
		b.WriteString("\n")
	}
	if m.display.ResultsVisible {
		b.WriteString(labelStyle.Render("Transcript: "))
		b.WriteString(m.display.Transcript)
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Score: "))
		b.WriteString(scoreStyle.Render(m.display.Score))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderState() string {
	switch m.state {
	case fsm.StateRecording:
		return recordingStyle.Render("● recording")
	case fsm.StateStopping, fsm.StateSubmitting:
		return busyStyle.Render("◌ " + string(m.state))
	case fsm.StateError:
		return errorStyle.Render("✕ error")
	default:
		return idleStyle.Render("○ idle")
	}
}

func (m Model) renderFooter() string {
	controls := m.display.Controls
	recordLabel := "record"
	recordEnabled := controls.StartEnabled
	if m.state == fsm.StateRecording {
		recordLabel = "stop"
		recordEnabled = controls.StopEnabled
	}

	items := []string{
		footerItem("space", recordLabel, recordEnabled),
		footerItem("n/p", "next/prev", controls.NextEnabled),
		footerItem("tab", "sentences/paragraphs", m.state == fsm.StateIdle),
		footerItem("q", "quit", true),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(items, "  "))
}

func footerItem(key string, desc string, enabled bool) string {
	if !enabled {
		return keyDisabledStyle.Render(key + " " + desc)
	}
	return keyStyle.Render(key) + " " + descStyle.Render(desc)
}

// Run shows the practice display until the user quits or ctx ends.
func Run(ctx context.Context, session Session, display *practice.Controller, in io.Reader, out io.Writer) error {
	program := tea.NewProgram(
		New(ctx, session),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	display.OnChange(func(d practice.Display) {
		program.Send(DisplayMsg(d))
	})

	_, err := program.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
