package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rbright/recite/internal/catalog"
	"github.com/rbright/recite/internal/fsm"
	"github.com/rbright/recite/internal/practice"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	display   *practice.Controller
	state     fsm.State
	toggles   int
	stops     int
	toggleErr error
}

func newFakeSession() *fakeSession {
	cat := catalog.Catalog{
		Sentences:  []catalog.PracticeItem{{ID: "1", Text: "The cat sat."}, {ID: "2", Text: "Dogs bark."}},
		Paragraphs: []catalog.PracticeItem{{ID: "101", Text: "A short paragraph."}},
	}
	return &fakeSession{display: practice.New(cat), state: fsm.StateIdle}
}

func (f *fakeSession) Snapshot() practice.Display             { return f.display.Snapshot() }
func (f *fakeSession) State() fsm.State                       { return f.state }
func (f *fakeSession) Stop() error                            { f.stops++; return nil }
func (f *fakeSession) Next() error                            { return f.display.Next() }
func (f *fakeSession) Prev() error                            { return f.display.Prev() }
func (f *fakeSession) SelectType(t catalog.ContentType) error { return f.display.SelectType(t) }

func (f *fakeSession) Toggle(context.Context) (string, error) {
	f.toggles++
	return "start requested", f.toggleErr
}

func key(s string) tea.KeyMsg {
	switch s {
	case KeyCtrlC:
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case KeyToggle:
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case KeySwitch:
		return tea.KeyMsg{Type: tea.KeyTab}
	case KeyRight:
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and feeds the resulting action back into the model.
func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	updated, cmd := m.Update(key(k))
	m = updated.(Model)
	if cmd != nil {
		updated, _ = m.Update(cmd())
		m = updated.(Model)
	}
	return m
}

func TestNewModelShowsFirstSentence(t *testing.T) {
	m := New(context.Background(), newFakeSession())
	require.Equal(t, "Sentence 1 of 2", m.display.Heading)
	require.Equal(t, "The cat sat.", m.display.Text)

	view := m.View()
	require.Contains(t, view, "The cat sat.")
	require.Contains(t, view, "idle")
}

func TestNavigationKeys(t *testing.T) {
	session := newFakeSession()
	m := New(context.Background(), session)

	m = press(t, m, KeyNext)
	require.Equal(t, "Dogs bark.", m.display.Text)
	m = press(t, m, KeyRight)
	require.Equal(t, "The cat sat.", m.display.Text)
	m = press(t, m, KeyPrev)
	require.Equal(t, "Dogs bark.", m.display.Text)

	m = press(t, m, KeySwitch)
	require.Equal(t, catalog.Paragraph, m.display.Type)
	require.Equal(t, "A short paragraph.", m.display.Text)

	m = press(t, m, KeySentence)
	require.Equal(t, "Dogs bark.", m.display.Text)
	m = press(t, m, KeyParagraph)
	require.Equal(t, catalog.Paragraph, m.display.Type)
}

func TestToggleAndStopKeys(t *testing.T) {
	session := newFakeSession()
	m := New(context.Background(), session)

	m = press(t, m, KeyToggle)
	m = press(t, m, KeyRecord)
	require.Equal(t, 2, session.toggles)

	m = press(t, m, KeyStop)
	require.Equal(t, 1, session.stops)

	session.toggleErr = errors.New("a recording is in progress")
	m = press(t, m, KeyToggle)
	require.Contains(t, m.View(), "a recording is in progress")
}

func TestDisplayMsgUpdatesResults(t *testing.T) {
	session := newFakeSession()
	m := New(context.Background(), session)

	session.state = fsm.StateRecording
	session.display.BeginCapture()
	updated, _ := m.Update(DisplayMsg(session.display.Snapshot()))
	m = updated.(Model)
	require.Equal(t, fsm.StateRecording, m.state)
	require.Contains(t, m.View(), "recording")
	require.Contains(t, m.View(), practice.StatusRecording)

	session.state = fsm.StateIdle
	session.display.ShowResult("the cat sat", "87.50%")
	session.display.EndCapture()
	updated, _ = m.Update(DisplayMsg(session.display.Snapshot()))
	m = updated.(Model)
	view := m.View()
	require.Contains(t, view, "the cat sat")
	require.Contains(t, view, "87.50%")
}

func TestRedirectIsShown(t *testing.T) {
	session := newFakeSession()
	session.display.Redirect("http://127.0.0.1:5000/login", "Your session has expired. Please log in again.")
	m := New(context.Background(), session)
	view := m.View()
	require.Contains(t, view, "http://127.0.0.1:5000/login")
	require.Contains(t, view, "Your session has expired.")
}

func TestQuitKeys(t *testing.T) {
	m := New(context.Background(), newFakeSession())
	for _, k := range []string{KeyQuit, KeyCtrlC} {
		_, cmd := m.Update(key(k))
		require.NotNil(t, cmd)
		require.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestRefreshReadsState(t *testing.T) {
	session := newFakeSession()
	m := New(context.Background(), session)
	session.state = fsm.StateSubmitting

	updated, cmd := m.Update(refreshMsg{})
	require.NotNil(t, cmd)
	require.Equal(t, fsm.StateSubmitting, updated.(Model).state)
}

func TestEmptyCatalogShowsPlaceholder(t *testing.T) {
	session := &fakeSession{display: practice.New(catalog.Catalog{}), state: fsm.StateIdle}
	m := New(context.Background(), session)
	require.True(t, m.display.Placeholder)
	require.Contains(t, m.View(), "No sentences available.")
}
