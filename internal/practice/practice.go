// Package practice owns session state and the display model for the current
// practice item.
package practice

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rbright/recite/internal/catalog"
)

// ErrBusy is returned by navigation while a capture attempt is in flight.
var ErrBusy = errors.New("a recording is in progress")

const (
	StatusRecording  = "Recording... press stop when finished."
	StatusProcessing = "Processing your recording..."
)

// Controls is the enabled state of the user controls.
type Controls struct {
	StartEnabled bool
	StopEnabled  bool
	NextEnabled  bool
}

// Display is a render-ready snapshot of everything the user sees.
type Display struct {
	Type        catalog.ContentType
	Heading     string
	Text        string
	Placeholder bool
	Index       int
	Count       int
	Controls    Controls

	Status         string
	Transcript     string
	Score          string
	ResultsVisible bool
	RedirectTo     string
}

// SessionState is the mutable selection state. SelectedItemID is only
// meaningful when HasSelection is true, and then always names the item at
// IndexByType[CurrentType].
type SessionState struct {
	CurrentType    catalog.ContentType
	IndexByType    map[catalog.ContentType]int
	SelectedItemID catalog.ItemID
	HasSelection   bool
}

// Selection identifies the item a capture attempt is for.
type Selection struct {
	ItemID catalog.ItemID
	Type   catalog.ContentType
	Text   string
}

// Controller is the single owner of SessionState and Display.
type Controller struct {
	mu        sync.Mutex
	cat       catalog.Catalog
	state     SessionState
	display   Display
	busy      bool
	listeners []func(Display)
}

// New builds a controller over cat with the sentence list selected.
func New(cat catalog.Catalog) *Controller {
	c := &Controller{
		cat: cat,
		state: SessionState{
			CurrentType: catalog.Sentence,
			IndexByType: make(map[catalog.ContentType]int, len(catalog.Types)),
		},
	}
	c.selectTypeLocked(catalog.Sentence)
	return c
}

// OnChange registers fn to receive a snapshot after every mutation.
func (c *Controller) OnChange(fn func(Display)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Snapshot returns the current display.
func (c *Controller) Snapshot() Display {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

// State returns a copy of the session state.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.state
	out.IndexByType = make(map[catalog.ContentType]int, len(c.state.IndexByType))
	for k, v := range c.state.IndexByType {
		out.IndexByType[k] = v
	}
	return out
}

// Selection returns the currently selected item, if any.
func (c *Controller) Selection() (Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.HasSelection {
		return Selection{}, false
	}
	return Selection{
		ItemID: c.state.SelectedItemID,
		Type:   c.state.CurrentType,
		Text:   c.display.Text,
	}, true
}

// SelectType switches the active list, restoring its last-used index.
func (c *Controller) SelectType(t catalog.ContentType) error {
	if t != catalog.Sentence && t != catalog.Paragraph {
		return fmt.Errorf("unknown content type %q", t)
	}
	return c.mutate(func() error {
		if c.busy {
			return ErrBusy
		}
		c.selectTypeLocked(t)
		return nil
	})
}

// Advance re-renders the item at the current index.
func (c *Controller) Advance() error {
	return c.mutate(func() error {
		if c.busy {
			return ErrBusy
		}
		c.advanceLocked(c.state.IndexByType[c.state.CurrentType])
		return nil
	})
}

// AdvanceTo moves to index, wrapping in either direction.
func (c *Controller) AdvanceTo(index int) error {
	return c.mutate(func() error {
		if c.busy {
			return ErrBusy
		}
		c.advanceLocked(index)
		return nil
	})
}

// Next moves one item forward, wrapping at the end.
func (c *Controller) Next() error {
	return c.step(1)
}

// Prev moves one item back, wrapping at the start.
func (c *Controller) Prev() error {
	return c.step(-1)
}

func (c *Controller) step(delta int) error {
	return c.mutate(func() error {
		if c.busy {
			return ErrBusy
		}
		c.advanceLocked(c.state.IndexByType[c.state.CurrentType] + delta)
		return nil
	})
}

// BeginOpening claims the current selection for a capture attempt and locks
// navigation while the device opens. EndCapture releases it.
func (c *Controller) BeginOpening() (Selection, bool) {
	var sel Selection
	err := c.mutate(func() error {
		if c.busy || !c.state.HasSelection {
			return ErrBusy
		}
		c.busy = true
		c.display.Controls = Controls{}
		sel = Selection{ItemID: c.state.SelectedItemID, Type: c.state.CurrentType, Text: c.display.Text}
		return nil
	})
	return sel, err == nil
}

// BeginCapture marks a capture attempt as recording.
func (c *Controller) BeginCapture() {
	_ = c.mutate(func() error {
		c.busy = true
		c.display.Controls = Controls{StartEnabled: false, StopEnabled: true, NextEnabled: false}
		c.display.Status = StatusRecording
		c.clearResultsLocked()
		return nil
	})
}

// StopRequested disables stop as soon as finalisation is requested.
func (c *Controller) StopRequested() {
	_ = c.mutate(func() error {
		c.display.Controls.StopEnabled = false
		c.display.Status = StatusProcessing
		return nil
	})
}

// EndCapture returns the controls to their idle state.
func (c *Controller) EndCapture() {
	_ = c.mutate(func() error {
		c.busy = false
		c.display.Controls = c.idleControlsLocked()
		return nil
	})
}

// ShowStatus replaces the status line.
func (c *Controller) ShowStatus(message string) {
	_ = c.mutate(func() error {
		c.display.Status = message
		return nil
	})
}

// ShowResult reveals a transcript and formatted score.
func (c *Controller) ShowResult(transcript string, score string) {
	_ = c.mutate(func() error {
		c.display.Transcript = transcript
		c.display.Score = score
		c.display.ResultsVisible = true
		c.display.Status = ""
		return nil
	})
}

// Redirect records that the client must navigate to location.
func (c *Controller) Redirect(location string, message string) {
	_ = c.mutate(func() error {
		c.display.RedirectTo = location
		c.display.Status = message
		return nil
	})
}

func (c *Controller) mutate(fn func() error) error {
	c.mu.Lock()
	if err := fn(); err != nil {
		c.mu.Unlock()
		return err
	}
	snapshot := c.display
	listeners := append([]func(Display){}, c.listeners...)
	c.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}
	return nil
}

func (c *Controller) selectTypeLocked(t catalog.ContentType) {
	c.state.CurrentType = t
	c.display.Type = t

	if len(c.cat.Items(t)) == 0 {
		c.state.SelectedItemID = ""
		c.state.HasSelection = false
		c.display.Heading = t.Label()
		c.display.Text = fmt.Sprintf("No %s available.", t.Plural())
		c.display.Placeholder = true
		c.display.Index = 0
		c.display.Count = 0
		c.display.Controls = c.idleControlsLocked()
		c.clearResultsLocked()
		return
	}

	c.advanceLocked(c.state.IndexByType[t])
}

func (c *Controller) advanceLocked(index int) {
	t := c.state.CurrentType
	items := c.cat.Items(t)
	if len(items) == 0 {
		c.selectTypeLocked(t)
		return
	}

	n := len(items)
	normalized := ((index % n) + n) % n
	item := items[normalized]

	c.state.IndexByType[t] = normalized
	c.state.SelectedItemID = item.ID
	c.state.HasSelection = true

	c.display.Heading = fmt.Sprintf("%s %d of %d", t.Label(), normalized+1, n)
	c.display.Text = item.Text
	c.display.Placeholder = false
	c.display.Index = normalized
	c.display.Count = n
	c.display.Controls = c.idleControlsLocked()
	c.clearResultsLocked()
	c.display.Status = ""
}

func (c *Controller) idleControlsLocked() Controls {
	if c.busy {
		return c.display.Controls
	}
	hasItems := len(c.cat.Items(c.state.CurrentType)) > 0
	return Controls{StartEnabled: hasItems, StopEnabled: false, NextEnabled: hasItems}
}

func (c *Controller) clearResultsLocked() {
	c.display.Transcript = ""
	c.display.Score = ""
	c.display.ResultsVisible = false
	c.display.RedirectTo = ""
}
