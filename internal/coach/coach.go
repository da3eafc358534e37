// Package coach ties the display controller and capture controller into one
// practice session that the terminal UI and IPC commands both drive.
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rbright/recite/internal/capture"
	"github.com/rbright/recite/internal/catalog"
	"github.com/rbright/recite/internal/fsm"
	"github.com/rbright/recite/internal/ipc"
	"github.com/rbright/recite/internal/practice"
)

// Session owns one practice run.
type Session struct {
	logger  *slog.Logger
	display *practice.Controller
	capture *capture.Controller

	mu      sync.Mutex
	pending chan struct{}
	last    capture.Result
}

// New wires a session over an existing display and capture controller.
func New(logger *slog.Logger, display *practice.Controller, ctrl *capture.Controller) *Session {
	return &Session{logger: logger, display: display, capture: ctrl}
}

// Display returns the session's display controller.
func (s *Session) Display() *practice.Controller { return s.display }

// State returns the capture state.
func (s *Session) State() fsm.State { return s.capture.State() }

// Start launches one capture attempt in the background.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil || s.capture.Busy() {
		return capture.ErrBusy
	}

	done := make(chan struct{})
	s.pending = done
	go func() {
		result := s.capture.Run(ctx)

		s.mu.Lock()
		s.last = result
		s.pending = nil
		s.mu.Unlock()
		close(done)
	}()
	return nil
}

// Stop requests finalisation of the current recording.
func (s *Session) Stop() error {
	return s.capture.Stop()
}

// Toggle stops a recording or starts a new one when idle.
func (s *Session) Toggle(ctx context.Context) (string, error) {
	switch state := s.capture.State(); state {
	case fsm.StateRecording:
		return "stop requested", s.Stop()
	case fsm.StateIdle:
		if err := s.Start(ctx); err != nil {
			return "", err
		}
		return "start requested", nil
	default:
		return "", fmt.Errorf("cannot toggle while %s", state)
	}
}

// Next advances to the next item.
func (s *Session) Next() error { return s.display.Next() }

// Prev moves to the previous item.
func (s *Session) Prev() error { return s.display.Prev() }

// SelectType switches the active content list.
func (s *Session) SelectType(t catalog.ContentType) error { return s.display.SelectType(t) }

// Snapshot returns the current display.
func (s *Session) Snapshot() practice.Display { return s.display.Snapshot() }

// Wait blocks until the in-flight attempt finishes (or ctx ends) and returns
// the most recent result.
func (s *Session) Wait(ctx context.Context) (capture.Result, error) {
	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()

	if pending != nil {
		select {
		case <-pending:
		case <-ctx.Done():
			return capture.Result{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, nil
}

// Handle serves IPC commands against the session.
func (s *Session) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	var (
		message string
		err     error
	)

	switch req.Command {
	case ipc.CommandStatus:
		message = "status"
	case ipc.CommandStart:
		message = "start requested"
		err = s.Start(ctx)
	case ipc.CommandStop:
		message = "stop requested"
		err = s.Stop()
	case ipc.CommandToggle:
		message, err = s.Toggle(ctx)
	case ipc.CommandNext:
		message = "next"
		err = s.Next()
	case ipc.CommandPrev:
		message = "previous"
		err = s.Prev()
	case ipc.CommandType:
		var t catalog.ContentType
		t, err = catalog.ParseContentType(req.Arg)
		if err == nil {
			err = s.SelectType(t)
		}
		message = fmt.Sprintf("type %s", req.Arg)
	default:
		err = fmt.Errorf("unknown command: %s", req.Command)
	}

	resp := s.statusResponse()
	if err != nil {
		resp.OK = false
		resp.Error = err.Error()
		if s.logger != nil {
			s.logger.Debug("ipc command rejected", "command", req.Command, "arg", req.Arg, "error", err.Error())
		}
		return resp
	}
	resp.Message = message
	return resp
}

func (s *Session) statusResponse() ipc.Response {
	d := s.display.Snapshot()
	resp := ipc.Response{
		OK:          true,
		State:       string(s.capture.State()),
		ContentType: string(d.Type),
		Heading:     d.Heading,
		Text:        d.Text,
	}
	if sel, ok := s.display.Selection(); ok {
		resp.ItemID = string(sel.ItemID)
	}
	if d.ResultsVisible {
		resp.Transcript = d.Transcript
		resp.Score = d.Score
	}
	return resp
}
