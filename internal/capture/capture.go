// Package capture runs one microphone recording attempt from start to submission.
package capture

import (
	"context"
	"errors"

	"github.com/rbright/recite/internal/practice"
	"github.com/rbright/recite/internal/submit"
)

var (
	ErrCaptureUnsupported = errors.New("audio capture is not supported")
	ErrNoSelection        = errors.New("no practice item selected")
	ErrBusy               = errors.New("a recording is already in progress")
	ErrNotRecording       = errors.New("not recording")
	ErrNoAudio            = errors.New("no audio captured")
	ErrStreamEnded        = errors.New("recording stopped unexpectedly")
)

// User-visible status messages.
const (
	MessageUnsupported     = "Audio recording is not supported on this system."
	MessageNoSelection     = "Please select a sentence or paragraph first."
	MessagePermissionFmt   = "Microphone access denied: %s"
	MessageNoAudio         = "No audio captured."
	MessageStreamEnded     = "Recording stopped unexpectedly."
	MessageFinalizeFailed  = "Could not finish the recording."
	MessageCancelled       = "Recording cancelled."
	MessageSubmitFailedFmt = "Transcription failed: %s"
)

// Stream is one open recording. Fragments closes after Finalize (or Release).
type Stream interface {
	Fragments() <-chan []byte
	MediaType() string
	Finalize() error
	Release() error
}

// Device opens recordings. Open may block while access is negotiated.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// DeviceFunc adapts a function to Device.
type DeviceFunc func(ctx context.Context) (Stream, error)

func (f DeviceFunc) Open(ctx context.Context) (Stream, error) { return f(ctx) }

// Submitter hands a finished recording to the transcription endpoint.
type Submitter interface {
	Submit(ctx context.Context, payload submit.Payload, req submit.Request) (submit.Outcome, error)
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, payload submit.Payload, req submit.Request) (submit.Outcome, error)

func (f SubmitFunc) Submit(ctx context.Context, payload submit.Payload, req submit.Request) (submit.Outcome, error) {
	return f(ctx, payload, req)
}

// Display is the subset of the display controller a capture attempt drives.
type Display interface {
	BeginOpening() (practice.Selection, bool)
	BeginCapture()
	StopRequested()
	EndCapture()
	ShowStatus(message string)
	ShowResult(transcript string, score string)
	Redirect(location string, message string)
}

// Indicator plays audible lifecycle cues.
type Indicator interface {
	CueStart(context.Context)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueError(context.Context)
}

type noopIndicator struct{}

func (noopIndicator) CueStart(context.Context)    {}
func (noopIndicator) CueStop(context.Context)     {}
func (noopIndicator) CueComplete(context.Context) {}
func (noopIndicator) CueError(context.Context)    {}

type noopDisplay struct{}

func (noopDisplay) BeginOpening() (practice.Selection, bool) { return practice.Selection{}, false }
func (noopDisplay) BeginCapture()                           {}
func (noopDisplay) StopRequested()                          {}
func (noopDisplay) EndCapture()                             {}
func (noopDisplay) ShowStatus(string)                       {}
func (noopDisplay) ShowResult(string, string)               {}
func (noopDisplay) Redirect(string, string)                 {}
