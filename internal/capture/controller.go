package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/recite/internal/catalog"
	"github.com/rbright/recite/internal/fsm"
	"github.com/rbright/recite/internal/submit"
)

// Result describes one finished capture attempt.
type Result struct {
	State      fsm.State
	ItemID     catalog.ItemID
	Type       catalog.ContentType
	Fragments  int
	Bytes      int
	MediaType  string
	Submitted  bool
	Outcome    submit.Outcome
	Cancelled  bool
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Controller is the single owner of the capture session.
type Controller struct {
	logger    *slog.Logger
	device    Device
	submitter Submitter
	display   Display
	indicator Indicator

	mu      sync.RWMutex
	state   fsm.State
	opening bool

	stopRequests chan struct{}
}

// NewController wires a controller. A nil device means capture is unsupported.
func NewController(
	logger *slog.Logger,
	device Device,
	submitter Submitter,
	display Display,
	indicator Indicator,
) *Controller {
	if submitter == nil {
		submitter = SubmitFunc(func(context.Context, submit.Payload, submit.Request) (submit.Outcome, error) {
			return submit.Outcome{}, errors.New("no submitter configured")
		})
	}
	if display == nil {
		display = noopDisplay{}
	}
	if indicator == nil {
		indicator = noopIndicator{}
	}

	return &Controller{
		logger:       logger,
		device:       device,
		submitter:    submitter,
		display:      display,
		indicator:    indicator,
		state:        fsm.StateIdle,
		stopRequests: make(chan struct{}, 1),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Busy reports whether an attempt is opening the device or in flight.
func (c *Controller) Busy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opening || fsm.Busy(c.state)
}

func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

// Stop requests finalisation. It is only valid while recording.
func (c *Controller) Stop() error {
	c.mu.Lock()
	next, err := fsm.Transition(c.state, fsm.EventStop)
	if err != nil {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrNotRecording, state)
	}
	c.state = next
	c.mu.Unlock()

	c.display.StopRequested()
	select {
	case c.stopRequests <- struct{}{}:
	default:
	}
	return nil
}

// Run executes exactly one capture attempt and always returns to idle.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}
	finish := func(err error) Result {
		result.Err = err
		result.State = c.State()
		result.FinishedAt = time.Now()
		c.log(result)
		return result
	}

	if c.device == nil {
		c.display.ShowStatus(MessageUnsupported)
		return finish(ErrCaptureUnsupported)
	}

	c.mu.Lock()
	if c.opening || c.state != fsm.StateIdle {
		c.mu.Unlock()
		return finish(ErrBusy)
	}
	c.opening = true
	c.mu.Unlock()

	selection, ok := c.display.BeginOpening()
	if !ok {
		c.mu.Lock()
		c.opening = false
		c.mu.Unlock()

		c.display.ShowStatus(MessageNoSelection)
		return finish(ErrNoSelection)
	}
	result.ItemID = selection.ItemID
	result.Type = selection.Type

	stream, err := c.device.Open(ctx)
	if err != nil {
		c.mu.Lock()
		c.opening = false
		c.mu.Unlock()

		c.display.EndCapture()
		c.display.ShowStatus(fmt.Sprintf(MessagePermissionFmt, err))
		c.indicator.CueError(context.Background())
		return finish(fmt.Errorf("open capture device: %w", err))
	}

	c.display.BeginCapture()
	c.mu.Lock()
	c.opening = false
	c.drainStopRequestsLocked()
	c.state, _ = fsm.Transition(c.state, fsm.EventStart)
	c.mu.Unlock()

	chunks := make([][]byte, 0, 64)
	defer func() {
		_ = stream.Release()
		if c.State() != fsm.StateIdle {
			c.toErrorAndReset()
		}
		chunks = nil
		c.display.EndCapture()
	}()

	c.indicator.CueStart(ctx)

	fragments := stream.Fragments()
	closed := false

record:
	for {
		select {
		case <-ctx.Done():
			_ = stream.Release()
			c.display.ShowStatus(MessageCancelled)
			c.toErrorAndReset()
			result.Cancelled = true
			return finish(ctx.Err())
		case <-c.stopRequests:
			break record
		case fragment, ok := <-fragments:
			if !ok {
				closed = true
				if c.State() == fsm.StateStopping {
					break record
				}
				c.display.ShowStatus(MessageStreamEnded)
				c.indicator.CueError(context.Background())
				c.toErrorAndReset()
				return finish(ErrStreamEnded)
			}
			if len(fragment) > 0 {
				chunks = append(chunks, fragment)
			}
		}
	}

	c.indicator.CueStop(context.Background())
	finalizeErr := make(chan error, 1)
	go func() { finalizeErr <- stream.Finalize() }()
	if !closed {
		for fragment := range fragments {
			if len(fragment) > 0 {
				chunks = append(chunks, fragment)
			}
		}
	}
	err = <-finalizeErr
	_ = stream.Release()

	if err != nil {
		c.display.ShowStatus(MessageFinalizeFailed)
		c.indicator.CueError(context.Background())
		c.toErrorAndReset()
		return finish(fmt.Errorf("finalize capture: %w", err))
	}

	result.Fragments = len(chunks)
	if len(chunks) == 0 {
		c.display.ShowStatus(MessageNoAudio)
		_ = c.transition(fsm.EventDiscard)
		return finish(ErrNoAudio)
	}

	payload := submit.Payload{Data: bytes.Join(chunks, nil), MediaType: strings.TrimSpace(stream.MediaType())}
	if payload.MediaType == "" {
		payload.MediaType = submit.DefaultMediaType
	}
	result.Bytes = len(payload.Data)
	result.MediaType = payload.MediaType

	if err := c.transition(fsm.EventFinalize); err != nil {
		c.toErrorAndReset()
		return finish(err)
	}

	outcome, err := c.submitter.Submit(ctx, payload, submit.Request{ItemID: selection.ItemID, Type: selection.Type})
	result.Submitted = true
	if err != nil {
		c.display.ShowStatus(submitMessage(err))
		c.indicator.CueError(context.Background())
		c.toErrorAndReset()
		return finish(err)
	}

	result.Outcome = outcome
	if outcome.Redirected() {
		c.display.Redirect(outcome.RedirectTo, outcome.Message)
	} else {
		c.display.ShowResult(outcome.Transcript, outcome.ScoreText)
		c.indicator.CueComplete(context.Background())
	}
	if err := c.transition(fsm.EventSubmitted); err != nil {
		return finish(err)
	}
	return finish(nil)
}

func (c *Controller) drainStopRequestsLocked() {
	for {
		select {
		case <-c.stopRequests:
		default:
			return
		}
	}
}

func submitMessage(err error) string {
	var subErr *submit.Error
	if errors.As(err, &subErr) && subErr.Message != "" {
		return subErr.Message
	}
	return fmt.Sprintf(MessageSubmitFailedFmt, err)
}

func (c *Controller) log(result Result) {
	if c.logger == nil {
		return
	}
	attrs := []any{
		"state", string(result.State),
		"item_id", string(result.ItemID),
		"content_type", string(result.Type),
		"fragments", result.Fragments,
		"bytes", result.Bytes,
		"media_type", result.MediaType,
		"submitted", result.Submitted,
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
	}
	if result.Err != nil {
		c.logger.Error("capture failed", append(attrs, "error", result.Err.Error(), "cancelled", result.Cancelled)...)
		return
	}
	c.logger.Info("capture complete", append(attrs, "score", result.Outcome.Score, "redirect", result.Outcome.Redirected())...)
}
