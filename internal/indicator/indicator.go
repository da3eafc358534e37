// Package indicator plays the audible cues that mark capture lifecycle steps.
package indicator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rbright/recite/internal/config"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueError
)

// Cues implements the capture controller's indicator contract with short
// synthesized tones.
type Cues struct {
	logger *slog.Logger
	pcm    map[cueKind][]int16
	play   func([]int16) error

	playMu sync.Mutex
	wg     sync.WaitGroup
}

// New renders the cue tones for cfg. Disabled sound leaves the table empty.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Cues {
	c := &Cues{logger: logger, play: playPulse}
	if cfg.SoundEnable {
		c.pcm = renderMelodies(cfg.Volume)
	}
	return c
}

// CueStart marks the microphone opening.
func (c *Cues) CueStart(context.Context) { c.emit(cueStart) }

// CueStop marks the stop request.
func (c *Cues) CueStop(context.Context) { c.emit(cueStop) }

// CueComplete marks a scored attempt.
func (c *Cues) CueComplete(context.Context) { c.emit(cueComplete) }

// CueError marks a failed or abandoned attempt.
func (c *Cues) CueError(context.Context) { c.emit(cueError) }

// Wait blocks until queued cues have finished playing.
func (c *Cues) Wait() { c.wg.Wait() }

// emit plays one cue in the background; cues never overlap.
func (c *Cues) emit(kind cueKind) {
	samples := c.pcm[kind]
	if len(samples) == 0 {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.playMu.Lock()
		defer c.playMu.Unlock()
		if err := c.play(samples); err != nil && c.logger != nil {
			c.logger.Debug("indicator audio cue failed", "cue", int(kind), "error", err.Error())
		}
	}()
}
