package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/jfreymuth/pulse"
)

const (
	cueSampleRate = 16000
	noteGap       = 22 * time.Millisecond
	maxRamp       = 5 * time.Millisecond
)

type note struct {
	hz  float64
	dur time.Duration
}

// melody is a cue's notes, played in order with noteGap between them.
type melody struct {
	gain  float64
	notes []note
}

var melodies = map[cueKind]melody{
	cueStart:    {gain: 0.18, notes: []note{{880, 70 * time.Millisecond}, {1175, 70 * time.Millisecond}}},
	cueStop:     {gain: 0.18, notes: []note{{620, 120 * time.Millisecond}}},
	cueComplete: {gain: 0.18, notes: []note{{740, 65 * time.Millisecond}, {988, 90 * time.Millisecond}}},
	cueError:    {gain: 0.2, notes: []note{{440, 90 * time.Millisecond}, {330, 140 * time.Millisecond}}},
}

// renderMelodies renders every cue at the given volume. A silent volume
// yields an empty table.
func renderMelodies(volume float64) map[cueKind][]int16 {
	out := make(map[cueKind][]int16, len(melodies))
	for kind, m := range melodies {
		if pcm := m.render(volume); len(pcm) > 0 {
			out[kind] = pcm
		}
	}
	return out
}

func (m melody) render(volume float64) []int16 {
	gain := m.gain * volume
	if gain <= 0 {
		return nil
	}

	gap := make([]int16, sampleCount(noteGap))
	var pcm []int16
	for i, n := range m.notes {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, n.render(gain)...)
	}
	return pcm
}

// render synthesizes a sine with a short linear ramp at both ends so the
// speaker does not click.
func (n note) render(gain float64) []int16 {
	count := sampleCount(n.dur)
	if count == 0 || n.hz <= 0 || gain <= 0 {
		return nil
	}
	ramp := float64(max(min(count/10, sampleCount(maxRamp)), 1))
	step := 2 * math.Pi * n.hz / cueSampleRate

	pcm := make([]int16, count)
	for i := range pcm {
		envelope := min(1, float64(i)/ramp, float64(count-1-i)/ramp)
		pcm[i] = int16(math.Round(math.Sin(step*float64(i)) * gain * envelope * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}

// sampleQueue feeds a fixed buffer to a pulse playback stream.
type sampleQueue struct {
	rest []int16
}

func (q *sampleQueue) read(buf []int16) (int, error) {
	n := copy(buf, q.rest)
	q.rest = q.rest[n:]
	if len(q.rest) == 0 {
		return n, pulse.EndOfData
	}
	return n, nil
}

// playPulse blocks until samples have drained through the default sink.
func playPulse(samples []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("recite"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	queue := &sampleQueue{rest: samples}
	stream, err := client.NewPlayback(
		pulse.Int16Reader(queue.read),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("recite cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}
