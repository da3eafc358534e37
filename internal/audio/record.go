package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/rbright/recite/internal/capture"
)

const (
	sampleRate = 16000
	// fragmentBytes is 100ms of 16kHz mono s16.
	fragmentBytes = 3200

	// MediaType tags raw little-endian PCM as recorded here.
	MediaType = "audio/L16;rate=16000;channels=1"
)

// Recording streams fixed-size PCM fragments from one Pulse source.
type Recording struct {
	source Source

	client *pulse.Client
	stream *pulse.RecordStream

	fragments chan []byte
	releaseCh chan struct{}

	mu        sync.Mutex
	pending   []byte
	finalized bool
	released  bool

	inflight sync.WaitGroup
	bytes    atomic.Int64
}

// StartRecording opens a 16kHz mono s16 record stream on source.
func StartRecording(_ context.Context, source Source) (*Recording, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	pulseSource, err := client.SourceByID(source.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", source.ID, err)
	}

	rec := newRecording(source)
	rec.client = client

	writer := pulse.NewWriter(writerFunc(rec.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(pulseSource),
		pulse.RecordMono,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordBufferFragmentSize(fragmentBytes),
		pulse.RecordMediaName("recite practice"),
	)
	if err != nil {
		_ = rec.Release()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	rec.stream = stream
	stream.Start()
	return rec, nil
}

func newRecording(source Source) *Recording {
	return &Recording{
		source:    source,
		fragments: make(chan []byte, 64),
		releaseCh: make(chan struct{}),
	}
}

// Source returns the recorded source.
func (r *Recording) Source() Source { return r.source }

// Fragments delivers PCM in capture order and closes after Finalize.
func (r *Recording) Fragments() <-chan []byte { return r.fragments }

// MediaType reports the negotiated sample format.
func (r *Recording) MediaType() string { return MediaType }

// BytesCaptured reports total bytes accepted from Pulse.
func (r *Recording) BytesCaptured() int64 { return r.bytes.Load() }

// Finalize stops the stream, flushes the partial tail fragment, and closes
// Fragments exactly once. Fragments already accepted from Pulse are still
// delivered, so the caller must keep draining Fragments until it closes.
func (r *Recording) Finalize() error {
	r.mu.Lock()
	if r.finalized {
		r.mu.Unlock()
		return nil
	}
	r.finalized = true
	r.mu.Unlock()

	if r.stream != nil {
		r.stream.Stop()
	}
	r.inflight.Wait()

	r.mu.Lock()
	tail := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(tail) > 0 {
		r.fragments <- tail
	}
	close(r.fragments)
	return nil
}

// Release frees the Pulse stream and connection. It is safe on every exit
// path and after Finalize.
func (r *Recording) Release() error {
	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		return nil
	}
	r.released = true
	close(r.releaseCh)
	finalized := r.finalized
	r.finalized = true
	r.mu.Unlock()

	if r.stream != nil {
		if !finalized {
			r.stream.Stop()
		}
		r.stream.Close()
	}
	if r.client != nil {
		r.client.Close()
	}
	if !finalized {
		r.inflight.Wait()
		close(r.fragments)
	}
	return nil
}

// onPCM receives raw Pulse frames and emits fragmentBytes slices.
func (r *Recording) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	if r.finalized {
		r.mu.Unlock()
		return 0, io.EOF
	}
	r.inflight.Add(1)
	r.pending = append(r.pending, buffer...)
	ready := make([][]byte, 0, len(r.pending)/fragmentBytes)
	for len(r.pending) >= fragmentBytes {
		fragment := make([]byte, fragmentBytes)
		copy(fragment, r.pending[:fragmentBytes])
		r.pending = r.pending[fragmentBytes:]
		ready = append(ready, fragment)
	}
	r.mu.Unlock()
	defer r.inflight.Done()

	r.bytes.Add(int64(len(buffer)))

	for _, fragment := range ready {
		select {
		case r.fragments <- fragment:
			continue
		default:
		}
		select {
		case r.fragments <- fragment:
		case <-r.releaseCh:
			return 0, io.EOF
		}
	}
	return len(buffer), nil
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}

// Microphone opens recordings on the configured Pulse source.
type Microphone struct {
	Input    string
	Fallback string
	Logger   *slog.Logger
}

// Open implements capture.Device.
func (m Microphone) Open(ctx context.Context) (capture.Stream, error) {
	selection, err := SelectSource(ctx, m.Input, m.Fallback)
	if err != nil {
		return nil, err
	}
	if selection.Warning != "" && m.Logger != nil {
		m.Logger.Warn("audio source fallback", "warning", selection.Warning, "source", selection.Source.ID)
	}
	return StartRecording(ctx, selection.Source)
}
