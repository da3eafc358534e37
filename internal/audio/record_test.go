package audio

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func drain(ch <-chan []byte) [][]byte {
	var out [][]byte
	for fragment := range ch {
		out = append(out, fragment)
	}
	return out
}

func TestRecordingSplitsFragmentsAndFinalizeFlushesTail(t *testing.T) {
	rec := newRecording(Source{ID: "mic"})

	input := make([]byte, fragmentBytes*2+111)
	for i := range input {
		input[i] = byte(i % 251)
	}

	n, err := rec.onPCM(input)
	require.NoError(t, err)
	require.Equal(t, len(input), n)
	require.Equal(t, int64(len(input)), rec.BytesCaptured())

	done := make(chan [][]byte)
	go func() { done <- drain(rec.Fragments()) }()

	require.NoError(t, rec.Finalize())
	fragments := <-done

	require.Len(t, fragments, 3)
	require.Len(t, fragments[0], fragmentBytes)
	require.Len(t, fragments[2], 111)

	var joined []byte
	for _, f := range fragments {
		joined = append(joined, f...)
	}
	require.Equal(t, input, joined)

	require.NoError(t, rec.Finalize())
	require.NoError(t, rec.Release())
	require.NoError(t, rec.Release())
}

func TestRecordingFinalizeKeepsFragmentsBlockedOnFullBuffer(t *testing.T) {
	rec := newRecording(Source{ID: "mic"})

	var input []byte
	first := make([]byte, fragmentBytes*cap(rec.fragments))
	for i := range first {
		first[i] = byte(i % 249)
	}
	_, err := rec.onPCM(first)
	require.NoError(t, err)
	input = append(input, first...)

	second := make([]byte, fragmentBytes*2+5)
	for i := range second {
		second[i] = byte(i % 13)
	}
	input = append(input, second...)
	written := make(chan int, 1)
	go func() {
		n, _ := rec.onPCM(second)
		written <- n
	}()
	require.Eventually(t, func() bool {
		return rec.BytesCaptured() == int64(len(input))
	}, 2*time.Second, 5*time.Millisecond)

	finalized := make(chan error, 1)
	go func() { finalized <- rec.Finalize() }()
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.finalized
	}, 2*time.Second, 5*time.Millisecond)

	var joined []byte
	for _, f := range drain(rec.Fragments()) {
		joined = append(joined, f...)
	}
	require.NoError(t, <-finalized)
	require.Equal(t, len(second), <-written)
	require.Equal(t, input, joined)
	require.NoError(t, rec.Release())
}

func TestRecordingRejectsPCMAfterFinalize(t *testing.T) {
	rec := newRecording(Source{ID: "mic"})
	require.NoError(t, rec.Finalize())

	n, err := rec.onPCM([]byte{1, 2, 3})
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, int64(0), rec.BytesCaptured())
}

func TestRecordingReleaseWithoutFinalizeClosesFragments(t *testing.T) {
	rec := newRecording(Source{ID: "mic-1"})
	require.Equal(t, "mic-1", rec.Source().ID)
	require.Equal(t, MediaType, rec.MediaType())

	require.NoError(t, rec.Release())
	_, ok := <-rec.Fragments()
	require.False(t, ok)

	require.NoError(t, rec.Finalize())
}

func TestWriterFuncDelegatesWrite(t *testing.T) {
	var got []byte
	writer := writerFunc(func(b []byte) (int, error) {
		got = append(got, b...)
		return len(b), nil
	})

	n, err := writer.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{1, 2, 3}, got)
}
