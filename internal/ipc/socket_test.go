package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireCreatesPrivateSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "recite.sock")

	listener, err := Acquire(context.Background(), path, AcquireOptions{ProbeTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer listener.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAcquireRecoversStaleSocket(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "recite.sock")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	var unlinked []string
	listener, err := Acquire(context.Background(), path, AcquireOptions{
		ProbeTimeout: 50 * time.Millisecond,
		OnStale:      func(p string) { unlinked = append(unlinked, p) },
	})
	require.NoError(t, err)
	defer listener.Close()

	require.Equal(t, []string{path}, unlinked)
}

func TestAcquireRefusesWhenOwnerAnswers(t *testing.T) {
	t.Parallel()

	path := startOwner(t, func(context.Context, Request) Response {
		return Response{OK: true, State: "recording"}
	})

	_, err := Acquire(context.Background(), path, AcquireOptions{ProbeTimeout: 80 * time.Millisecond, Retries: 1})
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestAcquireKeepsSocketOfUnresponsiveHolder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "recite.sock")
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)

	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				time.Sleep(250 * time.Millisecond)
			}()
		}
	}()

	_, err = Acquire(context.Background(), path, AcquireOptions{ProbeTimeout: 30 * time.Millisecond})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAlreadyRunning)
	require.Contains(t, err.Error(), "unresponsive")

	require.FileExists(t, path)
	require.NoError(t, listener.Close())
	<-acceptDone
}

func TestRuntimeSocketPath(t *testing.T) {
	t.Setenv("RECITE_SOCKET", "")
	t.Setenv("XDG_RUNTIME_DIR", "")
	_, err := RuntimeSocketPath()
	require.ErrorContains(t, err, "XDG_RUNTIME_DIR")

	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	path, err := RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(runtimeDir, "recite.sock"), path)

	t.Setenv("RECITE_SOCKET", " /tmp/custom.sock ")
	path, err = RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.sock", path)
}
