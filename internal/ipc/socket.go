package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning means another practice owner answered on the socket.
var ErrAlreadyRunning = errors.New("recite practice session already running")

// RuntimeSocketPath returns the owner socket path. RECITE_SOCKET overrides
// the $XDG_RUNTIME_DIR/recite.sock default.
func RuntimeSocketPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("RECITE_SOCKET")); explicit != "" {
		return explicit, nil
	}
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, "recite.sock"), nil
}

// AcquireOptions tunes stale-socket recovery.
type AcquireOptions struct {
	// ProbeTimeout bounds the status request sent to a possible live owner.
	ProbeTimeout time.Duration
	// Retries is how many extra listen attempts follow the first one.
	Retries int
	// OnStale runs after a dead owner's socket file is unlinked.
	OnStale func(path string)
}

// Acquire makes the caller the practice owner by listening on path. A socket
// file nobody answers on is unlinked and the listen retried; a live owner
// yields ErrAlreadyRunning.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}
	probe := Client{Path: path, Timeout: opts.ProbeTimeout}

	var lastErr error
	for attempt := 0; attempt <= opts.Retries+1; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(25*attempt) * time.Millisecond):
			}
		}

		listener, err := listenOwner(path)
		if err == nil {
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, err
		}
		lastErr = err

		alive, err := probe.Alive(ctx)
		if err != nil {
			return nil, fmt.Errorf("socket %s held by an unresponsive process: %w", path, err)
		}
		if alive {
			return nil, ErrAlreadyRunning
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}
		if opts.OnStale != nil {
			opts.OnStale(path)
		}
	}
	return nil, fmt.Errorf("acquire socket %s: %w", path, lastErr)
}

func listenOwner(path string) (net.Listener, error) {
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen unix %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("restrict socket %s: %w", path, err)
	}
	return listener, nil
}
