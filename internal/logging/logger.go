// Package logging configures runtime JSONL logging output.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rbright/recite/internal/config"
)

// LevelEnv overrides the default info level (debug, info, warn, error).
const LevelEnv = "RECITE_LOG_LEVEL"

// Runtime bundles the configured logger and its open file handle lifecycle.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	closer io.Closer
}

// Close flushes and closes the logger output sink.
func (r Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Options tunes New. Mirror receives a copy of every line when set.
type Options struct {
	Mirror io.Writer
}

// New builds a JSONL logger at $XDG_STATE_HOME/recite/log.jsonl.
func New(opts Options) (Runtime, error) {
	path, err := config.StatePath("log.jsonl")
	if err != nil {
		return Runtime{}, err
	}
	f, err := openStateFile(path)
	if err != nil {
		return Runtime{}, err
	}

	level, err := parseLevel(os.Getenv(LevelEnv))
	if err != nil {
		_ = f.Close()
		return Runtime{}, err
	}

	var out io.Writer = f
	if opts.Mirror != nil {
		out = io.MultiWriter(f, opts.Mirror)
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return Runtime{Logger: slog.New(h), Path: path, closer: f}, nil
}

// OpenDebugSink opens (appending) a debug artifact file in the state dir.
func OpenDebugSink(name string) (*os.File, error) {
	path, err := config.StatePath(filepath.Join("debug", name))
	if err != nil {
		return nil, err
	}
	return openStateFile(path)
}

func openStateFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
}

func parseLevel(raw string) (slog.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid %s %q: %w", LevelEnv, raw, err)
	}
	return level, nil
}
