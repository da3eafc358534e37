package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCreatesWritableJSONLogFile(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	t.Setenv(LevelEnv, "")

	runtime, err := New(Options{})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(state, "recite", "log.jsonl"), runtime.Path)

	runtime.Logger.Info("unit-test-log", "component", "logging")
	runtime.Logger.Debug("hidden-at-info")
	require.NoError(t, runtime.Close())

	contents, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"msg":"unit-test-log"`)
	require.Contains(t, string(contents), `"component":"logging"`)
	require.NotContains(t, string(contents), "hidden-at-info")

	stat, err := os.Stat(runtime.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
}

func TestNewFallsBackToHomeState(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", home)
	t.Setenv(LevelEnv, "")

	runtime, err := New(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = runtime.Close() })
	require.Equal(t, filepath.Join(home, ".local", "state", "recite", "log.jsonl"), runtime.Path)
}

func TestNewMirrorsAndHonoursLevel(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv(LevelEnv, "debug")

	var mirror bytes.Buffer
	runtime, err := New(Options{Mirror: &mirror})
	require.NoError(t, err)
	runtime.Logger.Debug("debug-visible")
	require.NoError(t, runtime.Close())

	require.Contains(t, mirror.String(), `"msg":"debug-visible"`)
}

func TestParseLevel(t *testing.T) {
	level, err := parseLevel("WARN")
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, level)

	_, err = parseLevel("loud")
	require.Error(t, err)
}

func TestOpenDebugSink(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	f, err := OpenDebugSink("recognizer.jsonl")
	require.NoError(t, err)
	_, err = f.WriteString("{}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(filepath.Join(state, "recite", "debug", "recognizer.jsonl"))
	require.NoError(t, err)
	require.Equal(t, "{}\n", string(data))
}
