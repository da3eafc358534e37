package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearReciteEnv(t *testing.T) {
	t.Helper()
	for _, override := range envOverrides {
		t.Setenv(override.name, "")
	}
}

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.jsonc"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "recite", "config.jsonc"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "recite", "config.jsonc"), resolved)
}

func TestStatePathPrefersXDG(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	path, err := StatePath("progress.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(state, "recite", "progress.db"), path)

	t.Setenv("XDG_STATE_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	path, err = StatePath("log.jsonl")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "state", "recite", "log.jsonl"), path)
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	clearReciteEnv(t)
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "missing.jsonc")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExistingJSONCAppliesEnvironmentLast(t *testing.T) {
	clearReciteEnv(t)
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "config.jsonc")
	contents := `
{
  "server": { "url": "http://file.example:5000", "token": "file-token" },
  "auth": { "secret": "file-secret" },
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	t.Setenv("RECITE_TOKEN", "env-token")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, "http://file.example:5000", loaded.Config.Server.URL)
	require.Equal(t, "env-token", loaded.Config.Server.Token)
	require.Equal(t, "file-secret", loaded.Config.Auth.Secret)
	require.Equal(t, []string{"RECITE_TOKEN"}, loaded.EnvKeys)
	require.Empty(t, loaded.Warnings)
}

func TestLoadReadsDotEnvFromWorkingDirectory(t *testing.T) {
	clearReciteEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.Unsetenv("RECITE_AUTH_SECRET"))
	t.Cleanup(func() { _ = os.Unsetenv("RECITE_AUTH_SECRET") })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RECITE_AUTH_SECRET=dotenv-secret\n"), 0o600))

	loaded, err := Load(filepath.Join(dir, "missing.jsonc"))
	require.NoError(t, err)
	require.Equal(t, "dotenv-secret", loaded.Config.Auth.Secret)
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	clearReciteEnv(t)
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "broken.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{ not-json }"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
	require.Contains(t, err.Error(), path)
}

// chdir changes the working directory for the duration of the test, like
// testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(wd)) })
}
