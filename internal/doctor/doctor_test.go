package doctor

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rbright/recite/internal/auth"
	"github.com/rbright/recite/internal/config"
	"github.com/stretchr/testify/require"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestCheckConfig(t *testing.T) {
	check := checkConfig(config.Loaded{Path: "/tmp/c.jsonc", Exists: true})
	require.True(t, check.Pass)
	require.Equal(t, `loaded "/tmp/c.jsonc"`, check.Message)

	check = checkConfig(config.Loaded{
		Path:     "/tmp/missing.jsonc",
		Warnings: []config.Warning{{Message: "x"}},
		EnvKeys:  []string{"RECITE_TOKEN"},
	})
	require.Contains(t, check.Message, "not found, using defaults")
	require.Contains(t, check.Message, "(1 warnings)")
	require.Contains(t, check.Message, "RECITE_TOKEN")
}

func TestCheckCatalog(t *testing.T) {
	check := checkCatalog("")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "built-in: 4 sentences, 3 paragraphs")

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"sentences": []}`), 0o600))
	check = checkCatalog(empty)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "0 sentences, 0 paragraphs")
}

func TestCheckServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	t.Cleanup(ts.Close)

	check := checkServer(context.Background(), config.ServerConfig{URL: ts.URL})
	require.True(t, check.Pass, check.Message)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(failing.Close)
	require.False(t, checkServer(context.Background(), config.ServerConfig{URL: failing.URL}).Pass)

	require.False(t, checkServer(context.Background(), config.ServerConfig{URL: ""}).Pass)
}

func TestCheckToken(t *testing.T) {
	require.False(t, checkToken("", config.AuthConfig{}).Pass)

	check := checkToken("opaque", config.AuthConfig{})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "not verified locally")

	issuer, err := auth.NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	token, err := issuer.Issue("learner@example.com", auth.RoleUser)
	require.NoError(t, err)

	check = checkToken(token, config.AuthConfig{Secret: "s3cret", TokenTTLHours: 1})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "learner@example.com")

	check = checkToken(token, config.AuthConfig{Secret: "other", TokenTTLHours: 1})
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "rejected")
}

func TestCheckRecognizerProbeFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	check := checkRecognizer(context.Background(), config.RecognizerConfig{Endpoint: addr, Insecure: true})
	require.False(t, check.Pass)
	require.Equal(t, "recognizer.ready", check.Name)
}

func TestCheckRecognizerCredentials(t *testing.T) {
	creds := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(creds, []byte(`{}`), 0o600))
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", creds)

	check := checkRecognizer(context.Background(), config.RecognizerConfig{})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, creds)

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", filepath.Join(t.TempDir(), "missing.json"))
	require.False(t, checkRecognizer(context.Background(), config.RecognizerConfig{}).Pass)
}

func TestCredentialsPathUsesGcloudConfigDir(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	dir := t.TempDir()
	t.Setenv("CLOUDSDK_CONFIG", dir)

	_, err := credentialsPath()
	require.Error(t, err)

	adc := filepath.Join(dir, "application_default_credentials.json")
	require.NoError(t, os.WriteFile(adc, []byte(`{}`), 0o600))
	path, err := credentialsPath()
	require.NoError(t, err)
	require.Equal(t, adc, path)
}
