// Package doctor runs readiness diagnostics for config, catalog, server,
// audio, and the recognizer backend.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/recite/internal/audio"
	"github.com/rbright/recite/internal/auth"
	"github.com/rbright/recite/internal/catalog"
	"github.com/rbright/recite/internal/config"
	"github.com/rbright/recite/internal/recognizer"
	"github.com/rbright/recite/internal/submit"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes every check for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	return Report{Checks: []Check{
		checkConfig(loaded),
		checkCatalog(cfg.Catalog.Path),
		checkServer(ctx, cfg.Server),
		checkToken(cfg.Server.Token, cfg.Auth),
		checkAudioSelection(ctx, cfg.Audio),
		checkRecognizer(ctx, cfg.Recognizer),
	}}
}

func checkConfig(loaded config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		message = fmt.Sprintf("%q not found, using defaults", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 {
		message += fmt.Sprintf(" (%d warnings)", n)
	}
	if len(loaded.EnvKeys) > 0 {
		message += " env: " + strings.Join(loaded.EnvKeys, ",")
	}
	return Check{Name: "config", Pass: true, Message: message}
}

func checkCatalog(path string) Check {
	cat, warnings, err := catalog.Resolve(path)
	if err != nil {
		return Check{Name: "catalog", Pass: false, Message: err.Error()}
	}

	source := "built-in"
	if strings.TrimSpace(path) != "" {
		source = path
	}
	message := fmt.Sprintf("%s: %d sentences, %d paragraphs", source, len(cat.Sentences), len(cat.Paragraphs))
	if len(warnings) > 0 {
		message += fmt.Sprintf(" (%d warnings, first: %s)", len(warnings), warnings[0].Message)
	}
	if cat.Empty() {
		return Check{Name: "catalog", Pass: false, Message: message}
	}
	return Check{Name: "catalog", Pass: true, Message: message}
}

func checkServer(ctx context.Context, cfg config.ServerConfig) Check {
	client, err := submit.NewClient(submit.ClientConfig{
		BaseURL: cfg.URL,
		Token:   cfg.Token,
		Timeout: probeTimeout,
	})
	if err != nil {
		return Check{Name: "server.health", Pass: false, Message: err.Error()}
	}
	if err := client.Health(ctx); err != nil {
		return Check{Name: "server.health", Pass: false, Message: err.Error()}
	}
	return Check{Name: "server.health", Pass: true, Message: fmt.Sprintf("reachable at %s", cfg.URL)}
}

// checkToken verifies the client token locally when this machine also holds
// the signing secret.
func checkToken(token string, authCfg config.AuthConfig) Check {
	if strings.TrimSpace(token) == "" {
		return Check{Name: "server.token", Pass: false, Message: "server.token is empty; mint one with `recite token EMAIL`"}
	}
	if strings.TrimSpace(authCfg.Secret) == "" {
		return Check{Name: "server.token", Pass: true, Message: "token configured (not verified locally)"}
	}

	issuer, err := auth.NewIssuer(authCfg.Secret, time.Duration(authCfg.TokenTTLHours)*time.Hour)
	if err != nil {
		return Check{Name: "server.token", Pass: false, Message: err.Error()}
	}
	claims, err := issuer.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return Check{Name: "server.token", Pass: false, Message: "token expired"}
		}
		return Check{Name: "server.token", Pass: false, Message: "token rejected by auth.secret"}
	}
	message := fmt.Sprintf("valid for %s", claims.Email)
	if claims.ExpiresAt != nil {
		message += fmt.Sprintf(" until %s", claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return Check{Name: "server.token", Pass: true, Message: message}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.AudioConfig) Check {
	selection, err := audio.SelectSource(ctx, cfg.Input, cfg.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Source.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkRecognizer probes an explicit endpoint, or looks for application
// default credentials when the managed API is used.
func checkRecognizer(ctx context.Context, cfg config.RecognizerConfig) Check {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint != "" && cfg.Insecure {
		if err := recognizer.Probe(ctx, endpoint, probeTimeout); err != nil {
			return Check{Name: "recognizer.ready", Pass: false, Message: err.Error()}
		}
		return Check{Name: "recognizer.ready", Pass: true, Message: fmt.Sprintf("ready at %s", endpoint)}
	}

	path, err := credentialsPath()
	if err != nil {
		return Check{Name: "recognizer.credentials", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("credentials at %s", path)
	if endpoint != "" {
		message += fmt.Sprintf(" for %s", endpoint)
	}
	return Check{Name: "recognizer.credentials", Pass: true, Message: message}
}

func credentialsPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS: %w", err)
		}
		return explicit, nil
	}

	var candidate string
	if dir := strings.TrimSpace(os.Getenv("CLOUDSDK_CONFIG")); dir != "" {
		candidate = filepath.Join(dir, "application_default_credentials.json")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New("unable to resolve user home for application default credentials")
		}
		candidate = filepath.Join(home, ".config", "gcloud", "application_default_credentials.json")
	}
	if _, err := os.Stat(candidate); err != nil {
		return "", errors.New("no application default credentials; set GOOGLE_APPLICATION_CREDENTIALS or run `gcloud auth application-default login`")
	}
	return candidate, nil
}
