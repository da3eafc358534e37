package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	serverURL := strings.TrimSpace(cfg.Server.URL)
	if serverURL == "" {
		return nil, fmt.Errorf("server.url must not be empty")
	}
	parsed, err := url.Parse(serverURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("server.url must be an absolute http(s) URL")
	}
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		return nil, fmt.Errorf("server.listen must not be empty")
	}
	if cfg.Server.TimeoutMS < 0 {
		return nil, fmt.Errorf("server.timeout_ms must be >= 0")
	}
	if cfg.Auth.TokenTTLHours <= 0 {
		return nil, fmt.Errorf("auth.token_ttl_hours must be > 0")
	}
	if strings.TrimSpace(cfg.Recognizer.LanguageCode) == "" {
		return nil, fmt.Errorf("recognizer.language_code must not be empty")
	}
	if cfg.Progress.HistoryLimit <= 0 {
		return nil, fmt.Errorf("progress.history_limit must be > 0")
	}

	if cfg.Indicator.Volume < 0 || cfg.Indicator.Volume > 1 {
		return nil, fmt.Errorf("indicator.volume must be between 0 and 1")
	}

	if strings.TrimSpace(cfg.Auth.Secret) == "" {
		warnings = append(warnings, Warning{Message: "auth.secret is empty; `recite serve` and `recite token` will refuse to start"})
	}
	if cfg.Recognizer.Insecure && strings.TrimSpace(cfg.Recognizer.Endpoint) == "" {
		warnings = append(warnings, Warning{Message: "recognizer.insecure has no effect without recognizer.endpoint"})
	}

	return warnings, nil
}
