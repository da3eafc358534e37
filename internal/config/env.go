package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// envOverrides maps environment variables onto config fields, in apply order.
// PORT follows RECITE_LISTEN so hosting platforms that only expose PORT win.
var envOverrides = []struct {
	name  string
	apply func(*Config, string)
}{
	{"RECITE_SERVER_URL", func(c *Config, v string) { c.Server.URL = v }},
	{"RECITE_TOKEN", func(c *Config, v string) { c.Server.Token = v }},
	{"RECITE_LISTEN", func(c *Config, v string) { c.Server.Listen = v }},
	{"PORT", func(c *Config, v string) { c.Server.Listen = listenWithPort(c.Server.Listen, v) }},
	{"RECITE_AUTH_SECRET", func(c *Config, v string) { c.Auth.Secret = v }},
	{"RECITE_RECOGNIZER_ENDPOINT", func(c *Config, v string) { c.Recognizer.Endpoint = v }},
	{"RECITE_CATALOG", func(c *Config, v string) { c.Catalog.Path = v }},
	{"RECITE_PROGRESS_DB", func(c *Config, v string) { c.Progress.Path = v }},
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already present in the environment are never overwritten, and a
// missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays non-empty environment overrides onto cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) []string {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	applied := make([]string, 0)
	for _, override := range envOverrides {
		value, ok := lookup(override.name)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		override.apply(cfg, strings.TrimSpace(value))
		applied = append(applied, override.name)
	}
	return applied
}

func listenWithPort(listen string, port string) string {
	host := ""
	if idx := strings.LastIndex(listen, ":"); idx >= 0 {
		host = listen[:idx]
	}
	if host == "" {
		host = "0.0.0.0"
	}
	return host + ":" + port
}
