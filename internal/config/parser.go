package config

import (
	"strings"

	"github.com/rbright/recite/internal/jsonc"
)

type fileConfig struct {
	Server     *fileServer     `json:"server"`
	Auth       *fileAuth       `json:"auth"`
	Audio      *fileAudio      `json:"audio"`
	Recognizer *fileRecognizer `json:"recognizer"`
	Catalog    *fileCatalog    `json:"catalog"`
	Progress   *fileProgress   `json:"progress"`
	Indicator  *fileIndicator  `json:"indicator"`
	Debug      *fileDebug      `json:"debug"`
}

type fileServer struct {
	URL       *string `json:"url"`
	Listen    *string `json:"listen"`
	Token     *string `json:"token"`
	TimeoutMS *int    `json:"timeout_ms"`
	Metrics   *bool   `json:"metrics"`
}

type fileAuth struct {
	Secret        *string `json:"secret"`
	TokenTTLHours *int    `json:"token_ttl_hours"`
}

type fileAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type fileRecognizer struct {
	Endpoint     *string `json:"endpoint"`
	Insecure     *bool   `json:"insecure"`
	LanguageCode *string `json:"language_code"`
	Model        *string `json:"model"`
}

type fileCatalog struct {
	Path *string `json:"path"`
}

type fileProgress struct {
	Path         *string `json:"path"`
	HistoryLimit *int    `json:"history_limit"`
}

type fileIndicator struct {
	SoundEnable *bool    `json:"sound_enable"`
	Volume      *float64 `json:"volume"`
}

type fileDebug struct {
	RecognizerDump *bool `json:"recognizer_dump"`
	AudioDump      *bool `json:"audio_dump"`
}

// Parse decodes JSONC content over base and validates the result.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg := base
	if strings.TrimSpace(content) != "" {
		var payload fileConfig
		if err := jsonc.Decode(content, &payload, true); err != nil {
			return Config{}, nil, err
		}
		payload.applyTo(&cfg)
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload fileConfig) applyTo(cfg *Config) {
	if s := payload.Server; s != nil {
		setString(&cfg.Server.URL, s.URL)
		setString(&cfg.Server.Listen, s.Listen)
		setString(&cfg.Server.Token, s.Token)
		setInt(&cfg.Server.TimeoutMS, s.TimeoutMS)
		setBool(&cfg.Server.Metrics, s.Metrics)
	}

	if a := payload.Auth; a != nil {
		setString(&cfg.Auth.Secret, a.Secret)
		setInt(&cfg.Auth.TokenTTLHours, a.TokenTTLHours)
	}

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}

	if r := payload.Recognizer; r != nil {
		setString(&cfg.Recognizer.Endpoint, r.Endpoint)
		setBool(&cfg.Recognizer.Insecure, r.Insecure)
		setString(&cfg.Recognizer.LanguageCode, r.LanguageCode)
		setString(&cfg.Recognizer.Model, r.Model)
	}

	if c := payload.Catalog; c != nil {
		setString(&cfg.Catalog.Path, c.Path)
	}

	if p := payload.Progress; p != nil {
		setString(&cfg.Progress.Path, p.Path)
		setInt(&cfg.Progress.HistoryLimit, p.HistoryLimit)
	}

	if payload.Indicator != nil {
		setBool(&cfg.Indicator.SoundEnable, payload.Indicator.SoundEnable)
		if payload.Indicator.Volume != nil {
			cfg.Indicator.Volume = *payload.Indicator.Volume
		}
	}
	if payload.Debug != nil {
		setBool(&cfg.Debug.RecognizerDump, payload.Debug.RecognizerDump)
		setBool(&cfg.Debug.AudioDump, payload.Debug.AudioDump)
	}
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func setInt(dst *int, value *int) {
	if value != nil {
		*dst = *value
	}
}

func setBool(dst *bool, value *bool) {
	if value != nil {
		*dst = *value
	}
}
