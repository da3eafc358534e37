// Package config resolves, parses, validates, and defaults recite configuration.
package config

// Config is the fully materialized runtime configuration used by recite.
type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	Audio      AudioConfig
	Recognizer RecognizerConfig
	Catalog    CatalogConfig
	Progress   ProgressConfig
	Indicator  IndicatorConfig
	Debug      DebugConfig
}

// ServerConfig covers both the client's view of the practice server and the
// listen address used by `recite serve`.
type ServerConfig struct {
	URL       string
	Listen    string
	Token     string
	TimeoutMS int
	// Metrics exposes /metrics on `recite serve`.
	Metrics bool
}

// AuthConfig controls session token signing on the server.
type AuthConfig struct {
	Secret        string
	TokenTTLHours int
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// RecognizerConfig controls the speech-to-text backend used by the server.
type RecognizerConfig struct {
	Endpoint     string
	Insecure     bool
	LanguageCode string
	Model        string
}

// CatalogConfig points at an optional practice catalog file.
type CatalogConfig struct {
	Path string
}

// ProgressConfig controls the server-side practice history store.
type ProgressConfig struct {
	Path         string
	HistoryLimit int
}

// IndicatorConfig controls audible capture cues.
type IndicatorConfig struct {
	SoundEnable bool
	// Volume scales cue loudness, 0 to 1.
	Volume float64
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	RecognizerDump bool
	AudioDump      bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
