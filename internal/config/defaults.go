package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			URL:       "http://127.0.0.1:5000",
			Listen:    "127.0.0.1:5000",
			TimeoutMS: 60000,
			Metrics:   true,
		},
		Auth: AuthConfig{TokenTTLHours: 24},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Recognizer: RecognizerConfig{LanguageCode: "en-US"},
		Progress:   ProgressConfig{HistoryLimit: 50},
		Indicator:  IndicatorConfig{SoundEnable: true, Volume: 1},
	}
}
