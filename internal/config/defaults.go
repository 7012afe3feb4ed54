package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Defaults applied to any field left empty by the config file.
const (
	DefaultVersion            = "1"
	DefaultHTTPPort           = 8000
	DefaultShutdownTimeout    = 15 * time.Second
	DefaultRunnerBin          = "mms-tts-runner"
	DefaultRunnerDevice       = "auto"
	DefaultRunnerBasePort     = 18100
	DefaultRunnerReadyTimeout = 2 * time.Minute
	DefaultLanguage           = "mon"
	DefaultBackend            = "vits"
	DefaultTranslateTimeout   = 10 * time.Second
	DefaultRequestsPerMinute  = 60
	GoogleTranslateEndpoint   = "https://translate.googleapis.com/translate_a/single"
	MyMemoryEndpoint          = "https://api.mymemory.translated.net/get"
)

// DefaultAllowedOrigins are the browser origins allowed by CORS.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"https://translator.souravrax.com",
}

// defaultCatalog maps language ids to MMS checkpoints on the Hugging Face hub.
var defaultCatalog = map[string]string{
	"mon": "facebook/mms-tts-mon",
	"eng": "facebook/mms-tts-eng",
	"tha": "facebook/mms-tts-tha",
	"ben": "facebook/mms-tts-ben",
	"hin": "facebook/mms-tts-hin",
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	cfg := &Config{Languages: map[string]ModelConfig{}}
	for id, repo := range defaultCatalog {
		var m ModelConfig
		m.SetHuggingFaceSource(HuggingFaceSource{Repo: repo})
		cfg.Languages[id] = m
	}
	ApplyDefaults(cfg)

	return cfg
}

// ApplyDefaults fills every unset field of cfg with its default.
func ApplyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}

	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = DefaultHTTPPort
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = append([]string(nil), DefaultAllowedOrigins...)
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Runner.BinPath == "" {
		cfg.Runner.BinPath = DefaultRunnerBin
	}
	if cfg.Runner.Device == "" {
		cfg.Runner.Device = DefaultRunnerDevice
	}
	if cfg.Runner.BasePort == 0 {
		cfg.Runner.BasePort = DefaultRunnerBasePort
	}
	if cfg.Runner.ReadyTimeout == 0 {
		cfg.Runner.ReadyTimeout = DefaultRunnerReadyTimeout
	}

	for id, m := range cfg.Languages {
		if m.Backend == "" {
			m.Backend = DefaultBackend
			cfg.Languages[id] = m
		}
	}

	tr := &cfg.Translation
	if tr.Provider == "" {
		tr.Provider = ProviderGoogle
	}
	if tr.Endpoint == "" {
		switch tr.Provider {
		case ProviderGoogle:
			tr.Endpoint = GoogleTranslateEndpoint
		case ProviderMyMemory:
			tr.Endpoint = MyMemoryEndpoint
		}
	}
	if tr.Timeout == 0 {
		tr.Timeout = DefaultTranslateTimeout
	}
	if tr.RequestsPerMinute == 0 {
		tr.RequestsPerMinute = DefaultRequestsPerMinute
	}
}

// DefaultConfigPath returns the default path for the speechgate config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "speechgate", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "speechgate")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "speechgate")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "speechgate")
		}
		return filepath.Join(home, ".config", "speechgate")
	}
}

// DefaultModelsPath returns the default path for the speechgate models directory.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "speechgate", "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "speechgate", "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "speechgate", "models")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "speechgate", "models")
		}
		return filepath.Join(home, ".cache", "speechgate", "models")
	}
}
