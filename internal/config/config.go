package config

import (
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	AI      AIConfig
	Owner   OwnerConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port     int
	MaxConns int
}

type StorageConfig struct {
	// Backend selects the notes.Store implementation: "sqlite" or "memory".
	Backend string
	DataDir string
}

type AIConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
}

type OwnerConfig struct {
	// ID is the owner identity attached to every authenticated request.
	// Single-tenant deployments set it once; a multi-tenant authenticator
	// would resolve it per session instead.
	ID string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:     8787,
			MaxConns: 64,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			DataDir: defaultDataDir(),
		},
		AI: AIConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.5,
		},
		Owner: OwnerConfig{
			ID: "local-user",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend
// ($XDG_CONFIG_HOME/notesd/config.json), then applies NOTESD_* environment
// overrides. The AI API key comes from NOTESD_AI_API_KEY or the secrets
// file; it is never stored in plain config.
func Load() (Config, error) {
	return loadWith(newFileBackend(), fileSecrets{})
}

// secretReader abstracts secret storage for testing.
type secretReader interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, sr secretReader) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Fall back to the secrets file for the API key if still empty.
	if cfg.AI.APIKey == "" {
		if key, err := sr.Get("notesd", "ai_api_key"); err == nil && key != "" {
			cfg.AI.APIKey = key
		}
	}

	if cfg.AI.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: AI API key. Set it via environment variable NOTESD_AI_API_KEY")
	}

	return cfg, nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "notesd-data"
		}
	}
	return filepath.Join(dir, "notesd")
}
