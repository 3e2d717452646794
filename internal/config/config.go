// Package config loads the valve's TOML configuration with environment
// overrides.
package config

// #region imports
import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// #endregion imports

// #region types

// Config is the full controller configuration.
type Config struct {
	ManifestPath string `toml:"manifest"`
	CacheDB      string `toml:"cache_db"`
	LogLevel     string `toml:"log_level"`

	Provider Provider `toml:"provider"`
}

// Provider configures the embedding and generation backends.
type Provider struct {
	Kind string `toml:"kind"` // "genai" | "ollama"

	OllamaEndpoint string `toml:"ollama_endpoint"`
	OllamaModel    string `toml:"ollama_model"`

	GenAIAPIKey     string `toml:"genai_api_key"`
	GenAIModel      string `toml:"genai_model"`
	GenerationModel string `toml:"generation_model"`
}

// #endregion types

// #region defaults

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ManifestPath: "core_manifest.json",
		CacheDB:      "anchor_cache.db",
		LogLevel:     "info",
		Provider: Provider{
			Kind:            "ollama",
			OllamaEndpoint:  "http://localhost:11434",
			OllamaModel:     "embeddinggemma",
			GenAIModel:      "gemini-embedding-001",
			GenerationModel: "gemini-2.5-flash",
		},
	}
}

// #endregion defaults

// #region load

// Load reads a TOML file, fills defaults, applies env overrides, and
// validates. An empty path skips the file and uses defaults + env only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ManifestPath = envOr("VALVE_MANIFEST", cfg.ManifestPath)
	cfg.CacheDB = envOr("VALVE_DB", cfg.CacheDB)
	cfg.Provider.Kind = envOr("VALVE_PROVIDER", cfg.Provider.Kind)
	cfg.Provider.GenAIAPIKey = envOr("GEMINI_API_KEY", cfg.Provider.GenAIAPIKey)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load

// #region validate

// Validate rejects configurations the process cannot start with.
func Validate(cfg Config) error {
	if cfg.ManifestPath == "" {
		return fmt.Errorf("manifest path is required")
	}
	switch cfg.Provider.Kind {
	case "ollama":
	case "genai":
		if cfg.Provider.GenAIAPIKey == "" {
			return fmt.Errorf("genai provider requires an api key (GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
	return nil
}

// #endregion validate

// #region embed-model

// EmbedModel returns the embedding model name for the configured provider,
// used as part of the anchor-cache key.
func (c Config) EmbedModel() string {
	if c.Provider.Kind == "genai" {
		return c.Provider.GenAIModel
	}
	return c.Provider.OllamaModel
}

// #endregion embed-model
