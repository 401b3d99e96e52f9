// Package config loads the solver configuration from YAML with environment
// overrides. The session reads it once at start; the core treats it as
// immutable afterwards.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"merlinsolver/internal/embedding"
)

// Config holds all solver configuration.
type Config struct {
	// ResourceTier selects the reconstruction strategy: low, medium, high.
	ResourceTier string `yaml:"resource_tier"`

	// Per-level limits
	MaxQuestions int `yaml:"max_questions_per_level"`
	MaxRetries   int `yaml:"max_retries_per_level"`
	MaxLevels    int `yaml:"max_levels"`

	// Game channel
	Game GameConfig `yaml:"game"`

	// Generative oracle (high tier)
	LLM LLMConfig `yaml:"llm"`

	// Embedding engine (medium/high tier ranking)
	Embedding embedding.Config `yaml:"embedding"`

	// Lexicon store
	Store StoreConfig `yaml:"store"`
}

// GameConfig configures the oracle channel.
type GameConfig struct {
	URL        string `yaml:"url"`
	Headless   bool   `yaml:"headless"`
	Manual     bool   `yaml:"manual"`
	AskTimeout string `yaml:"ask_timeout"` // Go duration, e.g. "30s"
}

// LLMConfig configures the generative oracle.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// StoreConfig configures the word lexicon database.
type StoreConfig struct {
	Path string `yaml:"path"` // empty means in-memory
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		ResourceTier: "low",
		MaxQuestions: 10,
		MaxRetries:   10,
		MaxLevels:    6,
		Game: GameConfig{
			URL:        "https://hackmerlin.io/",
			Headless:   true,
			AskTimeout: "30s",
		},
		LLM: LLMConfig{
			Model: "gemini-2.5-flash",
		},
		Embedding: embedding.DefaultConfig(),
	}
}

// Load reads the config file at path (optional) over the defaults, then
// applies environment overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnvOverrides maps well-known environment variables onto the config.
// GEMINI_API_KEY takes precedence over GOOGLE_API_KEY.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if c.Embedding.GenAIAPIKey == "" {
		c.Embedding.GenAIAPIKey = c.LLM.APIKey
	}
	if v := os.Getenv("MERLIN_MANUAL"); v == "1" || v == "true" {
		c.Game.Manual = true
	}
	if url := os.Getenv("MERLIN_GAME_URL"); url != "" {
		c.Game.URL = url
	}
}

// Validate rejects configurations the session cannot run with.
func (c *Config) Validate() error {
	switch c.ResourceTier {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("invalid resource_tier %q (use low, medium or high)", c.ResourceTier)
	}
	if c.MaxQuestions < 1 {
		return fmt.Errorf("max_questions_per_level must be positive, got %d", c.MaxQuestions)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries_per_level must be positive, got %d", c.MaxRetries)
	}
	if c.MaxLevels < 1 {
		return fmt.Errorf("max_levels must be positive, got %d", c.MaxLevels)
	}
	if _, err := c.AskTimeout(); err != nil {
		return err
	}
	if c.ResourceTier == "high" && c.LLM.APIKey == "" {
		return fmt.Errorf("resource_tier high requires an API key (set GEMINI_API_KEY)")
	}
	return nil
}

// AskTimeout parses the channel round-trip timeout.
func (c *Config) AskTimeout() (time.Duration, error) {
	if c.Game.AskTimeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Game.AskTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid game.ask_timeout %q: %w", c.Game.AskTimeout, err)
	}
	return d, nil
}
