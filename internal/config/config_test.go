package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "low", cfg.ResourceTier)
	assert.Equal(t, 10, cfg.MaxQuestions)
	assert.True(t, cfg.Game.Headless)

	d, err := cfg.AskTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merlin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
resource_tier: medium
max_levels: 2
game:
  manual: true
  ask_timeout: 10s
embedding:
  provider: genai
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "medium", cfg.ResourceTier)
	assert.Equal(t, 2, cfg.MaxLevels)
	assert.True(t, cfg.Game.Manual)
	assert.Equal(t, "genai", cfg.Embedding.Provider)

	// Untouched fields keep their defaults.
	assert.Equal(t, 10, cfg.MaxQuestions)
	assert.Equal(t, "https://hackmerlin.io/", cfg.Game.URL)

	d, err := cfg.AskTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, d)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("gemini key wins over google key", func(t *testing.T) {
		t.Setenv("GOOGLE_API_KEY", "google-key")
		t.Setenv("GEMINI_API_KEY", "gemini-key")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "gemini-key", cfg.LLM.APIKey)
		assert.Equal(t, "gemini-key", cfg.Embedding.GenAIAPIKey)
	})

	t.Run("manual and game url", func(t *testing.T) {
		t.Setenv("MERLIN_MANUAL", "1")
		t.Setenv("MERLIN_GAME_URL", "http://localhost:8080/")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.True(t, cfg.Game.Manual)
		assert.Equal(t, "http://localhost:8080/", cfg.Game.URL)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad tier", func(c *Config) { c.ResourceTier = "extreme" }},
		{"zero questions", func(c *Config) { c.MaxQuestions = 0 }},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }},
		{"zero levels", func(c *Config) { c.MaxLevels = 0 }},
		{"bad timeout", func(c *Config) { c.Game.AskTimeout = "soon" }},
		{"high tier without key", func(c *Config) { c.ResourceTier = "high" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("high tier with key", func(t *testing.T) {
		cfg := Default()
		cfg.ResourceTier = "high"
		cfg.LLM.APIKey = "k"
		assert.NoError(t, cfg.Validate())
	})
}
