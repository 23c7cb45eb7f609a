package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "LOG_LEVEL", "LOG_DIR", "GAME_CONFIG", "LLM_PROVIDER",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OLLAMA_BASE_URL", "LLM_MODEL",
		"CONTENT_RATING", "INTERRUPTION_CHANCE", "DECISION_CACHE_SIZE", "HISTORY_LIMIT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	// No .env file in the test directory; run from a temp dir to be sure.
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ".log", cfg.LogDir)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model())
	assert.InDelta(t, 0.1, cfg.InterruptionChance, 1e-9)
	assert.Equal(t, 128, cfg.DecisionCacheSize)
	assert.Equal(t, 6, cfg.HistoryLimit)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaBaseURL)
	assert.Equal(t, slog.LevelInfo, cfg.GetLogLevel())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LLM_PROVIDER", " Anthropic ")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("LLM_MODEL", "claude-test")
	t.Setenv("INTERRUPTION_CHANCE", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, slog.LevelDebug, cfg.GetLogLevel())
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, "sk-ant", cfg.APIKey())
	assert.Equal(t, "claude-test", cfg.Model())
	assert.Zero(t, cfg.InterruptionChance)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "provider", key: "LLM_PROVIDER", val: "mistral"},
		{name: "chance", key: "INTERRUPTION_CHANCE", val: "1.5"},
		{name: "cache size", key: "DECISION_CACHE_SIZE", val: "-1"},
		{name: "not a number", key: "HISTORY_LIMIT", val: "viele"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("LLM_PROVIDER", "rules")
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSetAPIKey(t *testing.T) {
	cfg := &Config{LLMProvider: ProviderGemini}
	cfg.SetAPIKey("flag-key")
	assert.Equal(t, "flag-key", cfg.GeminiAPIKey)
	assert.Equal(t, "flag-key", cfg.APIKey())
	assert.Equal(t, "gemini-2.0-flash", cfg.Model())

	rules := &Config{LLMProvider: ProviderRules}
	rules.SetAPIKey("ignored")
	assert.Empty(t, rules.APIKey())
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestLoad_Ollama(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.LLMProvider)
	assert.Equal(t, "http://ollama:11434", cfg.OllamaBaseURL)
	assert.Equal(t, "llama3.2", cfg.Model())
	assert.Empty(t, cfg.APIKey())
}
