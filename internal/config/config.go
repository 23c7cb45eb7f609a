package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
	ProviderRules     = "rules"
)

var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderGemini:    "gemini-2.0-flash",
	ProviderOllama:    "llama3.2",
}

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Environment        string  `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel           string  `env:"LOG_LEVEL" envDefault:"info"`
	LogDir             string  `env:"LOG_DIR" envDefault:".log"`
	GameConfig         string  `env:"GAME_CONFIG"`
	LLMProvider        string  `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey       string  `env:"OPENAI_API_KEY"`
	AnthropicAPIKey    string  `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey       string  `env:"GEMINI_API_KEY"`
	OllamaBaseURL      string  `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	LLMModel           string  `env:"LLM_MODEL"`
	ContentRating      string  `env:"CONTENT_RATING" envDefault:"PG13"`
	InterruptionChance float64 `env:"INTERRUPTION_CHANCE" envDefault:"0.1"`
	DecisionCacheSize  int     `env:"DECISION_CACHE_SIZE" envDefault:"128"`
	HistoryLimit       int     `env:"HISTORY_LIMIT" envDefault:"6"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama, ProviderRules:
	default:
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", ErrInvalidConfig, c.LLMProvider)
	}
	if c.InterruptionChance < 0 || c.InterruptionChance > 1 {
		return fmt.Errorf("%w: INTERRUPTION_CHANCE must be between 0 and 1, got %v", ErrInvalidConfig, c.InterruptionChance)
	}
	if c.DecisionCacheSize < 0 {
		return fmt.Errorf("%w: DECISION_CACHE_SIZE must not be negative", ErrInvalidConfig)
	}
	return nil
}

// APIKey returns the key of the selected provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	default:
		return ""
	}
}

// SetAPIKey overrides the key of the selected provider, e.g. from a flag.
func (c *Config) SetAPIKey(key string) {
	switch c.LLMProvider {
	case ProviderOpenAI:
		c.OpenAIAPIKey = key
	case ProviderAnthropic:
		c.AnthropicAPIKey = key
	case ProviderGemini:
		c.GeminiAPIKey = key
	}
}

// Model returns LLM_MODEL or the provider's default model.
func (c *Config) Model() string {
	if c.LLMModel != "" {
		return c.LLMModel
	}
	return defaultModels[c.LLMProvider]
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) GetLogLevel() slog.Level {
	return parseLogLevel(c.LogLevel)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
