package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/derKlinke/buergeramt/internal/config"
	"github.com/derKlinke/buergeramt/pkg/chat"
)

// ErrNoAPIKey is returned by New when the selected provider has no key.
var ErrNoAPIKey = errors.New("no API key configured")

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// Chat sends the conversation and returns the model's answer
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)

	// Name identifies the provider and model in logs
	Name() string
}

// New creates the LLM service selected by cfg. It returns ErrNoAPIKey when
// the provider needs a key and none is set; callers fall back to the rule
// based adapter.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (LLMService, error) {
	if cfg.LLMProvider == config.ProviderRules {
		return nil, fmt.Errorf("%w: provider %q uses no language model", ErrNoAPIKey, cfg.LLMProvider)
	}
	// Ollama runs locally and needs no key.
	if cfg.LLMProvider == config.ProviderOllama {
		return NewOllamaService(cfg.OllamaBaseURL, cfg.Model(), logger), nil
	}
	if cfg.APIKey() == "" {
		return nil, fmt.Errorf("%w for provider %q", ErrNoAPIKey, cfg.LLMProvider)
	}

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewChatGPTService(cfg.APIKey(), cfg.Model()), nil
	case config.ProviderAnthropic:
		return NewAnthropicService(cfg.APIKey(), cfg.Model(), logger), nil
	case config.ProviderGemini:
		return NewGeminiService(ctx, cfg.APIKey(), cfg.Model())
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
