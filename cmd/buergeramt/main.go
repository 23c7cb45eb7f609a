package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/derKlinke/buergeramt/internal/agent"
	"github.com/derKlinke/buergeramt/internal/config"
	"github.com/derKlinke/buergeramt/internal/engine"
	"github.com/derKlinke/buergeramt/internal/logger"
	"github.com/derKlinke/buergeramt/internal/services"
	"github.com/derKlinke/buergeramt/pkg/decision"
	"github.com/derKlinke/buergeramt/pkg/rules"
)

func main() {
	apiKey := flag.String("api-key", "", "API key of the selected LLM provider (overrides the environment)")
	configPath := flag.String("config", "", "path to a game configuration in YAML (default: built-in Schenkungssteuer game)")
	plain := flag.Bool("plain", false, "line based console without the full screen UI")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *apiKey != "" {
		cfg.SetAPIKey(*apiKey)
	}
	if *configPath != "" {
		cfg.GameConfig = *configPath
	}

	gameRules, err := rules.Open(cfg.GameConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load game configuration: %v\n", err)
		os.Exit(1)
	}

	log, logFile, err := logger.OpenSessionLog(cfg, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open session log: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	game := engine.New(gameRules,
		engine.WithAdapter(newAdapter(ctx, cfg, gameRules, log)),
		engine.WithInterruptionChance(cfg.InterruptionChance),
		engine.WithContentRating(cfg.ContentRating),
		engine.WithLogger(log))

	if *plain {
		err = runPlain(ctx, game, os.Stdin, os.Stdout)
	} else {
		p := tea.NewProgram(NewConsoleUI(ctx, game),
			tea.WithAltScreen(),
			tea.WithMouseCellMotion())
		_, err = p.Run()
	}

	stop()
	_ = logFile.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error running game: %v\n", err)
		os.Exit(1)
	}
}

// newAdapter picks the language model backed officials when a provider is
// configured and falls back to the rule based ones otherwise.
func newAdapter(ctx context.Context, cfg *config.Config, gameRules *rules.Config, log *slog.Logger) decision.Adapter {
	llm, err := services.New(ctx, cfg, log)
	if err != nil {
		if errors.Is(err, services.ErrNoAPIKey) {
			log.Info("no language model configured, using rule based officials", "provider", cfg.LLMProvider)
		} else {
			logger.WithError(log, err).Warn("failed to create LLM service, using rule based officials")
		}
		return decision.NewRuleAdapter(gameRules)
	}

	log.Info("using language model", "service", llm.Name())
	return agent.New(llm, gameRules,
		agent.WithCacheSize(cfg.DecisionCacheSize),
		agent.WithHistoryLimit(cfg.HistoryLimit),
		agent.WithContentRating(cfg.ContentRating),
		agent.WithLogger(log))
}
