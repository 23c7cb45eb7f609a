// Package agent implements decision.Adapter on top of a language model.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/derKlinke/buergeramt/internal/services"
	"github.com/derKlinke/buergeramt/pkg/chat"
	"github.com/derKlinke/buergeramt/pkg/decision"
	"github.com/derKlinke/buergeramt/pkg/prompts"
	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/derKlinke/buergeramt/pkg/state"
	"github.com/derKlinke/buergeramt/pkg/textfilter"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 128

// Bureaucrat lets a language model play the officials. It keeps one
// conversation history per persona and caches decisions for repeated input
// in an unchanged case file.
type Bureaucrat struct {
	llm          services.LLMService
	cfg          *rules.Config
	rating       string
	historyLimit int
	histories    map[string]*chat.History
	cache        *lru.Cache[string, decision.Decision]
	logger       *slog.Logger
}

type Option func(*Bureaucrat)

// WithCacheSize sets the number of cached decisions; zero disables caching.
func WithCacheSize(n int) Option {
	return func(b *Bureaucrat) {
		b.cache = nil
		if n > 0 {
			b.cache, _ = lru.New[string, decision.Decision](n)
		}
	}
}

func WithHistoryLimit(n int) Option {
	return func(b *Bureaucrat) { b.historyLimit = n }
}

func WithContentRating(rating string) Option {
	return func(b *Bureaucrat) { b.rating = rating }
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bureaucrat) { b.logger = logger }
}

// New creates a Bureaucrat for the given rules.
func New(llm services.LLMService, cfg *rules.Config, opts ...Option) *Bureaucrat {
	b := &Bureaucrat{
		llm:          llm,
		cfg:          cfg,
		historyLimit: chat.DefaultHistoryLimit,
		histories:    make(map[string]*chat.History),
		logger:       slog.Default(),
	}
	WithCacheSize(DefaultCacheSize)(b)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Decide asks the model for a decision. Errors are returned unchanged so
// the caller can fall back to a canned response.
func (b *Bureaucrat) Decide(ctx context.Context, persona *rules.Persona, input string, snap state.Snapshot) (*decision.Decision, error) {
	history := b.history(persona.ID)
	key := cacheKey(persona.ID, input, snap)

	if b.cache != nil {
		if cached, ok := b.cache.Get(key); ok {
			b.logger.Debug("decision cache hit", "persona", persona.ID)
			d := clone(cached)
			b.remember(history, input, &d)
			return &d, nil
		}
	}

	messages, err := prompts.New().
		WithPersona(persona).
		WithConfig(b.cfg).
		WithSnapshot(snap).
		WithHistory(history.Messages()).
		WithHistoryLimit(b.historyLimit).
		WithContentRating(b.rating).
		WithUserMessage(input).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := b.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.llm.Name(), err)
	}

	d, err := decision.Parse(resp.Message)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.llm.Name(), err)
	}

	b.logger.Debug("decision received",
		"persona", persona.ID,
		"provider", b.llm.Name(),
		"intent", d.Intent,
		"valid", d.Valid)

	if b.cache != nil {
		b.cache.Add(key, clone(*d))
	}
	b.remember(history, input, d)
	return d, nil
}

// ResetHistory forgets the conversation with a persona.
func (b *Bureaucrat) ResetHistory(personaID string) {
	delete(b.histories, personaID)
}

func (b *Bureaucrat) history(personaID string) *chat.History {
	h, ok := b.histories[personaID]
	if !ok {
		h = chat.NewHistory(b.historyLimit)
		b.histories[personaID] = h
	}
	return h
}

func (b *Bureaucrat) remember(h *chat.History, input string, d *decision.Decision) {
	h.Add(chat.ChatRoleUser, input)
	reply := d.ResponseText
	if !d.Valid {
		reply = d.Message
	}
	if reply != "" {
		h.Add(chat.ChatRoleAgent, reply)
	}
}

func cacheKey(personaID, input string, snap state.Snapshot) string {
	return strings.Join([]string{personaID, textfilter.Fold(input), snap.Fingerprint()}, "\x00")
}

func clone(d decision.Decision) decision.Decision {
	d.Evidence = slices.Clone(d.Evidence)
	d.EvidenceForms = maps.Clone(d.EvidenceForms)
	if d.RequirementsMet != nil {
		met := *d.RequirementsMet
		d.RequirementsMet = &met
	}
	return d
}
