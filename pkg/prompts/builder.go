package prompts

import (
	"fmt"
	"strings"

	"github.com/derKlinke/buergeramt/pkg/chat"
	"github.com/derKlinke/buergeramt/pkg/conditionals"
	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/derKlinke/buergeramt/pkg/state"
)

// Builder constructs chat messages for one official's decision using a
// fluent interface.
type Builder struct {
	persona      *rules.Persona
	cfg          *rules.Config
	snap         *state.Snapshot
	history      []chat.ChatMessage
	userMessage  string
	rating       string
	historyLimit int
	messages     []chat.ChatMessage
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: chat.DefaultHistoryLimit,
		messages:     make([]chat.ChatMessage, 0),
	}
}

// WithPersona sets the official who answers.
func (b *Builder) WithPersona(p *rules.Persona) *Builder {
	b.persona = p
	return b
}

// WithConfig sets the game rules.
func (b *Builder) WithConfig(cfg *rules.Config) *Builder {
	b.cfg = cfg
	return b
}

// WithSnapshot sets the case file the official looks at.
func (b *Builder) WithSnapshot(snap state.Snapshot) *Builder {
	b.snap = &snap
	return b
}

// WithHistory sets the earlier conversation with this official.
func (b *Builder) WithHistory(history []chat.ChatMessage) *Builder {
	b.history = history
	return b
}

// WithUserMessage sets the player's message.
func (b *Builder) WithUserMessage(message string) *Builder {
	b.userMessage = message
	return b
}

// WithContentRating sets the content rating (G, PG, PG-13, R).
func (b *Builder) WithContentRating(rating string) *Builder {
	b.rating = rating
	return b
}

// WithHistoryLimit sets the chat history window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs and returns the final message array for LLM consumption.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.persona == nil {
		return nil, fmt.Errorf("persona is required")
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if b.snap == nil {
		return nil, fmt.Errorf("snapshot is required")
	}

	// Reset messages
	b.messages = make([]chat.ChatMessage, 0)

	// 1. System prompt
	if err := b.addSystemPrompt(); err != nil {
		return nil, fmt.Errorf("error building system prompt: %w", err)
	}

	// 2. Windowed chat history
	b.addHistory()

	// 3. User message
	b.addUserMessage()

	// 4. Final reminders
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: UserPostPrompt,
	})

	return b.messages, nil
}

func (b *Builder) addSystemPrompt() error {
	var sb strings.Builder

	personaPrompt, err := RenderPersonaPrompt(b.persona, b.cfg)
	if err != nil {
		return err
	}
	sb.WriteString(personaPrompt)

	if examples := BuildExamples(b.persona); examples != "" {
		sb.WriteString("\n\n" + examples)
	}

	if b.rating != "" {
		sb.WriteString("\n\nContent Rating: " + b.rating + " (" + GetContentRatingPrompt(b.rating) + ")")
	}

	statePrompt, err := GetStatePrompt(*b.snap, b.cfg)
	if err != nil {
		return fmt.Errorf("error generating state prompt: %w", err)
	}
	sb.WriteString("\n\n" + statePrompt.Content)

	guidance := conditionals.FilterContingencyPrompts(b.persona.StageGuidance, b.snap)
	if len(guidance) > 0 {
		sb.WriteString("\n\nSome important guidelines for this conversation:\n\n")
		for i, prompt := range guidance {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, prompt))
		}
	}

	sb.WriteString("\n\n" + GetDecisionPrompt())

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: sb.String(),
	})
	return nil
}

// addHistory adds windowed chat history to the message array.
func (b *Builder) addHistory() {
	if len(b.history) == 0 {
		return
	}
	if b.historyLimit <= 0 || len(b.history) <= b.historyLimit {
		b.messages = append(b.messages, b.history...)
		return
	}
	b.messages = append(b.messages, b.history[len(b.history)-b.historyLimit:]...)
}

func (b *Builder) addUserMessage() {
	if b.userMessage == "" {
		return
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: b.userMessage,
	})
}

// BuildMessages is a convenience function for the common case.
func BuildMessages(
	persona *rules.Persona,
	cfg *rules.Config,
	snap state.Snapshot,
	history []chat.ChatMessage,
	message string,
) ([]chat.ChatMessage, error) {
	return New().
		WithPersona(persona).
		WithConfig(cfg).
		WithSnapshot(snap).
		WithHistory(history).
		WithUserMessage(message).
		Build()
}
