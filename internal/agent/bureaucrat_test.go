package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/derKlinke/buergeramt/internal/services"
	"github.com/derKlinke/buergeramt/pkg/chat"
	"github.com/derKlinke/buergeramt/pkg/decision"
	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/derKlinke/buergeramt/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...Option) (*Bureaucrat, *services.MockLLMAPI, *state.GameState) {
	t.Helper()
	cfg, err := rules.LoadDefault()
	require.NoError(t, err)

	mock := services.NewMockLLMAPI()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(mock, cfg, opts...), mock, state.New(cfg)
}

func TestBureaucrat_Decide(t *testing.T) {
	b, mock, gs := setup(t)
	mock.SetChatResponse("```json\n" + `{"response_text":"Formular S-100!","intent":"request_document","document":"Schenkungsanmeldung","requirements_met":false}` + "\n```")

	persona := gs.Config().StartingPersona()
	d, err := b.Decide(context.Background(), persona, "Ich brauche das Formular", gs.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, decision.IntentRequestDocument, d.Intent)
	assert.Equal(t, "Schenkungsanmeldung", d.Document)
	assert.True(t, d.Valid)

	calls := mock.GetChatCalls()
	require.Len(t, calls, 1)
	msgs := calls[0].Messages
	assert.Equal(t, chat.ChatRoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Herr Schmidt")
	assert.Equal(t, "Ich brauche das Formular", msgs[len(msgs)-2].Content)
}

func TestBureaucrat_History(t *testing.T) {
	b, mock, gs := setup(t)
	persona := gs.Config().StartingPersona()

	_, err := b.Decide(context.Background(), persona, "Hallo", gs.Snapshot())
	require.NoError(t, err)
	_, err = b.Decide(context.Background(), persona, "Noch einmal hallo", gs.Snapshot())
	require.NoError(t, err)

	second := mock.GetChatCalls()[1].Messages
	// system, user, assistant, user, reminder
	require.Len(t, second, 5)
	assert.Equal(t, "Hallo", second[1].Content)
	assert.Equal(t, chat.ChatRoleAgent, second[2].Role)

	// Histories are kept per persona.
	weber := gs.Config().Personas["weber"]
	_, err = b.Decide(context.Background(), weber, "Hallo", gs.Snapshot())
	require.NoError(t, err)
	assert.Len(t, mock.GetChatCalls()[2].Messages, 3)

	b.ResetHistory(persona.ID)
	_, err = b.Decide(context.Background(), persona, "Wieder da", gs.Snapshot())
	require.NoError(t, err)
	assert.Len(t, mock.GetChatCalls()[3].Messages, 3)
}

func TestBureaucrat_Cache(t *testing.T) {
	b, mock, gs := setup(t)
	persona := gs.Config().StartingPersona()

	first, err := b.Decide(context.Background(), persona, "Guten Tag", gs.Snapshot())
	require.NoError(t, err)
	first.ResponseText = "mutated"

	second, err := b.Decide(context.Background(), persona, "  guten   TAG ", gs.Snapshot())
	require.NoError(t, err)
	assert.Len(t, mock.GetChatCalls(), 1, "same input and state must hit the cache")
	assert.NotEqual(t, "mutated", second.ResponseText)

	require.True(t, gs.AddEvidence("valid_id", "Reisepass"))
	_, err = b.Decide(context.Background(), persona, "Guten Tag", gs.Snapshot())
	require.NoError(t, err)
	assert.Len(t, mock.GetChatCalls(), 2, "a changed case file must miss the cache")
}

func TestBureaucrat_CacheDisabled(t *testing.T) {
	b, mock, gs := setup(t, WithCacheSize(0))
	persona := gs.Config().StartingPersona()

	for range 2 {
		_, err := b.Decide(context.Background(), persona, "Guten Tag", gs.Snapshot())
		require.NoError(t, err)
	}
	assert.Len(t, mock.GetChatCalls(), 2)
}

func TestBureaucrat_Errors(t *testing.T) {
	t.Run("service error", func(t *testing.T) {
		b, mock, gs := setup(t)
		boom := errors.New("connection refused")
		mock.SetChatError(boom)

		_, err := b.Decide(context.Background(), gs.Config().StartingPersona(), "Hallo", gs.Snapshot())
		assert.ErrorIs(t, err, boom)
		assert.True(t, strings.HasPrefix(err.Error(), "mock: "))
	})

	t.Run("malformed output", func(t *testing.T) {
		b, mock, gs := setup(t)
		mock.SetChatResponse("Ich antworte nicht in JSON.")

		_, err := b.Decide(context.Background(), gs.Config().StartingPersona(), "Hallo", gs.Snapshot())
		assert.ErrorIs(t, err, decision.ErrMalformedDecision)
	})
}

func TestBureaucrat_ImplementsAdapter(t *testing.T) {
	var _ decision.Adapter = (*Bureaucrat)(nil)
}
