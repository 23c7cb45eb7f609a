package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommands() *CommandManager {
	noop := func(string) *Turn { return &Turn{} }
	m := NewCommandManager()
	m.Register("hilfe", []string{"help"}, noop, "Hilfe", false, nil)
	m.Register("status", nil, noop, "Status", false, nil)
	m.Register("hinweis", []string{"hint"}, noop, "Hinweis", false, nil)
	m.Register("gehe_zu", []string{"goto"}, noop, "Wechseln", true, func() []string {
		return []string{"Frau Müller", "Herr Schmidt"}
	})
	m.Register("beenden", []string{"quit", "exit"}, noop, "Beenden", false, nil)
	return m
}

func TestCommandManager_Get(t *testing.T) {
	m := newTestCommands()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"hilfe", "hilfe", true},
		{"/hilfe", "hilfe", true},
		{"/HELP", "hilfe", true},
		{"goto", "gehe_zu", true},
		{"exit", "beenden", true},
		{"/unbekannt", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, ok := m.Get(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, cmd.Name)
			}
		})
	}
}

func TestCommandManager_RegisterReplaces(t *testing.T) {
	m := newTestCommands()
	m.Register("status", nil, func(string) *Turn { return &Turn{Quit: true} }, "Neu", false, nil)

	cmd, ok := m.Get("status")
	require.True(t, ok)
	assert.Equal(t, "Neu", cmd.Description)
	assert.Len(t, m.All(), 5)
	assert.Equal(t, "status", m.All()[4].Name)
}

func TestCommandManager_Suggest(t *testing.T) {
	m := newTestCommands()

	t.Run("empty lists everything in order", func(t *testing.T) {
		assert.Equal(t, []string{"/hilfe", "/status", "/hinweis", "/gehe_zu", "/beenden"}, m.Suggest(""))
	})

	t.Run("prefix matches come first", func(t *testing.T) {
		got := m.Suggest("/h")
		require.GreaterOrEqual(t, len(got), 2)
		assert.Equal(t, []string{"/hilfe", "/hinweis"}, got[:2])
		assert.Contains(t, got, "/gehe_zu")
	})

	t.Run("alias prefix suggests the command", func(t *testing.T) {
		got := m.Suggest("qu")
		require.NotEmpty(t, got)
		assert.Equal(t, "/beenden", got[0])
	})

	t.Run("fuzzy match", func(t *testing.T) {
		assert.Equal(t, []string{"/status"}, m.Suggest("stts"))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, m.Suggest("xyz"))
	})
}

func TestCommandManager_ArgumentSuggestions(t *testing.T) {
	m := newTestCommands()
	assert.Equal(t, []string{"Frau Müller", "Herr Schmidt"}, m.ArgumentSuggestions("/goto"))
	assert.Nil(t, m.ArgumentSuggestions("status"))
	assert.Nil(t, m.ArgumentSuggestions("unbekannt"))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantArg  string
		wantOK   bool
	}{
		{"/status", "status", "", true},
		{"  /Gehe_zu  Frau Müller ", "gehe_zu", "Frau Müller", true},
		{"/", "", "", false},
		{"status", "", "", false},
		{"Ich möchte /status", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, arg, ok := parseCommand(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArg, arg)
		})
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent int
		want    string
	}{
		{0, strings.Repeat("░", 20)},
		{50, strings.Repeat("█", 10) + strings.Repeat("░", 10)},
		{100, strings.Repeat("█", 20)},
		{150, strings.Repeat("█", 20)},
		{-5, strings.Repeat("░", 20)},
		{33, strings.Repeat("█", 6) + strings.Repeat("░", 14)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ProgressBar(tt.percent, ProgressBarWidth), "percent %d", tt.percent)
	}
}
