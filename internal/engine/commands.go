package engine

import (
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
)

// CommandPrefix starts every slash command.
const CommandPrefix = "/"

// CommandHandler runs a command with its (possibly empty) argument.
type CommandHandler func(arg string) *Turn

// Command is a slash command the player can type instead of talking.
type Command struct {
	Name          string
	Aliases       []string
	Description   string
	TakesArgument bool
	Handler       CommandHandler
	Suggestions   func() []string
}

// CommandManager holds the registered commands in registration order.
type CommandManager struct {
	commands []*Command
	byName   map[string]*Command
}

func NewCommandManager() *CommandManager {
	return &CommandManager{byName: make(map[string]*Command)}
}

// Register adds a command. Names and aliases are matched without the leading
// slash and case-insensitively; a later registration of the same name
// replaces the earlier one.
func (m *CommandManager) Register(name string, aliases []string, handler CommandHandler, description string, takesArgument bool, suggestions func() []string) {
	cmd := &Command{
		Name:          normalizeCommand(name),
		Aliases:       make([]string, 0, len(aliases)),
		Description:   description,
		TakesArgument: takesArgument,
		Handler:       handler,
		Suggestions:   suggestions,
	}
	for _, a := range aliases {
		cmd.Aliases = append(cmd.Aliases, normalizeCommand(a))
	}

	if old, ok := m.byName[cmd.Name]; ok {
		m.commands = slices.DeleteFunc(m.commands, func(c *Command) bool { return c == old })
	}
	m.commands = append(m.commands, cmd)
	m.byName[cmd.Name] = cmd
	for _, a := range cmd.Aliases {
		if _, taken := m.byName[a]; !taken {
			m.byName[a] = cmd
		}
	}
}

// Get looks up a command by name or alias.
func (m *CommandManager) Get(name string) (*Command, bool) {
	cmd, ok := m.byName[normalizeCommand(name)]
	return cmd, ok
}

// All returns the registered commands in registration order.
func (m *CommandManager) All() []*Command {
	return slices.Clone(m.commands)
}

// Suggest completes a partial command name. Prefix matches on names and
// aliases come first, in registration order; fuzzy matches on the primary
// names follow, best first. Results carry the slash.
func (m *CommandManager) Suggest(partial string) []string {
	partial = normalizeCommand(partial)

	var out []string
	seen := map[string]bool{}
	push := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, CommandPrefix+name)
		}
	}

	for _, cmd := range m.commands {
		if strings.HasPrefix(cmd.Name, partial) {
			push(cmd.Name)
			continue
		}
		for _, a := range cmd.Aliases {
			if strings.HasPrefix(a, partial) {
				push(cmd.Name)
				break
			}
		}
	}
	if partial == "" {
		return out
	}

	names := make([]string, len(m.commands))
	for i, cmd := range m.commands {
		names[i] = cmd.Name
	}
	for _, match := range fuzzy.Find(partial, names) {
		push(match.Str)
	}
	return out
}

// ArgumentSuggestions returns the argument completions of a command.
func (m *CommandManager) ArgumentSuggestions(name string) []string {
	cmd, ok := m.Get(name)
	if !ok || cmd.Suggestions == nil {
		return nil
	}
	return cmd.Suggestions()
}

// parseCommand splits "/name arg words" into name and argument. Input that
// does not start with the prefix is not a command.
func parseCommand(input string) (name, arg string, ok bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, CommandPrefix) {
		return "", "", false
	}
	name, arg, _ = strings.Cut(strings.TrimPrefix(input, CommandPrefix), " ")
	name = normalizeCommand(name)
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(arg), true
}

func normalizeCommand(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), CommandPrefix))
}
