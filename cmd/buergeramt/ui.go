package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/derKlinke/buergeramt/internal/engine"
	"github.com/muesli/reflow/wordwrap"
)

const (
	PlayerName      = "Sie"
	PlaceHolderText = "Was möchten Sie dem Beamten sagen?"
)

// entry is one line of the transcript. Player input has no engine style.
type entry struct {
	line   engine.Line
	player bool
}

// transcript is shared by pointer so the /kopieren handler sees what the
// model shows.
type transcript struct {
	entries []entry
}

func (t *transcript) add(lines ...engine.Line) {
	for _, l := range lines {
		t.entries = append(t.entries, entry{line: l})
	}
}

func (t *transcript) addPlayer(text string) {
	t.entries = append(t.entries, entry{line: engine.Line{Speaker: PlayerName, Text: text}, player: true})
}

// String renders the transcript without styling.
func (t *transcript) String() string {
	var b strings.Builder
	for _, e := range t.entries {
		if e.player {
			b.WriteString(PlayerName + ": " + e.line.Text + "\n")
			continue
		}
		b.WriteString(plainText(e.line) + "\n")
	}
	return b.String()
}

// ConsoleUI is the BubbleTea model that runs the game.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	ctx          context.Context
	game         *engine.Game
	transcript   *transcript
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool
	done         bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnMsg struct {
	turn *engine.Turn
	err  error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	bureaucratStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")). // bright green
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")) // light blue

	italicStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

var lineStyles = map[engine.Style]lipgloss.Style{
	engine.StyleBureaucrat: bureaucratStyle,
	engine.StyleSuccess:    successStyle,
	engine.StyleFailure:    errorStyle,
	engine.StyleHint:       hintStyle,
	engine.StyleInfo:       infoStyle,
	engine.StyleItalic:     italicStyle,
	engine.StyleTitle:      titleStyle,
}

func NewConsoleUI(ctx context.Context, game *engine.Game) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	t := &transcript{}
	t.add(game.Start()...)
	registerCopyCommand(game, t)

	return ConsoleUI{
		ctx:          ctx,
		game:         game,
		transcript:   t,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
	}
}

// registerCopyCommand adds /kopieren, which only makes sense with a full
// screen UI where the terminal cannot select the scrolled away text.
func registerCopyCommand(game *engine.Game, t *transcript) {
	game.Commands().Register("kopieren", []string{"copy"}, func(string) *engine.Turn {
		if err := clipboard.WriteAll(t.String()); err != nil {
			return &engine.Turn{Lines: []engine.Line{
				{Style: engine.StyleFailure, Text: "Der Verlauf konnte nicht kopiert werden: " + err.Error()},
			}}
		}
		return &engine.Turn{Lines: []engine.Line{
			{Style: engine.StyleInfo, Text: "Der Gesprächsverlauf wurde in die Zwischenablage kopiert."},
		}}
	}, "Kopiert den Gesprächsverlauf in die Zwischenablage", false, nil)
}

func formatLine(e entry, width int) string {
	if e.player {
		return userStyle.Render(PlayerName+": ") + wordwrap.String(e.line.Text, width-len(PlayerName)-2)
	}

	l := e.line
	if l.Style == engine.StyleBureaucrat && l.Speaker != "" {
		wrapped := wordwrap.String(l.Text, width-len(l.Speaker)-2)
		return speakerStyle.Render(l.Speaker+": ") + bureaucratStyle.Render(wrapped)
	}

	wrapped := wordwrap.String(l.Text, width)
	if style, ok := lineStyles[l.Style]; ok {
		return style.Render(wrapped)
	}
	return wrapped
}

// writeChatContent rebuilds the chat for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("FINANZAMT · SCHENKUNGSSTEUERSTELLE") + "\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	for i, e := range m.transcript.entries {
		if i > 0 && (e.player || e.line.Style == engine.StyleTitle) {
			content.WriteString("\n")
		}
		content.WriteString(formatLine(e, chatWidth) + "\n")
	}

	if m.loading {
		content.WriteString("\n" + m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// writeMetadata renders the case file panel. It reads the game state and
// must not run while a turn is in flight.
func writeMetadata(game *engine.Game) string {
	gs := game.State()
	cfg := gs.Config()
	persona := game.Persona()

	var content strings.Builder
	content.WriteString(titleStyle.Render("IHRE AKTE") + "\n\n")

	content.WriteString("Abteilung:\n")
	content.WriteString(gs.GetCurrentDepartment() + "\n")
	content.WriteString(promptStyle.Render(persona.Name) + "\n\n")

	content.WriteString("Vorgang:\n")
	content.WriteString(gs.GetCurrentProcedure() + "\n\n")

	content.WriteString("Fortschritt:\n")
	content.WriteString(fmt.Sprintf("%s %d%%\n\n", engine.ProgressBar(gs.Progress(), engine.ProgressBarWidth/2), gs.Progress()))

	frustration := fmt.Sprintf("%d/%d", gs.GetFrustrationLevel(), cfg.FrustrationThreshold())
	if gs.GetFrustrationLevel() > cfg.FrustrationThreshold() {
		frustration = errorStyle.Render(frustration)
	}
	content.WriteString("Frustration:\n" + frustration + "\n\n")

	content.WriteString(fmt.Sprintf("Versuche:\n%d\n\n", gs.GetAttempts()))

	content.WriteString("Dokumente:\n")
	if docs := gs.CollectedDocumentIDs(); len(docs) > 0 {
		for _, id := range docs {
			content.WriteString(successStyle.Render("• "+id) + "\n")
		}
	} else {
		content.WriteString("keine\n")
	}
	content.WriteString("\n")

	content.WriteString("Nachweise:\n")
	if ids := gs.ProvidedEvidenceIDs(); len(ids) > 0 {
		for _, id := range ids {
			content.WriteString("• " + id + "\n")
		}
	} else {
		content.WriteString("keine\n")
	}

	content.WriteString("\n")
	content.WriteString("Tasten:\n")
	content.WriteString("• Enter: Senden\n")
	content.WriteString("• Tab: Befehl ergänzen\n")
	content.WriteString("• Esc: Beenden\n")

	return content.String()
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeChatContent()
		if !m.loading {
			m.metaViewport.SetContent(writeMetadata(m.game))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyTab:
			m.complete()
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			if m.done {
				return m, tea.Quit
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			m.transcript.addPlayer(input)

			if strings.HasPrefix(input, engine.CommandPrefix) {
				// Commands never reach an official and return immediately.
				turn, err := m.game.ProcessInput(m.ctx, input)
				return m.applyTurn(turnMsg{turn: turn, err: err})
			}

			m.loading = true
			m.progressTick = 0
			m.writeChatContent()
			return m, tea.Batch(m.processInput(input), progressTick())
		}

	case turnMsg:
		return m.applyTurn(msg)

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) applyTurn(msg turnMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.transcript.add(engine.Line{Style: engine.StyleFailure, Text: "Fehler: " + msg.err.Error()})
		m.writeChatContent()
		return m, tea.Quit
	}

	m.transcript.add(msg.turn.Lines...)
	if msg.turn.Won {
		m.done = true
		m.transcript.add(engine.Line{Style: engine.StyleItalic, Text: "Drücken Sie Enter, um das Finanzamt zu verlassen."})
	}
	m.writeChatContent()
	m.metaViewport.SetContent(writeMetadata(m.game))

	if msg.turn.Quit {
		return m, tea.Quit
	}
	return m, nil
}

func (m ConsoleUI) processInput(input string) tea.Cmd {
	return func() tea.Msg {
		turn, err := m.game.ProcessInput(m.ctx, input)
		return turnMsg{turn: turn, err: err}
	}
}

// complete replaces the typed command, or the argument of a command, with
// its first suggestion.
func (m *ConsoleUI) complete() {
	input := strings.TrimLeft(m.textarea.Value(), " ")
	if !strings.HasPrefix(input, engine.CommandPrefix) {
		return
	}

	name, arg, hasArg := strings.Cut(input, " ")
	if !hasArg {
		if suggestions := m.game.Commands().Suggest(name); len(suggestions) > 0 {
			m.textarea.SetValue(suggestions[0] + " ")
		}
		return
	}

	for _, option := range m.game.Commands().ArgumentSuggestions(name) {
		if strings.HasPrefix(strings.ToLower(option), strings.ToLower(strings.TrimSpace(arg))) {
			m.textarea.SetValue(name + " " + option)
			return
		}
	}
}

// suggestionLine shows what Tab would complete to.
func (m ConsoleUI) suggestionLine() string {
	input := strings.TrimLeft(m.textarea.Value(), " ")
	if !strings.HasPrefix(input, engine.CommandPrefix) {
		return ""
	}
	name, _, hasArg := strings.Cut(input, " ")
	var options []string
	if hasArg {
		options = m.game.Commands().ArgumentSuggestions(name)
	} else {
		options = m.game.Commands().Suggest(name)
	}
	if len(options) == 0 {
		return ""
	}
	return promptStyle.Render(strings.Join(options, "  "))
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 8
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 3
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case turnMsg:
		// A turn finished while the dialog was open.
		model, _ := m.applyTurn(msg)
		m = model.(ConsoleUI)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "j", "J", "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Lädt..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Finanzamt verlassen?"))
	content.WriteString("\n\n")
	content.WriteString("Ihr Antrag geht dabei verloren. Sie müssten von vorne beginnen.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("J zum Verlassen, N zum Weitermachen, Strg+C zum sofortigen Beenden"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initialisiere..."
	}

	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 0))),
			m.textarea.View(),
			m.suggestionLine(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated bar while an official is thinking.
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 60 {
		usable = 60
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String()) + "\n" + italicStyle.Render("Der Beamte blättert in Ihren Unterlagen...")
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
