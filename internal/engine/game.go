// Package engine runs the turn loop: it hands player input to the official
// of the current department, applies the resulting decision to the game
// state and turns everything that happened into lines for the UI.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"text/template"

	"github.com/derKlinke/buergeramt/internal/logger"
	"github.com/derKlinke/buergeramt/pkg/decision"
	"github.com/derKlinke/buergeramt/pkg/rules"
	"github.com/derKlinke/buergeramt/pkg/state"
	"github.com/derKlinke/buergeramt/pkg/textfilter"
)

const (
	// DefaultTransferChance is the probability that a bureaucratic loop
	// also sends the player to another department.
	DefaultTransferChance = 0.7

	interruptionTransferChance = 0.3
	interruptionMinAttempts    = 5
	tipInterval                = 5
	defaultLoopFrustration     = 2
)

var transferReasons = []string{
	"Ihr Anliegen muss woanders bearbeitet werden",
	"für diesen Fall ist eine andere Abteilung zuständig",
	"aufgrund einer neuen Dienstanweisung",
	"wegen Systemumstellung",
	"weil das Verfahren geändert wurde",
}

// Game is one session. It is not safe for concurrent use; callers run one
// turn at a time.
type Game struct {
	cfg      *rules.Config
	gs       *state.GameState
	adapter  decision.Adapter
	adapters map[string]decision.Adapter
	router   *Router
	commands *CommandManager
	hints    *Hints
	filter   *textfilter.ProfanityFilter
	rng      *rand.Rand
	logger   *slog.Logger

	interruptionChance float64
	transferChance     float64

	won bool
}

type Option func(*Game)

// WithAdapter sets the adapter used by every department without its own.
func WithAdapter(a decision.Adapter) Option {
	return func(g *Game) { g.adapter = a }
}

// WithDepartmentAdapter sets the adapter of one department.
func WithDepartmentAdapter(dept string, a decision.Adapter) Option {
	return func(g *Game) { g.adapters[dept] = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Game) { g.logger = l }
}

// WithRand injects the random source used for interruptions and loops.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithInterruptionChance sets the per-turn probability of a random
// interruption. Zero disables interruptions.
func WithInterruptionChance(p float64) Option {
	return func(g *Game) { g.interruptionChance = p }
}

func WithTransferChance(p float64) Option {
	return func(g *Game) { g.transferChance = p }
}

// WithContentRating filters officials' speech for ratings up to PG-13.
func WithContentRating(rating string) Option {
	return func(g *Game) {
		g.filter = nil
		if textfilter.ShouldFilterContent(rating) {
			g.filter = textfilter.NewProfanityFilter()
		}
	}
}

// New starts a session for cfg. Without an adapter the rule based one is
// used.
func New(cfg *rules.Config, opts ...Option) *Game {
	g := &Game{
		cfg:            cfg,
		gs:             state.New(cfg),
		adapters:       make(map[string]decision.Adapter),
		rng:            rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:         slog.Default(),
		transferChance: DefaultTransferChance,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.adapter == nil {
		g.adapter = decision.NewRuleAdapter(cfg)
	}
	g.logger = logger.WithSession(g.logger, g.gs.ID())
	g.router = NewRouter(g.gs)
	g.hints = NewHints(cfg)
	g.commands = NewCommandManager()
	g.registerCommands()
	return g
}

// State returns the live game state.
func (g *Game) State() *state.GameState { return g.gs }

// Persona returns the official the player is talking to.
func (g *Game) Persona() *rules.Persona { return g.router.Active() }

func (g *Game) Commands() *CommandManager { return g.commands }

func (g *Game) Won() bool { return g.won }

// Start returns the introduction shown before the first turn.
func (g *Game) Start() []Line {
	t := &Turn{}
	t.add(StyleTitle, "=== WILLKOMMEN ZUM SCHENKUNGSSTEUERABENTEUER ===")
	for _, line := range strings.Split(strings.TrimSpace(g.cfg.Game.Intro), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			t.add(StyleNormal, line)
		}
	}

	t.add(StyleHint, "Tipps zum Spielen:")
	t.add(StyleHint, "• Sprechen Sie mit den Beamten über 'Formulare', 'Anträge', 'Dokumente'")
	t.add(StyleHint, "• Zeigen Sie Ausweise und Unterlagen durch Angabe von 'Personalausweis', 'Urkunde', etc.")
	t.add(StyleHint, "• Wechseln Sie zwischen Abteilungen mit Sätzen wie 'Ich möchte zu Herrn Weber'")
	t.add(StyleHint, "• Drücken Sie Ihre Frustration aus, wenn Sie möchten")
	t.add(StyleHint, "• Nutzen Sie Befehle wie /hilfe, /status, /hinweis, /beenden oder /gehe_zu <Name>")
	t.add(StyleItalic, "Beispiel: 'Ich möchte eine Schenkungssteuer anmelden und habe meinen Personalausweis dabei.'")
	t.add(StyleItalic, "Sie betreten das Finanzamt...")

	p := g.router.Active()
	t.say(p.Name, p.Introduce())
	t.say(p.Name, "Wie kann ich Ihnen behilflich sein?")

	g.logger.Info("game started",
		"department", g.gs.GetCurrentDepartment(),
		"procedure", g.gs.GetCurrentProcedure())
	return t.Lines
}

// ProcessInput runs one turn. Slash commands are handled without asking an
// official. The only error returned is the context's.
func (g *Game) ProcessInput(ctx context.Context, input string) (*Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	input = strings.TrimSpace(input)

	if name, arg, ok := parseCommand(input); ok {
		g.logger.Info("command", "command", name, "argument", arg)
		return g.runCommand(name, arg), nil
	}

	t := &Turn{}
	if g.won {
		t.Won = true
		t.Outcome = g.gs.Outcome()
		t.add(StyleInfo, "Der Vorgang ist abgeschlossen. Tippen Sie /beenden, um das Finanzamt zu verlassen.")
		return t, nil
	}

	attempt := g.gs.RecordAttempt()
	persona := g.router.Active()
	log := g.logger.With("attempt", attempt, "department", persona.Department)
	log.Info("user input", "input", input)

	d, err := g.adapterFor(persona.Department).Decide(ctx, persona, input, g.gs.Snapshot())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.WithError(log, err).Warn("decision failed, using fallback response")
		g.speak(t, persona, persona.Fallback(attempt))
		return t, nil
	}
	log.Info("decision",
		"intent", d.Intent,
		"document", d.Document,
		"evidence", d.Evidence,
		"department", d.Department,
		"valid", d.Valid,
		"frustrated", d.Frustrated)

	if !d.Valid {
		msg := d.Message
		if msg == "" {
			msg = "Ihre Eingabe kann so nicht bearbeitet werden."
		}
		t.add(StyleFailure, msg)
		_ = g.gs.IncreaseFrustration(1)
		log.Info("invalid input", "frustration", g.gs.GetFrustrationLevel())
		return t, nil
	}

	if d.ResponseText != "" {
		g.speak(t, persona, d.ResponseText)
	}
	if d.Frustrated {
		_ = g.gs.IncreaseFrustration(1)
	}

	if len(d.Evidence) > 0 {
		accepted := g.applyEvidence(t, d, input)
		g.autoGrant(t, accepted)
	}

	switch d.Intent {
	case decision.IntentRequestDocument:
		if d.Document != "" {
			g.requestDocument(t, d)
		}
	case decision.IntentSwitchDepartment:
		if d.Department != "" {
			g.switchDepartment(t, d.Department)
		}
	}

	g.advanceProcedure(t, input)
	if loop := g.gs.CheckForLoop(); loop != nil {
		g.runLoop(t, loop)
	}
	g.maybeInterrupt(t)

	if attempt%tipInterval == 0 {
		t.add(StyleHint, "Tipp: Tippen Sie /hilfe für Spieltipps oder /status für Ihren aktuellen Stand.")
	}

	progress := g.gs.UpdateProgress()
	log.Info("turn processed",
		"progress", progress,
		"frustration", g.gs.GetFrustrationLevel(),
		"documents", g.gs.GetDocumentCount(),
		"evidence", g.gs.GetEvidenceCount(),
		"procedure", g.gs.GetCurrentProcedure())

	if g.gs.CheckWin() {
		g.won = true
		t.Won = true
		t.Outcome = g.gs.Outcome()
		g.winLines(t)
		log.Info("game won", "outcome", t.Outcome.String())
	}
	return t, nil
}

func (g *Game) adapterFor(dept string) decision.Adapter {
	if a, ok := g.adapters[dept]; ok {
		return a
	}
	return g.adapter
}

func (g *Game) speak(t *Turn, persona *rules.Persona, text string) {
	if g.filter != nil {
		text = g.filter.FilterText(text)
	}
	t.say(persona.Name, text)
}

// applyEvidence stores every evidence of the decision and returns the ids
// accepted this turn. The form is taken from the decision, else from the
// player's own words.
func (g *Game) applyEvidence(t *Turn, d *decision.Decision, input string) []string {
	var accepted []string
	for _, id := range d.Evidence {
		ev, ok := g.cfg.EvidenceByID(id)
		if !ok {
			g.logger.Warn("decision names unknown evidence", "evidence", id)
			continue
		}

		form := resolveForm(ev, d.Form(id), input)
		if form == "" {
			t.add(StyleFailure, fmt.Sprintf("Der Nachweis für '%s' wurde nicht akzeptiert.", id))
			t.add(StyleHint, "Akzeptierte Formen für diesen Nachweis sind: "+strings.Join(ev.AcceptableForms, ", "))
			_ = g.gs.IncreaseFrustration(1)
			continue
		}
		if prev, ok := g.gs.EvidenceForm(id); ok && prev == form {
			continue
		}
		if !g.gs.AddEvidence(id, form) {
			continue
		}

		t.add(StyleSuccess, fmt.Sprintf("Sie haben '%s' als Nachweis für '%s' eingereicht.", form, id))
		g.logger.Info("evidence provided", "evidence", id, "form", form)
		accepted = append(accepted, id)
	}
	return accepted
}

func resolveForm(ev *rules.Evidence, claimed, input string) string {
	if claimed = strings.TrimSpace(claimed); claimed != "" {
		if ev.Accepts(claimed) {
			return claimed
		}
		if form, ok := ev.MatchForm(claimed); ok {
			return form
		}
	}
	form, _ := ev.MatchForm(input)
	return form
}

// autoGrant issues documents of the current department that the evidence
// accepted this turn has just completed. Documents that need other documents
// still have to be asked for.
func (g *Game) autoGrant(t *Turn, accepted []string) {
	if len(accepted) == 0 {
		return
	}
	for _, id := range g.cfg.TopologicalOrder() {
		doc := g.cfg.Documents[id]
		if doc.Department != g.gs.GetCurrentDepartment() || g.gs.HasDocument(id) {
			continue
		}
		completes := slices.ContainsFunc(doc.EvidenceRequirements(), func(ev string) bool {
			return slices.Contains(accepted, ev)
		})
		if !completes || len(g.gs.Missing(id)) > 0 {
			continue
		}
		if err := g.grant(t, id, "Da Sie alle Voraussetzungen erfüllen, erhalten Sie das Dokument '%s'!"); err != nil {
			logger.WithError(g.logger, err).Error("auto grant failed", "document", id)
		}
	}
}

func (g *Game) requestDocument(t *Turn, d *decision.Decision) {
	id, ok := g.resolveDocument(d.Document)
	if !ok {
		t.add(StyleFailure, fmt.Sprintf("Ein Dokument '%s' ist in diesem Amt nicht bekannt.", d.Document))
		_ = g.gs.IncreaseFrustration(1)
		return
	}
	if g.gs.HasDocument(id) {
		t.add(StyleInfo, fmt.Sprintf("Sie haben das Dokument '%s' bereits.", id))
		return
	}

	doc := g.cfg.Documents[id]
	if doc.Department != g.gs.GetCurrentDepartment() {
		t.add(StyleFailure, fmt.Sprintf("Das Dokument '%s' wird in dieser Abteilung nicht ausgestellt.", id))
		t.add(StyleHint, g.hints.visit(doc.Department))
		_ = g.gs.IncreaseFrustration(1)
		return
	}

	if d.RequirementsMet != nil && *d.RequirementsMet != (len(g.gs.Missing(id)) == 0) {
		g.logger.Debug("decision disagrees with requirement check", "document", id, "claimed", *d.RequirementsMet)
	}

	err := g.grant(t, id, "Sie erhalten das Dokument '%s'!")
	if err == nil {
		return
	}

	var notMet *state.RequirementsNotMetError
	if errors.As(err, &notMet) {
		missing := make([]string, len(notMet.Missing))
		for i, r := range notMet.Missing {
			missing[i] = r.ID
		}
		t.add(StyleFailure, fmt.Sprintf("Sie können das Dokument '%s' nicht erhalten.", id))
		t.add(StyleHint, fmt.Sprintf("Sie benötigen noch: %s.", strings.Join(missing, ", ")))
		g.logger.Info("document refused", "document", id, "missing", missing)
	} else {
		logger.WithError(g.logger, err).Error("document grant failed", "document", id)
		t.add(StyleFailure, fmt.Sprintf("Das Dokument '%s' konnte nicht ausgestellt werden.", id))
	}
	_ = g.gs.IncreaseFrustration(1)
}

// grant adds a document, relieves some frustration, advances the procedure
// and points at the next step.
func (g *Game) grant(t *Turn, id, format string) error {
	if err := g.gs.AddDocument(id); err != nil {
		return err
	}
	t.add(StyleSuccess, fmt.Sprintf(format, id))
	_ = g.gs.DecreaseFrustration(1)

	doc := g.cfg.Documents[id]
	if doc.AdvancesProcedure != "" && g.gs.AdvanceProcedure(doc.AdvancesProcedure) {
		g.logger.Info("procedure advanced", "procedure", doc.AdvancesProcedure)
	}
	g.logger.Info("document granted", "document", id)

	if id != g.cfg.Game.FinalDocument {
		for _, hint := range g.hints.NextStep(g.gs) {
			t.add(StyleHint, hint)
		}
	}
	return nil
}

// resolveDocument accepts a document id or form code in any spelling.
func (g *Game) resolveDocument(name string) (string, bool) {
	if _, ok := g.cfg.Document(name); ok {
		return name, true
	}
	folded := textfilter.Fold(name)
	for _, id := range g.cfg.TopologicalOrder() {
		doc := g.cfg.Documents[id]
		if textfilter.Fold(id) == folded || (doc.Code != "" && textfilter.Fold(doc.Code) == folded) {
			return id, true
		}
	}
	return "", false
}

func (g *Game) switchDepartment(t *Turn, name string) {
	lines, ok := g.router.Switch(name)
	if !ok {
		t.add(StyleHint, fmt.Sprintf("Eine Abteilung '%s' gibt es in diesem Amt nicht.", name))
		return
	}
	t.append(lines...)
	g.logger.Info("department switched", "department", g.gs.GetCurrentDepartment())
}

// advanceProcedure starts the first follow-up procedure whose keywords the
// player used. Starting it in the wrong department costs frustration.
func (g *Game) advanceProcedure(t *Turn, input string) {
	for _, next := range g.gs.NextSteps() {
		proc, ok := g.cfg.Procedure(next)
		if !ok {
			continue
		}
		mentioned := slices.ContainsFunc(proc.Keywords, func(k string) bool {
			return textfilter.ContainsWord(input, k)
		})
		if !mentioned || !g.gs.SetProcedure(next) {
			continue
		}

		t.add(StyleItalic, "Sie beginnen den Vorgang: "+next)
		g.logger.Info("procedure started", "procedure", next)
		if !proc.AllowsDepartment(g.gs.GetCurrentDepartment()) {
			t.add(StyleFailure, "Sie sind in der falschen Abteilung für diesen Vorgang!")
			t.add(StyleHint, fmt.Sprintf("Sie müssten eigentlich bei der Abteilung %s sein.", proc.Department))
			_ = g.gs.IncreaseFrustration(1)
		}
		return
	}
}

// runLoop sends the player back to the loop's redirect procedure and, more
// often than not, to another department as well.
func (g *Game) runLoop(t *Turn, loop *rules.Loop) {
	persona := g.router.Active()
	dept := g.loopDepartment(loop)

	t.say(persona.Name, renderLoopMessage(loop.Message, dept))
	t.add(StyleItalic, "Sie werden weitergeleitet...")

	g.gs.SetProcedure(loop.Redirect)
	frustration := loop.Frustration
	if frustration <= 0 {
		frustration = defaultLoopFrustration
	}
	_ = g.gs.IncreaseFrustration(frustration)

	g.logger.Info("bureaucratic loop",
		"trigger", loop.Trigger,
		"redirect", loop.Redirect,
		"target_department", dept)

	if dept != g.gs.GetCurrentDepartment() && g.rng.Float64() < g.transferChance {
		t.append(g.router.Transfer(dept)...)
	}
}

// loopDepartment is the department of the redirect procedure, or a random
// other department if the procedure happens anywhere.
func (g *Game) loopDepartment(loop *rules.Loop) string {
	if proc, ok := g.cfg.Procedure(loop.Redirect); ok && g.cfg.HasDepartment(proc.Department) {
		return proc.Department
	}
	if dept := g.randomOtherDepartment(); dept != "" {
		return dept
	}
	return g.gs.GetCurrentDepartment()
}

func (g *Game) randomOtherDepartment() string {
	others := slices.DeleteFunc(g.cfg.Departments(), func(d string) bool {
		return d == g.gs.GetCurrentDepartment()
	})
	if len(others) == 0 {
		return ""
	}
	return others[g.rng.IntN(len(others))]
}

func renderLoopMessage(msg, dept string) string {
	tmpl, err := template.New("loop").Parse(msg)
	if err != nil {
		return msg
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Department string }{dept}); err != nil {
		return msg
	}
	return buf.String()
}

func (g *Game) maybeInterrupt(t *Turn) {
	items := g.cfg.Game.Interruptions
	if g.interruptionChance <= 0 || len(items) == 0 || g.gs.GetAttempts() <= interruptionMinAttempts {
		return
	}
	if g.rng.Float64() >= g.interruptionChance {
		return
	}

	persona := g.router.Active()
	it := items[g.rng.IntN(len(items))]
	t.say(persona.Name, it.Speech)
	t.add(StyleItalic, it.Narration)
	g.logger.Info("interruption", "speech", it.Speech)

	if g.rng.Float64() < interruptionTransferChance {
		if dept := g.randomOtherDepartment(); dept != "" {
			reason := transferReasons[g.rng.IntN(len(transferReasons))]
			t.say(persona.Name, fmt.Sprintf("Sie müssen zur Abteilung %s, %s.", dept, reason))
			t.append(g.router.Transfer(dept)...)
			return
		}
	}
	t.say(persona.Name, "Wir können jetzt fortfahren.")
}

func (g *Game) winLines(t *Turn) {
	switch t.Outcome {
	case state.OutcomeChaos:
		t.add(StyleTitle, "=== SIEG DURCH CHAOS ===")
		t.add(StyleSuccess, "Entnervt von Ihrer Hartnäckigkeit stempelt das Finanzamt einfach alles ab. Die Schenkungssteuer gilt als angemeldet.")
	default:
		t.add(StyleTitle, "=== HERZLICHEN GLÜCKWUNSCH! ===")
		t.add(StyleSuccess, "Sie haben es tatsächlich geschafft! Die Schenkungssteuer wurde bewilligt.")
	}
	t.add(StyleItalic, fmt.Sprintf("Sie haben %d Versuche gebraucht und Ihre Frustration erreichte Level %d.",
		g.gs.GetAttempts(), g.gs.GetFrustrationLevel()))
	persona := g.router.Active()
	t.say(persona.Name, "Sie dürfen jetzt den Brief mit dem Steuerbescheid in 4-6 Wochen erwarten.")
}
